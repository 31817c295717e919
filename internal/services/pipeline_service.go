package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/events"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/repositories"
	"go.uber.org/zap"
)

type PipelineStore interface {
	CreateStage(ctx context.Context, s *models.PipelineStage) error
	GetStage(ctx context.Context, applicantType, stageName string) (*models.PipelineStage, error)
	FirstActiveStage(ctx context.Context, applicantType string) (*models.PipelineStage, error)
	ListStages(ctx context.Context, applicantType string) ([]models.PipelineStage, error)
	CreateEntry(ctx context.Context, e *models.PipelineEntry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*models.PipelineEntry, error)
	UpdateEntryStage(ctx context.Context, id uuid.UUID, stage string) error
	UpdateEntryStatus(ctx context.Context, id uuid.UUID, status string) error
	ListEntries(ctx context.Context, f repositories.PipelineEntryFilter) ([]models.PipelineEntry, error)
	MarkAutoActionFired(ctx context.Context, entryID uuid.UUID, stage, kind string) (bool, error)
}

// PipelineService moves applicants through ordered stages and fires each
// stage's auto-action policy on entry.
type PipelineService struct {
	store        PipelineStore
	items        *ActionItemService
	publisher    events.Publisher
	reviewerRole string
	log          *zap.Logger
}

func NewPipelineService(store PipelineStore, items *ActionItemService, publisher events.Publisher, reviewerRole string, log *zap.Logger) *PipelineService {
	return &PipelineService{
		store:        store,
		items:        items,
		publisher:    publisher,
		reviewerRole: reviewerRole,
		log:          log,
	}
}

func (s *PipelineService) CreateStage(ctx context.Context, stage *models.PipelineStage) (*models.PipelineStage, error) {
	if stage.ApplicantType == "" || stage.StageName == "" {
		return nil, fmt.Errorf("applicant_type and stage_name are required")
	}
	if err := s.store.CreateStage(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *PipelineService) ListStages(ctx context.Context, applicantType string) ([]models.PipelineStage, error) {
	return s.store.ListStages(ctx, applicantType)
}

// Enroll creates a pipeline entry at the initial stage (lowest active
// stage_order for the applicant type) and opens one unassigned
// recruitment_review item. The empty assignee list broadcasts it to the
// reviewer role at read time.
func (s *PipelineService) Enroll(ctx context.Context, applicantID uuid.UUID, applicantType, priority string, notes *string, actorID uuid.UUID) (*models.PipelineEntry, error) {
	initial, err := s.store.FirstActiveStage(ctx, applicantType)
	if err != nil {
		return nil, fmt.Errorf("%w: no active stages for applicant type %q", ErrUnknownStage, applicantType)
	}

	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}

	entry := &models.PipelineEntry{
		ApplicantID:   applicantID,
		ApplicantType: applicantType,
		CurrentStage:  initial.StageName,
		Status:        models.PipelineEntryStatusNew,
		Priority:      priority,
		Notes:         notes,
	}
	if err := s.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	relatedType := "pipeline_entry"
	if _, err := s.items.Create(ctx, CreateActionItemInput{
		Title:       fmt.Sprintf("Review %s applicant", applicantType),
		Type:        models.ActionItemTypeRecruitmentReview,
		Priority:    priority,
		AssignerID:  actorID,
		RelatedType: &relatedType,
		RelatedID:   &entry.ID,
		Metadata: map[string]any{
			"applicant_id":   applicantID.String(),
			"applicant_type": applicantType,
			"broadcast_role": s.reviewerRole,
		},
	}); err != nil {
		s.log.Error("failed to create recruitment review item",
			zap.String("entry_id", entry.ID.String()), zap.Error(err))
	}

	return entry, nil
}

func (s *PipelineService) GetEntry(ctx context.Context, id uuid.UUID) (*models.PipelineEntry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline entry %s", ErrNotFound, id)
	}
	return entry, nil
}

func (s *PipelineService) ListEntries(ctx context.Context, f repositories.PipelineEntryFilter) ([]models.PipelineEntry, error) {
	return s.store.ListEntries(ctx, f)
}

// Advance moves the entry to the target stage and evaluates that stage's
// auto-action policy. The target must be an active stage registered for the
// entry's applicant type; otherwise the entry is left unchanged.
//
// Each auto action is guarded by an (entry, stage, kind) idempotency key, so
// re-entering a stage never re-fires its side effects.
func (s *PipelineService) Advance(ctx context.Context, entryID uuid.UUID, targetStage string, actorID uuid.UUID) (*models.PipelineEntry, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline entry %s", ErrNotFound, entryID)
	}

	stage, err := s.store.GetStage(ctx, entry.ApplicantType, targetStage)
	if err != nil || !stage.IsActive {
		return nil, fmt.Errorf("%w: %q is not an active stage for applicant type %q", ErrUnknownStage, targetStage, entry.ApplicantType)
	}

	oldStage := entry.CurrentStage
	now := time.Now()
	if err := s.store.UpdateEntryStage(ctx, entry.ID, stage.StageName); err != nil {
		return nil, err
	}
	entry.CurrentStage = stage.StageName
	entry.UpdatedAt = now

	// Evaluation order is fixed: notification item first, follow-up second,
	// so audit history is reproducible.
	if stage.AutoActions.SendNotification {
		s.fireNotificationAction(ctx, entry, stage, actorID)
	}
	if stage.AutoActions.CreateFollowup {
		s.fireFollowupAction(ctx, entry, stage, actorID, now)
	}

	_ = s.publisher.Publish(ctx, events.StreamWorkflow, events.Event{
		Type: events.EventPipelineAdvanced,
		Payload: map[string]any{
			"entry_id":  entry.ID.String(),
			"old_stage": oldStage,
			"new_stage": stage.StageName,
		},
	})

	return entry, nil
}

// AdvanceNext resolves the successor of the current stage by order and
// advances to it. The last stage has no successor and is terminal.
func (s *PipelineService) AdvanceNext(ctx context.Context, entryID uuid.UUID, actorID uuid.UUID) (*models.PipelineEntry, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline entry %s", ErrNotFound, entryID)
	}

	stages, err := s.store.ListStages(ctx, entry.ApplicantType)
	if err != nil {
		return nil, err
	}

	next := ""
	for i, st := range stages {
		if st.StageName != entry.CurrentStage {
			continue
		}
		for _, succ := range stages[i+1:] {
			if succ.IsActive {
				next = succ.StageName
				break
			}
		}
		break
	}
	if next == "" {
		return nil, fmt.Errorf("%w: stage %q has no successor", ErrUnknownStage, entry.CurrentStage)
	}
	return s.Advance(ctx, entryID, next, actorID)
}

func (s *PipelineService) TransitionEntryStatus(ctx context.Context, entryID uuid.UUID, newStatus string) (*models.PipelineEntry, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline entry %s", ErrNotFound, entryID)
	}
	if !models.IsValidPipelineEntryTransition(entry.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, newStatus)
	}
	if err := s.store.UpdateEntryStatus(ctx, entryID, newStatus); err != nil {
		return nil, err
	}
	entry.Status = newStatus
	return entry, nil
}

// --- auto actions ---

func (s *PipelineService) fireNotificationAction(ctx context.Context, entry *models.PipelineEntry, stage *models.PipelineStage, actorID uuid.UUID) {
	fired, err := s.store.MarkAutoActionFired(ctx, entry.ID, stage.StageName, models.FiredActionNotification)
	if err != nil || !fired {
		if err != nil {
			s.log.Error("failed to record auto action", zap.Error(err))
		}
		return
	}

	relatedType := "pipeline_entry"
	meta := map[string]any{
		"applicant_id":   entry.ApplicantID.String(),
		"applicant_type": entry.ApplicantType,
		"stage":          stage.StageName,
	}
	if stage.AutoActions.NotificationTemplateID != nil {
		meta["template_id"] = *stage.AutoActions.NotificationTemplateID
	}

	if _, err := s.items.Create(ctx, CreateActionItemInput{
		Title:       fmt.Sprintf("Send stage notification for %s", stage.StageName),
		Type:        models.ActionItemTypeNotification,
		Priority:    entry.Priority,
		Assignees:   []uuid.UUID{actorID},
		AssignerID:  actorID,
		RelatedType: &relatedType,
		RelatedID:   &entry.ID,
		Metadata:    meta,
	}); err != nil {
		s.log.Error("failed to create notification action item",
			zap.String("entry_id", entry.ID.String()), zap.Error(err))
	}
}

func (s *PipelineService) fireFollowupAction(ctx context.Context, entry *models.PipelineEntry, stage *models.PipelineStage, actorID uuid.UUID, now time.Time) {
	fired, err := s.store.MarkAutoActionFired(ctx, entry.ID, stage.StageName, models.FiredActionFollowup)
	if err != nil || !fired {
		if err != nil {
			s.log.Error("failed to record auto action", zap.Error(err))
		}
		return
	}

	assignee := actorID
	if entry.AssigneeID != nil {
		assignee = *entry.AssigneeID
	}
	dueDate := now.AddDate(0, 0, stage.AutoActions.FollowupDays)
	relatedType := "pipeline_entry"

	if _, err := s.items.Create(ctx, CreateActionItemInput{
		Title:       fmt.Sprintf("Follow up on %s applicant at %s", entry.ApplicantType, stage.StageName),
		Type:        models.ActionItemTypeFollowUp,
		Priority:    entry.Priority,
		Assignees:   []uuid.UUID{assignee},
		AssignerID:  actorID,
		DueDate:     &dueDate,
		RelatedType: &relatedType,
		RelatedID:   &entry.ID,
		Metadata: map[string]any{
			"applicant_id": entry.ApplicantID.String(),
			"stage":        stage.StageName,
		},
	}); err != nil {
		s.log.Error("failed to create follow-up action item",
			zap.String("entry_id", entry.ID.String()), zap.Error(err))
	}
}
