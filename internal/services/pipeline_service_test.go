package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

type pipelineFixture struct {
	svc   *PipelineService
	items *ActionItemService
	store *memPipeline
	users *memUsers
	pub   *memPublisher
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	itemStore := newMemItems()
	users := newMemUsers()
	pub := &memPublisher{}
	items := NewActionItemService(itemStore, users, pub, zap.NewNop())
	store := newMemPipeline()
	svc := NewPipelineService(store, items, pub, rbac.RoleReviewer, zap.NewNop())
	return &pipelineFixture{svc: svc, items: items, store: store, users: users, pub: pub}
}

func (f *pipelineFixture) addStage(t *testing.T, name string, order int, active bool, auto models.AutoActions) {
	t.Helper()
	_, err := f.svc.CreateStage(context.Background(), &models.PipelineStage{
		ApplicantType: "volunteer",
		StageName:     name,
		StageOrder:    order,
		AutoActions:   auto,
		IsActive:      active,
	})
	require.NoError(t, err)
}

func TestPipelineEnroll(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})
	f.addStage(t, "applied", 1, true, models.AutoActions{})
	f.addStage(t, "interview", 2, true, models.AutoActions{})

	entry, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", "", nil, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, "applied", entry.CurrentStage)
	assert.Equal(t, models.PipelineEntryStatusNew, entry.Status)
	assert.Equal(t, models.PriorityMedium, entry.Priority)

	// Enrollment opens exactly one unassigned review item.
	items, err := f.items.ListByEntity(context.Background(), "pipeline_entry", entry.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActionItemTypeRecruitmentReview, items[0].Type)
	assert.Empty(t, items[0].Assignees)
	assert.Equal(t, rbac.RoleReviewer, items[0].Metadata["broadcast_role"])
}

func TestPipelineEnrollNoStages(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})

	_, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", "", nil, actor.ID)
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestPipelineEnrollSkipsInactiveInitialStage(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})
	f.addStage(t, "legacy", 1, false, models.AutoActions{})
	f.addStage(t, "applied", 2, true, models.AutoActions{})

	entry, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", "", nil, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, "applied", entry.CurrentStage)
}

func TestPipelineAdvanceFiresAutoActionsOnce(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})
	f.addStage(t, "applied", 1, true, models.AutoActions{})
	f.addStage(t, "accepted", 2, true, models.AutoActions{
		SendNotification: true,
		CreateFollowup:   true,
		FollowupDays:     3,
	})

	entry, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", models.PriorityHigh, nil, actor.ID)
	require.NoError(t, err)

	got, err := f.svc.Advance(context.Background(), entry.ID, "accepted", actor.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", got.CurrentStage)

	items, err := f.items.ListByEntity(context.Background(), "pipeline_entry", entry.ID)
	require.NoError(t, err)
	// review item from enrollment + notification + follow-up
	require.Len(t, items, 3)

	var followup *models.ActionItem
	for i := range items {
		if items[i].Type == models.ActionItemTypeFollowUp {
			followup = &items[i]
		}
	}
	require.NotNil(t, followup)
	require.NotNil(t, followup.DueDate)
	wantDue := time.Now().AddDate(0, 0, 3)
	assert.WithinDuration(t, wantDue, *followup.DueDate, time.Minute)

	// Re-entering the stage does not duplicate the side effects.
	_, err = f.svc.Advance(context.Background(), entry.ID, "applied", actor.ID)
	require.NoError(t, err)
	_, err = f.svc.Advance(context.Background(), entry.ID, "accepted", actor.ID)
	require.NoError(t, err)

	items, err = f.items.ListByEntity(context.Background(), "pipeline_entry", entry.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	assert.Len(t, f.pub.byType("pipeline_advanced"), 3)
}

func TestPipelineAdvanceUnknownStageLeavesEntryUnchanged(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})
	f.addStage(t, "applied", 1, true, models.AutoActions{})
	f.addStage(t, "retired", 2, false, models.AutoActions{})

	entry, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", "", nil, actor.ID)
	require.NoError(t, err)

	_, err = f.svc.Advance(context.Background(), entry.ID, "nonexistent", actor.ID)
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = f.svc.Advance(context.Background(), entry.ID, "retired", actor.ID)
	assert.ErrorIs(t, err, ErrUnknownStage)

	got, err := f.svc.GetEntry(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "applied", got.CurrentStage)
}

func TestPipelineAdvanceNext(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})
	f.addStage(t, "applied", 1, true, models.AutoActions{})
	f.addStage(t, "paused", 2, false, models.AutoActions{})
	f.addStage(t, "interview", 3, true, models.AutoActions{})

	entry, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", "", nil, actor.ID)
	require.NoError(t, err)

	got, err := f.svc.AdvanceNext(context.Background(), entry.ID, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, "interview", got.CurrentStage)

	// Last active stage has no successor.
	_, err = f.svc.AdvanceNext(context.Background(), entry.ID, actor.ID)
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestPipelineEntryStatusTransitions(t *testing.T) {
	f := newPipelineFixture(t)
	actor := f.users.add(models.User{Role: rbac.RoleCoordinator})
	f.addStage(t, "applied", 1, true, models.AutoActions{})

	entry, err := f.svc.Enroll(context.Background(), uuid.New(), "volunteer", "", nil, actor.ID)
	require.NoError(t, err)

	got, err := f.svc.TransitionEntryStatus(context.Background(), entry.ID, models.PipelineEntryStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.PipelineEntryStatusClosed, got.Status)

	_, err = f.svc.TransitionEntryStatus(context.Background(), entry.ID, models.PipelineEntryStatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
