package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

type AIActionStore interface {
	Create(ctx context.Context, a *models.AIAction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AIAction, error)
	Decide(ctx context.Context, id uuid.UUID, approver uuid.UUID, status string, decidedAt time.Time) (bool, error)
	Finalize(ctx context.Context, id uuid.UUID, status string, executedAt *time.Time, results map[string]any) error
	List(ctx context.Context, status *string, limit, offset int) ([]models.AIAction, error)
}

// ActionHandler executes one approved action type. It receives the full
// action so it can attribute side effects to the proposer; the returned map
// is stored verbatim in the action's results.
type ActionHandler func(ctx context.Context, action *models.AIAction) (map[string]any, error)

// ApprovalService holds machine-proposed actions until a human decides.
// Approval triggers execution through a pluggable per-type dispatcher.
type ApprovalService struct {
	store    AIActionStore
	users    UserDirectory
	handlers map[string]ActionHandler
	log      *zap.Logger
}

func NewApprovalService(store AIActionStore, users UserDirectory, log *zap.Logger) *ApprovalService {
	return &ApprovalService{
		store:    store,
		users:    users,
		handlers: make(map[string]ActionHandler),
		log:      log,
	}
}

// Register binds an action type to its handler. Unknown types fail at
// execution time, keeping the executor agnostic to what actions exist.
func (s *ApprovalService) Register(actionType string, handler ActionHandler) {
	s.handlers[actionType] = handler
}

func (s *ApprovalService) Propose(ctx context.Context, proposerID uuid.UUID, payload models.AIActionPayload) (*models.AIAction, error) {
	if payload.Type == "" {
		return nil, fmt.Errorf("payload type is required")
	}

	action := &models.AIAction{
		ProposerID: proposerID,
		Payload:    payload,
		Status:     models.AIActionStatusProposed,
	}
	if err := s.store.Create(ctx, action); err != nil {
		return nil, err
	}
	return action, nil
}

// Decide approves or rejects a proposed action. The flip out of proposed is
// a conditional update, so concurrent decisions cannot both win. Approval
// runs the dispatcher synchronously; an execution failure leaves the action
// rejected with the reason recorded in results, never executed.
func (s *ApprovalService) Decide(ctx context.Context, actionID, approverID uuid.UUID, approve bool) (*models.AIAction, error) {
	action, err := s.store.GetByID(ctx, actionID)
	if err != nil {
		return nil, fmt.Errorf("%w: ai action %s", ErrNotFound, actionID)
	}

	approver, err := s.users.GetByID(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown approver %s", ErrForbidden, approverID)
	}
	if !rbac.HasPermission(approver.Role, rbac.PermApproveAIActions) {
		return nil, fmt.Errorf("%w: role %q cannot decide ai actions", ErrForbidden, approver.Role)
	}

	now := time.Now()

	if !approve {
		ok, err := s.store.Decide(ctx, actionID, approverID, models.AIActionStatusRejected, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: ai action %s is %s", ErrAlreadyDecided, actionID, action.Status)
		}
		return s.store.GetByID(ctx, actionID)
	}

	ok, err := s.store.Decide(ctx, actionID, approverID, models.AIActionStatusApproved, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: ai action %s is %s", ErrAlreadyDecided, actionID, action.Status)
	}

	results, execErr := s.execute(ctx, action)
	if execErr != nil {
		s.log.Warn("ai action execution failed",
			zap.String("action_id", actionID.String()),
			zap.String("type", action.Payload.Type),
			zap.Error(execErr))
		if err := s.store.Finalize(ctx, actionID, models.AIActionStatusRejected, nil, map[string]any{
			"error": execErr.Error(),
		}); err != nil {
			return nil, err
		}
		return s.store.GetByID(ctx, actionID)
	}

	executedAt := time.Now()
	if err := s.store.Finalize(ctx, actionID, models.AIActionStatusExecuted, &executedAt, results); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, actionID)
}

func (s *ApprovalService) execute(ctx context.Context, action *models.AIAction) (map[string]any, error) {
	handler, ok := s.handlers[action.Payload.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, action.Payload.Type)
	}
	return handler(ctx, action)
}

func (s *ApprovalService) GetByID(ctx context.Context, id uuid.UUID) (*models.AIAction, error) {
	action, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: ai action %s", ErrNotFound, id)
	}
	return action, nil
}

func (s *ApprovalService) List(ctx context.Context, status *string, limit, offset int) ([]models.AIAction, error) {
	return s.store.List(ctx, status, limit, offset)
}
