package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

func newApprovalFixture(t *testing.T) (*ApprovalService, *memAIActions, *memUsers) {
	t.Helper()
	store := newMemAIActions()
	users := newMemUsers()
	svc := NewApprovalService(store, users, zap.NewNop())
	return svc, store, users
}

func TestApprovalApproveExecutes(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	proposer := users.add(models.User{Role: rbac.RoleVolunteer})
	approver := users.add(models.User{Role: rbac.RoleCoordinator})

	executed := 0
	svc.Register("send_email", func(_ context.Context, a *models.AIAction) (map[string]any, error) {
		executed++
		return map[string]any{"sent_to": a.Payload.Params["to"]}, nil
	})

	action, err := svc.Propose(context.Background(), proposer.ID, models.AIActionPayload{
		Type:   "send_email",
		Params: map[string]any{"to": "team@example.org"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusProposed, action.Status)

	got, err := svc.Decide(context.Background(), action.ID, approver.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusExecuted, got.Status)
	assert.Equal(t, 1, executed)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, approver.ID, *got.ApprovedBy)
	assert.NotNil(t, got.ExecutedAt)
	assert.Equal(t, "team@example.org", got.Results["sent_to"])
}

func TestApprovalReject(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	proposer := users.add(models.User{Role: rbac.RoleVolunteer})
	approver := users.add(models.User{Role: rbac.RoleAdmin})

	executed := false
	svc.Register("send_email", func(context.Context, *models.AIAction) (map[string]any, error) {
		executed = true
		return nil, nil
	})

	action, err := svc.Propose(context.Background(), proposer.ID, models.AIActionPayload{Type: "send_email"})
	require.NoError(t, err)

	got, err := svc.Decide(context.Background(), action.ID, approver.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusRejected, got.Status)
	assert.False(t, executed)
	assert.Nil(t, got.ExecutedAt)
}

func TestApprovalSecondDecisionRejected(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	proposer := users.add(models.User{Role: rbac.RoleVolunteer})
	approver := users.add(models.User{Role: rbac.RoleCoordinator})

	svc.Register("noop", func(context.Context, *models.AIAction) (map[string]any, error) {
		return nil, nil
	})

	action, err := svc.Propose(context.Background(), proposer.ID, models.AIActionPayload{Type: "noop"})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), action.ID, approver.ID, true)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), action.ID, approver.ID, false)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	// The first decision's outcome is untouched.
	got, err := svc.GetByID(context.Background(), action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusExecuted, got.Status)
}

func TestApprovalUnknownActionTypeRecordedNotThrown(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	proposer := users.add(models.User{Role: rbac.RoleVolunteer})
	approver := users.add(models.User{Role: rbac.RoleCoordinator})

	action, err := svc.Propose(context.Background(), proposer.ID, models.AIActionPayload{Type: "launch_rocket"})
	require.NoError(t, err)

	got, err := svc.Decide(context.Background(), action.ID, approver.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusRejected, got.Status)
	assert.Nil(t, got.ExecutedAt)
	assert.Contains(t, got.Results["error"], "launch_rocket")
}

func TestApprovalHandlerFailureRecordedNotThrown(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	proposer := users.add(models.User{Role: rbac.RoleVolunteer})
	approver := users.add(models.User{Role: rbac.RoleCoordinator})

	svc.Register("flaky", func(context.Context, *models.AIAction) (map[string]any, error) {
		return nil, fmt.Errorf("downstream unavailable")
	})

	action, err := svc.Propose(context.Background(), proposer.ID, models.AIActionPayload{Type: "flaky"})
	require.NoError(t, err)

	got, err := svc.Decide(context.Background(), action.ID, approver.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusRejected, got.Status)
	assert.Contains(t, got.Results["error"], "downstream unavailable")
}

func TestApprovalRequiresPermission(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	proposer := users.add(models.User{Role: rbac.RoleVolunteer})
	reviewer := users.add(models.User{Role: rbac.RoleReviewer})

	action, err := svc.Propose(context.Background(), proposer.ID, models.AIActionPayload{Type: "noop"})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), action.ID, reviewer.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.GetByID(context.Background(), action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AIActionStatusProposed, got.Status)
}

func TestApprovalDecideUnknownAction(t *testing.T) {
	svc, _, users := newApprovalFixture(t)
	approver := users.add(models.User{Role: rbac.RoleCoordinator})

	_, err := svc.Decide(context.Background(), uuid.New(), approver.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}
