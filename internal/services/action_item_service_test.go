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

func newItemFixture(t *testing.T) (*ActionItemService, *memItems, *memUsers, *memPublisher) {
	t.Helper()
	items := newMemItems()
	users := newMemUsers()
	pub := &memPublisher{}
	svc := NewActionItemService(items, users, pub, zap.NewNop())
	return svc, items, users, pub
}

func emailOf(s string) *string { return &s }

func TestActionItemCreateDefaults(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})

	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title:      "Order supplies",
		Type:       models.ActionItemTypeSupplyRequest,
		AssignerID: assigner.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusPending, item.Status)
	assert.Equal(t, models.PriorityMedium, item.Priority)

	history, err := svc.ListHistory(context.Background(), item.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "created", history[0].Action)
}

func TestActionItemCreateRejectsBadInput(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})

	_, err := svc.Create(context.Background(), CreateActionItemInput{AssignerID: assigner.ID})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), CreateActionItemInput{
		Title: "x", Priority: "extreme", AssignerID: assigner.ID,
	})
	assert.Error(t, err)
}

func TestActionItemTransitionByAssignee(t *testing.T) {
	svc, _, users, pub := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})
	assignee := users.add(models.User{Role: rbac.RoleVolunteer})

	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title:      "Call the venue",
		Type:       models.ActionItemTypeFollowUp,
		Assignees:  []uuid.UUID{assignee.ID},
		AssignerID: assigner.ID,
	})
	require.NoError(t, err)

	got, err := svc.Transition(context.Background(), item.ID, models.ActionItemStatusInProgress, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusInProgress, got.Status)
	assert.Nil(t, got.CompletedBy)

	got, err = svc.Transition(context.Background(), item.ID, models.ActionItemStatusCompleted, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedBy)
	assert.Equal(t, assignee.ID, *got.CompletedBy)
	assert.NotNil(t, got.CompletedAt)

	assert.Len(t, pub.byType("action_item_updated"), 2)
}

func TestActionItemTransitionFromTerminalFails(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})

	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "One shot", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID,
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), item.ID, models.ActionItemStatusCancelled, assigner.ID)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), item.ID, models.ActionItemStatusInProgress, assigner.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActionItemTransitionForbiddenForStranger(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})
	stranger := users.add(models.User{Role: rbac.RoleVolunteer})

	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "Private task", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID,
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), item.ID, models.ActionItemStatusInProgress, stranger.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// An admin is neither assignee nor assigner but may act anyway.
	admin := users.add(models.User{Role: rbac.RoleAdmin})
	_, err = svc.Transition(context.Background(), item.ID, models.ActionItemStatusInProgress, admin.ID)
	assert.NoError(t, err)
}

func TestActionItemOverdueRequiresElapsedDueDate(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})

	future := time.Now().Add(24 * time.Hour)
	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "Not due yet", Type: models.ActionItemTypeFollowUp,
		AssignerID: assigner.ID, DueDate: &future,
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), item.ID, models.ActionItemStatusOverdue, assigner.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	noDue, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "No due date", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID,
	})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), noDue.ID, models.ActionItemStatusOverdue, assigner.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActionItemSweepOverdue(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	late, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "Late", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID, DueDate: &past,
	})
	require.NoError(t, err)

	onTime, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "On time", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID, DueDate: &future,
	})
	require.NoError(t, err)

	done, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "Done", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID, DueDate: &past,
	})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), done.ID, models.ActionItemStatusCompleted, assigner.ID)
	require.NoError(t, err)

	result, err := svc.SweepOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)

	got, err := svc.GetByID(context.Background(), late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusOverdue, got.Status)

	got, err = svc.GetByID(context.Background(), onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusPending, got.Status)

	got, err = svc.GetByID(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusCompleted, got.Status)

	// A second sweep finds nothing new.
	result, err = svc.SweepOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
}

func TestActionItemOverdueRecoverable(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})
	past := time.Now().Add(-time.Hour)

	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "Slipped", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID, DueDate: &past,
	})
	require.NoError(t, err)

	_, err = svc.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)

	got, err := svc.Transition(context.Background(), item.ID, models.ActionItemStatusCompleted, assigner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionItemStatusCompleted, got.Status)
}

func TestActionItemComments(t *testing.T) {
	svc, _, users, _ := newItemFixture(t)
	assigner := users.add(models.User{Role: rbac.RoleCoordinator})

	item, err := svc.Create(context.Background(), CreateActionItemInput{
		Title: "Discuss", Type: models.ActionItemTypeFollowUp, AssignerID: assigner.ID,
	})
	require.NoError(t, err)

	_, err = svc.AddComment(context.Background(), item.ID, assigner.ID, "public note", false)
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), item.ID, assigner.ID, "internal note", true)
	require.NoError(t, err)

	public, err := svc.ListComments(context.Background(), item.ID, false)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	all, err := svc.ListComments(context.Background(), item.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	history, err := svc.ListHistory(context.Background(), item.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3) // created + two comments
}
