package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volunteer-portal/backend/internal/events"
	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/repositories"
)

// In-memory stores used by the service tests. They mirror the SQL
// repositories' observable behavior, conditional updates included.

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) add(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = &u
	return &u
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) ListAll(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) ListByRole(_ context.Context, role string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) ListByDepartment(_ context.Context, department string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.Department == department {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) ListDepartments(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, u := range m.users {
		if u.Department != "" && !seen[u.Department] {
			seen[u.Department] = true
			out = append(out, u.Department)
		}
	}
	return out, nil
}

type memNotifications struct {
	mu   sync.Mutex
	rows []*models.Notification
}

func newMemNotifications() *memNotifications { return &memNotifications{} }

func (m *memNotifications) Insert(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	cp := *n
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memNotifications) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.rows {
		if n.RecipientID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id, recipientID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.rows {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			if n.ReadAt == nil {
				n.ReadAt = &at
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) Delete(_ context.Context, id, recipientID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.rows {
		if n.ID == id && n.RecipientID == recipientID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.RecipientID == userID && !row.Read {
			n++
		}
	}
	return n, nil
}

type memItems struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*models.ActionItem
	history    []*models.ActionItemHistoryEntry
	notes      []*models.ActionItemComment
	deptCounts []repositories.DepartmentCounts
}

func newMemItems() *memItems {
	return &memItems{items: make(map[uuid.UUID]*models.ActionItem)}
}

func (m *memItems) Create(_ context.Context, item *models.ActionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memItems) GetByID(_ context.Context, id uuid.UUID) (*models.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("action item %s not found", id)
	}
	cp := *item
	return &cp, nil
}

func (m *memItems) UpdateStatus(_ context.Context, id uuid.UUID, status string, completedBy *uuid.UUID, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("action item %s not found", id)
	}
	item.Status = status
	item.CompletedBy = completedBy
	item.CompletedAt = completedAt
	item.UpdatedAt = time.Now()
	return nil
}

func (m *memItems) ListByEntity(_ context.Context, relatedType string, relatedID uuid.UUID) ([]models.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionItem
	for _, item := range m.items {
		if item.RelatedType != nil && *item.RelatedType == relatedType &&
			item.RelatedID != nil && *item.RelatedID == relatedID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memItems) ListAssignedTo(_ context.Context, userID uuid.UUID) ([]models.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionItem
	for _, item := range m.items {
		if item.IsAssignee(userID) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memItems) ListOverdue(_ context.Context, now time.Time) ([]models.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionItem
	for _, item := range m.items {
		switch item.Status {
		case models.ActionItemStatusCompleted, models.ActionItemStatusCancelled, models.ActionItemStatusOverdue:
			continue
		}
		if item.DueDate != nil && !item.DueDate.After(now) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memItems) CountOpenByDepartment(_ context.Context) ([]repositories.DepartmentCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deptCounts, nil
}

func (m *memItems) AddComment(_ context.Context, c *models.ActionItemComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	cp := *c
	m.notes = append(m.notes, &cp)
	return nil
}

func (m *memItems) ListComments(_ context.Context, itemID uuid.UUID, includeInternal bool) ([]models.ActionItemComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionItemComment
	for _, c := range m.notes {
		if c.ActionItemID != itemID {
			continue
		}
		if c.Internal && !includeInternal {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memItems) AppendHistory(_ context.Context, e *models.ActionItemHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	cp := *e
	m.history = append(m.history, &cp)
	return nil
}

func (m *memItems) ListHistory(_ context.Context, itemID uuid.UUID, limit, offset int) ([]models.ActionItemHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionItemHistoryEntry
	for _, e := range m.history {
		if e.ActionItemID == itemID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type firedKey struct {
	entryID uuid.UUID
	stage   string
	kind    string
}

type memPipeline struct {
	mu      sync.Mutex
	stages  []*models.PipelineStage
	entries map[uuid.UUID]*models.PipelineEntry
	fired   map[firedKey]bool
}

func newMemPipeline() *memPipeline {
	return &memPipeline{
		entries: make(map[uuid.UUID]*models.PipelineEntry),
		fired:   make(map[firedKey]bool),
	}
}

func (m *memPipeline) CreateStage(_ context.Context, s *models.PipelineStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	m.stages = append(m.stages, &cp)
	return nil
}

func (m *memPipeline) GetStage(_ context.Context, applicantType, stageName string) (*models.PipelineStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stages {
		if s.ApplicantType == applicantType && s.StageName == stageName {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("stage %q not found", stageName)
}

func (m *memPipeline) FirstActiveStage(_ context.Context, applicantType string) (*models.PipelineStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.PipelineStage
	for _, s := range m.stages {
		if s.ApplicantType != applicantType || !s.IsActive {
			continue
		}
		if best == nil || s.StageOrder < best.StageOrder {
			best = s
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no active stages for %q", applicantType)
	}
	cp := *best
	return &cp, nil
}

func (m *memPipeline) ListStages(_ context.Context, applicantType string) ([]models.PipelineStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PipelineStage
	for _, s := range m.stages {
		if s.ApplicantType == applicantType {
			out = append(out, *s)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StageOrder < out[i].StageOrder {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memPipeline) CreateEntry(_ context.Context, e *models.PipelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *memPipeline) GetEntry(_ context.Context, id uuid.UUID) (*models.PipelineEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("pipeline entry %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (m *memPipeline) UpdateEntryStage(_ context.Context, id uuid.UUID, stage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("pipeline entry %s not found", id)
	}
	e.CurrentStage = stage
	e.UpdatedAt = time.Now()
	return nil
}

func (m *memPipeline) UpdateEntryStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("pipeline entry %s not found", id)
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

func (m *memPipeline) ListEntries(_ context.Context, f repositories.PipelineEntryFilter) ([]models.PipelineEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PipelineEntry
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memPipeline) MarkAutoActionFired(_ context.Context, entryID uuid.UUID, stage, kind string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := firedKey{entryID: entryID, stage: stage, kind: kind}
	if m.fired[key] {
		return false, nil
	}
	m.fired[key] = true
	return true, nil
}

type memAIActions struct {
	mu      sync.Mutex
	actions map[uuid.UUID]*models.AIAction
}

func newMemAIActions() *memAIActions {
	return &memAIActions{actions: make(map[uuid.UUID]*models.AIAction)}
}

func (m *memAIActions) Create(_ context.Context, a *models.AIAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.actions[a.ID] = &cp
	return nil
}

func (m *memAIActions) GetByID(_ context.Context, id uuid.UUID) (*models.AIAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok {
		return nil, fmt.Errorf("ai action %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *memAIActions) Decide(_ context.Context, id uuid.UUID, approver uuid.UUID, status string, decidedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok || a.Status != models.AIActionStatusProposed {
		return false, nil
	}
	a.Status = status
	a.ApprovedBy = &approver
	a.ApprovedAt = &decidedAt
	a.UpdatedAt = decidedAt
	return true, nil
}

func (m *memAIActions) Finalize(_ context.Context, id uuid.UUID, status string, executedAt *time.Time, results map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok {
		return fmt.Errorf("ai action %s not found", id)
	}
	a.Status = status
	a.ExecutedAt = executedAt
	a.Results = results
	a.UpdatedAt = time.Now()
	return nil
}

func (m *memAIActions) List(_ context.Context, status *string, limit, offset int) ([]models.AIAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AIAction
	for _, a := range m.actions {
		if status != nil && a.Status != *status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

type memReminders struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Reminder
}

func newMemReminders() *memReminders {
	return &memReminders{rows: make(map[uuid.UUID]*models.Reminder)}
}

func (m *memReminders) InsertIfAbsent(_ context.Context, rem *models.Reminder) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.EntityType == rem.EntityType && r.EntityID == rem.EntityID &&
			r.ReminderType == rem.ReminderType && r.ScheduledFor.Equal(rem.ScheduledFor) {
			return false, nil
		}
	}
	rem.ID = uuid.New()
	rem.CreatedAt = time.Now()
	cp := *rem
	m.rows[rem.ID] = &cp
	return true, nil
}

func (m *memReminders) ListDue(_ context.Context, now time.Time) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.rows {
		if !r.Sent && !r.ScheduledFor.After(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReminders) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.rows {
		if r.EntityType == entityType && r.EntityID == entityID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReminders) Claim(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Sent {
		return false, nil
	}
	r.Sent = true
	r.SentAt = &now
	return true, nil
}

func (m *memReminders) Release(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		r.Sent = false
		r.SentAt = nil
	}
	return nil
}

type memAlerts struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Alert
}

func newMemAlerts() *memAlerts {
	return &memAlerts{rows: make(map[uuid.UUID]*models.Alert)}
}

func (m *memAlerts) Create(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAlerts) GetByID(_ context.Context, id uuid.UUID) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("alert %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *memAlerts) Acknowledge(_ context.Context, id, actor uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.AcknowledgedBy != nil {
		return false, nil
	}
	a.AcknowledgedBy = &actor
	a.AcknowledgedAt = &at
	return true, nil
}

func (m *memAlerts) ListByDepartment(_ context.Context, department string, limit, offset int) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Alert
	for _, a := range m.rows {
		if a.Department == department {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAlerts) ListAll(_ context.Context, limit, offset int) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Alert
	for _, a := range m.rows {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAlerts) CountUnacknowledged(_ context.Context, department string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.rows {
		if a.Department == department && a.AcknowledgedBy == nil {
			n++
		}
	}
	return n, nil
}

type capturedEvent struct {
	Stream string
	Event  events.Event
}

type memPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *memPublisher) Publish(_ context.Context, stream string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Stream: stream, Event: event})
	return nil
}

func (p *memPublisher) byType(eventType string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type sentMail struct {
	Recipient string
	Subject   string
}

type memMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *memMailer) Send(_ context.Context, recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp relay down")
	}
	m.sent = append(m.sent, sentMail{Recipient: recipient, Subject: subject})
	return nil
}

func (m *memMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
