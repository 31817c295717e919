package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/volunteer-portal/backend/internal/models"
	"github.com/volunteer-portal/backend/internal/rbac"
	"go.uber.org/zap"
)

// SummaryService produces the weekly workload digest for coordinators:
// per-department open and overdue item tallies plus unacknowledged alert
// counts.
type SummaryService struct {
	items    *ActionItemService
	alerts   *AlertService
	notifier Notifier
	log      *zap.Logger
}

func NewSummaryService(items *ActionItemService, alerts *AlertService, notifier Notifier, log *zap.Logger) *SummaryService {
	return &SummaryService{items: items, alerts: alerts, notifier: notifier, log: log}
}

// GenerateWeekly assembles the digest and fans it out to every coordinator.
// It returns the number of notifications created.
func (s *SummaryService) GenerateWeekly(ctx context.Context, now time.Time) (int, error) {
	counts, err := s.items.CountOpenByDepartment(ctx)
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly summary for %s\n\n", now.Format("2006-01-02"))
	if len(counts) == 0 {
		b.WriteString("No open action items.\n")
	}
	for _, c := range counts {
		unacked, err := s.alerts.CountUnacknowledged(ctx, c.Department)
		if err != nil {
			s.log.Error("failed to count unacknowledged alerts",
				zap.String("department", c.Department), zap.Error(err))
			unacked = 0
		}
		fmt.Fprintf(&b, "%s: %d open, %d overdue, %d unacknowledged alerts\n",
			c.Department, c.Open, c.Overdue, unacked)
	}

	return s.notifier.FanOut(ctx, FanOutInput{
		Audience: models.RoleAudience(rbac.RoleCoordinator),
		Type:     "weekly_summary",
		Title:    "Weekly workload summary",
		Message:  b.String(),
	})
}
