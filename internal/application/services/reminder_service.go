package services

import (
	"context"
	"sync"
	"time"

	"github.com/maghraz/crm/internal/infrastructure/logger"
	"github.com/maghraz/crm/internal/ports"
)

// ReminderService runs the periodic reminder sweep: collect customers with
// due reminders, alert for each, then clear-and-relocate them in one
// transition. The sweep is level-triggered, and because relocation removes
// the reminder, each customer alerts exactly once per reminder set.
type ReminderService struct {
	board    *BoardService
	notifier ports.Notifier
	interval time.Duration
	logger   *logger.Logger

	wg sync.WaitGroup
}

// NewReminderService creates a reminder sweep service.
func NewReminderService(board *BoardService, notifier ports.Notifier, interval time.Duration, appLogger *logger.Logger) *ReminderService {
	return &ReminderService{
		board:    board,
		notifier: notifier,
		interval: interval,
		logger:   appLogger,
	}
}

// Start launches the sweep loop. The loop stops when ctx is cancelled;
// Wait blocks until it has fully stopped, so a torn-down board is never
// mutated by a straggling tick.
func (s *ReminderService) Start(ctx context.Context) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Infow("Reminder sweep started", "interval", s.interval.String())

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Reminder sweep stopped")
				return
			case <-ticker.C:
				s.Sweep(time.Now())
			}
		}
	}()
}

// Wait blocks until the sweep loop has exited.
func (s *ReminderService) Wait() {
	s.wg.Wait()
}

// Sweep runs one tick: notify every customer whose reminder is due, then
// apply the relocation transition. Running it twice with no time passing
// produces no further change on the second run.
func (s *ReminderService) Sweep(now time.Time) int {
	expired := s.board.CollectExpiredReminders(now)
	if len(expired) == 0 {
		s.logger.LogSweep(0, 0)
		return 0
	}

	ids := make([]string, 0, len(expired))
	for _, customer := range expired {
		s.notifier.NotifyReminder(customer)
		ids = append(ids, customer.ID)
	}

	moved := s.board.RelocateExpiredReminders(ids)
	s.logger.LogSweep(len(expired), moved)

	return moved
}
