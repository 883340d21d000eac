package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/infrastructure/logger"
	"github.com/maghraz/crm/internal/ports"
)

// BoardService owns the in-memory board document and is its single
// mutation entry point. Every operation takes the mutex, applies one
// domain transition, and pushes a snapshot save; no caller can observe a
// half-applied transition. Saves are fire-and-forget: a failed save is
// logged and the in-memory state stands, so memory and disk may diverge
// until the next successful save.
type BoardService struct {
	mu     sync.Mutex
	board  *entities.BoardData
	repo   ports.BoardRepository
	logger *logger.Logger

	// pending feeds the single save writer, depth one, latest wins.
	pending chan *entities.BoardData
}

// NewBoardService loads the persisted document and wraps it. A load
// failure is fatal to startup.
func NewBoardService(ctx context.Context, repo ports.BoardRepository, appLogger *logger.Logger) (*BoardService, error) {
	board, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}

	s := &BoardService{
		board:   board,
		repo:    repo,
		logger:  appLogger,
		pending: make(chan *entities.BoardData, 1),
	}
	go s.saveLoop()

	return s, nil
}

// Snapshot returns a deep copy of the current document.
func (s *BoardService) Snapshot() *entities.BoardData {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.board.Clone()
}

// ReplaceDocument swaps in a whole new document and persists it
// synchronously. This backs POST /api/data; unlike mutation saves, a
// persistence failure here is surfaced to the caller.
func (s *BoardService) ReplaceDocument(ctx context.Context, board *entities.BoardData) error {
	s.mu.Lock()
	s.board = board.Clone()
	snapshot := s.board.Clone()
	s.mu.Unlock()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist board document: %w", err)
	}

	return nil
}

// AddCustomer creates a customer in the intake column and returns a copy.
func (s *BoardService) AddCustomer(fields entities.CustomerFields) entities.Customer {
	s.mu.Lock()
	customer := *s.board.AddCustomer(fields)
	s.mu.Unlock()

	s.logger.LogBoardMutation("add_customer", customer.ID, true)
	s.saveAsync()

	return customer
}

// UpdateCustomer replaces a stored customer wholesale. Unknown ids no-op.
func (s *BoardService) UpdateCustomer(customer entities.Customer) bool {
	s.mu.Lock()
	applied := s.board.UpdateCustomer(customer)
	s.mu.Unlock()

	s.logger.LogBoardMutation("update_customer", customer.ID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// DeleteCustomer removes a customer from the board and every column.
func (s *BoardService) DeleteCustomer(id string) bool {
	s.mu.Lock()
	applied := s.board.DeleteCustomer(id)
	s.mu.Unlock()

	s.logger.LogBoardMutation("delete_customer", id, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// MoveCustomer relocates a card to another column.
func (s *BoardService) MoveCustomer(cardID, destColumnID string) bool {
	s.mu.Lock()
	applied := s.board.MoveCustomer(cardID, destColumnID)
	s.mu.Unlock()

	s.logger.LogBoardMutation("move_customer", cardID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// RenameColumn changes a column title.
func (s *BoardService) RenameColumn(columnID, title string) bool {
	s.mu.Lock()
	applied := s.board.RenameColumn(columnID, title)
	s.mu.Unlock()

	s.logger.LogBoardMutation("rename_column", columnID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// SetTags replaces a customer's tag sequence.
func (s *BoardService) SetTags(customerID string, tags []entities.Tag) bool {
	s.mu.Lock()
	applied := s.board.SetTags(customerID, tags)
	s.mu.Unlock()

	s.logger.LogBoardMutation("set_tags", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// AddTag adds one tag to a customer, rejecting duplicate texts.
func (s *BoardService) AddTag(customerID, text, color string) bool {
	s.mu.Lock()
	applied := s.board.AddTag(customerID, text, color)
	s.mu.Unlock()

	s.logger.LogBoardMutation("add_tag", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// RemoveTag removes one tag from a customer.
func (s *BoardService) RemoveTag(customerID, tagID string) bool {
	s.mu.Lock()
	applied := s.board.RemoveTag(customerID, tagID)
	s.mu.Unlock()

	s.logger.LogBoardMutation("remove_tag", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// SetReminder sets a customer's reminder timestamp (ms since epoch).
func (s *BoardService) SetReminder(customerID string, timestamp int64) bool {
	s.mu.Lock()
	applied := s.board.SetReminder(customerID, timestamp)
	s.mu.Unlock()

	s.logger.LogBoardMutation("set_reminder", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// ClearReminder removes a customer's active reminder.
func (s *BoardService) ClearReminder(customerID string) bool {
	s.mu.Lock()
	applied := s.board.ClearReminder(customerID)
	s.mu.Unlock()

	s.logger.LogBoardMutation("clear_reminder", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// LogCall prepends a fresh call-log entry and returns the updated customer.
func (s *BoardService) LogCall(customerID string) (entities.Customer, bool) {
	s.mu.Lock()
	customer, applied := s.board.LogCall(customerID)
	var copied entities.Customer
	if applied {
		copied = *customer
		copied.Tags = append([]entities.Tag{}, customer.Tags...)
		copied.CallHistory = append([]entities.CallLog{}, customer.CallHistory...)
	}
	s.mu.Unlock()

	s.logger.LogBoardMutation("log_call", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return copied, applied
}

// EditCallNotes updates the notes on one call-log entry.
func (s *BoardService) EditCallNotes(customerID, callID, notes string) bool {
	s.mu.Lock()
	applied := s.board.EditCallNotes(customerID, callID, notes)
	s.mu.Unlock()

	s.logger.LogBoardMutation("edit_call_notes", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// DeleteCall removes one call-log entry.
func (s *BoardService) DeleteCall(customerID, callID string) bool {
	s.mu.Lock()
	applied := s.board.DeleteCall(customerID, callID)
	s.mu.Unlock()

	s.logger.LogBoardMutation("delete_call", customerID, applied)
	if applied {
		s.saveAsync()
	}

	return applied
}

// Customer returns a copy of one customer.
func (s *BoardService) Customer(id string) (entities.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.board.Cards[id]
	if !ok {
		return entities.Customer{}, false
	}

	copied := *customer
	copied.Tags = append([]entities.Tag{}, customer.Tags...)
	copied.CallHistory = append([]entities.CallLog{}, customer.CallHistory...)

	return copied, true
}

// ImportCustomers applies accepted import rows as one transition and
// returns the number of customers created.
func (s *BoardService) ImportCustomers(rows []entities.ImportRow) int {
	s.mu.Lock()
	imported := s.board.ImportCustomers(rows)
	s.mu.Unlock()

	s.logger.Infow("Imported customers", "count", len(imported))
	if len(imported) > 0 {
		s.saveAsync()
	}

	return len(imported)
}

// CollectExpiredReminders returns copies of every customer whose reminder
// is due. Read-only; the sweep notifies from this list before relocating.
func (s *BoardService) CollectExpiredReminders(now time.Time) []entities.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.board.ExpiredReminders(now)
}

// RelocateExpiredReminders clears the reminders and moves the customers to
// the sweep destination column as one transition. Ids that disappeared
// between collection and relocation are skipped.
func (s *BoardService) RelocateExpiredReminders(ids []string) int {
	s.mu.Lock()
	moved := s.board.RelocateExpired(ids)
	s.mu.Unlock()

	if moved > 0 {
		s.saveAsync()
	}

	return moved
}

// saveAsync hands the current snapshot to the save writer without blocking
// the caller. A snapshot still waiting in the channel is superseded rather
// than queued, so the writer only ever persists the newest state and an
// older snapshot can never overwrite a newer one.
func (s *BoardService) saveAsync() {
	snapshot := s.Snapshot()

	for {
		select {
		case s.pending <- snapshot:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

// saveLoop is the single writer draining pending snapshots. Failures are
// logged only; there is no retry and no rollback.
func (s *BoardService) saveLoop() {
	for snapshot := range s.pending {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.repo.Save(ctx, snapshot)
		cancel()

		if err != nil {
			s.logger.Errorw("Board snapshot save failed", "error", err)
		}
	}
}
