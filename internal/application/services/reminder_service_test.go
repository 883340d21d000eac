package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/maghraz/crm/internal/application/services"
	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/infrastructure/logger"
)

// recordingNotifier collects every customer it was asked to alert for.
type recordingNotifier struct {
	mu       sync.Mutex
	notified []entities.Customer
}

func (n *recordingNotifier) NotifyReminder(customer entities.Customer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, customer)
}

func (n *recordingNotifier) all() []entities.Customer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entities.Customer{}, n.notified...)
}

func TestSweepRelocatesDueCustomer(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board, _ := newTestBoardService(t)
	notifier := &recordingNotifier{}
	sweep := services.NewReminderService(board, notifier, time.Minute, logger.NewNop())

	now := time.Now()

	customer := board.AddCustomer(entities.CustomerFields{Phone: "0912", Name: "Ali"})
	board.MoveCustomer(customer.ID, entities.ColumnCustomer)
	board.SetReminder(customer.ID, now.Add(-time.Minute).UnixMilli())

	future := board.AddCustomer(entities.CustomerFields{Phone: "0913", Name: "Sara"})
	board.SetReminder(future.ID, now.Add(time.Hour).UnixMilli())

	moved := sweep.Sweep(now)
	assert.Equal(1, moved)

	notified := notifier.all()
	assert.Len(notified, 1)
	assert.Equal(customer.ID, notified[0].ID)

	snapshot := board.Snapshot()
	assert.Nil(snapshot.Cards[customer.ID].Reminder)
	assert.True(snapshot.Columns[entities.SweepDestinationColumn].Contains(customer.ID))
	assert.False(snapshot.Columns[entities.ColumnCustomer].Contains(customer.ID))

	// The untouched reminder stays armed in place.
	assert.NotNil(snapshot.Cards[future.ID].Reminder)
	assert.True(snapshot.Columns[entities.IntakeColumn].Contains(future.ID))
}

func TestSweepIsIdempotent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board, _ := newTestBoardService(t)
	notifier := &recordingNotifier{}
	sweep := services.NewReminderService(board, notifier, time.Minute, logger.NewNop())

	now := time.Now()
	customer := board.AddCustomer(entities.CustomerFields{Phone: "0912"})
	board.SetReminder(customer.ID, now.Add(-time.Second).UnixMilli())

	assert.Equal(1, sweep.Sweep(now))
	before := board.Snapshot()

	// Second run with no time passing changes nothing and alerts nobody new.
	assert.Equal(0, sweep.Sweep(now))
	assert.Len(notifier.all(), 1)
	assert.Equal(before, board.Snapshot())
}

func TestSweepWithNothingDue(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board, _ := newTestBoardService(t)
	notifier := &recordingNotifier{}
	sweep := services.NewReminderService(board, notifier, time.Minute, logger.NewNop())

	board.AddCustomer(entities.CustomerFields{Phone: "0912"})

	assert.Equal(0, sweep.Sweep(time.Now()))
	assert.Empty(notifier.all())
}

func TestSweepLoopStopsOnCancel(t *testing.T) {
	t.Parallel()

	board, _ := newTestBoardService(t)
	sweep := services.NewReminderService(board, &recordingNotifier{}, 10*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	sweep.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		sweep.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep loop did not stop after cancellation")
	}
}
