package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/maghraz/crm/internal/domain/entities"
)

func addCustomer(board *entities.BoardData, name string) *entities.Customer {
	return board.AddCustomer(entities.CustomerFields{
		Phone:    "09121234567",
		Name:     name,
		ShopName: name + " shop",
		ShopType: "مردانه",
		City:     "تهران",
	})
}

// columnsHolding returns every column id whose cardIds contain the card.
func columnsHolding(board *entities.BoardData, cardID string) []string {
	var holding []string
	for id, col := range board.Columns {
		if col.Contains(cardID) {
			holding = append(holding, id)
		}
	}
	return holding
}

func TestNewBoard(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	assert.Empty(board.Cards)
	assert.Len(board.Columns, 5)
	assert.Len(board.ColumnOrder, 5)
	assert.Equal(entities.ColumnNumbersList, board.ColumnOrder[0])
	assert.Equal(entities.ColumnCustomer, board.ColumnOrder[4])

	for _, id := range board.ColumnOrder {
		col := board.Columns[id]
		assert.NotNil(col)
		assert.Equal(id, col.ID)
		assert.NotEmpty(col.Title)
		assert.Empty(col.CardIDs)
	}
}

func TestAddCustomer(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	assert.NotEmpty(customer.ID)
	assert.Empty(customer.Tags)
	assert.Empty(customer.CallHistory)
	assert.Nil(customer.Reminder)
	assert.Equal([]string{customer.ID}, board.Columns[entities.IntakeColumn].CardIDs)

	second := addCustomer(board, "Sara")
	assert.NotEqual(customer.ID, second.ID)
	assert.Equal([]string{customer.ID, second.ID}, board.Columns[entities.IntakeColumn].CardIDs)
}

func TestAddCustomerNormalizesPhone(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := board.AddCustomer(entities.CustomerFields{Phone: " 9123456789 "})
	assert.Equal("09123456789", customer.Phone)
}

func TestUpdateCustomer(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	updated := *customer
	updated.City = "اصفهان"
	assert.True(board.UpdateCustomer(updated))
	assert.Equal("اصفهان", board.Cards[customer.ID].City)

	// Wholesale replace, not merge: a record with empty fields overwrites.
	blank := entities.Customer{ID: customer.ID, Phone: "0912"}
	assert.True(board.UpdateCustomer(blank))
	assert.Empty(board.Cards[customer.ID].Name)
	assert.NotNil(board.Cards[customer.ID].Tags)
	assert.NotNil(board.Cards[customer.ID].CallHistory)
}

func TestUpdateCustomerUnknownIDNoOps(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	assert.False(board.UpdateCustomer(entities.Customer{ID: "ghost"}))
	assert.Empty(board.Cards)
}

func TestDeleteCustomerRemovesEverywhere(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	// Inject a partition violation; delete must still clear both columns.
	board.Columns[entities.ColumnCustomer].CardIDs = append(
		board.Columns[entities.ColumnCustomer].CardIDs, customer.ID)

	assert.True(board.DeleteCustomer(customer.ID))
	assert.NotContains(board.Cards, customer.ID)
	assert.Empty(columnsHolding(board, customer.ID))

	assert.False(board.DeleteCustomer(customer.ID))
}

func TestAddThenDeleteLeavesNoTrace(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	assert.True(board.DeleteCustomer(customer.ID))

	assert.Empty(board.Cards)
	for _, col := range board.Columns {
		assert.NotContains(col.CardIDs, customer.ID)
	}
}

func TestMoveCustomer(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	assert.True(board.MoveCustomer(customer.ID, entities.ColumnCustomer))
	assert.Equal([]string{customer.ID}, board.Columns[entities.ColumnCustomer].CardIDs)
	assert.Empty(board.Columns[entities.IntakeColumn].CardIDs)

	// Same destination no-ops.
	assert.False(board.MoveCustomer(customer.ID, entities.ColumnCustomer))

	// Unknown destination no-ops.
	assert.False(board.MoveCustomer(customer.ID, "nowhere"))

	// A card in no column no-ops.
	assert.False(board.MoveCustomer("ghost", entities.ColumnCustomer))
}

func TestMoveCustomerPartitionInvariant(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	a := addCustomer(board, "A")
	b := addCustomer(board, "B")

	moves := []struct {
		card string
		dest string
	}{
		{a.ID, entities.ColumnContactFailed},
		{b.ID, entities.ColumnCustomer},
		{a.ID, entities.ColumnCustomer},
		{a.ID, entities.ColumnCustomer},
		{b.ID, entities.ColumnNumbersList},
		{a.ID, entities.ColumnNeedsFollowUp},
	}

	for _, m := range moves {
		board.MoveCustomer(m.card, m.dest)
		assert.LessOrEqual(len(columnsHolding(board, a.ID)), 1)
		assert.LessOrEqual(len(columnsHolding(board, b.ID)), 1)
	}

	assert.Equal([]string{entities.ColumnNeedsFollowUp}, columnsHolding(board, a.ID))
	assert.Equal([]string{entities.ColumnNumbersList}, columnsHolding(board, b.ID))
}

func TestRenameColumn(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()

	assert.True(board.RenameColumn(entities.ColumnCustomer, "مشتریان ثابت"))
	assert.Equal("مشتریان ثابت", board.Columns[entities.ColumnCustomer].Title)

	// Empty after trim no-ops.
	assert.False(board.RenameColumn(entities.ColumnCustomer, "   "))
	assert.Equal("مشتریان ثابت", board.Columns[entities.ColumnCustomer].Title)

	// Unchanged title no-ops.
	assert.False(board.RenameColumn(entities.ColumnCustomer, "مشتریان ثابت"))

	assert.False(board.RenameColumn("nowhere", "title"))
}

func TestAddTagDeduplicatesByText(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	assert.True(board.AddTag(customer.ID, "X", "bg-blue-200 text-blue-800"))
	assert.False(board.AddTag(customer.ID, "X", "bg-red-200 text-red-800"))

	tags := board.Cards[customer.ID].Tags
	assert.Len(tags, 1)
	assert.Equal("X", tags[0].Text)

	// Case-sensitive exact match: "x" is a different tag.
	assert.True(board.AddTag(customer.ID, "x", "bg-red-200 text-red-800"))
	assert.Len(board.Cards[customer.ID].Tags, 2)
}

func TestRemoveTag(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.AddTag(customer.ID, "X", "bg-blue-200 text-blue-800")
	tagID := board.Cards[customer.ID].Tags[0].ID

	assert.True(board.RemoveTag(customer.ID, tagID))
	assert.Empty(board.Cards[customer.ID].Tags)
	assert.False(board.RemoveTag(customer.ID, tagID))
}

func TestSetTags(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	tags := []entities.Tag{{ID: "t1", Text: "VIP", Color: "bg-green-200 text-green-800"}}
	assert.True(board.SetTags(customer.ID, tags))
	assert.Equal(tags, board.Cards[customer.ID].Tags)

	assert.True(board.SetTags(customer.ID, nil))
	assert.Empty(board.Cards[customer.ID].Tags)

	assert.False(board.SetTags("ghost", tags))
}

func TestReminderLifecycle(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	ts := time.Now().Add(time.Hour).UnixMilli()
	assert.True(board.SetReminder(customer.ID, ts))
	assert.Equal(ts, *board.Cards[customer.ID].Reminder)

	assert.True(board.ClearReminder(customer.ID))
	assert.Nil(board.Cards[customer.ID].Reminder)

	// Clearing an absent reminder no-ops.
	assert.False(board.ClearReminder(customer.ID))
	assert.False(board.SetReminder("ghost", ts))
}

func TestLogCallPrependsNewestFirst(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")

	first, ok := board.LogCall(customer.ID)
	assert.True(ok)
	assert.Len(first.CallHistory, 1)
	firstID := first.CallHistory[0].ID

	second, ok := board.LogCall(customer.ID)
	assert.True(ok)
	assert.Len(second.CallHistory, 2)
	assert.Equal(firstID, second.CallHistory[1].ID)
	assert.NotEqual(firstID, second.CallHistory[0].ID)

	_, ok = board.LogCall("ghost")
	assert.False(ok)
}

func TestEditAndDeleteCall(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.LogCall(customer.ID)
	callID := board.Cards[customer.ID].CallHistory[0].ID

	assert.True(board.EditCallNotes(customer.ID, callID, "پیگیری شد"))
	assert.Equal("پیگیری شد", board.Cards[customer.ID].CallHistory[0].Notes)

	assert.False(board.EditCallNotes(customer.ID, "ghost", "x"))
	assert.False(board.EditCallNotes("ghost", callID, "x"))

	assert.True(board.DeleteCall(customer.ID, callID))
	assert.Empty(board.Cards[customer.ID].CallHistory)
	assert.False(board.DeleteCall(customer.ID, callID))
}

func TestExpiredRemindersAndRelocate(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	now := time.Now()

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.MoveCustomer(customer.ID, entities.ColumnCustomer)
	board.SetReminder(customer.ID, now.Add(-time.Second).UnixMilli())

	fresh := addCustomer(board, "Sara")
	board.SetReminder(fresh.ID, now.Add(time.Hour).UnixMilli())

	expired := board.ExpiredReminders(now)
	assert.Len(expired, 1)
	assert.Equal(customer.ID, expired[0].ID)

	moved := board.RelocateExpired([]string{customer.ID})
	assert.Equal(1, moved)
	assert.Nil(board.Cards[customer.ID].Reminder)
	assert.True(board.Columns[entities.SweepDestinationColumn].Contains(customer.ID))
	assert.False(board.Columns[entities.ColumnCustomer].Contains(customer.ID))

	// Level-triggered but exactly-once: nothing left to expire.
	assert.Empty(board.ExpiredReminders(now))
}

func TestExpiredRemindersReturnsDetachedCopies(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.AddTag(customer.ID, "VIP", entities.TagPalette[0])
	board.LogCall(customer.ID)
	board.SetReminder(customer.ID, 1)

	due := board.ExpiredReminders(time.Now())
	assert.Len(due, 1)

	// Later board mutations must not show through the collected copies.
	board.RemoveTag(customer.ID, board.Cards[customer.ID].Tags[0].ID)
	board.DeleteCall(customer.ID, board.Cards[customer.ID].CallHistory[0].ID)
	board.ClearReminder(customer.ID)

	assert.Len(due[0].Tags, 1)
	assert.Equal("VIP", due[0].Tags[0].Text)
	assert.Len(due[0].CallHistory, 1)
	assert.Equal(int64(1), *due[0].Reminder)
}

func TestRelocateExpiredDeduplicates(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.MoveCustomer(customer.ID, entities.SweepDestinationColumn)
	board.SetReminder(customer.ID, 1)

	moved := board.RelocateExpired([]string{customer.ID})
	assert.Equal(1, moved)
	assert.Equal([]string{customer.ID}, board.Columns[entities.SweepDestinationColumn].CardIDs)

	// Ids gone from the board are skipped.
	assert.Equal(0, board.RelocateExpired([]string{"ghost"}))
}

func TestImportCustomersTagColors(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	existing := addCustomer(board, "Ali")
	board.AddTag(existing.ID, "A", "bg-purple-200 text-purple-800")

	rows := []entities.ImportRow{
		{Fields: entities.CustomerFields{Phone: "0911", Name: "One"}, Tags: []string{"A", "B"}},
		{Fields: entities.CustomerFields{Phone: "0912", Name: "Two"}, Tags: []string{"A", "B"}},
	}

	imported := board.ImportCustomers(rows)
	assert.Len(imported, 2)

	for _, customer := range imported {
		assert.Len(customer.Tags, 2)
		for _, tag := range customer.Tags {
			if tag.Text == "A" {
				// Color reuse by text across the whole board.
				assert.Equal("bg-purple-200 text-purple-800", tag.Color)
			}
		}
	}

	// "B" was never seen: next palette color by distinct-tag count (one
	// distinct text on the board before it).
	assert.Equal(entities.TagPalette[1], imported[0].Tags[1].Color)
	assert.Equal(imported[0].Tags[1].Color, imported[1].Tags[1].Color)

	assert.Equal([]string{existing.ID, imported[0].ID, imported[1].ID},
		board.Columns[entities.IntakeColumn].CardIDs)
}

func TestCardsInFiltersDanglingIDs(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.Columns[entities.IntakeColumn].CardIDs = append(
		board.Columns[entities.IntakeColumn].CardIDs, "dangling")

	cards := board.CardsIn(entities.IntakeColumn)
	assert.Len(cards, 1)
	assert.Equal(customer.ID, cards[0].ID)

	assert.Nil(board.CardsIn("nowhere"))
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := entities.NewBoard()
	customer := addCustomer(board, "Ali")
	board.AddTag(customer.ID, "X", "bg-blue-200 text-blue-800")
	board.SetReminder(customer.ID, 42)

	clone := board.Clone()

	board.DeleteCustomer(customer.ID)
	board.RenameColumn(entities.ColumnCustomer, "changed")

	assert.Contains(clone.Cards, customer.ID)
	assert.Equal(int64(42), *clone.Cards[customer.ID].Reminder)
	assert.Len(clone.Cards[customer.ID].Tags, 1)
	assert.Equal([]string{customer.ID}, clone.Columns[entities.IntakeColumn].CardIDs)
	assert.NotEqual("changed", clone.Columns[entities.ColumnCustomer].Title)
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal("09123456789", entities.NormalizePhone("9123456789"))
	assert.Equal("09123456789", entities.NormalizePhone("09123456789"))
	assert.Equal("09123456789", entities.NormalizePhone("  9123456789  "))
	assert.Equal("", entities.NormalizePhone("   "))
	assert.Equal("", entities.NormalizePhone(""))
}
