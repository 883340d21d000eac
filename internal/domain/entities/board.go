package entities

import (
	"strings"
	"time"
)

// Board transitions. Every method below mutates the receiver as one
// indivisible step and is a safe no-op when given a stale id: the only
// callers act on already-rendered, possibly outdated state, so a miss is
// tolerated rather than reported. Callers serialize access; the methods
// themselves assume exclusive ownership of the document.

// CustomerFields carries the user-supplied fields of a new customer.
type CustomerFields struct {
	Phone    string
	Name     string
	ShopName string
	ShopType string
	City     string
}

// AddCustomer creates a customer with a fresh id, empty tags and call
// history, and appends it to the intake column.
func (b *BoardData) AddCustomer(fields CustomerFields) *Customer {
	customer := &Customer{
		ID:          NewID(),
		Phone:       NormalizePhone(fields.Phone),
		Name:        fields.Name,
		ShopName:    fields.ShopName,
		ShopType:    fields.ShopType,
		City:        fields.City,
		Tags:        []Tag{},
		CallHistory: []CallLog{},
	}

	b.Cards[customer.ID] = customer
	if col, ok := b.Columns[IntakeColumn]; ok {
		col.CardIDs = append(col.CardIDs, customer.ID)
	}

	return customer
}

// UpdateCustomer replaces the stored record wholesale. Callers supply the
// complete desired record; there is no field merge.
func (b *BoardData) UpdateCustomer(customer Customer) bool {
	if _, ok := b.Cards[customer.ID]; !ok {
		return false
	}

	c := customer
	if c.Tags == nil {
		c.Tags = []Tag{}
	}
	if c.CallHistory == nil {
		c.CallHistory = []CallLog{}
	}
	b.Cards[customer.ID] = &c

	return true
}

// DeleteCustomer removes the customer and strips its id from every column.
// Removal is unconditional across all columns so that a partition violation
// in stored data cannot survive a delete.
func (b *BoardData) DeleteCustomer(id string) bool {
	if _, ok := b.Cards[id]; !ok {
		return false
	}

	delete(b.Cards, id)
	for _, col := range b.Columns {
		col.CardIDs = removeID(col.CardIDs, id)
	}

	return true
}

// ColumnOf returns the id of the column currently holding the card.
func (b *BoardData) ColumnOf(cardID string) (string, bool) {
	for _, columnID := range b.ColumnOrder {
		if col, ok := b.Columns[columnID]; ok && col.Contains(cardID) {
			return columnID, true
		}
	}
	return "", false
}

// MoveCustomer relocates a card to the destination column's tail. No-op
// when the card sits in no column, the destination does not exist, or the
// destination equals the current column.
func (b *BoardData) MoveCustomer(cardID, destColumnID string) bool {
	dest, ok := b.Columns[destColumnID]
	if !ok {
		return false
	}

	sourceID, ok := b.ColumnOf(cardID)
	if !ok || sourceID == destColumnID {
		return false
	}

	b.Columns[sourceID].CardIDs = removeID(b.Columns[sourceID].CardIDs, cardID)
	dest.CardIDs = append(dest.CardIDs, cardID)

	return true
}

// RenameColumn replaces a column title. No-op when the trimmed title is
// empty or equal to the current one.
func (b *BoardData) RenameColumn(columnID, title string) bool {
	col, ok := b.Columns[columnID]
	if !ok {
		return false
	}

	title = strings.TrimSpace(title)
	if title == "" || title == col.Title {
		return false
	}
	col.Title = title

	return true
}

// SetTags replaces a customer's tag sequence wholesale.
func (b *BoardData) SetTags(customerID string, tags []Tag) bool {
	customer, ok := b.Cards[customerID]
	if !ok {
		return false
	}

	if tags == nil {
		tags = []Tag{}
	}
	customer.Tags = tags

	return true
}

// AddTag appends a tag to a customer. Rejects a tag whose text duplicates
// an existing tag on the same customer (exact, case-sensitive match).
func (b *BoardData) AddTag(customerID, text, color string) bool {
	customer, ok := b.Cards[customerID]
	if !ok {
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" || customer.HasTagText(text) {
		return false
	}
	customer.Tags = append(customer.Tags, Tag{ID: NewID(), Text: text, Color: color})

	return true
}

// RemoveTag deletes a tag from a customer by tag id.
func (b *BoardData) RemoveTag(customerID, tagID string) bool {
	customer, ok := b.Cards[customerID]
	if !ok {
		return false
	}

	for i, t := range customer.Tags {
		if t.ID == tagID {
			customer.Tags = append(customer.Tags[:i], customer.Tags[i+1:]...)
			return true
		}
	}

	return false
}

// SetReminder sets the customer's reminder to the given ms-epoch timestamp.
func (b *BoardData) SetReminder(customerID string, timestamp int64) bool {
	customer, ok := b.Cards[customerID]
	if !ok {
		return false
	}

	customer.Reminder = &timestamp

	return true
}

// ClearReminder removes the customer's active reminder, if any.
func (b *BoardData) ClearReminder(customerID string) bool {
	customer, ok := b.Cards[customerID]
	if !ok || customer.Reminder == nil {
		return false
	}

	customer.Reminder = nil

	return true
}

// LogCall prepends a fresh call-log entry with the current timestamp and
// empty notes, and returns the updated customer so the caller can open it
// for note entry.
func (b *BoardData) LogCall(customerID string) (*Customer, bool) {
	customer, ok := b.Cards[customerID]
	if !ok {
		return nil, false
	}

	entry := CallLog{ID: NewID(), Timestamp: time.Now().UnixMilli()}
	customer.CallHistory = append([]CallLog{entry}, customer.CallHistory...)

	return customer, true
}

// EditCallNotes updates the notes of one call-log entry.
func (b *BoardData) EditCallNotes(customerID, callID, notes string) bool {
	customer, ok := b.Cards[customerID]
	if !ok {
		return false
	}

	for i := range customer.CallHistory {
		if customer.CallHistory[i].ID == callID {
			customer.CallHistory[i].Notes = notes
			return true
		}
	}

	return false
}

// DeleteCall removes one call-log entry from a customer's history.
func (b *BoardData) DeleteCall(customerID, callID string) bool {
	customer, ok := b.Cards[customerID]
	if !ok {
		return false
	}

	for i, entry := range customer.CallHistory {
		if entry.ID == callID {
			customer.CallHistory = append(customer.CallHistory[:i], customer.CallHistory[i+1:]...)
			return true
		}
	}

	return false
}

// ExpiredReminders returns detached copies of every customer whose reminder
// is due at the given instant. The sweep is level-triggered: a due customer
// stays eligible until RelocateExpired processes it.
func (b *BoardData) ExpiredReminders(now time.Time) []Customer {
	nowMillis := now.UnixMilli()

	var due []Customer
	for _, customer := range b.Cards {
		if customer.ReminderDue(nowMillis) {
			c := *customer
			if customer.Reminder != nil {
				r := *customer.Reminder
				c.Reminder = &r
			}
			c.Tags = append([]Tag{}, customer.Tags...)
			c.CallHistory = append([]CallLog{}, customer.CallHistory...)
			due = append(due, c)
		}
	}

	return due
}

// RelocateExpired applies the sweep relocation as one transition: clear the
// reminder on every given customer, remove its id from whatever column
// holds it, and append it to the sweep destination column, deduplicating.
// Ids no longer on the board are skipped.
func (b *BoardData) RelocateExpired(ids []string) int {
	dest, ok := b.Columns[SweepDestinationColumn]
	if !ok {
		return 0
	}

	moved := 0
	for _, id := range ids {
		customer, ok := b.Cards[id]
		if !ok {
			continue
		}
		customer.Reminder = nil
		for _, col := range b.Columns {
			if col != dest {
				col.CardIDs = removeID(col.CardIDs, id)
			}
		}
		if !dest.Contains(id) {
			dest.CardIDs = append(dest.CardIDs, id)
		}
		moved++
	}

	return moved
}

// ImportRow is one accepted customer record from a delimited import file.
type ImportRow struct {
	Fields CustomerFields
	Tags   []string
}

// ImportCustomers adds every row as a fresh customer in the intake column.
// Tag texts reuse the color of an existing tag with the same text anywhere
// on the board; never-seen texts take the next palette color, cycling by
// count of distinct tag texts seen so far.
func (b *BoardData) ImportCustomers(rows []ImportRow) []*Customer {
	colors := b.tagColorIndex()

	imported := make([]*Customer, 0, len(rows))
	for _, row := range rows {
		customer := b.AddCustomer(row.Fields)
		for _, text := range row.Tags {
			color, ok := colors[text]
			if !ok {
				color = TagPalette[len(colors)%len(TagPalette)]
				colors[text] = color
			}
			b.AddTag(customer.ID, text, color)
		}
		imported = append(imported, customer)
	}

	return imported
}

// tagColorIndex maps every distinct tag text on the board to its color.
func (b *BoardData) tagColorIndex() map[string]string {
	colors := map[string]string{}
	for _, customer := range b.Cards {
		for _, t := range customer.Tags {
			if _, ok := colors[t.Text]; !ok {
				colors[t.Text] = t.Color
			}
		}
	}
	return colors
}

// CardsIn resolves a column's card ids to customers in display order,
// filtering out dangling ids. Dangling ids are a data-quality defect, not
// a crash.
func (b *BoardData) CardsIn(columnID string) []*Customer {
	col, ok := b.Columns[columnID]
	if !ok {
		return nil
	}

	cards := make([]*Customer, 0, len(col.CardIDs))
	for _, id := range col.CardIDs {
		if customer, ok := b.Cards[id]; ok {
			cards = append(cards, customer)
		}
	}

	return cards
}

// Clone returns a deep copy of the document, safe to hand out while the
// original keeps mutating.
func (b *BoardData) Clone() *BoardData {
	clone := &BoardData{
		Cards:       make(map[string]*Customer, len(b.Cards)),
		Columns:     make(map[string]*Column, len(b.Columns)),
		ColumnOrder: append([]string(nil), b.ColumnOrder...),
	}

	for id, customer := range b.Cards {
		c := *customer
		if customer.Reminder != nil {
			r := *customer.Reminder
			c.Reminder = &r
		}
		c.Tags = append([]Tag{}, customer.Tags...)
		c.CallHistory = append([]CallLog{}, customer.CallHistory...)
		clone.Cards[id] = &c
	}

	for id, col := range b.Columns {
		clone.Columns[id] = &Column{
			ID:      col.ID,
			Title:   col.Title,
			CardIDs: append([]string{}, col.CardIDs...),
		}
	}

	return clone
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
