package entities

import (
	"strings"

	"github.com/google/uuid"
)

// Fixed column identifiers of the workflow board. The board is created with
// exactly these five columns; their ids never change, only titles are
// user-editable.
const (
	ColumnNumbersList   = "numbers-list"
	ColumnContactFailed = "contact-failed"
	ColumnNeedsAction   = "needs-action"
	ColumnNeedsFollowUp = "needs-follow-up"
	ColumnCustomer      = "customer"
)

// IntakeColumn is where new and imported customers are placed.
const IntakeColumn = ColumnNumbersList

// SweepDestinationColumn is where customers with expired reminders are moved.
const SweepDestinationColumn = ColumnNeedsAction

// TagPalette holds the fixed color tokens assigned to tags. Import cycles
// through it by count of distinct tag texts seen on the board.
var TagPalette = []string{
	"bg-blue-200 text-blue-800",
	"bg-green-200 text-green-800",
	"bg-yellow-200 text-yellow-800",
	"bg-red-200 text-red-800",
	"bg-purple-200 text-purple-800",
	"bg-pink-200 text-pink-800",
	"bg-indigo-200 text-indigo-800",
	"bg-gray-200 text-gray-800",
}

// Tag is a colored label on a customer. Text is the de-duplication key
// within one customer's tag set and across the board's tag vocabulary.
type Tag struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

// CallLog is one entry in a customer's call history. ID and Timestamp are
// immutable once created; Notes stays editable.
type CallLog struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Notes     string `json:"notes"`
}

// Customer is a card on the board. A customer exists independently of
// column membership; a customer referenced by no column is orphaned but
// never auto-deleted.
type Customer struct {
	ID          string    `json:"id"`
	Phone       string    `json:"phone"`
	Name        string    `json:"name"`
	ShopName    string    `json:"shopName"`
	ShopType    string    `json:"shopType"`
	City        string    `json:"city"`
	Reminder    *int64    `json:"reminder,omitempty"` // ms since epoch, nil = no active reminder
	Tags        []Tag     `json:"tags"`
	CallHistory []CallLog `json:"callHistory"`
}

// HasTagText reports whether the customer already carries a tag with the
// exact given text.
func (c *Customer) HasTagText(text string) bool {
	for _, t := range c.Tags {
		if t.Text == text {
			return true
		}
	}
	return false
}

// ReminderDue reports whether the customer has a reminder at or before now
// (ms since epoch).
func (c *Customer) ReminderDue(nowMillis int64) bool {
	return c.Reminder != nil && *c.Reminder <= nowMillis
}

// Column is a named bucket holding an ordered list of card ids. A card id
// appears in at most one column at any time.
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	CardIDs []string `json:"cardIds"`
}

// Contains reports whether the column holds the given card id.
func (col *Column) Contains(cardID string) bool {
	for _, id := range col.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

// BoardData is the single document the whole system revolves around.
type BoardData struct {
	Cards       map[string]*Customer `json:"cards"`
	Columns     map[string]*Column   `json:"columns"`
	ColumnOrder []string             `json:"columnOrder"`
}

// NewBoard returns the fixed initial board schema: five named columns in
// display order, no cards.
func NewBoard() *BoardData {
	columns := map[string]*Column{
		ColumnNumbersList:   {ID: ColumnNumbersList, Title: "لیست شماره ها", CardIDs: []string{}},
		ColumnContactFailed: {ID: ColumnContactFailed, Title: "عدم برقرار تماس", CardIDs: []string{}},
		ColumnNeedsAction:   {ID: ColumnNeedsAction, Title: "نیاز به اقدام", CardIDs: []string{}},
		ColumnNeedsFollowUp: {ID: ColumnNeedsFollowUp, Title: "نیاز به آموزش و پیگیری", CardIDs: []string{}},
		ColumnCustomer:      {ID: ColumnCustomer, Title: "مشتری", CardIDs: []string{}},
	}

	return &BoardData{
		Cards:   map[string]*Customer{},
		Columns: columns,
		ColumnOrder: []string{
			ColumnNumbersList,
			ColumnContactFailed,
			ColumnNeedsAction,
			ColumnNeedsFollowUp,
			ColumnCustomer,
		},
	}
}

// NewID returns a fresh globally unique identifier for cards, tags and
// call-log entries.
func NewID() string {
	return uuid.New().String()
}

// NormalizePhone trims whitespace and forces the leading-zero local format:
// a non-empty number that does not start with "0" gets one prepended.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if !strings.HasPrefix(phone, "0") {
		phone = "0" + phone
	}
	return phone
}
