package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maghraz/crm/internal/application/services"
	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/infrastructure/logger"
)

// BoardHandler handles board document and card intent requests
type BoardHandler struct {
	boardService    *services.BoardService
	whatsappService *services.WhatsAppService
	logger          *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService *services.BoardService, whatsappService *services.WhatsAppService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boardService:    boardService,
		whatsappService: whatsappService,
		logger:          logger,
	}
}

// GetData returns the full board document.
func (h *BoardHandler) GetData(c echo.Context) error {
	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// SaveData replaces the full board document. Only the presence of the
// three top-level keys is validated; cross-reference hygiene is the
// client's business and is tolerated at read time.
func (h *BoardHandler) SaveData(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid data structure")
	}
	for _, key := range []string{"cards", "columns", "columnOrder"} {
		if _, ok := keys[key]; !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid data structure"})
		}
	}

	var board entities.BoardData
	if err := json.Unmarshal(body, &board); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid data structure")
	}
	if board.Cards == nil {
		board.Cards = map[string]*entities.Customer{}
	}
	if board.Columns == nil {
		board.Columns = map[string]*entities.Column{}
	}

	if err := h.boardService.ReplaceDocument(c.Request().Context(), &board); err != nil {
		h.logger.Errorw("Save board document failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to persist data")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Data saved successfully"})
}

// CreateCard adds a customer to the intake column.
func (h *BoardHandler) CreateCard(c echo.Context) error {
	var req CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	customer := h.boardService.AddCustomer(entities.CustomerFields{
		Phone:    req.Phone,
		Name:     req.Name,
		ShopName: req.ShopName,
		ShopType: req.ShopType,
		City:     req.City,
	})

	return c.JSON(http.StatusCreated, customer)
}

// UpdateCard replaces a stored customer wholesale.
func (h *BoardHandler) UpdateCard(c echo.Context) error {
	var customer entities.Customer
	if err := c.Bind(&customer); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	customer.ID = c.Param("id")

	h.boardService.UpdateCustomer(customer)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// DeleteCard removes a customer from the board and every column.
func (h *BoardHandler) DeleteCard(c echo.Context) error {
	h.boardService.DeleteCustomer(c.Param("id"))

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// MoveCard relocates a card to another column.
func (h *BoardHandler) MoveCard(c echo.Context) error {
	var req MoveCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.boardService.MoveCustomer(c.Param("id"), req.ColumnID)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// RenameColumn changes a column title.
func (h *BoardHandler) RenameColumn(c echo.Context) error {
	var req RenameColumnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.boardService.RenameColumn(c.Param("id"), req.Title)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// SetTags replaces a customer's tag sequence.
func (h *BoardHandler) SetTags(c echo.Context) error {
	var req SetTagsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	h.boardService.SetTags(c.Param("id"), req.Tags)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// AddTag adds one tag to a customer. Duplicate texts no-op.
func (h *BoardHandler) AddTag(c echo.Context) error {
	var req AddTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	color := req.Color
	if color == "" {
		color = entities.TagPalette[0]
	}
	h.boardService.AddTag(c.Param("id"), req.Text, color)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// RemoveTag removes one tag from a customer.
func (h *BoardHandler) RemoveTag(c echo.Context) error {
	h.boardService.RemoveTag(c.Param("id"), c.Param("tagId"))

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// SetReminder sets a customer's reminder timestamp.
func (h *BoardHandler) SetReminder(c echo.Context) error {
	var req SetReminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Reminder <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "زمان یادآوری نامعتبر است")
	}

	h.boardService.SetReminder(c.Param("id"), req.Reminder)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// ClearReminder removes a customer's active reminder.
func (h *BoardHandler) ClearReminder(c echo.Context) error {
	h.boardService.ClearReminder(c.Param("id"))

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// LogCall prepends a fresh call-log entry and returns the updated customer
// so the caller can open it for note entry right away.
func (h *BoardHandler) LogCall(c echo.Context) error {
	customer, ok := h.boardService.LogCall(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusOK, h.boardService.Snapshot())
	}

	return c.JSON(http.StatusCreated, customer)
}

// EditCall updates the notes of one call-log entry.
func (h *BoardHandler) EditCall(c echo.Context) error {
	var req EditCallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	h.boardService.EditCallNotes(c.Param("id"), c.Param("callId"), req.Notes)

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// DeleteCall removes one call-log entry from a customer's history.
func (h *BoardHandler) DeleteCall(c echo.Context) error {
	h.boardService.DeleteCall(c.Param("id"), c.Param("callId"))

	return c.JSON(http.StatusOK, h.boardService.Snapshot())
}

// WhatsAppLink returns the wa.me deep link for one canned message.
func (h *BoardHandler) WhatsAppLink(c echo.Context) error {
	customer, ok := h.boardService.Customer(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	messageIndex := 0
	if raw := c.QueryParam("message"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid message index")
		}
		messageIndex = idx
	}

	link, err := h.whatsappService.DeepLink(customer, messageIndex)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, WhatsAppLinkResponse{URL: link})
}

func readBody(c echo.Context) ([]byte, error) {
	var body json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// Request/Response types

type CreateCardRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Name     string `json:"name"`
	ShopName string `json:"shopName"`
	ShopType string `json:"shopType"`
	City     string `json:"city"`
}

type MoveCardRequest struct {
	ColumnID string `json:"columnId" validate:"required"`
}

type RenameColumnRequest struct {
	Title string `json:"title" validate:"required"`
}

type SetTagsRequest struct {
	Tags []entities.Tag `json:"tags"`
}

type AddTagRequest struct {
	Text  string `json:"text" validate:"required"`
	Color string `json:"color"`
}

type SetReminderRequest struct {
	Reminder int64 `json:"reminder" validate:"required"`
}

type EditCallRequest struct {
	Notes string `json:"notes"`
}

type WhatsAppLinkResponse struct {
	URL string `json:"url"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
