package services

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/infrastructure/logger"
)

// Column aliases of the interchange schema: canonical field name to the
// accepted header names, English checked first, then the Persian alias.
var importAliases = map[string][]string{
	"phone":    {"phone", "شماره تلفن"},
	"name":     {"name", "نام"},
	"shopName": {"shopName", "نام خیاطی"},
	"shopType": {"shopType", "نوع خیاطی"},
	"city":     {"city", "شهر"},
	"tags":     {"tags", "برچسب ها"},
}

// templateHeaders is the localized header row of the downloadable template.
var templateHeaders = []string{"شماره تلفن", "نام", "نام خیاطی", "نوع خیاطی", "شهر"}

// utf8BOM prefixes the template for spreadsheet compatibility and is
// stripped from uploads that carry it.
const utf8BOM = "\uFEFF"

// ImportService turns delimited customer files into board import rows and
// produces the blank template for the same schema.
type ImportService struct {
	board  *BoardService
	logger *logger.Logger
}

// NewImportService creates an import/export service.
func NewImportService(board *BoardService, appLogger *logger.Logger) *ImportService {
	return &ImportService{
		board:  board,
		logger: appLogger,
	}
}

// ImportCSV parses a header-rowed CSV stream and applies every accepted
// row to the board. Rows whose phone is empty after normalization are
// silently dropped; only accepted rows show up in the returned count.
func (s *ImportService) ImportCSV(r io.Reader) (int, error) {
	rows, dropped, err := s.ParseCSV(r)
	if err != nil {
		return 0, err
	}

	count := s.board.ImportCustomers(rows)
	s.logger.Infow("CSV import finished", "accepted", count, "dropped", dropped)

	return count, nil
}

// ParseCSV reads the stream into import rows without touching the board.
// It returns the accepted rows and the number of dropped ones.
func (s *ImportService) ParseCSV(r io.Reader) ([]entities.ImportRow, int, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("import file is empty")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read import header: %w", err)
	}

	columns := resolveColumns(header)

	var rows []entities.ImportRow
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read import row: %w", err)
		}

		phone := entities.NormalizePhone(fieldValue(record, columns, "phone"))
		if phone == "" {
			dropped++
			continue
		}

		rows = append(rows, entities.ImportRow{
			Fields: entities.CustomerFields{
				Phone:    phone,
				Name:     fieldValue(record, columns, "name"),
				ShopName: fieldValue(record, columns, "shopName"),
				ShopType: fieldValue(record, columns, "shopType"),
				City:     fieldValue(record, columns, "city"),
			},
			Tags: splitTags(fieldValue(record, columns, "tags")),
		})
	}

	return rows, dropped, nil
}

// WriteTemplate writes the BOM-prefixed, header-only template file.
func (s *ImportService) WriteTemplate(w io.Writer) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write template BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(templateHeaders); err != nil {
		return fmt.Errorf("write template header: %w", err)
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush template: %w", err)
	}

	return nil
}

// resolveColumns maps each canonical field to its record index, resolving
// the alias table against the header row once.
func resolveColumns(header []string) map[string]int {
	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, utf8BOM))
		if _, ok := position[name]; !ok {
			position[name] = i
		}
	}

	columns := map[string]int{}
	for field, aliases := range importAliases {
		for _, alias := range aliases {
			if idx, ok := position[alias]; ok {
				columns[field] = idx
				break
			}
		}
	}

	return columns
}

func fieldValue(record []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// splitTags splits a comma-separated tag cell, trimming tokens and
// discarding empties.
func splitTags(cell string) []string {
	if cell == "" {
		return nil
	}

	var tags []string
	for _, token := range strings.Split(cell, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			tags = append(tags, token)
		}
	}

	return tags
}

// stripBOM removes a leading UTF-8 byte-order mark from the stream.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && string(head) == utf8BOM {
		br.Discard(len(utf8BOM))
	}
	return br
}
