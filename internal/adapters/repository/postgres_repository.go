package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/ports"
)

// boardDocumentID keys the single row holding the board. The table exists
// to give deployments that already run Postgres a durable home for the
// document; semantics stay whole-document, last write wins.
const boardDocumentID = "board"

// PostgresBoardRepository persists the board document as one JSONB row.
type PostgresBoardRepository struct {
	db *sqlx.DB
}

// NewPostgresBoardRepository creates a Postgres-backed board repository.
func NewPostgresBoardRepository(db *sqlx.DB) ports.BoardRepository {
	return &PostgresBoardRepository{db: db}
}

// Load reads the document row. An absent row initializes the default board
// schema and persists it, mirroring the file backend's first-run behavior.
func (r *PostgresBoardRepository) Load(ctx context.Context) (*entities.BoardData, error) {
	query := `SELECT document FROM board_documents WHERE id = $1`

	var raw []byte
	err := r.db.GetContext(ctx, &raw, query, boardDocumentID)
	if err == sql.ErrNoRows {
		board := entities.NewBoard()
		if err := r.Save(ctx, board); err != nil {
			return nil, fmt.Errorf("initialize board document: %w", err)
		}
		return board, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load board document: %w", err)
	}

	var board entities.BoardData
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, fmt.Errorf("parse board document: %w", err)
	}

	return &board, nil
}

// Save upserts the document row with the given snapshot.
func (r *PostgresBoardRepository) Save(ctx context.Context, board *entities.BoardData) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	query := `
		INSERT INTO board_documents (id, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, boardDocumentID, raw); err != nil {
		return fmt.Errorf("save board document: %w", err)
	}

	return nil
}
