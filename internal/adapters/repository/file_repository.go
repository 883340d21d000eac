package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/ports"
)

// FileBoardRepository persists the board document as one pretty-printed
// JSON file, rewritten whole on every save.
type FileBoardRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileBoardRepository creates a file-backed board repository.
func NewFileBoardRepository(path string) ports.BoardRepository {
	return &FileBoardRepository{path: path}
}

// Load reads the document from disk. A missing file initializes the default
// board schema and persists it; any other read or parse failure is returned
// so that startup never proceeds on a silently-corrupt document.
func (r *FileBoardRepository) Load(ctx context.Context) (*entities.BoardData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			board := entities.NewBoard()
			if err := r.write(board); err != nil {
				return nil, fmt.Errorf("initialize board file: %w", err)
			}
			return board, nil
		}
		return nil, fmt.Errorf("read board file %s: %w", r.path, err)
	}

	var board entities.BoardData
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("parse board file %s: %w", r.path, err)
	}

	return &board, nil
}

// Save overwrites the file with the given snapshot.
func (r *FileBoardRepository) Save(ctx context.Context, board *entities.BoardData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(board)
}

func (r *FileBoardRepository) write(board *entities.BoardData) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create board directory: %w", err)
		}
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write board file %s: %w", r.path, err)
	}

	return nil
}
