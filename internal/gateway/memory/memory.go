package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.Mutex
	items map[string]core.Transaction
	now   func() time.Time
	newID func() string
}

func New() *Store {
	return &Store{
		items: make(map[string]core.Transaction),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// seedRecord is the on-disk shape of a seed file entry.
type seedRecord struct {
	ID          string     `json:"id"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
}

// NewFromFile seeds the store from a JSON array of transactions. A missing
// file yields an empty store; invalid records are rejected.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, r := range records {
		in := core.TransactionInput{
			Amount:      r.Amount,
			Date:        r.Date,
			Category:    core.Category(r.Category),
			Description: r.Description,
		}.Normalized()
		if err := in.Validate(core.CategoryFreeText); err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		id := r.ID
		if id == "" {
			id = s.newID()
		}
		s.items[id] = core.Transaction{ID: id, CreatedAt: s.now()}.WithInput(in)
	}
	return s, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	s.mu.Unlock()
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, in core.TransactionInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.items[id] = core.Transaction{ID: id, CreatedAt: s.now()}.WithInput(in)
	return id, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, in core.TransactionInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return core.ErrNotFound
	}
	t = t.WithInput(in)
	t.UpdatedAt = s.now()
	s.items[id] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
