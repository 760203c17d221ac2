package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/iwvelando/loan-compare/internal/finance"
)

// Memory is an in-process Store. Its contents are lost when the process exits.
type Memory struct {
	mu      sync.RWMutex
	options map[string]finance.Option
	seq     map[string]int
	next    int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		options: make(map[string]finance.Option),
		seq:     make(map[string]int),
	}
}

func (m *Memory) Save(ctx context.Context, option finance.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.options[option.ID]; ok && existing.UserID != option.UserID {
		return ErrNotFound
	}
	if _, ok := m.seq[option.ID]; !ok {
		m.seq[option.ID] = m.next
		m.next++
	}
	m.options[option.ID] = option
	return nil
}

func (m *Memory) Get(ctx context.Context, userID, id string) (finance.Option, error) {
	if err := ctx.Err(); err != nil {
		return finance.Option{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	option, ok := m.options[id]
	if !ok || option.UserID != userID {
		return finance.Option{}, ErrNotFound
	}
	return option, nil
}

func (m *Memory) List(ctx context.Context, userID string) ([]finance.Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	options := make([]finance.Option, 0)
	for _, option := range m.options {
		if option.UserID == userID {
			options = append(options, option)
		}
	}
	sort.Slice(options, func(i, j int) bool {
		if !options[i].CreatedAt.Equal(options[j].CreatedAt) {
			return options[i].CreatedAt.Before(options[j].CreatedAt)
		}
		return m.seq[options[i].ID] < m.seq[options[j].ID]
	})
	return options, nil
}

func (m *Memory) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	option, ok := m.options[id]
	if !ok || option.UserID != userID {
		return ErrNotFound
	}
	delete(m.options, id)
	delete(m.seq, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
