// Package history keeps a best-effort record of completed downloads. It is
// deliberately outside the core request path: append failures are logged and
// swallowed, and the in-memory driver is the default.
package history

import (
	"context"
	"sync"

	"github.com/ytgrab/ytgrab/internal/models"
)

// Repository records downloads and lists them, newest first.
type Repository interface {
	Append(ctx context.Context, record models.DownloadHistoryRecord) error
	List(ctx context.Context) ([]models.DownloadHistoryRecord, error)
}

const memoryLimit = 500

// MemoryRepository is the default driver: process-local, capped, lost on
// restart. Good enough for a best-effort convenience feature.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []models.DownloadHistoryRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Append(ctx context.Context, record models.DownloadHistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)
	if len(m.records) > memoryLimit {
		m.records = m.records[len(m.records)-memoryLimit:]
	}
	return nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]models.DownloadHistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.DownloadHistoryRecord, len(m.records))
	for i, record := range m.records {
		result[len(m.records)-1-i] = record
	}
	return result, nil
}
