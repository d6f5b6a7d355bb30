package history

import (
	"context"
	"sync"

	"github.com/intervention-engine/cvrisk/trend"
)

// MemoryRepository keeps series in a map guarded by a mutex. Contents are
// lost on restart.
type MemoryRepository struct {
	sync.Mutex
	limit  int
	series map[string]*trend.Series
}

// NewMemoryRepository creates an empty repository with the given retention.
func NewMemoryRepository(limit int) *MemoryRepository {
	return &MemoryRepository{limit: retention(limit), series: make(map[string]*trend.Series)}
}

func (m *MemoryRepository) Get(ctx context.Context, subject string, limit int) (*trend.Series, error) {
	m.Lock()
	defer m.Unlock()

	s, ok := m.series[subject]
	if !ok || s.Len() == 0 {
		return nil, ErrNotFound
	}
	out := s.Clone()
	n := window(limit, out.Len())
	out.Snapshots = out.Snapshots[out.Len()-n:]
	return out, nil
}

func (m *MemoryRepository) Append(ctx context.Context, subject string, snap trend.Snapshot) error {
	m.Lock()
	defer m.Unlock()

	s, ok := m.series[subject]
	if !ok {
		s = trend.NewSeries(subject, m.limit)
		m.series[subject] = s
	}
	s.Append(snap)
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}
