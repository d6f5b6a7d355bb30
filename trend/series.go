package trend

import (
	"sort"
	"time"

	"github.com/intervention-engine/cvrisk/plugin"
)

// DefaultRetention is the number of snapshots kept per subject.
const DefaultRetention = 500

// Snapshot is one past assessment of a subject.
type Snapshot struct {
	AsOf       time.Time       `json:"asOf" bson:"asOf"`
	Score      float64         `json:"score" bson:"score"`
	Category   plugin.Category `json:"category" bson:"category"`
	Confidence float64         `json:"confidence" bson:"confidence"`
	KeyFactors []string        `json:"keyFactors,omitempty" bson:"keyFactors,omitempty"`
}

// Series represents a subject and its time-ascending snapshots. Once Limit
// is reached the oldest snapshot is evicted on every append.
type Series struct {
	Subject   string     `json:"subject"`
	Limit     int        `json:"limit"`
	Snapshots []Snapshot `json:"snapshots"`
}

// NewSeries creates a new Series for the given subject, initialized to 0
// snapshots. A limit of 0 or less uses DefaultRetention.
func NewSeries(subject string, limit int) *Series {
	if limit <= 0 {
		limit = DefaultRetention
	}
	return &Series{Subject: subject, Limit: limit, Snapshots: make([]Snapshot, 0)}
}

// Append adds a snapshot, keeps the series time-ascending and evicts the
// oldest snapshots beyond the limit.
func (s *Series) Append(snap Snapshot) {
	s.Snapshots = append(s.Snapshots, snap)
	if n := len(s.Snapshots); n > 1 && snap.AsOf.Before(s.Snapshots[n-2].AsOf) {
		sortSnapshots(s.Snapshots)
	}
	if s.Limit > 0 && len(s.Snapshots) > s.Limit {
		s.Snapshots = append([]Snapshot(nil), s.Snapshots[len(s.Snapshots)-s.Limit:]...)
	}
}

// Len returns the number of snapshots.
func (s *Series) Len() int {
	return len(s.Snapshots)
}

// Latest returns up to n snapshots, most recent first. n <= 0 returns all.
func (s *Series) Latest(n int) []Snapshot {
	if n <= 0 || n > len(s.Snapshots) {
		n = len(s.Snapshots)
	}
	out := make([]Snapshot, 0, n)
	for i := len(s.Snapshots) - 1; i >= len(s.Snapshots)-n; i-- {
		out = append(out, s.Snapshots[i])
	}
	return out
}

// Clone creates a copy of the series. Snapshots of the clone can be modified
// without affecting the original.
func (s *Series) Clone() *Series {
	cloned := *s
	cloned.Snapshots = make([]Snapshot, len(s.Snapshots))
	copy(cloned.Snapshots, s.Snapshots)
	return &cloned
}

func sortSnapshots(snaps []Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].AsOf.Before(snaps[j].AsOf)
	})
}
