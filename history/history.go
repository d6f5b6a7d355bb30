package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/intervention-engine/cvrisk/trend"
)

// ErrNotFound is returned when a subject has no recorded snapshots.
var ErrNotFound = errors.New("history: no snapshots for subject")

// Repository stores the trend series of each subject. Implementations keep
// at most their retention count per subject, evicting the oldest first.
type Repository interface {
	// Get returns the subject's most recent snapshots, time-ascending. A
	// limit of 0 or less returns everything retained.
	Get(ctx context.Context, subject string, limit int) (*trend.Series, error)
	// Append records a snapshot and applies the retention cap.
	Append(ctx context.Context, subject string, snap trend.Snapshot) error
	// Close releases the backing connection, if any.
	Close() error
}

// Options selects and configures a repository backend.
type Options struct {
	Backend       string
	Retention     int
	MongoURL      string
	MongoDatabase string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open connects the backend named in opts: memory, mongo, sqlite or redis.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryRepository(opts.Retention), nil
	case "mongo":
		return DialMongoRepository(opts.MongoURL, opts.MongoDatabase, opts.Retention)
	case "sqlite":
		return OpenSQLiteRepository(ctx, opts.SQLitePath, opts.Retention)
	case "redis":
		return DialRedisRepository(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.Retention)
	}
	return nil, fmt.Errorf("history: unknown backend %q", opts.Backend)
}

func retention(limit int) int {
	if limit <= 0 {
		return trend.DefaultRetention
	}
	return limit
}

// window clamps a requested limit to the retention count.
func window(limit, retained int) int {
	if limit <= 0 || limit > retained {
		return retained
	}
	return limit
}
