package history

import (
	"context"
	"fmt"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/intervention-engine/cvrisk/trend"
)

const snapshotCollection = "snapshots"

// MongoRepository stores one document per snapshot in the snapshots
// collection. mgo has no context support, so ctx is only checked before each
// operation.
type MongoRepository struct {
	db      *mgo.Database
	limit   int
	session *mgo.Session
}

type snapshotDoc struct {
	ID             bson.ObjectId `bson:"_id,omitempty"`
	Subject        string        `bson:"subject"`
	trend.Snapshot `bson:",inline"`
}

// NewMongoRepository wraps an existing database. The caller owns the session.
func NewMongoRepository(db *mgo.Database, limit int) (*MongoRepository, error) {
	err := db.C(snapshotCollection).EnsureIndex(mgo.Index{Key: []string{"subject", "asOf"}})
	if err != nil {
		return nil, fmt.Errorf("history: ensuring snapshot index: %w", err)
	}
	return &MongoRepository{db: db, limit: retention(limit)}, nil
}

// DialMongoRepository connects to url and uses the named database.
func DialMongoRepository(url, database string, limit int) (*MongoRepository, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("history: dialing mongo: %w", err)
	}
	repo, err := NewMongoRepository(session.DB(database), limit)
	if err != nil {
		session.Close()
		return nil, err
	}
	repo.session = session
	return repo, nil
}

func (m *MongoRepository) collection() (*mgo.Collection, func()) {
	session := m.db.Session.Copy()
	return m.db.With(session).C(snapshotCollection), session.Close
}

func (m *MongoRepository) Get(ctx context.Context, subject string, limit int) (*trend.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, done := m.collection()
	defer done()

	var docs []snapshotDoc
	err := c.Find(bson.M{"subject": subject}).Sort("-asOf", "-_id").Limit(window(limit, m.limit)).All(&docs)
	if err != nil {
		return nil, fmt.Errorf("history: reading snapshots: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	series := trend.NewSeries(subject, m.limit)
	for i := len(docs) - 1; i >= 0; i-- {
		series.Snapshots = append(series.Snapshots, docs[i].Snapshot)
	}
	return series, nil
}

func (m *MongoRepository) Append(ctx context.Context, subject string, snap trend.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, done := m.collection()
	defer done()

	if err := c.Insert(&snapshotDoc{Subject: subject, Snapshot: snap}); err != nil {
		return fmt.Errorf("history: inserting snapshot: %w", err)
	}

	count, err := c.Find(bson.M{"subject": subject}).Count()
	if err != nil {
		return fmt.Errorf("history: counting snapshots: %w", err)
	}
	if count <= m.limit {
		return nil
	}
	var oldest []snapshotDoc
	err = c.Find(bson.M{"subject": subject}).Sort("asOf", "_id").Limit(count - m.limit).Select(bson.M{"_id": 1}).All(&oldest)
	if err != nil {
		return fmt.Errorf("history: finding evicted snapshots: %w", err)
	}
	ids := make([]bson.ObjectId, len(oldest))
	for i := range oldest {
		ids[i] = oldest[i].ID
	}
	if _, err = c.RemoveAll(bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("history: evicting snapshots: %w", err)
	}
	return nil
}

func (m *MongoRepository) Close() error {
	if m.session != nil {
		m.session.Close()
	}
	return nil
}
