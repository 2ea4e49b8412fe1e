package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/pkg/metrics"
)

const (
	collectionDocuments = "documents"
	documentID          = "marketplace"
	maxUpdateAttempts   = 3
	driver              = "mongo"
)

// storedDocument is the on-disk shape: the aggregate plus a version used
// for optimistic concurrency.
type storedDocument struct {
	ID       string           `bson:"_id"`
	Version  int64            `bson:"version"`
	Users    []domain.User    `bson:"users"`
	Sessions []domain.Session `bson:"sessions"`
}

// DocumentStore keeps the whole users/sessions aggregate in one MongoDB
// document. Update uses compare-and-swap on the version field.
type DocumentStore struct {
	coll *mongo.Collection
	log  zerolog.Logger
}

func NewDocumentStore(db *mongo.Database, log zerolog.Logger) *DocumentStore {
	return &DocumentStore{coll: db.Collection(collectionDocuments), log: log}
}

// load returns the stored document and whether it exists yet.
func (s *DocumentStore) load(ctx context.Context) (*storedDocument, bool, error) {
	var sd storedDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": documentID}).Decode(&sd)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &storedDocument{ID: documentID}, false, nil
		}
		s.log.Error().Err(err).Msg("error reading document")
		return nil, false, fmt.Errorf("%w: find: %v", domain.ErrStorageUnavailable, err)
	}
	return &sd, true, nil
}

func toDomain(sd *storedDocument) *domain.Document {
	doc := &domain.Document{Users: sd.Users, Sessions: sd.Sessions}
	doc.Normalize()
	return doc
}

// Read returns the current document; a missing document reads as empty.
func (s *DocumentStore) Read(ctx context.Context) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	sd, _, err := s.load(ctx)
	observe("read", start, err)
	if err != nil {
		return nil, err
	}
	return toDomain(sd), nil
}

// Write overwrites the document unconditionally and bumps its version.
func (s *DocumentStore) Write(ctx context.Context, doc *domain.Document) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	doc.Normalize()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": documentID},
		bson.M{
			"$set": bson.M{"users": doc.Users, "sessions": doc.Sessions},
			"$inc": bson.M{"version": 1},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.log.Error().Err(err).Msg("error writing document")
		err = fmt.Errorf("%w: write: %v", domain.ErrStorageUnavailable, err)
	}
	observe("write", start, err)
	return err
}

// Update applies fn and stores the result only if nobody else wrote in
// between, retrying a bounded number of times before ErrConflict.
func (s *DocumentStore) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	err := s.update(ctx, fn)
	if errors.Is(err, domain.ErrStorageUnavailable) || errors.Is(err, domain.ErrConflict) {
		observe("update", start, err)
	} else {
		observe("update", start, nil)
	}
	return err
}

func (s *DocumentStore) update(ctx context.Context, fn func(doc *domain.Document) error) error {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		sd, exists, err := s.load(ctx)
		if err != nil {
			return err
		}

		doc := toDomain(sd)
		if err := fn(doc); err != nil {
			return err
		}

		swapped, err := s.swap(ctx, sd.Version, exists, doc)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}

		s.log.Warn().Int("attempt", attempt).Int64("version", sd.Version).Msg("document version changed, retrying update")
	}
	return domain.ErrConflict
}

// swap writes doc if the stored version still equals version. It reports
// false when another writer got there first.
func (s *DocumentStore) swap(ctx context.Context, version int64, exists bool, doc *domain.Document) (bool, error) {
	next := storedDocument{ID: documentID, Version: version + 1, Users: doc.Users, Sessions: doc.Sessions}

	if !exists {
		_, err := s.coll.InsertOne(ctx, next)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return false, nil
			}
			return false, fmt.Errorf("%w: insert: %v", domain.ErrStorageUnavailable, err)
		}
		return true, nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": documentID, "version": version}, next)
	if err != nil {
		return false, fmt.Errorf("%w: replace: %v", domain.ErrStorageUnavailable, err)
	}
	return res.MatchedCount == 1, nil
}

func observe(op string, start time.Time, err error) {
	metrics.StoreOperationDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(driver, op).Inc()
	}
}
