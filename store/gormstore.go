package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	log2 "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sambitsargam/SafeDocs-sub000/document"
	"github.com/sambitsargam/SafeDocs-sub000/verification"
)

// GormStore backs the persistence collaborators with Postgres. It implements
// verification.DocumentReader, verification.ResultWriter and
// verification.AuditWriter.
type GormStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	err := db.AutoMigrate(
		&document.DocumentRecord{},
		&document.Signature{},
		&document.AuditEvent{},
		&document.StorageProofRecord{},
		&VerificationResultModel{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "cannot migrate custody models")
	}

	return &GormStore{
		db:  db,
		log: log2.With().Str("role", "gorm_store").Caller().Logger(),
	}, nil
}

func (s *GormStore) GetDocument(ctx context.Context, documentID string) (*document.DocumentRecord, error) {
	doc := new(document.DocumentRecord)

	err := s.db.WithContext(ctx).
		Preload("Signatures").
		Preload("AuditEvents").
		Preload("StorageProofs").
		First(doc, "id = ?", documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, document.ErrNotFound
	}

	if err != nil {
		return nil, errors.Wrapf(err, "failed to load document %s", documentID)
	}

	return doc, nil
}

func (s *GormStore) SaveResult(ctx context.Context, result *verification.VerificationResult) error {
	model, err := newResultModel(result)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Create(model).Error
	if err != nil {
		return errors.Wrap(err, "failed to store verification result")
	}

	return nil
}

func (s *GormStore) AppendEvent(ctx context.Context, documentID string, event document.AuditEvent) error {
	event.DocumentID = documentID

	err := s.db.WithContext(ctx).Create(&event).Error
	if err != nil {
		return errors.Wrapf(err, "failed to append audit event for document %s", documentID)
	}

	return nil
}
