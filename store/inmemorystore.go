package store

import (
	"context"
	"sync"

	"github.com/sambitsargam/SafeDocs-sub000/document"
	"github.com/sambitsargam/SafeDocs-sub000/verification"
)

// InMemoryStore holds documents, results and audit events in process memory.
// Used by tests and by the default bootstrap when no database is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*document.DocumentRecord
	results   []VerificationResultModel
	events    map[string][]document.AuditEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[string]*document.DocumentRecord),
		events:    make(map[string][]document.AuditEvent),
	}
}

// AddDocument registers a document so verification can find it.
func (s *InMemoryStore) AddDocument(doc *document.DocumentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[doc.ID] = doc
}

func (s *InMemoryStore) GetDocument(_ context.Context, documentID string) (*document.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return nil, document.ErrNotFound
	}

	copied := *doc

	return &copied, nil
}

func (s *InMemoryStore) SaveResult(_ context.Context, result *verification.VerificationResult) error {
	model, err := newResultModel(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, *model)

	return nil
}

func (s *InMemoryStore) AppendEvent(_ context.Context, documentID string, event document.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.DocumentID = documentID
	s.events[documentID] = append(s.events[documentID], event)

	return nil
}

// Results returns the stored verification results, newest last.
func (s *InMemoryStore) Results() []VerificationResultModel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]VerificationResultModel, len(s.results))
	copy(results, s.results)

	return results
}

// EventsFor returns the audit events appended for a document.
func (s *InMemoryStore) EventsFor(documentID string) []document.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]document.AuditEvent, len(s.events[documentID]))
	copy(events, s.events[documentID])

	return events
}
