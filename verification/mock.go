package verification

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sambitsargam/SafeDocs-sub000/delivery"
	"github.com/sambitsargam/SafeDocs-sub000/document"
)

type MockContentRetriever struct {
	mock.Mock
}

//nolint:all
func (m *MockContentRetriever) Retrieve(ctx context.Context, contentID string, loc *delivery.Location) ([]byte, delivery.Metrics, error) {
	args := m.Called(ctx, contentID, loc)
	if args.Get(0) == nil {
		return nil, args.Get(1).(delivery.Metrics), args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(delivery.Metrics), args.Error(2)
}

type MockSignerRecoverer struct {
	mock.Mock
}

//nolint:all
func (m *MockSignerRecoverer) RecoverSigner(ctx context.Context, documentHash string, signature []byte) (string, error) {
	args := m.Called(ctx, documentHash, signature)
	return args.String(0), args.Error(1)
}

type MockChainLookup struct {
	mock.Mock
}

//nolint:all
func (m *MockChainLookup) Exists(ctx context.Context, txRef string) (bool, error) {
	args := m.Called(ctx, txRef)
	return args.Bool(0), args.Error(1)
}

type MockProofNetworkVerifier struct {
	mock.Mock
}

//nolint:all
func (m *MockProofNetworkVerifier) VerifyProof(ctx context.Context, contentID string, proofType string) (bool, error) {
	args := m.Called(ctx, contentID, proofType)
	return args.Bool(0), args.Error(1)
}

type MockDocumentReader struct {
	mock.Mock
}

//nolint:all
func (m *MockDocumentReader) GetDocument(ctx context.Context, documentID string) (*document.DocumentRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.DocumentRecord), args.Error(1)
}

type MockResultWriter struct {
	mock.Mock
}

//nolint:all
func (m *MockResultWriter) SaveResult(ctx context.Context, result *VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

type MockAuditWriter struct {
	mock.Mock
}

//nolint:all
func (m *MockAuditWriter) AppendEvent(ctx context.Context, documentID string, event document.AuditEvent) error {
	args := m.Called(ctx, documentID, event)
	return args.Error(0)
}
