package verification

import (
	"context"
	"time"

	"github.com/sambitsargam/SafeDocs-sub000/delivery"
	"github.com/sambitsargam/SafeDocs-sub000/document"
)

// CheckResultSet is the fixed set of six independent checks run for every
// verification.
type CheckResultSet struct {
	Integrity        bool `json:"integrity"`
	StorageProof     bool `json:"storageProof"`
	Signatures       bool `json:"signatures"`
	BlockchainRecord bool `json:"blockchainRecord"`
	Compliance       bool `json:"compliance"`
	AuditTrail       bool `json:"auditTrail"`
}

const checkCount = 6

// Passed counts how many of the six checks passed.
func (c CheckResultSet) Passed() int {
	passed := 0

	for _, ok := range []bool{c.Integrity, c.StorageProof, c.Signatures, c.BlockchainRecord, c.Compliance, c.AuditTrail} {
		if ok {
			passed++
		}
	}

	return passed
}

// DerivedMetrics break the aggregate result down by concern, each clamped to
// [0, 100].
type DerivedMetrics struct {
	DataIntegrityScore int   `json:"data_integrity_score"`
	CryptographicScore int   `json:"cryptographic_score"`
	ComplianceScore    int   `json:"compliance_score"`
	RetrievalTimeMs    int64 `json:"retrieval_time_ms"`
}

// VerificationResult is the externally visible outcome of verifying one
// document. It is created fresh per call and never mutated afterwards.
type VerificationResult struct {
	VerificationID  string                     `json:"verification_id"`
	DocumentID      string                     `json:"document_id"`
	IsValid         bool                       `json:"is_valid"`
	Confidence      int                        `json:"confidence"`
	Level           document.VerificationLevel `json:"level"`
	Checks          CheckResultSet             `json:"checks"`
	Anomalies       []string                   `json:"anomalies"`
	Warnings        []string                   `json:"warnings"`
	Recommendations []string                   `json:"recommendations"`
	TrustScore      int                        `json:"trust_score"`
	Metrics         DerivedMetrics             `json:"metrics"`
	SignatureCount  int                        `json:"signature_count"`
	Timestamp       time.Time                  `json:"timestamp"`
}

// BatchSummary aggregates the results that completed within one batch.
type BatchSummary struct {
	Total             int     `json:"total"`
	Valid             int     `json:"valid"`
	Invalid           int     `json:"invalid"`
	AverageConfidence float64 `json:"average_confidence"`
	ElapsedMs         int64   `json:"elapsed_ms"`
}

// BatchResult is the outcome of a bounded-concurrency batch verification.
// Documents whose verification failed outright are omitted from Results.
type BatchResult struct {
	Results         []VerificationResult `json:"results"`
	Summary         BatchSummary         `json:"summary"`
	CommonIssues    []string             `json:"common_issues"`
	RiskFactors     []string             `json:"risk_factors"`
	Recommendations []string             `json:"recommendations"`
}

// ContentRetriever fetches document bytes through the delivery path, so the
// integrity check exercises the same retrieval policy as normal reads.
type ContentRetriever interface {
	Retrieve(ctx context.Context, contentID string, loc *delivery.Location) ([]byte, delivery.Metrics, error)
}

// SignerRecoverer is the external cryptographic primitive recovering the
// signer address from a document hash and signature bytes.
type SignerRecoverer interface {
	RecoverSigner(ctx context.Context, documentHash string, signature []byte) (string, error)
}

// ChainLookup is the external chain primitive answering whether a
// transaction reference exists on chain.
type ChainLookup interface {
	Exists(ctx context.Context, txRef string) (bool, error)
}

// ProofNetworkVerifier asks the origin network to verify possession of the
// content. Early deployments may wire a stub here.
type ProofNetworkVerifier interface {
	VerifyProof(ctx context.Context, contentID string, proofType string) (bool, error)
}

// DocumentReader loads the verification-facing view of a document. Returns
// document.ErrNotFound when absent.
type DocumentReader interface {
	GetDocument(ctx context.Context, documentID string) (*document.DocumentRecord, error)
}

// ResultWriter persists verification results, append-only and best-effort.
type ResultWriter interface {
	SaveResult(ctx context.Context, result *VerificationResult) error
}

// AuditWriter appends audit events, append-only and best-effort.
type AuditWriter interface {
	AppendEvent(ctx context.Context, documentID string, event document.AuditEvent) error
}
