package verification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sambitsargam/SafeDocs-sub000/delivery"
	"github.com/sambitsargam/SafeDocs-sub000/document"
	"github.com/sambitsargam/SafeDocs-sub000/helper"
)

const testTxRef = "9f2ca8c1e5b44a0d8a3be1a2f4c6d8e0a1b2c3d4e5f60718293a4b5c6d7e8f90"

func newTestSuite(
	retriever ContentRetriever,
	signer SignerRecoverer,
	chain ChainLookup,
	proofNet ProofNetworkVerifier,
) *Suite {
	return NewSuite(SuiteConfig{
		Retriever: retriever,
		Signer:    signer,
		Chain:     chain,
		ProofNet:  proofNet,
	})
}

func TestCheckIntegrity(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	content := []byte("original content")
	doc := helper.NewTestDocument("doc-1", helper.TestContentID, content)

	t.Run("hash matches retrieved bytes", func(t *testing.T) {
		retriever := new(MockContentRetriever)
		retriever.On("Retrieve", mock.Anything, helper.TestContentID, mock.Anything).
			Return(content, delivery.Metrics{RetrievalTimeMs: 12}, nil)

		suite := newTestSuite(retriever, nil, nil, nil)
		report := &suiteReport{}
		suite.checkIntegrity(ctx, doc, document.LevelStandard, report)

		assert.True(report.checks.Integrity)
		assert.Empty(report.anomalies)
		assert.Equal(int64(12), report.retrievalMs)
	})

	t.Run("hash mismatch", func(t *testing.T) {
		retriever := new(MockContentRetriever)
		retriever.On("Retrieve", mock.Anything, helper.TestContentID, mock.Anything).
			Return([]byte("tampered"), delivery.Metrics{}, nil)

		suite := newTestSuite(retriever, nil, nil, nil)
		report := &suiteReport{}
		suite.checkIntegrity(ctx, doc, document.LevelStandard, report)

		assert.False(report.checks.Integrity)
		assert.Contains(report.anomalies, "document hash does not match retrieved content")
	})

	t.Run("retrieval failure is caught", func(t *testing.T) {
		retriever := new(MockContentRetriever)
		retriever.On("Retrieve", mock.Anything, helper.TestContentID, mock.Anything).
			Return(nil, delivery.Metrics{}, errors.New("origin unreachable"))

		suite := newTestSuite(retriever, nil, nil, nil)
		report := &suiteReport{}
		suite.checkIntegrity(ctx, doc, document.LevelStandard, report)

		assert.False(report.checks.Integrity)
		assert.Contains(report.anomalies, "failed to retrieve content for integrity verification")
	})

	t.Run("basic level degrades to proof existence", func(t *testing.T) {
		suite := newTestSuite(nil, nil, nil, nil)

		report := &suiteReport{}
		suite.checkIntegrity(ctx, doc, document.LevelBasic, report)
		assert.True(report.checks.Integrity)

		bare := helper.NewTestDocument("doc-2", helper.TestContentID, content)
		bare.StorageProofs = nil

		report = &suiteReport{}
		suite.checkIntegrity(ctx, bare, document.LevelBasic, report)
		assert.False(report.checks.Integrity)
		assert.Contains(report.anomalies, "no storage proofs attached to document")
	})
}

func TestCheckStorageProof(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("valid proof with positive network check", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))

		proofNet := new(MockProofNetworkVerifier)
		proofNet.On("VerifyProof", mock.Anything, helper.TestContentID, "pdp").Return(true, nil)

		suite := newTestSuite(nil, nil, nil, proofNet)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.True(report.checks.StorageProof)
		assert.True(report.pdpValid)
		assert.Empty(report.anomalies)
	})

	t.Run("no proofs attached", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.StorageProofs = nil

		suite := newTestSuite(nil, nil, nil, nil)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.False(report.checks.StorageProof)
		assert.Contains(report.anomalies, "no storage proofs attached to document")
	})

	t.Run("missing structural fields", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.StorageProofs[0].Challenge = ""

		suite := newTestSuite(nil, nil, nil, nil)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.False(report.checks.StorageProof)
		assert.Contains(report.anomalies, "storage proof is missing required fields")
	})

	t.Run("stale proof", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.StorageProofs = []document.StorageProofRecord{
			helper.NewTestProof(helper.TestContentID, time.Now().Add(-31*24*time.Hour)),
		}

		suite := newTestSuite(nil, nil, nil, nil)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.False(report.checks.StorageProof)
		assert.Contains(report.anomalies, "storage proof is older than 30 days")
	})

	t.Run("challenge response mismatch", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.StorageProofs[0].Response = "deadbeef"

		suite := newTestSuite(nil, nil, nil, nil)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.False(report.checks.StorageProof)
		assert.Contains(report.anomalies, "storage proof challenge response mismatch")
	})

	t.Run("network check rejects proof", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))

		proofNet := new(MockProofNetworkVerifier)
		proofNet.On("VerifyProof", mock.Anything, helper.TestContentID, "pdp").Return(false, nil)

		suite := newTestSuite(nil, nil, nil, proofNet)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.False(report.checks.StorageProof)
		assert.False(report.pdpValid)
		assert.Contains(report.anomalies, "PDP storage proof validation failed")
	})

	t.Run("network check failure is caught", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))

		proofNet := new(MockProofNetworkVerifier)
		proofNet.On("VerifyProof", mock.Anything, helper.TestContentID, "pdp").
			Return(false, errors.New("network timeout"))

		suite := newTestSuite(nil, nil, nil, proofNet)
		report := &suiteReport{}
		suite.checkStorageProof(ctx, doc, report)

		assert.False(report.checks.StorageProof)
		assert.Contains(report.anomalies, "PDP storage proof validation failed")
	})
}

func TestCheckSignatures(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	newSignedDoc := func(addresses ...string) *document.DocumentRecord {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))

		for i, addr := range addresses {
			doc.Signatures = append(doc.Signatures, document.Signature{
				SignerAddress:  addr,
				SignatureBytes: []byte(fmt.Sprintf("sig-%d", i)),
				SignedAt:       time.Now(),
			})
		}

		return doc
	}

	t.Run("zero signatures pass vacuously", func(t *testing.T) {
		doc := newSignedDoc()
		suite := newTestSuite(nil, nil, nil, nil)

		report := &suiteReport{}
		suite.checkSignatures(ctx, doc, report)

		assert.True(report.checks.Signatures)
		assert.Zero(report.totalSignatures)
	})

	t.Run("all signatures recover to their claims", func(t *testing.T) {
		doc := newSignedDoc("0xAAA", "0xBBB")

		signer := new(MockSignerRecoverer)
		signer.On("RecoverSigner", mock.Anything, doc.DocumentHash, []byte("sig-0")).Return("0xaaa", nil)
		signer.On("RecoverSigner", mock.Anything, doc.DocumentHash, []byte("sig-1")).Return("0xbbb", nil)

		suite := newTestSuite(nil, signer, nil, nil)
		report := &suiteReport{}
		suite.checkSignatures(ctx, doc, report)

		assert.True(report.checks.Signatures)
		assert.Equal(2, report.validSignatures)
		assert.Equal(2, report.totalSignatures)
	})

	t.Run("partial mismatch records the count", func(t *testing.T) {
		doc := newSignedDoc("0xAAA", "0xBBB")

		signer := new(MockSignerRecoverer)
		signer.On("RecoverSigner", mock.Anything, doc.DocumentHash, []byte("sig-0")).Return("0xaaa", nil)
		signer.On("RecoverSigner", mock.Anything, doc.DocumentHash, []byte("sig-1")).Return("0xccc", nil)

		suite := newTestSuite(nil, signer, nil, nil)
		report := &suiteReport{}
		suite.checkSignatures(ctx, doc, report)

		assert.False(report.checks.Signatures)
		assert.Equal(1, report.validSignatures)
		assert.Contains(report.anomalies, "1 invalid signatures detected")
	})

	t.Run("recovery failure counts as invalid", func(t *testing.T) {
		doc := newSignedDoc("0xAAA")

		signer := new(MockSignerRecoverer)
		signer.On("RecoverSigner", mock.Anything, doc.DocumentHash, []byte("sig-0")).
			Return("", errors.New("kms unavailable"))

		suite := newTestSuite(nil, signer, nil, nil)
		report := &suiteReport{}
		suite.checkSignatures(ctx, doc, report)

		assert.False(report.checks.Signatures)
		assert.Zero(report.validSignatures)
		assert.Contains(report.anomalies, "1 invalid signatures detected")
	})
}

func TestCheckBlockchainRecord(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("short circuits below enhanced", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		suite := newTestSuite(nil, nil, nil, nil)

		for _, level := range []document.VerificationLevel{document.LevelBasic, document.LevelStandard} {
			report := &suiteReport{}
			suite.checkBlockchainRecord(ctx, doc, level, report)
			assert.True(report.checks.BlockchainRecord)
			assert.Empty(report.anomalies)
		}
	})

	t.Run("enhanced requires a recorded reference", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		suite := newTestSuite(nil, nil, nil, nil)

		report := &suiteReport{}
		suite.checkBlockchainRecord(ctx, doc, document.LevelEnhanced, report)

		assert.False(report.checks.BlockchainRecord)
		assert.Contains(report.anomalies, "no blockchain transaction reference recorded")
	})

	t.Run("pending sentinel is rejected", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.TransactionRef = "pending"
		suite := newTestSuite(nil, nil, nil, nil)

		report := &suiteReport{}
		suite.checkBlockchainRecord(ctx, doc, document.LevelMaximum, report)

		assert.Contains(report.anomalies, "blockchain transaction is still pending")
	})

	t.Run("malformed reference is rejected", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.TransactionRef = "zzzz"
		suite := newTestSuite(nil, nil, nil, nil)

		report := &suiteReport{}
		suite.checkBlockchainRecord(ctx, doc, document.LevelEnhanced, report)

		assert.Contains(report.anomalies, "blockchain transaction reference is malformed")
	})

	t.Run("existing record passes", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.TransactionRef = testTxRef

		chain := new(MockChainLookup)
		chain.On("Exists", mock.Anything, testTxRef).Return(true, nil)

		suite := newTestSuite(nil, nil, chain, nil)
		report := &suiteReport{}
		suite.checkBlockchainRecord(ctx, doc, document.LevelEnhanced, report)

		assert.True(report.checks.BlockchainRecord)
	})

	t.Run("missing record and lookup failure are anomalies", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.TransactionRef = testTxRef

		chain := new(MockChainLookup)
		chain.On("Exists", mock.Anything, testTxRef).Return(false, nil).Once()
		chain.On("Exists", mock.Anything, testTxRef).Return(false, errors.New("gateway down")).Once()

		suite := newTestSuite(nil, nil, chain, nil)

		report := &suiteReport{}
		suite.checkBlockchainRecord(ctx, doc, document.LevelEnhanced, report)
		assert.Contains(report.anomalies, "blockchain record not found on chain")

		report = &suiteReport{}
		suite.checkBlockchainRecord(ctx, doc, document.LevelEnhanced, report)
		assert.Contains(report.anomalies, "blockchain record lookup failed")
	})
}

func TestCheckCompliance(t *testing.T) {
	assert := assert.New(t)
	suite := newTestSuite(nil, nil, nil, nil)

	t.Run("hipaa requires encryption", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.ComplianceLevel = document.ComplianceHIPAA
		doc.IsEncrypted = false

		report := &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.False(report.checks.Compliance)
		assert.Contains(report.anomalies, "HIPAA compliance requires document encryption")
	})

	t.Run("hipaa requires two audit events", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.ComplianceLevel = document.ComplianceHIPAA
		doc.IsEncrypted = true
		doc.AuditEvents = doc.AuditEvents[:1]

		report := &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.False(report.checks.Compliance)
		assert.Contains(report.anomalies, "HIPAA compliance requires an audit trail of at least 2 events")
	})

	t.Run("sox requires a signature and recommends management", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.ComplianceLevel = document.ComplianceSOX

		report := &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.False(report.checks.Compliance)
		assert.Contains(report.anomalies, "SOX compliance requires at least one signature")

		doc.Signatures = []document.Signature{{SignerAddress: "0xaaa", SignerRole: "management"}}

		report = &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.True(report.checks.Compliance)
		assert.Empty(report.recommendations)
	})

	t.Run("gdpr retention window", func(t *testing.T) {
		retention := 30
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.ComplianceLevel = document.ComplianceGDPR
		doc.IsEncrypted = true
		doc.RetentionPeriodDays = &retention
		doc.CreatedAt = time.Now().Add(-40 * 24 * time.Hour)

		report := &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.False(report.checks.Compliance)
		assert.Contains(report.anomalies,
			"document retained beyond the declared GDPR retention period of 30 days")

		doc.CreatedAt = time.Now().Add(-10 * 24 * time.Hour)

		report = &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)
		assert.True(report.checks.Compliance)
	})

	t.Run("high security recommends maximum level", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.ComplianceLevel = document.ComplianceHighSecurity
		doc.IsEncrypted = true

		report := &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.True(report.checks.Compliance)
		assert.Contains(report.recommendations, "use MAXIMUM verification level for high security documents")

		report = &suiteReport{}
		suite.checkCompliance(doc, document.LevelMaximum, report)
		assert.Empty(report.recommendations)
	})

	t.Run("standard framework has no extra rules", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))

		report := &suiteReport{}
		suite.checkCompliance(doc, document.LevelStandard, report)

		assert.True(report.checks.Compliance)
		assert.Empty(report.anomalies)
	})
}

func TestCheckAuditTrail(t *testing.T) {
	assert := assert.New(t)
	suite := newTestSuite(nil, nil, nil, nil)
	base := time.Now().Add(-72 * time.Hour)

	newEvents := func(actions ...string) []document.AuditEvent {
		events := make([]document.AuditEvent, 0, len(actions))

		for i, action := range actions {
			events = append(events, document.AuditEvent{
				Action:    action,
				Timestamp: base.Add(time.Duration(i) * time.Hour),
			})
		}

		return events
	}

	t.Run("requires the upload event", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.AuditEvents = newEvents(document.ActionDocumentAccessed)

		report := &suiteReport{}
		suite.checkAuditTrail(doc, document.LevelStandard, report)

		assert.False(report.checks.AuditTrail)
		assert.Contains(report.anomalies, "missing DOCUMENT_UPLOADED audit event")
	})

	t.Run("ordering scan stops at the first violation", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.AuditEvents = newEvents(
			document.ActionDocumentUploaded,
			document.ActionDocumentAccessed,
			document.ActionDocumentAccessed,
			document.ActionDocumentAccessed,
		)
		// two separate regressions, only the first is reported
		doc.AuditEvents[1].Timestamp = base.Add(-time.Hour)
		doc.AuditEvents[3].Timestamp = base.Add(-2 * time.Hour)

		report := &suiteReport{}
		suite.checkAuditTrail(doc, document.LevelStandard, report)

		assert.False(report.checks.AuditTrail)
		assert.Contains(report.anomalies, "audit events out of chronological order at position 1")
		assert.Len(report.anomalies, 1)
	})

	t.Run("warns on suspicious repetition", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		events := newEvents(document.ActionDocumentUploaded)

		for i := 0; i < 101; i++ {
			events = append(events, document.AuditEvent{
				Action:    document.ActionDocumentAccessed,
				Timestamp: base.Add(time.Duration(i+1) * time.Minute),
			})
		}

		doc.AuditEvents = events

		report := &suiteReport{}
		suite.checkAuditTrail(doc, document.LevelStandard, report)

		assert.True(report.checks.AuditTrail)
		assert.Contains(report.warnings, "suspicious repetition: action DOCUMENT_ACCESSED occurs 101 times")
	})

	t.Run("gap scan only runs at enhanced and above", func(t *testing.T) {
		doc := helper.NewTestDocument("doc-1", helper.TestContentID, []byte("content"))
		doc.AuditEvents = []document.AuditEvent{
			{Action: document.ActionDocumentUploaded, Timestamp: base.Add(-30 * 24 * time.Hour)},
			{Action: document.ActionDocumentAccessed, Timestamp: base.Add(-20 * 24 * time.Hour)},
			{Action: document.ActionDocumentAccessed, Timestamp: base},
		}

		report := &suiteReport{}
		suite.checkAuditTrail(doc, document.LevelStandard, report)
		assert.Empty(report.warnings)

		report = &suiteReport{}
		suite.checkAuditTrail(doc, document.LevelEnhanced, report)
		assert.Contains(report.warnings, "2 gaps longer than 7 days in the audit trail")
	})
}
