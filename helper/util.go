package helper

import (
	"time"

	"github.com/sambitsargam/SafeDocs-sub000/document"
)

const PostgresConnectionString = "host=localhost port=5432 user=postgres password=postgres dbname=postgres"

// Well-formed content identifiers for tests.
const (
	TestContentID  = "bafkreig4bdyaaedbcqy7ysylkbwkomo43aax223btxefxfcal4aiz6iw6e"
	TestContentID2 = "bafkreiawxfcprqxgv5rebdri465gw3bk6gcqy5iwlfstckr37sn57kh3bi"
	TestContentID3 = "bafkreic2omcnent2hmq4jvw3ajml4kceweoyyggno5qkvqd7cz53q6qbjq"
)

// NewTestProof builds a fresh storage proof whose challenge response matches
// the recomputation, so the structural validation passes.
func NewTestProof(contentID string, issuedAt time.Time) document.StorageProofRecord {
	proof := document.StorageProofRecord{
		ContentID:     contentID,
		CombinedHash:  document.HashBytes([]byte(contentID)),
		Size:          1024,
		Timestamp:     issuedAt,
		ProofType:     "pdp",
		DealReference: "deal-001",
		Challenge:     "c1a9",
	}
	proof.Response = proof.ExpectedResponse()

	return proof
}

// NewTestDocument builds a document whose hash matches the given content
// bytes, carrying a fresh proof and an ordered audit trail.
func NewTestDocument(id string, contentID string, content []byte) *document.DocumentRecord {
	now := time.Now()

	return &document.DocumentRecord{
		ID:              id,
		ContentID:       contentID,
		DocumentHash:    document.HashBytes(content),
		ComplianceLevel: document.ComplianceStandard,
		CreatedAt:       now.Add(-48 * time.Hour),
		AuditEvents: []document.AuditEvent{
			{DocumentID: id, Action: document.ActionDocumentUploaded, Actor: "uploader", Timestamp: now.Add(-48 * time.Hour)},
			{DocumentID: id, Action: document.ActionDocumentAccessed, Actor: "reader", Timestamp: now.Add(-24 * time.Hour)},
		},
		StorageProofs: []document.StorageProofRecord{
			NewTestProof(contentID, now.Add(-time.Hour)),
		},
	}
}
