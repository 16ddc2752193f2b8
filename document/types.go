package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a document or its content cannot be located.
var ErrNotFound = errors.New("document not found")

type VerificationLevel string

const (
	LevelBasic    VerificationLevel = "BASIC"
	LevelStandard VerificationLevel = "STANDARD"
	LevelEnhanced VerificationLevel = "ENHANCED"
	LevelMaximum  VerificationLevel = "MAXIMUM"
)

// Threshold returns the minimum confidence required for a result at this
// level to be considered valid.
func (l VerificationLevel) Threshold() int {
	switch l {
	case LevelBasic:
		return 60
	case LevelStandard:
		return 75
	case LevelEnhanced:
		return 85
	case LevelMaximum:
		return 95
	default:
		return 75
	}
}

func ParseLevel(s string) (VerificationLevel, error) {
	switch VerificationLevel(s) {
	case LevelBasic, LevelStandard, LevelEnhanced, LevelMaximum:
		return VerificationLevel(s), nil
	case "":
		return LevelStandard, nil
	default:
		return "", errors.Errorf("unknown verification level %s", s)
	}
}

type ComplianceFramework string

const (
	ComplianceStandard     ComplianceFramework = "STANDARD"
	ComplianceHIPAA        ComplianceFramework = "HIPAA"
	ComplianceSOX          ComplianceFramework = "SOX"
	ComplianceGDPR         ComplianceFramework = "GDPR"
	ComplianceHighSecurity ComplianceFramework = "HIGH_SECURITY"
)

const (
	ActionDocumentUploaded = "DOCUMENT_UPLOADED"
	ActionDocumentAccessed = "DOCUMENT_ACCESSED"
	ActionDocumentVerified = "DOCUMENT_VERIFIED"
	ActionDocumentShared   = "DOCUMENT_SHARED"
)

type Signature struct {
	ID             uint      `json:"-" gorm:"primarykey"`
	DocumentID     string    `json:"document_id" gorm:"index"`
	SignerAddress  string    `json:"signer_address"`
	SignerRole     string    `json:"signer_role"`
	SignatureBytes []byte    `json:"signature_bytes"`
	SignedAt       time.Time `json:"signed_at"`
}

type AuditEvent struct {
	ID         uint      `json:"-" gorm:"primarykey"`
	DocumentID string    `json:"document_id" gorm:"index"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Details    string    `json:"details"`
}

// ProofMaxAge is how old a storage proof may be before it is rejected.
const ProofMaxAge = 30 * 24 * time.Hour

// StorageProofRecord is produced once at upload time by the storage layer
// and is immutable thereafter. It carries a PDP-style challenge/response
// pair checked by the storage proof validation.
type StorageProofRecord struct {
	ID            uint      `json:"-" gorm:"primarykey"`
	DocumentID    string    `json:"document_id" gorm:"index"`
	ContentID     string    `json:"content_id"`
	CombinedHash  string    `json:"combined_hash"`
	Size          uint64    `json:"size"`
	Timestamp     time.Time `json:"timestamp"`
	ProofType     string    `json:"proof_type"`
	DealReference string    `json:"deal_reference"`
	Challenge     string    `json:"challenge"`
	Response      string    `json:"response"`
}

// ExpectedResponse recomputes the challenge response the storage layer should
// have produced: sha256 over contentID + challenge + proof unix timestamp.
func (p StorageProofRecord) ExpectedResponse() string {
	sum := sha256.Sum256([]byte(p.ContentID + p.Challenge + strconv.FormatInt(p.Timestamp.Unix(), 10)))
	return hex.EncodeToString(sum[:])
}

// Age returns how old the proof is relative to now.
func (p StorageProofRecord) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// DocumentRecord is the verification-facing view of a stored document. It is
// owned by the persistence layer; this core only reads it.
type DocumentRecord struct {
	ID                  string               `json:"id" gorm:"primarykey"`
	ContentID           string               `json:"content_id" gorm:"index"`
	DocumentHash        string               `json:"document_hash"`
	IsEncrypted         bool                 `json:"is_encrypted"`
	ComplianceLevel     ComplianceFramework  `json:"compliance_level"`
	RetentionPeriodDays *int                 `json:"retention_period_days,omitempty"`
	TransactionRef      string               `json:"transaction_ref"`
	CreatedAt           time.Time            `json:"created_at"`
	Signatures          []Signature          `json:"signatures" gorm:"foreignKey:DocumentID"`
	AuditEvents         []AuditEvent         `json:"audit_events" gorm:"foreignKey:DocumentID"`
	StorageProofs       []StorageProofRecord `json:"storage_proofs" gorm:"foreignKey:DocumentID"`
}

// HashBytes returns the hex encoded sha256 digest used as a document hash.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
