package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/sambitsargam/SafeDocs-sub000/verification"
)

// VerificationResultModel is the persisted row for one verification run.
// The full result is kept as a JSON payload next to the queryable columns.
type VerificationResultModel struct {
	ID             uint   `gorm:"primarykey"`
	VerificationID string `gorm:"index"`
	DocumentID     string `gorm:"index"`
	IsValid        bool
	Confidence     int
	Level          string
	TrustScore     int
	Payload        string
	CreatedAt      time.Time
}

func newResultModel(result *verification.VerificationResult) (*VerificationResultModel, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal verification result")
	}

	return &VerificationResultModel{
		VerificationID: result.VerificationID,
		DocumentID:     result.DocumentID,
		IsValid:        result.IsValid,
		Confidence:     result.Confidence,
		Level:          string(result.Level),
		TrustScore:     result.TrustScore,
		Payload:        string(payload),
	}, nil
}
