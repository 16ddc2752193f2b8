package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allPassed() CheckResultSet {
	return CheckResultSet{
		Integrity:        true,
		StorageProof:     true,
		Signatures:       true,
		BlockchainRecord: true,
		Compliance:       true,
		AuditTrail:       true,
	}
}

func TestConfidence(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(100, confidence(allPassed()))
	assert.Equal(0, confidence(CheckResultSet{}))

	five := allPassed()
	five.Compliance = false
	assert.Equal(83, confidence(five))

	assert.Equal(17, confidence(CheckResultSet{Integrity: true}))
	assert.Equal(50, confidence(CheckResultSet{Integrity: true, Signatures: true, AuditTrail: true}))
}

func TestTrustScore(t *testing.T) {
	assert := assert.New(t)

	t.Run("perfect run scores 100", func(t *testing.T) {
		report := &suiteReport{
			checks:          allPassed(),
			validSignatures: 2,
			totalSignatures: 2,
			pdpValid:        true,
			auditEventCount: 4,
		}

		assert.Equal(100, trustScore(report))
	})

	t.Run("no signatures earns the neutral bonus", func(t *testing.T) {
		report := &suiteReport{
			checks:          allPassed(),
			pdpValid:        true,
			auditEventCount: 4,
		}

		// 40 + 10 + 20 + 10 + 10
		assert.Equal(90, trustScore(report))
	})

	t.Run("audit bonus needs more than three events", func(t *testing.T) {
		report := &suiteReport{
			checks:          allPassed(),
			pdpValid:        true,
			auditEventCount: 3,
		}

		assert.Equal(80, trustScore(report))
	})

	t.Run("anomaly penalty clamps at zero", func(t *testing.T) {
		report := &suiteReport{
			checks:    CheckResultSet{},
			anomalies: make([]string, 30),
		}

		assert.Equal(0, trustScore(report))
	})

	t.Run("half valid signatures scale the signature weight", func(t *testing.T) {
		report := &suiteReport{
			checks:          allPassed(),
			validSignatures: 1,
			totalSignatures: 2,
			pdpValid:        true,
			auditEventCount: 4,
		}

		// 40 + 10 + 20 + 10 + 10
		assert.Equal(90, trustScore(report))
	})
}

func TestDerivedMetrics(t *testing.T) {
	assert := assert.New(t)

	t.Run("everything passing clamps to 100", func(t *testing.T) {
		report := &suiteReport{
			checks:          allPassed(),
			validSignatures: 1,
			pdpValid:        true,
			retrievalMs:     42,
		}

		derived := derivedMetrics(report)
		assert.Equal(100, derived.DataIntegrityScore)
		assert.Equal(100, derived.CryptographicScore)
		assert.Equal(100, derived.ComplianceScore)
		assert.Equal(int64(42), derived.RetrievalTimeMs)
	})

	t.Run("partial outcomes", func(t *testing.T) {
		report := &suiteReport{
			checks: CheckResultSet{Integrity: true, Signatures: true, Compliance: true},
		}

		derived := derivedMetrics(report)
		assert.Equal(40, derived.DataIntegrityScore)
		assert.Equal(50, derived.CryptographicScore)
		assert.Equal(60, derived.ComplianceScore)
	})

	t.Run("nothing passing is zero", func(t *testing.T) {
		derived := derivedMetrics(&suiteReport{})
		assert.Zero(derived.DataIntegrityScore)
		assert.Zero(derived.CryptographicScore)
		assert.Zero(derived.ComplianceScore)
	})
}

func TestClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, clamp(-5))
	assert.Equal(0, clamp(0))
	assert.Equal(55, clamp(55))
	assert.Equal(100, clamp(100))
	assert.Equal(100, clamp(120))
}
