package verification

import "math"

// confidence is the rounded percentage of the six checks that passed.
func confidence(checks CheckResultSet) int {
	return int(math.Round(100 * float64(checks.Passed()) / checkCount))
}

// trustScore blends check results with the signature validity ratio and
// proof, compliance and audit bonuses, minus an anomaly penalty. Distinct
// from confidence; always clamped to [0, 100].
func trustScore(report *suiteReport) int {
	score := float64(report.checks.Passed()) / checkCount * 40

	if report.totalSignatures > 0 {
		score += float64(report.validSignatures) / float64(report.totalSignatures) * 20
	} else {
		score += 10
	}

	if report.pdpValid {
		score += 20
	}

	if report.checks.Compliance {
		score += 10
	}

	if report.checks.AuditTrail && report.auditEventCount > 3 {
		score += 10
	}

	score -= 5 * float64(len(report.anomalies))

	return clamp(int(math.Round(score)))
}

// derivedMetrics breaks the outcome down by concern.
func derivedMetrics(report *suiteReport) DerivedMetrics {
	integrity := 0

	if report.checks.Integrity {
		integrity += 40
	}

	if report.checks.StorageProof {
		integrity += 40
	}

	if report.pdpValid {
		integrity += 20
	}

	crypto := 0

	if report.checks.Signatures {
		crypto += 50
	}

	if report.validSignatures > 0 {
		crypto += 30
	}

	if report.checks.BlockchainRecord {
		crypto += 20
	}

	compliance := 0

	if report.checks.Compliance {
		compliance += 60
	}

	if report.checks.AuditTrail {
		compliance += 40
	}

	return DerivedMetrics{
		DataIntegrityScore: clamp(integrity),
		CryptographicScore: clamp(crypto),
		ComplianceScore:    clamp(compliance),
		RetrievalTimeMs:    report.retrievalMs,
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}

	if score > 100 {
		return 100
	}

	return score
}
