package verification

import (
	"fmt"
	"time"

	"github.com/sambitsargam/SafeDocs-sub000/document"
)

// checkCompliance applies the rule table for the document's declared
// framework. Violations become anomalies; soft issues become warnings or
// recommendations.
func (s *Suite) checkCompliance(
	doc *document.DocumentRecord,
	level document.VerificationLevel,
	report *suiteReport,
) {
	violations := 0

	switch doc.ComplianceLevel {
	case document.ComplianceHIPAA:
		if !doc.IsEncrypted {
			report.anomalies = append(report.anomalies, "HIPAA compliance requires document encryption")
			violations++
		}

		if len(doc.AuditEvents) < 2 {
			report.anomalies = append(report.anomalies, "HIPAA compliance requires an audit trail of at least 2 events")
			violations++
		}
	case document.ComplianceSOX:
		if len(doc.Signatures) == 0 {
			report.anomalies = append(report.anomalies, "SOX compliance requires at least one signature")
			violations++
		}

		if !hasManagementSigner(doc.Signatures) {
			report.recommendations = append(report.recommendations,
				"SOX documents should carry a management-role signature")
		}
	case document.ComplianceGDPR:
		if !doc.IsEncrypted {
			report.anomalies = append(report.anomalies, "GDPR compliance requires document encryption")
			violations++
		}

		if doc.RetentionPeriodDays != nil {
			retention := time.Duration(*doc.RetentionPeriodDays) * 24 * time.Hour

			if s.now().Sub(doc.CreatedAt) > retention {
				report.anomalies = append(report.anomalies,
					fmt.Sprintf("document retained beyond the declared GDPR retention period of %d days",
						*doc.RetentionPeriodDays))
				violations++
			}
		}
	case document.ComplianceHighSecurity:
		if !doc.IsEncrypted {
			report.anomalies = append(report.anomalies, "high security documents must be encrypted")
			violations++
		}

		if level != document.LevelMaximum {
			report.recommendations = append(report.recommendations,
				"use MAXIMUM verification level for high security documents")
		}
	case document.ComplianceStandard:
	default:
	}

	report.checks.Compliance = violations == 0
}

func hasManagementSigner(signatures []document.Signature) bool {
	for _, sig := range signatures {
		if sig.SignerRole == "management" {
			return true
		}
	}

	return false
}
