package verification

import (
	"fmt"
	"time"

	"github.com/sambitsargam/SafeDocs-sub000/document"
)

const (
	repetitionThreshold = 100
	auditGapLimit       = 7 * 24 * time.Hour
)

// checkAuditTrail requires an upload event and a non-decreasing timeline.
// The ordering scan stops at the first violation. At ENHANCED and above it
// additionally warns about long gaps between consecutive events.
func (s *Suite) checkAuditTrail(
	doc *document.DocumentRecord,
	level document.VerificationLevel,
	report *suiteReport,
) {
	events := doc.AuditEvents
	violations := 0

	if !hasAction(events, document.ActionDocumentUploaded) {
		report.anomalies = append(report.anomalies, "missing DOCUMENT_UPLOADED audit event")
		violations++
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			report.anomalies = append(report.anomalies,
				fmt.Sprintf("audit events out of chronological order at position %d", i))

			violations++

			break
		}
	}

	counts := make(map[string]int)
	for _, event := range events {
		counts[event.Action]++
	}

	for action, count := range counts {
		if count > repetitionThreshold {
			report.warnings = append(report.warnings,
				fmt.Sprintf("suspicious repetition: action %s occurs %d times", action, count))
		}
	}

	if level == document.LevelEnhanced || level == document.LevelMaximum {
		gaps := 0

		for i := 1; i < len(events); i++ {
			if events[i].Timestamp.Sub(events[i-1].Timestamp) > auditGapLimit {
				gaps++
			}
		}

		if gaps > 0 {
			report.warnings = append(report.warnings,
				fmt.Sprintf("%d gaps longer than 7 days in the audit trail", gaps))
		}
	}

	report.checks.AuditTrail = violations == 0
}

func hasAction(events []document.AuditEvent, action string) bool {
	for _, event := range events {
		if event.Action == action {
			return true
		}
	}

	return false
}
