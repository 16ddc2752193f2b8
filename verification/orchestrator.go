package verification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	log2 "github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/sambitsargam/SafeDocs-sub000/document"
	"github.com/sambitsargam/SafeDocs-sub000/metrics"
)

const (
	batchChunkSize      = 5
	batchMaxConcurrency = 5

	lowConfidenceFloor = 80
	invalidRateCeiling = 0.1
)

// Orchestrator runs the check suite and score aggregation for one document
// or a bounded-concurrency batch.
type Orchestrator struct {
	documents DocumentReader
	suite     *Suite
	results   ResultWriter
	audits    AuditWriter
	metrics   *metrics.Verification
	log       zerolog.Logger
	now       func() time.Time
}

type OrchestratorConfig struct {
	Documents DocumentReader
	Suite     *Suite
	Results   ResultWriter
	Audits    AuditWriter
	Metrics   *metrics.Verification
}

func NewOrchestrator(config OrchestratorConfig) (*Orchestrator, error) {
	if config.Documents == nil {
		return nil, errors.New("document reader is required")
	}

	if config.Suite == nil {
		return nil, errors.New("check suite is required")
	}

	return &Orchestrator{
		documents: config.Documents,
		suite:     config.Suite,
		results:   config.Results,
		audits:    config.Audits,
		metrics:   config.Metrics,
		log:       log2.With().Str("role", "verification_orchestrator").Caller().Logger(),
		now:       time.Now,
	}, nil
}

// VerifyDocument runs all six checks for the document and aggregates them
// into a VerificationResult. Persisting the result and the audit event is
// best-effort; their failure does not invalidate the in-memory result.
func (o *Orchestrator) VerifyDocument(
	ctx context.Context,
	documentID string,
	level document.VerificationLevel,
) (*VerificationResult, error) {
	if level == "" {
		level = document.LevelStandard
	}

	doc, err := o.documents.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, err
		}

		return nil, errors.Wrapf(err, "failed to load document %s", documentID)
	}

	o.log.Info().Str("documentId", documentID).Str("level", string(level)).Msg("starting document verification")

	report := o.suite.Run(ctx, doc, level)

	conf := confidence(report.checks)
	result := &VerificationResult{
		VerificationID:  uuid.New().String(),
		DocumentID:      documentID,
		IsValid:         conf >= level.Threshold() && len(report.anomalies) == 0,
		Confidence:      conf,
		Level:           level,
		Checks:          report.checks,
		Anomalies:       report.anomalies,
		Warnings:        report.warnings,
		Recommendations: report.recommendations,
		TrustScore:      trustScore(report),
		Metrics:         derivedMetrics(report),
		SignatureCount:  report.totalSignatures,
		Timestamp:       o.now(),
	}

	o.metrics.IncVerification(string(level), result.IsValid)
	o.persistOutcome(ctx, documentID, result)

	o.log.Info().Str("documentId", documentID).Int("confidence", conf).
		Bool("isValid", result.IsValid).Int("trustScore", result.TrustScore).
		Msg("document verification finished")

	return result, nil
}

func (o *Orchestrator) persistOutcome(ctx context.Context, documentID string, result *VerificationResult) {
	if o.audits != nil {
		event := document.AuditEvent{
			DocumentID: documentID,
			Action:     document.ActionDocumentVerified,
			Actor:      "verification-orchestrator",
			Timestamp:  o.now(),
			Details:    fmt.Sprintf("confidence=%d valid=%t", result.Confidence, result.IsValid),
		}

		if err := o.audits.AppendEvent(ctx, documentID, event); err != nil {
			o.log.Warn().Err(err).Str("documentId", documentID).Msg("failed to append verification audit event")
		}
	}

	if o.results != nil {
		if err := o.results.SaveResult(ctx, result); err != nil {
			o.log.Warn().Err(err).Str("documentId", documentID).Msg("failed to persist verification result")
		}
	}
}

// BatchVerify processes the ids in fixed-size chunks, each chunk run with
// bounded concurrency as backpressure against the origin store and the
// external crypto and chain primitives. A failure verifying one id is
// logged and the id is omitted from the results.
func (o *Orchestrator) BatchVerify(
	ctx context.Context,
	documentIDs []string,
	level document.VerificationLevel,
) (*BatchResult, error) {
	start := o.now()
	results := make([]VerificationResult, 0, len(documentIDs))

	var mu sync.Mutex

	for chunkStart := 0; chunkStart < len(documentIDs); chunkStart += batchChunkSize {
		chunkEnd := chunkStart + batchChunkSize
		if chunkEnd > len(documentIDs) {
			chunkEnd = len(documentIDs)
		}

		chunk := documentIDs[chunkStart:chunkEnd]
		sem := semaphore.NewWeighted(batchMaxConcurrency)

		var wg sync.WaitGroup

		for _, id := range chunk {
			id := id

			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, errors.Wrap(err, "batch verification cancelled")
			}

			wg.Add(1)

			go func() {
				defer wg.Done()
				defer sem.Release(1)

				result, err := o.VerifyDocument(ctx, id, level)
				if err != nil {
					o.log.Error().Err(err).Str("documentId", id).Msg("batch item verification failed")
					return
				}

				mu.Lock()
				results = append(results, *result)
				mu.Unlock()
			}()
		}

		wg.Wait()
	}

	elapsed := o.now().Sub(start)
	o.metrics.ObserveBatch(elapsed)

	batch := &BatchResult{
		Results: results,
		Summary: summarize(results, elapsed),
	}

	batch.CommonIssues = commonIssues(results)
	batch.RiskFactors = riskFactors(batch.Summary)
	batch.Recommendations = batchRecommendations(results)

	return batch, nil
}

func summarize(results []VerificationResult, elapsed time.Duration) BatchSummary {
	summary := BatchSummary{
		Total:     len(results),
		ElapsedMs: elapsed.Milliseconds(),
	}

	confidenceSum := 0

	for _, result := range results {
		confidenceSum += result.Confidence

		if result.IsValid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}

	if len(results) > 0 {
		summary.AverageConfidence = float64(confidenceSum) / float64(len(results))
	}

	return summary
}

// commonIssues reports anomalies seen in at least two results, most frequent
// first. Count ties are broken alphabetically to keep the output stable.
func commonIssues(results []VerificationResult) []string {
	counts := make(map[string]int)

	for _, result := range results {
		seen := make(map[string]struct{})

		for _, anomaly := range result.Anomalies {
			if _, ok := seen[anomaly]; ok {
				continue
			}

			seen[anomaly] = struct{}{}
			counts[anomaly]++
		}
	}

	anomalies := make([]string, 0, len(counts))

	for anomaly, count := range counts {
		if count >= 2 {
			anomalies = append(anomalies, anomaly)
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if counts[anomalies[i]] != counts[anomalies[j]] {
			return counts[anomalies[i]] > counts[anomalies[j]]
		}

		return anomalies[i] < anomalies[j]
	})

	issues := make([]string, 0, len(anomalies))
	for _, anomaly := range anomalies {
		issues = append(issues, fmt.Sprintf("%s (%d documents)", anomaly, counts[anomaly]))
	}

	return issues
}

func riskFactors(summary BatchSummary) []string {
	factors := make([]string, 0)

	if summary.Total > 0 && summary.AverageConfidence < lowConfidenceFloor {
		factors = append(factors, "low average confidence")
	}

	if summary.Total > 0 && float64(summary.Invalid)/float64(summary.Total) > invalidRateCeiling {
		factors = append(factors, "high invalid rate")
	}

	return factors
}

func batchRecommendations(results []VerificationResult) []string {
	recommendations := make([]string, 0)

	basic := 0
	unsigned := 0

	for _, result := range results {
		if result.Level == document.LevelBasic {
			basic++
		}

		if result.SignatureCount == 0 {
			unsigned++
		}
	}

	if len(results) > 0 && basic*2 > len(results) {
		recommendations = append(recommendations,
			"more than half of the batch was verified at BASIC level; consider a higher level")
	}

	if unsigned > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("%d documents have no signatures", unsigned))
	}

	return recommendations
}
