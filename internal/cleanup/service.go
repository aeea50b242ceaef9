package cleanup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/streeteats/cleanup-cli/internal/match"
	"github.com/streeteats/cleanup-cli/internal/model"
	"github.com/streeteats/cleanup-cli/internal/quality"
)

// Quality scores are rewritten only when they move by more than this
// relative fraction, to avoid churning rows on rounding noise.
const scoreChurnThreshold = 0.05

// Service orchestrates batch cleanup runs over a record store. Records and
// operations are processed strictly sequentially; at most one write is in
// flight per run.
type Service struct {
	store        RecordStore
	classifier   *match.Classifier
	merger       *Merger
	limiter      *rate.Limiter
	cityCenter   model.Location
	placeholders []string
}

// ServiceConfig tunes a Service.
type ServiceConfig struct {
	// Classifier used by the merge operation. Defaults apply when nil.
	Classifier *match.Classifier
	// CityCenter substitutes for invalid coordinates (fix_coordinates).
	CityCenter model.Location
	// WriteRatePerSec throttles store writes; 0 disables throttling.
	WriteRatePerSec float64
	// PlaceholderPatterns overrides DefaultPlaceholderPatterns when set.
	PlaceholderPatterns []string
}

// NewService builds a cleanup Service over the given store.
func NewService(store RecordStore, cfg ServiceConfig) *Service {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = match.NewClassifier(match.DefaultWeights(), match.DefaultMergeThreshold)
	}
	var limiter *rate.Limiter
	if cfg.WriteRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WriteRatePerSec), 1)
	}
	return &Service{
		store:        store,
		classifier:   classifier,
		merger:       NewMerger(store),
		limiter:      limiter,
		cityCenter:   cfg.CityCenter,
		placeholders: cfg.PlaceholderPatterns,
	}
}

// Options configures a single cleanup run.
type Options struct {
	BatchSize  int                   `json:"batch_size,omitempty"`
	DryRun     bool                  `json:"dry_run,omitempty"`
	Operations []model.OperationType `json:"operations,omitempty"`
	MaxRecords int                   `json:"max_records,omitempty"` // 0 = no cap
}

// runState carries accumulation across operations within one run.
type runState struct {
	dryRun   bool
	improved map[string]bool // record ids touched by any successful op
	result   *model.BatchCleanupResult
}

// RunFullCleanup executes the requested operations over all records. Only
// invalid options or an unreachable store abort the run; per-record failures
// are recorded in the operation summaries and processing continues.
func (s *Service) RunFullCleanup(ctx context.Context, opts Options) (*model.BatchCleanupResult, error) {
	start := time.Now()

	ops := opts.Operations
	if len(ops) == 0 {
		ops = model.DefaultOperations()
	}
	for _, op := range ops {
		if !model.ValidOperation(op) {
			return nil, NewValidationError("cleanup: unknown operation %q", op)
		}
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	records, err := s.fetchAll(ctx, batchSize, opts.MaxRecords)
	if err != nil {
		return nil, eris.Wrap(err, "cleanup: fetch records")
	}

	log := zap.L().With(zap.Bool("dry_run", opts.DryRun))
	log.Info("starting cleanup run",
		zap.Int("records", len(records)),
		zap.Int("operations", len(ops)),
	)

	state := &runState{
		dryRun:   opts.DryRun,
		improved: make(map[string]bool),
		result:   &model.BatchCleanupResult{TotalProcessed: len(records), DryRun: opts.DryRun},
	}

	for _, opType := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var op model.CleanupOperation
		switch opType {
		case model.OpRemovePlaceholders:
			op = s.removePlaceholders(ctx, records, state)
		case model.OpNormalizePhone:
			op = s.normalizePhones(ctx, records, state)
		case model.OpFixCoordinates:
			op = s.fixCoordinates(ctx, records, state)
		case model.OpUpdateQualityScores:
			op = s.updateQualityScores(ctx, records, state)
		case model.OpMergeDuplicates:
			op = s.mergeDuplicates(ctx, records, state)
		}
		state.result.Operations = append(state.result.Operations, op)

		log.Info("operation complete",
			zap.String("operation", string(opType)),
			zap.Int("affected", op.AffectedCount),
			zap.Int("succeeded", op.SuccessCount),
			zap.Int("failed", op.ErrorCount),
		)
	}

	state.result.Summary.TrucksImproved = len(state.improved)
	state.result.DurationMS = time.Since(start).Milliseconds()
	return state.result, nil
}

// fetchAll pages through the store, optionally capped at maxRecords.
func (s *Service) fetchAll(ctx context.Context, batchSize, maxRecords int) ([]model.FoodTruckRecord, error) {
	var all []model.FoodTruckRecord
	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.store.FetchPage(ctx, batchSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < batchSize {
			break
		}
		if maxRecords > 0 && len(all) >= maxRecords {
			all = all[:maxRecords]
			break
		}
	}
	if maxRecords > 0 && len(all) > maxRecords {
		all = all[:maxRecords]
	}
	return all, nil
}

// write applies a partial update unless the run is a dry-run.
func (s *Service) write(ctx context.Context, state *runState, id string, fields map[string]any) error {
	if state.dryRun {
		return nil
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return withRetry(ctx, writeRetries, func(ctx context.Context) error {
		_, err := s.store.UpdateByID(ctx, id, fields)
		return err
	})
}

func (s *Service) removePlaceholders(ctx context.Context, records []model.FoodTruckRecord, state *runState) model.CleanupOperation {
	op := model.CleanupOperation{
		Type:        model.OpRemovePlaceholders,
		Description: "Clear placeholder descriptions and flag placeholder names",
	}

	for i := range records {
		r := &records[i]
		fields := map[string]any{}

		if ContainsPlaceholder(r.Description, s.placeholders) {
			fields["description"] = ""
		}
		// A placeholder name makes the whole record suspect; flag it for
		// review rather than blanking the only identity field.
		if ContainsPlaceholder(r.Name, s.placeholders) {
			fields["verification_status"] = string(model.VerificationFlagged)
		}
		if len(fields) == 0 {
			continue
		}

		op.AffectedCount++
		if err := s.write(ctx, state, r.ID, fields); err != nil {
			op.ErrorCount++
			op.Errors = append(op.Errors, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		op.SuccessCount++
		state.improved[r.ID] = true
		state.result.Summary.PlaceholdersRemoved++
	}
	return op
}

func (s *Service) normalizePhones(ctx context.Context, records []model.FoodTruckRecord, state *runState) model.CleanupOperation {
	op := model.CleanupOperation{
		Type:        model.OpNormalizePhone,
		Description: "Normalize phone numbers to (XXX) XXX-XXXX",
	}

	for i := range records {
		r := &records[i]
		phone := r.Phone()
		if phone == "" {
			continue
		}
		formatted := match.FormatUSPhone(phone)
		// Unrecognized formats come back unchanged: a skip, not an error.
		if formatted == phone {
			continue
		}

		op.AffectedCount++
		contact := *r.ContactInfo
		contact.Phone = formatted
		if err := s.write(ctx, state, r.ID, map[string]any{"contact_info": &contact}); err != nil {
			op.ErrorCount++
			op.Errors = append(op.Errors, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		op.SuccessCount++
		state.improved[r.ID] = true
	}
	return op
}

func (s *Service) fixCoordinates(ctx context.Context, records []model.FoodTruckRecord, state *runState) model.CleanupOperation {
	op := model.CleanupOperation{
		Type:        model.OpFixCoordinates,
		Description: "Replace missing or invalid coordinates with the default city center",
	}

	for i := range records {
		r := &records[i]
		if r.HasCoordinates() {
			continue
		}

		loc := model.Location{Lat: s.cityCenter.Lat, Lng: s.cityCenter.Lng}
		if r.CurrentLocation != nil {
			loc.Address = r.CurrentLocation.Address
			loc.Timestamp = r.CurrentLocation.Timestamp
		}

		op.AffectedCount++
		fields := map[string]any{
			"current_location": &loc,
			// Substituted coordinates are a guess; the record needs review.
			"verification_status": string(model.VerificationFlagged),
		}
		if err := s.write(ctx, state, r.ID, fields); err != nil {
			op.ErrorCount++
			op.Errors = append(op.Errors, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		op.SuccessCount++
		state.improved[r.ID] = true
	}
	return op
}

func (s *Service) updateQualityScores(ctx context.Context, records []model.FoodTruckRecord, state *runState) model.CleanupOperation {
	op := model.CleanupOperation{
		Type:        model.OpUpdateQualityScores,
		Description: "Recompute data quality scores",
	}
	now := time.Now().UTC()

	for i := range records {
		r := &records[i]
		assessment := quality.Score(r, now)
		if !scoreChanged(r.DataQualityScore, assessment.Score) {
			continue
		}

		op.AffectedCount++
		if err := s.write(ctx, state, r.ID, map[string]any{"data_quality_score": assessment.Score}); err != nil {
			op.ErrorCount++
			op.Errors = append(op.Errors, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		op.SuccessCount++
		state.improved[r.ID] = true
		state.result.Summary.QualityScoreImprovement += assessment.Score - r.DataQualityScore
	}
	return op
}

func (s *Service) mergeDuplicates(ctx context.Context, records []model.FoodTruckRecord, state *runState) model.CleanupOperation {
	op := model.CleanupOperation{
		Type:        model.OpMergeDuplicates,
		Description: fmt.Sprintf("Merge records scoring >= %.2f overall similarity", s.classifier.Threshold()),
	}

	// Both sides of a merge are marked processed so a deleted duplicate is
	// never revisited later in the same run.
	processed := make(map[string]bool, len(records))

	for i := range records {
		a := &records[i]
		if processed[a.ID] {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			b := &records[j]
			if processed[b.ID] {
				continue
			}

			res := s.classifier.Compare(a, b)
			if !res.IsDuplicate {
				continue
			}

			primary, duplicate := a, b
			if b.DataQualityScore > a.DataQualityScore {
				primary, duplicate = b, a
			}

			op.AffectedCount++
			if _, err := s.merger.Merge(ctx, primary.ID, duplicate.ID, state.dryRun); err != nil {
				op.ErrorCount++
				op.Errors = append(op.Errors, fmt.Sprintf("merge %s <- %s: %v", primary.ID, duplicate.ID, err))
				continue
			}
			op.SuccessCount++
			processed[a.ID] = true
			processed[b.ID] = true
			state.improved[primary.ID] = true
			state.result.Summary.DuplicatesRemoved++
			break
		}
	}
	return op
}

// scoreChanged reports whether the recomputed score differs from the stored
// one by more than 5% relative.
func scoreChanged(stored, computed float64) bool {
	if stored == 0 {
		return computed != 0
	}
	return math.Abs(computed-stored)/stored > scoreChurnThreshold
}
