package cleanup

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/streeteats/cleanup-cli/internal/match"
	"github.com/streeteats/cleanup-cli/internal/model"
)

// DuplicatePair is a candidate duplicate surfaced for human review. No
// merge is performed; the caller decides.
type DuplicatePair struct {
	PrimaryID     string       `json:"primary_id"`
	PrimaryName   string       `json:"primary_name"`
	CandidateID   string       `json:"candidate_id"`
	CandidateName string       `json:"candidate_name"`
	Result        match.Result `json:"result"`
}

// FindDuplicates scans all records pairwise and returns every pair scoring
// at least a low confidence tier, strongest first by overall score.
func (s *Service) FindDuplicates(ctx context.Context, batchSize int) ([]DuplicatePair, error) {
	records, err := s.fetchAll(ctx, batchSize, 0)
	if err != nil {
		return nil, eris.Wrap(err, "duplicates: fetch records")
	}

	var pairs []DuplicatePair
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(records); j++ {
			res := s.classifier.Compare(&records[i], &records[j])
			if res.Confidence == match.ConfidenceNone {
				continue
			}
			pairs = append(pairs, pairFor(&records[i], &records[j], res))
		}
	}

	sortPairs(pairs)
	return pairs, nil
}

// CheckRecord compares one record against every other record, returning all
// pairs above the none tier, strongest first.
func (s *Service) CheckRecord(ctx context.Context, id string, batchSize int) ([]DuplicatePair, error) {
	target, err := s.store.FetchByID(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "duplicates: fetch %s", id)
	}

	records, err := s.fetchAll(ctx, batchSize, 0)
	if err != nil {
		return nil, eris.Wrap(err, "duplicates: fetch records")
	}

	var pairs []DuplicatePair
	for i := range records {
		if records[i].ID == target.ID {
			continue
		}
		res := s.classifier.Compare(target, &records[i])
		if res.Confidence == match.ConfidenceNone {
			continue
		}
		pairs = append(pairs, pairFor(target, &records[i], res))
	}

	sortPairs(pairs)
	return pairs, nil
}

// CompareRecords scores one specific pair, regardless of confidence tier.
func (s *Service) CompareRecords(ctx context.Context, id, againstID string) (*DuplicatePair, error) {
	a, err := s.store.FetchByID(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "duplicates: fetch %s", id)
	}
	b, err := s.store.FetchByID(ctx, againstID)
	if err != nil {
		return nil, eris.Wrapf(err, "duplicates: fetch %s", againstID)
	}
	pair := pairFor(a, b, s.classifier.Compare(a, b))
	return &pair, nil
}

// StoreStatus summarizes the record store for the admin status endpoint.
type StoreStatus struct {
	TotalRecords int `json:"total_records"`
}

// Status reports basic store health and size.
func (s *Service) Status(ctx context.Context) (*StoreStatus, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "status: count records")
	}
	return &StoreStatus{TotalRecords: n}, nil
}

// Merge exposes the merge engine for the admin merge-duplicates action.
func (s *Service) Merge(ctx context.Context, primaryID, duplicateID string, dryRun bool) (*MergeOutcome, error) {
	return s.merger.Merge(ctx, primaryID, duplicateID, dryRun)
}

func pairFor(a, b *model.FoodTruckRecord, res match.Result) DuplicatePair {
	return DuplicatePair{
		PrimaryID:     a.ID,
		PrimaryName:   a.Name,
		CandidateID:   b.ID,
		CandidateName: b.Name,
		Result:        res,
	}
}

func sortPairs(pairs []DuplicatePair) {
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Result.Overall > pairs[j].Result.Overall
	})
}
