package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/streeteats/cleanup-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// memStore is an in-memory RecordStore with per-id write failure injection.
type memStore struct {
	records map[string]*model.FoodTruckRecord

	failUpdate map[string]bool
	failDelete map[string]bool

	updates int
	deletes int
}

func newMemStore(records ...*model.FoodTruckRecord) *memStore {
	s := &memStore{
		records:    make(map[string]*model.FoodTruckRecord),
		failUpdate: make(map[string]bool),
		failDelete: make(map[string]bool),
	}
	for _, r := range records {
		cp := *r
		s.records[r.ID] = &cp
	}
	return s
}

func (s *memStore) ids() []string {
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) FetchPage(_ context.Context, limit, offset int) ([]model.FoodTruckRecord, error) {
	ids := s.ids()
	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	var page []model.FoodTruckRecord
	for _, id := range ids[offset:end] {
		page = append(page, *s.records[id])
	}
	return page, nil
}

func (s *memStore) FetchByID(_ context.Context, id string) (*model.FoodTruckRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) UpdateByID(_ context.Context, id string, fields map[string]any) (*model.FoodTruckRecord, error) {
	if err := validateUpdate(id, fields); err != nil {
		return nil, err
	}
	if s.failUpdate[id] {
		return nil, &StoreError{Op: "update", Err: fmt.Errorf("injected failure for %s", id)}
	}
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.updates++
	applyMergedFields(r, cloneFields(fields))
	if v, ok := fields["data_quality_score"]; ok {
		r.DataQualityScore = v.(float64)
	}
	if v, ok := fields["verification_status"]; ok {
		r.VerificationStatus = model.VerificationStatus(v.(string))
	}
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}

func (s *memStore) DeleteByID(_ context.Context, id string) error {
	if s.failDelete[id] {
		return &StoreError{Op: "delete", Err: fmt.Errorf("injected failure for %s", id)}
	}
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	s.deletes++
	delete(s.records, id)
	return nil
}

func (s *memStore) Insert(_ context.Context, r *model.FoodTruckRecord) error {
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *memStore) Count(_ context.Context) (int, error) {
	return len(s.records), nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

// snapshot returns a deep copy of the store contents for before/after
// comparison in dry-run tests.
func (s *memStore) snapshot() map[string]string {
	out := make(map[string]string, len(s.records))
	for id, r := range s.records {
		data, _ := json.Marshal(r)
		out[id] = string(data)
	}
	return out
}

// cloneFields keeps applyMergedFields' type assertions happy for the subset
// of fields the mem store does not handle specially.
func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case "data_quality_score", "verification_status":
			continue
		}
		out[k] = v
	}
	return out
}

func truck(id, name string) *model.FoodTruckRecord {
	return &model.FoodTruckRecord{
		ID:                 id,
		Name:               name,
		VerificationStatus: model.VerificationPending,
		UpdatedAt:          time.Now().UTC(),
	}
}
