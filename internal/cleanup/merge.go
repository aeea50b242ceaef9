package cleanup

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/streeteats/cleanup-cli/internal/model"
)

// Merger folds a duplicate record into its primary. The update of the
// primary always lands before the delete of the duplicate, so an
// interrupted merge leaves both records intact rather than losing data.
type Merger struct {
	store RecordStore
}

// NewMerger creates a Merger over the given store.
func NewMerger(store RecordStore) *Merger {
	return &Merger{store: store}
}

// MergeOutcome describes what a merge did (or would do, under dry-run).
type MergeOutcome struct {
	PrimaryID   string                 `json:"primary_id"`
	DuplicateID string                 `json:"duplicate_id"`
	Fields      map[string]any         `json:"fields"`
	Merged      *model.FoodTruckRecord `json:"merged,omitempty"`
	DryRun      bool                   `json:"dry_run"`
}

// Merge combines duplicate into primary: primary's non-empty values win,
// the duplicate's values fill gaps, and source URLs are unioned. The
// duplicate row is deleted afterwards. Under dryRun the merged payload is
// computed but nothing is written.
func (m *Merger) Merge(ctx context.Context, primaryID, duplicateID string, dryRun bool) (*MergeOutcome, error) {
	if primaryID == "" || duplicateID == "" {
		return nil, NewValidationError("merge: both record ids are required")
	}
	if primaryID == duplicateID {
		return nil, NewValidationError("merge: primary and duplicate are the same record %s", primaryID)
	}

	primary, err := m.store.FetchByID(ctx, primaryID)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: fetch primary %s", primaryID)
	}
	duplicate, err := m.store.FetchByID(ctx, duplicateID)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: fetch duplicate %s", duplicateID)
	}

	fields := mergedFields(primary, duplicate)

	outcome := &MergeOutcome{
		PrimaryID:   primaryID,
		DuplicateID: duplicateID,
		Fields:      fields,
		DryRun:      dryRun,
	}

	if dryRun {
		merged := *primary
		applyMergedFields(&merged, fields)
		outcome.Merged = &merged
		return outcome, nil
	}

	updated, err := m.store.UpdateByID(ctx, primaryID, fields)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: update primary %s", primaryID)
	}
	outcome.Merged = updated

	if err := m.store.DeleteByID(ctx, duplicateID); err != nil {
		// The primary already carries the union; the leftover duplicate is
		// re-detectable on the next run.
		return nil, eris.Wrapf(err, "merge: delete duplicate %s", duplicateID)
	}

	zap.L().Info("merged duplicate record",
		zap.String("primary", primaryID),
		zap.String("duplicate", duplicateID),
		zap.Int("fields", len(fields)),
	)
	return outcome, nil
}

// mergedFields builds the partial update for the primary record. Primary's
// present values take precedence; the duplicate's fill gaps.
func mergedFields(primary, duplicate *model.FoodTruckRecord) map[string]any {
	now := time.Now().UTC()
	fields := map[string]any{
		"source_urls":     unionURLs(primary.SourceURLs, duplicate.SourceURLs),
		"last_scraped_at": now,
	}

	if primary.Name == "" && duplicate.Name != "" {
		fields["name"] = duplicate.Name
	}
	if primary.Description == "" && duplicate.Description != "" {
		fields["description"] = duplicate.Description
	}
	if primary.CurrentLocation == nil && duplicate.CurrentLocation != nil {
		fields["current_location"] = duplicate.CurrentLocation
	}
	if contact := mergeContact(primary.ContactInfo, duplicate.ContactInfo); contact != nil {
		fields["contact_info"] = contact
	}
	if social := mergeSocial(primary.SocialMedia, duplicate.SocialMedia); social != nil {
		fields["social_media"] = social
	}
	if len(primary.Menu) == 0 && len(duplicate.Menu) > 0 {
		fields["menu"] = duplicate.Menu
	}
	if len(primary.CuisineType) == 0 && len(duplicate.CuisineType) > 0 {
		fields["cuisine_type"] = duplicate.CuisineType
	}
	if primary.PriceRange == "" && duplicate.PriceRange != "" {
		fields["price_range"] = string(duplicate.PriceRange)
	}
	if len(primary.Schedule) == 0 && len(duplicate.Schedule) > 0 {
		fields["schedule"] = duplicate.Schedule
	}
	if primary.AverageRating == nil && duplicate.AverageRating != nil {
		fields["average_rating"] = *duplicate.AverageRating
	}
	if primary.ReviewCount == nil && duplicate.ReviewCount != nil {
		fields["review_count"] = *duplicate.ReviewCount
	}

	return fields
}

// mergeContact fills gaps in a from b, field by field. Returns nil when
// there is nothing to change on the primary.
func mergeContact(a, b *model.ContactInfo) *model.ContactInfo {
	if b == nil {
		return nil
	}
	if a == nil {
		return b
	}
	merged := *a
	changed := false
	if merged.Phone == "" && b.Phone != "" {
		merged.Phone = b.Phone
		changed = true
	}
	if merged.Email == "" && b.Email != "" {
		merged.Email = b.Email
		changed = true
	}
	if merged.Website == "" && b.Website != "" {
		merged.Website = b.Website
		changed = true
	}
	if !changed {
		return nil
	}
	return &merged
}

func mergeSocial(a, b *model.SocialMedia) *model.SocialMedia {
	if b == nil {
		return nil
	}
	if a == nil {
		return b
	}
	merged := *a
	changed := false
	if merged.Instagram == "" && b.Instagram != "" {
		merged.Instagram = b.Instagram
		changed = true
	}
	if merged.Facebook == "" && b.Facebook != "" {
		merged.Facebook = b.Facebook
		changed = true
	}
	if merged.Twitter == "" && b.Twitter != "" {
		merged.Twitter = b.Twitter
		changed = true
	}
	if !changed {
		return nil
	}
	return &merged
}

// unionURLs returns the deduplicated union of both URL sets, primary first.
func unionURLs(primary, duplicate []string) []string {
	seen := make(map[string]bool, len(primary)+len(duplicate))
	union := make([]string, 0, len(primary)+len(duplicate))
	for _, urls := range [][]string{primary, duplicate} {
		for _, u := range urls {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			union = append(union, u)
		}
	}
	return union
}

// applyMergedFields mirrors the store update onto an in-memory record for
// dry-run reporting.
func applyMergedFields(r *model.FoodTruckRecord, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "name":
			r.Name = v.(string)
		case "description":
			r.Description = v.(string)
		case "current_location":
			r.CurrentLocation = v.(*model.Location)
		case "contact_info":
			r.ContactInfo = v.(*model.ContactInfo)
		case "social_media":
			r.SocialMedia = v.(*model.SocialMedia)
		case "menu":
			r.Menu = v.([]model.MenuCategory)
		case "cuisine_type":
			r.CuisineType = v.([]string)
		case "price_range":
			r.PriceRange = model.PriceRange(v.(string))
		case "schedule":
			r.Schedule = v.([]model.ScheduleEntry)
		case "average_rating":
			f := v.(float64)
			r.AverageRating = &f
		case "review_count":
			n := v.(int)
			r.ReviewCount = &n
		case "source_urls":
			r.SourceURLs = v.([]string)
		case "last_scraped_at":
			t := v.(time.Time)
			r.LastScrapedAt = &t
		}
	}
}
