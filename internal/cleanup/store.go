// Package cleanup implements the batch data-cleanup subsystem: record
// store access, duplicate merging, and the orchestrated cleanup run.
package cleanup

import (
	"context"

	"github.com/streeteats/cleanup-cli/internal/model"
)

// Updatable columns accepted by UpdateByID. Anything else is a caller bug
// and rejected with a ValidationError at the store boundary.
var updatableFields = map[string]bool{
	"name":                true,
	"description":         true,
	"current_location":    true,
	"contact_info":        true,
	"social_media":        true,
	"menu":                true,
	"cuisine_type":        true,
	"price_range":         true,
	"schedule":            true,
	"average_rating":      true,
	"review_count":        true,
	"source_urls":         true,
	"data_quality_score":  true,
	"verification_status": true,
	"last_scraped_at":     true,
}

// RecordStore is the persistence interface for food truck records. Both
// implementations guarantee per-row update and delete semantics; the
// cleanup job issues writes strictly sequentially.
type RecordStore interface {
	FetchPage(ctx context.Context, limit, offset int) ([]model.FoodTruckRecord, error)
	FetchByID(ctx context.Context, id string) (*model.FoodTruckRecord, error)
	UpdateByID(ctx context.Context, id string, fields map[string]any) (*model.FoodTruckRecord, error)
	DeleteByID(ctx context.Context, id string) error
	Insert(ctx context.Context, r *model.FoodTruckRecord) error
	Count(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// validateUpdate enforces the shared boundary rules for UpdateByID.
func validateUpdate(id string, fields map[string]any) error {
	if id == "" {
		return NewValidationError("update: empty record id")
	}
	if len(fields) == 0 {
		return NewValidationError("update: empty field set for %s", id)
	}
	for k := range fields {
		if !updatableFields[k] {
			return NewValidationError("update: unknown field %q", k)
		}
	}
	return nil
}
