// Package quality computes per-record completeness and freshness scores.
package quality

import (
	"math"
	"strings"
	"time"

	"github.com/streeteats/cleanup-cli/internal/model"
)

// staleAfter is how old a location observation can be before it is penalized.
const staleAfter = 7 * 24 * time.Hour

// Deductions per missing or invalid field. Ordering of the checks is fixed
// (basic, contact, location, schedule) so issue lists are reproducible.
const (
	penaltyName        = 0.20
	penaltyDescription = 0.10
	penaltyCuisine     = 0.10
	penaltyPriceRange  = 0.05
	penaltyRating      = 0.05
	penaltyReviews     = 0.05
	penaltyWebsite     = 0.05
	penaltyPhone       = 0.05
	penaltyEmail       = 0.05
	penaltySocial      = 0.02
	penaltyLocation    = 0.15
	penaltyStale       = 0.10
	penaltyNoTimestamp = 0.05
	penaltySchedule    = 0.10
)

// Assessment is the result of scoring one record.
type Assessment struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// Category buckets a quality score for dashboards.
type Category string

const (
	CategoryHigh   Category = "High"
	CategoryMedium Category = "Medium"
	CategoryLow    Category = "Low"
)

// Score computes a [0,1] quality score for a record, deducting for missing
// or invalid fields. The same record always produces the same score and the
// same issue list. now anchors the location staleness check.
func Score(r *model.FoodTruckRecord, now time.Time) Assessment {
	score := 1.0
	var issues []string

	deduct := func(penalty float64, issue string) {
		score -= penalty
		issues = append(issues, issue)
	}

	// Basic info.
	if strings.TrimSpace(r.Name) == "" {
		deduct(penaltyName, "missing name")
	}
	if strings.TrimSpace(r.Description) == "" {
		deduct(penaltyDescription, "missing description")
	}
	if !validCuisine(r.CuisineType) {
		deduct(penaltyCuisine, "missing or invalid cuisine type")
	}
	if r.PriceRange == "" {
		deduct(penaltyPriceRange, "missing price range")
	}
	if r.AverageRating == nil || math.IsNaN(*r.AverageRating) {
		deduct(penaltyRating, "missing average rating")
	}
	if r.ReviewCount == nil {
		deduct(penaltyReviews, "missing review count")
	}

	// Contact info.
	contact := r.ContactInfo
	if contact == nil || contact.Website == "" {
		deduct(penaltyWebsite, "missing website")
	}
	if contact == nil || contact.Phone == "" {
		deduct(penaltyPhone, "missing phone number")
	}
	if contact == nil || contact.Email == "" {
		deduct(penaltyEmail, "missing email")
	}
	social := r.SocialMedia
	if social == nil || social.Instagram == "" {
		deduct(penaltySocial, "missing instagram handle")
	}
	if social == nil || social.Facebook == "" {
		deduct(penaltySocial, "missing facebook handle")
	}
	if social == nil || social.Twitter == "" {
		deduct(penaltySocial, "missing twitter handle")
	}

	// Location.
	switch {
	case !r.HasCoordinates():
		deduct(penaltyLocation, "missing or invalid coordinates")
	case r.CurrentLocation.Timestamp == nil:
		deduct(penaltyNoTimestamp, "location has no observation timestamp")
	case now.Sub(*r.CurrentLocation.Timestamp) > staleAfter:
		deduct(penaltyStale, "stale location (older than 7 days)")
	}

	// Schedule.
	if len(r.Schedule) == 0 {
		deduct(penaltySchedule, "missing schedule")
	}

	if score < 0 {
		score = 0
	}
	return Assessment{Score: score, Issues: issues}
}

// Categorize maps a score into High (>=0.8), Medium (>=0.5), or Low.
func Categorize(score float64) Category {
	switch {
	case score >= 0.8:
		return CategoryHigh
	case score >= 0.5:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

func validCuisine(cuisine []string) bool {
	if len(cuisine) == 0 {
		return false
	}
	for _, c := range cuisine {
		if strings.TrimSpace(c) == "" {
			return false
		}
	}
	return true
}
