package match

import (
	"strings"

	"github.com/agext/levenshtein"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/streeteats/cleanup-cli/internal/model"
)

// Distance-based location scoring: identical within 100m, decaying linearly
// to zero at 1km.
const (
	sameSpotKM  = 0.1
	maxNearbyKM = 1.0
	metersPerKM = 1000.0
)

// NameSimilarity scores two truck names in [0,1] after normalization.
// Equal names score 1.0, a substring relationship scores 0.8-0.95 by length
// ratio, anything else falls back to edit distance.
func NameSimilarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)

	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		minLen, maxLen := float64(len(na)), float64(len(nb))
		if minLen > maxLen {
			minLen, maxLen = maxLen, minLen
		}
		return 0.8 + 0.15*(minLen/maxLen)
	}

	return editSimilarity(na, nb)
}

// LocationSimilarity averages address string similarity and geographic
// proximity. A factor missing on either side is dropped from the average;
// with neither factor available the score is 0.
func LocationSimilarity(a, b *model.Location) float64 {
	if a == nil || b == nil {
		return 0.0
	}

	var total float64
	var factors int

	if a.Address != "" && b.Address != "" {
		total += editSimilarity(
			strings.ToLower(strings.TrimSpace(a.Address)),
			strings.ToLower(strings.TrimSpace(b.Address)),
		)
		factors++
	}

	if hasCoords(a) && hasCoords(b) {
		km := geo.DistanceHaversine(
			orb.Point{a.Lng, a.Lat},
			orb.Point{b.Lng, b.Lat},
		) / metersPerKM
		total += distanceScore(km)
		factors++
	}

	if factors == 0 {
		return 0.0
	}
	return total / float64(factors)
}

// ContactSimilarity scores the fraction of matching contact fields. Only
// fields present on both sides count toward the denominator; phone compares
// digits-only, website ignores scheme and trailing slash, email is
// case-insensitive. No comparable fields scores 0.
func ContactSimilarity(a, b *model.ContactInfo) float64 {
	if a == nil || b == nil {
		return 0.0
	}

	var matched, comparable int

	if a.Phone != "" && b.Phone != "" {
		comparable++
		if NormalizePhone(a.Phone) == NormalizePhone(b.Phone) {
			matched++
		}
	}
	if a.Website != "" && b.Website != "" {
		comparable++
		if NormalizeWebsite(a.Website) == NormalizeWebsite(b.Website) {
			matched++
		}
	}
	if a.Email != "" && b.Email != "" {
		comparable++
		if NormalizeEmail(a.Email) == NormalizeEmail(b.Email) {
			matched++
		}
	}

	if comparable == 0 {
		return 0.0
	}
	return float64(matched) / float64(comparable)
}

// MenuSimilarity computes Jaccard overlap of lowercased category names.
// Either menu being empty scores 0.
func MenuSimilarity(a, b []model.MenuCategory) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := categorySet(a)
	setB := categorySet(b)

	var inter int
	for cat := range setA {
		if setB[cat] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// editSimilarity converts Levenshtein distance into a [0,1] similarity.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	d := levenshtein.Distance(a, b, nil)
	return 1.0 - float64(d)/float64(maxLen)
}

func distanceScore(km float64) float64 {
	if km <= sameSpotKM {
		return 1.0
	}
	s := 1.0 - km/maxNearbyKM
	if s < 0 {
		return 0.0
	}
	return s
}

func hasCoords(l *model.Location) bool {
	return l.Lat >= -90 && l.Lat <= 90 &&
		l.Lng >= -180 && l.Lng <= 180 &&
		!(l.Lat == 0 && l.Lng == 0)
}

func categorySet(menu []model.MenuCategory) map[string]bool {
	set := make(map[string]bool, len(menu))
	for _, cat := range menu {
		name := strings.ToLower(strings.TrimSpace(cat.CategoryName))
		if name != "" {
			set[name] = true
		}
	}
	return set
}
