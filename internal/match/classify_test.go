package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streeteats/cleanup-cli/internal/model"
)

func record(name string, loc *model.Location) *model.FoodTruckRecord {
	return &model.FoodTruckRecord{ID: "t-" + name, Name: name, CurrentLocation: loc}
}

func TestCompareSameTruckDifferentSuffix(t *testing.T) {
	c := NewClassifier(DefaultWeights(), DefaultMergeThreshold)
	loc := &model.Location{Lat: 32.7765, Lng: -79.9311}

	res := c.Compare(
		record("Taco Town", loc),
		record("Taco Town Food Truck", &model.Location{Lat: 32.7765, Lng: -79.9311}),
	)

	assert.GreaterOrEqual(t, res.Overall, 0.8)
	assert.True(t, res.IsDuplicate)
	assert.Contains(t, res.MatchedFields, "name")
	assert.Contains(t, res.MatchedFields, "location")
}

func TestCompareUnrelatedTrucks(t *testing.T) {
	c := NewClassifier(DefaultWeights(), DefaultMergeThreshold)

	res := c.Compare(
		record("Burger Bus", &model.Location{Lat: 32.7765, Lng: -79.9311}),
		record("Pizza Wagon", &model.Location{Lat: 34.0007, Lng: -81.0348}),
	)

	assert.False(t, res.IsDuplicate)
	assert.Equal(t, ConfidenceNone, res.Confidence)
	assert.Empty(t, res.MatchedFields)
}

func TestCompareDropsAbsentFactors(t *testing.T) {
	c := NewClassifier(DefaultWeights(), DefaultMergeThreshold)

	// Identical name only; no location, contact, or menu on either side.
	res := c.Compare(record("Taco Town", nil), record("Taco Town", nil))
	assert.Equal(t, 1.0, res.Overall)

	// A conflicting present factor still drags the score down.
	res = c.Compare(
		record("Taco Town", &model.Location{Lat: 32.7765, Lng: -79.9311}),
		record("Taco Town", &model.Location{Lat: 34.0007, Lng: -81.0348}),
	)
	assert.InDelta(t, 0.4/0.7, res.Overall, 1e-9)
}

func TestCompareContactExactMatchRequired(t *testing.T) {
	c := NewClassifier(DefaultWeights(), DefaultMergeThreshold)

	a := record("Taco Town", nil)
	a.ContactInfo = &model.ContactInfo{Phone: "5551234567", Email: "a@x.com"}
	b := record("Taco Town", nil)
	b.ContactInfo = &model.ContactInfo{Phone: "5551234567", Email: "b@x.com"}

	// 0.5 contact similarity must not report contact as a matched field.
	res := c.Compare(a, b)
	assert.NotContains(t, res.MatchedFields, "contact")

	b.ContactInfo.Email = "a@x.com"
	res = c.Compare(a, b)
	assert.Contains(t, res.MatchedFields, "contact")
}

func TestConfidenceTiers(t *testing.T) {
	tests := []struct {
		overall  float64
		expected Confidence
	}{
		{0.95, ConfidenceHigh},
		{0.9, ConfidenceHigh},
		{0.85, ConfidenceMedium},
		{0.8, ConfidenceMedium},
		{0.7, ConfidenceLow},
		{0.6, ConfidenceLow},
		{0.3, ConfidenceNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, confidenceTier(tt.overall, DefaultMergeThreshold),
			"overall %v", tt.overall)
	}
}

func TestNewClassifierDefaults(t *testing.T) {
	c := NewClassifier(Weights{}, 0)
	assert.Equal(t, DefaultMergeThreshold, c.Threshold())

	res := c.Compare(record("Taco Town", nil), record("Taco Town", nil))
	assert.True(t, res.IsDuplicate)
}
