package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/streeteats/cleanup-cli/internal/model"
)

func TestNameSimilarityIdentity(t *testing.T) {
	for _, name := range []string{"Taco Town", "Bánh Mì Brothers", "x"} {
		assert.Equal(t, 1.0, NameSimilarity(name, name), "identity for %q", name)
	}
}

func TestNameSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Taco Town", "Taco Town Tacos"},
		{"Smoke Shack", "Smoke Stack"},
		{"Burger Bus", "Pizza Wagon"},
		{"", "Lone Star Grill"},
	}
	for _, p := range pairs {
		assert.Equal(t, NameSimilarity(p[0], p[1]), NameSimilarity(p[1], p[0]),
			"symmetry for %q / %q", p[0], p[1])
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{
			name:     "equal after suffix strip",
			a:        "Taco Town",
			b:        "Taco Town Food Truck",
			expected: 1.0,
		},
		{
			name: "substring scales with length ratio",
			a:    "Taco Town",
			b:    "Taco Town Tacos",
			// min 9, max 15
			expected: 0.8 + 0.15*(9.0/15.0),
		},
		{
			name: "edit distance fallback",
			a:    "Smoke Shack",
			b:    "Smoke Stack",
			// normalized len 11, distance 1
			expected: 1.0 - 1.0/11.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "one empty",
			a:        "",
			b:        "Taco Town",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, NameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestLocationSimilarity(t *testing.T) {
	now := time.Now()
	charleston := &model.Location{Lat: 32.7765, Lng: -79.9311, Timestamp: &now}

	t.Run("same coordinates", func(t *testing.T) {
		other := &model.Location{Lat: 32.7765, Lng: -79.9311}
		assert.Equal(t, 1.0, LocationSimilarity(charleston, other))
	})

	t.Run("far apart scores zero", func(t *testing.T) {
		columbia := &model.Location{Lat: 34.0007, Lng: -81.0348}
		assert.Equal(t, 0.0, LocationSimilarity(charleston, columbia))
	})

	t.Run("address only", func(t *testing.T) {
		a := &model.Location{Address: "123 King St"}
		b := &model.Location{Address: "123 King St"}
		assert.Equal(t, 1.0, LocationSimilarity(a, b))
	})

	t.Run("averages address and distance", func(t *testing.T) {
		a := &model.Location{Lat: 32.7765, Lng: -79.9311, Address: "123 King St"}
		b := &model.Location{Lat: 32.7765, Lng: -79.9311, Address: "123 King Street"}
		got := LocationSimilarity(a, b)
		assert.Greater(t, got, 0.5)
		assert.LessOrEqual(t, got, 1.0)
	})

	t.Run("nil side", func(t *testing.T) {
		assert.Equal(t, 0.0, LocationSimilarity(charleston, nil))
		assert.Equal(t, 0.0, LocationSimilarity(nil, nil))
	})
}

func TestContactSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *model.ContactInfo
		expected float64
	}{
		{
			name:     "phone formats match on digits",
			a:        &model.ContactInfo{Phone: "(555) 123-4567"},
			b:        &model.ContactInfo{Phone: "555.123.4567"},
			expected: 1.0,
		},
		{
			name:     "website ignores scheme and slash",
			a:        &model.ContactInfo{Website: "https://tacotown.com/"},
			b:        &model.ContactInfo{Website: "http://TACOTOWN.com"},
			expected: 1.0,
		},
		{
			name:     "one of two comparable fields matches",
			a:        &model.ContactInfo{Phone: "5551234567", Email: "a@x.com"},
			b:        &model.ContactInfo{Phone: "5551234567", Email: "b@x.com"},
			expected: 0.5,
		},
		{
			name:     "no comparable fields",
			a:        &model.ContactInfo{Phone: "5551234567"},
			b:        &model.ContactInfo{Email: "b@x.com"},
			expected: 0.0,
		},
		{
			name:     "nil side",
			a:        nil,
			b:        &model.ContactInfo{Phone: "5551234567"},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContactSimilarity(tt.a, tt.b))
		})
	}
}

func TestMenuSimilarity(t *testing.T) {
	menuA := []model.MenuCategory{
		{CategoryName: "Tacos"},
		{CategoryName: "Burritos"},
	}
	menuB := []model.MenuCategory{
		{CategoryName: "tacos"},
		{CategoryName: "Drinks"},
	}

	assert.InDelta(t, 1.0/3.0, MenuSimilarity(menuA, menuB), 1e-9)
	assert.Equal(t, 1.0, MenuSimilarity(menuA, menuA))
	assert.Equal(t, 0.0, MenuSimilarity(menuA, nil))
	assert.Equal(t, 0.0, MenuSimilarity(nil, nil))
}
