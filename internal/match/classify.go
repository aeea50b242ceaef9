package match

import (
	"github.com/streeteats/cleanup-cli/internal/model"
)

// Confidence buckets an overall similarity score for human review.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Per-field thresholds for reporting a field as matched.
const (
	nameMatchThreshold     = 0.85
	locationMatchThreshold = 0.90
	contactMatchThreshold  = 1.0
	menuMatchThreshold     = 0.70
)

// Weights control how per-field similarities combine into an overall score.
type Weights struct {
	Name     float64 `yaml:"name" mapstructure:"name"`
	Location float64 `yaml:"location" mapstructure:"location"`
	Contact  float64 `yaml:"contact" mapstructure:"contact"`
	Menu     float64 `yaml:"menu" mapstructure:"menu"`
}

// DefaultWeights returns the stock field weighting. Name dominates because
// trucks move; contact and menu data are sparse in scraped records.
func DefaultWeights() Weights {
	return Weights{Name: 0.4, Location: 0.3, Contact: 0.2, Menu: 0.1}
}

// DefaultMergeThreshold is the overall score at or above which the batch
// merge path treats two records as the same truck.
const DefaultMergeThreshold = 0.8

// Breakdown holds the per-field similarity scores behind an overall score.
type Breakdown struct {
	Name     float64 `json:"name"`
	Location float64 `json:"location"`
	Contact  float64 `json:"contact"`
	Menu     float64 `json:"menu"`
}

// Result is the outcome of comparing two records.
type Result struct {
	Overall       float64    `json:"overall"`
	Breakdown     Breakdown  `json:"breakdown"`
	MatchedFields []string   `json:"matched_fields"`
	Confidence    Confidence `json:"confidence"`
	IsDuplicate   bool       `json:"is_duplicate"`
}

// Classifier scores record pairs with configurable weights and threshold.
type Classifier struct {
	weights   Weights
	threshold float64
}

// NewClassifier builds a Classifier. Zero-valued weights or threshold fall
// back to the defaults.
func NewClassifier(weights Weights, threshold float64) *Classifier {
	if weights.Name+weights.Location+weights.Contact+weights.Menu == 0 {
		weights = DefaultWeights()
	}
	if threshold <= 0 {
		threshold = DefaultMergeThreshold
	}
	return &Classifier{weights: weights, threshold: threshold}
}

// Threshold returns the duplicate cutoff in use.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Compare scores candidate against existing and classifies the pair.
func (c *Classifier) Compare(candidate, existing *model.FoodTruckRecord) Result {
	b := Breakdown{
		Name:     NameSimilarity(candidate.Name, existing.Name),
		Location: LocationSimilarity(candidate.CurrentLocation, existing.CurrentLocation),
		Contact:  ContactSimilarity(candidate.ContactInfo, existing.ContactInfo),
		Menu:     MenuSimilarity(candidate.Menu, existing.Menu),
	}

	// Weighted average over the factors both records actually carry.
	// Scraped records are sparse; counting an absent menu as zero overlap
	// would sink pairs that are identical on every present field.
	total := c.weights.Name
	sum := c.weights.Name * b.Name
	if locationComparable(candidate.CurrentLocation, existing.CurrentLocation) {
		total += c.weights.Location
		sum += c.weights.Location * b.Location
	}
	if contactComparable(candidate.ContactInfo, existing.ContactInfo) {
		total += c.weights.Contact
		sum += c.weights.Contact * b.Contact
	}
	if len(candidate.Menu) > 0 && len(existing.Menu) > 0 {
		total += c.weights.Menu
		sum += c.weights.Menu * b.Menu
	}
	overall := sum / total

	var matched []string
	if b.Name >= nameMatchThreshold {
		matched = append(matched, "name")
	}
	if b.Location >= locationMatchThreshold {
		matched = append(matched, "location")
	}
	if b.Contact >= contactMatchThreshold {
		matched = append(matched, "contact")
	}
	if b.Menu > menuMatchThreshold {
		matched = append(matched, "menu")
	}

	return Result{
		Overall:       overall,
		Breakdown:     b,
		MatchedFields: matched,
		Confidence:    confidenceTier(overall, c.threshold),
		IsDuplicate:   overall >= c.threshold,
	}
}

func locationComparable(a, b *model.Location) bool {
	if a == nil || b == nil {
		return false
	}
	return (a.Address != "" && b.Address != "") || (hasCoords(a) && hasCoords(b))
}

func contactComparable(a, b *model.ContactInfo) bool {
	if a == nil || b == nil {
		return false
	}
	return (a.Phone != "" && b.Phone != "") ||
		(a.Website != "" && b.Website != "") ||
		(a.Email != "" && b.Email != "")
}

// confidenceTier maps an overall score to a review bucket. Scores at or
// above the merge threshold are at least medium; 0.9+ is high; 0.6 marks
// the floor for flagging a pair at all.
func confidenceTier(overall, threshold float64) Confidence {
	switch {
	case overall >= 0.9:
		return ConfidenceHigh
	case overall >= threshold:
		return ConfidenceMedium
	case overall >= 0.6:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
