package model

// OperationType identifies a cleanup routine. The set is closed; dispatch on
// it is exhaustive rather than falling through on unknown strings.
type OperationType string

const (
	OpRemovePlaceholders  OperationType = "remove_placeholders"
	OpNormalizePhone      OperationType = "normalize_phone"
	OpFixCoordinates      OperationType = "fix_coordinates"
	OpUpdateQualityScores OperationType = "update_quality_scores"
	OpMergeDuplicates     OperationType = "merge_duplicates"
)

// DefaultOperations is the operation set used when a run does not request
// specific operations. Merging is destructive and therefore opt-in.
func DefaultOperations() []OperationType {
	return []OperationType{
		OpRemovePlaceholders,
		OpNormalizePhone,
		OpFixCoordinates,
		OpUpdateQualityScores,
	}
}

// ValidOperation reports whether t names a known cleanup operation.
func ValidOperation(t OperationType) bool {
	switch t {
	case OpRemovePlaceholders, OpNormalizePhone, OpFixCoordinates,
		OpUpdateQualityScores, OpMergeDuplicates:
		return true
	}
	return false
}

// CleanupOperation summarizes one operation's pass over a batch.
// SuccessCount+ErrorCount never exceeds AffectedCount.
type CleanupOperation struct {
	Type          OperationType `json:"type"`
	Description   string        `json:"description"`
	AffectedCount int           `json:"affected_count"`
	SuccessCount  int           `json:"success_count"`
	ErrorCount    int           `json:"error_count"`
	Errors        []string      `json:"errors,omitempty"`
}

// CleanupSummary aggregates outcomes across all operations in a run.
type CleanupSummary struct {
	TrucksImproved          int     `json:"trucks_improved"`
	DuplicatesRemoved       int     `json:"duplicates_removed"`
	QualityScoreImprovement float64 `json:"quality_score_improvement"`
	PlaceholdersRemoved     int     `json:"placeholders_removed"`
}

// BatchCleanupResult is the persisted output of a full cleanup run.
type BatchCleanupResult struct {
	TotalProcessed int                `json:"total_processed"`
	Operations     []CleanupOperation `json:"operations"`
	Summary        CleanupSummary     `json:"summary"`
	DurationMS     int64              `json:"duration"`
	DryRun         bool               `json:"dry_run"`
}
