package dto

// GradeSummaryResponse aggregates a set of submissions. AverageGrade is 0, never null, when nothing is graded.
type GradeSummaryResponse struct {
	AverageGrade   float64 `json:"average_grade"`
	CompletionRate float64 `json:"completion_rate"`
	GradedCount    int     `json:"graded_count"`
	TotalCount     int     `json:"total_count"`
}
