package models

// Report is one rendered EHCP review report for a single student row.
type Report struct {
	ReportDate       string `json:"reportDate"`
	StudentName      string `json:"studentName"`
	Targets          string `json:"targets"`
	FeedbackSummary  string `json:"feedbackSummary"`
	KeyChallenges    string `json:"keyChallenges"`
	SuggestedTargets string `json:"suggestedTargets"`
	GradeComparison  string `json:"gradeComparison"`
	Text             string `json:"text"`
}
