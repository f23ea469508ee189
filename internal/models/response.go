package models

import "strings"

// Candidate is one generated reply
type Candidate struct {
	Text         string
	FinishReason string
}

// Usage reports token accounting when the provider returns it
type Usage struct {
	PromptTokens int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelOutput is the parsed result of a generate call
type ModelOutput struct {
	Candidates   []Candidate
	BlockReason  string
	ModelVersion string
	Usage        Usage
}

// Text returns the first candidate's text
func (m *ModelOutput) Text() string {
	if m == nil || len(m.Candidates) == 0 {
		return ""
	}
	return m.Candidates[0].Text
}

// FinishReason returns the first candidate's finish reason
func (m *ModelOutput) FinishReason() string {
	if m == nil || len(m.Candidates) == 0 {
		return ""
	}
	return m.Candidates[0].FinishReason
}

// IsBlocked reports whether the prompt or the reply was withheld by a
// safety filter.
func (m *ModelOutput) IsBlocked() bool {
	if m == nil {
		return false
	}
	if m.BlockReason != "" {
		return true
	}
	reason := strings.ToUpper(m.FinishReason())
	return m.Text() == "" && (reason == "SAFETY" || reason == "PROHIBITED_CONTENT" || reason == "BLOCKLIST")
}
