package api

// GJSON paths for extracting values from generateContent responses.
const (
	PathCandidates   = "candidates"
	PathPromptBlock  = "promptFeedback.blockReason"
	PathModelVersion = "modelVersion"
	PathErrorMessage = "error.message"
	PathUsagePrompt  = "usageMetadata.promptTokenCount"
	PathUsageOutput  = "usageMetadata.candidatesTokenCount"
	PathUsageTotal   = "usageMetadata.totalTokenCount"

	// Candidate paths (relative to candidate object)
	PathCandParts        = "content.parts"
	PathCandFinishReason = "finishReason"

	// Part paths (relative to part object)
	PathPartText    = "text"
	PathPartThought = "thought"
)
