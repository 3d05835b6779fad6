// internal/workers/nlq/classify-intent/models.go
package classifyintent

import "jira-askbot/internal/models"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	Intent       models.Intent `json:"intent"`
	RulesVersion string        `json:"rulesVersion,omitempty"`
}

// modelReply is the JSON the model is asked to produce.
type modelReply struct {
	Intent     string                 `json:"intent"`
	NeedsChart bool                   `json:"needs_chart"`
	Parameters map[string]interface{} `json:"parameters"`
}
