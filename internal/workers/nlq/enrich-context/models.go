// internal/workers/nlq/enrich-context/models.go
package enrichcontext

import "jira-askbot/internal/models"

type Input struct {
	UserID    string `json:"userId"`
	ChannelID string `json:"channelId"`
	Text      string `json:"text"`
}

// Output carries the text to analyze and the entities inherited from the
// previous turn. Extra is empty unless Active.
type Output struct {
	Text         string           `json:"text"`
	Extra        models.EntityBag `json:"extra"`
	Active       bool             `json:"active"`
	Rewrites     []string         `json:"rewrites,omitempty"`
	RulesVersion string           `json:"rulesVersion,omitempty"`
}
