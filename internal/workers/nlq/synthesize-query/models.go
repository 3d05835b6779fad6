// internal/workers/nlq/synthesize-query/models.go
package synthesizequery

import "jira-askbot/internal/models"

type Input struct {
	Text      string           `json:"text"`
	Intent    models.Intent    `json:"intent"`
	Entities  models.EntityBag `json:"entities"`
	AccountID string           `json:"accountId"`
}

type Output struct {
	Outcome      string               `json:"outcome"`
	Query        string               `json:"query,omitempty"`
	Source       string               `json:"source,omitempty"`
	ClientName   string               `json:"clientName,omitempty"`
	DisplayName  string               `json:"displayName,omitempty"`
	LearnedUsers []models.UserMapping `json:"learnedUsers,omitempty"`
}
