// internal/workers/dictionary/refresh-dictionaries/models.go
package refreshdictionaries

import "jira-askbot/internal/models"

type Input struct {
	AccountID string `json:"accountId"`
}

type Output struct {
	AccountID string                        `json:"accountId"`
	Counts    map[models.DictionaryType]int `json:"counts"`
	Failed    []models.DictionaryType       `json:"failed,omitempty"`
}
