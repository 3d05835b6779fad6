package models

import "time"

// Credentials authenticate one chat user against the tracker.
type Credentials struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Secret    string `json:"secret"`
}

type Issue struct {
	Key       string    `json:"key"`
	Summary   string    `json:"summary"`
	Status    string    `json:"status"`
	Assignee  string    `json:"assignee,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	IssueType string    `json:"issueType,omitempty"`
	Project   string    `json:"project,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

type SearchResult struct {
	Issues []Issue `json:"issues"`
	Total  int     `json:"total"`
}
