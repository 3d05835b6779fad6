package models

import "time"

type ClientMapping struct {
	ClientName string    `json:"clientName"`
	ProjectKey string    `json:"projectKey"`
	LearnedBy  string    `json:"learnedBy"`
	LearnedAt  time.Time `json:"learnedAt"`
}

type UserMapping struct {
	DisplayName string    `json:"displayName"`
	Username    string    `json:"username"`
	LearnedBy   string    `json:"learnedBy"`
	LearnedAt   time.Time `json:"learnedAt"`
}

// Mappings is a point-in-time listing of everything users have taught.
type Mappings struct {
	Clients []ClientMapping `json:"clients"`
	Users   []UserMapping   `json:"users"`
}
