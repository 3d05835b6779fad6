package models

import "time"

// ConversationTurn is the last exchange for one user in one channel.
type ConversationTurn struct {
	UserID       string     `json:"userId"`
	ChannelID    string     `json:"channelId"`
	LastQuery    string     `json:"lastQuery"`
	LastIntent   IntentType `json:"lastIntent"`
	LastEntities EntityBag  `json:"lastEntities"`
	LastResponse string     `json:"lastResponse"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
