package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentSchema(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"full", `{"intent":"analytics","needs_chart":true,"parameters":{"groupBy":"status"}}`, true},
		{"minimal", `{"intent":"search"}`, true},
		{"null parameters", `{"intent":"chart","parameters":null}`, true},
		{"unknown intent", `{"intent":"weather"}`, false},
		{"missing intent", `{"needs_chart":false}`, false},
		{"not json", `intent: search`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := IntentSchema.ValidateJSON(tt.doc)
			assert.Equal(t, tt.valid, res.Valid, res.GetErrorMessages())
			if !tt.valid {
				assert.Error(t, res.Err())
			}
		})
	}
}

func TestEntitySchema(t *testing.T) {
	assert.True(t, EntitySchema.ValidateJSON(`{"client_name":null,"status_intent":"open","query_type":"count"}`).Valid)
	assert.True(t, EntitySchema.ValidateJSON(`{}`).Valid)

	res := EntitySchema.ValidateJSON(`{"status_intent":"pending"}`)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("status_intent"))
}

func TestMessageSchema(t *testing.T) {
	ok := map[string]interface{}{"user_id": "u1", "channel_id": "c1", "text": "сколько багов"}
	assert.True(t, MessageSchema.ValidateGo(ok).Valid)

	bad := map[string]interface{}{"user_id": "", "channel_id": "c1"}
	res := MessageSchema.ValidateGo(bad)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorMessages())
}
