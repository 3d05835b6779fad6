package synthesizequery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr error
	}{
		{"project clause", `project = "ABC"`, nil},
		{"mixed case field", `worklogAuthor = currentUser()`, nil},
		{"text search", `(summary ~ "first login" OR description ~ "first login")`, nil},
		{"too short", `a=b`, ErrQueryLength},
		{"too long", `project = "` + strings.Repeat("A", 300) + `"`, ErrQueryLength},
		{"no field", `ORDER BY key`, ErrQueryNoFields},
		{"field only inside quotes", `"project status"`, ErrQueryNoFields},
		{"english prose", `Okay, let's tackle this: project = "ABC"`, ErrQueryLooksProse},
		{"russian prose", `Я думаю, нужно status = "Open"`, ErrQueryLooksProse},
		{"user is asking", `The user is asking for project = "X"`, ErrQueryLooksProse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query, 300)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
