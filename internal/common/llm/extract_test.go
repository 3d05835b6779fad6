package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"intent":"search"}`,
			want: `{"intent":"search"}`,
		},
		{
			name: "prose around object",
			raw:  "Sure! Here is the result:\n{\"intent\":\"analytics\"}\nHope it helps.",
			want: `{"intent":"analytics"}`,
		},
		{
			name: "last object wins",
			raw:  `draft: {"intent":"search"} final: {"intent":"chart","needs_chart":true}`,
			want: `{"intent":"chart","needs_chart":true}`,
		},
		{
			name: "nested object kept whole",
			raw:  `{"intent":"chart","parameters":{"groupBy":"status"}}`,
			want: `{"intent":"chart","parameters":{"groupBy":"status"}}`,
		},
		{
			name: "braces inside strings ignored",
			raw:  `{"search_text":"a } b {"}`,
			want: `{"search_text":"a } b {"}`,
		},
		{
			name: "reasoning block stripped",
			raw:  `<think>maybe {"intent":"worklog"}</think>{"intent":"status"}`,
			want: `{"intent":"status"}`,
		},
		{
			name:    "unterminated reasoning hides everything",
			raw:     `<think>{"intent":"worklog"}`,
			wantErr: true,
		},
		{
			name:    "no object",
			raw:     "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			raw:     `{"intent":"search"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrExtractionFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "plain",
			raw:  `project = "ACM" AND status = "Open"`,
			want: `project = "ACM" AND status = "Open"`,
		},
		{
			name: "backticks stripped",
			raw:  "`assignee is EMPTY`",
			want: "assignee is EMPTY",
		},
		{
			name: "code fence",
			raw:  "```jql\ncreated >= -30d\n```",
			want: "created >= -30d",
		},
		{
			name: "wrapping quotes stripped",
			raw:  `"created >= startOfWeek()"`,
			want: "created >= startOfWeek()",
		},
		{
			name: "inner quotes kept",
			raw:  `"ACM" = project`,
			want: `"ACM" = project`,
		},
		{
			name: "reasoning and label",
			raw:  "<think>the user wants bugs</think>\nJQL: issuetype = Bug\n  AND priority = High",
			want: "issuetype = Bug AND priority = High",
		},
		{
			name: "parentheses kept",
			raw:  `(summary ~ "login" OR description ~ "login")`,
			want: `(summary ~ "login" OR description ~ "login")`,
		},
		{
			name:    "empty after cleaning",
			raw:     "<think>hmm</think>  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractQuery(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrExtractionFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold text", StripTags("<b>bold</b> text"))
	assert.Equal(t, "created <= -30d", StripTags("created <= -30d"))
}
