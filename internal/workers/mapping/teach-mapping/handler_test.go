// internal/workers/mapping/teach-mapping/handler_test.go
package teachmapping

import (
	"context"
	"testing"
	"time"

	"jira-askbot/internal/common/cache/cachetest"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) (*Handler, *mapping.Store) {
	c, _ := cachetest.NewStore(t)
	store := mapping.NewStore(c, time.Hour, logger.NewTestLogger(t))
	return NewHandler(LoadConfig(), store, logger.NewTestLogger(t)), store
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		input     Input
		wantKind  mapping.TeachKind
		wantName  string
		wantValue string
	}{
		{
			name:      "client command",
			input:     Input{Text: `научи клиент "Иль де Ботэ" проект idb`, TeacherID: "u1"},
			wantKind:  mapping.TeachClientKind,
			wantName:  "Иль де Ботэ",
			wantValue: "IDB",
		},
		{
			name:      "user command",
			input:     Input{Text: "teach user Anna Smith username asmith", TeacherID: "u1"},
			wantKind:  mapping.TeachUserKind,
			wantName:  "Anna Smith",
			wantValue: "asmith",
		},
		{
			name:      "explicit fields",
			input:     Input{Kind: mapping.TeachClientKind, Name: "Globex", Value: "glx", TeacherID: "u2"},
			wantKind:  mapping.TeachClientKind,
			wantName:  "Globex",
			wantValue: "GLX",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := createTestHandler(t)

			out, err := h.Execute(context.Background(), &tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantName, out.Name)
			assert.Equal(t, tt.wantValue, out.Value)
			assert.Equal(t, tt.input.TeacherID, out.LearnedBy)
			assert.False(t, out.LearnedAt.IsZero())

			var (
				got string
				ok  bool
			)
			if tt.wantKind == mapping.TeachClientKind {
				got, ok, err = store.ResolveClient(context.Background(), tt.wantName)
			} else {
				got, ok, err = store.ResolveUser(context.Background(), tt.wantName)
			}
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestHandler_Execute_Reteach(t *testing.T) {
	h, store := createTestHandler(t)
	ctx := context.Background()

	_, err := h.Execute(ctx, &Input{Text: "teach client X project A", TeacherID: "u1"})
	require.NoError(t, err)
	_, err = h.Execute(ctx, &Input{Text: "teach client x project B", TeacherID: "u2"})
	require.NoError(t, err)

	key, ok, err := store.ResolveClient(ctx, "X")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "B", key)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"not a teach command", Input{Text: "сколько багов", TeacherID: "u1"}},
		{"malformed", Input{Text: "научи клиент Acme", TeacherID: "u1"}},
		{"missing teacher", Input{Text: "teach client X project A"}},
		{"empty name", Input{Kind: mapping.TeachUserKind, Name: " ", Value: "x", TeacherID: "u1"}},
		{"unknown kind", Input{Kind: "project", Name: "a", Value: "b", TeacherID: "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := createTestHandler(t)

			_, err := h.Execute(context.Background(), &tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}
