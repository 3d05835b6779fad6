package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Stages, 6)

	s, ok := reg.Find("synthesize-query")
	require.True(t, ok)
	assert.Equal(t, "nlq", s.Category)
	assert.Equal(t, 150*time.Second, reg.TimeoutFor("synthesize-query", time.Second))
	assert.Equal(t, time.Second, reg.TimeoutFor("unknown", time.Second))
}

func TestLoadRegistry(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "valid",
			body: `{"version":"1","stages":[{"taskType":"classify-intent","timeout":"5s"}]}`,
		},
		{
			name:    "duplicate",
			body:    `{"stages":[{"taskType":"a"},{"taskType":"a"}]}`,
			wantErr: "duplicate",
		},
		{
			name:    "bad timeout",
			body:    `{"stages":[{"taskType":"a","timeout":"soon"}]}`,
			wantErr: "invalid timeout",
		},
		{
			name:    "not json",
			body:    `stages: []`,
			wantErr: "decode registry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "registry.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			reg, err := LoadRegistry(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5*time.Second, reg.TimeoutFor("classify-intent", time.Minute))
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	require.NoError(t, Default().Save(path))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), reg)

	bad := &StageRegistry{Stages: []Stage{{TaskType: ""}}}
	assert.Error(t, bad.Save(path))
}
