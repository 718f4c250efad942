package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.0.0",
		"activities": [
			{"id": "postings.fetch", "taskType": "fetch-postings", "errorCodes": ["SOURCE_UNAVAILABLE"]},
			{"id": "postings.match", "taskType": "match-subscribers"}
		]
	}`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch-postings", "match-subscribers"}, reg.TaskTypes())

	a, ok := reg.Find("fetch-postings")
	require.True(t, ok)
	assert.Equal(t, []string{"SOURCE_UNAVAILABLE"}, a.ErrorCodes)

	_, ok = reg.Find("missing")
	assert.False(t, ok)
	assert.NoError(t, reg.Check())
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{`))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	dup := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "x"},
		{ID: "b", TaskType: "x"},
	}}
	assert.ErrorContains(t, dup.Check(), "duplicate task type")

	missing := &ActivityRegistry{Activities: []Activity{{ID: "a"}}}
	assert.ErrorContains(t, missing.Check(), "no task type")
}

func TestCheck_StatusAndTimeout(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		wantErr  string
	}{
		{name: "valid", activity: Activity{ID: "a", TaskType: "x", Status: StatusCompleted, Timeout: "30s"}},
		{name: "empty status and timeout", activity: Activity{ID: "a", TaskType: "x"}},
		{name: "unknown status", activity: Activity{ID: "a", TaskType: "x", Status: "done"}, wantErr: "unknown status"},
		{name: "bad timeout", activity: Activity{ID: "a", TaskType: "x", Timeout: "soon"}, wantErr: "invalid timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ActivityRegistry{Activities: []Activity{tt.activity}}).Check()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestActivity_JobTimeout(t *testing.T) {
	d, err := Activity{Timeout: "2m"}.JobTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	d, err = Activity{}.JobTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)
}
