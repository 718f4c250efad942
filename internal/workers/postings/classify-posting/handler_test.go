package classifyposting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawjobs-workers/internal/classification"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), classification.NewClassifier(classification.DefaultConfig()), logger.NewTestLogger(t))
}

func strPtr(s string) *string { return &s }

// ==========================
// Execute Tests
// ==========================

func TestExecute_CorporateConsulting(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Description:         "Подготовка устава ООО и сопровождение сделок",
		EmployerDescription: strPtr("Консалтинговая компания полного цикла"),
	})

	require.NoError(t, err)
	assert.Contains(t, out.Tags, models.AreaCorporate)
	assert.Equal(t, models.Consulting, out.EmployerCategory)
	assert.True(t, out.Classified)
}

func TestExecute_EmptyDescription(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.NotNil(t, out.Tags)
	assert.Empty(t, out.Tags)
	assert.False(t, out.Classified)
	assert.Equal(t, models.InHouse, out.EmployerCategory)
}

func TestExecute_CancelledContext(t *testing.T) {
	h := createTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{Description: "Устав"})
	assert.ErrorIs(t, err, context.Canceled)
}
