package registersubscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/registration"
	"lawjobs-workers/internal/telegram"
)

// ==========================
// Test Helper Functions
// ==========================

type mockSubscriberStore struct {
	existing  map[int64]bool
	upserted  []models.SubscriberPreference
	UpsertErr error
}

func (m *mockSubscriberStore) Exists(ctx context.Context, id int64) (bool, error) {
	return m.existing[id], nil
}

func (m *mockSubscriberStore) Upsert(ctx context.Context, p *models.SubscriberPreference) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.upserted = append(m.upserted, *p)
	return nil
}

type sentPrompt struct {
	chatID    int64
	messageID int
	prompt    registration.Prompt
}

type mockPrompter struct {
	texts   []string
	prompts []sentPrompt
}

func (m *mockPrompter) SendText(ctx context.Context, chatID int64, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockPrompter) SendPrompt(ctx context.Context, chatID int64, messageID int, prompt registration.Prompt) error {
	m.prompts = append(m.prompts, sentPrompt{chatID: chatID, messageID: messageID, prompt: prompt})
	return nil
}

func (m *mockPrompter) last() sentPrompt {
	return m.prompts[len(m.prompts)-1]
}

const subscriberID = 100

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func setupMiniRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func createTestHandler(t *testing.T, subscribers *mockSubscriberStore, prompts *mockPrompter) (*Handler, *registration.Store) {
	sessions := registration.NewStore(setupMiniRedis(t), time.Hour)
	h := NewHandler(createTestConfig(), subscribers, sessions, prompts, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h, sessions
}

func stepInput(kind registration.InputKind, value string) *Input {
	return &Input{
		ActorID:    subscriberID,
		ChatID:     subscriberID,
		MessageID:  77,
		Action:     ActionStep,
		InputKind:  string(kind),
		InputValue: value,
	}
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_FullRegistration(t *testing.T) {
	subscribers := &mockSubscriberStore{}
	prompts := &mockPrompter{}
	h, sessions := createTestHandler(t, subscribers, prompts)
	ctx := context.Background()

	out, err := h.Execute(ctx, &Input{ActorID: subscriberID, ChatID: subscriberID, Username: "lawyer", Action: ActionStart})
	require.NoError(t, err)
	assert.Equal(t, string(registration.StateAwaitingExperience), out.State)
	assert.Equal(t, 0, prompts.last().messageID)
	assert.Equal(t, registration.Greeting(false), prompts.last().prompt.Text)

	steps := []struct {
		kind  registration.InputKind
		value string
		state registration.State
	}{
		{registration.InputSelect, string(models.OneToThree), registration.StateAwaitingSalary},
		{registration.InputSelect, "50000", registration.StateAwaitingTags},
		{registration.InputToggle, string(models.AreaIP), registration.StateAwaitingTags},
		{registration.InputToggle, string(models.AreaCorporate), registration.StateAwaitingTags},
		{registration.InputSave, "", registration.StateAwaitingEmployerTypes},
		{registration.InputToggle, string(models.InHouse), registration.StateAwaitingEmployerTypes},
	}
	for _, s := range steps {
		out, err := h.Execute(ctx, stepInput(s.kind, s.value))
		require.NoError(t, err)
		assert.Equal(t, string(s.state), out.State)
		assert.False(t, out.Complete)
		assert.Equal(t, 77, prompts.last().messageID)
	}

	out, err = h.Execute(ctx, stepInput(registration.InputSave, ""))
	require.NoError(t, err)
	assert.True(t, out.Complete)
	assert.Equal(t, registration.CompletedText, prompts.last().prompt.Text)
	assert.Empty(t, prompts.last().prompt.Options)

	require.Len(t, subscribers.upserted, 1)
	pref := subscribers.upserted[0]
	assert.Equal(t, int64(subscriberID), pref.SubscriberID)
	assert.Equal(t, "lawyer", pref.Username)
	assert.Equal(t, models.OneToThree, pref.Experience)
	assert.Equal(t, 50000, pref.MinSalary)
	assert.Equal(t, []models.PracticeArea{models.AreaCorporate, models.AreaIP}, pref.Tags)
	assert.Equal(t, []models.EmployerCategory{models.InHouse}, pref.EmployerCategories)

	_, err = sessions.Load(ctx, subscriberID)
	assert.ErrorIs(t, err, registration.ErrSessionMissing)
}

func TestExecute_StartWhenRegistered(t *testing.T) {
	prompts := &mockPrompter{}
	h, _ := createTestHandler(t, &mockSubscriberStore{existing: map[int64]bool{subscriberID: true}}, prompts)

	out, err := h.Execute(context.Background(), &Input{ActorID: subscriberID, ChatID: subscriberID, Action: ActionStart})

	require.NoError(t, err)
	assert.Equal(t, "ALREADY_REGISTERED", out.Reason)
	assert.Equal(t, []string{telegram.ReplyAlreadyRegistered}, prompts.texts)
	assert.Empty(t, prompts.prompts)
}

func TestExecute_UpdateRequiresRegistration(t *testing.T) {
	prompts := &mockPrompter{}
	h, _ := createTestHandler(t, &mockSubscriberStore{}, prompts)

	out, err := h.Execute(context.Background(), &Input{ActorID: subscriberID, ChatID: subscriberID, Action: ActionUpdate})

	require.NoError(t, err)
	assert.Equal(t, "SUBSCRIBER_NOT_FOUND", out.Reason)
	assert.Equal(t, []string{telegram.ReplyNotRegistered}, prompts.texts)
}

func TestExecute_UpdateUsesUpdateGreeting(t *testing.T) {
	prompts := &mockPrompter{}
	h, sessions := createTestHandler(t, &mockSubscriberStore{existing: map[int64]bool{subscriberID: true}}, prompts)

	_, err := h.Execute(context.Background(), &Input{ActorID: subscriberID, ChatID: subscriberID, Action: ActionUpdate})

	require.NoError(t, err)
	assert.Equal(t, registration.Greeting(true), prompts.last().prompt.Text)
	session, err := sessions.Load(context.Background(), subscriberID)
	require.NoError(t, err)
	assert.True(t, session.Updating)
}

func TestExecute_StepWithoutSession(t *testing.T) {
	prompts := &mockPrompter{}
	h, _ := createTestHandler(t, &mockSubscriberStore{}, prompts)

	out, err := h.Execute(context.Background(), stepInput(registration.InputSelect, string(models.NoExperience)))

	require.NoError(t, err)
	assert.Equal(t, "REGISTRATION_SESSION_MISSING", out.Reason)
	assert.Empty(t, prompts.prompts)
}

func TestExecute_InvalidInputKeepsState(t *testing.T) {
	prompts := &mockPrompter{}
	h, sessions := createTestHandler(t, &mockSubscriberStore{}, prompts)
	ctx := context.Background()
	_, err := h.Execute(ctx, &Input{ActorID: subscriberID, ChatID: subscriberID, Action: ActionStart})
	require.NoError(t, err)

	out, err := h.Execute(ctx, stepInput(registration.InputSelect, "12345"))

	require.NoError(t, err)
	assert.Equal(t, "REGISTRATION_INPUT_INVALID", out.Reason)
	assert.Equal(t, string(registration.StateAwaitingExperience), out.State)
	session, err := sessions.Load(ctx, subscriberID)
	require.NoError(t, err)
	assert.Equal(t, registration.StateAwaitingExperience, session.State)
}

func TestExecute_UnknownAction(t *testing.T) {
	h, _ := createTestHandler(t, &mockSubscriberStore{}, &mockPrompter{})

	_, err := h.Execute(context.Background(), &Input{ActorID: subscriberID, Action: "jump"})

	require.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.Normalize(toJobError(err)).Code)
}

func TestExecute_UpsertFailureKeepsSession(t *testing.T) {
	subscribers := &mockSubscriberStore{UpsertErr: errors.New("db down")}
	h, sessions := createTestHandler(t, subscribers, &mockPrompter{})
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &registration.Session{
		SubscriberID: subscriberID,
		State:        registration.StateAwaitingEmployerTypes,
		Accumulator: registration.Accumulator{
			Experience:         models.NoExperience,
			MinSalary:          15000,
			Tags:               []models.PracticeArea{models.AreaCivil},
			EmployerCategories: []models.EmployerCategory{models.Consulting},
		},
	}))

	_, err := h.Execute(ctx, stepInput(registration.InputSave, ""))

	require.ErrorIs(t, err, ErrUpsertFailed)
	assert.Equal(t, commonerrors.ErrCodeDatabaseInsertFailed, commonerrors.Normalize(toJobError(err)).Code)
	_, err = sessions.Load(ctx, subscriberID)
	assert.NoError(t, err)
}
