package registersubscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/registration"
	"lawjobs-workers/internal/telegram"
)

const (
	TaskType = "register-subscriber"
)

var (
	ErrUnknownAction = errors.New("INVALID_INPUT")
	ErrSessionStore  = errors.New("CACHE_OPERATION_FAILED")
	ErrUpsertFailed  = errors.New("DATABASE_INSERT_FAILED")
)

type SubscriberStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Upsert(ctx context.Context, p *models.SubscriberPreference) error
}

type SessionStore interface {
	Load(ctx context.Context, subscriberID int64) (*registration.Session, error)
	Save(ctx context.Context, session *registration.Session) error
	Delete(ctx context.Context, subscriberID int64) error
}

type Prompter interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPrompt(ctx context.Context, chatID int64, messageID int, prompt registration.Prompt) error
}

type Handler struct {
	config      *Config
	subscribers SubscriberStore
	sessions    SessionStore
	prompts     Prompter
	errors      *commonerrors.ErrorHandler
	logger      logger.Logger
	now         func() time.Time
}

func NewHandler(config *Config, subscribers SubscriberStore, sessions SessionStore, prompts Prompter, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		subscribers: subscribers,
		sessions:    sessions,
		prompts:     prompts,
		errors:      commonerrors.NewErrorHandler(scoped),
		logger:      scoped,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job,
			commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(context.Background(), client, job, toJobError(err))
		return
	}

	h.completeJob(client, job, output)
}

func toJobError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return commonerrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrSessionStore):
		return commonerrors.NewCacheOperationFailedError(err)
	case errors.Is(err, ErrUpsertFailed):
		return commonerrors.NewDatabaseInsertFailedError(err)
	default:
		return commonerrors.NewQueryExecutionFailedError("register subscriber", err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	switch input.Action {
	case ActionStart:
		return h.begin(ctx, input, false)
	case ActionUpdate:
		return h.begin(ctx, input, true)
	case ActionStep:
		return h.step(ctx, input)
	}
	return nil, fmt.Errorf("%w: unknown action %q", ErrUnknownAction, input.Action)
}

// begin opens a fresh session. A first registration requires the subscriber
// to be unknown and an update requires the opposite.
func (h *Handler) begin(ctx context.Context, input *Input, updating bool) (*Output, error) {
	exists, err := h.subscribers.Exists(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if exists != updating {
		reply := telegram.ReplyAlreadyRegistered
		if updating {
			reply = telegram.ReplyNotRegistered
		}
		h.notify(ctx, input.ChatID, reply)
		return &Output{Reason: reasonFor(updating)}, nil
	}

	state, acc := registration.Start()
	session := &registration.Session{
		SubscriberID: input.ActorID,
		Username:     input.Username,
		Updating:     updating,
		State:        state,
		Accumulator:  acc,
	}
	if err := h.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}

	h.prompt(ctx, input.ChatID, 0, registration.PromptFor(state, acc, updating))
	return &Output{State: string(state)}, nil
}

func reasonFor(updating bool) string {
	if updating {
		return "SUBSCRIBER_NOT_FOUND"
	}
	return "ALREADY_REGISTERED"
}

func (h *Handler) step(ctx context.Context, input *Input) (*Output, error) {
	session, err := h.sessions.Load(ctx, input.ActorID)
	if errors.Is(err, registration.ErrSessionMissing) {
		// Buttons of an expired or finished registration.
		h.logger.Warn("registration step without session", map[string]interface{}{"actorId": input.ActorID})
		return &Output{Reason: registration.ErrSessionMissing.Error()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}

	next, acc, err := registration.Transition(session.State, session.Accumulator, registration.Input{
		Kind:  registration.InputKind(input.InputKind),
		Value: input.InputValue,
	})
	if err != nil {
		h.logger.Info("registration input ignored", map[string]interface{}{
			"actorId": input.ActorID,
			"state":   session.State,
			"error":   err.Error(),
		})
		return &Output{State: string(session.State), Reason: registration.ErrInvalidInput.Error()}, nil
	}

	if next == registration.StateComplete {
		pref := acc.Preference(input.ActorID, session.Username, h.now())
		if err := h.subscribers.Upsert(ctx, &pref); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpsertFailed, err)
		}
		if err := h.sessions.Delete(ctx, input.ActorID); err != nil {
			h.logger.Warn("registration session not deleted", map[string]interface{}{
				"actorId": input.ActorID,
				"error":   err.Error(),
			})
		}
		h.prompt(ctx, input.ChatID, input.MessageID, registration.PromptFor(next, acc, session.Updating))
		h.logger.Info("subscriber registered", map[string]interface{}{
			"actorId":  input.ActorID,
			"updating": session.Updating,
			"tags":     pref.Tags,
		})
		return &Output{State: string(next), Complete: true}, nil
	}

	session.State = next
	session.Accumulator = acc
	if err := h.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	h.prompt(ctx, input.ChatID, input.MessageID, registration.PromptFor(next, acc, session.Updating))
	return &Output{State: string(next)}, nil
}

// Delivery failures are logged only: the session is already saved and a
// retry would apply the input twice.
func (h *Handler) prompt(ctx context.Context, chatID int64, messageID int, prompt registration.Prompt) {
	if err := h.prompts.SendPrompt(ctx, chatID, messageID, prompt); err != nil {
		h.logger.Warn("registration prompt not delivered", map[string]interface{}{
			"chatId": chatID,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) notify(ctx context.Context, chatID int64, text string) {
	if err := h.prompts.SendText(ctx, chatID, text); err != nil {
		h.logger.Warn("reply not delivered", map[string]interface{}{
			"chatId": chatID,
			"error":  err.Error(),
		})
	}
}

// Execute runs one registration action outside of a job, for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
		"state":  output.State,
	})
}
