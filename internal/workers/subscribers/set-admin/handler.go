package setadmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lawjobs-workers/internal/access"
	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/repository"
	"lawjobs-workers/internal/telegram"
)

const (
	TaskType = "set-admin"
)

var (
	ErrReplyFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

type Access interface {
	Require(ctx context.Context, actorID int64, capability access.Capability) error
}

type AdminStore interface {
	SetAdmin(ctx context.Context, id int64, admin bool) (bool, error)
}

type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Handler struct {
	config  *Config
	access  Access
	admins  AdminStore
	replies Replier
	errors  *commonerrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, checker Access, admins AdminStore, replies Replier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		access:  checker,
		admins:  admins,
		replies: replies,
		errors:  commonerrors.NewErrorHandler(scoped),
		logger:  scoped,
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
		errorCode := commonerrors.NewQueryExecutionFailedError("set admin", err)
		if errors.Is(err, ErrReplyFailed) {
			errorCode = commonerrors.NewNotificationSendFailedError("telegram", err)
		}
		h.errors.HandleJobError(context.Background(), client, job, errorCode)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	chatID := input.ChatID
	if chatID == 0 {
		chatID = input.ActorID
	}

	if err := h.access.Require(ctx, input.ActorID, access.ManageAdmins); err != nil {
		if !errors.Is(err, access.ErrAccessDenied) {
			return nil, err
		}
		h.logger.Warn("admin change denied", map[string]interface{}{"actorId": input.ActorID})
		return h.reply(ctx, chatID, telegram.ReplyAccessDenied, &Output{Reason: access.ErrAccessDenied.Error()})
	}

	if input.TargetID <= 0 {
		return h.reply(ctx, chatID, telegram.ReplyInvalidTelegramID, &Output{Reason: "INVALID_INPUT"})
	}

	changed, err := h.admins.SetAdmin(ctx, input.TargetID, input.Enable)
	if errors.Is(err, repository.ErrSubscriberNotFound) {
		return h.reply(ctx, chatID, telegram.ReplyTargetNotFound, &Output{Reason: repository.ErrSubscriberNotFound.Error()})
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("admin flag set", map[string]interface{}{
		"actorId":  input.ActorID,
		"targetId": input.TargetID,
		"enable":   input.Enable,
		"changed":  changed,
	})
	return h.reply(ctx, chatID, telegram.ReplyAdminChanged, &Output{Changed: changed})
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, output *Output) (*Output, error) {
	if err := h.replies.SendText(ctx, chatID, text); err != nil {
		return nil, fmt.Errorf("%w: reply to %d: %v", ErrReplyFailed, chatID, err)
	}
	return output, nil
}

// Execute runs one admin change outside of a job, for tests.
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
	})
}
