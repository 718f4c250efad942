package resolvereview

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
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/repository"
	"lawjobs-workers/internal/telegram"
)

const (
	TaskType = "resolve-review"
)

var (
	ErrUnknownAction = errors.New("INVALID_INPUT")
	ErrSendFailed    = errors.New("NOTIFICATION_SEND_FAILED")
)

type Access interface {
	Require(ctx context.Context, actorID int64, capability access.Capability) error
}

type ReviewStore interface {
	RandomUnresolved(ctx context.Context) (*models.Review, error)
	Resolve(ctx context.Context, id string, adminID int64) error
}

type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendReview(ctx context.Context, chatID int64, review *models.Review) error
	MarkResolved(ctx context.Context, chatID int64, messageID int) error
}

type Handler struct {
	config   *Config
	access   Access
	reviews  ReviewStore
	notifier Notifier
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, checker Access, reviews ReviewStore, notifier Notifier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		access:   checker,
		reviews:  reviews,
		notifier: notifier,
		errors:   commonerrors.NewErrorHandler(scoped),
		logger:   scoped,
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
	case errors.Is(err, ErrSendFailed):
		return commonerrors.NewNotificationSendFailedError("telegram", err)
	default:
		return commonerrors.NewQueryExecutionFailedError("resolve review", err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	chatID := input.ChatID
	if chatID == 0 {
		chatID = input.ActorID
	}

	if err := h.access.Require(ctx, input.ActorID, access.ManageReviews); err != nil {
		if !errors.Is(err, access.ErrAccessDenied) {
			return nil, err
		}
		if err := h.notifier.SendText(ctx, chatID, telegram.ReplyAccessDenied); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		return &Output{Reason: access.ErrAccessDenied.Error()}, nil
	}

	switch input.Action {
	case ActionNext:
		return h.next(ctx, chatID)
	case ActionResolve:
		return h.resolve(ctx, input, chatID)
	}
	return nil, fmt.Errorf("%w: unknown action %q", ErrUnknownAction, input.Action)
}

func (h *Handler) next(ctx context.Context, chatID int64) (*Output, error) {
	review, err := h.reviews.RandomUnresolved(ctx)
	if err != nil {
		return nil, err
	}
	if review == nil {
		if err := h.notifier.SendText(ctx, chatID, telegram.ReplyNoReviews); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		return &Output{Reason: "NO_REVIEWS"}, nil
	}
	if err := h.notifier.SendReview(ctx, chatID, review); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return &Output{ReviewID: review.ID}, nil
}

func (h *Handler) resolve(ctx context.Context, input *Input, chatID int64) (*Output, error) {
	err := h.reviews.Resolve(ctx, input.ReviewID, input.ActorID)
	if errors.Is(err, repository.ErrReviewNotFound) {
		h.logger.Warn("resolve of unknown review", map[string]interface{}{"reviewId": input.ReviewID})
		return &Output{ReviewID: input.ReviewID, Reason: repository.ErrReviewNotFound.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	if input.MessageID != 0 {
		if err := h.notifier.MarkResolved(ctx, chatID, input.MessageID); err != nil {
			h.logger.Warn("resolve mark not shown", map[string]interface{}{
				"reviewId": input.ReviewID,
				"error":    err.Error(),
			})
		}
	}

	h.logger.Info("review resolved", map[string]interface{}{
		"reviewId": input.ReviewID,
		"adminId":  input.ActorID,
	})
	return &Output{ReviewID: input.ReviewID, Resolved: true}, nil
}

// Execute runs one review action outside of a job, for tests.
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
