package submitreview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/telegram"
)

const (
	TaskType = "submit-review"
)

var (
	ErrReviewTooShort = errors.New("REVIEW_TOO_SHORT")
	ErrInsertFailed   = errors.New("DATABASE_INSERT_FAILED")
)

type ReviewStore interface {
	Add(ctx context.Context, reviewerID int64, description string) (*models.Review, error)
}

type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Handler struct {
	config  *Config
	reviews ReviewStore
	replies Replier
	errors  *commonerrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, reviews ReviewStore, replies Replier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		reviews: reviews,
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
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.NewDatabaseInsertFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	chatID := input.ChatID
	if chatID == 0 {
		chatID = input.ActorID
	}

	text := strings.TrimSpace(input.Text)
	if n := utf8.RuneCountInString(text); n < h.config.MinLength {
		h.logger.Info("review rejected", map[string]interface{}{
			"actorId": input.ActorID,
			"length":  n,
		})
		h.reply(ctx, chatID, telegram.ReplyReviewTooShort)
		return &Output{Reason: ErrReviewTooShort.Error()}, nil
	}

	review, err := h.reviews.Add(ctx, input.ActorID, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	h.reply(ctx, chatID, telegram.ReplyReviewThanks)
	h.logger.Info("review stored", map[string]interface{}{
		"actorId":  input.ActorID,
		"reviewId": review.ID,
	})
	return &Output{Accepted: true, ReviewID: review.ID}, nil
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.replies.SendText(ctx, chatID, text); err != nil {
		h.logger.Warn("reply not delivered", map[string]interface{}{
			"chatId": chatID,
			"error":  err.Error(),
		})
	}
}

// Execute runs one review submission outside of a job, for tests.
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
