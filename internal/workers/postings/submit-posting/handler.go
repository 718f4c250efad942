package submitposting

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
	"lawjobs-workers/internal/posting"
	"lawjobs-workers/internal/telegram"
)

const (
	TaskType = "submit-posting"
)

var (
	ErrInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrReplyFailed  = errors.New("NOTIFICATION_SEND_FAILED")
)

type Access interface {
	Require(ctx context.Context, actorID int64, capability access.Capability) error
}

type Validator interface {
	ValidateAndBuild(ctx context.Context, fields []string) (*models.Posting, error)
}

type PostingStore interface {
	Insert(ctx context.Context, p *models.Posting) (bool, error)
}

type Indexer interface {
	IndexPosting(ctx context.Context, p *models.Posting) error
}

type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Handler struct {
	config    *Config
	access    Access
	validator Validator
	postings  PostingStore
	indexer   Indexer
	replies   Replier
	errors    *commonerrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the submission handler. indexer may be nil.
func NewHandler(config *Config, checker Access, validator Validator, postings PostingStore, indexer Indexer, replies Replier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		access:    checker,
		validator: validator,
		postings:  postings,
		indexer:   indexer,
		replies:   replies,
		errors:    commonerrors.NewErrorHandler(scoped),
		logger:    scoped,
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
	case errors.Is(err, ErrInsertFailed):
		return commonerrors.NewDatabaseInsertFailedError(err)
	case errors.Is(err, ErrReplyFailed):
		return commonerrors.NewNotificationSendFailedError("telegram", err)
	default:
		return commonerrors.NewQueryExecutionFailedError("submit posting", err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	chatID := input.ChatID
	if chatID == 0 {
		chatID = input.ActorID
	}

	if err := h.access.Require(ctx, input.ActorID, access.SubmitPosting); err != nil {
		if !errors.Is(err, access.ErrAccessDenied) {
			return nil, err
		}
		h.logger.Warn("posting submission denied", map[string]interface{}{"actorId": input.ActorID})
		return h.reject(ctx, chatID, telegram.ReplyAccessDenied, access.ErrAccessDenied.Error())
	}

	fields, err := posting.SplitSubmission(input.Text)
	if err != nil {
		return h.rejectInvalid(ctx, chatID, err)
	}

	p, err := h.validator.ValidateAndBuild(ctx, fields)
	if err != nil {
		return h.rejectInvalid(ctx, chatID, err)
	}
	p.FromAdmin = true

	inserted, err := h.postings.Insert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: posting %d: %v", ErrInsertFailed, p.ID, err)
	}
	if !inserted {
		// Lost a race with another submission of the same id.
		return h.reject(ctx, chatID, posting.RejectionMessage(errors.New(posting.MsgIdentifierTaken)), posting.ErrDuplicateIdentifier.Error())
	}
	metrics.PostingsIngested.Inc()

	if h.indexer != nil {
		if err := h.indexer.IndexPosting(ctx, p); err != nil {
			h.logger.Warn("posting not indexed", map[string]interface{}{
				"postingId": p.ID,
				"error":     err.Error(),
			})
		}
	}

	if err := h.replies.SendText(ctx, chatID, telegram.ReplyPostingPublished); err != nil {
		h.logger.Warn("publish confirmation not delivered", map[string]interface{}{
			"chatId": chatID,
			"error":  err.Error(),
		})
	}

	h.logger.Info("posting submitted", map[string]interface{}{
		"postingId": p.ID,
		"actorId":   input.ActorID,
		"tags":      p.Tags,
	})
	return &Output{Accepted: true, PostingID: p.ID}, nil
}

// rejectInvalid replies with the diagnostic and the format help. Errors that
// are not validation errors come from storage and fail the job.
func (h *Handler) rejectInvalid(ctx context.Context, chatID int64, err error) (*Output, error) {
	ve, ok := posting.AsValidationError(err)
	if !ok {
		return nil, err
	}
	h.logger.Info("posting submission rejected", map[string]interface{}{
		"field":  ve.Field,
		"reason": ve.Code(),
	})
	return h.reject(ctx, chatID, posting.RejectionMessage(ve), ve.Code())
}

func (h *Handler) reject(ctx context.Context, chatID int64, text, reason string) (*Output, error) {
	if err := h.replies.SendText(ctx, chatID, text); err != nil {
		return nil, fmt.Errorf("%w: reply to %d: %v", ErrReplyFailed, chatID, err)
	}
	return &Output{Accepted: false, Reason: reason}, nil
}

// Execute runs one submission outside of a job, for tests.
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
		"jobKey":   job.Key,
		"accepted": output.Accepted,
	})
}
