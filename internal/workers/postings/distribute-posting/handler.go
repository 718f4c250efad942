package distributeposting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/matching"
	"lawjobs-workers/internal/models"
)

const (
	TaskType = "distribute-posting"
)

var (
	ErrPostingNotFound = errors.New("POSTING_NOT_FOUND")
	ErrInterrupted     = errors.New("NOTIFICATION_SEND_FAILED")
	ErrClaimFailed     = errors.New("CACHE_OPERATION_FAILED")
)

type PostingStore interface {
	GetByID(ctx context.Context, id int64) (*models.Posting, error)
	MarkSent(ctx context.Context, id int64) (bool, error)
}

// Claims serialises distribution of one posting across workers and job
// redeliveries.
type Claims interface {
	Claim(ctx context.Context, postingID int64, owner string) (bool, error)
	Release(ctx context.Context, postingID int64, owner string) error
}

type Matcher interface {
	FindMatchingSubscribers(ctx context.Context, p *models.Posting) ([]int64, error)
}

type Sender interface {
	SendPosting(ctx context.Context, chatID int64, p *models.Posting) error
}

type Handler struct {
	config   *Config
	postings PostingStore
	claims   Claims
	matcher  Matcher
	sender   Sender
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, postings PostingStore, claims Claims, matcher Matcher, sender Sender, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		postings: postings,
		claims:   claims,
		matcher:  matcher,
		sender:   sender,
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
		h.errors.HandleJobError(context.Background(), client, job, toJobError(err, input.PostingID))
		return
	}

	h.completeJob(client, job, output)
}

func toJobError(err error, postingID int64) error {
	switch {
	case errors.Is(err, ErrPostingNotFound):
		return commonerrors.NewPostingNotFoundError(postingID)
	case errors.Is(err, matching.ErrNoTags):
		return commonerrors.NewPostingUnclassifiedError(postingID)
	case errors.Is(err, ErrClaimFailed):
		return commonerrors.NewCacheOperationFailedError(err)
	case errors.Is(err, ErrInterrupted):
		return commonerrors.NewNotificationSendFailedError("telegram", err)
	default:
		return commonerrors.NewQueryExecutionFailedError("distribute posting", err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	owner := uuid.NewString()
	claimed, err := h.claims.Claim(ctx, input.PostingID, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimFailed, err)
	}
	if !claimed {
		h.logger.Info("posting is being distributed by another job", map[string]interface{}{"postingId": input.PostingID})
		return &Output{PostingID: input.PostingID, InProgress: true}, nil
	}
	defer h.release(input.PostingID, owner)

	// Read under the claim: a holder that finished has already marked it sent.
	p, err := h.postings.GetByID(ctx, input.PostingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrPostingNotFound, input.PostingID)
	}
	if p.Sent {
		h.logger.Info("posting already distributed", map[string]interface{}{"postingId": p.ID})
		return &Output{PostingID: p.ID, AlreadySent: true}, nil
	}
	if !p.Distributable() {
		return nil, fmt.Errorf("%w: posting %d", matching.ErrNoTags, p.ID)
	}

	recipients, err := h.matcher.FindMatchingSubscribers(ctx, p)
	if err != nil {
		return nil, err
	}
	metrics.SubscribersMatched.Observe(float64(len(recipients)))

	delivered, failed := h.fanOut(ctx, p, recipients)

	// A deadline hit mid fan-out leaves the posting unsent so a retry can finish it.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: posting %d interrupted after %d deliveries: %v", ErrInterrupted, p.ID, delivered, err)
	}

	if _, err := h.postings.MarkSent(ctx, p.ID); err != nil {
		return nil, err
	}

	h.logger.Info("posting distributed", map[string]interface{}{
		"postingId": p.ID,
		"matched":   len(recipients),
		"delivered": delivered,
		"failed":    failed,
	})

	return &Output{
		PostingID: p.ID,
		Matched:   len(recipients),
		Delivered: delivered,
		Failed:    failed,
	}, nil
}

// release runs on a fresh context so an expired job deadline still frees the
// claim for the retry.
func (h *Handler) release(postingID int64, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.claims.Release(ctx, postingID, owner); err != nil {
		h.logger.Warn("distribution claim not released", map[string]interface{}{
			"postingId": postingID,
			"error":     err.Error(),
		})
	}
}

// fanOut sends p to every recipient with bounded concurrency. A failed send
// is counted and never stops the others.
func (h *Handler) fanOut(ctx context.Context, p *models.Posting, recipients []int64) (int, int) {
	var delivered, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(h.config.Concurrency)
	for _, chatID := range recipients {
		chatID := chatID
		g.Go(func() error {
			if err := h.sender.SendPosting(ctx, chatID, p); err != nil {
				failed.Add(1)
				metrics.NotificationsSent.WithLabelValues("failed").Inc()
				h.logger.Warn("posting delivery failed", map[string]interface{}{
					"postingId": p.ID,
					"chatId":    chatID,
					"error":     err.Error(),
				})
				return nil
			}
			delivered.Add(1)
			metrics.NotificationsSent.WithLabelValues("delivered").Inc()
			return nil
		})
	}
	_ = g.Wait()

	return int(delivered.Load()), int(failed.Load())
}

// Execute runs the distribution outside of a job, for tests.
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
