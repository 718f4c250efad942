package matchsubscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/matching"
	"lawjobs-workers/internal/models"
)

const (
	TaskType = "match-subscribers"
)

var (
	ErrPostingNotFound = errors.New("POSTING_NOT_FOUND")
)

type PostingLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Posting, error)
}

type Matcher interface {
	FindMatchingSubscribers(ctx context.Context, p *models.Posting) ([]int64, error)
}

type Handler struct {
	config   *Config
	postings PostingLookup
	matcher  Matcher
	errors   *commonerrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, postings PostingLookup, matcher Matcher, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		postings: postings,
		matcher:  matcher,
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
		h.errors.HandleJobError(ctx, client, job, toJobError(err, input.PostingID))
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
	default:
		return commonerrors.NewQueryExecutionFailedError("match subscribers", err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	p, err := h.postings.GetByID(ctx, input.PostingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrPostingNotFound, input.PostingID)
	}

	ids, err := h.matcher.FindMatchingSubscribers(ctx, p)
	if err != nil {
		return nil, err
	}
	metrics.SubscribersMatched.Observe(float64(len(ids)))

	h.logger.Info("subscribers matched", map[string]interface{}{
		"postingId": p.ID,
		"matched":   len(ids),
	})

	return &Output{
		PostingID:     p.ID,
		SubscriberIDs: ids,
		Matched:       len(ids),
	}, nil
}

// Execute runs the matching outside of a job, for tests.
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
		"jobKey":  job.Key,
		"matched": output.Matched,
	})
}
