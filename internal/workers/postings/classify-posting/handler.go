package classifyposting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/models"
)

const (
	TaskType = "classify-posting"
)

type Classifier interface {
	ClassifyTags(description string, seeds []string) []models.PracticeArea
	ClassifyEmployer(description *string) models.EmployerCategory
}

type Handler struct {
	config     *Config
	classifier Classifier
	errors     *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, classifier Classifier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		classifier: classifier,
		errors:     commonerrors.NewErrorHandler(scoped),
		logger:     scoped,
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
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tags := h.classifier.ClassifyTags(input.Description, input.Seeds)
	category := h.classifier.ClassifyEmployer(input.EmployerDescription)

	for _, tag := range tags {
		metrics.ClassificationTags.WithLabelValues(string(tag)).Inc()
	}

	h.logger.Debug("posting classified", map[string]interface{}{
		"tags":             tags,
		"employerCategory": category,
	})

	return &Output{
		Tags:             tags,
		EmployerCategory: category,
		Classified:       len(tags) > 0,
	}, nil
}

// Execute runs the classification outside of a job, for tests.
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
