package camunda

import (
	"context"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/common/observability"
	"lawjobs-workers/internal/common/validation"
)

// InputValidator checks raw job variables before a handler runs.
type InputValidator interface {
	Validate(taskType, variables string) *validation.ValidationResult
}

// JobErrorReporter reports a job that never reached its handler.
type JobErrorReporter interface {
	HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error)
}

// Options carries what every worker shares. Nil fields are skipped.
type Options struct {
	MaxJobsActive int
	Timeout       time.Duration
	Validator     InputValidator
	Errors        JobErrorReporter
	Observability *observability.Observability
}

// Instrument wraps handler with schema validation, tracing and job metrics.
func Instrument(taskType string, handler worker.JobHandler, opts Options, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		ctx := context.Background()

		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		if opts.Observability != nil {
			spanCtx, s := opts.Observability.StartJobSpan(ctx, taskType, job.Key, job.ProcessInstanceKey)
			ctx = spanCtx
			defer s.End()
		}

		status := "processed"
		if opts.Validator != nil {
			if result := opts.Validator.Validate(taskType, job.Variables); !result.Valid {
				status = "rejected"
				log.Warn("job input rejected by schema", map[string]interface{}{
					"taskType": taskType,
					"jobKey":   job.Key,
					"errors":   result.GetErrorMessages(),
				})
				if opts.Errors != nil {
					opts.Errors.HandleJobError(ctx, client, job,
						errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; ")))
				}
				record(ctx, opts, taskType, start, status)
				return
			}
		}

		handler(client, job)
		record(ctx, opts, taskType, start, status)
	}
}

func record(ctx context.Context, opts Options, taskType string, start time.Time, status string) {
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
	if opts.Observability != nil {
		opts.Observability.RecordJobProcessed(ctx, taskType, status)
		opts.Observability.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType with the instrumented handler.
func NewWorker(client zbc.Client, taskType string, handler worker.JobHandler, opts Options, log logger.Logger) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, opts, log))
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout_ms":    opts.Timeout.Milliseconds(),
	})
	return w
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for active handlers.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
