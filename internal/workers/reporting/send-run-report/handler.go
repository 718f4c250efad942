package sendrunreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
)

const (
	TaskType = "send-run-report"
)

var (
	ErrReportSendFailed = errors.New("REPORT_SEND_FAILED")
)

type Mailer interface {
	SendText(ctx context.Context, to []string, subject, body string) (string, error)
}

type Alerter interface {
	PublishAlert(ctx context.Context, topicARN, subject, message string) (string, error)
}

type PostingStats interface {
	CountByState(ctx context.Context) (sent, unsent int, err error)
}

type SubscriberCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	config      *Config
	mailer      Mailer
	alerter     Alerter
	postings    PostingStats
	subscribers SubscriberCounter
	errors      *commonerrors.ErrorHandler
	logger      logger.Logger
}

// NewHandler builds the report handler. mailer and alerter may be nil when
// the channel is disabled.
func NewHandler(config *Config, mailer Mailer, alerter Alerter, postings PostingStats, subscribers SubscriberCounter, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		mailer:      mailer,
		alerter:     alerter,
		postings:    postings,
		subscribers: subscribers,
		errors:      commonerrors.NewErrorHandler(scoped),
		logger:      scoped,
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
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.NewReportSendFailedError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	summary := h.summarize(ctx, input)
	output := &Output{ReportID: uuid.New().String()}

	subject := fmt.Sprintf("Lawjobs run %s: %d new, %d delivered, %d failed",
		input.RunID, summary.Ingested, summary.Delivered, summary.Failed)

	if h.mailer != nil && len(h.config.Recipients) > 0 {
		id, err := h.mailer.SendText(ctx, h.config.Recipients, subject, RenderReport(output.ReportID, summary))
		if err != nil {
			return nil, fmt.Errorf("%w: email: %v", ErrReportSendFailed, err)
		}
		output.EmailMessageID = id
	}

	if reason := h.alertReason(summary); reason != "" && h.alerter != nil && h.config.AlertTopic != "" {
		id, err := h.alerter.PublishAlert(ctx, h.config.AlertTopic, "Lawjobs run needs attention", reason+"\n"+subject)
		if err != nil {
			return nil, fmt.Errorf("%w: alert: %v", ErrReportSendFailed, err)
		}
		output.AlertMessageID = id
		output.Alerted = true
	}

	h.logger.Info("run report sent", map[string]interface{}{
		"runId":    input.RunID,
		"reportId": output.ReportID,
		"alerted":  output.Alerted,
	})
	return output, nil
}

// summarize totals the distributions and adds store counts. Count failures
// leave the counts at zero.
func (h *Handler) summarize(ctx context.Context, input *Input) Summary {
	s := Summary{Input: *input}
	for _, d := range input.Distributions {
		s.Delivered += d.Delivered
		s.Failed += d.Failed
	}
	if h.postings != nil {
		sent, unsent, err := h.postings.CountByState(ctx)
		if err != nil {
			h.logger.Warn("posting counts unavailable", map[string]interface{}{"error": err.Error()})
		}
		s.SentPostings, s.UnsentPostings = sent, unsent
	}
	if h.subscribers != nil {
		n, err := h.subscribers.Count(ctx)
		if err != nil {
			h.logger.Warn("subscriber count unavailable", map[string]interface{}{"error": err.Error()})
		}
		s.SubscriberCount = n
	}
	return s
}

func (h *Handler) alertReason(s Summary) string {
	var reasons []string
	if s.Failed > 0 {
		reasons = append(reasons, fmt.Sprintf("%d deliveries failed", s.Failed))
	}
	if s.FetchFailed > 0 && s.Ingested == 0 {
		reasons = append(reasons, fmt.Sprintf("%d postings could not be fetched", s.FetchFailed))
	}
	if h.config.AlertOnZero && s.Ingested == 0 {
		reasons = append(reasons, "no postings ingested")
	}
	return strings.Join(reasons, "; ")
}

// RenderReport lays the summary out as plain-text tables.
func RenderReport(reportID string, s Summary) string {
	totals := table.NewWriter()
	totals.SetTitle("Run " + s.RunID)
	totals.AppendHeader(table.Row{"Metric", "Value"})
	totals.AppendRows([]table.Row{
		{"Started", s.StartedAt},
		{"Found", s.Found},
		{"Ingested", s.Ingested},
		{"Duplicates", s.Duplicates},
		{"Without description", s.SkippedNoText},
		{"Without tags", s.SkippedNoTags},
		{"Fetch failed", s.FetchFailed},
		{"Delivered", s.Delivered},
		{"Delivery failed", s.Failed},
		{"Postings sent / unsent", fmt.Sprintf("%d / %d", s.SentPostings, s.UnsentPostings)},
		{"Subscribers", s.SubscriberCount},
	})

	var b strings.Builder
	b.WriteString(totals.Render())

	if len(s.Distributions) > 0 {
		per := table.NewWriter()
		per.AppendHeader(table.Row{"Posting", "Matched", "Delivered", "Failed"})
		for _, d := range s.Distributions {
			per.AppendRow(table.Row{d.PostingID, d.Matched, d.Delivered, d.Failed})
		}
		b.WriteString("\n\n")
		b.WriteString(per.Render())
	}

	b.WriteString("\n\nReport ID: ")
	b.WriteString(reportID)
	return b.String()
}

// Execute sends one report outside of a job, for tests.
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
		"reportId": output.ReportID,
	})
}
