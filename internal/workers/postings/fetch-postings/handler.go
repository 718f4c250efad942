package fetchpostings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	commonerrors "lawjobs-workers/internal/common/errors"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/common/metrics"
	"lawjobs-workers/internal/hh"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/repository"
)

const (
	TaskType = "fetch-postings"
)

var (
	ErrInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

type Source interface {
	SearchVacancies(ctx context.Context, params hh.SearchParams) (*hh.SearchResponse, error)
	GetVacancy(ctx context.Context, id string) (*hh.VacancyDetail, error)
	GetEmployer(ctx context.Context, id string) (*hh.Employer, error)
}

type Classifier interface {
	ClassifyTags(description string, seeds []string) []models.PracticeArea
	ClassifyEmployer(description *string) models.EmployerCategory
}

type PostingStore interface {
	Insert(ctx context.Context, p *models.Posting) (bool, error)
	FindUnsent(ctx context.Context, limit int) ([]int64, error)
}

type Indexer interface {
	IndexPosting(ctx context.Context, p *models.Posting) error
}

type Handler struct {
	config     *Config
	source     Source
	classifier Classifier
	postings   PostingStore
	indexer    Indexer
	errors     *commonerrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler builds the ingestion handler. indexer may be nil.
func NewHandler(config *Config, source Source, classifier Classifier, postings PostingStore, indexer Indexer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		source:     source,
		classifier: classifier,
		postings:   postings,
		indexer:    indexer,
		errors:     commonerrors.NewErrorHandler(scoped),
		logger:     scoped,
		now:        func() time.Time { return time.Now().UTC() },
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
	case errors.Is(err, context.DeadlineExceeded):
		return commonerrors.NewSourceTimeoutError("hh.ru")
	case errors.Is(err, hh.ErrFetchFailed):
		return commonerrors.NewSourceFetchFailedError("hh.ru", err)
	case errors.Is(err, ErrInsertFailed), errors.Is(err, repository.ErrInsertFailed):
		return commonerrors.NewDatabaseInsertFailedError(err)
	default:
		return commonerrors.NewQueryExecutionFailedError("fetch postings", err)
	}
}

// itemResult is the outcome of one search item.
type itemResult int

const (
	itemIngested itemResult = iota
	itemDuplicate
	itemNoDescription
	itemNoTags
	itemFetchFailed
)

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	items, found, err := h.search(ctx, input)
	if err != nil {
		return nil, err
	}

	output := &Output{RunID: input.RunID, Found: found}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.FetchConcurrency)
	for i := range items {
		item := &items[i]
		g.Go(func() error {
			result, err := h.ingest(gctx, item)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch result {
			case itemIngested:
				output.Ingested++
				metrics.PostingsIngested.Inc()
			case itemDuplicate:
				output.Duplicates++
				metrics.PostingsSkipped.WithLabelValues(metrics.SkipDuplicate).Inc()
			case itemNoDescription:
				output.SkippedNoText++
				metrics.PostingsSkipped.WithLabelValues(metrics.SkipNoDescription).Inc()
			case itemNoTags:
				output.SkippedNoTags++
				metrics.PostingsSkipped.WithLabelValues(metrics.SkipNoTags).Inc()
			case itemFetchFailed:
				output.FetchFailed++
				metrics.PostingsSkipped.WithLabelValues(metrics.SkipFetchFailed).Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unsent, err := h.postings.FindUnsent(ctx, h.config.UnsentLimit)
	if err != nil {
		return nil, err
	}
	output.UnsentPostingIDs = unsent

	h.logger.Info("postings fetched", map[string]interface{}{
		"runId":      input.RunID,
		"found":      output.Found,
		"ingested":   output.Ingested,
		"duplicates": output.Duplicates,
		"noText":     output.SkippedNoText,
		"noTags":     output.SkippedNoTags,
		"failed":     output.FetchFailed,
		"unsent":     len(unsent),
	})
	return output, nil
}

// search walks the result pages until the last one or the page cap.
func (h *Handler) search(ctx context.Context, input *Input) ([]hh.VacancyItem, int, error) {
	params := h.config.Search
	if input.Text != "" {
		params.Text = input.Text
	}
	if input.PeriodDays > 0 {
		params.PeriodDays = input.PeriodDays
	}
	maxPages := h.config.MaxPages
	if input.MaxPages > 0 {
		maxPages = input.MaxPages
	}

	var items []hh.VacancyItem
	found := 0
	for page := 0; page < maxPages; page++ {
		params.Page = page
		resp, err := h.source.SearchVacancies(ctx, params)
		if err != nil {
			return nil, 0, err
		}
		found = resp.Found
		items = append(items, resp.Items...)
		if page+1 >= resp.Pages || len(resp.Items) == 0 {
			break
		}
	}
	return items, found, nil
}

// ingest fetches the detail and the employer of one item in parallel, builds
// the posting and stores it. Only storage failures are returned as errors.
func (h *Handler) ingest(ctx context.Context, item *hh.VacancyItem) (itemResult, error) {
	id, err := item.PostingID()
	if err != nil {
		h.logger.Warn("unparseable vacancy id", map[string]interface{}{"vacancyId": item.ID})
		return itemFetchFailed, nil
	}

	var (
		detail   *hh.VacancyDetail
		employer *hh.Employer
	)
	fetch, fctx := errgroup.WithContext(ctx)
	fetch.Go(func() error {
		d, err := h.source.GetVacancy(fctx, item.ID)
		detail = d
		return err
	})
	if item.Employer.ID != "" {
		fetch.Go(func() error {
			e, err := h.source.GetEmployer(fctx, item.Employer.ID)
			if err != nil {
				// An employer without a readable page falls back to the default category.
				h.logger.Warn("employer fetch failed", map[string]interface{}{
					"employerId": item.Employer.ID,
					"error":      err.Error(),
				})
				return nil
			}
			employer = e
			return nil
		})
	}
	if err := fetch.Wait(); err != nil {
		h.logger.Warn("vacancy fetch failed", map[string]interface{}{
			"postingId": id,
			"error":     err.Error(),
		})
		return itemFetchFailed, nil
	}

	description, err := hh.CleanDescription(detail.Description)
	if err != nil || description == "" {
		return itemNoDescription, nil
	}

	tags := h.classifier.ClassifyTags(description, detail.SkillNames())
	if len(tags) == 0 {
		return itemNoTags, nil
	}

	p := &models.Posting{
		ID:               id,
		Title:            item.Name,
		URL:              item.AlternateURL,
		EmployerName:     item.Employer.Name,
		EmployerCategory: h.classifier.ClassifyEmployer(employerDescription(employer)),
		Experience:       hh.ExperienceBucket(item.Experience.ID),
		Salary:           item.Salary.ToSalary(),
		Address:          hh.FormatAddress(item.Address),
		MetroStations:    hh.MetroStations(item.Address),
		Tags:             tags,
		Description:      description,
		CreatedAt:        h.now(),
	}

	inserted, err := h.postings.Insert(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("%w: posting %d: %v", ErrInsertFailed, id, err)
	}
	if !inserted {
		return itemDuplicate, nil
	}

	for _, tag := range tags {
		metrics.ClassificationTags.WithLabelValues(string(tag)).Inc()
	}
	if h.indexer != nil {
		if err := h.indexer.IndexPosting(ctx, p); err != nil {
			h.logger.Warn("posting not indexed", map[string]interface{}{
				"postingId": id,
				"error":     err.Error(),
			})
		}
	}
	return itemIngested, nil
}

func employerDescription(e *hh.Employer) *string {
	if e == nil || strings.TrimSpace(e.Description) == "" {
		return nil
	}
	text, err := hh.CleanDescription(e.Description)
	if err != nil || text == "" {
		return nil
	}
	return &text
}

// Execute runs one ingestion pass outside of a job, for tests.
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
		"ingested": output.Ingested,
	})
}
