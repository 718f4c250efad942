package main

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"lawjobs-workers/internal/access"
	"lawjobs-workers/internal/classification"
	"lawjobs-workers/internal/common/aws"
	"lawjobs-workers/internal/common/camunda"
	"lawjobs-workers/internal/common/config"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/hh"
	"lawjobs-workers/internal/matching"
	"lawjobs-workers/internal/posting"
	"lawjobs-workers/internal/registration"
	"lawjobs-workers/internal/repository"
	"lawjobs-workers/internal/search"
	"lawjobs-workers/internal/telegram"

	classifyposting "lawjobs-workers/internal/workers/postings/classify-posting"
	distributeposting "lawjobs-workers/internal/workers/postings/distribute-posting"
	fetchpostings "lawjobs-workers/internal/workers/postings/fetch-postings"
	matchsubscribers "lawjobs-workers/internal/workers/postings/match-subscribers"
	submitposting "lawjobs-workers/internal/workers/postings/submit-posting"
	sendrunreport "lawjobs-workers/internal/workers/reporting/send-run-report"
	resolvereview "lawjobs-workers/internal/workers/reviews/resolve-review"
	submitreview "lawjobs-workers/internal/workers/reviews/submit-review"
	registersubscriber "lawjobs-workers/internal/workers/subscribers/register-subscriber"
	setadmin "lawjobs-workers/internal/workers/subscribers/set-admin"
)

// services holds the shared dependencies the job handlers are built from.
type services struct {
	cfg         *config.Config
	postings    *repository.PostingStore
	subscribers *repository.SubscriberStore
	reviews     *repository.ReviewStore
	sessions    *registration.Store
	claims      *repository.DistributionClaims
	classifier  *classification.Classifier
	validator   *posting.Validator
	matcher     *matching.Engine
	checker     *access.Checker
	notifier    *telegram.Notifier
	indexer     *search.Indexer
	source      *hh.Client

	// nil when the channel is disabled
	mailer  sendrunreport.Mailer
	alerter sendrunreport.Alerter
}

func (s *services) connectAWS(ctx context.Context, log *zap.Logger) {
	awsCfg := s.cfg.Integrations.AWS
	if awsCfg.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, awsCfg.Region, awsCfg.SES.FromEmail)
		if err != nil {
			log.Warn("SES disabled", zap.Error(err))
		} else {
			s.mailer = ses
		}
	}
	if awsCfg.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, awsCfg.Region)
		if err != nil {
			log.Warn("SNS disabled", zap.Error(err))
		} else {
			s.alerter = sns
		}
	}
}

// handlers builds one job handler per task type.
func (s *services) handlers(log logger.Logger) map[string]worker.JobHandler {
	cfg := s.cfg
	return map[string]worker.JobHandler{
		fetchpostings.TaskType: fetchpostings.NewHandler(
			fetchpostings.LoadConfig(cfg), s.source, s.classifier, s.postings, s.indexer, log).Handle,
		classifyposting.TaskType: classifyposting.NewHandler(
			classifyposting.LoadConfig(cfg), s.classifier, log).Handle,
		matchsubscribers.TaskType: matchsubscribers.NewHandler(
			matchsubscribers.LoadConfig(cfg), s.postings, s.matcher, log).Handle,
		distributeposting.TaskType: distributeposting.NewHandler(
			distributeposting.LoadConfig(cfg), s.postings, s.claims, s.matcher, s.notifier, log).Handle,
		submitposting.TaskType: submitposting.NewHandler(
			submitposting.LoadConfig(cfg), s.checker, s.validator, s.postings, s.indexer, s.notifier, log).Handle,
		registersubscriber.TaskType: registersubscriber.NewHandler(
			registersubscriber.LoadConfig(cfg), s.subscribers, s.sessions, s.notifier, log).Handle,
		setadmin.TaskType: setadmin.NewHandler(
			setadmin.LoadConfig(cfg), s.checker, s.subscribers, s.notifier, log).Handle,
		submitreview.TaskType: submitreview.NewHandler(
			submitreview.LoadConfig(cfg), s.reviews, s.notifier, log).Handle,
		resolvereview.TaskType: resolvereview.NewHandler(
			resolvereview.LoadConfig(cfg), s.checker, s.reviews, s.notifier, log).Handle,
		sendrunreport.TaskType: sendrunreport.NewHandler(
			sendrunreport.LoadConfig(cfg), s.mailer, s.alerter, s.postings, s.subscribers, log).Handle,
	}
}

// startWorkers opens a job worker for every enabled task type.
func startWorkers(client zbc.Client, handlers map[string]worker.JobHandler, cfg *config.Config, opts camunda.Options, log logger.Logger) []*camunda.CamundaWorker {
	var started []*camunda.CamundaWorker
	for taskType, handler := range handlers {
		wc := config.GetWorkerConfig(cfg, taskType)
		if !wc.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		o := opts
		o.MaxJobsActive = wc.MaxJobsActive
		o.Timeout = config.GetDuration(wc.Timeout)
		started = append(started, camunda.NewWorker(client, taskType, handler, o, log))
	}
	return started
}
