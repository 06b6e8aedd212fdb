package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

// MetricsReportJob periodically logs the in-process metrics. Nil sources are
// skipped.
type MetricsReportJob struct {
	Search     *shared.ServiceMetrics
	Database   *shared.DatabaseMetrics
	ProviderIO *shared.HTTPMetrics
	Extraction *shared.ExtractionMetrics
}

func (j *MetricsReportJob) Run() {
	if j.Search != nil {
		j.Search.LogSummary()
	}
	if j.Database != nil {
		snapshot := j.Database.Snapshot()
		logrus.WithFields(logrus.Fields{
			"component":          "MetricsReportJob",
			"total_queries":      snapshot.TotalQueries,
			"failed_queries":     snapshot.FailedQueries,
			"slow_queries":       snapshot.SlowQueries,
			"retries":            snapshot.Retries,
			"average_query_time": snapshot.AverageQueryTime,
		}).Info("Database metrics")
	}
	if j.ProviderIO != nil {
		snapshot := j.ProviderIO.Snapshot()
		logrus.WithFields(logrus.Fields{
			"component":             "MetricsReportJob",
			"total_requests":        snapshot.TotalRequests,
			"failed_requests":       snapshot.FailedRequests,
			"retry_attempts":        snapshot.RetryAttempts,
			"average_response_time": snapshot.AverageResponseTime,
		}).Info("Provider HTTP metrics")
	}
	if j.Extraction != nil {
		j.Extraction.LogSummary()
	}
}

func (j *MetricsReportJob) Start(ctx context.Context, interval time.Duration) {
	logrus.WithFields(logrus.Fields{
		"component": "MetricsReportJob",
		"interval":  interval,
	}).Info("Starting metrics report job")

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Run()
			}
		}
	}()
}
