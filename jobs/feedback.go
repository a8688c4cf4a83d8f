// Package jobs defines the service's background work, run on a river queue
// backed by the same postgres pool as the analytics store.
package jobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/sirupsen/logrus"
)

// FeedbackReceivedArgs is enqueued in the same transaction that persists a
// feedback row, so the job exists iff the row does.
type FeedbackReceivedArgs struct {
	FeedbackID string `json:"feedback_id"`
	Reference  string `json:"reference"`
	Category   string `json:"category"`
}

func (FeedbackReceivedArgs) Kind() string { return "feedback_received" }

// FeedbackReceivedWorker handles post-submission processing of feedback.
// Today that is operator notification via the log stream; the job boundary
// is what matters — submission latency never includes it.
type FeedbackReceivedWorker struct {
	river.WorkerDefaults[FeedbackReceivedArgs]
	log *logrus.Entry
}

func (w *FeedbackReceivedWorker) Work(_ context.Context, job *river.Job[FeedbackReceivedArgs]) error {
	w.log.WithFields(logrus.Fields{
		"feedback_id": job.Args.FeedbackID,
		"reference":   job.Args.Reference,
		"category":    job.Args.Category,
	}).Info("feedback received")
	return nil
}

// NewClient builds the river client with this service's workers registered.
func NewClient(pool *pgxpool.Pool, log *logrus.Entry) (*river.Client[pgx.Tx], error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	workers := river.NewWorkers()
	river.AddWorker(workers, &FeedbackReceivedWorker{log: log})
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
}
