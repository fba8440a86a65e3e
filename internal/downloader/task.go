package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"s3download/internal/models"
	"s3download/internal/progress"
	"s3download/internal/s3client"
	"s3download/pkg/utils"
)

// Transfer is the object store client a task downloads with.
type Transfer interface {
	Download(ctx context.Context, bucket, key, destination string, fn s3client.ProgressFunc) (int64, error)
}

// Task executes single jobs. It never panics or returns errors to its caller;
// every failure ends up in the returned outcome.
type Task struct {
	transfer Transfer
	board    *progress.Board
	logger   *slog.Logger
}

func NewTask(transfer Transfer, board *progress.Board, logger *slog.Logger) *Task {
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		transfer: transfer,
		board:    board,
		logger:   logger,
	}
}

func (t *Task) Run(ctx context.Context, job models.Job) models.Outcome {
	start := time.Now()
	outcome := models.Outcome{Job: job}

	if destinationExists(job.Destination) {
		t.board.Println(skipMessage(job.Destination))
		outcome.Kind = models.OutcomeSkipped
		return outcome
	}

	size, err := t.download(ctx, job)
	outcome.Duration = time.Since(start)
	if err != nil {
		return t.fail(outcome, err)
	}

	t.board.Complete(job.Destination)
	outcome.Kind = models.OutcomeCompleted
	outcome.Size = size
	t.logger.Debug("download completed", "key", job.Key, "destination", job.Destination, "bytes", size, "duration", outcome.Duration)
	return outcome
}

func (t *Task) download(ctx context.Context, job models.Job) (size int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during download: %v", r)
		}
	}()

	return t.transfer.Download(ctx, job.Bucket, job.Key, job.Destination, func(p s3client.Progress) {
		if p.IsCompleted {
			t.board.Complete(job.Destination)
			return
		}
		t.board.Update(job.Destination, utils.FormatProgress(p.TransferredBytes, p.TotalBytes, p.PercentDone))
	})
}

func (t *Task) fail(outcome models.Outcome, err error) models.Outcome {
	job := outcome.Job
	outcome.Kind = models.OutcomeFailed
	outcome.Err = err

	if svcErr, ok := s3client.AsServiceError(err); ok {
		outcome.Reason = models.FailureService
		t.board.Println(fmt.Sprintf("Error encountered on server. Message:'%s' when downloading %s to %s",
			svcErr.Message(), job.Key, job.Destination))
	} else {
		outcome.Reason = models.FailureUnknown
		t.board.Println(fmt.Sprintf("Unknown error encountered. Message:'%s' when downloading %s to %s",
			err.Error(), job.Key, job.Destination))
	}

	t.logger.Error("download failed", "key", job.Key, "destination", job.Destination, "reason", string(outcome.Reason), "error", err)
	return outcome
}

func destinationExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func skipMessage(path string) string {
	return path + " already exists, skipping..."
}
