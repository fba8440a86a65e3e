package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"s3download/internal/models"
	"s3download/internal/progress"
	"s3download/pkg/utils"
)

// Plan is the input of one run: every file is downloaded into every folder.
type Plan struct {
	Bucket  string
	Files   []string
	Folders []string
}

// Jobs expands the plan into jobs, files in the outer loop and folders in the
// inner one. A destination that appears twice is only kept the first time.
func (p Plan) Jobs() []models.Job {
	jobs := make([]models.Job, 0, len(p.Files)*len(p.Folders))
	seen := make(map[string]bool, cap(jobs))
	for _, file := range p.Files {
		for _, folder := range p.Folders {
			dest := filepath.Join(folder, file)
			if seen[dest] {
				continue
			}
			seen[dest] = true
			jobs = append(jobs, models.Job{Bucket: p.Bucket, Key: file, Destination: dest})
		}
	}
	return jobs
}

type Option func(*Orchestrator)

// WithConcurrency bounds the number of downloads in flight. Zero or a
// negative value starts every download at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator runs a plan to completion and prints the elapsed time below the board.
type Orchestrator struct {
	transfer    Transfer
	board       *progress.Board
	out         io.Writer
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func New(transfer Transfer, board *progress.Board, out io.Writer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transfer: transfer,
		board:    board,
		out:      out,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run downloads every job of the plan and blocks until all of them have an
// outcome. Outcomes are returned in job order whatever order the downloads
// finished in.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) *models.DownloadResult {
	start := o.now()
	jobs := plan.Jobs()
	outcomes := make([]models.Outcome, len(jobs))
	task := NewTask(o.transfer, o.board, o.logger)

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	launched := 0
	for i, job := range jobs {
		if destinationExists(job.Destination) {
			o.board.Println(skipMessage(job.Destination))
			outcomes[i] = models.Outcome{Job: job, Kind: models.OutcomeSkipped}
			continue
		}
		launched++
		g.Go(func() error {
			outcomes[i] = task.Run(ctx, job)
			return nil
		})
	}
	o.logger.Debug("downloads launched", "jobs", len(jobs), "launched", launched, "concurrency", o.concurrency)

	// Tasks report failures through their outcome, so Wait only acts as a barrier.
	_ = g.Wait()
	elapsed := o.now().Sub(start)

	o.board.Close()
	fmt.Fprintf(o.out, "Completed in %s\n", utils.FormatElapsed(elapsed))

	return buildResult(plan.Bucket, start, elapsed, outcomes)
}

func buildResult(bucket string, start time.Time, elapsed time.Duration, outcomes []models.Outcome) *models.DownloadResult {
	result := &models.DownloadResult{
		BucketName:       bucket,
		Items:            make([]models.DownloadItem, 0, len(outcomes)),
		TotalFiles:       len(outcomes),
		OperationTime:    utils.FormatTime(start),
		DownloadDuration: utils.FormatElapsed(elapsed),
	}

	for _, outcome := range outcomes {
		item := models.DownloadItem{
			RemotePath: outcome.Job.Key,
			LocalPath:  outcome.Job.Destination,
			Outcome:    outcome.Kind,
			Reason:     outcome.Reason,
			Size:       outcome.Size,
			Duration:   outcome.Duration.Round(time.Millisecond).String(),
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}

		switch outcome.Kind {
		case models.OutcomeCompleted:
			result.CompletedFiles++
			result.TotalSizeBytes += outcome.Size
		case models.OutcomeSkipped:
			result.SkippedFiles++
		case models.OutcomeFailed:
			result.FailedFiles++
		}
		result.Items = append(result.Items, item)
	}

	result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)
	return result
}
