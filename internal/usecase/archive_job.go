package usecase

import (
	"context"
	"fmt"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/queue"
)

// ArchiveJobType is the queue message type carrying completed signals.
const ArchiveJobType = "signal_archive"

// ArchivePayload is the message body for one completed signal.
type ArchivePayload struct {
	Signal  *models.TradingSignal     `json:"signal"`
	Records []models.PredictionRecord `json:"records"`
}

// ArchiveJob drains completed signals from the queue into cold storage. It
// keeps the verifier free of ClickHouse latency: archiving failures retry
// through the queue instead of blocking verification ticks.
type ArchiveJob struct {
	archive repository.SignalArchive
}

var _ queue.Job = (*ArchiveJob)(nil)

func NewArchiveJob(archive repository.SignalArchive) *ArchiveJob {
	return &ArchiveJob{archive: archive}
}

func (j *ArchiveJob) Name() string { return "signal-archive" }
func (j *ArchiveJob) Type() string { return ArchiveJobType }

func (j *ArchiveJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ArchivePayload](payload)
	if err != nil {
		return fmt.Errorf("archive payload: %w", err)
	}
	if p.Signal == nil {
		return fmt.Errorf("archive payload: nil signal")
	}
	if err := j.archive.Archive(ctx, p.Signal, p.Records); err != nil {
		return fmt.Errorf("archive signal %s: %w", p.Signal.ID, err)
	}
	return nil
}
