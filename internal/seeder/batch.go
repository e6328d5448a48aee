package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// batch is one entity's unit of work within a run.
type batch struct {
	spec     EntitySpec
	count    int
	producer *Producer
	rc       *RunContext
	log      zerolog.Logger
}

// missingParent returns the first required relation whose parent has no
// ids in this run.
func (b *batch) missingParent() *DependencyUnsatisfiedError {
	for _, rel := range b.spec.Relations {
		if rel.OnEmpty == OnEmptyFail && len(b.rc.ids[rel.Parent]) == 0 {
			return &DependencyUnsatisfiedError{Entity: b.spec.Name, Parent: rel.Parent, Column: rel.Column}
		}
	}
	return nil
}

func (b *batch) needsRows() bool {
	return b.spec.Derived || b.count > 0
}

// runReset deletes the tenant's rows and inserts the new ones in a single
// transaction. Any error, duplicates included, rolls the batch back.
func (s *Seeder) runReset(ctx context.Context, b *batch, report *BatchReport) error {
	if b.needsRows() {
		if err := b.missingParent(); err != nil {
			return err
		}
	}

	records, err := b.spec.produce(b.producer, b.rc, b.spec.Relations, b.count)
	if err != nil {
		return err
	}
	report.Planned = len(records)

	ids := make([]int64, len(records))
	err = s.store.WithTx(ctx, func(w store.Writer) error {
		deleted, err := w.DeleteTenant(ctx, b.spec.Table, b.rc.Tenant)
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", b.spec.Table, err)
		}
		report.Deleted += deleted

		for i, rec := range records {
			id, err := w.Insert(ctx, b.spec.Table, rec)
			if err != nil {
				if errors.Is(err, store.ErrUniqueViolation) {
					return fmt.Errorf("row %d: unexpected duplicate after reset: %w", i+1, err)
				}
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return err
	}

	report.Rows = make([]RowResult, len(records))
	for i, id := range ids {
		report.Rows[i] = RowResult{Index: i, Outcome: RowInserted, ID: id}
	}
	b.rc.set(b.spec.Name, ids, records)
	return nil
}

// runTopUp inserts rows one at a time, each in its own statement, when the
// tenant has fewer rows than the threshold or, for derived entities, when
// parent rows were added in this run. Duplicates and row failures are
// recorded and do not stop the batch.
func (s *Seeder) runTopUp(ctx context.Context, b *batch, report *BatchReport, threshold, workers int) error {
	// Derived rows follow their parents: new parent rows always get theirs,
	// however many the tenant already has.
	fresh := b.spec.Derived && b.rc.seeded(b.spec.Relations)
	if report.Existing >= int64(threshold) && !fresh {
		report.Status = BatchSkipped
		b.log.Info().Int64("existing", report.Existing).Int("threshold", threshold).Msg("already populated, skipping")
		return nil
	}

	if b.needsRows() {
		if err := b.missingParent(); err != nil {
			report.Status = BatchUnsatisfied
			report.Err = err
			b.log.Warn().Err(err).Msg("skipping batch")
			return nil
		}
	}

	records, err := b.spec.produce(b.producer, b.rc, b.spec.Relations, b.count)
	if err != nil {
		return err
	}
	report.Planned = len(records)

	if workers < 1 {
		workers = 1
	}
	results := make([]RowResult, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id, err := s.store.Insert(gctx, b.spec.Table, rec)
			switch {
			case err == nil:
				results[i] = RowResult{Index: i, Outcome: RowInserted, ID: id}
			case errors.Is(err, store.ErrUniqueViolation):
				results[i] = RowResult{Index: i, Outcome: RowSkippedDuplicate, Err: err}
				b.log.Info().Int("row", i+1).Msg("duplicate row skipped")
			default:
				results[i] = RowResult{Index: i, Outcome: RowFailed, Err: err}
				b.log.Warn().Err(err).Int("row", i+1).Msg("row insert failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	report.Rows = results

	var ids []int64
	var kept []store.Record
	var ordinals []int
	for i, r := range results {
		if r.Outcome == RowInserted {
			ids = append(ids, r.ID)
			kept = append(kept, records[i])
			ordinals = append(ordinals, i+1)
		}
	}
	b.rc.setOrdinals(b.spec.Name, ids, kept, ordinals)
	return nil
}

func (s *Seeder) runBatch(ctx context.Context, b *batch, opts Options) (*BatchReport, error) {
	start := time.Now()
	report := &BatchReport{
		Entity: b.spec.Name,
		Table:  b.spec.Table,
		Label:  b.spec.Label,
		Mode:   opts.Mode,
		Status: BatchSeeded,
	}

	existing, err := s.store.Count(ctx, b.spec.Table, b.rc.Tenant)
	if err != nil {
		return report, fmt.Errorf("failed to count %s: %w", b.spec.Table, err)
	}
	report.Existing = existing

	if opts.Mode == ModeReset {
		err = s.runReset(ctx, b, report)
	} else {
		err = s.runTopUp(ctx, b, report, opts.Threshold, opts.Workers)
	}
	report.Duration = time.Since(start)
	if err != nil {
		report.Status = BatchFailed
		report.Err = err
		return report, err
	}

	if report.Status == BatchSeeded {
		b.log.Info().
			Int("inserted", report.Inserted()).
			Int("duplicates", report.Duplicates()).
			Int("failed", report.Failed()).
			Dur("took", report.Duration).
			Msg("batch complete")
	}
	return report, nil
}
