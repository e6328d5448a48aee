package seeder

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

type Outcome int

const (
	RowInserted Outcome = iota
	RowSkippedDuplicate
	RowFailed
)

func (o Outcome) String() string {
	switch o {
	case RowInserted:
		return "inserted"
	case RowSkippedDuplicate:
		return "skipped-duplicate"
	default:
		return "failed"
	}
}

// RowResult is the outcome of inserting one generated row.
type RowResult struct {
	Index   int
	Outcome Outcome
	ID      int64
	Err     error
}

type BatchStatus string

const (
	BatchSeeded BatchStatus = "seeded"
	// BatchSkipped means top-up found enough rows already.
	BatchSkipped BatchStatus = "skipped"
	// BatchUnsatisfied means top-up had no parent rows from this run to
	// reference.
	BatchUnsatisfied BatchStatus = "unsatisfied"
	BatchFailed      BatchStatus = "failed"
)

// BatchReport aggregates one entity's batch.
type BatchReport struct {
	Entity   Entity
	Table    string
	Label    string
	Mode     Mode
	Status   BatchStatus
	Existing int64 // Rows for the tenant before the batch ran
	Deleted  int64
	Planned  int
	Rows     []RowResult
	Total    int64 // Rows for the tenant after the run
	Err      error
	Duration time.Duration
}

func (b *BatchReport) count(o Outcome) int {
	n := 0
	for _, r := range b.Rows {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

func (b *BatchReport) Inserted() int   { return b.count(RowInserted) }
func (b *BatchReport) Duplicates() int { return b.count(RowSkippedDuplicate) }
func (b *BatchReport) Failed() int     { return b.count(RowFailed) }

// Summary is the result of one run. It is returned even when the run
// aborts, covering the batches that completed.
type Summary struct {
	RunID   string
	Tenant  int64
	Mode    Mode
	Order   []Entity
	Batches []*BatchReport
	Elapsed time.Duration
}

func (s *Summary) Batch(e Entity) *BatchReport {
	for _, b := range s.Batches {
		if b.Entity == e {
			return b
		}
	}
	return nil
}

// Inserted totals rows inserted across all batches.
func (s *Summary) Inserted() int {
	n := 0
	for _, b := range s.Batches {
		n += b.Inserted()
	}
	return n
}

func (s *Summary) Print(w io.Writer) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "\n📊 Summary for hospital %d (%s mode)\n", s.Tenant, s.Mode)
	fmt.Fprintf(w, "   %-18s %-12s %8s %8s %8s %8s %8s\n", "ENTITY", "STATUS", "DELETED", "NEW", "DUPES", "FAILED", "TOTAL")

	for _, b := range s.Batches {
		status := string(b.Status)
		switch b.Status {
		case BatchSeeded:
			status = color.GreenString("%-12s", status)
		case BatchSkipped:
			status = color.CyanString("%-12s", status)
		case BatchUnsatisfied:
			status = color.YellowString("%-12s", status)
		default:
			status = color.RedString("%-12s", status)
		}
		fmt.Fprintf(w, "   %-18s %s %8d %8d %8d %8d %8d\n",
			b.Label, status, b.Deleted, b.Inserted(), b.Duplicates(), b.Failed(), b.Total)
	}
	fmt.Fprintf(w, "\n   %d rows inserted in %s\n", s.Inserted(), s.Elapsed.Round(time.Millisecond))
}
