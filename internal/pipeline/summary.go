package pipeline

import "time"

// Summary is the result of one batch run.
type Summary struct {
	RunID  string
	Root   string
	DryRun bool
	Stop   StopReason

	Discovered int
	Converted  int
	Reused     int
	Skipped    int
	Failed     int

	// Bytes is the cumulative output size counted toward the size limit,
	// reused outputs included.
	Bytes int64

	// Totals over files converted in this run (not reused, not dry run).
	TotalInputBytes  int64
	TotalOutputBytes int64

	Outcomes []Outcome
	Started  time.Time
	Finished time.Time
}

// SpaceSaved returns the aggregate byte difference between inputs and
// outputs converted in this run. Positive means outputs are smaller.
func (s *Summary) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Elapsed returns the wall-clock duration of the run.
func (s *Summary) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// OK reports whether the run finished without failures or an abort.
// Reaching a limit is a normal stop.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Stop != StopAborted && s.Stop != StopInterrupted
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Kind.Counted() && o.Reused {
		s.Reused++
	}
	if o.Kind.Counted() && !o.Reused && !o.DryRun {
		s.TotalInputBytes += o.InputBytes
		s.TotalOutputBytes += o.Bytes
	}
}

func (s *Summary) absorb(b *Batch) {
	s.Converted = b.Converted
	s.Bytes = b.Bytes
	s.Skipped = b.Skipped
	s.Failed = b.Failed
}
