package pipeline

// Limits are the stopping conditions of a batch. Zero disables a limit.
type Limits struct {
	Count int
	Bytes int64
}

// Batch holds the per-run accumulators. Converted and Bytes only grow.
type Batch struct {
	Limits Limits

	Converted int
	Bytes     int64
	Skipped   int
	Failed    int
}

// NewBatch returns an empty batch with the given limits.
func NewBatch(l Limits) *Batch {
	return &Batch{Limits: l}
}

// CountReached reports whether the count limit stops the next file.
func (b *Batch) CountReached() bool {
	return b.Limits.Count > 0 && b.Converted >= b.Limits.Count
}

// SizeReached reports whether cumulative output meets the size limit.
func (b *Batch) SizeReached() bool {
	return b.Limits.Bytes > 0 && b.Bytes >= b.Limits.Bytes
}

// Record folds o into the accumulators and returns it, re-tagged as
// OutcomeLimitReached when it is the conversion that met the size limit.
func (b *Batch) Record(o Outcome) Outcome {
	switch o.Kind {
	case OutcomeConverted, OutcomeLimitReached:
		b.Converted++
		b.Bytes += o.Bytes
		if b.SizeReached() {
			o.Kind = OutcomeLimitReached
		} else {
			o.Kind = OutcomeConverted
		}
	case OutcomeSkipped:
		b.Skipped++
	case OutcomeFailed:
		b.Failed++
	}
	return o
}
