package batch

import (
	"github.com/armadaproject/jointester/internal/jointester/model"
)

// Batch is a set of records handed to the index client in one call. Once returned by an Accumulator it is owned
// by the caller; the accumulator never touches it again.
type Batch struct {
	Records []model.Record
	// Size counts documents, including children nested inside Records.
	Size int
}

// Accumulator buffers generated records until at least threshold documents are pending.
//
// The threshold is only checked when the caller asks via TryFlush, which the orchestrator does once per
// parent group. A flushed batch may therefore exceed the threshold by up to one group.
type Accumulator struct {
	threshold int
	capacity  int
	buffer    []model.Record
	size      int
}

// NewAccumulator creates an Accumulator flushing at threshold documents. groupSize is the number of documents in
// one parent group and is only used to size the buffer.
func NewAccumulator(threshold, groupSize int) *Accumulator {
	a := &Accumulator{
		threshold: threshold,
		capacity:  threshold + groupSize,
	}
	a.reset()
	return a
}

// Append adds records to the end of the buffer.
func (a *Accumulator) Append(records ...model.Record) {
	a.buffer = append(a.buffer, records...)
	a.size += model.CountRecords(records)
}

// Len returns the number of buffered documents.
func (a *Accumulator) Len() int {
	return a.size
}

// TryFlush hands back the whole buffer if it holds at least threshold documents.
func (a *Accumulator) TryFlush() (Batch, bool) {
	if a.size < a.threshold {
		return Batch{}, false
	}
	return a.take(), true
}

// Drain hands back whatever is buffered, regardless of the threshold. It returns false if the buffer is empty.
func (a *Accumulator) Drain() (Batch, bool) {
	if a.size == 0 {
		return Batch{}, false
	}
	return a.take(), true
}

func (a *Accumulator) take() Batch {
	b := Batch{Records: a.buffer, Size: a.size}
	a.reset()
	return b
}

func (a *Accumulator) reset() {
	a.buffer = make([]model.Record, 0, a.capacity)
	a.size = 0
}
