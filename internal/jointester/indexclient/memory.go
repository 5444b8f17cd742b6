package indexclient

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/jointester/internal/jointester/model"
)

// Memory is a Backend that counts what it receives. By default it keeps only the size and deadline of each
// batch, which makes it suitable for dry runs of any size. A Memory created with NewRecordingMemory also keeps
// the records themselves.
type Memory struct {
	mu           sync.Mutex
	retain       bool
	connected    bool
	batches      [][]model.Record
	sizes        []int
	commitWithin []time.Duration
	commits      int
	closed       bool
	failOnSend   int
	sends        int
	sendErr      error
}

// NewMemory creates a Memory that discards records after counting them.
func NewMemory() *Memory {
	return &Memory{}
}

// NewRecordingMemory creates a Memory that keeps every batch it receives, for inspection through Batches.
func NewRecordingMemory() *Memory {
	return &Memory{retain: true}
}

// FailOnSend makes the n-th call to Send, counting from one, return err without storing the batch.
func (m *Memory) FailOnSend(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOnSend = n
	m.sendErr = err
}

func (m *Memory) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *Memory) Send(_ context.Context, records []model.Record, commitWithin time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return errors.New("memory index is not connected")
	}
	m.sends++
	if m.sends == m.failOnSend {
		return m.sendErr
	}
	if m.retain {
		m.batches = append(m.batches, records)
	}
	m.sizes = append(m.sizes, model.CountRecords(records))
	m.commitWithin = append(m.commitWithin, commitWithin)
	return nil
}

func (m *Memory) Commit(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Batches returns the batches stored so far in the order they were received. It is always empty unless the
// Memory was created with NewRecordingMemory.
func (m *Memory) Batches() [][]model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]model.Record(nil), m.batches...)
}

// BatchSizes returns the number of documents in each accepted batch.
func (m *Memory) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.sizes...)
}

func (m *Memory) CommitWithin() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.commitWithin...)
}

func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
