package model

import "time"

// RunContext holds the state shared by the components of a single run: the id counter, the time the run
// started and the number of records handed to the index client so far. A fresh RunContext is created per run.
type RunContext struct {
	start  time.Time
	nextID int64
	added  int64
}

func NewRunContext(idSeed int64, start time.Time) *RunContext {
	return &RunContext{start: start, nextID: idSeed}
}

// NextID returns the current counter value and advances it by one.
func (c *RunContext) NextID() int64 {
	id := c.nextID
	c.nextID++
	return id
}

func (c *RunContext) Start() time.Time {
	return c.start
}

// RecordFlushed adds n to the cumulative added count and returns the new total.
func (c *RunContext) RecordFlushed(n int) int64 {
	c.added += int64(n)
	return c.added
}

func (c *RunContext) Added() int64 {
	return c.added
}
