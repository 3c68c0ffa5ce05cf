// Package metrics provides in-memory statistics for a chat session.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Token metrics, only filled when the endpoint reports usage.
	UsageCount        int64
	TotalInputTokens  int64
	TotalOutputTokens int64

	// FailuresByKind counts failed calls per error kind.
	FailuresByKind map[string]int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count     int64
	Failures  int64
	AvgTimeMs float64
	MinTimeMs int64
	MaxTimeMs int64

	// Token stats (nil if the endpoint never reported usage)
	TotalInputTokens  *int64
	TotalOutputTokens *int64
	AvgInputTokens    *float64
	AvgOutputTokens   *float64

	FailuresByKind []KindCount
}

// KindCount is the number of failures of one error kind.
type KindCount struct {
	Kind  string
	Count int64
}

// Snapshot represents session statistics at a point in time.
type Snapshot struct {
	UptimeSeconds  float64
	ChatCompletion *OperationSnapshot
}

// OpChatCompletion is the operation name for one request/response exchange.
const OpChatCompletion = "chat_completion"

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime:        time.Duration(math.MaxInt64),
			FailuresByKind: make(map[string]int64),
		}
		c.ops[op] = m
	}
	return m
}

// recordTime updates call count and timing. Caller must hold write lock.
func (m *OperationMetrics) recordTime(duration time.Duration) {
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordTiming records timing for a successful call without token usage.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getOrCreate(op).recordTime(duration)
}

// RecordLLMUsage records timing and token usage for a successful call.
func (c *Collector) RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.recordTime(duration)

	m.UsageCount++
	m.TotalInputTokens += inputTokens
	m.TotalOutputTokens += outputTokens
}

// RecordFailure records a failed call and the kind of error that ended it.
func (c *Collector) RecordFailure(op, kind string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.recordTime(duration)
	m.Failures++
	m.FailuresByKind[kind]++
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:     m.Count,
		Failures:  m.Failures,
		AvgTimeMs: float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs: m.MinTime.Milliseconds(),
		MaxTimeMs: m.MaxTime.Milliseconds(),
	}

	if m.UsageCount > 0 {
		// Averages are over calls that reported usage.
		totalIn := m.TotalInputTokens
		totalOut := m.TotalOutputTokens
		avgIn := float64(m.TotalInputTokens) / float64(m.UsageCount)
		avgOut := float64(m.TotalOutputTokens) / float64(m.UsageCount)

		snap.TotalInputTokens = &totalIn
		snap.TotalOutputTokens = &totalOut
		snap.AvgInputTokens = &avgIn
		snap.AvgOutputTokens = &avgOut
	}

	for kind, n := range m.FailuresByKind {
		snap.FailuresByKind = append(snap.FailuresByKind, KindCount{Kind: kind, Count: n})
	}
	sort.Slice(snap.FailuresByKind, func(i, j int) bool {
		return snap.FailuresByKind[i].Kind < snap.FailuresByKind[j].Kind
	})

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:  time.Since(c.startTime).Seconds(),
		ChatCompletion: snapshotOp(c.ops[OpChatCompletion]),
	}
}
