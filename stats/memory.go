package stats

import (
	"context"
	"sync"
)

// MemoryRecorder is a simple in-memory Recorder.
//
// Useful for tests and single-process deployments. Counters do not survive
// restarts.
type MemoryRecorder struct {
	mu       sync.Mutex
	channels map[int64]map[int64]int64
}

var _ Recorder = (*MemoryRecorder)(nil)

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{channels: make(map[int64]map[int64]int64)}
}

// RecordAssignment increments the (channel, operator) counter.
func (m *MemoryRecorder) RecordAssignment(_ context.Context, channelID, operatorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := m.channels[channelID]
	if ops == nil {
		ops = make(map[int64]int64)
		m.channels[channelID] = ops
	}
	ops[operatorID]++

	return nil
}

// ChannelTotals returns a copy of the channel's per-operator counts.
func (m *MemoryRecorder) ChannelTotals(_ context.Context, channelID int64) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]int64, len(m.channels[channelID]))
	for op, n := range m.channels[channelID] {
		out[op] = n
	}

	return out, nil
}
