package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/lattice/pkg/block"
)

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel and returns it with its cancel
// function.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Len returns the number of subscribers.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends msg to every subscriber. Slow subscribers drop messages.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message")
		}
	}
}

// EventMessage is the SSE payload for one lifecycle event.
type EventMessage struct {
	Phase      string  `json:"phase"`
	Block      string  `json:"block"`
	ContextID  string  `json:"context_id"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// Hooks returns lifecycle hooks that broadcast every event.
func (sm *StreamManager) Hooks() block.Hooks {
	send := func(_ context.Context, e *block.Event) {
		if sm.Len() == 0 {
			return
		}
		msg := EventMessage{
			Phase:      string(e.Phase),
			Block:      e.Block,
			ContextID:  e.ContextID,
			DurationMS: float64(e.Duration.Microseconds()) / 1000,
		}
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		sm.Broadcast(string(data))
	}
	return block.Hooks{OnWarmup: send, OnActivate: send, OnCleanup: send}
}
