package service

import (
	"sync"
	"time"
)

type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeClosed    OutcomeStatus = "closed"
	OutcomeAbandoned OutcomeStatus = "abandoned"
)

// Outcome is the single logical event both confirmation paths (redirect
// return and popup message) race to deliver.
type Outcome struct {
	Status  OutcomeStatus
	OrderID string
	Message string
}

// ConfirmationHub consumes at most one terminal signal per uid. The redirect
// page and the popup relay are racing producers; whichever resolves first
// wins and duplicates are dropped. A tracked uid that never resolves within
// the bounded wait is reported through onAbandon.
type ConfirmationHub struct {
	mu        sync.Mutex
	wait      time.Duration
	entries   map[string]*hubEntry
	onAbandon func(uid string)
}

type hubEntry struct {
	timer    *time.Timer
	consumed bool
	listener func(Outcome)
}

func NewConfirmationHub(wait time.Duration, onAbandon func(uid string)) *ConfirmationHub {
	return &ConfirmationHub{
		wait:      wait,
		entries:   make(map[string]*hubEntry),
		onAbandon: onAbandon,
	}
}

// Track starts the bounded wait for uid. Tracking the same uid again resets
// the wait (a re-initiated session replaces the old one).
func (h *ConfirmationHub) Track(uid string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.entries[uid]; ok && existing.timer != nil {
		existing.timer.Stop()
	}

	entry := &hubEntry{}
	entry.timer = time.AfterFunc(h.wait, func() {
		h.expire(uid)
	})
	h.entries[uid] = entry
}

// OnOutcome registers the at-most-once listener for uid. Replaces any
// previous listener.
func (h *ConfirmationHub) OnOutcome(uid string, fn func(Outcome)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[uid]
	if !ok {
		entry = &hubEntry{}
		h.entries[uid] = entry
	}
	entry.listener = fn
}

// Resolve delivers a terminal signal. Returns true only for the first
// terminal signal per uid; callers must not act on a false return.
func (h *ConfirmationHub) Resolve(uid string, out Outcome) bool {
	h.mu.Lock()
	entry, ok := h.entries[uid]
	if !ok {
		// untracked uid: accept the first signal anyway so a redirect
		// arriving after a process restart still terminates
		entry = &hubEntry{}
		h.entries[uid] = entry
	}
	if entry.consumed {
		h.mu.Unlock()
		return false
	}
	entry.consumed = true
	if entry.timer != nil {
		entry.timer.Stop()
	}
	listener := entry.listener
	h.mu.Unlock()

	if listener != nil {
		listener(out)
	}
	return true
}

// Cancel drops the uid without firing the listener or the abandon hook.
func (h *ConfirmationHub) Cancel(uid string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry, ok := h.entries[uid]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(h.entries, uid)
	}
}

func (h *ConfirmationHub) expire(uid string) {
	h.mu.Lock()
	entry, ok := h.entries[uid]
	if !ok || entry.consumed {
		h.mu.Unlock()
		return
	}
	entry.consumed = true
	listener := entry.listener
	h.mu.Unlock()

	if listener != nil {
		listener(Outcome{Status: OutcomeAbandoned})
	}
	if h.onAbandon != nil {
		h.onAbandon(uid)
	}
}
