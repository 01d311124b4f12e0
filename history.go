package main

import (
	"github.com/seqsense/pcgol/mat"

	"github.com/seqsense/pcreg/geometry"
)

// historyEntry is a registration state. The latest entry is the current
// state.
type historyEntry struct {
	source  *geometry.PointCloud
	applied mat.Mat4
}

type history struct {
	entries    []historyEntry
	maxHistory int
}

func newHistory(n int) *history {
	return &history{maxHistory: n}
}

func (h *history) MaxHistory() int {
	return h.maxHistory
}

func (h *history) SetMaxHistory(m int) {
	if m < 0 {
		m = 0
	}
	h.maxHistory = m
	h.trim()
}

func (h *history) push(e historyEntry) {
	h.entries = append(h.entries, e)
	h.trim()
}

func (h *history) trim() {
	if n := len(h.entries) - (h.maxHistory + 1); n > 0 {
		for i := 0; i < n; i++ {
			h.entries[i] = historyEntry{}
		}
		h.entries = h.entries[n:]
	}
}

// undo drops the current state and returns the previous one.
func (h *history) undo() (historyEntry, bool) {
	if n := len(h.entries); n > 1 {
		h.entries[n-1] = historyEntry{}
		h.entries = h.entries[:n-1]
		return h.entries[n-2], true
	}
	return historyEntry{}, false
}
