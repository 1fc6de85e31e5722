// Package tt implements the transposition table collaborator: a cache of
// visit/value statistics keyed by board hash and komi, so a node reached by
// a different move order than one already searched can adopt its prior
// statistics instead of starting cold. Injected into search.Search rather
// than kept as a process-wide singleton, so tests and concurrent searches
// never share state implicitly.
package tt

import (
	"sync"

	"gozero/board"
	"gozero/node"
)

type key struct {
	hash uint64
	komi float64
}

type entry struct {
	visits   int32
	valueSum float64
}

// Table is a concurrency-safe map from (hash, komi) to cached statistics.
type Table struct {
	mu      sync.RWMutex
	entries map[key]*entry
}

// New returns an empty transposition table.
func New() *Table {
	return &Table{entries: make(map[key]*entry)}
}

// Sync lets node adopt cached statistics for this exact (hash, komi) if an
// earlier simulation reached the same position by a different path in the
// tree: the node receives the cached average value as a single visit; the
// cached visit count is not carried over. Only applied when node has not yet
// been visited itself, so it never clobbers statistics a direct traversal
// has already accumulated.
func (t *Table) Sync(hash uint64, komi float64, n *node.Node) {
	if !n.FirstVisit() {
		return
	}
	t.mu.RLock()
	e, ok := t.entries[key{hash: hash, komi: komi}]
	t.mu.RUnlock()
	if !ok || e.visits == 0 {
		return
	}
	n.Update(e.valueSum / float64(e.visits))
}

// Update writes back node's current statistics for this (hash, komi), so a
// later simulation reaching the same position via a different path can
// benefit from Sync.
func (t *Table) Update(hash uint64, komi float64, n *node.Node) {
	visits := n.GetVisits()
	if visits == 0 {
		return
	}
	avg := n.GetEval(board.Black)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key{hash: hash, komi: komi}] = &entry{visits: visits, valueSum: avg * float64(visits)}
}
