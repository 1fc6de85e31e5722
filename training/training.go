// Package training records self-play samples from finished searches, the
// same temperature-sampled self-play data path the teacher's
// searcher/agent/train.go builds for its training agent — generalized here
// from "sample a move from the visit policy" to "record the position
// summary and full visit policy" a training pipeline would consume. No game
// result is recorded.
package training

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gozero/board"
	"gozero/node"
)

// Sample is one recorded self-play position: the board at the moment of the
// search, and the root's visit distribution over its children.
type Sample struct {
	BoardSize int            `json:"board_size"`
	ToMove    string         `json:"to_move"`
	Komi      float64        `json:"komi"`
	MoveNum   int            `json:"move_num"`
	Policy    map[string]int `json:"policy"` // move text -> visit count
}

// Sink is where finished-search samples are recorded.
type Sink interface {
	Record(state *board.State, root *node.Node)
}

// NullSink discards every sample; the default when no training output is
// configured.
type NullSink struct{}

func (NullSink) Record(*board.State, *node.Node) {}

// FileSink appends one JSON sample per line to a file, opened once and
// reused for the life of the search, matching the append-only self-play log
// shape a training pipeline ingests move by move.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (creating if necessary) path for append and returns a
// Sink that writes one JSON-encoded Sample per Record call.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("training: open sink file: %w", err)
	}
	return &FileSink{file: f}, nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.file.Close()
}

// Record writes the root's visit distribution for state as one JSON line.
func (s *FileSink) Record(state *board.State, root *node.Node) {
	policy := make(map[string]int)
	for _, c := range root.GetChildren() {
		policy[state.MoveToText(c.GetMove())] = int(c.GetVisits())
	}
	sample := Sample{
		BoardSize: state.BoardSize(),
		ToMove:    state.ToMove().String(),
		Komi:      state.Komi(),
		MoveNum:   state.MoveNumber(),
		Policy:    policy,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.file)
	_ = enc.Encode(sample) // best-effort; a training log is not load-bearing for search correctness
}
