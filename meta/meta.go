// Package meta holds tunable defaults that don't belong to any one
// collaborator's configuration table.
package meta

// MaxGameLength caps the number of moves runSelfPlay will play before giving
// up on a game, as a safety net against a position that keeps passing and
// un-passing forever without ever reaching two consecutive passes (e.g. a
// dumb-pass loop against a buggy evaluator). Scaled by board area the same
// way the original risk MCTS bounded a match by MAX_TURNS.
func MaxGameLength(boardSize int) int {
	return boardSize * boardSize * 4
}
