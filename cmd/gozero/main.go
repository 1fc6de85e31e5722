// Command gozero drives a self-play game with the search engine, printing
// each chosen move. It is the CLI wiring analogue of the teacher's main.go
// (which drives repeated self-play games through engine.LocalEngine),
// adapted from risk's multi-player map game to a two-player Go board.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gozero/board"
	"gozero/meta"
	"gozero/nnet"
	"gozero/search"
	"gozero/searchcfg"
	"gozero/timecontrol"
	"gozero/training"
	"gozero/tt"
)

func main() {
	boardSize := flag.Int("size", 19, "board size")
	komi := flag.Float64("komi", 7.5, "komi")
	handicap := flag.Int("handicap", 0, "handicap stones")
	maxPlayouts := flag.Int64("playouts", 400, "playout budget per move (0 = unlimited)")
	threads := flag.Int("threads", 1, "worker thread count, including the driver")
	mainTime := flag.Duration("main-time", 0, "main time per side (0 = no time limit)")
	byoyomi := flag.Duration("byoyomi", 5*time.Second, "byoyomi period once main time is exhausted")
	configFile := flag.String("config", "", "optional YAML search configuration file (replaces -playouts, -threads and -quiet; keys it omits take their defaults)")
	quiet := flag.Bool("quiet", false, "suppress stats/analysis logging")
	trainLog := flag.String("train-log", "", "append self-play training samples to this file")
	flag.Parse()

	setupLogging()

	cfg := searchcfg.New(
		searchcfg.WithMaxPlayouts(*maxPlayouts),
		searchcfg.WithNumThreads(*threads),
		searchcfg.WithQuiet(*quiet),
	)
	if *configFile != "" {
		loaded, err := searchcfg.LoadFile(*configFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configFile).Msg("failed to load config file")
		}
		cfg = loaded
	}

	clock := timecontrol.NewClock(*mainTime, *byoyomi, 1)
	clock.SetBoardSize(*boardSize)

	var trainSink training.Sink = training.NullSink{}
	if *trainLog != "" {
		sink, err := training.NewFileSink(*trainLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open training log")
		}
		defer sink.Close()
		trainSink = sink
	}

	state := board.NewState(*boardSize, *komi, *handicap, clock)
	eval := nnet.New(*threads)
	table := tt.New()

	engine := search.New(cfg, state, table, clock, eval, trainSink)

	runSelfPlay(engine, state, cfg)
}

// runSelfPlay drives Think repeatedly until the game ends by double pass or
// resignation, printing each chosen move — the self-play game loop, minus
// the teacher's multi-agent/multi-player map bookkeeping since this engine
// only ever plays itself on one shared board.
func runSelfPlay(engine *search.Search, state *board.State, cfg searchcfg.Config) {
	ctx := context.Background()
	maxMoves := meta.MaxGameLength(state.BoardSize())
	for state.MoveNumber() < maxMoves {
		color := state.ToMove()
		move := engine.Think(ctx, state, searchcfg.Normal)

		fmt.Printf("%s plays %s\n", color, state.MoveToText(move))

		if move == board.Resign {
			log.Info().Str("color", color.Opposite().String()).Msg("opponent resigned; game over")
			return
		}
		if state.Passes() >= 2 {
			score := state.FinalScore()
			log.Info().Float64("score", score).Msg("game over by double pass")
			return
		}
	}
	log.Warn().Int("moves", maxMoves).Msg("game exceeded the move cap without ending; stopping")
}

// setupLogging wires zerolog to a console writer, forcing ANSI color only
// when stdout is an interactive terminal — the same isatty-gated coloring
// every terminal-aware CLI in the retrieved pack uses go-colorable/
// go-isatty for, rather than always emitting escape codes.
func setupLogging() {
	var writer zerolog.ConsoleWriter
	if isatty.IsTerminal(os.Stdout.Fd()) {
		writer = zerolog.ConsoleWriter{Out: colorable.NewColorableStdout()}
	} else {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}
