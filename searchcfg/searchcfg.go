// Package searchcfg holds the tunable knobs of the search driver, built
// with the same functional-options shape the teacher uses for its MCTS
// constructor (searcher/mcts.go's Option/WithDuration/WithEpisodes),
// generalized from "duration or episode budget" to the full configuration
// table a Go-playing search needs.
package searchcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PassFlag bits control get_best_move's pass/resign behavior; they may be
// OR-combined.
type PassFlag int

const (
	Normal   PassFlag = 0
	NoPass   PassFlag = 1 << 0
	NoResign PassFlag = 1 << 1
)

// Config collects every row of the search driver's configuration table.
type Config struct {
	MaxPlayouts  int64 // 0 = unlimited
	MaxVisits    int64 // 0 = unlimited
	NumThreads   int   // worker count including the foreground driver
	ResignPercent int  // ×100; negative = default (10%), 0 = never resign
	RandomCnt    int   // moves to randomize proportionally at game start
	Noise        bool  // apply Dirichlet noise at root
	DumbPass     bool  // disable pass-sanity heuristics
	Quiet        bool  // suppress stats/analysis logging
	MaxTreeSize  int64 // hard cap on live node count
}

// Option mutates a Config during construction.
type Option func(*Config)

// Default returns the engine's out-of-the-box configuration: unlimited
// playouts/visits, a single thread, default resign threshold, no early-game
// randomization, no noise, pass-sanity heuristics enabled, normal logging.
func Default() Config {
	return Config{
		MaxPlayouts:   0,
		MaxVisits:     0,
		NumThreads:    1,
		ResignPercent: -1,
		RandomCnt:     0,
		Noise:         false,
		DumbPass:      false,
		Quiet:         false,
		MaxTreeSize:   8_000_000,
	}
}

// New builds a Config starting from Default and applying opts in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithMaxPlayouts(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxPlayouts = n
		}
	}
}

func WithMaxVisits(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxVisits = n
		}
	}
}

func WithNumThreads(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.NumThreads = n
		}
	}
}

func WithResignPercent(pct int) Option {
	return func(c *Config) { c.ResignPercent = pct }
}

func WithRandomCnt(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.RandomCnt = n
		}
	}
}

func WithNoise(on bool) Option {
	return func(c *Config) { c.Noise = on }
}

func WithDumbPass(on bool) Option {
	return func(c *Config) { c.DumbPass = on }
}

func WithQuiet(on bool) Option {
	return func(c *Config) { c.Quiet = on }
}

func WithMaxTreeSize(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxTreeSize = n
		}
	}
}

// fileConfig mirrors Config's fields for YAML (de)serialization with
// lowercase keys matching the configuration table's row names.
type fileConfig struct {
	MaxPlayouts   int64 `yaml:"max_playouts"`
	MaxVisits     int64 `yaml:"max_visits"`
	NumThreads    int   `yaml:"num_threads"`
	ResignPercent int   `yaml:"resignpct"`
	RandomCnt     int   `yaml:"random_cnt"`
	Noise         bool  `yaml:"noise"`
	DumbPass      bool  `yaml:"dumbpass"`
	Quiet         bool  `yaml:"quiet"`
	MaxTreeSize   int64 `yaml:"max_tree_size"`
}

// LoadFile reads a YAML configuration file and applies every field present
// over Default, so a partial file only overrides what it names.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("searchcfg: read %s: %w", path, err)
	}
	fc := fileConfig{}
	def := Default()
	fc.MaxPlayouts = def.MaxPlayouts
	fc.MaxVisits = def.MaxVisits
	fc.NumThreads = def.NumThreads
	fc.ResignPercent = def.ResignPercent
	fc.RandomCnt = def.RandomCnt
	fc.Noise = def.Noise
	fc.DumbPass = def.DumbPass
	fc.Quiet = def.Quiet
	fc.MaxTreeSize = def.MaxTreeSize
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("searchcfg: parse %s: %w", path, err)
	}
	return Config{
		MaxPlayouts:   fc.MaxPlayouts,
		MaxVisits:     fc.MaxVisits,
		NumThreads:    fc.NumThreads,
		ResignPercent: fc.ResignPercent,
		RandomCnt:     fc.RandomCnt,
		Noise:         fc.Noise,
		DumbPass:      fc.DumbPass,
		Quiet:         fc.Quiet,
		MaxTreeSize:   fc.MaxTreeSize,
	}, nil
}
