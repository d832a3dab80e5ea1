package variant

import (
	"log/slog"
	"runtime"
)

// Config tunes the batch orchestrator.
type Config struct {
	// Workers bounds how many variants are assembled concurrently.
	Workers int

	// MaxCodeRetries bounds the code allocator's walk past taken codes.
	MaxCodeRetries int

	// CodeSalt shifts every student code. Zero gives A01, B01, ...
	CodeSalt int

	// StrictMultiCorrect rejects questions whose kind was inferred as
	// multi-choice only because several choices are flagged correct.
	StrictMultiCorrect bool

	// Logger receives state transitions. Nil discards them.
	Logger *slog.Logger

	// OnStateChange, when set, is called on every state transition. err is
	// only non-nil for StateFailed.
	OnStateChange func(state BatchState, err error)
}

// DefaultConfig returns a Config with one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		MaxCodeRetries: DefaultMaxCodeRetries,
	}
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MaxCodeRetries <= 0 {
		c.MaxCodeRetries = DefaultMaxCodeRetries
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}
