package build

import (
	"fmt"
	"time"

	"spritegg/internal/sprite"
)

// Status is the result of processing one entity.
type Status int

const (
	StatusSkipped Status = iota
	StatusBuilt
	StatusWouldBuild
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusBuilt:
		return "built"
	case StatusWouldBuild:
		return "would-build"
	case StatusFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Outcome records what happened to one entity.
type Outcome struct {
	Entity     sprite.Entity
	Type       sprite.EntityType
	OutputName string
	OutputPath string
	Newest     time.Time
	Status     Status
	// Reason explains a skip.
	Reason   string
	Err      error
	Duration time.Duration
}

// Summary folds per-entity outcomes into run totals.
type Summary struct {
	Built    int
	Skipped  int
	Errors   int
	Outcomes []Outcome
}

// Add folds one outcome in. Dry-run "would build" outcomes count as built.
func (s *Summary) Add(o Outcome) {
	switch o.Status {
	case StatusBuilt, StatusWouldBuild:
		s.Built++
	case StatusFailed:
		s.Errors++
	default:
		s.Skipped++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Failed reports whether any entity errored.
func (s *Summary) Failed() bool {
	return s.Errors > 0
}

func (s *Summary) String() string {
	return fmt.Sprintf("Built: %d, Skipped: %d, Errors: %d", s.Built, s.Skipped, s.Errors)
}
