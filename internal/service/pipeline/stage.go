// Package pipeline runs one call generation from contact lookup to audio.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Stage is a step of a run. Stages execute strictly in declaration order.
type Stage int

const (
	StagePending Stage = iota
	StageResolveContact
	StageResolveLanguage
	StageBuildTrigger
	StageGenerateScript
	StageSynthesizeAudio
	StageAssembleResult
	// StageDone and StageFailed are terminal.
	StageDone
	StageFailed
)

// Stages lists the working stages in execution order.
var Stages = []Stage{
	StageResolveContact,
	StageResolveLanguage,
	StageBuildTrigger,
	StageGenerateScript,
	StageSynthesizeAudio,
	StageAssembleResult,
}

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "PENDING"
	case StageResolveContact:
		return "RESOLVE_CONTACT"
	case StageResolveLanguage:
		return "RESOLVE_LANGUAGE"
	case StageBuildTrigger:
		return "BUILD_TRIGGER"
	case StageGenerateScript:
		return "GENERATE_SCRIPT"
	case StageSynthesizeAudio:
		return "SYNTHESIZE_AUDIO"
	case StageAssembleResult:
		return "ASSEMBLE_RESULT"
	case StageDone:
		return "DONE"
	case StageFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Label is the lowercase name used in errors, metrics and events.
func (s Stage) Label() string {
	return strings.ToLower(s.String())
}

// IsTerminal returns true for DONE and FAILED.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// Errors for invalid transitions.
var (
	ErrStageOutOfOrder = errors.New("stage entered out of order")
	ErrRunTerminated   = errors.New("run already terminated")
)

// Lifecycle tracks the stage of a single run.
// Thread-safe for concurrent access.
//
//	PENDING → RESOLVE_CONTACT → ... → ASSEMBLE_RESULT → DONE
//	             └──────────── Fail() ───────────────→ FAILED
//
// There is no re-entry: a failed run is started over with a new Lifecycle.
type Lifecycle struct {
	mu     sync.RWMutex
	runID  string
	stage  Stage
	failed Stage
}

// NewLifecycle creates a lifecycle in PENDING state.
func NewLifecycle(runID string) *Lifecycle {
	return &Lifecycle{runID: runID, stage: StagePending}
}

func (l *Lifecycle) RunID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.runID
}

// Stage returns the current stage.
func (l *Lifecycle) Stage() Stage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stage
}

// FailedStage returns the stage that was running when the run failed.
func (l *Lifecycle) FailedStage() (Stage, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.failed, l.stage == StageFailed
}

// Enter moves to next, which must immediately follow the current stage.
func (l *Lifecycle) Enter(next Stage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stage.IsTerminal() {
		return ErrRunTerminated
	}
	if next != l.stage+1 || next > StageAssembleResult {
		return fmt.Errorf("%w: %s after %s", ErrStageOutOfOrder, next, l.stage)
	}
	l.stage = next
	return nil
}

// Complete ends a run whose last stage has been entered.
func (l *Lifecycle) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stage.IsTerminal() {
		return ErrRunTerminated
	}
	if l.stage != StageAssembleResult {
		return fmt.Errorf("%w: complete during %s", ErrStageOutOfOrder, l.stage)
	}
	l.stage = StageDone
	return nil
}

// Fail marks the run failed in its current stage.
// Returns false if the run had already terminated.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stage.IsTerminal() {
		return false
	}
	l.failed = l.stage
	l.stage = StageFailed
	return true
}

// StageError is a fatal failure of one stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage.Label(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
