package dispatch

import (
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/hostfacts/internal/target"
)

// State is a step of the local dispatch sequence.
type State int

const (
	Idle State = iota
	Connecting
	Uploading
	Executing
	Printed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Uploading:
		return "uploading"
	case Executing:
		return "executing"
	case Printed:
		return "printed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ResultsBanner precedes the captured report in local mode.
const ResultsBanner = "RESULTS:\n\n\n\n"

// Observer is told when each phase of a dispatch starts and ends.
// err is nil when the phase succeeded.
type Observer interface {
	PhaseStarted(state State)
	PhaseFinished(state State, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) PhaseStarted(State)                        {}
func (nopObserver) PhaseFinished(State, time.Duration, error) {}

// Run drives one dispatch: connect, upload, execute and capture, then write
// ResultsBanner and the captured report to out. The first failing step stops
// the sequence. The returned State is Printed on success and Failed
// otherwise; the connection is closed on every path.
func Run(desc target.Descriptor, opts Options, out io.Writer, obs Observer) (State, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	state := Idle
	step := func(next State, fn func() error) error {
		state = next
		obs.PhaseStarted(next)
		start := time.Now()
		err := fn()
		obs.PhaseFinished(next, time.Since(start), err)
		return err
	}

	var d *Dispatcher
	if err := step(Connecting, func() error {
		var err error
		d, err = New(desc, opts)
		return err
	}); err != nil {
		return Failed, err
	}
	defer d.Close()

	if err := step(Uploading, d.Upload); err != nil {
		return Failed, err
	}

	var report string
	if err := step(Executing, func() error {
		var err error
		report, err = d.ExecuteAndCapture()
		return err
	}); err != nil {
		return Failed, err
	}

	if _, err := io.WriteString(out, ResultsBanner+report); err != nil {
		return Failed, fmt.Errorf("write results: %w", err)
	}
	state = Printed

	return state, nil
}
