package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line while a slow step such as Graphviz layout
// runs. It erases itself when stopped or when its context ends.
type Spinner struct {
	w   io.Writer
	msg string
	ctx context.Context

	quit     chan struct{}
	exited   chan struct{}
	started  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
}

// newSpinnerWithContext returns a spinner drawing on stderr.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	return &Spinner{
		w:      w,
		msg:    message,
		ctx:    ctx,
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Start begins drawing. Calling it twice has no effect.
func (s *Spinner) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.loop()
}

func (s *Spinner) loop() {
	defer close(s.exited)
	defer s.erase()

	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()
	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			return
		case <-s.quit:
			return
		case <-tick.C:
			glyph := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", markSpinner.Render(glyph), StyleDim.Render(s.msg))
		}
	}
}

func (s *Spinner) erase() {
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
}

// Stop ends the animation and waits for the line to be erased. Later calls
// return immediately.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		if s.ctx.Err() == nil {
			s.stopped.Store(true)
		}
		close(s.quit)
		if s.started.Load() {
			<-s.exited
		}
	})
}

// StopWithError stops the spinner and reports message as a failed step.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the context ended the spinner rather than Stop.
func (s *Spinner) Cancelled() bool {
	return !s.stopped.Load() && s.ctx.Err() != nil
}
