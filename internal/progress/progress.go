package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interval is how often the spinner line is redrawn.
var Interval = 100 * time.Millisecond

// Tracker draws a spinner with a counter on w until Finish is called.
// All methods are safe on a nil *Tracker, which draws nothing.
type Tracker struct {
	w       io.Writer
	message string
	unit    string
	started time.Time

	mu      sync.Mutex
	total   int
	current int

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New starts a tracker counting files. A nil writer returns a nil tracker.
func New(w io.Writer, total int, message string) *Tracker {
	return NewUnit(w, total, message, "files")
}

// NewUnit is New with a custom unit name for the summary line.
func NewUnit(w io.Writer, total int, message, unit string) *Tracker {
	if w == nil {
		return nil
	}
	t := &Tracker{
		w:       w,
		message: message,
		unit:    unit,
		started: time.Now(),
		total:   total,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *Tracker) loop() {
	defer close(t.stopped)
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-t.done:
			t.mu.Lock()
			fmt.Fprintf(t.w, "\r✓ %s (%d %s, %s)          \n",
				t.message, t.current, t.unit, time.Since(t.started).Round(time.Millisecond))
			t.mu.Unlock()
			return
		case <-ticker.C:
			t.mu.Lock()
			fmt.Fprint(t.w, t.line(frames[frame%len(frames)]))
			t.mu.Unlock()
		}
	}
}

// line renders one spinner frame; callers hold mu.
func (t *Tracker) line(frame string) string {
	if t.total <= 0 {
		return fmt.Sprintf("\r%s %s [%d %s]  ", frame, t.message, t.current, t.unit)
	}
	percent := t.current * 100 / t.total
	return fmt.Sprintf("\r%s %s [%d/%d] %d%%  ", frame, t.message, t.current, t.total, percent)
}

func (t *Tracker) Increment() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.current++
	t.mu.Unlock()
}

func (t *Tracker) SetTotal(n int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.total = n
	t.mu.Unlock()
}

// Finish prints the summary line and waits for the render loop to exit.
func (t *Tracker) Finish() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		close(t.done)
		<-t.stopped
	})
}
