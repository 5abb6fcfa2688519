package progress_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/keshon/ckpt/internal/progress"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestTrackerFinish(t *testing.T) {
	out := &syncBuffer{}
	p := progress.New(out, 3, "Capturing")
	for i := 0; i < 3; i++ {
		p.Increment()
	}
	p.Finish()
	p.Finish()

	gt.S(t, out.String()).Contains("✓ Capturing (3 files")
}

func TestNilTracker(t *testing.T) {
	p := progress.New(nil, 10, "noop")
	gt.True(t, p == nil)
	p.Increment()
	p.SetTotal(2)
	p.Finish()
}

func TestTrackerSpinnerAndUnit(t *testing.T) {
	orig := progress.Interval
	progress.Interval = time.Millisecond
	defer func() { progress.Interval = orig }()

	out := &syncBuffer{}
	p := progress.NewUnit(out, 4, "Checking", "snapshots")
	p.Increment()
	p.Increment()
	time.Sleep(20 * time.Millisecond)
	p.Finish()

	gt.S(t, out.String()).Contains("[2/4] 50%")
	gt.S(t, out.String()).Contains("✓ Checking (2 snapshots")
}
