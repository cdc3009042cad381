package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerFires(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("ticker did not fire within timeout")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	assert.NotPanics(t, func() {
		tk.Stop()
		tk.Stop()
		tk.Stop()
	})
}

func TestResetAfterStopIsNoop(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	tk.Stop()
	assert.NotPanics(t, func() {
		tk.Reset(10 * time.Millisecond)
	})
}
