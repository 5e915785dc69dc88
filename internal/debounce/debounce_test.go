package debounce

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder() (chan string, func(string)) {
	ch := make(chan string, 16)
	return ch, func(v string) { ch <- v }
}

func waitForTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func receive(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for emission")
		return ""
	}
}

func assertNoEmission(t *testing.T, ch chan string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected emission %q", v)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDebouncer_RapidInputEmitsOnlyFinalValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ch, emit := newRecorder()
	d := New(DefaultWait, emit, WithClock(clock))

	for _, v := range []string{"b", "ba", "bat", "batm", "batman"} {
		d.Set(v)
		waitForTimer(t, clock)
		clock.Advance(100 * time.Millisecond)
	}
	assertNoEmission(t, ch)

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, "batman", receive(t, ch))
	assertNoEmission(t, ch)
	assert.False(t, d.Pending())
}

func TestDebouncer_QuietPeriodBoundary(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ch, emit := newRecorder()
	d := New(DefaultWait, emit, WithClock(clock))

	d.Set("dune")
	waitForTimer(t, clock)
	clock.Advance(499 * time.Millisecond)
	assertNoEmission(t, ch)
	assert.True(t, d.Pending())

	clock.Advance(time.Millisecond)
	assert.Equal(t, "dune", receive(t, ch))
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ch, emit := newRecorder()
	d := New(DefaultWait, emit, WithClock(clock))

	d.Set("alien")
	waitForTimer(t, clock)
	clock.Advance(DefaultWait)
	assert.Equal(t, "alien", receive(t, ch))

	d.Set("aliens")
	waitForTimer(t, clock)
	clock.Advance(DefaultWait)
	assert.Equal(t, "aliens", receive(t, ch))
}

func TestDebouncer_Stop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ch, emit := newRecorder()
	d := New(DefaultWait, emit, WithClock(clock))

	d.Set("heat")
	waitForTimer(t, clock)
	d.Stop()
	clock.Advance(time.Second)
	assertNoEmission(t, ch)

	d.Set("ignored")
	assert.False(t, d.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ch, emit := newRecorder()
	d := New(DefaultWait, emit, WithClock(clock))

	assert.False(t, d.Flush())

	d.Set("jaws")
	assert.True(t, d.Flush())
	assert.Equal(t, "jaws", receive(t, ch))

	clock.Advance(time.Second)
	assertNoEmission(t, ch)
}

func TestDebouncer_ZeroWaitEmitsImmediately(t *testing.T) {
	ch, emit := newRecorder()
	d := New(0, emit)

	d.Set("now")
	assert.Equal(t, "now", receive(t, ch))
}

func TestDebouncer_RealClock(t *testing.T) {
	ch, emit := newRecorder()
	d := New(10*time.Millisecond, emit)

	d.Set("a")
	d.Set("ab")
	assert.Equal(t, "ab", receive(t, ch))
}
