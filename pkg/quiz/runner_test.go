package quiz

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hablago/pkg/vocab"
)

var fastDelays = Delays{Correct: 10 * time.Millisecond, Incorrect: 20 * time.Millisecond}

func TestRunner_AdvancesAfterDelay(t *testing.T) {
	changed := make(chan Session, 4)
	r := NewRunner(testEntries(), fastDelays, WithRand(firstRand{}), WithOnChange(func(s Session) { changed <- s }))
	defer r.Close()

	require.Equal(t, "hola", r.Snapshot().Current.Source)

	s, out := r.Submit("你好")
	require.Equal(t, OutcomeCorrect, out.Kind)
	assert.Equal(t, PhaseEvaluating, s.Phase)
	assert.True(t, r.Pending())

	select {
	case s = <-changed:
	case <-time.After(time.Second):
		t.Fatal("timer did not advance the session")
	}
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, "gato", s.Current.Source)
	assert.False(t, r.Pending())
}

func TestRunner_EmptyDoesNotSchedule(t *testing.T) {
	r := NewRunner(testEntries(), fastDelays, WithRand(firstRand{}))
	defer r.Close()

	_, out := r.Submit("  ")
	assert.Equal(t, OutcomeEmpty, out.Kind)
	assert.False(t, r.Pending())
}

func TestRunner_NextCancelsPendingAdvance(t *testing.T) {
	var mu sync.Mutex
	fired := 0
	r := NewRunner(testEntries(), Delays{Correct: 30 * time.Millisecond, Incorrect: 30 * time.Millisecond},
		WithRand(firstRand{}),
		WithOnChange(func(Session) {
			mu.Lock()
			fired++
			mu.Unlock()
		}))
	defer r.Close()

	r.Submit("wrong")
	s := r.Next()
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.False(t, r.Pending())

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, fired, "cancelled timer must not advance")
	assert.Equal(t, 1, r.Snapshot().Incorrect)
}

func TestRunner_NextSkipsWhilePresenting(t *testing.T) {
	r := NewRunner(testEntries(), fastDelays, WithRand(lastRand{}))
	defer r.Close()

	s := r.Next()
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, 0, s.Stats().Attempts)
}

func TestRunner_RestartCancelsPending(t *testing.T) {
	r := NewRunner(testEntries(), fastDelays, WithRand(firstRand{}))
	defer r.Close()

	r.Submit("你好")
	s := r.Restart()
	assert.False(t, r.Pending())
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, 3, len(s.Remaining))
	assert.Equal(t, 0, s.Correct)
}

func TestRunner_OnCompleteOnce(t *testing.T) {
	done := make(chan Session, 2)
	r := NewRunner([]vocab.Entry{{Source: "sí", Target: "是"}}, fastDelays,
		WithRand(firstRand{}),
		WithOnComplete(func(s Session) { done <- s }))
	defer r.Close()

	r.Submit("no")
	require.Eventually(t, func() bool { return r.Snapshot().Phase == PhasePresenting && !r.Pending() }, time.Second, 5*time.Millisecond)
	r.Submit("是")

	select {
	case s := <-done:
		assert.Equal(t, PhaseComplete, s.Phase)
		assert.Equal(t, 50, s.Stats().Accuracy)
	case <-time.After(time.Second):
		t.Fatal("completion hook not called")
	}

	r.Next()
	select {
	case <-done:
		t.Fatal("completion hook called twice")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestRunner_CloseStopsScheduling(t *testing.T) {
	r := NewRunner(testEntries(), fastDelays, WithRand(firstRand{}))
	r.Close()

	s, out := r.Submit("你好")
	assert.Equal(t, OutcomeCorrect, out.Kind)
	assert.False(t, r.Pending())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, PhaseEvaluating, r.Snapshot().Phase)
	assert.Equal(t, s.Phase, r.Snapshot().Phase)
}

func TestTimer_StaleGeneration(t *testing.T) {
	var tm Timer
	gen := tm.Schedule(time.Hour, func() {})
	assert.True(t, tm.Pending())

	tm.Cancel()
	assert.False(t, tm.Fire(gen), "cancelled generation must not fire")

	gen2 := tm.Schedule(time.Hour, func() {})
	assert.False(t, tm.Fire(gen), "superseded generation must not fire")
	assert.True(t, tm.Fire(gen2))
	assert.False(t, tm.Fire(gen2), "generation fires once")
	tm.Cancel()
}
