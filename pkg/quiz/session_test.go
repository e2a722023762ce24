package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hablago/pkg/vocab"
)

// firstRand always picks index 0.
type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

// lastRand always picks the last index.
type lastRand struct{}

func (lastRand) IntN(n int) int { return n - 1 }

func testEntries() []vocab.Entry {
	return []vocab.Entry{
		{Source: "hola", Target: "你好"},
		{Source: "gato", Target: "猫"},
		{Source: "Adiós", Target: "Goodbye"},
	}
}

func presented(t *testing.T, entries []vocab.Entry) Session {
	t.Helper()
	s := New(entries, DefaultDelays()).Present(firstRand{})
	require.Equal(t, PhasePresenting, s.Phase)
	return s
}

func TestNew(t *testing.T) {
	entries := testEntries()
	s := New(entries, DefaultDelays())

	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, 3, s.TotalWords)
	assert.Len(t, s.Remaining, 3)

	// Caller's slice is not shared
	entries[0].Target = "changed"
	assert.Equal(t, "你好", s.Remaining[0].Target)
}

func TestSingleEntry_CorrectCompletes(t *testing.T) {
	s := presented(t, []vocab.Entry{{Source: "hola", Target: "你好"}})
	assert.Equal(t, "hola", s.Current.Source)

	s, out := s.Submit("你好")
	assert.Equal(t, OutcomeCorrect, out.Kind)
	assert.True(t, out.Last)
	assert.Equal(t, 1500*time.Millisecond, out.Delay)
	assert.Empty(t, s.Remaining)
	assert.Equal(t, PhaseEvaluating, s.Phase)

	s = s.Advance(firstRand{})
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Equal(t, 100, s.Stats().Accuracy)
}

func TestSubmit_CaseInsensitiveTrimmed(t *testing.T) {
	tests := []struct {
		input string
		want  OutcomeKind
	}{
		{"Hola", OutcomeCorrect},
		{"hola ", OutcomeCorrect},
		{"  HOLA\t", OutcomeCorrect},
		{"hol", OutcomeIncorrect},
		{"ho la", OutcomeIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := presented(t, []vocab.Entry{{Source: "hello", Target: "hola"}})
			_, out := s.Submit(tt.input)
			assert.Equal(t, tt.want, out.Kind)
		})
	}
}

func TestSubmit_Empty(t *testing.T) {
	s := presented(t, testEntries())
	for _, in := range []string{"", "   ", "\t\n"} {
		next, out := s.Submit(in)
		assert.Equal(t, OutcomeEmpty, out.Kind)
		assert.Equal(t, s.Phase, next.Phase)
		assert.Equal(t, 0, next.Correct+next.Incorrect)
		assert.Len(t, next.Remaining, 3)
	}
}

func TestSubmit_CorrectRemovesEntry(t *testing.T) {
	s := presented(t, testEntries())
	before := s

	s, out := s.Submit("你好")
	require.Equal(t, OutcomeCorrect, out.Kind)
	assert.False(t, out.Last)
	assert.Len(t, s.Remaining, 2)
	assert.Equal(t, 1, s.Correct)
	for _, e := range s.Remaining {
		assert.NotEqual(t, "hola", e.Source, "answered entry must not reappear")
	}

	// Earlier value untouched
	assert.Len(t, before.Remaining, 3)
	assert.Equal(t, "hola", before.Remaining[0].Source)
}

func TestSubmit_IncorrectKeepsEntry(t *testing.T) {
	s := presented(t, testEntries())

	s, out := s.Submit("wrong")
	assert.Equal(t, OutcomeIncorrect, out.Kind)
	assert.Equal(t, "你好", out.Expected)
	assert.Equal(t, 3*time.Second, out.Delay)
	assert.Len(t, s.Remaining, 3)
	assert.Equal(t, 1, s.Incorrect)

	s = s.Advance(firstRand{})
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, "hola", s.Current.Source)
}

func TestSubmit_IgnoredOutsidePresenting(t *testing.T) {
	s := presented(t, testEntries())
	s, _ = s.Submit("wrong")
	require.Equal(t, PhaseEvaluating, s.Phase)

	next, out := s.Submit("你好")
	assert.Equal(t, OutcomeNone, out.Kind)
	assert.Equal(t, 0, next.Correct)

	_, out = New(testEntries(), DefaultDelays()).Submit("你好")
	assert.Equal(t, OutcomeNone, out.Kind)
}

func TestSkip(t *testing.T) {
	s := presented(t, testEntries())
	s = s.Skip(lastRand{})
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, "Adiós", s.Current.Source)
	assert.Equal(t, 0, s.Correct+s.Incorrect)
	assert.Len(t, s.Remaining, 3)
}

func TestCompleteOnlyWhenRemainingEmpty(t *testing.T) {
	s := presented(t, testEntries())
	for i := 0; i < 3; i++ {
		require.Equal(t, PhasePresenting, s.Phase, "round %d", i)
		var out Outcome
		s, out = s.Submit(s.Current.Target)
		require.Equal(t, OutcomeCorrect, out.Kind)
		assert.Equal(t, i == 2, out.Last)
		s = s.Advance(firstRand{})
	}
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Equal(t, 1.0, s.Progress())

	// Terminal
	assert.Equal(t, PhaseComplete, s.Present(firstRand{}).Phase)
	assert.Equal(t, PhaseComplete, s.Skip(firstRand{}).Phase)
}

func TestRestart(t *testing.T) {
	s := presented(t, testEntries())
	s, _ = s.Submit("你好")
	s, _ = s.Advance(firstRand{}).Submit("wrong")

	r := s.Restart()
	assert.Equal(t, PhaseLoading, r.Phase)
	assert.Equal(t, 3, r.TotalWords)
	assert.Len(t, r.Remaining, 3)
	assert.Equal(t, 0, r.Correct)
	assert.Equal(t, 0, r.Incorrect)
	assert.Equal(t, testEntries(), r.Entries())
}

func TestEmptyVocabularyCompletes(t *testing.T) {
	s := New(nil, DefaultDelays()).Present(firstRand{})
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Equal(t, 0.0, s.Progress())
	assert.Equal(t, 0, s.Stats().Accuracy)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		correct, incorrect, want int
	}{
		{0, 0, 0},
		{1, 0, 100},
		{0, 4, 0},
		{1, 1, 50},
		{2, 1, 67},
		{1, 2, 33},
		{1, 7, 13}, // 12.5 rounds up
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Accuracy(tt.correct, tt.incorrect), "%d/%d", tt.correct, tt.incorrect)
	}
}

func TestStats(t *testing.T) {
	s := presented(t, testEntries())
	s, _ = s.Submit("wrong")
	s = s.Advance(firstRand{})
	s, _ = s.Submit("你好")

	st := s.Stats()
	assert.Equal(t, Stats{
		Attempts:  2,
		Correct:   1,
		Incorrect: 1,
		Accuracy:  50,
		Progress:  1.0 / 3.0,
		Remaining: 2,
		Total:     3,
	}, st)
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "presenting", PhasePresenting.String())
	assert.Equal(t, "complete", PhaseComplete.String())
	assert.Equal(t, "incorrect", OutcomeIncorrect.String())
	assert.Equal(t, "none", OutcomeNone.String())
}

func TestFeedback(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"Empty", Outcome{Kind: OutcomeEmpty}, "请输入翻译！"},
		{"Correct", Outcome{Kind: OutcomeCorrect, Expected: "你好"}, "✓ 正确！"},
		{"Incorrect", Outcome{Kind: OutcomeIncorrect, Expected: "猫"}, "✗ 错误！ 正确答案是：猫"},
		{"None", Outcome{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Feedback(tt.out))
		})
	}
}
