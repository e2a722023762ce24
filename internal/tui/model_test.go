package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"hablago/pkg/quiz"
	"hablago/pkg/vocab"
)

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

type fakeSpeaker struct {
	spoken []string
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) { f.spoken = append(f.spoken, text) }
func (f *fakeSpeaker) CanPlay() bool                          { return true }

var entries = []vocab.Entry{
	{Source: "hola", Target: "你好"},
	{Source: "gato", Target: "猫"},
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func newTestModel(opts Options) Model {
	if opts.Entries == nil {
		opts.Entries = entries
	}
	opts.Rand = firstRand{}
	opts.Delays = quiz.Delays{Correct: time.Millisecond, Incorrect: 2 * time.Millisecond}
	return New(opts)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func answer(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, specialKey(tea.KeyEnter))
}

func TestModel_PresentsFirstWord(t *testing.T) {
	m := newTestModel(Options{})
	if m.Session().Phase != quiz.PhasePresenting {
		t.Fatalf("phase = %v", m.Session().Phase)
	}
	if got := m.Session().Current.Source; got != "hola" {
		t.Errorf("word = %q, want hola", got)
	}
	if !strings.Contains(m.renderQuestion(), "hola") {
		t.Error("question view should show the word")
	}
}

func TestModel_EmptyAnswer(t *testing.T) {
	m := newTestModel(Options{})
	m, cmd := answer(t, m, "   ")
	if cmd != nil {
		t.Error("empty answer should not schedule anything")
	}
	if m.feedback != quiz.EmptyPrompt {
		t.Errorf("feedback = %q", m.feedback)
	}
	if m.Session().Phase != quiz.PhasePresenting {
		t.Errorf("phase = %v", m.Session().Phase)
	}
}

func TestModel_IncorrectThenAdvance(t *testing.T) {
	m := newTestModel(Options{})
	m, cmd := answer(t, m, "猫")
	if cmd == nil {
		t.Fatal("expected advance tick")
	}
	if m.feedbackKind != quiz.OutcomeIncorrect {
		t.Errorf("kind = %v", m.feedbackKind)
	}
	if !strings.Contains(m.feedback, "你好") {
		t.Errorf("feedback should reveal the answer: %q", m.feedback)
	}

	// A stale tick is ignored.
	m, _ = update(t, m, advanceMsg{gen: m.gen - 1})
	if m.Session().Phase != quiz.PhaseEvaluating {
		t.Fatalf("stale tick advanced the session")
	}

	m, _ = update(t, m, advanceMsg{gen: m.gen})
	if m.Session().Phase != quiz.PhasePresenting {
		t.Errorf("phase = %v", m.Session().Phase)
	}
	if m.feedback != "" || m.input.Value() != "" {
		t.Error("feedback and input should be cleared")
	}
	if len(m.Session().Remaining) != 2 {
		t.Errorf("remaining = %d", len(m.Session().Remaining))
	}
}

func TestModel_CompletesAndReportsOnce(t *testing.T) {
	var done []quiz.Session
	m := newTestModel(Options{OnComplete: func(s quiz.Session) { done = append(done, s) }})

	for _, word := range []string{"你好", "猫"} {
		var cmd tea.Cmd
		m, cmd = answer(t, m, word)
		if cmd == nil {
			t.Fatalf("expected tick after %q", word)
		}
		m, _ = update(t, m, advanceMsg{gen: m.gen})
	}

	if m.Session().Phase != quiz.PhaseComplete {
		t.Fatalf("phase = %v", m.Session().Phase)
	}
	if len(done) != 1 {
		t.Fatalf("OnComplete calls = %d, want 1", len(done))
	}
	if done[0].Correct != 2 {
		t.Errorf("correct = %d", done[0].Correct)
	}
	if !strings.Contains(m.renderSummary(), "正确率：100%") {
		t.Errorf("summary missing accuracy:\n%s", m.renderSummary())
	}

	// Restart with R begins a new pass.
	m, _ = update(t, m, keyPress('r'))
	if m.Session().Phase != quiz.PhasePresenting {
		t.Errorf("phase after restart = %v", m.Session().Phase)
	}
	if m.Session().Correct != 0 {
		t.Errorf("score not reset")
	}
}

func TestModel_TabSkipsAndAdvances(t *testing.T) {
	m := newTestModel(Options{})
	m, _ = update(t, m, specialKey(tea.KeyTab))
	if m.Session().Phase != quiz.PhasePresenting {
		t.Fatalf("phase = %v", m.Session().Phase)
	}
	if m.Session().Incorrect != 0 || m.Session().Correct != 0 {
		t.Error("skip should not score")
	}

	m, _ = answer(t, m, "wrong")
	m, _ = update(t, m, specialKey(tea.KeyTab))
	if m.Session().Phase != quiz.PhasePresenting {
		t.Errorf("tab during feedback should advance, phase = %v", m.Session().Phase)
	}

	// The pending tick of the skipped feedback is now stale.
	m, _ = update(t, m, advanceMsg{gen: m.gen - 1})
	if m.Session().Phase != quiz.PhasePresenting {
		t.Error("stale tick changed the session")
	}
}

func TestModel_Speak(t *testing.T) {
	sp := &fakeSpeaker{}
	m := newTestModel(Options{Speaker: sp, AutoSpeak: true})
	m.Init()
	if len(sp.spoken) != 1 || sp.spoken[0] != "hola" {
		t.Fatalf("auto speak = %v", sp.spoken)
	}

	_, _ = update(t, m, tea.KeyPressMsg{Code: 'p', Mod: tea.ModCtrl})
	if len(sp.spoken) != 2 {
		t.Errorf("ctrl+p should pronounce, got %v", sp.spoken)
	}
	if !strings.Contains(m.hints(), "Ctrl+P") {
		t.Error("hints should mention pronunciation")
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(Options{})
	_, cmd := update(t, m, specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_EmptyVocabulary(t *testing.T) {
	called := false
	m := newTestModel(Options{Entries: []vocab.Entry{}, OnComplete: func(quiz.Session) { called = true }})
	if m.Session().Phase != quiz.PhaseComplete {
		t.Fatalf("phase = %v", m.Session().Phase)
	}
	if called {
		t.Error("empty vocabulary must not report a result")
	}
	if !strings.Contains(m.renderSummary(), "词汇表为空") {
		t.Error("summary should mention the empty vocabulary")
	}
}

func TestRenderProgress(t *testing.T) {
	if got := renderProgress(0.5); !strings.Contains(got, " 50%") {
		t.Errorf("progress = %q", got)
	}
}
