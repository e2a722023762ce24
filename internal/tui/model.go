// Package tui is the terminal front-end for the quiz.
package tui

import (
	"context"
	"math/rand/v2"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"hablago/pkg/quiz"
	"hablago/pkg/vocab"
)

// Speaker pronounces a word without blocking.
type Speaker interface {
	Speak(ctx context.Context, text string)
	CanPlay() bool
}

// Options configures the terminal quiz.
type Options struct {
	Entries    []vocab.Entry
	Delays     quiz.Delays
	Speaker    Speaker              // optional
	AutoSpeak  bool                 // pronounce every new word
	OnComplete func(s quiz.Session) // called once per finished pass
	Rand       quiz.Rand            // optional, for tests
}

// advanceMsg ends the feedback pause of generation gen.
type advanceMsg struct {
	gen uint64
}

// Model is the Bubble Tea model of one quiz run.
type Model struct {
	session  quiz.Session
	rng      quiz.Rand
	delays   quiz.Delays
	input    textinput.Model
	speaker  Speaker
	auto     bool
	onDone   func(quiz.Session)
	reported bool

	feedback     string
	feedbackKind quiz.OutcomeKind
	gen          uint64
	width        int
	height       int
}

// New creates a model and presents the first word.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "输入中文翻译"
	ti.CharLimit = 64
	ti.Focus()

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	m := Model{
		session: quiz.New(opts.Entries, opts.Delays),
		rng:     rng,
		delays:  opts.Delays,
		input:   ti,
		speaker: opts.Speaker,
		auto:    opts.AutoSpeak,
		onDone:  opts.OnComplete,
	}
	m.session = m.session.Present(m.rng)
	return m
}

// Session returns the current quiz state.
func (m Model) Session() quiz.Session {
	return m.session
}

func (m Model) Init() tea.Cmd {
	return m.autoSpeak()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case advanceMsg:
		if msg.gen != m.gen || m.session.Phase != quiz.PhaseEvaluating {
			return m, nil
		}
		m.session = m.session.Advance(m.rng)
		return m.afterMove()

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.session.Phase == quiz.PhasePresenting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+p":
		m.speak()
		return m, nil
	}

	switch m.session.Phase {
	case quiz.PhaseComplete:
		switch msg.String() {
		case "r", "enter":
			m.gen++
			m.session = m.session.Restart().Present(m.rng)
			m.reported = false
			return m.afterMove()
		case "q":
			return m, tea.Quit
		}
		return m, nil

	case quiz.PhaseEvaluating:
		if msg.String() == "tab" || msg.String() == "enter" {
			m.gen++
			m.session = m.session.Advance(m.rng)
			return m.afterMove()
		}
		return m, nil

	case quiz.PhasePresenting:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "tab":
			m.session = m.session.Skip(m.rng)
			return m.afterMove()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	next, out := m.session.Submit(m.input.Value())
	m.session = next
	m.feedback = quiz.Feedback(out)
	m.feedbackKind = out.Kind

	if out.Kind != quiz.OutcomeCorrect && out.Kind != quiz.OutcomeIncorrect {
		return m, nil
	}
	m.gen++
	gen := m.gen
	return m, tea.Tick(out.Delay, func(_ time.Time) tea.Msg {
		return advanceMsg{gen: gen}
	})
}

// afterMove resets the input for a newly presented word and reports completion.
func (m Model) afterMove() (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.feedback = ""
	m.feedbackKind = quiz.OutcomeNone

	if m.session.Phase == quiz.PhaseComplete {
		if !m.reported && m.session.TotalWords > 0 && m.onDone != nil {
			m.onDone(m.session)
		}
		m.reported = true
		return m, nil
	}
	return m, m.autoSpeak()
}

func (m Model) autoSpeak() tea.Cmd {
	if m.auto {
		m.speak()
	}
	return nil
}

func (m Model) speak() {
	if m.speaker == nil || !m.speaker.CanPlay() {
		return
	}
	if m.session.Phase == quiz.PhasePresenting || m.session.Phase == quiz.PhaseEvaluating {
		m.speaker.Speak(context.Background(), m.session.Current.Source)
	}
}
