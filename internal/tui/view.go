package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"hablago/pkg/quiz"
)

const progressWidth = 30

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	var body string
	if m.session.Phase == quiz.PhaseComplete {
		body = m.renderSummary()
	} else {
		body = m.renderQuestion()
	}

	if m.width > 0 && m.height > 0 {
		body = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	v.SetContent(body)
	return v
}

func (m Model) renderQuestion() string {
	s := m.session
	var b strings.Builder

	b.WriteString(titleStyle.Render("西班牙语单词练习"))
	b.WriteString("\n\n")
	b.WriteString(renderProgress(s.Progress()))
	b.WriteString("\n\n")
	b.WriteString(wordStyle.Render(s.Current.Source))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch m.feedbackKind {
	case quiz.OutcomeCorrect:
		b.WriteString(correctStyle.Render(m.feedback))
	case quiz.OutcomeIncorrect, quiz.OutcomeEmpty:
		b.WriteString(incorrectStyle.Render(m.feedback))
	}
	b.WriteString("\n\n")

	st := s.Stats()
	b.WriteString(statStyle.Render(fmt.Sprintf("总答题数 %d · 正确 %d · 错误 %d · 正确率 %d%%",
		st.Attempts, st.Correct, st.Incorrect, st.Accuracy)))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(m.hints()))
	return b.String()
}

func (m Model) hints() string {
	hints := []string{"Enter 检查", "Tab 下一个"}
	if m.speaker != nil && m.speaker.CanPlay() {
		hints = append(hints, "Ctrl+P 发音")
	}
	hints = append(hints, "Esc 退出")
	return strings.Join(hints, "  ")
}

func (m Model) renderSummary() string {
	st := m.session.Stats()
	if st.Total == 0 {
		return strings.Join([]string{
			titleStyle.Render(quiz.CompleteHeading),
			"",
			"词汇表为空。",
			"",
			hintStyle.Render("Esc 退出"),
		}, "\n")
	}
	return strings.Join([]string{
		titleStyle.Render(quiz.CompleteHeading),
		"",
		"恭喜！你已经完成了所有单词的学习！",
		"",
		fmt.Sprintf("总答题数：%d", st.Attempts),
		correctStyle.Render(fmt.Sprintf("正确：%d", st.Correct)),
		incorrectStyle.Render(fmt.Sprintf("错误：%d", st.Incorrect)),
		fmt.Sprintf("正确率：%d%%", st.Accuracy),
		"",
		hintStyle.Render("R 重新开始  Q 退出"),
	}, "\n")
}

func renderProgress(p float64) string {
	filled := int(p * progressWidth)
	filled = max(0, min(progressWidth, filled))
	return progressFilled.Render(strings.Repeat("█", filled)) +
		progressEmpty.Render(strings.Repeat("░", progressWidth-filled)) +
		statStyle.Render(fmt.Sprintf(" %3.0f%%", p*100))
}
