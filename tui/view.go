package tui

import (
	"fmt"
	"strings"

	"storyreel/types"
)

var stateText = map[types.State]string{
	types.StateIdle:        "👋 Starting...",
	types.StatePlanning:    "🧠 Planning scenes...",
	types.StateWriting:     "✍️  Writing captions and prompts...",
	types.StateImaging:     "🎨 Generating illustrations...",
	types.StateNarrating:   "🎙️  Synthesizing narration...",
	types.StateVerifying:   "🔍 Verifying audio...",
	types.StateCompositing: "🎬 Compositing video...",
	types.StatePublishing:  "📤 Publishing...",
}

func (m Model) stateLine() string {
	switch m.Status.State {
	case types.StateComplete:
		return HighlightStyle.Render("✅ COMPLETE")
	case types.StateError:
		msg := m.Status.Error
		if msg == "" && m.Err != nil {
			msg = m.Err.Error()
		}
		return ErrorStyle.Render("❌ Error: " + msg)
	}
	return StatusStyle.Render(stateText[m.Status.State])
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🎞️  storyreel: " + m.Status.Title))
	b.WriteString("\n\n")
	b.WriteString(m.stateLine())
	b.WriteString("\n\n")

	if m.Status.SceneCount > 0 {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("📊 Scenes: %d | Caption lines: %d", m.Status.SceneCount, m.Status.LineCount)))
		b.WriteString("\n")
	}
	if m.Status.Folder != "" {
		b.WriteString(InfoStyle.Render("📁 ") + PathStyle.Render(m.Status.Folder))
		b.WriteString("\n\n")
	}

	if len(m.Status.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, entry := range m.Status.Logs {
			line := fmt.Sprintf("   [%s] %s", entry.Timestamp.Format("15:04:05"), entry.Message)
			b.WriteString(InfoStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.Status.State == types.StateComplete {
		var r strings.Builder
		r.WriteString("Output: " + PathStyle.Render(m.Status.OutputPath) + "\n")
		for _, loc := range m.Status.Published {
			r.WriteString("Published: " + PathStyle.Render(loc) + "\n")
		}
		b.WriteString(BoxStyle.Render(strings.TrimSuffix(r.String(), "\n")))
		b.WriteString("\n\n")
	}

	if m.Done {
		b.WriteString(InfoStyle.Render("Press 'q' to exit"))
	} else {
		b.WriteString(InfoStyle.Render("Press 'q' to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}
