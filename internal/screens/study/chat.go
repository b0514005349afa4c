package study

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/player"
	"github.com/abhisek/studypod/internal/step"
	"github.com/abhisek/studypod/internal/ui/components"
	"github.com/abhisek/studypod/internal/ui/theme"
)

// maxChatHistory bounds the turns sent with each message.
const maxChatHistory = 20

// chatPanel is the tutor side panel. The server keeps no state, so the
// whole conversation lives here and is replayed with each message.
type chatPanel struct {
	open    bool
	input   components.TextInput
	history []gateway.ChatTurn
	pending bool
	gen     uint64
	err     string
}

func newChatPanel() chatPanel {
	return chatPanel{input: components.NewTextInput("Ask about this step…", 500)}
}

func (c *chatPanel) clear() {
	c.gen++
	c.history = nil
	c.pending = false
	c.err = ""
	c.input.Reset()
}

// finish applies a reply. Replies for a cleared conversation are dropped.
func (c *chatPanel) finish(msg chatDoneMsg) {
	if msg.gen != c.gen {
		return
	}
	c.pending = false
	if msg.err != nil {
		c.err = player.ErrorText(msg.err)
		// Drop the unanswered turn and give the text back for a retry.
		if n := len(c.history); n > 0 && c.history[n-1].Role == "user" {
			c.history = c.history[:n-1]
		}
		if c.input.Value() == "" {
			c.input.Model.SetValue(msg.message)
		}
		return
	}
	c.err = ""
	c.history = append(c.history, gateway.ChatTurn{Role: "assistant", Content: msg.reply})
}

func (s *Screen) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.chat.open = false
		s.chat.input.Model.Blur()
		return nil
	case "ctrl+k":
		s.chat.clear()
		return nil
	case "enter":
		return s.sendChat()
	}
	var cmd tea.Cmd
	s.chat.input, cmd = s.chat.input.Update(msg)
	return cmd
}

func (s *Screen) sendChat() tea.Cmd {
	text := strings.TrimSpace(s.chat.input.Value())
	if text == "" || s.chat.pending {
		return nil
	}
	history := s.chat.history
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	req := gateway.ChatRequest{
		Message: text,
		History: append([]gateway.ChatTurn(nil), history...),
		Context: s.chatContext(),
	}
	s.chat.history = append(s.chat.history, gateway.ChatTurn{Role: "user", Content: text})
	s.chat.pending = true
	s.chat.err = ""
	s.chat.input.Reset()
	return s.chatCmd(s.chat.gen, req)
}

// chatContext describes what the learner is looking at.
func (s *Screen) chatContext() string {
	var b strings.Builder
	if pl := s.ctrl.Playlist(); pl != nil && pl.Title != "" {
		fmt.Fprintf(&b, "Subtopic: %s\n", pl.Title)
	}
	cur, ok := s.ctrl.Current()
	if !ok {
		return b.String()
	}
	fmt.Fprintf(&b, "Step %d of %d (%s): %s\n", s.ctrl.Index()+1, s.ctrl.Len(), cur.Kind, cur.Title())
	switch cur.Kind {
	case step.KindMCQ:
		b.WriteString(cur.MCQ.Question)
	case step.KindOpenQuestion:
		b.WriteString(cur.Open.Question)
	case step.KindCodingQuestion:
		b.WriteString(cur.Coding.Prompt)
		if st := s.ctrl.State(); st != nil && st.Coding != nil && st.Coding.Code != "" {
			fmt.Fprintf(&b, "\n\nLearner's code:\n%s", st.Coding.Code)
		}
	}
	return b.String()
}

func (c chatPanel) view(width, height int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	var lines []string
	lines = append(lines, theme.Subtitle.Render("Ask the tutor"), "")
	for _, turn := range c.history {
		who := theme.Hint.Render("you")
		if turn.Role == "assistant" {
			who = lipgloss.NewStyle().Foreground(theme.Secondary).Render("tutor")
		}
		lines = append(lines, who, theme.Body.Width(inner).Render(turn.Content), "")
	}
	if c.pending {
		lines = append(lines, theme.Dim.Render("Thinking…"))
	}
	if c.err != "" {
		lines = append(lines, theme.ErrorText.Width(inner).Render(c.err))
	}

	// Keep the newest turns and the input visible.
	body := strings.Split(strings.Join(lines, "\n"), "\n")
	room := height - 4
	if room > 0 && len(body) > room {
		body = body[len(body)-room:]
	}
	c.input.SetWidth(inner)
	content := strings.Join(body, "\n") + "\n\n" + c.input.View()
	return theme.Panel.Width(width).Height(height).Render(content)
}
