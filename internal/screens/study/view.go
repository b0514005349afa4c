package study

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/player"
	"github.com/abhisek/studypod/internal/step"
	"github.com/abhisek/studypod/internal/ui/components"
	"github.com/abhisek/studypod/internal/ui/layout"
	"github.com/abhisek/studypod/internal/ui/theme"
)

const chatWidth = 42

// rebuildMenu lays the outline out as headings and subtopic rows and puts
// the cursor on the open subtopic when there is one.
func (s *Screen) rebuildMenu() {
	prev := s.menu.Selected
	openID := s.SubtopicID()

	var items []components.MenuItem
	var refs []course.Ref
	for _, m := range s.opts.Outline.Modules {
		items = append(items, components.MenuItem{Label: m.Name, Heading: true})
		refs = append(refs, course.Ref{})
		for _, t := range m.Topics {
			items = append(items, components.MenuItem{Label: t.Name, Heading: true, Depth: 1})
			refs = append(refs, course.Ref{})
			for _, st := range t.Subtopics {
				name := st.Name
				if name == "" {
					name = st.ID
				}
				items = append(items, components.MenuItem{Label: name, Depth: 2, Marked: st.ID == openID})
				refs = append(refs, course.Ref{
					ModuleID: m.ID, ModuleName: m.Name,
					TopicID: t.ID, TopicName: t.Name,
					Subtopic: st,
				})
			}
		}
	}

	s.menu = components.NewMenu(items)
	s.menuRefs = refs
	s.menu.Select(prev)
	if openID != "" {
		for i, r := range refs {
			if !items[i].Heading && r.ID == openID {
				s.menu.Select(i)
				break
			}
		}
	}
}

func (s *Screen) syncMenuCursor() { s.rebuildMenu() }

func (s *Screen) View(width, height int) string {
	if s.ctrl.View() == player.ViewBrowse {
		return s.viewBrowse(width, height)
	}

	mainWidth := width
	var side, chat string
	if s.ctrl.SidebarOpen() && !layout.IsCompactWidth(width) {
		side = theme.Panel.Width(layout.SidebarWidth).Height(height).
			Render(s.menu.View(layout.SidebarWidth-4, height-2))
		mainWidth -= layout.SidebarWidth
	}
	if s.chat.open {
		w := chatWidth
		if layout.IsCompactWidth(width) {
			w = mainWidth / 2
		}
		chat = s.chat.view(w, height)
		mainWidth -= w
	}

	main := s.viewFocus(mainWidth, height)
	parts := []string{}
	if side != "" {
		parts = append(parts, side)
	}
	parts = append(parts, main)
	if chat != "" {
		parts = append(parts, chat)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (s *Screen) viewBrowse(width, height int) string {
	var b strings.Builder
	title := s.opts.Outline.Title
	if title == "" {
		title = s.opts.CourseID
	}
	b.WriteString(theme.Title.Render(title))
	b.WriteString("  ")
	b.WriteString(theme.Dim.Render(fmt.Sprintf("%d subtopics", s.opts.Outline.SubtopicCount())))
	b.WriteString("\n\n")
	if len(s.menu.Items) == 0 {
		b.WriteString(theme.Dim.Render("This course has no modules yet."))
		return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
	}
	if s.notice != "" {
		b.WriteString(theme.Hint.Render(s.notice))
		b.WriteString("\n\n")
	}
	used := lipgloss.Height(b.String())
	b.WriteString(s.menu.View(width-4, height-used))
	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (s *Screen) viewFocus(width, height int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	var head strings.Builder
	head.WriteString(theme.Title.Render(s.Title()))
	if ref := s.ctrl.Subtopic(); ref.TopicName != "" {
		head.WriteString("  " + theme.Dim.Render(ref.ModuleName+" › "+ref.TopicName))
	}
	head.WriteString("\n")
	if s.ctrl.Status() == player.StatusReady {
		head.WriteString(components.NewStepProgress(s.ctrl.Index(), s.ctrl.Len(), inner).View())
	}
	head.WriteString("\n")

	status := s.statusLine()
	bodyHeight := height - lipgloss.Height(head.String()) - lipgloss.Height(status) - 1
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	s.body.SetWidth(inner)
	s.body.SetHeight(bodyHeight)
	s.body.SetContent(s.renderBody(inner))

	content := head.String() + "\n" + s.body.View() + "\n" + status
	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(content)
}

func (s *Screen) statusLine() string {
	var parts []string
	if s.busy() {
		parts = append(parts, s.spinner.View()+" "+theme.Dim.Render(s.busyLabel()))
	}
	if s.notice != "" {
		parts = append(parts, theme.Hint.Render(s.notice))
	}
	return strings.Join(parts, "  ")
}

func (s *Screen) busyLabel() string {
	if s.ctrl.Status() == player.StatusLoading {
		return "Loading…"
	}
	if st := s.ctrl.State(); st != nil {
		switch {
		case st.Open != nil && st.Open.IsSubmitting:
			return "Getting feedback…"
		case st.Coding != nil && st.Coding.IsSubmitting:
			return "Grading submission…"
		case st.Coding != nil && st.Coding.IsRunning:
			return "Running…"
		}
	}
	return "Waiting for the tutor…"
}

func (s *Screen) renderBody(width int) string {
	switch s.ctrl.Status() {
	case player.StatusLoading:
		return theme.Dim.Render("Loading " + s.ctrl.Subtopic().Name + "…")
	case player.StatusFailed:
		var nf *course.NotFoundError
		if errors.As(s.ctrl.LoadError(), &nf) {
			return theme.Dim.Render("This subtopic has no content yet.\n\nPress B to pick another one.")
		}
		return theme.ErrorText.Width(width).Render("Couldn't load this subtopic: "+s.ctrl.LoadError().Error()) +
			"\n\n" + theme.Dim.Render("Press B to pick another one.")
	case player.StatusEmpty:
		return theme.Dim.Render("This subtopic has no steps yet.\n\nPress C to move on.")
	}

	cur, ok := s.ctrl.Current()
	if !ok {
		return ""
	}
	st := s.ctrl.State()
	switch cur.Kind {
	case step.KindLesson, step.KindWorkedExample:
		return renderReading(cur, width)
	case step.KindMCQ:
		return s.renderChoice(cur, st, width)
	case step.KindOpenQuestion:
		return s.renderOpen(cur, st, width)
	case step.KindCodingQuestion:
		return s.renderCoding(cur, st, width)
	}
	return ""
}

func renderReading(cur step.Step, width int) string {
	r := cur.Reading
	if r == nil {
		return ""
	}
	var b strings.Builder
	if cur.Kind == step.KindWorkedExample {
		b.WriteString(theme.Hint.Render("Worked example"))
		b.WriteString("\n")
	}
	if r.Title != "" {
		b.WriteString(theme.Subtitle.Render(r.Title))
		b.WriteString("\n\n")
	}
	for _, blk := range r.Blocks {
		switch blk.Kind {
		case step.BlockSubtitle:
			b.WriteString(theme.Subtitle.Render(blk.Text))
		case step.BlockCode:
			if blk.Language != "" {
				b.WriteString(theme.Dim.Render(blk.Language))
				b.WriteString("\n")
			}
			b.WriteString(theme.Code.Width(width).Render(blk.Text))
		case step.BlockDiagram:
			b.WriteString(theme.Panel.Render(blk.Text))
		default:
			b.WriteString(theme.Body.Width(width).Render(blk.Text))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// choiceModel is the display state of an MCQ step at the screen's cursor.
func (s *Screen) choiceModel(cur step.Step, st *player.Interaction) components.MultiChoice {
	mc := components.MultiChoice{
		Question:  cur.MCQ.Question,
		Cursor:    s.cursor,
		CorrectID: cur.MCQ.CorrectOptionID,
	}
	for _, o := range cur.MCQ.Options {
		mc.Choices = append(mc.Choices, components.Choice{ID: o.ID, Text: o.Text})
	}
	if st != nil && st.MCQ != nil {
		mc.Selected = st.MCQ.SelectedOptionID
		mc.Submitted = st.MCQ.Submitted
	}
	return mc
}

func (s *Screen) renderChoice(cur step.Step, st *player.Interaction, width int) string {
	mc := s.choiceModel(cur, st)
	out := mc.View(width)
	if mc.Submitted {
		res := player.Outcome(cur.MCQ, st.MCQ)
		verdict := theme.Incorrect.Render("✗ Not quite.")
		if res.IsCorrect {
			verdict = theme.Correct.Render("✓ Correct!")
		}
		out += "\n" + verdict
		if res.Feedback != "" {
			out += "\n" + theme.Body.Width(width).Render(res.Feedback)
		}
	}
	return out
}

func (s *Screen) renderOpen(cur step.Step, st *player.Interaction, width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(cur.Open.Question))
	b.WriteString("\n")
	if cur.Open.Context != "" {
		b.WriteString(theme.Dim.Width(width).Render(cur.Open.Context))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if st == nil || st.Open == nil {
		return b.String()
	}

	if s.editing {
		s.editor.SetWidth(width)
		s.editor.SetHeight(6)
		b.WriteString(s.editor.View())
	} else if st.Open.AnswerDraft != "" {
		b.WriteString(theme.Card.Width(width).Render(st.Open.AnswerDraft))
	} else {
		b.WriteString(theme.Dim.Render("Press E to write your answer."))
	}
	b.WriteString("\n")

	if st.Open.Feedback != "" {
		b.WriteString("\n" + theme.Subtitle.Render("Feedback") + "\n")
		b.WriteString(theme.Body.Width(width).Render(st.Open.Feedback))
		b.WriteString("\n")
	}
	if st.Open.Error != "" {
		b.WriteString("\n" + theme.ErrorText.Width(width).Render(st.Open.Error) + "\n")
	}
	return b.String()
}

func (s *Screen) renderCoding(cur step.Step, st *player.Interaction, width int) string {
	c := cur.Coding
	var b strings.Builder
	if c.Prompt != "" {
		b.WriteString(theme.Body.Width(width).Render(c.Prompt))
		b.WriteString("\n\n")
	}
	meta := c.Language
	if meta == "" {
		meta = fmt.Sprintf("language %d", c.LanguageID)
	}
	if c.HasExpected {
		meta += " · expected output: " + oneLine(c.ExpectedOutput)
	}
	b.WriteString(theme.Dim.Render(meta))
	b.WriteString("\n")
	if st == nil || st.Coding == nil {
		return b.String()
	}

	if s.editing {
		s.editor.SetWidth(width)
		s.editor.SetHeight(12)
		b.WriteString(s.editor.View())
	} else {
		code := st.Coding.Code
		if code == "" {
			code = theme.Dim.Render("(empty)")
		}
		b.WriteString(theme.Code.Width(width).Render(code))
	}
	b.WriteString("\n")

	if st.Coding.Error != "" {
		b.WriteString("\n" + theme.ErrorText.Width(width).Render(st.Coding.Error) + "\n")
	}
	if r := st.Coding.RunResult; r != nil {
		b.WriteString("\n" + theme.Subtitle.Render("Output") + "  " + statusBadge(r) + "\n")
		b.WriteString(renderExecution(r, width))
	}
	if sub := st.Coding.SubmitResult; sub != nil {
		verdict := theme.Incorrect.Render("✗ Not passing yet")
		if sub.Passed {
			verdict = theme.Correct.Render("✓ Passed")
		}
		b.WriteString("\n" + theme.Subtitle.Render("Submission") + "  " + verdict + "\n")
		if sub.Feedback != "" {
			b.WriteString(theme.Body.Width(width).Render(sub.Feedback) + "\n")
		}
		if sub.Execution != nil && !sub.Passed {
			b.WriteString(renderExecution(sub.Execution, width))
		}
	}
	return b.String()
}

func statusBadge(r *gateway.ExecutionResult) string {
	desc := r.Status.Description
	if desc == "" {
		desc = fmt.Sprintf("status %d", r.Status.ID)
	}
	if r.Accepted() {
		return theme.Correct.Render(desc)
	}
	return theme.Incorrect.Render(desc)
}

func renderExecution(r *gateway.ExecutionResult, width int) string {
	var b strings.Builder
	section := func(label, text string, style lipgloss.Style) {
		if strings.TrimSpace(text) == "" {
			return
		}
		b.WriteString(theme.Dim.Render(label) + "\n")
		b.WriteString(style.Width(width).Render(strings.TrimRight(text, "\n")) + "\n")
	}
	section("stdout", r.Stdout, theme.Code)
	section("stderr", r.Stderr, theme.ErrorText)
	section("compiler", r.CompileOutput, theme.ErrorText)
	if r.Time != "" || r.Memory > 0 {
		b.WriteString(theme.Dim.Render(fmt.Sprintf("%ss · %d KB", r.Time, r.Memory)) + "\n")
	}
	return b.String()
}

func oneLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
