package study

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/player"
	"github.com/abhisek/studypod/internal/step"
)

// loadDoneMsg carries a fetched playlist back to the event loop.
type loadDoneMsg struct {
	req      player.LoadRequest
	playlist *step.Playlist
	err      error
}

// feedbackDoneMsg carries open-question feedback.
type feedbackDoneMsg struct {
	ticket player.Ticket
	text   string
	err    error
}

type runDoneMsg struct {
	ticket player.Ticket
	result *gateway.ExecutionResult
	err    error
}

type submitDoneMsg struct {
	ticket player.Ticket
	result *gateway.SubmissionResult
	err    error
}

// chatDoneMsg carries a tutor reply. gen matches chatPanel.gen at send
// time; replies from a cleared conversation are dropped.
type chatDoneMsg struct {
	gen     uint64
	message string
	reply   string
	err     error
}

func (s *Screen) fetchCmd(req player.LoadRequest) tea.Cmd {
	ctrl, timeout := s.ctrl, s.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pl, err := ctrl.Fetch(ctx, req)
		return loadDoneMsg{req: req, playlist: pl, err: err}
	}
}

func (s *Screen) feedbackCmd(t player.Ticket, req gateway.FeedbackRequest) tea.Cmd {
	gw, timeout := s.opts.Gateway, s.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := gw.OpenQuestionFeedback(ctx, req)
		return feedbackDoneMsg{ticket: t, text: text, err: err}
	}
}

func (s *Screen) runCmd(t player.Ticket, req gateway.RunRequest) tea.Cmd {
	gw, timeout := s.opts.Gateway, s.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := gw.RunCode(ctx, req)
		return runDoneMsg{ticket: t, result: res, err: err}
	}
}

func (s *Screen) submitCmd(t player.Ticket, req gateway.SubmitRequest) tea.Cmd {
	gw, timeout := s.opts.Gateway, s.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := gw.SubmitCode(ctx, req)
		return submitDoneMsg{ticket: t, result: res, err: err}
	}
}

func (s *Screen) chatCmd(gen uint64, req gateway.ChatRequest) tea.Cmd {
	gw, timeout := s.opts.Gateway, s.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply, err := gw.Chat(ctx, req)
		return chatDoneMsg{gen: gen, message: req.Message, reply: reply, err: err}
	}
}
