package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/step"
)

var errEmptyBody = errors.New("empty body")

func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// codeBody accepts both request schemas: "code" or the older "sourceCode",
// plus every coding field spelling the content model understands.
type codeBody struct {
	step.RawCoding
	Code       *string `json:"code"`
	SourceCode *string `json:"sourceCode"`
}

func (b *codeBody) coding() (*step.Coding, string) {
	code := ""
	switch {
	case b.Code != nil:
		code = *b.Code
	case b.SourceCode != nil:
		code = *b.SourceCode
	}
	return step.NormalizeCoding(b.RawCoding), code
}

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request) {
	var body codeBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	c, code := body.coding()

	res, err := s.grading.Run(r.Context(), gateway.NewRunRequest(c, code))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}

func (s *Server) handleSubmitCode(w http.ResponseWriter, r *http.Request) {
	var body codeBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	c, code := body.coding()

	res, err := s.grading.Submit(r.Context(), gateway.NewSubmitRequest(c, code))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}

type feedbackBody struct {
	gateway.FeedbackRequest
	// older clients send "answer"
	Answer string `json:"answer"`
}

func (s *Server) handleOpenQuestionFeedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	req := body.FeedbackRequest
	if req.UserAnswer == "" {
		req.UserAnswer = body.Answer
	}

	text, err := s.grading.OpenQuestionFeedback(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"feedback": text})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req gateway.ChatRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reply, err := s.grading.Chat(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, gateway.HealthStatus{
		Status:      "ok",
		Environment: s.opts.Environment,
		Timestamp:   s.now().UTC(),
		Version:     gateway.APIVersion,
	})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	ids, err := s.courses.Courses()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.respond(w, http.StatusOK, map[string][]string{"courses": ids})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	src, err := s.courses.Source(chi.URLParam(r, "courseID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	o, err := src.Outline(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, o)
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	src, err := s.courses.Source(chi.URLParam(r, "courseID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	payload, err := src.TopicPayload(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, payload)
}
