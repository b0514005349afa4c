package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/studypod/internal/cache"
	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/grading"
	"github.com/abhisek/studypod/internal/judge0"
	"github.com/abhisek/studypod/internal/llm"
)

// sandbox fakes the Judge0 submissions endpoint. It echoes the literal
// argument of a single print() call and answers with the configured status.
type sandbox struct {
	mu     sync.Mutex
	status int
	calls  int
	last   map[string]any
}

func (sb *sandbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.calls++
	sb.last = map[string]any{}
	json.NewDecoder(r.Body).Decode(&sb.last)
	src, _ := sb.last["source_code"].(string)

	out := ""
	if i := strings.Index(src, "print("); i >= 0 {
		rest := src[i+len("print("):]
		if j := strings.Index(rest, ")"); j >= 0 {
			out = strings.Trim(rest[:j], `'"`) + "\n"
		}
	}
	json.NewEncoder(w).Encode(map[string]any{
		"stdout": out,
		"status": map[string]any{"id": sb.status, "description": "status"},
		"time":   "0.01",
		"memory": 1024,
	})
}

func (sb *sandbox) count() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.calls
}

func (sb *sandbox) field(name string) any {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.last[name]
}

func (sb *sandbox) setStatus(id int) {
	sb.mu.Lock()
	sb.status = id
	sb.mu.Unlock()
}

type fixture struct {
	srv     *httptest.Server
	sandbox *sandbox
	llm     *llm.MockProvider
	root    string
}

func newFixture(t *testing.T, judgeKey string, withLLM bool) *fixture {
	t.Helper()
	sb := &sandbox{status: 3}
	judge := httptest.NewServer(sb)
	t.Cleanup(judge.Close)

	f := &fixture{sandbox: sb, root: t.TempDir()}
	var provider llm.Provider
	if withLLM {
		f.llm = llm.NewMockProvider()
		provider = f.llm
	}

	exec := judge0.New(judge0.Config{URL: judge.URL, APIKey: judgeKey}, judge.Client())
	svc := grading.NewService(exec, provider, cache.NewMemory(0, time.Minute), grading.DefaultConfig(), zap.NewNop())
	s := New(svc, course.NewLibrary(f.root), zap.NewNop(), Options{Environment: "test"})
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	f.srv = httptest.NewServer(s.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "k", false)
	resp, body := f.get(t, "/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var h gateway.HealthStatus
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Environment)
	assert.Equal(t, gateway.APIVersion, h.Version)
	assert.Equal(t, 2026, h.Timestamp.Year())
	assert.NoError(t, gateway.CheckCompatible(&h))
}

func TestRunCodeMissingJudgeKey(t *testing.T) {
	f := newFixture(t, "", false)
	resp, out := f.post(t, "/api/run-code", `{"code":"print(1)","languageId":71}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, out["error"], "JUDGE0_API_KEY")
	assert.Zero(t, f.sandbox.count())
}

func TestRunCodeValidation(t *testing.T) {
	f := newFixture(t, "k", false)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty code", `{"code":"   "}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"malformed", `{"code":`, http.StatusBadRequest},
		{"wrong type", `{"code":7}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := f.post(t, "/api/run-code", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
	assert.Zero(t, f.sandbox.count())
}

func TestRunCodeAcceptsLegacyFields(t *testing.T) {
	f := newFixture(t, "k", false)
	resp, out := f.post(t, "/api/run-code", `{"sourceCode":"print(7)","language":"python","stdin":"x"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "7\n", out["stdout"])
	assert.Equal(t, "print(7)", f.sandbox.field("source_code"))
	assert.Equal(t, float64(71), f.sandbox.field("language_id"))
	assert.Equal(t, "x", f.sandbox.field("stdin"))
}

func TestRunCodeIsCached(t *testing.T) {
	f := newFixture(t, "k", false)
	for i := 0; i < 3; i++ {
		resp, _ := f.post(t, "/api/run-code", `{"code":"print(1)","languageId":71}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 1, f.sandbox.count())
}

func TestSubmitWithoutLLMUsesCannedFeedback(t *testing.T) {
	f := newFixture(t, "k", false)
	resp, out := f.post(t, "/api/submit-code", `{"code":"print(2)","testCases":[{"input":"","expectedOutput":"1"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["passed"])
	assert.NotEmpty(t, out["feedback"])
	exec, _ := out["execution"].(map[string]any)
	assert.Equal(t, "2\n", exec["stdout"])
}

func TestOpenQuestionFeedback(t *testing.T) {
	f := newFixture(t, "k", true)
	f.llm.AddResponse(llm.TextResponse("Mostly right."))

	resp, out := f.post(t, "/api/open-question-feedback", `{"question":"Why hash?","answer":"speed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mostly right.", out["feedback"])
	assert.Contains(t, f.llm.LastCall().Messages[0].Content, "speed")
}

func TestOpenQuestionFeedbackErrors(t *testing.T) {
	t.Run("no model configured", func(t *testing.T) {
		f := newFixture(t, "k", false)
		resp, out := f.post(t, "/api/open-question-feedback", `{"question":"q","userAnswer":"a"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, out["error"], "not configured")
	})
	t.Run("model failure", func(t *testing.T) {
		f := newFixture(t, "k", true)
		f.llm.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
		resp, _ := f.post(t, "/api/open-question-feedback", `{"question":"q","userAnswer":"a"}`)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
	t.Run("missing answer", func(t *testing.T) {
		f := newFixture(t, "k", true)
		resp, _ := f.post(t, "/api/open-question-feedback", `{"question":"q"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestChat(t *testing.T) {
	f := newFixture(t, "k", true)
	f.llm.AddResponse(llm.TextResponse("Try a hash set."))

	resp, out := f.post(t, "/api/chat", `{"message":"dedupe?","history":[{"role":"model","content":"hi"}],"context":"Arrays"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Try a hash set.", out["reply"])
	require.Len(t, f.llm.LastCall().Messages, 2)
	assert.Equal(t, llm.RoleAssistant, f.llm.LastCall().Messages[0].Role)
}

func writeCourse(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "ds101")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "topics"), 0o755))
	outline := `[{"moduleId":"m1","moduleName":"Basics","topics":[{"topicId":"t1","topicName":"Arrays","subtopics":[
		{"subtopicId":"s1","subtopicName":"Indexing"},{"subtopicId":"s2","subtopicName":"Printing"}]}]}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "outline.json"), []byte(outline), 0o644))
	topic := `{
	  "s1": {"title": "Indexing", "steps": [
	    {"stepType": "lesson", "content": {"title": "Zero-based", "blocks": [{"type": "text", "content": "Arrays start at 0."}]}},
	    {"stepType": "MCQ", "content": {"question": "First index?", "options": [{"id": "A", "text": "1"}, {"id": "B", "text": "0"}], "correctOptionId": "B", "explanation": "Offsets start at zero."}},
	    {"stepType": "CodingQuestion", "content": {"markdown": "Print 1", "starterCode": "print(0)", "testCases": [{"input": "", "expectedOutput": "1"}]}}
	  ]},
	  "s2": {"title": "Printing", "steps": [{"stepType": "lesson", "content": {"title": "print"}}]}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "topics", "t1.json"), []byte(topic), 0o644))
}

func TestCourseRoutes(t *testing.T) {
	f := newFixture(t, "k", false)
	writeCourse(t, f.root)

	resp, body := f.get(t, "/api/courses")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"courses":["ds101"]}`, string(body))

	resp, body = f.get(t, "/api/courses/ds101/outline")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	o, err := course.DecodeOutline(body)
	require.NoError(t, err)
	assert.Equal(t, "ds101", o.CourseID)
	assert.Equal(t, 2, o.SubtopicCount())

	resp, _ = f.get(t, "/api/courses/ds101/topics/t1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.get(t, "/api/courses/ds101/topics/t9")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.get(t, "/api/courses/nope/outline")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.get(t, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "k", false)
	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/run-code", nil)
	req.Header.Set("Origin", "https://learn.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&gateway.ValidationError{Field: "code"}, http.StatusBadRequest},
		{&gateway.ConfigurationError{Setting: "X"}, http.StatusInternalServerError},
		{&course.NotFoundError{What: "topic", ID: "t"}, http.StatusNotFound},
		{&gateway.GatewayError{Op: "chat"}, http.StatusBadGateway},
		{errEmptyBody, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, msg := classify(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
		assert.NotEmpty(t, msg)
	}
}
