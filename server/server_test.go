package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autoblog/apperr"
	"autoblog/state"
	"autoblog/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeService struct {
	lastSubject string
	lastOpts    workflow.Options
	runErr      error
	progress    workflow.ProgressView
	posts       []state.Post
	resets      int
}

func (f *fakeService) Run(_ context.Context, subject string, opts workflow.Options) (workflow.Outcome, error) {
	f.lastSubject, f.lastOpts = subject, opts
	if f.runErr != nil {
		return workflow.Outcome{}, f.runErr
	}
	return workflow.Outcome{Subject: subject, Title: "About " + subject, HumanScore: 81, Attempts: 1, PassedThreshold: true, DryRun: opts.DryRun}, nil
}

func (f *fakeService) RunNext(ctx context.Context, opts workflow.Options) (workflow.Outcome, workflow.ProgressView, error) {
	out, err := f.Run(ctx, "Creatine", opts)
	return out, f.progress, err
}

func (f *fakeService) Progress() (workflow.ProgressView, error) { return f.progress, nil }

func (f *fakeService) ResetProgress(context.Context) (workflow.ProgressView, error) {
	f.resets++
	return workflow.ProgressView{Progress: state.DefaultProgress(), NextSubject: "Creatine", TotalSubjects: 4}, nil
}

func (f *fakeService) Posts() ([]state.Post, error) { return f.posts, nil }

func newTestHandler(t *testing.T, svc Service) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	srv, err := New(svc, "biohacking", zap.New(core))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv.Routes(), logs
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestGenerateSubject(t *testing.T) {
	svc := &fakeService{}
	h, logs := newTestHandler(t, svc)
	rec := do(h, http.MethodPost, "/generate/Tongkat%20Ali", `{"dry_run":true,"skip_ai_check":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastSubject != "Tongkat Ali" || !svc.lastOpts.DryRun || !svc.lastOpts.SkipDetection {
		t.Fatalf("subject = %q opts = %+v", svc.lastSubject, svc.lastOpts)
	}
	body := decode(t, rec)
	if body["success"] != true || body["title"] != "About Tongkat Ali" || body["human_score"] != float64(81) {
		t.Fatalf("body = %v", body)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
	if logs.FilterMessage("request complete").Len() != 1 {
		t.Fatalf("request log entries = %d", logs.FilterMessage("request complete").Len())
	}
}

func TestGenerateNextEmptyBody(t *testing.T) {
	svc := &fakeService{progress: workflow.ProgressView{NextSubject: "GABA", TotalSubjects: 4, PercentComplete: 25}}
	h, _ := newTestHandler(t, svc)
	rec := do(h, http.MethodPost, "/generate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastOpts.DryRun {
		t.Fatal("empty body should mean a real run")
	}
	progress, _ := decode(t, rec)["progress"].(map[string]any)
	if progress["nextSubject"] != "GABA" || progress["percentComplete"] != float64(25) {
		t.Fatalf("progress = %v", progress)
	}
}

func TestGenerateRejectsBadJSON(t *testing.T) {
	h, _ := newTestHandler(t, &fakeService{})
	rec := do(h, http.MethodPost, "/generate", `{"dry_run":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"config", apperr.Config("llm", "api key missing"), http.StatusInternalServerError},
		{"service", apperr.Service("zerogpt", errors.New("http 503")), http.StatusBadGateway},
		{"empty", apperr.EmptyOutput("llm", "no text"), http.StatusBadGateway},
		{"wrapped", &workflow.StageError{Stage: workflow.StagePublish, Subject: "x", Err: apperr.Service("wordpress", errors.New("boom"))}, http.StatusBadGateway},
		{"plain", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &fakeService{runErr: tc.err})
			rec := do(h, http.MethodPost, "/generate/Creatine", "")
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			body := decode(t, rec)
			if body["success"] != false || body["error"] == "" || body["request_id"] == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestProgressAndPosts(t *testing.T) {
	svc := &fakeService{posts: []state.Post{{Subject: "Creatine", URL: "https://example.com/c/", PostID: 3}}}
	h, _ := newTestHandler(t, svc)

	if rec := do(h, http.MethodGet, "/progress", ""); rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	rec := do(h, http.MethodDelete, "/progress", "")
	if rec.Code != http.StatusOK || svc.resets != 1 {
		t.Fatalf("reset status = %d resets = %d", rec.Code, svc.resets)
	}
	progress, _ := decode(t, rec)["progress"].(map[string]any)
	if progress["lastIndex"] != float64(-1) {
		t.Fatalf("progress = %v", progress)
	}

	body := decode(t, do(h, http.MethodGet, "/posts", ""))
	if body["count"] != float64(1) {
		t.Fatalf("posts = %v", body)
	}
}

func TestInfo(t *testing.T) {
	h, _ := newTestHandler(t, &fakeService{})
	body := decode(t, do(h, http.MethodGet, "/", ""))
	if body["site"] != "biohacking" {
		t.Fatalf("info = %v", body)
	}
}
