package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/http/response"
	"github.com/yungbote/backofhouse-backend/internal/modules/advisor"
	"github.com/yungbote/backofhouse-backend/internal/modules/advisor/steps"
	"github.com/yungbote/backofhouse-backend/internal/pkg/ctxutil"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
	"github.com/yungbote/backofhouse-backend/internal/services"
)

type scriptedTurn struct {
	toolLoop bool
	deltas   []string
	result   advisor.TurnResult
	err      error
	got      advisor.TurnInput
}

func (s *scriptedTurn) UsesToolLoop(notionEnabled bool) bool { return notionEnabled && s.toolLoop }

func (s *scriptedTurn) RespondTurn(_ context.Context, in advisor.TurnInput, out advisor.Responder) (advisor.TurnOutput, error) {
	s.got = in
	if s.err != nil {
		return advisor.TurnOutput{}, s.err
	}
	for _, d := range s.deltas {
		if err := out.Emit(d); err != nil {
			return advisor.TurnOutput{}, err
		}
	}
	if err := out.Finish(s.result); err != nil {
		return advisor.TurnOutput{}, err
	}
	return advisor.TurnOutput{MessageID: s.result.MessageID, Content: s.result.Content}, nil
}

func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithAuthData(c.Request.Context(), &ctxutil.AuthData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func turnRouter(runner TurnRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New()))
	h := NewTurnHandler(logger.Nop(), runner)
	r.POST("/api/restaurants/:restaurant_id/conversations/:conversation_id/turns", h.Create)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func turnPath() string {
	return "/api/restaurants/" + uuid.NewString() + "/conversations/" + uuid.NewString() + "/turns"
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestTurnStreamsEvents(t *testing.T) {
	msgID := uuid.New()
	runner := &scriptedTurn{
		deltas: []string{"Start with ", "the schedule."},
		result: advisor.TurnResult{MessageID: msgID, Content: "Start with the schedule." + steps.SocraticReminder, Patched: true},
	}
	rec := postJSON(turnRouter(runner), turnPath(), `{"message":"help me cut labor","hard_mode":true}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content-type=%q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"event:delta", "the schedule.", "event:patch", "event:done", msgID.String()} {
		if !strings.Contains(body, want) {
			t.Fatalf("stream missing %q:\n%s", want, body)
		}
	}
	if strings.Index(body, "event:patch") > strings.Index(body, "event:done") {
		t.Fatalf("patch must precede done:\n%s", body)
	}
	if !runner.got.HardMode || runner.got.Message != "help me cut labor" {
		t.Fatalf("input not forwarded: %+v", runner.got)
	}
}

func TestTurnToolPathReturnsJSON(t *testing.T) {
	msgID := uuid.New()
	runner := &scriptedTurn{
		toolLoop: true,
		deltas:   []string{"Found it in Notion."},
		result:   advisor.TurnResult{MessageID: msgID, Content: "Found it in Notion."},
	}
	rec := postJSON(turnRouter(runner), turnPath(), `{"message":"where is the opening checklist","notion_enabled":true}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Content   string    `json:"content"`
		MessageID uuid.UUID `json:"message_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Content != "Found it in Notion." || out.MessageID != msgID {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestTurnErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", steps.ClassifyProviderError(&anthropic.HTTPError{StatusCode: 429}), http.StatusTooManyRequests, "rate_limited"},
		{"payment required", steps.ClassifyProviderError(&anthropic.HTTPError{StatusCode: 402}), http.StatusPaymentRequired, "payment_required"},
		{"unavailable", steps.ClassifyProviderError(&anthropic.HTTPError{StatusCode: 503}), http.StatusBadGateway, "provider_unavailable"},
		{"unknown conversation", apperr.ErrNotFound, http.StatusNotFound, "conversation_not_found"},
	}
	seen := map[string]bool{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(turnRouter(&scriptedTurn{err: tc.err}), turnPath(), `{"message":"hi"}`)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status=%d want %d", rec.Code, tc.wantStatus)
			}
			e := errorBody(t, rec)
			if e.Code != tc.wantCode {
				t.Fatalf("code=%q want %q", e.Code, tc.wantCode)
			}
			if seen[e.Message] {
				t.Fatalf("message %q reused across error kinds", e.Message)
			}
			seen[e.Message] = true
		})
	}
}

func TestTurnRejectsBadInput(t *testing.T) {
	r := turnRouter(&scriptedTurn{})
	rec := postJSON(r, turnPath(), `{"message":"   "}`)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec).Code != "invalid_request" {
		t.Fatalf("blank message: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = postJSON(r, "/api/restaurants/x/conversations/"+uuid.NewString()+"/turns", `{"message":"hi"}`)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec).Code != "invalid_restaurant_id" {
		t.Fatalf("bad restaurant id: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

type stubFeedback struct {
	got services.FeedbackInput
}

func (s *stubFeedback) Submit(_ dbctx.Context, in services.FeedbackInput) (*rtypes.Feedback, error) {
	s.got = in
	if in.Rating < rtypes.MinRating || in.Rating > rtypes.MaxRating {
		return nil, services.ErrInvalidRating
	}
	return &rtypes.Feedback{ID: uuid.New(), RestaurantID: in.RestaurantID, Rating: in.Rating}, nil
}

func TestFeedbackSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubFeedback{}
	r := gin.New()
	r.Use(withUser(uuid.New()))
	r.POST("/api/restaurants/:restaurant_id/feedback", NewFeedbackHandler(svc).Submit)
	path := "/api/restaurants/" + uuid.NewString() + "/feedback"

	rec := postJSON(r, path, `{"rating":9}`)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec).Code != "invalid_rating" {
		t.Fatalf("invalid rating: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = postJSON(r, path, `{"rating":5,"comment":"spot on"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid rating: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.got.Comment != "spot on" || svc.got.UserID == uuid.Nil {
		t.Fatalf("input not forwarded: %+v", svc.got)
	}
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthcheck", NewHealthHandler().HealthCheck)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
}
