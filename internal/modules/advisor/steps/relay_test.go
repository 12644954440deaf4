package steps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

func relayRequest() RelayRequest {
	return RelayRequest{
		Choice:   ModelChoice{Model: "m", MaxTokens: 100},
		System:   "sys",
		Messages: []anthropic.Message{anthropic.TextMessage(anthropic.RoleUser, "hi")},
	}
}

func TestStreamRelayForwardsDeltas(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"Hel", "lo ", "there"}}
	out := &recordingResponder{}
	res, err := NewStreamRelay(provider).Relay(context.Background(), relayRequest(), out)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if res.Text != "Hello there" || !res.Emitted || len(out.emitted) != 3 {
		t.Fatalf("res=%+v emitted=%v", res, out.emitted)
	}
}

func TestStreamRelayFailureBeforeOutput(t *testing.T) {
	provider := &fakeProvider{streamErr: &anthropic.HTTPError{StatusCode: http.StatusTooManyRequests}}
	_, err := NewStreamRelay(provider).Relay(context.Background(), relayRequest(), &recordingResponder{})
	var pf *ProviderFailure
	if !errors.As(err, &pf) || pf.Kind != ProviderRateLimited {
		t.Fatalf("err=%v want rate_limited ProviderFailure", err)
	}
}

func TestStreamRelayFailureAfterOutputKeepsPartial(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"Part one. ", "never sent"}, failAfter: 1, streamErr: &anthropic.StreamError{Type: "overloaded_error"}}
	res, err := NewStreamRelay(provider).Relay(context.Background(), relayRequest(), &recordingResponder{})
	if err != nil {
		t.Fatalf("partial output must not be an error: %v", err)
	}
	if res.Text != "Part one. " || res.Interrupted == nil {
		t.Fatalf("res=%+v", res)
	}
}

func toolUseResponse(text string) *anthropic.Response {
	content := []anthropic.ContentBlock{}
	if text != "" {
		content = append(content, anthropic.ContentBlock{Type: anthropic.BlockText, Text: text})
	}
	content = append(content, anthropic.ContentBlock{Type: anthropic.BlockToolUse, ID: "tu_1", Name: ToolNotionSearch, Input: json.RawMessage(`{"query":"checklist"}`)})
	return &anthropic.Response{StopReason: "tool_use", Content: content}
}

func TestToolLoopStopsAfterMaxRounds(t *testing.T) {
	provider := &fakeProvider{complete: func(call int, _ anthropic.Request) (*anthropic.Response, error) {
		return toolUseResponse(""), nil
	}}
	tools := &fakeTools{}
	out := &recordingResponder{}
	res, err := NewToolLoopRelay(logger.Nop(), provider, tools).Relay(context.Background(), relayRequest(), out)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if provider.completeCalls != MaxToolRounds || res.Rounds != MaxToolRounds {
		t.Fatalf("complete calls=%d rounds=%d want %d", provider.completeCalls, res.Rounds, MaxToolRounds)
	}
	if res.Text != "" || len(out.emitted) != 0 {
		t.Fatalf("expected empty text, got %q", res.Text)
	}
}

func TestToolLoopAccumulatesTextAndFeedsResults(t *testing.T) {
	provider := &fakeProvider{complete: func(call int, req anthropic.Request) (*anthropic.Response, error) {
		if call == 1 {
			return toolUseResponse("Let me check your workspace."), nil
		}
		return &anthropic.Response{Content: []anthropic.ContentBlock{{Type: anthropic.BlockText, Text: "Found your opening checklist."}}}, nil
	}}
	tools := &fakeTools{}
	out := &recordingResponder{}
	res, err := NewToolLoopRelay(logger.Nop(), provider, tools).Relay(context.Background(), relayRequest(), out)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	want := "Let me check your workspace.\n\nFound your opening checklist."
	if res.Text != want || len(out.emitted) != 1 || out.emitted[0] != want {
		t.Fatalf("text=%q emitted=%v", res.Text, out.emitted)
	}
	second := provider.lastRequest()
	if len(second.Tools) != 1 || len(second.Messages) != 3 {
		t.Fatalf("second request tools=%d messages=%d", len(second.Tools), len(second.Messages))
	}
	result := second.Messages[2].Content[0]
	if result.Type != anthropic.BlockToolResult || result.ToolUseID != "tu_1" || result.IsError {
		t.Fatalf("tool result block=%+v", result)
	}
}

func TestToolLoopConvertsToolErrors(t *testing.T) {
	provider := &fakeProvider{complete: func(call int, _ anthropic.Request) (*anthropic.Response, error) {
		if call == 1 {
			return toolUseResponse(""), nil
		}
		return &anthropic.Response{Content: []anthropic.ContentBlock{{Type: anthropic.BlockText, Text: "I couldn't reach Notion."}}}, nil
	}}
	res, err := NewToolLoopRelay(logger.Nop(), provider, &fakeTools{fail: true}).Relay(context.Background(), relayRequest(), &recordingResponder{})
	if err != nil {
		t.Fatalf("tool failure must not fail the turn: %v", err)
	}
	result := provider.lastRequest().Messages[2].Content[0]
	if !result.IsError || !strings.Contains(result.Content, `"error":"workspace unreachable"`) {
		t.Fatalf("tool result=%+v", result)
	}
	if res.Text != "I couldn't reach Notion." {
		t.Fatalf("text=%q", res.Text)
	}
}

func TestClassifyProviderError(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{&anthropic.HTTPError{StatusCode: 429}, ProviderRateLimited, http.StatusTooManyRequests},
		{&anthropic.HTTPError{StatusCode: 402}, ProviderPaymentRequired, http.StatusPaymentRequired},
		{&anthropic.HTTPError{StatusCode: 500}, ProviderUnavailable, http.StatusBadGateway},
		{&anthropic.HTTPError{StatusCode: 503}, ProviderUnavailable, http.StatusBadGateway},
		{errors.New("dial tcp: connection refused"), ProviderUnavailable, http.StatusBadGateway},
	}
	messages := map[string]bool{}
	for _, tc := range cases {
		pf := ClassifyProviderError(tc.err)
		if pf.Kind != tc.kind || pf.HTTPStatus() != tc.status {
			t.Fatalf("ClassifyProviderError(%v)=%s/%d want %s/%d", tc.err, pf.Kind, pf.HTTPStatus(), tc.kind, tc.status)
		}
		messages[pf.UserMessage()] = true
	}
	if len(messages) != 3 {
		t.Fatalf("expected three distinct user messages, got %d", len(messages))
	}
}

func TestShouldAppendReminder(t *testing.T) {
	cases := []struct {
		draw       float64
		count      int
		last       int
		wantAppend bool
	}{
		{0.01, 10, 0, true},
		{0.01, 9, 0, false},
		{0.01, 25, 16, false},
		{0.01, 26, 16, true},
		{0.075, 40, 0, false},
		{0.5, 40, 0, false},
	}
	for _, tc := range cases {
		if got := ShouldAppendReminder(tc.draw, tc.count, tc.last); got != tc.wantAppend {
			t.Fatalf("ShouldAppendReminder(%v,%d,%d)=%v", tc.draw, tc.count, tc.last, got)
		}
	}
}
