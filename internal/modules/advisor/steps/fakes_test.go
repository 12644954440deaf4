package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/clients/pos"
	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
)

type fakeKnowledgeRepo struct {
	rows []*rtypes.CustomKnowledge
	err  error
}

func (f *fakeKnowledgeRepo) Create(dbctx.Context, *rtypes.CustomKnowledge) error { return nil }
func (f *fakeKnowledgeRepo) ListActive(dbctx.Context, uuid.UUID) ([]*rtypes.CustomKnowledge, error) {
	return f.rows, f.err
}

type fakeFeedbackRepo struct {
	ratings []int
	err     error
}

func (f *fakeFeedbackRepo) Create(dbctx.Context, *rtypes.Feedback) error { return nil }
func (f *fakeFeedbackRepo) ListRecentRatings(_ dbctx.Context, _ uuid.UUID, limit int) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.ratings) > limit {
		return f.ratings[:limit], nil
	}
	return f.ratings, nil
}

type fakeFileRepo struct {
	permanent []*rtypes.File
	temporary []*rtypes.File
	tempLimit int
}

func (f *fakeFileRepo) Create(dbctx.Context, *rtypes.File) error { return nil }
func (f *fakeFileRepo) ListPermanent(dbctx.Context, uuid.UUID) ([]*rtypes.File, error) {
	return f.permanent, nil
}
func (f *fakeFileRepo) ListTemporary(_ dbctx.Context, _, _ uuid.UUID, limit int) ([]*rtypes.File, error) {
	f.tempLimit = limit
	return f.temporary, nil
}

type fakeBucket struct {
	mu        sync.Mutex
	objects   map[string][]byte
	downloads []string
}

func (b *fakeBucket) DownloadFile(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.downloads = append(b.downloads, key)
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBucket) Close() error { return nil }

// fakePOSClient answers a request with a processing status and then reports
// ready on the readyAfter-th poll.
type fakePOSClient struct {
	mu         sync.Mutex
	readyAfter int
	data       []pos.MetricRecord
	requests   int
	polls      int
	lastPoll   string
}

func (c *fakePOSClient) Do(_ context.Context, req pos.ReportRequest) (*pos.ReportResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch req.Action {
	case pos.ActionRequest:
		c.requests++
		return &pos.ReportResponse{Status: pos.StatusProcessing, ReportGUID: "report-1"}, nil
	case pos.ActionPoll:
		c.polls++
		c.lastPoll = req.ReportGUID
		if c.readyAfter > 0 && c.polls >= c.readyAfter {
			return &pos.ReportResponse{Status: pos.StatusReady, ReportGUID: req.ReportGUID, Data: c.data}, nil
		}
		return &pos.ReportResponse{Status: pos.StatusProcessing, ReportGUID: req.ReportGUID}, nil
	}
	return nil, errors.New("unexpected action")
}

type fakeReportCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func cacheKey(guid string, date int) string { return fmt.Sprintf("%s|%d", guid, date) }

func (c *fakeReportCache) GetReportGUID(_ context.Context, guid string, date int) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(guid, date)]
	return v, ok, nil
}

func (c *fakeReportCache) SetReportGUID(_ context.Context, guid string, date int, reportGUID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[cacheKey(guid, date)] = reportGUID
	return nil
}

func (c *fakeReportCache) Close() error { return nil }

// fakeProvider scripts anthropic.Client responses.
type fakeProvider struct {
	mu sync.Mutex

	deltas    []string
	streamErr error
	// failAfter, when >0, returns streamErr after that many deltas.
	failAfter int

	complete      func(call int, req anthropic.Request) (*anthropic.Response, error)
	completeCalls int
	requests      []anthropic.Request
}

func (p *fakeProvider) Complete(_ context.Context, req anthropic.Request) (*anthropic.Response, error) {
	p.mu.Lock()
	p.completeCalls++
	call := p.completeCalls
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return p.complete(call, req)
}

func (p *fakeProvider) Stream(_ context.Context, req anthropic.Request, onDelta func(string) error) (string, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.streamErr != nil && p.failAfter == 0 {
		return "", p.streamErr
	}
	var full string
	for i, d := range p.deltas {
		if p.failAfter > 0 && i == p.failAfter {
			return full, p.streamErr
		}
		full += d
		if err := onDelta(d); err != nil {
			return full, err
		}
	}
	return full, nil
}

func (p *fakeProvider) lastRequest() anthropic.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type recordingResponder struct {
	mu       sync.Mutex
	emitted  []string
	finished []TurnResult
}

func (r *recordingResponder) Emit(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted = append(r.emitted, text)
	return nil
}

func (r *recordingResponder) Finish(res TurnResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
	return nil
}

type fakeTools struct {
	calls []string
	fail  bool
}

func (f *fakeTools) Tools() []anthropic.Tool {
	return []anthropic.Tool{{Name: ToolNotionSearch, Description: "search", InputSchema: schemaNotionSearch()}}
}

func (f *fakeTools) Execute(_ context.Context, name string, _ json.RawMessage) (any, error) {
	f.calls = append(f.calls, name)
	if f.fail {
		return nil, errors.New("workspace unreachable")
	}
	return map[string]any{"results": []string{"Opening checklist"}}, nil
}
