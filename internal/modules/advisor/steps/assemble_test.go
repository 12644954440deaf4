package steps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/clients/pos"
	"github.com/yungbote/backofhouse-backend/internal/clients/redis"
	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
	"github.com/yungbote/backofhouse-backend/internal/pkg/pointers"
	"github.com/yungbote/backofhouse-backend/internal/pkg/textextract"
)

type stubAssembler struct {
	name  string
	block Block
	err   error
	panic bool
}

func (s stubAssembler) Name() string { return s.name }

func (s stubAssembler) Assemble(context.Context, TurnContext) (Block, error) {
	if s.panic {
		panic("stub exploded")
	}
	return s.block, s.err
}

func TestRunAssemblersIsolatesFailures(t *testing.T) {
	assemblers := []Assembler{
		stubAssembler{name: "ok_a", block: Block{Text: "A"}},
		stubAssembler{name: "broken", err: errors.New("db down")},
		stubAssembler{name: "panicky", panic: true},
		stubAssembler{name: "ok_b", block: Block{Text: "B"}},
	}
	got := RunAssemblers(context.Background(), logger.Nop(), TurnContext{}, assemblers, time.Second)

	if got.Text("ok_a") != "A" || got.Text("ok_b") != "B" {
		t.Fatalf("healthy blocks lost: %+v", got.Blocks)
	}
	if _, ok := got.Failures["broken"]; !ok {
		t.Fatalf("error not recorded: %+v", got.Failures)
	}
	if _, ok := got.Failures["panicky"]; !ok {
		t.Fatalf("panic not recorded: %+v", got.Failures)
	}
	if got.Text("broken") != "" {
		t.Fatalf("failed assembler produced a block")
	}
}

func TestKnowledgeAssembler(t *testing.T) {
	repo := &fakeKnowledgeRepo{rows: []*rtypes.CustomKnowledge{
		{Title: "Comp policy", Category: "service", Content: "Managers may comp up to $25 per table."},
		{Title: "Blank", Category: "misc", Content: "   "},
		{Title: "Vendors", Category: "purchasing", Content: "Produce only from Greenleaf."},
	}}
	block, err := NewKnowledgeAssembler(repo).Assemble(context.Background(), TurnContext{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := "**Comp policy** (service)\nManagers may comp up to $25 per table.\n\n**Vendors** (purchasing)\nProduce only from Greenleaf."
	if !strings.HasSuffix(block.Text, want) || !strings.HasPrefix(block.Text, "CUSTOM KNOWLEDGE") {
		t.Fatalf("unexpected block:\n%s", block.Text)
	}

	empty, err := NewKnowledgeAssembler(&fakeKnowledgeRepo{}).Assemble(context.Background(), TurnContext{})
	if err != nil || empty.Text != "" {
		t.Fatalf("empty list should render nothing, got %q err=%v", empty.Text, err)
	}
}

func TestFeedbackStatsAndLadder(t *testing.T) {
	ratings := []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 1, 1}
	st := ComputeFeedbackStats(ratings)
	if st.RecentCount != 10 || st.RecentAverage != 5 {
		t.Fatalf("recent=%d/%v", st.RecentCount, st.RecentAverage)
	}
	if math.Abs(st.Average-52.0/12.0) > 1e-9 {
		t.Fatalf("average=%v", st.Average)
	}

	ladder := []struct {
		avg  float64
		want string
	}{
		{4.5, "maintain"}, {4.4, "good"}, {3.5, "good"}, {3.4, "consider adjusting"}, {2.5, "consider adjusting"}, {2.4, "significantly"},
	}
	for _, tc := range ladder {
		if got := InterpretRating(tc.avg); !strings.Contains(got, tc.want) {
			t.Fatalf("InterpretRating(%v)=%q want contains %q", tc.avg, got, tc.want)
		}
	}

	if RenderFeedback(nil) != "" {
		t.Fatalf("no ratings should render nothing")
	}
	if out := RenderFeedback([]int{2, 3, 3}); !strings.Contains(out, "below target") {
		t.Fatalf("low ratings should carry the adjust directive:\n%s", out)
	}
	if out := RenderFeedback([]int{4, 3, 4}); !strings.Contains(out, "responding well") {
		t.Fatalf("ratings averaging 3.67 should carry the keep directive:\n%s", out)
	}
}

func TestAggregateMetricsZeroGuestsHour(t *testing.T) {
	totals := AggregateMetrics([]pos.MetricRecord{
		{BusinessDate: 20250314, NetSalesAmount: 100, GuestCount: 0},
		{BusinessDate: 20250314, NetSalesAmount: 50, GuestCount: 10},
	})
	if totals.NetSales != 150 || totals.Guests != 10 {
		t.Fatalf("totals=%+v", totals)
	}
	if got := totals.AverageCheck(); math.Abs(got-15.0) > 1e-9 {
		t.Fatalf("average check=%v want 15", got)
	}
}

func TestAggregateMetricsGuards(t *testing.T) {
	totals := AggregateMetrics([]pos.MetricRecord{{NetSalesAmount: 0, GuestCount: 0, HourlyJobTotalPay: pointers.Float64(40)}})
	if got := totals.AverageCheck(); got != 0 || math.IsNaN(got) {
		t.Fatalf("average check=%v want 0", got)
	}
	if got := totals.LaborPercent(); got != 0 || math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("labor percent=%v want 0", got)
	}

	withLabor := AggregateMetrics([]pos.MetricRecord{
		{NetSalesAmount: 600, GuestCount: 20, HourlyJobTotalHours: pointers.Float64(6), HourlyJobTotalPay: pointers.Float64(90)},
		{NetSalesAmount: 400, GuestCount: 20, HourlyJobTotalHours: pointers.Float64(4), HourlyJobTotalPay: pointers.Float64(60)},
	})
	if withLabor.LaborHours != 10 || withLabor.LaborCost != 150 || math.Abs(withLabor.LaborPercent()-15) > 1e-9 {
		t.Fatalf("labor totals=%+v pct=%v", withLabor, withLabor.LaborPercent())
	}
}

func TestFormatBusinessDate(t *testing.T) {
	weekday, long, ok := FormatBusinessDate(20250314)
	if !ok || weekday != "Friday" || long != "Friday, March 14, 2025" {
		t.Fatalf("got %q %q %v", weekday, long, ok)
	}
	if _, _, ok := FormatBusinessDate(20251399); ok {
		t.Fatalf("invalid date accepted")
	}
}

func TestBusinessDateUsesRestaurantTimezone(t *testing.T) {
	// 02:00 UTC on the 15th is still the evening of the 14th in New York.
	now := time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC)
	if got := BusinessDate(now, "America/New_York"); got != 20250314 {
		t.Fatalf("BusinessDate=%d want 20250314", got)
	}
	if got := BusinessDate(now, "Not/AZone"); got != 20250315 {
		t.Fatalf("unknown zone should fall back to UTC, got %d", got)
	}
}

func TestFormatMoney(t *testing.T) {
	for in, want := range map[float64]string{0: "$0.00", 15: "$15.00", 1234.5: "$1,234.50", 1234567.891: "$1,234,567.89", -42: "-$42.00"} {
		if got := formatMoney(in); got != want {
			t.Fatalf("formatMoney(%v)=%q want %q", in, got, want)
		}
	}
}

func posTurn() TurnContext {
	return TurnContext{
		RestaurantID: uuid.New(),
		Restaurant:   &rtypes.Restaurant{Timezone: "UTC", POSRestaurantGUID: pointers.String("pos-guid-1")},
		Now:          time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC),
	}
}

func newTestPOSAssembler(client pos.Client, cache redis.ReportCache, attempts int) *posAssembler {
	a := NewPOSAssembler(logger.Nop(), client, cache, POSAssemblerConfig{PollAttempts: attempts, PollInterval: time.Millisecond}).(*posAssembler)
	a.sleep = func(context.Context, time.Duration) error { return nil }
	return a
}

func TestPOSAssemblerPollsUntilReady(t *testing.T) {
	client := &fakePOSClient{readyAfter: 3, data: []pos.MetricRecord{
		{BusinessDate: 20250314, NetSalesAmount: 100, GuestCount: 0},
		{BusinessDate: 20250314, NetSalesAmount: 50, GuestCount: 10},
	}}
	cache := &fakeReportCache{}
	block, err := newTestPOSAssembler(client, cache, 30).Assemble(context.Background(), posTurn())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if block.Status != POSStatusReady || client.polls != 3 || client.requests != 1 {
		t.Fatalf("status=%q polls=%d requests=%d", block.Status, client.polls, client.requests)
	}
	for _, want := range []string{"Friday, March 14, 2025", "Net sales so far: $150.00", "Average check: $15.00", "disregard them"} {
		if !strings.Contains(block.Text, want) {
			t.Fatalf("block missing %q:\n%s", want, block.Text)
		}
	}
}

func TestPOSAssemblerTimeoutIsSoft(t *testing.T) {
	client := &fakePOSClient{}
	block, err := newTestPOSAssembler(client, nil, 4).Assemble(context.Background(), posTurn())
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if block.Status != POSStatusTimeout || block.Text != "" || client.polls != 4 {
		t.Fatalf("status=%q text=%q polls=%d", block.Status, block.Text, client.polls)
	}
}

func TestPOSAssemblerReusesCachedReport(t *testing.T) {
	cache := &fakeReportCache{}
	tc := posTurn()
	_ = cache.SetReportGUID(context.Background(), "pos-guid-1", 20250314, "cached-report")
	client := &fakePOSClient{readyAfter: 1}
	block, err := newTestPOSAssembler(client, cache, 5).Assemble(context.Background(), tc)
	if err != nil || block.Status != POSStatusReady {
		t.Fatalf("status=%q err=%v", block.Status, err)
	}
	if client.requests != 0 || client.lastPoll != "cached-report" {
		t.Fatalf("requests=%d lastPoll=%q", client.requests, client.lastPoll)
	}
}

func TestPOSAssemblerDisabledWithoutGUID(t *testing.T) {
	tc := posTurn()
	tc.Restaurant.POSRestaurantGUID = nil
	block, err := newTestPOSAssembler(&fakePOSClient{}, nil, 1).Assemble(context.Background(), tc)
	if err != nil || block.Status != POSStatusDisabled || block.Text != "" {
		t.Fatalf("block=%+v err=%v", block, err)
	}
}

func textExtract(name, mimeType string, data []byte) (textextract.Result, error) {
	return textextract.Result{Kind: textextract.KindText, Text: string(data), Extracted: true}, nil
}

func TestDocumentAssemblerLimits(t *testing.T) {
	conv := uuid.New()
	bucket := &fakeBucket{objects: map[string][]byte{
		"perm/manual.txt": []byte(strings.Repeat("p", PermanentFileCharLimit+100)),
	}}
	files := &fakeFileRepo{permanent: []*rtypes.File{{ID: uuid.New(), FileName: "manual.txt", StoragePath: "perm/manual.txt"}}}
	for i := 0; i < 7; i++ {
		key := "tmp/" + string(rune('a'+i)) + ".txt"
		bucket.objects[key] = []byte(strings.Repeat("é", TemporaryFileCharLimit+10))
		files.temporary = append(files.temporary, &rtypes.File{ID: uuid.New(), FileName: key, StoragePath: key})
	}
	a := NewDocumentAssembler(logger.Nop(), files, bucket, textExtract)
	block, err := a.Assemble(context.Background(), TurnContext{RestaurantID: uuid.New(), ConversationID: conv})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if files.tempLimit != TemporaryFileLimit {
		t.Fatalf("temporary files requested with limit %d", files.tempLimit)
	}
	if len(bucket.downloads) != 1+TemporaryFileLimit {
		t.Fatalf("downloads=%v", bucket.downloads)
	}
	if n := strings.Count(block.Text, "=== CONVERSATION FILE:"); n != TemporaryFileLimit {
		t.Fatalf("conversation files rendered=%d", n)
	}
	if !strings.Contains(block.Text, "=== KNOWLEDGE BASE: manual.txt ===") {
		t.Fatalf("knowledge base file missing")
	}
	if strings.Count(block.Text, "p") < PermanentFileCharLimit || strings.Contains(block.Text, strings.Repeat("p", PermanentFileCharLimit+1)) {
		t.Fatalf("permanent text not truncated at %d", PermanentFileCharLimit)
	}
	if strings.Contains(block.Text, strings.Repeat("é", TemporaryFileCharLimit+1)) {
		t.Fatalf("temporary text not truncated at %d", TemporaryFileCharLimit)
	}
}

func TestDocumentAssemblerSkipsFailedFiles(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{"ok.txt": []byte("walk-in temps log")}}
	files := &fakeFileRepo{permanent: []*rtypes.File{
		{ID: uuid.New(), FileName: "missing.pdf", StoragePath: "missing.pdf"},
		{ID: uuid.New(), FileName: "ok.txt", StoragePath: "ok.txt"},
	}}
	block, err := NewDocumentAssembler(logger.Nop(), files, bucket, textExtract).Assemble(context.Background(), TurnContext{RestaurantID: uuid.New()})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(block.Text, "missing.pdf") || !strings.Contains(block.Text, "walk-in temps log") {
		t.Fatalf("unexpected block:\n%s", block.Text)
	}
}

// truncatedXrefPDF is a PDF whose root object points past the end of the file.
func truncatedXrefPDF() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n% walk-in temperature log, body lost during upload\n")
	xref := b.Len()
	b.WriteString("xref\n0 2\n0000000000 65535 f \n0000099999 00000 n \n")
	b.WriteString("trailer\n<< /Size 2 /Root 1 0 R >>\n")
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}

func TestDocumentAssemblerSkipsMalformedPDF(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{
		"temps.pdf": truncatedXrefPDF(),
		"ok.txt":    []byte("walk-in temps log"),
	}}
	files := &fakeFileRepo{permanent: []*rtypes.File{
		{ID: uuid.New(), FileName: "temps.pdf", MimeType: "application/pdf", StoragePath: "temps.pdf"},
		{ID: uuid.New(), FileName: "ok.txt", MimeType: "text/plain", StoragePath: "ok.txt"},
	}}
	assemblers := []Assembler{NewDocumentAssembler(logger.Nop(), files, bucket, nil)}

	got := RunAssemblers(context.Background(), logger.Nop(), TurnContext{RestaurantID: uuid.New()}, assemblers, 5*time.Second)
	if len(got.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", got.Failures)
	}
	text := got.Text(AssemblerDocuments)
	if strings.Contains(text, "temps.pdf") || !strings.Contains(text, "walk-in temps log") {
		t.Fatalf("unexpected block:\n%s", text)
	}
}

func TestDocumentAssemblerRecoversExtractorPanic(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{"bad.bin": []byte("x"), "ok.txt": []byte("par levels")}}
	files := &fakeFileRepo{permanent: []*rtypes.File{
		{ID: uuid.New(), FileName: "bad.bin", StoragePath: "bad.bin"},
		{ID: uuid.New(), FileName: "ok.txt", StoragePath: "ok.txt"},
	}}
	extract := func(name, mimeType string, data []byte) (textextract.Result, error) {
		if name == "bad.bin" {
			panic("decoder blew up")
		}
		return textExtract(name, mimeType, data)
	}
	block, err := NewDocumentAssembler(logger.Nop(), files, bucket, extract).Assemble(context.Background(), TurnContext{RestaurantID: uuid.New()})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(block.Text, "bad.bin") || !strings.Contains(block.Text, "par levels") {
		t.Fatalf("unexpected block:\n%s", block.Text)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo", 10); got != "héllo" {
		t.Fatalf("short text changed: %q", got)
	}
	got := TruncateRunes("héllo world", 5)
	if !strings.HasPrefix(got, "héllo\n\n[... truncated after 5 characters") {
		t.Fatalf("TruncateRunes=%q", got)
	}
}
