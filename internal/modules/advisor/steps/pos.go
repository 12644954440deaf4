package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/clients/pos"
	"github.com/yungbote/backofhouse-backend/internal/clients/redis"
	"github.com/yungbote/backofhouse-backend/internal/pkg/httpx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	POSStatusReady    = "ready"
	POSStatusTimeout  = "timeout"
	POSStatusDisabled = "disabled"
	POSStatusError    = "error"

	DefaultPOSPollAttempts = 30
	DefaultPOSPollInterval = 2 * time.Second
)

type POSAssemblerConfig struct {
	PollAttempts int
	PollInterval time.Duration
}

type posAssembler struct {
	log    *logger.Logger
	client pos.Client
	cache  redis.ReportCache
	cfg    POSAssemblerConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPOSAssembler builds the live POS assembler. client may be nil, in which
// case the block is always reported as disabled; cache is optional.
func NewPOSAssembler(log *logger.Logger, client pos.Client, cache redis.ReportCache, cfg POSAssemblerConfig) Assembler {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = DefaultPOSPollAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPOSPollInterval
	}
	return &posAssembler{
		log:    log.With("assembler", AssemblerPOS),
		client: client,
		cache:  cache,
		cfg:    cfg,
		sleep:  httpx.SleepContext,
	}
}

func (a *posAssembler) Name() string { return AssemblerPOS }

func (a *posAssembler) Assemble(ctx context.Context, tc TurnContext) (Block, error) {
	if a.client == nil || tc.Restaurant == nil || tc.Restaurant.POSRestaurantGUID == nil || strings.TrimSpace(*tc.Restaurant.POSRestaurantGUID) == "" {
		return Block{Status: POSStatusDisabled}, nil
	}
	posGUID := strings.TrimSpace(*tc.Restaurant.POSRestaurantGUID)
	date := BusinessDate(tc.Now, tc.Restaurant.Timezone)

	records, ready, err := a.fetch(ctx, posGUID, date)
	if err != nil {
		return Block{Status: POSStatusError}, err
	}
	if !ready {
		a.log.Warn("POS report not ready after polling; continuing without live data",
			"restaurant_id", tc.RestaurantID,
			"business_date", date,
			"attempts", a.cfg.PollAttempts,
		)
		return Block{Status: POSStatusTimeout}, nil
	}
	return Block{Text: RenderPOS(date, AggregateMetrics(records)), Status: POSStatusReady}, nil
}

// fetch requests today's hourly report (or reuses a cached request GUID) and
// polls until it is ready or the attempt budget runs out.
func (a *posAssembler) fetch(ctx context.Context, posGUID string, date int) ([]pos.MetricRecord, bool, error) {
	reportGUID := ""
	if a.cache != nil {
		cached, ok, err := a.cache.GetReportGUID(ctx, posGUID, date)
		if err != nil {
			a.log.Warn("POS report cache read failed", "error", err)
		} else if ok {
			reportGUID = cached
		}
	}

	if reportGUID == "" {
		resp, err := a.client.Do(ctx, pos.ReportRequest{
			Action:            pos.ActionRequest,
			ReportType:        pos.ReportTypeMetrics,
			StartBusinessDate: date,
			EndBusinessDate:   date,
			RestaurantIDs:     []string{posGUID},
			Aggregation:       pos.AggregationHourly,
		})
		if err != nil {
			return nil, false, fmt.Errorf("request pos report: %w", err)
		}
		if resp.Ready() {
			return resp.Data, true, nil
		}
		reportGUID = resp.ReportGUID
		if reportGUID == "" {
			return nil, false, fmt.Errorf("pos report request returned no report guid")
		}
		if a.cache != nil {
			if err := a.cache.SetReportGUID(ctx, posGUID, date, reportGUID); err != nil {
				a.log.Warn("POS report cache write failed", "error", err)
			}
		}
	}

	for attempt := 1; attempt <= a.cfg.PollAttempts; attempt++ {
		if err := a.sleep(ctx, a.cfg.PollInterval); err != nil {
			return nil, false, nil
		}
		resp, err := a.client.Do(ctx, pos.ReportRequest{
			Action:     pos.ActionPoll,
			ReportType: pos.ReportTypeMetrics,
			ReportGUID: reportGUID,
		})
		if err != nil {
			if httpx.IsRetryableError(err) {
				a.log.Debug("POS poll failed; retrying", "attempt", attempt, "error", err)
				continue
			}
			return nil, false, fmt.Errorf("poll pos report: %w", err)
		}
		if resp.Ready() {
			return resp.Data, true, nil
		}
	}
	return nil, false, nil
}

// BusinessDate is today's date in the restaurant's timezone as YYYYMMDD.
func BusinessDate(now time.Time, timezone string) int {
	loc, err := time.LoadLocation(strings.TrimSpace(timezone))
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	local := now.In(loc)
	return local.Year()*10000 + int(local.Month())*100 + local.Day()
}

// DailyTotals is the sum of every record in a report.
type DailyTotals struct {
	BusinessDate int
	NetSales     float64
	Guests       float64
	Orders       float64
	LaborHours   float64
	LaborCost    float64
	HasLabor     bool
	Records      int
}

// AverageCheck is sales per guest, or zero with no guests.
func (d DailyTotals) AverageCheck() float64 {
	if d.Guests <= 0 {
		return 0
	}
	return d.NetSales / d.Guests
}

// LaborPercent is labor cost as a percentage of net sales, or zero with no sales.
func (d DailyTotals) LaborPercent() float64 {
	if d.NetSales <= 0 {
		return 0
	}
	return d.LaborCost / d.NetSales * 100
}

func AggregateMetrics(records []pos.MetricRecord) DailyTotals {
	var out DailyTotals
	for _, r := range records {
		if out.BusinessDate == 0 {
			out.BusinessDate = r.BusinessDate
		}
		out.NetSales += r.NetSalesAmount
		out.Guests += r.GuestCount
		out.Orders += r.OrdersCount
		if r.HourlyJobTotalHours != nil {
			out.LaborHours += *r.HourlyJobTotalHours
			out.HasLabor = true
		}
		if r.HourlyJobTotalPay != nil {
			out.LaborCost += *r.HourlyJobTotalPay
			out.HasLabor = true
		}
		out.Records++
	}
	return out
}

// FormatBusinessDate turns a YYYYMMDD business date into its weekday and a
// long-form date, computed on the calendar date alone so no timezone shift
// can move it.
func FormatBusinessDate(yyyymmdd int) (weekday string, long string, ok bool) {
	t, err := time.ParseInLocation("20060102", strconv.Itoa(yyyymmdd), time.UTC)
	if err != nil {
		return "", "", false
	}
	return t.Weekday().String(), t.Format("Monday, January 2, 2006"), true
}

func RenderPOS(requestedDate int, totals DailyTotals) string {
	date := totals.BusinessDate
	if date == 0 {
		date = requestedDate
	}
	var b strings.Builder
	b.WriteString("LIVE POS DATA (AUTHORITATIVE FOR TODAY):\n")
	if weekday, long, ok := FormatBusinessDate(date); ok {
		fmt.Fprintf(&b, "Business date: %s (today is %s)\n", long, weekday)
	}
	fmt.Fprintf(&b, "- Net sales so far: %s\n", formatMoney(totals.NetSales))
	fmt.Fprintf(&b, "- Guests: %.0f\n", totals.Guests)
	fmt.Fprintf(&b, "- Orders: %.0f\n", totals.Orders)
	fmt.Fprintf(&b, "- Average check: %s\n", formatMoney(totals.AverageCheck()))
	if totals.HasLabor {
		fmt.Fprintf(&b, "- Hourly labor: %.1f hours, %s (%.1f%% of net sales)\n", totals.LaborHours, formatMoney(totals.LaborCost), totals.LaborPercent())
	}
	b.WriteString("\nThese figures come straight from the POS and are the current truth for any question about today or right now. ")
	b.WriteString("If earlier messages in this conversation quoted different numbers for today, disregard them and use these.")
	return b.String()
}

func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac := s[:len(s)-3], s[len(s)-3:]
	var grouped strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}
	out := "$" + grouped.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
