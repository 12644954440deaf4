package steps

import (
	"strings"
	"testing"

	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
)

func TestBandBoundaries(t *testing.T) {
	cases := map[int]string{
		0: BandLow, 33: BandLow,
		34: BandMid, 50: BandMid, 66: BandMid,
		67: BandHigh, 100: BandHigh,
	}
	for v, want := range cases {
		if got := Band(v); got != want {
			t.Fatalf("Band(%d)=%q want %q", v, got, want)
		}
	}
}

func tuningOf(profit, service, revenue, market, team, innovation int) rtypes.Tuning {
	return rtypes.Tuning{
		ProfitMotivation:   profit,
		ServicePhilosophy:  service,
		RevenueStrategy:    revenue,
		MarketPosition:     market,
		TeamPhilosophy:     team,
		InnovationAppetite: innovation,
	}
}

func TestClassifyCoherence(t *testing.T) {
	cases := []struct {
		name   string
		tuning rtypes.Tuning
		kind   string
	}{
		{"all low", tuningOf(10, 20, 0, 33, 5, 1), CoherenceAllLow},
		{"all high", tuningOf(67, 80, 90, 100, 70, 99), CoherenceAllHigh},
		{"all mid", tuningOf(34, 50, 66, 40, 60, 50), CoherenceAllMid},
		{"neighborhood splurge", tuningOf(50, 50, 80, 20, 50, 50), CoherenceTension},
		{"mixed fallback", tuningOf(20, 80, 50, 50, 50, 50), CoherenceMixed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyCoherence(tc.tuning)
			if got.Kind != tc.kind {
				t.Fatalf("kind=%q want %q (%+v)", got.Kind, tc.kind, got)
			}
			if got.Description == "" {
				t.Fatalf("empty description")
			}
		})
	}
}

func TestClassifyCoherenceNeighborhoodSplurgeFraming(t *testing.T) {
	got := ClassifyCoherence(tuningOf(50, 50, 80, 20, 50, 50))
	if len(got.Tensions) != 1 || !strings.HasPrefix(got.Tensions[0], "Neighborhood splurge") {
		t.Fatalf("tensions=%v", got.Tensions)
	}
}

func TestRenderTuning(t *testing.T) {
	if RenderTuning(nil) != "" {
		t.Fatalf("nil tuning should render nothing")
	}
	tn := tuningOf(20, 80, 50, 50, 50, 50)
	out := RenderTuning(&tn)
	for _, want := range []string{"Profit Motivation: 20 (low)", "Service Philosophy: 80 (high)", "Profile coherence: mixed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}
