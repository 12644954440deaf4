package steps

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
)

const (
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
)

const (
	CoherenceAllLow  = "all_low"
	CoherenceAllHigh = "all_high"
	CoherenceAllMid  = "all_mid"
	CoherenceTension = "tension"
	CoherenceMixed   = "mixed"
)

//go:embed tuning.yaml
var tuningFS embed.FS

type tuningDimension struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Low  string `yaml:"low"`
	Mid  string `yaml:"mid"`
	High string `yaml:"high"`
}

type tuningTension struct {
	Name    string            `yaml:"name"`
	When    map[string]string `yaml:"when"`
	Framing string            `yaml:"framing"`
}

type tuningRules struct {
	Bands struct {
		LowMax  int `yaml:"low_max"`
		HighMin int `yaml:"high_min"`
	} `yaml:"bands"`
	Dimensions []tuningDimension `yaml:"dimensions"`
	Coherence  map[string]string `yaml:"coherence"`
	Tensions   []tuningTension   `yaml:"tensions"`
}

var (
	tuningOnce    sync.Once
	tuningLoaded  *tuningRules
	tuningLoadErr error
)

func loadTuningRules() (*tuningRules, error) {
	tuningOnce.Do(func() {
		raw, err := tuningFS.ReadFile("tuning.yaml")
		if err != nil {
			tuningLoadErr = err
			return
		}
		var r tuningRules
		if err := yaml.Unmarshal(raw, &r); err != nil {
			tuningLoadErr = fmt.Errorf("parse tuning.yaml: %w", err)
			return
		}
		if r.Bands.LowMax <= 0 || r.Bands.HighMin <= r.Bands.LowMax {
			tuningLoadErr = fmt.Errorf("tuning.yaml: invalid bands %+v", r.Bands)
			return
		}
		tuningLoaded = &r
	})
	return tuningLoaded, tuningLoadErr
}

func mustTuningRules() *tuningRules {
	r, err := loadTuningRules()
	if err != nil {
		panic(err)
	}
	return r
}

// Band maps a slider value to its qualitative band: low up to 33, high from
// 67, mid in between.
func Band(v int) string {
	r := mustTuningRules()
	switch {
	case v <= r.Bands.LowMax:
		return BandLow
	case v >= r.Bands.HighMin:
		return BandHigh
	default:
		return BandMid
	}
}

type Coherence struct {
	Kind        string
	Description string
	// Tensions holds every matching pairwise rule, in table order.
	Tensions []string
}

// ClassifyCoherence counts bands across the six dimensions and falls back to
// the pairwise tension table when the profile is not uniform.
func ClassifyCoherence(t rtypes.Tuning) Coherence {
	r := mustTuningRules()
	bands := make(map[string]string, len(rtypes.TuningDimensions))
	counts := map[string]int{}
	for _, dim := range rtypes.TuningDimensions {
		v, _ := t.Value(dim)
		b := Band(v)
		bands[dim] = b
		counts[b]++
	}
	n := len(rtypes.TuningDimensions)
	switch {
	case counts[BandLow] == n:
		return Coherence{Kind: CoherenceAllLow, Description: r.Coherence[CoherenceAllLow]}
	case counts[BandHigh] == n:
		return Coherence{Kind: CoherenceAllHigh, Description: r.Coherence[CoherenceAllHigh]}
	case counts[BandMid] == n:
		return Coherence{Kind: CoherenceAllMid, Description: r.Coherence[CoherenceAllMid]}
	}

	var framings []string
	for _, rule := range r.Tensions {
		if tensionMatches(rule, bands) {
			framings = append(framings, rule.Framing)
		}
	}
	if len(framings) > 0 {
		return Coherence{Kind: CoherenceTension, Description: strings.Join(framings, "\n"), Tensions: framings}
	}
	return Coherence{Kind: CoherenceMixed, Description: r.Coherence[CoherenceMixed]}
}

func tensionMatches(rule tuningTension, bands map[string]string) bool {
	if len(rule.When) == 0 {
		return false
	}
	for dim, want := range rule.When {
		if bands[dim] != want {
			return false
		}
	}
	return true
}

// RenderTuning is the tuning block: each dimension with its value and band
// label, then the coherence reading.
func RenderTuning(t *rtypes.Tuning) string {
	if t == nil {
		return ""
	}
	r := mustTuningRules()
	var b strings.Builder
	b.WriteString("OPERATOR TUNING PROFILE (0-100 sliders; tailor every recommendation to these values):\n")
	for _, d := range r.Dimensions {
		v, ok := t.Value(d.Key)
		if !ok {
			continue
		}
		band := Band(v)
		label := d.Mid
		switch band {
		case BandLow:
			label = d.Low
		case BandHigh:
			label = d.High
		}
		fmt.Fprintf(&b, "- %s: %d (%s) %s\n", d.Name, v, band, label)
	}
	c := ClassifyCoherence(*t)
	fmt.Fprintf(&b, "\nProfile coherence: %s\n%s", strings.ReplaceAll(c.Kind, "_", "-"), c.Description)
	return strings.TrimRight(b.String(), "\n")
}
