package steps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
)

const (
	SectionIdentity        = "identity"
	SectionRestaurant      = "restaurant_context"
	SectionTuning          = "tuning"
	SectionRoleGuidelines  = "role_guidelines"
	SectionCapability      = "capability_boundary"
	SectionKnowledge       = "custom_knowledge"
	SectionPOS             = "live_pos"
	SectionDebugAPISummary = "debug_api_summary"
	SectionDocuments       = "documents"
	SectionFeedback        = "feedback"
	SectionReportingAPI    = "reporting_api_reference"
	SectionNotionTools     = "notion_tools"
	SectionOnboarding      = "onboarding_overlay"
	SectionCoaching        = "coaching_overlay"
	SectionScenario        = "scenario_overlay"
	SectionStateSummary    = "state_summary"
	SectionHardMode        = "hard_mode_overlay"
)

// Section is one independently omittable part of the system prompt.
type Section struct {
	Name    string
	Present bool
	Render  func() string
}

type ComposeInput struct {
	Restaurant *rtypes.Restaurant
	KPI        *rtypes.KPI
	State      *types.ConversationState
	Assembled  AssembledContext

	OnboardingMode  string
	PainPoint       string
	HardMode        bool
	NotionEnabled   bool
	DebugAPISummary bool

	// Tools is nil when no external tool is configured.
	Tools ToolExecutor
}

type ComposedPrompt struct {
	System   string
	Sections []string
	Tools    []anthropic.Tool
}

func static(s string) func() string { return func() string { return s } }

// BuildSections returns every section in prompt order, present or not.
func BuildSections(in ComposeInput) []Section {
	state := in.State
	flags := types.StateFlags{}
	if state != nil {
		flags = state.Flags.Data()
	}
	scenario := state.ActiveScenario()
	block := in.Assembled.Text

	return []Section{
		{SectionIdentity, true, static(identityTemplate)},
		{SectionRestaurant, in.Restaurant != nil, func() string { return renderRestaurantContext(in.Restaurant, in.KPI) }},
		{SectionTuning, block(AssemblerTuning) != "", static(block(AssemblerTuning))},
		{SectionRoleGuidelines, true, static(roleGuidelinesTemplate)},
		{SectionCapability, true, static(capabilityBoundaryTemplate)},
		{SectionKnowledge, block(AssemblerKnowledge) != "", static(block(AssemblerKnowledge))},
		{SectionPOS, block(AssemblerPOS) != "", static(block(AssemblerPOS))},
		{SectionDebugAPISummary, in.DebugAPISummary, func() string { return renderDebugAPISummary(in.Assembled) }},
		{SectionDocuments, block(AssemblerDocuments) != "", static(block(AssemblerDocuments))},
		{SectionFeedback, block(AssemblerFeedback) != "", static(block(AssemblerFeedback))},
		{SectionReportingAPI, true, static(reportingAPIReferenceTemplate)},
		{SectionNotionTools, in.NotionEnabled && in.Tools != nil, static(notionToolsTemplate)},
		{SectionOnboarding, in.OnboardingMode == OnboardingQuickWin, func() string { return renderOnboarding(in.PainPoint, in.Restaurant) }},
		{SectionCoaching, flags.CoachingMode, func() string { return renderCoaching(flags.CoachingAreas) }},
		{SectionScenario, scenario != "", func() string { return renderScenario(scenario) }},
		{SectionStateSummary, state != nil, func() string { return renderStateSummary(state) }},
		{SectionHardMode, in.HardMode, static(hardModeTemplate)},
	}
}

// Compose renders the present sections in order. Sections that render to
// nothing are dropped along with their header.
func Compose(in ComposeInput) ComposedPrompt {
	var out ComposedPrompt
	var parts []string
	for _, s := range BuildSections(in) {
		if !s.Present {
			continue
		}
		body := strings.TrimSpace(s.Render())
		if body == "" {
			continue
		}
		parts = append(parts, body)
		out.Sections = append(out.Sections, s.Name)
	}
	out.System = strings.Join(parts, "\n\n")
	if in.NotionEnabled && in.Tools != nil {
		out.Tools = in.Tools.Tools()
	}
	return out
}

func renderRestaurantContext(r *rtypes.Restaurant, kpi *rtypes.KPI) string {
	var b strings.Builder
	b.WriteString("RESTAURANT CONTEXT:\n")
	fmt.Fprintf(&b, "Name: %s\n", r.Name)
	if c := strings.TrimSpace(r.Concept); c != "" {
		fmt.Fprintf(&b, "Concept: %s\n", c)
	}
	if l := strings.TrimSpace(r.Location); l != "" {
		fmt.Fprintf(&b, "Location: %s\n", l)
	}
	if !r.Reggi.IsEmpty() {
		b.WriteString("\nREGGI profile:\n")
		for _, d := range r.Reggi.Dimensions() {
			if d.Description == "" && d.Code == "" {
				continue
			}
			if d.Code != "" {
				fmt.Fprintf(&b, "- %s [%s]: %s\n", d.Label, d.Code, d.Description)
			} else {
				fmt.Fprintf(&b, "- %s: %s\n", d.Label, d.Description)
			}
		}
	}
	if kpi != nil {
		var lines []string
		if kpi.AvgWeeklySales != nil {
			lines = append(lines, "- Average weekly sales: "+formatMoney(*kpi.AvgWeeklySales))
		}
		if kpi.FoodCostGoal != nil {
			lines = append(lines, fmt.Sprintf("- Food cost goal: %.1f%%", *kpi.FoodCostGoal))
		}
		if kpi.LaborCostGoal != nil {
			lines = append(lines, fmt.Sprintf("- Labor cost goal: %.1f%%", *kpi.LaborCostGoal))
		}
		var mix []string
		for _, m := range kpi.SalesMix() {
			if m.Percent != nil {
				mix = append(mix, fmt.Sprintf("%s %.0f%%", m.Label, *m.Percent))
			}
		}
		if len(mix) > 0 {
			lines = append(lines, "- Sales mix: "+strings.Join(mix, ", "))
		}
		if len(lines) > 0 {
			b.WriteString("\nKey numbers:\n")
			b.WriteString(strings.Join(lines, "\n"))
		}
	}
	return b.String()
}

func renderDebugAPISummary(a AssembledContext) string {
	var produced, empty []string
	for name, blk := range a.Blocks {
		if blk.Text != "" {
			produced = append(produced, name)
		} else {
			empty = append(empty, name)
		}
	}
	failed := make([]string, 0, len(a.Failures))
	for name := range a.Failures {
		failed = append(failed, name)
	}
	sort.Strings(produced)
	sort.Strings(empty)
	sort.Strings(failed)

	posStatus := a.Blocks[AssemblerPOS].Status
	if _, ok := a.Failures[AssemblerPOS]; ok {
		posStatus = POSStatusError
	}
	if posStatus == "" {
		posStatus = POSStatusDisabled
	}
	orNone := func(v []string) string {
		if len(v) == 0 {
			return "none"
		}
		return strings.Join(v, ", ")
	}
	return "DEBUG: DATA SOURCES THIS TURN\n" +
		"- Produced context: " + orNone(produced) + "\n" +
		"- Returned nothing: " + orNone(empty) + "\n" +
		"- Failed: " + orNone(failed) + "\n" +
		"- POS status: " + posStatus + "\n" +
		"If the operator asks what data you can see, answer from this list."
}

func renderOnboarding(painPoint string, r *rtypes.Restaurant) string {
	var b strings.Builder
	b.WriteString(onboardingTemplate)
	if p := strings.TrimSpace(painPoint); p != "" {
		fmt.Fprintf(&b, "\n\nThe operator said their biggest pain point right now is: %q. Start there.", p)
	}
	if r != nil && !r.Reggi.IsEmpty() {
		var codes []string
		for _, d := range r.Reggi.Dimensions() {
			switch {
			case d.Code != "":
				codes = append(codes, d.Label+": "+d.Code)
			case d.Description != "":
				codes = append(codes, d.Label+": "+firstSentence(d.Description))
			}
		}
		b.WriteString("\nConcept in brief (REGGI): " + strings.Join(codes, "; ") + ".")
	}
	return b.String()
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i > 0 {
		return s[:i]
	}
	return s
}

func renderCoaching(areas []string) string {
	if len(areas) == 0 {
		return coachingTemplate + "\nFocus areas: not yet named. Ask which leadership skill they want to build first."
	}
	pretty := make([]string, len(areas))
	for i, a := range areas {
		pretty[i] = strings.ReplaceAll(a, "_", " ")
	}
	return coachingTemplate + "\nFocus areas: " + strings.Join(pretty, " and ") + "."
}

var scenarioFocus = map[string]string{
	types.ScenarioStaffingShortage: "Situation: the team is short-staffed for this service. Think station coverage, section consolidation and who can flex.",
	types.ScenarioBusyService:      "Situation: a high-volume service is underway. Think pacing, ticket times, the host stand and protecting the kitchen.",
	types.ScenarioEquipmentIssue:   "Situation: a piece of equipment or a system is down. Think workarounds, menu adjustments and who to call for repair.",
}

func renderScenario(scenario string) string {
	focus, ok := scenarioFocus[scenario]
	if !ok {
		focus = "Situation: " + strings.ReplaceAll(scenario, "_", " ") + "."
	}
	return scenarioBaseTemplate + "\n" + focus
}

func renderStateSummary(s *types.ConversationState) string {
	f := s.Flags.Data()
	var b strings.Builder
	b.WriteString("CONVERSATION STATE:\n")
	fmt.Fprintf(&b, "- Current topic: %s\n", s.CurrentTopic)
	fmt.Fprintf(&b, "- Intent: %s\n", s.IntentClassification)
	if len(s.TopicsDiscussed) > 0 {
		fmt.Fprintf(&b, "- Topics discussed: %s\n", strings.Join(s.TopicsDiscussed, ", "))
	}
	if s.LastQuestionAsked != nil {
		fmt.Fprintf(&b, "- Your last question: %q (awaiting answer: %t)\n", *s.LastQuestionAsked, s.AwaitingUserResponse)
	}
	fmt.Fprintf(&b, "- Data requested: %t (requests so far: %d)\n", f.DataRequested, f.DataRequestCount)
	fmt.Fprintf(&b, "- Awaiting upload: %t\n", f.AwaitingUpload)
	fmt.Fprintf(&b, "- Operator has uploaded data: %t\n", f.HasUploadedData)
	if f.ActiveScenario != nil {
		fmt.Fprintf(&b, "- Active scenario: %s\n", *f.ActiveScenario)
	}
	if f.CoachingMode {
		fmt.Fprintf(&b, "- Coaching mode: on (%s)\n", strings.Join(f.CoachingAreas, ", "))
	}
	if s.WWAHDMode {
		b.WriteString("- WWAHD mode: on\n")
	}
	if f.AwaitingUpload && f.DataRequestCount > 1 {
		b.WriteString("You have already asked for this data more than once; do not ask again this turn.\n")
	}
	return b.String()
}
