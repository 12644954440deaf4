package steps

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/pkg/pointers"
)

// labelRule assigns Label when every pattern in All matches the text.
type labelRule struct {
	Label string
	All   []*regexp.Regexp
}

func (r labelRule) matches(text string) bool {
	for _, re := range r.All {
		if !re.MatchString(text) {
			return false
		}
	}
	return len(r.All) > 0
}

func rx(expr string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + expr) }

// Rule tables are evaluated top to bottom and every match overwrites the
// previous label, so the last matching rule wins.
var intentRules = []labelRule{
	{types.IntentLowerCosts, []*regexp.Regexp{rx(`\b(costs?|expenses?|spending|budget)\b`)}},
	{types.IntentUnderstandMetrics, []*regexp.Regexp{rx(`\b(kpis?|metrics?|numbers?|percent(age)?s?)\b`)}},
	{types.IntentSeekGuidance, []*regexp.Regexp{rx(`\b(wwahd|guidance|leadership)\b`)}},
	{types.IntentIncreaseSales, []*regexp.Regexp{rx(`\b(sales|revenue|increase)\b`)}},
	{types.IntentImproveGuestExperience, []*regexp.Regexp{rx(`\b(guests?|experience|service)\b`)}},
	{types.IntentImproveTeamExperience, []*regexp.Regexp{rx(`\b(team|staff|employees?)\b`)}},
}

var topicRules = []labelRule{
	{types.TopicFoodCostAnalysis, []*regexp.Regexp{rx(`\bfood\s+costs?\b`)}},
	{types.TopicLaborManagement, []*regexp.Regexp{rx(`\b(labor|schedul\w*|staff\w*)\b`)}},
	{types.TopicWasteReduction, []*regexp.Regexp{rx(`\b(waste|spoilage|ordering)\b`)}},
	{types.TopicWWAHDGuidance, []*regexp.Regexp{rx(`\bwwahd\b`)}},
	{types.TopicSalesAnalysis, []*regexp.Regexp{rx(`\b(sales|revenue)\b`)}},
	{types.TopicGuestExperience, []*regexp.Regexp{rx(`\b(guests?|experience)\b`)}},
	{types.TopicDataCollection, []*regexp.Regexp{rx(`\b(upload\w*|files?|invoices?|payroll|reports?)\b`)}},
	{types.TopicDataRetrievalHelp, []*regexp.Regexp{
		rx(`\b(where|find|how)\b`),
		rx(`\b(invoices?|payroll|reports?|sales|pos)\b`),
	}},
}

var (
	uploadRequestRe   = rx(`\b(upload\w*|share|send|attach\w*|paperclip)\b`)
	uploadIndicatedRe = rx(`\b(i|we)\s*(?:'ve|’ve|\s+have)?\s*(?:just\s+)?(uploaded|attached|sent|shared)\b|\bhere(?:'s|’s|\s+is)\s+(?:the|my|our)\s+(file|report|invoice)\b`)

	coachingRequestRe = rx(`\b(coach\s+me|coaching|be(?:come)?\s+a\s+better\s+(leader|manager|boss)|work\s+on\s+my\s+(leadership|management)|grow\s+as\s+a\s+(leader|manager))\b`)
	coachingExitRe    = rx(`\b(stop|end|exit|pause|done\s+with)\s+(the\s+)?coaching\b|\bback\s+to\s+business\b`)

	resolutionRe = rx(`\b(thanks|thank\s+you|perfect|handled\s+it|crushed\s+it|all\s+set|we(?:'|’)re\s+good|that\s+worked|got\s+it\s+handled|made\s+it\s+through|resolved|fixed)\b`)

	staffingShortfallRe = rx(`\b(down|short|missing|without|lost)\b`)
	staffingRoleRe      = rx(`\b(servers?|(line\s+|prep\s+)?cooks?|bartenders?|hosts?|hostess|dishwashers?|bussers?|runners?|chefs?|managers?|expo|barbacks?)\b`)
	staffingCalloutRe   = rx(`\b(called\s+(out|off|in\s+sick)|no[\s-]?shows?)\b`)
	busyServiceRe       = rx(`\b(slammed|swamped|busy|packed|rush|weeds|on\s+a\s+wait|full\s+house)\b|\b\d{2,}\s+covers\b`)
	equipmentStateRe    = rx(`\b(broken|broke|down|not\s+working|stopped\s+working|died|dead|failed|offline|leaking)\b|\bisn(?:'|’)t\s+working\b`)
	equipmentNounRe     = rx(`\b(pos|printers?|walk-?in|freezer|fryers?|ovens?|dish\s*machine|ice\s+machine|internet|wi-?fi|kds|register|hood|cooler)\b`)

	lastQuestionRe = regexp.MustCompile(`[^.!?\n]*\?`)
)

// coachingAreaRules maps the coaching vocabulary to trigger patterns, in
// vocabulary order.
var coachingAreaRules = []labelRule{
	{"delegation", []*regexp.Regexp{rx(`\bdelegat\w*`)}},
	{"communication", []*regexp.Regexp{rx(`\b(communicat\w*|difficult\s+conversations?)\b`)}},
	{"accountability", []*regexp.Regexp{rx(`\b(accountab\w*|follow[\s-]?through)\b`)}},
	{"time_management", []*regexp.Regexp{rx(`\b(time\s+management|prioritiz\w*|overwhelmed)\b`)}},
	{"conflict_resolution", []*regexp.Regexp{rx(`\b(conflicts?|disagree\w*|arguments?)\b`)}},
	{"financial_acumen", []*regexp.Regexp{rx(`\b(p&l|financials?|budgets?|numbers)\b`)}},
	{"hiring", []*regexp.Regexp{rx(`\b(hir(e|ing)|interview\w*|recruit\w*)\b`)}},
	{"training", []*regexp.Regexp{rx(`\b(train\w*|onboard\w*)\b`)}},
}

const maxCoachingAreas = 2

type ClassifyInput struct {
	Prior    *types.ConversationState
	UserText string
	// AssistantText is only consulted when PostTurn is set.
	AssistantText string
	PostTurn      bool
	// WWAHDRequested is the caller's explicit wwahd_mode flag.
	WWAHDRequested bool
	Now            time.Time
}

// Classify derives the next conversation state from the prior state and the
// turn's text. It never mutates in.Prior.
func Classify(in ClassifyInput) *types.ConversationState {
	next := in.Prior.Clone()
	if next == nil {
		next = types.NewConversationState(uuid.Nil)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	user := in.UserText
	flags := next.Flags.Data()

	next.IntentClassification = lastMatch(intentRules, user, types.IntentGeneral)
	next.CurrentTopic = lastMatch(topicRules, user, types.TopicGeneralChat)

	switch {
	case coachingExitRe.MatchString(user):
		flags.CoachingMode = false
		flags.CoachingAreas = nil
	case coachingRequestRe.MatchString(user):
		flags.CoachingMode = true
		if areas := coachingAreas(user); len(areas) > 0 {
			flags.CoachingAreas = areas
		}
		next.CurrentTopic = types.TopicCoachingSession
		next.IntentClassification = types.IntentSeekCoaching
	}

	if !slices.Contains(next.TopicsDiscussed, next.CurrentTopic) {
		next.TopicsDiscussed = append(next.TopicsDiscussed, next.CurrentTopic)
	}

	if next.CurrentTopic == types.TopicWWAHDGuidance || in.WWAHDRequested {
		next.WWAHDMode = true
	}

	userUploaded := uploadIndicatedRe.MatchString(user)
	if userUploaded {
		flags.HasUploadedData = true
	}
	requested := in.PostTurn && uploadRequestRe.MatchString(in.AssistantText)
	if requested {
		flags.DataRequested = true
		flags.DataRequestCount++
		flags.AwaitingUpload = !userUploaded
	} else if userUploaded {
		flags.AwaitingUpload = false
	}

	updateScenario(&flags, user, now)

	if in.PostTurn {
		q, awaiting := lastQuestion(in.AssistantText)
		next.LastQuestionAsked = q
		next.AwaitingUserResponse = awaiting
	}

	next.Flags = datatypes.NewJSONType(flags)
	next.UpdatedAt = now
	return next
}

func lastMatch(rules []labelRule, text, fallback string) string {
	label := fallback
	for _, r := range rules {
		if r.matches(text) {
			label = r.Label
		}
	}
	return label
}

func coachingAreas(text string) []string {
	var out []string
	for _, r := range coachingAreaRules {
		if len(out) == maxCoachingAreas {
			break
		}
		if r.matches(text) {
			out = append(out, r.Label)
		}
	}
	return out
}

// DetectScenario returns the first scenario whose pattern matches, checking
// staffing, then busy service, then equipment.
func DetectScenario(text string) string {
	switch {
	case staffingCalloutRe.MatchString(text),
		staffingShortfallRe.MatchString(text) && staffingRoleRe.MatchString(text):
		return types.ScenarioStaffingShortage
	case busyServiceRe.MatchString(text):
		return types.ScenarioBusyService
	case equipmentStateRe.MatchString(text) && equipmentNounRe.MatchString(text):
		return types.ScenarioEquipmentIssue
	}
	return ""
}

func updateScenario(flags *types.StateFlags, user string, now time.Time) {
	active := ""
	if flags.ActiveScenario != nil {
		active = *flags.ActiveScenario
	}
	if active != "" && resolutionRe.MatchString(user) {
		flags.ActiveScenario = nil
		flags.ScenarioEndedAt = pointers.Time(now)
		return
	}
	detected := DetectScenario(user)
	if detected == "" || detected == active {
		return
	}
	flags.ActiveScenario = pointers.String(detected)
	flags.ScenarioStartedAt = pointers.Time(now)
	flags.ScenarioEndedAt = nil
}

func lastQuestion(text string) (*string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasSuffix(trimmed, "?") {
		return nil, false
	}
	matches := lastQuestionRe.FindAllString(trimmed, -1)
	if len(matches) == 0 {
		return nil, true
	}
	q := strings.TrimSpace(matches[len(matches)-1])
	if q == "" {
		return nil, true
	}
	return pointers.String(q), true
}
