package chat

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/backofhouse-backend/internal/pkg/pointers"
)

const (
	TopicGeneralChat       = "general_chat"
	TopicFoodCostAnalysis  = "food_cost_analysis"
	TopicLaborManagement   = "labor_management"
	TopicWasteReduction    = "waste_reduction"
	TopicWWAHDGuidance     = "wwahd_guidance"
	TopicSalesAnalysis     = "sales_analysis"
	TopicGuestExperience   = "guest_experience"
	TopicDataCollection    = "data_collection"
	TopicDataRetrievalHelp = "data_retrieval_help"
	TopicCoachingSession   = "coaching_session"
)

const (
	IntentGeneral                = "general"
	IntentLowerCosts             = "lower_costs"
	IntentUnderstandMetrics      = "understand_metrics"
	IntentSeekGuidance           = "seek_guidance"
	IntentIncreaseSales          = "increase_sales"
	IntentImproveGuestExperience = "improve_guest_experience"
	IntentImproveTeamExperience  = "improve_team_experience"
	IntentSeekCoaching           = "seek_coaching"
)

const (
	ScenarioStaffingShortage = "staffing_shortage"
	ScenarioBusyService      = "busy_service"
	ScenarioEquipmentIssue   = "equipment_issue"
)

func IsScenario(s string) bool {
	switch s {
	case ScenarioStaffingShortage, ScenarioBusyService, ScenarioEquipmentIssue:
		return true
	}
	return false
}

// ConversationState is the per-conversation classifier memory. It is read at
// turn start and written at turn end; concurrent turns are last-writer-wins.
type ConversationState struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversation_id"`

	CurrentTopic         string `gorm:"column:current_topic;not null;default:'general_chat'" json:"current_topic"`
	IntentClassification string `gorm:"column:intent_classification;not null;default:'general'" json:"intent_classification"`

	TopicsDiscussed datatypes.JSONSlice[string] `gorm:"column:topics_discussed" json:"topics_discussed"`

	LastQuestionAsked    *string `gorm:"column:last_question_asked;type:text" json:"last_question_asked"`
	AwaitingUserResponse bool    `gorm:"column:awaiting_user_response;not null;default:false" json:"awaiting_user_response"`

	Flags datatypes.JSONType[StateFlags] `gorm:"column:conversation_state" json:"conversation_state"`

	WWAHDMode bool `gorm:"column:wwahd_mode;not null;default:false" json:"wwahd_mode"`

	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (ConversationState) TableName() string { return "conversation_state" }

// StateFlags is the nested bag persisted as one JSON column.
type StateFlags struct {
	DataRequested    bool `json:"data_requested"`
	DataRequestCount int  `json:"data_request_count"`
	AwaitingUpload   bool `json:"awaiting_upload"`
	HasUploadedData  bool `json:"has_uploaded_data"`

	ActiveScenario    *string    `json:"active_scenario"`
	ScenarioStartedAt *time.Time `json:"scenario_started_at,omitempty"`
	ScenarioEndedAt   *time.Time `json:"scenario_ended_at,omitempty"`

	CoachingMode  bool     `json:"coaching_mode"`
	CoachingAreas []string `json:"coaching_areas,omitempty"`

	LastSocraticTipIndex int `json:"last_socratic_tip_index"`
}

// NewConversationState returns the zero state for a conversation with no history.
func NewConversationState(conversationID uuid.UUID) *ConversationState {
	return &ConversationState{
		ConversationID:       conversationID,
		CurrentTopic:         TopicGeneralChat,
		IntentClassification: IntentGeneral,
		TopicsDiscussed:      datatypes.JSONSlice[string]{},
		Flags:                datatypes.NewJSONType(StateFlags{}),
	}
}

// Clone returns a deep copy so a classifier pass never aliases the prior state.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.TopicsDiscussed = slices.Clone(s.TopicsDiscussed)
	if s.LastQuestionAsked != nil {
		out.LastQuestionAsked = pointers.String(*s.LastQuestionAsked)
	}
	f := s.Flags.Data()
	if f.ActiveScenario != nil {
		f.ActiveScenario = pointers.String(*f.ActiveScenario)
	}
	if f.ScenarioStartedAt != nil {
		f.ScenarioStartedAt = pointers.Time(*f.ScenarioStartedAt)
	}
	if f.ScenarioEndedAt != nil {
		f.ScenarioEndedAt = pointers.Time(*f.ScenarioEndedAt)
	}
	f.CoachingAreas = slices.Clone(f.CoachingAreas)
	out.Flags = datatypes.NewJSONType(f)
	return &out
}

func (s *ConversationState) ActiveScenario() string {
	if s == nil {
		return ""
	}
	if a := s.Flags.Data().ActiveScenario; a != nil && IsScenario(*a) {
		return *a
	}
	return ""
}
