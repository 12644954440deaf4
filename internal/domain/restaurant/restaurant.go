package restaurant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restaurant is the operator's venue, including its REGGI concept profile.
type Restaurant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Concept  string    `gorm:"column:concept;type:text;not null;default:''" json:"concept"`
	Location string    `gorm:"column:location;not null;default:''" json:"location"`
	Timezone string    `gorm:"column:timezone;not null;default:'America/New_York'" json:"timezone"`

	POSRestaurantGUID *string `gorm:"column:pos_restaurant_guid" json:"pos_restaurant_guid,omitempty"`

	Reggi Reggi `gorm:"embedded;embeddedPrefix:reggi_" json:"reggi"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Restaurant) TableName() string { return "restaurant" }

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Reggi describes the concept along six fixed dimensions, each a description and a short code.
type Reggi struct {
	CulinaryBeverage     string `gorm:"column:culinary_beverage;type:text" json:"culinary_beverage"`
	CulinaryBeverageCode string `gorm:"column:culinary_beverage_code" json:"culinary_beverage_code"`
	VibeEnergy           string `gorm:"column:vibe_energy;type:text" json:"vibe_energy"`
	VibeEnergyCode       string `gorm:"column:vibe_energy_code" json:"vibe_energy_code"`
	SocialContext        string `gorm:"column:social_context;type:text" json:"social_context"`
	SocialContextCode    string `gorm:"column:social_context_code" json:"social_context_code"`
	TimeOccasion         string `gorm:"column:time_occasion;type:text" json:"time_occasion"`
	TimeOccasionCode     string `gorm:"column:time_occasion_code" json:"time_occasion_code"`
	OperationalExecution string `gorm:"column:operational_execution;type:text" json:"operational_execution"`
	OperationalExecCode  string `gorm:"column:operational_execution_code" json:"operational_execution_code"`
	HospitalityApproach  string `gorm:"column:hospitality_approach;type:text" json:"hospitality_approach"`
	HospitalityCode      string `gorm:"column:hospitality_approach_code" json:"hospitality_approach_code"`
}

type ReggiDimension struct {
	Label       string
	Description string
	Code        string
}

// Dimensions lists the six dimensions in display order.
func (r Reggi) Dimensions() []ReggiDimension {
	return []ReggiDimension{
		{"Culinary & Beverage", r.CulinaryBeverage, r.CulinaryBeverageCode},
		{"Vibe & Energy", r.VibeEnergy, r.VibeEnergyCode},
		{"Social Context", r.SocialContext, r.SocialContextCode},
		{"Time & Occasion", r.TimeOccasion, r.TimeOccasionCode},
		{"Operational Execution", r.OperationalExecution, r.OperationalExecCode},
		{"Hospitality Approach", r.HospitalityApproach, r.HospitalityCode},
	}
}

func (r Reggi) IsEmpty() bool {
	for _, d := range r.Dimensions() {
		if d.Description != "" || d.Code != "" {
			return false
		}
	}
	return true
}
