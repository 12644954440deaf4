package restaurant

import (
	"time"

	"github.com/google/uuid"
)

// Tuning is the operator-philosophy slider set; every value is in [0,100].
type Tuning struct {
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey" json:"restaurant_id"`

	ProfitMotivation   int `gorm:"column:profit_motivation;not null;default:50" json:"profit_motivation"`
	ServicePhilosophy  int `gorm:"column:service_philosophy;not null;default:50" json:"service_philosophy"`
	RevenueStrategy    int `gorm:"column:revenue_strategy;not null;default:50" json:"revenue_strategy"`
	MarketPosition     int `gorm:"column:market_position;not null;default:50" json:"market_position"`
	TeamPhilosophy     int `gorm:"column:team_philosophy;not null;default:50" json:"team_philosophy"`
	InnovationAppetite int `gorm:"column:innovation_appetite;not null;default:50" json:"innovation_appetite"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Tuning) TableName() string { return "restaurant_tuning" }

// Dimension keys, shared with the tuning rule table.
const (
	DimProfitMotivation   = "profit_motivation"
	DimServicePhilosophy  = "service_philosophy"
	DimRevenueStrategy    = "revenue_strategy"
	DimMarketPosition     = "market_position"
	DimTeamPhilosophy     = "team_philosophy"
	DimInnovationAppetite = "innovation_appetite"
)

var TuningDimensions = []string{
	DimProfitMotivation,
	DimServicePhilosophy,
	DimRevenueStrategy,
	DimMarketPosition,
	DimTeamPhilosophy,
	DimInnovationAppetite,
}

// Value returns the slider for a dimension key.
func (t Tuning) Value(dim string) (int, bool) {
	switch dim {
	case DimProfitMotivation:
		return t.ProfitMotivation, true
	case DimServicePhilosophy:
		return t.ServicePhilosophy, true
	case DimRevenueStrategy:
		return t.RevenueStrategy, true
	case DimMarketPosition:
		return t.MarketPosition, true
	case DimTeamPhilosophy:
		return t.TeamPhilosophy, true
	case DimInnovationAppetite:
		return t.InnovationAppetite, true
	}
	return 0, false
}
