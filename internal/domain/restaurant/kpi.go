package restaurant

import (
	"time"

	"github.com/google/uuid"
)

// KPI holds the operator's headline numbers. Sales mix percentages are
// expected to sum to 100 but nothing here enforces it.
type KPI struct {
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey" json:"restaurant_id"`

	AvgWeeklySales *float64 `gorm:"column:avg_weekly_sales" json:"avg_weekly_sales"`
	FoodCostGoal   *float64 `gorm:"column:food_cost_goal" json:"food_cost_goal"`
	LaborCostGoal  *float64 `gorm:"column:labor_cost_goal" json:"labor_cost_goal"`

	SalesMixFood         *float64 `gorm:"column:sales_mix_food" json:"sales_mix_food"`
	SalesMixLiquor       *float64 `gorm:"column:sales_mix_liquor" json:"sales_mix_liquor"`
	SalesMixWine         *float64 `gorm:"column:sales_mix_wine" json:"sales_mix_wine"`
	SalesMixBeer         *float64 `gorm:"column:sales_mix_beer" json:"sales_mix_beer"`
	SalesMixNonAlcoholic *float64 `gorm:"column:sales_mix_non_alcoholic" json:"sales_mix_non_alcoholic"`
	SalesMixRetail       *float64 `gorm:"column:sales_mix_retail" json:"sales_mix_retail"`
	SalesMixRoomFees     *float64 `gorm:"column:sales_mix_room_fees" json:"sales_mix_room_fees"`
	SalesMixOther        *float64 `gorm:"column:sales_mix_other" json:"sales_mix_other"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (KPI) TableName() string { return "restaurant_kpi" }

type SalesMixEntry struct {
	Label   string
	Percent *float64
}

func (k KPI) SalesMix() []SalesMixEntry {
	return []SalesMixEntry{
		{"Food", k.SalesMixFood},
		{"Liquor", k.SalesMixLiquor},
		{"Wine", k.SalesMixWine},
		{"Beer", k.SalesMixBeer},
		{"Non-alcoholic", k.SalesMixNonAlcoholic},
		{"Retail", k.SalesMixRetail},
		{"Room fees", k.SalesMixRoomFees},
		{"Other", k.SalesMixOther},
	}
}
