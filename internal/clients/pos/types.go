package pos

type Action string

const (
	ActionRequest Action = "request"
	ActionPoll    Action = "poll"
)

const (
	ReportTypeMetrics = "metrics"

	AggregationHourly = "HOURLY"

	StatusProcessing = "processing"
	StatusReady      = "ready"
)

// ReportRequest is the envelope accepted by the reporting endpoint. Dates are
// business dates in YYYYMMDD form.
type ReportRequest struct {
	Action            Action   `json:"action"`
	ReportType        string   `json:"reportType"`
	StartBusinessDate int      `json:"startBusinessDate,omitempty"`
	EndBusinessDate   int      `json:"endBusinessDate,omitempty"`
	RestaurantIDs     []string `json:"restaurantIds,omitempty"`
	Aggregation       string   `json:"aggregation,omitempty"`
	ReportGUID        string   `json:"reportRequestGuid,omitempty"`
}

type ReportResponse struct {
	Status     string         `json:"status"`
	ReportGUID string         `json:"reportRequestGuid,omitempty"`
	Data       []MetricRecord `json:"data,omitempty"`
}

func (r *ReportResponse) Ready() bool {
	return r != nil && r.Status == StatusReady
}

// MetricRecord is one period (an hour or a day) of the metrics report.
type MetricRecord struct {
	BusinessDate        int      `json:"businessDate"`
	Hour                *int     `json:"hour,omitempty"`
	NetSalesAmount      float64  `json:"netSalesAmount"`
	GuestCount          float64  `json:"guestCount"`
	OrdersCount         float64  `json:"ordersCount"`
	HourlyJobTotalHours *float64 `json:"hourlyJobTotalHours,omitempty"`
	HourlyJobTotalPay   *float64 `json:"hourlyJobTotalPay,omitempty"`
}
