package models

// TransitsRequest binds GET /transits.
type TransitsRequest struct {
	Natal string  `query:"natal" validate:"required"`
	Date  string  `query:"date"`
	Lat   float64 `query:"lat" default:"0" validate:"gte=-90,lte=90"`
	Lng   float64 `query:"lng" default:"0" validate:"gte=-180,lte=180"`
	Orb   float64 `query:"orb" default:"2.0" validate:"gte=0"`
}

// ReportRequest binds GET /transits/report.
type ReportRequest struct {
	Natal string  `query:"natal" validate:"required"`
	Date  string  `query:"date" validate:"required"`
	Lat   float64 `query:"lat" default:"0" validate:"gte=-90,lte=90"`
	Lng   float64 `query:"lng" default:"0" validate:"gte=-180,lte=180"`
	Orb   float64 `query:"orb" default:"2.0" validate:"gte=0"`
}

// UpcomingRequest binds GET /transits/upcoming and its stream variant.
type UpcomingRequest struct {
	Natal string  `query:"natal" validate:"required"`
	Start string  `query:"start" validate:"required"`
	Days  int     `query:"days" default:"30" validate:"gte=0"`
	Lat   float64 `query:"lat" default:"0" validate:"gte=-90,lte=90"`
	Lng   float64 `query:"lng" default:"0" validate:"gte=-180,lte=180"`
	Orb   float64 `query:"orb" default:"2.0" validate:"gte=0"`
}

// ChartRequest binds GET /natal/chart. Coordinates are bound as text so
// that "required" distinguishes an absent parameter from zero.
type ChartRequest struct {
	Date string `query:"date" validate:"required"`
	Lat  string `query:"lat" validate:"required"`
	Lng  string `query:"lng" validate:"required"`
}

// HistoryRequest binds GET /transits/history.
type HistoryRequest struct {
	Natal string `query:"natal" validate:"required"`
	Limit int    `query:"limit" default:"20" validate:"gte=1,lte=500"`
}

// TransitsResponse is the body of GET /transits.
type TransitsResponse struct {
	Date     string        `json:"date"`
	Report   string        `json:"report"`
	Transits []AspectMatch `json:"transits"`
}

// ReportResponse is the body of GET /transits/report.
type ReportResponse struct {
	Report string `json:"report"`
}

// UpcomingResponse is the body of GET /transits/upcoming.
type UpcomingResponse struct {
	StartDate string             `json:"start_date"`
	Days      int                `json:"days"`
	Transits  []DatedAspectMatch `json:"transits"`
}

// ChartResponse is the body of GET /natal/chart.
type ChartResponse struct {
	Chart NatalChart `json:"chart"`
}

// HistoryResponse is the body of GET /transits/history.
type HistoryResponse struct {
	Natal  string         `json:"natal"`
	Events []TransitEvent `json:"events"`
}

// StreamDayFrame carries one day of the upcoming stream.
type StreamDayFrame struct {
	Date     string        `json:"date"`
	Transits []AspectMatch `json:"transits"`
}

// StreamDoneFrame ends a successful upcoming stream.
type StreamDoneFrame struct {
	Done bool `json:"done"`
	Days int  `json:"days"`
}
