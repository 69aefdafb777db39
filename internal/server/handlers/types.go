package handlers

// PredictRequest is the body of POST /api/predict. Lat and Lon are pointers so
// the equator and the prime meridian pass the required check.
type PredictRequest struct {
	Lat         *float64 `json:"lat" validate:"required,latitude"`
	Lon         *float64 `json:"lon" validate:"required,longitude"`
	TargetDate  string   `json:"target_date" validate:"required"`
	HorizonDays int      `json:"horizon_days" validate:"omitempty,min=1"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string      `json:"error" validate:"required,min=1,max=500"`
	Code    string      `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string                 `json:"status" validate:"required,oneof=ok alive ready unavailable"`
	Uptime    string                 `json:"uptime" validate:"required"`
	Timestamp string                 `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}
