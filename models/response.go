package models

// ScrapeResult is the outcome of one scrape. ProductName and ProductPrice
// are individually optional: an absent field is a valid partial result,
// not a failure. Error is set only when no usable HTML could be acquired.
type ScrapeResult struct {
	// ProductName is the trimmed display name, or nil when no rule matched.
	ProductName *string `json:"productName"`

	// ProductPrice holds decimal digits only, or nil when no rule matched.
	ProductPrice *string `json:"productPrice"`

	// Error is the acquisition failure message.
	Error *string `json:"error"`

	// ErrorCode classifies Error (FETCH_FAILED, SCRAPE_TIMEOUT, ...).
	ErrorCode string `json:"errorCode,omitempty"`

	// Engine records which strategy produced the HTML ("http" or "browser").
	Engine string `json:"engine,omitempty"`
}

// Failed reports whether the result carries an acquisition error.
func (r *ScrapeResult) Failed() bool {
	return r.Error != nil
}

// ErrorResponse is the body written when a request fails at the API edge.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Strategy string `json:"strategy"`
	InFlight int    `json:"in_flight"`
	Version  string `json:"version"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
