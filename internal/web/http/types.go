package http

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
} //	@name	HealthResponse

// HealthChecks reports the state of each dependency.
type HealthChecks struct {
	Sessions string `json:"sessions"`
} //	@name	HealthChecks

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
} //	@name	ErrorResponse
