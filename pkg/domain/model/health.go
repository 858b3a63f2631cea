package model

import "sync/atomic"

const (
	HealthResultOK  = "OK"
	HealthResultNOK = "NOK"
)

// HealthStatus represents the health check status
type HealthStatus struct {
	Result  string `json:"result"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthState is a process-wide error flag. Delivery failures set it and the
// health endpoint reports it. Nothing in the service clears it; a restart does.
type HealthState struct {
	hasError atomic.Bool
}

// NewHealthState creates a HealthState without error
func NewHealthState() *HealthState {
	return &HealthState{}
}

// HasError reports whether an error has been recorded
func (x *HealthState) HasError() bool {
	return x.hasError.Load()
}

// SetError sets the error flag
func (x *HealthState) SetError(v bool) {
	x.hasError.Store(v)
}

// Status builds the response body for the health endpoint
func (x *HealthState) Status(service, version string) *HealthStatus {
	result := HealthResultOK
	if x.HasError() {
		result = HealthResultNOK
	}
	return &HealthStatus{
		Result:  result,
		Service: service,
		Version: version,
	}
}
