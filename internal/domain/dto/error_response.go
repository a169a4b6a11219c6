package dto

import "time"

// ErrorResponse is the JSON error envelope returned by every endpoint
// on failure.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid timeframe"`         // Human-readable summary
	ErrorDetails string    `json:"error,omitempty" example:"unsupported timeframe: \"15x\""` // Underlying error, if any
	Timestamp    time.Time `json:"timestamp" example:"2024-01-02T10:00:00Z"`    // When the error was produced
}

// Error implements the error interface so handlers can pass the
// envelope around as a regular error.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails != "" {
		return e.Message + ": " + e.ErrorDetails
	}
	return e.Message
}

// NewErrorResponse builds an ErrorResponse from a message and an
// optional underlying error.
func NewErrorResponse(message string, err error) ErrorResponse {
	e := ErrorResponse{Message: message, Timestamp: time.Now()}
	if err != nil {
		e.ErrorDetails = err.Error()
	}
	return e
}
