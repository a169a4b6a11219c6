package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhorta/tfpulse/internal/domain/dto"
	"github.com/mhorta/tfpulse/internal/logger"
)

// ErrorHandler is a Gin middleware that converts errors attached to the
// context (via c.Error) into a standardized JSON error response.
//
// Behavior:
//   - Runs the rest of the chain first (c.Next()).
//   - If handlers attached errors and no response body was written yet,
//     logs the last error and responds with 500 + dto.ErrorResponse.
//   - Handlers that already wrote a response are left untouched, so
//     explicit 4xx replies keep their status and body.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	rid, _ := c.Get(RequestIDKey)
	logger.L().Error().
		Str("request_id", toString(rid)).
		Str("path", c.Request.URL.Path).
		Err(err).
		Msg("unhandled request error")

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("internal server error", err))
}

// AbortWithError writes a dto.ErrorResponse with the given status and
// stops the handler chain. It is the single place handlers go through
// to produce error replies, keeping the envelope uniform.
//
// Parameters:
//   - c: the request context.
//   - status: HTTP status code (e.g., 400, 404, 500).
//   - message: human-readable summary for the response body.
//   - err: optional underlying error included as detail.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
