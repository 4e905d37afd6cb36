package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/genrelay/internal/entity"
	"github.com/ds124wfegd/genrelay/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func (h *RelayHandler) Generate(c *gin.Context) {
	var req entity.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Generate(c.Request.Context(), middleware.GetJobID(c), &req)
	if err != nil {
		_ = c.Error(err)
		code := statusFor(err)
		if code == middleware.StatusClientClosedRequest {
			c.AbortWithStatus(code)
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	middleware.SetAttempts(c, result.Attempts)

	// a synchronous result is passed through byte for byte
	if result.Raw != nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", result.Raw)
		return
	}
	c.JSON(http.StatusOK, result.Record)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidRequest), errors.Is(err, entity.ErrUpstreamRejected):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPollTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, entity.ErrCanceled):
		return middleware.StatusClientClosedRequest
	default:
		// missing credential, failed job, transport and anything unexpected
		return http.StatusInternalServerError
	}
}
