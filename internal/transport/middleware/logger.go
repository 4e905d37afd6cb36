package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const attemptsKey = "poll_attempts"

// SetAttempts records how many status polls the job took, for the request log.
func SetAttempts(c *gin.Context, attempts int) {
	c.Set(attemptsKey, attempts)
}

// Logger writes one line per request. Relay requests carry the job id, the
// number of polls and the error the handler attached with c.Error.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"duration":  time.Since(start),
			"client_ip": c.ClientIP(),
		})
		if jobID := GetJobID(c); jobID != "" {
			entry = entry.WithField("job_id", jobID)
		}
		if attempts, ok := c.Get(attemptsKey); ok {
			entry = entry.WithField("attempts", attempts)
		}
		if last := c.Errors.Last(); last != nil {
			entry = entry.WithError(last.Err)
		}

		switch {
		case status == StatusClientClosedRequest:
			entry.Warn("Client went away before the job finished")
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}
	}
}

// StatusClientClosedRequest is nginx's code for a client that hung up before
// the response.
const StatusClientClosedRequest = 499
