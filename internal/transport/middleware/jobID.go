package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	JobIDHeader = "X-Job-ID"
	jobIDKey    = "job_id"
)

// JobID assigns every request a fresh id and returns it in X-Job-ID.
func JobID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set(jobIDKey, id)
		c.Header(JobIDHeader, id)
		c.Next()
	}
}

func GetJobID(c *gin.Context) string {
	return c.GetString(jobIDKey)
}
