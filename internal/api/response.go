package api

import (
	"fmt"
	"net/http"
	"time"

	"flarewise/domain/core"
	"flarewise/internal/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// writeError maps err to a status and code. Server-side failures get a
// generic message; the cause is only logged.
func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if !errors.IsAppError(err) {
		code = errors.CodeInternalError
		if core.IsValidationError(err) {
			code = errors.CodeValidationError
		}
	}
	status := errors.HTTPStatus(code)

	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		code = errors.CodeInternalError
		message = "analysis failed"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		Timestamp: s.now().UnixMilli(),
	})
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.writeError(c, errors.InternalError(fmt.Sprintf("panic: %v", recovered)))
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.services.Health != nil {
		if err := s.services.Health.Ping(c.Request.Context()); err != nil {
			s.logger.Warn("health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
