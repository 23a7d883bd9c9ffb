package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/symptom-checker-api/internal/domain"
)

// analyzeResponse is the analysis result plus persistence metadata. Saved is
// false when the analysis succeeded but the record could not be stored.
type analyzeResponse struct {
	*domain.AnalysisResult
	RecordID string `json:"record_id,omitempty"`
	Saved    bool   `json:"saved"`
}

// handleAnalyze accepts a symptom description and returns the normalized
// analysis.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.CodeInvalidInput, "Request body must be valid JSON")
		return
	}

	outcome, err := s.analysis.Analyze(c.Request.Context(), &req)
	if err != nil {
		s.writeClassifiedError(c, err)
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{
		AnalysisResult: outcome.Result,
		RecordID:       outcome.RecordID,
		Saved:          outcome.Saved,
	})
}

// handleListHistory returns one page of stored analyses, most recent first.
func (s *Server) handleListHistory(c *gin.Context) {
	limit, ok := s.queryInt(c, "limit", s.history.DefaultLimit())
	if !ok {
		return
	}
	offset, ok := s.queryInt(c, "offset", 0)
	if !ok {
		return
	}

	page, err := s.history.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeClassifiedError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// handleDeleteHistory removes one stored analysis. Deleting an id that no
// longer exists is still success.
func (s *Server) handleDeleteHistory(c *gin.Context) {
	if err := s.history.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeClassifiedError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// handleHealth reports liveness plus store connectivity. A failing store
// degrades the report but keeps the process alive.
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	storeStatus := "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.store.Health(ctx); err != nil {
		status = "degraded"
		storeStatus = "unavailable"
		s.log.WithError(err).Warn("History store health check failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"store":     storeStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// queryInt parses a non-negative integer query parameter. On a malformed
// value it writes the error response and reports false.
func (s *Server) queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, domain.CodeInvalidInput, name+" must be an integer")
		return 0, false
	}
	return n, true
}

// writeClassifiedError maps a pipeline error to its HTTP response. Model
// failures surface as a generic upstream error; raw model output is never
// included.
func (s *Server) writeClassifiedError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	switch code {
	case domain.CodeInvalidInput:
		s.writeError(c, http.StatusBadRequest, code, err.Error())
	case domain.CodeModelUnavailable:
		s.writeError(c, http.StatusBadGateway, code, "Analysis service is temporarily unavailable, please retry")
	case domain.CodeModelResponseInvalid:
		s.writeError(c, http.StatusBadGateway, code, "Analysis service returned an unusable response, please retry")
	case domain.CodePersistenceUnavailable:
		s.writeError(c, http.StatusServiceUnavailable, code, "History storage is temporarily unavailable")
	default:
		s.log.WithError(err).Error("Unclassified handler error")
		s.writeError(c, http.StatusInternalServerError, domain.CodeInternalServer, "Internal server error")
	}
}

func (s *Server) writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, domain.NewAPIError(code, message, c.GetString("correlation_id")))
}
