package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"finanspanel/internal/repository"
)

// V2RunHandler lists the analysis-run audit trail.
type V2RunHandler struct {
	Repo repository.Repository
}

func (h *V2RunHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v2/runs")
	group.GET("", h.list)
}

func (h *V2RunHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusServiceUnavailable, "audit storage disabled", nil)
		return
	}
	params := repository.ListAnalysisRunsParams{}
	if op := strings.TrimSpace(c.Query("operation")); op != "" {
		params.Operation = &op
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "since must be RFC3339", nil)
			return
		}
		params.Since = &since
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Repo.ListAnalysisRuns(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAnalysisRuns(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"total": total})
}
