package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"finanspanel/internal/engine"
	"finanspanel/internal/service"
)

// V2AnalysisHandler exposes the computation engine. Every endpoint accepts
// the same parsed-table body and differs only in the result shape.
type V2AnalysisHandler struct {
	Service *service.AnalysisService
	Logger  *zap.Logger
}

func (h *V2AnalysisHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v2")
	group.POST("/reports", h.reports)
	group.POST("/briefs", h.briefs)
	group.POST("/cycles", h.cycles)
	group.POST("/profit-stream", h.profitStream)
}

type analyzeRequest struct {
	Events           []engine.EventRow `json:"events" binding:"required"`
	MemberID         string            `json:"member_id"`
	CycleIndex       *int              `json:"cycle_index"`
	StartCycleIndex  *int              `json:"start_cycle_index"`
	EndCycleIndex    *int              `json:"end_cycle_index"`
	ThresholdMinutes *int              `json:"threshold_minutes"`
}

func (r analyzeRequest) toEngine() engine.Request {
	return engine.Request{
		Events:           r.Events,
		MemberFilter:     r.MemberID,
		CycleIndex:       r.CycleIndex,
		StartCycleIndex:  r.StartCycleIndex,
		EndCycleIndex:    r.EndCycleIndex,
		ThresholdMinutes: r.ThresholdMinutes,
	}
}

func (h *V2AnalysisHandler) reports(c *gin.Context) {
	h.handle(c, func(ctx context.Context, req engine.Request) (*service.Result, error) {
		return h.Service.Reports(ctx, req)
	})
}

func (h *V2AnalysisHandler) briefs(c *gin.Context) {
	h.handle(c, func(ctx context.Context, req engine.Request) (*service.Result, error) {
		return h.Service.Briefs(ctx, req)
	})
}

func (h *V2AnalysisHandler) cycles(c *gin.Context) {
	h.handle(c, func(ctx context.Context, req engine.Request) (*service.Result, error) {
		return h.Service.CycleIndexes(ctx, req)
	})
}

func (h *V2AnalysisHandler) profitStream(c *gin.Context) {
	h.handle(c, func(ctx context.Context, req engine.Request) (*service.Result, error) {
		return h.Service.ProfitStreams(ctx, req)
	})
}

func (h *V2AnalysisHandler) handle(c *gin.Context, run func(context.Context, engine.Request) (*service.Result, error)) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	result, err := run(c.Request.Context(), body.toEngine())
	if err != nil {
		h.writeError(c, err)
		return
	}
	Ok(c, result, nil)
}

// writeError maps the engine's closed error-kind set onto HTTP statuses so
// the caller can render a precise message.
func (h *V2AnalysisHandler) writeError(c *gin.Context, err error) {
	if reqErr, ok := engine.AsRequestError(err); ok {
		status := http.StatusUnprocessableEntity
		switch reqErr.Kind {
		case engine.ErrInvalidCycleIndex, engine.ErrInvalidRange:
			status = http.StatusBadRequest
		}
		Error(c, status, reqErr.Error(), map[string]any{"kind": string(reqErr.Kind)})
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		Error(c, http.StatusRequestTimeout, "request canceled", nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Error("analysis failed", zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, "analysis failed", nil)
}
