package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/backmassage/beatcut/internal/plan"
	"github.com/backmassage/beatcut/internal/selector"
	"github.com/backmassage/beatcut/internal/store"
	"github.com/backmassage/beatcut/internal/timeline"
)

// CutsRequest is the body of POST /v1/cuts.
type CutsRequest struct {
	Beats    []float64   `json:"beats"`
	AudioEnd float64     `json:"audio_end"` // 0 means last beat + target period.
	Params   plan.Params `json:"params"`
}

// CutView is one selected cut in a response.
type CutView struct {
	Time   float64 `json:"time"`
	Branch string  `json:"branch"`
}

// CutsResponse is the body returned by POST /v1/cuts.
type CutsResponse struct {
	AudioEnd float64   `json:"audio_end"`
	Cuts     []CutView `json:"cuts"`
}

// PlanRequest is the body of POST /v1/plans.
type PlanRequest struct {
	Audio     string      `json:"audio"`
	ImagesDir string      `json:"images_dir"`
	Images    []string    `json:"images"`
	Beats     []float64   `json:"beats"`
	AudioEnd  float64     `json:"audio_end"`
	Params    plan.Params `json:"params"`
}

func (s *Server) handleCuts(c *gin.Context) {
	req := CutsRequest{Params: s.defaults.Clone()}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Beats = ascending(req.Beats)
	end := audioEnd(req.AudioEnd, req.Beats, req.Params)

	var cuts []CutView
	if req.Params.AllBeats {
		for _, t := range selector.AllBeats(req.Beats, end, req.Params.Phase) {
			cuts = append(cuts, CutView{Time: t, Branch: "beat"})
		}
	} else {
		detailed, err := selector.SelectDetailed(req.Beats, end, req.Params.Constraints())
		if err != nil {
			badRequest(c, err)
			return
		}
		for _, cut := range detailed {
			cuts = append(cuts, CutView{Time: cut.Time, Branch: cut.Branch.String()})
		}
	}
	if cuts == nil {
		cuts = []CutView{}
	}
	c.JSON(http.StatusOK, CutsResponse{AudioEnd: end, Cuts: cuts})
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	req := PlanRequest{Params: s.defaults.Clone()}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Beats = ascending(req.Beats)
	doc, err := plan.Build(plan.Request{
		Audio:     req.Audio,
		ImagesDir: req.ImagesDir,
		Images:    req.Images,
		Beats:     req.Beats,
		AudioEnd:  audioEnd(req.AudioEnd, req.Beats, req.Params),
		Params:    req.Params,
	})
	if err != nil {
		if isInputError(err) {
			badRequest(c, err)
			return
		}
		internalError(c, err)
		return
	}
	if err := s.store.Put(c.Request.Context(), doc); err != nil {
		internalError(c, fmt.Errorf("store plan: %w", err))
		return
	}
	c.Header("Location", "/v1/plans/"+doc.ID)
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleGetPlan(c *gin.Context) {
	doc, err := s.store.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidID):
		badRequest(c, err)
	case err != nil:
		internalError(c, err)
	default:
		c.JSON(http.StatusOK, doc)
	}
}

func (s *Server) handleListPlans(c *gin.Context) {
	ids, err := s.store.List(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

// ascending returns beats sorted. Clients may send them in any order.
func ascending(beats []float64) []float64 {
	if slices.IsSorted(beats) {
		return beats
	}
	return slices.Sorted(slices.Values(beats))
}

// audioEnd defaults a missing horizon to the last beat plus one target
// period, the same fallback the CLI uses when probing fails.
func audioEnd(end float64, beats []float64, p plan.Params) float64 {
	if end > 0 {
		return end
	}
	last := 0.0
	for _, b := range beats {
		if b > last {
			last = b
		}
	}
	return last + p.TargetPeriod
}

func isInputError(err error) bool {
	return errors.Is(err, selector.ErrInvalidConstraints) || errors.Is(err, timeline.ErrInvalidConfig)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
