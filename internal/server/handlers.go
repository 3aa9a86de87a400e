package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/export"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/insights"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/space"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/spec"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/speckle"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/store"
	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/validation"
)

const defaultHistoryLimit = 20

var errNoInsightsProject = errors.New("insights.project_id is not set")

type modelInfo struct {
	spec.ModelRef
	ViewerURL string     `json:"viewer_url"`
	Analyzed  *time.Time `json:"analyzed_at,omitempty"`
}

type analysisResponse struct {
	Run        *store.Run               `json:"run"`
	ViewerURL  string                   `json:"viewer_url"`
	Table      analytics.Table          `json:"table"`
	Shares     []analytics.Share        `json:"shares"`
	GrandTotal analytics.CategoryTotals `json:"grand_total"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<!DOCTYPE html>
<html><head><title>Carbon Dashboard</title></head>
<body style="margin:0;background:#0f0f0f;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>Carbon Dashboard</h1>
<p>Chart data is served under <code>/api</code>. Start with <code>/api/models</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleModels(c *gin.Context) {
	out := make([]modelInfo, 0, len(s.spec.Models))
	s.mu.RLock()
	for _, m := range s.spec.Models {
		info := modelInfo{ModelRef: m, ViewerURL: speckle.ViewerURL(s.spec.Server.Host, m.ProjectID, m.ModelID, "")}
		if run, ok := s.latest[m.Name]; ok {
			info.ViewerURL = speckle.ViewerURL(s.spec.Server.Host, m.ProjectID, m.ModelID, run.VersionID)
			at := run.CreatedAt
			info.Analyzed = &at
		}
		out = append(out, info)
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, out)
}

// runFor resolves the :model parameter and returns its analysis, writing
// the error response itself when it fails.
func (s *Server) runFor(c *gin.Context) (*store.Run, bool) {
	ref, err := s.spec.ModelByName(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	run, err := s.analysis(c.Request.Context(), ref, refresh)
	if err != nil {
		s.logger.Error("analysis failed", zap.String("model", ref.Name), zap.Error(err))
		body := gin.H{"error": err.Error()}
		if finding, ok := analytics.Finding(err); ok {
			body["finding"] = finding
		}
		c.JSON(statusFor(err), body)
		return nil, false
	}
	return run, true
}

func statusFor(err error) int {
	var (
		apiErr  *speckle.APIError
		missing *analytics.MissingAttributeError
		invalid *analytics.InvalidAttributeError
		unknown *analytics.UnknownCategoryError
	)
	switch {
	case errors.Is(err, speckle.ErrNoVersions):
		return http.StatusNotFound
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &unknown),
		errors.Is(err, analytics.ErrInvalidDepth):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) viewerURL(run *store.Run) string {
	return speckle.ViewerURL(s.spec.Server.Host, run.ProjectID, run.ModelID, run.VersionID)
}

func (s *Server) handleAnalysis(c *gin.Context) {
	run, ok := s.runFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analysisResponse{
		Run:        run,
		ViewerURL:  s.viewerURL(run),
		Table:      run.Result.Table(),
		Shares:     run.Result.Shares(),
		GrandTotal: run.Result.GrandTotal(),
	})
}

func (s *Server) exportReport(run *store.Run) export.Report {
	return export.Report{
		Model:       run.Model,
		ProjectID:   run.ProjectID,
		ModelID:     run.ModelID,
		VersionID:   run.VersionID,
		ViewerURL:   s.viewerURL(run),
		GeneratedAt: time.Now(),
		Result:      run.Result,
	}
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	run, ok := s.runFor(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.Model+".xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := export.WriteXLSX(c.Writer, s.exportReport(run)); err != nil {
		s.logger.Error("xlsx export failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func (s *Server) handleExportPDF(c *gin.Context) {
	run, ok := s.runFor(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.Model+".pdf"))
	c.Header("Content-Type", "application/pdf")
	if err := export.WritePDF(c.Writer, s.exportReport(run)); err != nil {
		s.logger.Error("pdf export failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func (s *Server) handleHistory(c *gin.Context) {
	ref, err := s.spec.ModelByName(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if s.history == nil {
		c.JSON(http.StatusOK, []store.Run{})
		return
	}
	limit := defaultHistoryLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := s.history.History(c.Request.Context(), ref.Name, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleTrend(c *gin.Context) {
	ref, err := s.spec.ModelByName(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category query parameter is required"})
		return
	}
	if s.history == nil {
		c.JSON(http.StatusOK, []store.TrendPoint{})
		return
	}
	points, err := s.history.CarbonTrend(c.Request.Context(), ref.Name, category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) handleInsights(c *gin.Context) {
	cfg := s.spec
	if cfg.Insights.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoInsightsProject.Error()})
		return
	}
	rep, err := insights.Fetch(c.Request.Context(), s.client, cfg.Insights.ProjectID,
		cfg.Server.ModelsLimit, cfg.Server.VersionsLimit, cfg.Refresh.Concurrency, cfg.Insights.Teams)
	if err != nil {
		s.logger.Error("insights failed", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if team := c.Query("team"); team != "" {
		rep.FilterTeam(team, cfg.Insights.Teams)
	}
	c.JSON(http.StatusOK, rep)
}

type spaceRequest struct {
	TotalAreaM2   float64               `json:"total_area_m2"`
	SubCategories []spec.SpaceAllowance `json:"sub_categories"`
}

func (s *Server) handleSpaceDefaults(c *gin.Context) {
	s.respondSpace(c, s.spec.Space.SubCategories, s.spec.Space.TotalAreaM2)
}

func (s *Server) handleSpace(c *gin.Context) {
	var req spaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.SubCategories) == 0 {
		req.SubCategories = s.spec.Space.SubCategories
	}
	s.respondSpace(c, req.SubCategories, req.TotalAreaM2)
}

func (s *Server) respondSpace(c *gin.Context, items []spec.SpaceAllowance, total float64) {
	d, err := space.Distribute(items, total)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, d.Report)
		return
	}
	if category := c.Query("category"); category != "" {
		c.JSON(http.StatusOK, gin.H{
			"category":   category,
			"rows":       d.ByCategory(category),
			"population": d.Population,
		})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleValidation(c *gin.Context) {
	c.JSON(http.StatusOK, validation.ValidateSchema(s.spec))
}

func (s *Server) handleSpec(c *gin.Context) {
	c.JSON(http.StatusOK, s.spec)
}
