package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/trustscore/core"
	"github.com/huangsam/trustscore/internal/contract"
	"github.com/huangsam/trustscore/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxBatchURLs caps a single POST /rate request.
const maxBatchURLs = 50

// Handler serves the scoring endpoints.
type Handler struct {
	cfg    *contract.Config
	rater  contract.PackageRater
	logger *zap.SugaredLogger
}

// NewHandler creates a Handler.
func NewHandler(cfg *contract.Config, rater contract.PackageRater, logger *zap.SugaredLogger) *Handler {
	return &Handler{cfg: cfg, rater: rater, logger: logger}
}

// RateRequest is the body of POST /api/v1/rate.
type RateRequest struct {
	URLs  []string `json:"urls" binding:"required,min=1"`
	Fresh bool     `json:"fresh"`
}

// RateFailure is a URL that could not be scored.
type RateFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// RateResponse is the body returned by POST /api/v1/rate.
type RateResponse struct {
	Records  []schema.NetScoreRecord `json:"records"`
	Reports  []*schema.Report        `json:"reports"`
	Failures []RateFailure           `json:"failures"`
}

// ErrorResponse is returned for every client or server error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListMetrics returns the metric definitions and the active weights.
func (h *Handler) ListMetrics(c *gin.Context) {
	weights := h.cfg.Weights
	if weights == nil {
		weights = schema.DefaultNetWeights()
	}
	c.JSON(http.StatusOK, gin.H{
		"metrics": schema.MetricDefinitions,
		"weights": weights,
	})
}

// RatePackage scores the package given by the url query parameter.
func (h *Handler) RatePackage(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "url query parameter is required"})
		return
	}
	if contract.ClassifyURL(url) == schema.UnsupportedURL {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported URL: expected a github.com or npmjs.com URL"})
		return
	}

	ctx := c.Request.Context()
	if c.Query("fresh") == "true" {
		ctx = core.WithFreshSnapshot(ctx)
	}
	report, err := h.rater.Rate(ctx, url)
	if err != nil {
		h.logger.Warnw("rating failed", "url", url, "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RatePackages scores a batch of packages concurrently. Individual failures
// are reported next to the successful records.
func (h *Handler) RatePackages(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if len(req.URLs) > maxBatchURLs {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many URLs in one request"})
		return
	}

	ctx := c.Request.Context()
	if req.Fresh {
		ctx = core.WithFreshSnapshot(ctx)
	}
	reports, errs := h.rateAll(ctx, req.URLs)

	resp := RateResponse{
		Records:  []schema.NetScoreRecord{},
		Reports:  []*schema.Report{},
		Failures: []RateFailure{},
	}
	for i, url := range req.URLs {
		if errs[i] != nil {
			resp.Failures = append(resp.Failures, RateFailure{URL: url, Error: errs[i].Error()})
			continue
		}
		resp.Records = append(resp.Records, reports[i].Record())
		resp.Reports = append(resp.Reports, reports[i])
	}
	c.JSON(http.StatusOK, resp)
}

// rateAll keeps the results in input order.
func (h *Handler) rateAll(ctx context.Context, urls []string) ([]*schema.Report, []error) {
	reports := make([]*schema.Report, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(max(h.cfg.Workers, 1))
	for i, url := range urls {
		g.Go(func() error {
			reports[i], errs[i] = h.rater.Rate(ctx, url)
			return nil
		})
	}
	_ = g.Wait()
	return reports, errs
}
