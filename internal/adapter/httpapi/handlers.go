package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/almadenlabs/covidlag/internal/domain"
	"github.com/almadenlabs/covidlag/internal/pipeline"
)

// Analysis answers the read queries the API exposes.
type Analysis interface {
	Counties() ([]string, error)
	CaseHistory(county string) (domain.CaseHistory, error)
	Projection(county string, outcome domain.Outcome, params domain.Params) (domain.Projection, error)
	Summaries(county string) ([]domain.Summary, error)
}

// API holds the analysis handlers.
type API struct {
	analysis      Analysis
	defaultCounty string
	opts          domain.AnalysisOptions
	logger        *slog.Logger
}

// NewAPI creates the handler set over the given analysis backend.
func NewAPI(analysis Analysis, defaultCounty string, opts domain.AnalysisOptions, logger *slog.Logger) *API {
	return &API{
		analysis:      analysis,
		defaultCounty: defaultCounty,
		opts:          opts,
		logger:        logger,
	}
}

func (a *API) listCounties(c *gin.Context) {
	counties, err := a.analysis.Counties()
	if err != nil {
		a.abortAnalysis(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"counties": counties,
		"count":    len(counties),
	})
}

func (a *API) listControls(c *gin.Context) {
	outcomes := domain.Outcomes()
	controls := make([]domain.Control, 0, len(outcomes))
	for _, outcome := range outcomes {
		control, err := domain.ControlFor(outcome)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		controls = append(controls, control)
	}
	c.JSON(http.StatusOK, gin.H{
		"default_county":   a.defaultCounty,
		"smoothing_window": a.opts.Window,
		"trim_days":        a.opts.Trim,
		"controls":         controls,
	})
}

func (a *API) countyCases(c *gin.Context) {
	history, err := a.analysis.CaseHistory(c.Param("county"))
	if err != nil {
		a.abortAnalysis(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (a *API) countyProjection(c *gin.Context) {
	county := c.Param("county")

	outcome := domain.OutcomeDeaths
	if raw := c.Query("outcome"); raw != "" {
		var err error
		outcome, err = domain.ParseOutcome(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
	}

	params, err := domain.DefaultParams(outcome)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	if params.Lag, err = intQuery(c, "lag", params.Lag); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if params.Rate, err = floatQuery(c, "rate", params.Rate); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := params.Validate(outcome); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	p, err := a.analysis.Projection(county, outcome, params)
	if err != nil {
		a.abortAnalysis(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *API) countySummary(c *gin.Context) {
	county := c.Param("county")
	summaries, err := a.analysis.Summaries(county)
	if err != nil {
		a.abortAnalysis(c, err)
		return
	}

	items := make([]summaryItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, summaryItem{Summary: s, Narrative: s.Narrative()})
	}
	c.JSON(http.StatusOK, gin.H{
		"county":    county,
		"summaries": items,
	})
}

type summaryItem struct {
	domain.Summary
	Narrative string `json:"narrative"`
}

// abortAnalysis maps analysis errors onto HTTP statuses: missing data is
// 503, an unknown county 404, anything else 500.
func (a *API) abortAnalysis(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoData):
		abortWithError(c, http.StatusServiceUnavailable, err)
	case errors.Is(err, pipeline.ErrUnknownCounty):
		abortWithError(c, http.StatusNotFound, err)
	default:
		a.logger.Error("analysis request failed", "path", c.Request.URL.Path, "error", err)
		abortWithError(c, http.StatusInternalServerError, err)
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func floatQuery(c *gin.Context, name string, fallback float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
