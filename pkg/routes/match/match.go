package match

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/dongname"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/processor"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Rematcher re-attributes stored unmatched transactions
type Rematcher interface {
	Rematch(ctx context.Context, regionCode string) (processor.RematchStats, error)
}

// Register registers match routes. Handlers resolve the matchers, name processors, the
// Rematcher and the logger from the container active on the request context.
func Register(g *echo.Group) {
	g.POST("/match", Match)
	g.POST("/match/address", MatchAddress)
	g.GET("/names/process", ProcessName)
	g.GET("/dongs/candidates", DongCandidates)
	g.POST("/rematch", Rematch)
}

// MatchRequest is a dry-run match against inline candidates
type MatchRequest struct {
	matching.Query
	Candidates []models.CandidateApartment `json:"candidates" validate:"dive"`
	Details    []models.DetailRecord       `json:"details"`
}

// AddressMatchRequest is a dry-run address-only match against inline candidates
type AddressMatchRequest struct {
	LotNumber  string                      `json:"lot_number" validate:"required"`
	BuildYear  string                      `json:"build_year"`
	Candidates []models.CandidateApartment `json:"candidates" validate:"dive"`
	Details    []models.DetailRecord       `json:"details"`
}

// NameRequest carries a name to inspect
type NameRequest struct {
	Name string `query:"name" validate:"required"`
}

// DongCandidatesResponse lists the lookup forms of a dong name
type DongCandidatesResponse struct {
	Name       string   `json:"name"`
	Candidates []string `json:"candidates"`
}

// Match runs the full matcher and returns the flattened result
func Match(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MatchHandler.Match")
	defer span.End()

	req, err := utils.BindRequest[MatchRequest](c)
	if err != nil {
		return err
	}

	_, matcher, err := ectoinject.GetContext[*matching.Matcher](ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	result := matcher.Match(req.Query, req.Candidates, detailsByID(req.Details))
	observe(processor.PathName, result, start)

	return c.JSON(http.StatusOK, matching.ToRecord(result))
}

// MatchAddress runs the address-only matcher
func MatchAddress(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MatchHandler.MatchAddress")
	defer span.End()

	req, err := utils.BindRequest[AddressMatchRequest](c)
	if err != nil {
		return err
	}

	_, address, err := ectoinject.GetContext[*matching.AddressMatcher](ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	result := address.Match(req.LotNumber, req.BuildYear, req.Candidates, detailsByID(req.Details))
	observe(processor.PathAddress, result, start)

	return c.JSON(http.StatusOK, matching.ToRecord(result))
}

// ProcessName returns the structured form of an apartment name
func ProcessName(c echo.Context) error {
	req, err := utils.BindRequest[NameRequest](c)
	if err != nil {
		return err
	}

	_, names, err := ectoinject.GetContext[*aptname.Processor](c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, names.Process(req.Name))
}

// DongCandidates returns the ordered lookup forms of a dong name
func DongCandidates(c echo.Context) error {
	req, err := utils.BindRequest[NameRequest](c)
	if err != nil {
		return err
	}

	_, dongs, err := ectoinject.GetContext[*dongname.Processor](c.Request().Context())
	if err != nil {
		return err
	}

	candidates := dongs.Candidates(req.Name)
	if candidates == nil {
		candidates = []string{}
	}
	return c.JSON(http.StatusOK, DongCandidatesResponse{Name: req.Name, Candidates: candidates})
}

// Rematch re-attributes unmatched transactions, optionally for one region. It answers 503
// when no Rematcher is registered.
func Rematch(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MatchHandler.Rematch")
	defer span.End()

	regionCode := strings.TrimSpace(c.QueryParam("region_code"))

	ctx, rematcher, err := ectoinject.GetContext[Rematcher](ctx)
	if err != nil || rematcher == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "rematch is not available")
	}
	ctx, logger, err := ectoinject.GetContext[ectologger.Logger](ctx)
	if err != nil {
		return err
	}

	stats, err := rematcher.Rematch(ctx, regionCode)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("rematch failed")
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "rematch failed: %s", err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func observe(path string, result matching.Result, start time.Time) {
	rec := matching.ToRecord(result)
	metrics.RecordMatch(path, string(rec.Status), rec.VetoKind, rec.Score, time.Since(start).Seconds())
}

func detailsByID(details []models.DetailRecord) map[int64]models.DetailRecord {
	out := make(map[int64]models.DetailRecord, len(details))
	for _, d := range details {
		out[d.ApartmentID] = d
	}
	return out
}
