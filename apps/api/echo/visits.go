package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/core/visit"
	"github.com/edulytics/backend/services/lms"
)

var (
	errLowerLimitRequired = echo.NewHTTPError(http.StatusBadRequest, "Lower limit field required")
	errUpperLimitRequired = echo.NewHTTPError(http.StatusBadRequest, "Upper limit field required")
	errTimeLimitFormat    = echo.NewHTTPError(http.StatusBadRequest, "Error while formating time limits. Expects isoformat.")
	errLimitsInverted     = echo.NewHTTPError(http.StatusBadRequest, "lower limit does not preceed upper limit")
	errVisitsNotAllowed   = echo.NewHTTPError(http.StatusForbidden, "No tiene permisos para ver los datos en los cursos solicitados")
)

type visitApi struct {
	svc   *visit.Service
	roles lms.RoleResolver
	conf  *core.Config
	loc   *time.Location
}

func registerVisitAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *visit.Service,
	roles lms.RoleResolver,
	conf *core.Config,
) {
	loc, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	api := visitApi{
		svc:   svc,
		roles: roles,
		conf:  conf,
		loc:   loc,
	}

	vg := g.Group("/visits", jwt)
	vg.GET("", api.query)
	vg.GET("/course", api.courseSummary)
}

// Handlers

func (api *visitApi) query(ctx echo.Context) error {
	filter := new(visit.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []visit.VisitOnPage{})
	}

	visits, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying visits")
	}
	if visits == nil {
		visits = []visit.VisitOnPage{}
	}
	return ctx.JSON(http.StatusOK, visits)
}

// courseSummary serves per-user per-vertical visit totals of one course over
// an inclusive time window. Time limits come in as naive ISO-8601 and are
// interpreted in the platform timezone, a trailing "Z" notwithstanding.
func (api *visitApi) courseSummary(ctx echo.Context) error {
	search := ctx.QueryParam("search")
	if search == "" {
		return errSearchRequired
	}
	llimit := ctx.QueryParam("llimit")
	if llimit == "" {
		return errLowerLimitRequired
	}
	ulimit := ctx.QueryParam("ulimit")
	if ulimit == "" {
		return errUpperLimitRequired
	}

	w, err := visit.ParseWindow(llimit, ulimit, api.loc)
	if err != nil {
		var tpErr *visit.TimeParseError
		if errors.As(err, &tpErr) {
			return errTimeLimitFormat
		}
		return errors.Wrap(err, "parsing time limits")
	}
	if w.Inverted() {
		return errLimitsInverted
	}

	allowed, err := contextAllowedCourses(ctx, api.roles, api.conf)
	if err != nil {
		return errors.Wrap(err, "resolving allowed courses")
	}
	if !containsString(allowed, search) {
		return errVisitsNotAllowed
	}

	summaries, err := api.svc.SummarizeCourse(search, w)
	if err != nil {
		return errors.Wrap(err, "summarizing visits")
	}
	if len(summaries) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
