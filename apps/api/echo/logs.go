package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core/eventlog"
)

type logApi struct {
	svc *eventlog.Service
}

func registerLogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *eventlog.Service) {
	api := logApi{svc: svc}

	lg := g.Group("/logs", jwt)
	lg.GET("", api.query)
	lg.GET("/:id", api.retrieve)
}

// Handlers

func (api *logApi) query(ctx echo.Context) error {
	filter := new(eventlog.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []eventlog.Log{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	logs, err := api.svc.Filter(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying logs")
	}
	if logs == nil {
		logs = []eventlog.Log{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *logApi) retrieve(ctx echo.Context) error {
	l, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == eventlog.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting log")
	}
	return ctx.JSON(http.StatusOK, l)
}
