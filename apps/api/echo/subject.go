package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/stats"
	"github.com/trezcool/bunkmeter/core/subject"
)

type subjectApi struct {
	svc     *subject.Service
	schdSvc *schedule.Service
	ledger  *attendance.Ledger
	stats   *stats.Engine
}

func registerSubjectAPI(g *echo.Group, deps ServerDeps) {
	api := subjectApi{
		svc:     deps.SubjectSvc,
		schdSvc: deps.ScheduleSvc,
		ledger:  deps.Ledger,
		stats:   deps.Stats,
	}

	sg := g.Group("/subjects")
	sg.GET("", api.query)
	sg.POST("", api.create)

	// detail endpoints
	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/schedules", api.querySchedules)
	dg.PUT("/schedules", api.replaceSchedules)
	dg.GET("/history", api.history)
}

// Handlers

func (api *subjectApi) query(ctx echo.Context) error {
	subjects, err := api.stats.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}

	subj, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	swa, err := api.stats.Subject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, swa)
}

func (api *subjectApi) update(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}

	subj, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.GetByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "getting subject")
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subjectApi) querySchedules(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.GetByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "getting subject")
	}
	schedules, err := api.schdSvc.QueryBySubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *subjectApi) replaceSchedules(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	var data []schedule.NewSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []NewSchedule")
	}

	schedules, err := api.schdSvc.ReplaceForSubject(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "replacing schedules")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *subjectApi) history(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	records, err := api.ledger.History(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying history")
	}
	return ctx.JSON(http.StatusOK, records)
}
