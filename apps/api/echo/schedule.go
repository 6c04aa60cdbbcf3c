package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/reminder"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/temporal"
)

type (
	scheduleApi struct {
		svc      *schedule.Service
		resolver *schedule.Resolver
		ledger   *attendance.Ledger
		loc      *time.Location
	}

	NextReminderResponse struct {
		ScheduleID int       `json:"schedule_id"`
		SubjectID  int       `json:"subject_id"`
		FireAt     time.Time `json:"fire_at"`
	}

	CancelClassRequest struct {
		Date string `json:"date"`
		Note string `json:"note"`
	}
)

func registerScheduleAPI(g *echo.Group, deps ServerDeps) {
	api := scheduleApi{
		svc:      deps.ScheduleSvc,
		resolver: deps.Resolver,
		ledger:   deps.Ledger,
		loc:      deps.Conf.Location,
	}

	sg := g.Group("/schedules")
	sg.GET("/today", api.today)
	sg.GET("/week", api.week)
	sg.GET("/day/:day", api.day)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/next-reminder", api.nextReminder)
	sg.POST("/:id/cancel", api.cancel)
}

// Handlers

func (api *scheduleApi) today(ctx echo.Context) error {
	schedules, err := api.resolver.Today(ctx.Request().Context(), now(api.loc))
	if err != nil {
		return errors.Wrap(err, "resolving today's schedule")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *scheduleApi) week(ctx echo.Context) error {
	weekly, err := api.resolver.Weekly(ctx.Request().Context(), now(api.loc))
	if err != nil {
		return errors.Wrap(err, "resolving weekly schedule")
	}
	return ctx.JSON(http.StatusOK, weekly)
}

func (api *scheduleApi) day(ctx echo.Context) error {
	day, err := temporal.ParseDayOfWeek(ctx.Param("day"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "day", Error: err.Error()})
	}
	schedules, err := api.resolver.ForDay(ctx.Request().Context(), day, now(api.loc))
	if err != nil {
		return errors.Wrap(err, "resolving day schedule")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.GetByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "getting schedule")
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) nextReminder(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	cs, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting schedule")
	}
	return ctx.JSON(http.StatusOK, NextReminderResponse{
		ScheduleID: cs.ID,
		SubjectID:  cs.SubjectID,
		FireAt:     reminder.NextFireInstant(cs, now(api.loc)),
	})
}

func (api *scheduleApi) cancel(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	var data CancelClassRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelClassRequest")
	}
	date, err := parseDate("date", data.Date, api.loc)
	if err != nil {
		return err
	}

	cs, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting schedule")
	}
	rec, err := api.ledger.CancelClass(ctx.Request().Context(), cs, date, data.Note)
	if err != nil {
		return errors.Wrap(err, "cancelling class")
	}
	return ctx.JSON(http.StatusCreated, rec)
}
