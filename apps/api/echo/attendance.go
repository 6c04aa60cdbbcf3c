package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/stats"
)

type (
	attendanceApi struct {
		ledger *attendance.Ledger
		stats  *stats.Engine
		loc    *time.Location
	}

	// MarkRequest records one attendance entry. An empty date is today.
	MarkRequest struct {
		SubjectID  int      `json:"subject_id"`
		ScheduleID null.Int `json:"schedule_id"`
		Date       string   `json:"date"`
		IsPresent  bool     `json:"is_present"`
		Note       string   `json:"note"`
		Type       string   `json:"type"`
	}

	// HolidayRequest marks a holiday for the given subjects, or for all of them when none is given.
	HolidayRequest struct {
		Date       string `json:"date"`
		Note       string `json:"note"`
		SubjectIDs []int  `json:"subject_ids"`
	}
)

func registerAttendanceAPI(g *echo.Group, deps ServerDeps) {
	api := attendanceApi{
		ledger: deps.Ledger,
		stats:  deps.Stats,
		loc:    deps.Conf.Location,
	}

	ag := g.Group("/attendance")
	ag.GET("", api.onDate)
	ag.POST("", api.mark)
	ag.DELETE("/:date", api.clear)

	hg := g.Group("/holidays")
	hg.POST("", api.markHoliday)
	hg.DELETE("/:date", api.clearHoliday)

	g.GET("/stats", api.overall)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	date, err := parseDate("date", data.Date, api.loc)
	if err != nil {
		return err
	}
	typ, _ := attendance.ParseRecordType(data.Type) // invalid types are rejected by Record

	rec, err := api.ledger.Record(ctx.Request().Context(), attendance.Mark{
		SubjectID:  data.SubjectID,
		ScheduleID: data.ScheduleID,
		Date:       date,
		IsPresent:  data.IsPresent,
		Note:       data.Note,
		Type:       typ,
	})
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) onDate(ctx echo.Context) error {
	date, err := parseDate("date", ctx.QueryParam("date"), api.loc)
	if err != nil {
		return err
	}
	records, err := api.ledger.OnDate(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) clear(ctx echo.Context) error {
	date, err := parseDate("date", ctx.Param("date"), api.loc)
	if err != nil {
		return err
	}
	n, err := api.ledger.ClearAttendanceOnDate(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "clearing attendance")
	}
	return ctx.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (api *attendanceApi) markHoliday(ctx echo.Context) error {
	var data HolidayRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to HolidayRequest")
	}
	date, err := parseDate("date", data.Date, api.loc)
	if err != nil {
		return err
	}

	records, err := api.ledger.MarkHoliday(ctx.Request().Context(), date, data.Note, data.SubjectIDs...)
	if err != nil {
		return errors.Wrap(err, "marking holiday")
	}
	return ctx.JSON(http.StatusCreated, records)
}

func (api *attendanceApi) clearHoliday(ctx echo.Context) error {
	date, err := parseDate("date", ctx.Param("date"), api.loc)
	if err != nil {
		return err
	}
	n, err := api.ledger.ClearHolidayOnDate(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "clearing holiday")
	}
	return ctx.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (api *attendanceApi) overall(ctx echo.Context) error {
	overall, err := api.stats.Overall(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing statistics")
	}
	return ctx.JSON(http.StatusOK, overall)
}
