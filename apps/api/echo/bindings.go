package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/temporal"
)

// bindID returns the positive integer `:id` path param; anything else is a 404.
func bindID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD value. An empty value is today in loc.
func parseDate(field, value string, loc *time.Location) (temporal.EpochDay, error) {
	if strings.TrimSpace(value) == "" {
		return temporal.Today(loc), nil
	}
	date, err := temporal.ParseEpochDay(value)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: field, Error: err.Error()})
	}
	return date, nil
}

func now(loc *time.Location) time.Time {
	return temporal.NowFunc().In(loc)
}

type deletedResponse struct {
	Deleted int `json:"deleted"`
}
