package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

var limitParam = "limit"

// Limit binds the `limit` query param; invalid or missing values leave Value at 0.
type Limit struct {
	Value int
}

func (l *Limit) Bind(ctx echo.Context) {
	val := ctx.QueryParam(limitParam)
	if val == "" {
		return
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		l.Value = n
	}
}
