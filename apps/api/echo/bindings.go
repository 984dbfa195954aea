package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

var (
	orderingParam = "ordering"
	limitParam    = "limit"
)

// Paging binds the `limit` query param. A zero Limit means the caller did not
// ask for one and services fall back to their own default.
type Paging struct {
	Limit int
}

func (p *Paging) Bind(ctx echo.Context) {
	if n, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil && n > 0 {
		p.Limit = n
	}
}

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
