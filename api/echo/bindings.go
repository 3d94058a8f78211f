package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core/listing"
)

// reserved query params; everything else binds as an exact-match filter
var viewParams = map[string]bool{
	"search":    true,
	"sort":      true,
	"dir":       true,
	"page":      true,
	"page_size": true,
}

type viewQuery struct {
	state  listing.ViewState
	wanted bool // any view param was present
}

func (vq *viewQuery) Bind(ctx echo.Context) {
	params := ctx.QueryParams()
	for key := range params {
		if viewParams[key] {
			vq.wanted = true
			break
		}
	}
	if !vq.wanted {
		return
	}

	vq.state.Search = ctx.QueryParam("search")
	vq.state.SortField = ctx.QueryParam("sort")
	if ctx.QueryParam("dir") == string(listing.SortDesc) {
		vq.state.SortDir = listing.SortDesc
	} else {
		vq.state.SortDir = listing.SortAsc
	}
	if page, err := strconv.Atoi(ctx.QueryParam("page")); err == nil {
		vq.state.Page = page
	}
	if size, err := strconv.Atoi(ctx.QueryParam("page_size")); err == nil {
		vq.state.PageSize = size
	}

	filters := make(map[string]string)
	for key, vals := range params {
		if viewParams[key] || len(vals) == 0 || vals[0] == "" {
			continue
		}
		filters[key] = vals[0]
	}
	if len(filters) > 0 {
		vq.state.Filters = filters
	}
}
