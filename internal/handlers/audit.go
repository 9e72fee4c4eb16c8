package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/complaint_desk/internal/es"
	"github.com/Skotchmaster/complaint_desk/internal/events"
	"github.com/Skotchmaster/complaint_desk/internal/util"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

type AuditSearcher interface {
	Search(ctx context.Context, q es.Query) (int64, []events.Event, error)
}

type AuditHandler struct {
	Index AuditSearcher
}

func (h *AuditHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "audit_search")

	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit search is not configured")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	w := util.Paginate(page, size)

	total, items, err := h.Index.Search(ctx, es.Query{
		Text: c.QueryParam("q"),
		Type: c.QueryParam("type"),
		From: w.Offset,
		Size: w.Size,
	})
	if err != nil {
		l.Error("search failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "audit search failed").SetInternal(err)
	}

	return c.JSON(http.StatusOK, Page[events.Event]{
		Items: items,
		Total: total,
		Page:  w.Page,
		Size:  w.Size,
	})
}
