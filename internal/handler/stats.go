package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/special-academy-api/internal/activity"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/repository"
)

// AdminHandler serves the dashboard routes: stats and the audit trail.
type AdminHandler struct {
	Store    *repository.Store
	Activity *activity.Logger
	Timeout  time.Duration
	Log      *zap.Logger
}

func NewAdminHandler(store *repository.Store, act *activity.Logger, timeout time.Duration, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Store: store, Activity: act, Timeout: storeTimeout(timeout), Log: log}
}

type statsResp struct {
	Users         int64 `json:"users"`
	Categories    int64 `json:"categories"`
	Subcategories int64 `json:"subcategories"`
	Items         int64 `json:"items"`
}

// Stats counts the four collections concurrently. The route is cached, so
// the numbers may lag by up to the stats TTL.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	var out statsResp
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.Users, err = h.Store.Users.Count(gctx); return })
	g.Go(func() (err error) { out.Categories, err = h.Store.Categories.Count(gctx); return })
	g.Go(func() (err error) { out.Subcategories, err = h.Store.Subcategories.Count(gctx); return })
	g.Go(func() (err error) { out.Items, err = h.Store.Items.Count(gctx); return })
	if err := g.Wait(); err != nil {
		return storeFailed(c, h.Log, "stats", err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListActivityLogs returns the audit trail newest first. Filters: action,
// entity, actor (admin id), limit, offset. The total before paging is sent
// in X-Total-Count.
func (h *AdminHandler) ListActivityLogs(c echo.Context) error {
	f := repository.ActivityFilter{
		AdminID: c.QueryParam("actor"),
		Action:  c.QueryParam("action"),
		Entity:  c.QueryParam("entity"),
		Page:    pageFrom(c),
	}
	errs := map[string]string{}
	if f.Action != "" && !model.ValidAction(f.Action) {
		errs["action"] = "Action must be one of create, update, delete, login, logout"
	}
	if f.Entity != "" && !model.ValidEntity(f.Entity) {
		errs["entity"] = "Entity must be one of user, category, subcategory, item"
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()
	logs, err := h.Store.ActivityLogs.List(ctx, f)
	if err != nil {
		return storeFailed(c, h.Log, "list activity logs", err)
	}
	total, err := h.Store.ActivityLogs.Count(ctx, f)
	if err != nil {
		return storeFailed(c, h.Log, "count activity logs", err)
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, logs)
}

// ActivityMetrics exposes the sink counters.
func (h *AdminHandler) ActivityMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Activity.Stats())
}
