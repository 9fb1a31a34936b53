// internal/server/handlers.go
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	commonerrors "storefront/internal/common/errors"
	"storefront/internal/common/logger"
	"storefront/internal/configurator"
	"storefront/internal/models"
	"storefront/internal/search"
	"storefront/internal/selection"
	"storefront/internal/view"
)

const readyTimeout = 2 * time.Second

type handlers struct {
	deps   Deps
	logger logger.Logger
}

func newHandlers(d Deps) *handlers {
	return &handlers{
		deps:   d,
		logger: d.Logger.WithFields(map[string]interface{}{"component": "handlers"}),
	}
}

// configuratorResponse is the JSON form of the configurator page plus the
// shareable URL for its state.
type configuratorResponse struct {
	view.Page
	URL     string `json:"url"`
	Changed *bool  `json:"changed,omitempty"`
}

// selectRequest is the body of POST /api/configurator/select.
type selectRequest struct {
	ProductID     string               `json:"productId"`
	OptionsByType *selection.Selection `json:"optionsByType"`
	Type          string               `json:"type" binding:"required"`
	OptionID      string               `json:"optionId"`
}

// switchRequest is the body of POST /api/configurator/product.
type switchRequest struct {
	ProductID     string               `json:"productId"`
	OptionsByType *selection.Selection `json:"optionsByType"`
	SwitchTo      string               `json:"switchTo" binding:"required"`
}

func (h *handlers) newController(st selection.State) *configurator.Controller {
	return configurator.New(h.deps.Options, h.deps.Products, h.logger, st)
}

// pageStatus is 200 unless the product failed to load.
func pageStatus(st configurator.State) int {
	if st.ProductFailure == nil {
		return http.StatusOK
	}
	return commonerrors.HTTPStatus(st.ProductFailure.StandardError(st.ProductID).Code)
}

func (h *handlers) pageURL(st configurator.State) string {
	return "/products?" + h.deps.Codec.Query(selection.State{
		ProductID: st.ProductID,
		Selection: st.Selection,
	})
}

func (h *handlers) productPage(c *gin.Context) {
	ctl := h.newController(h.deps.Codec.Decode(c.Request.URL.Query()))
	ctl.Load(c.Request.Context())

	snap := ctl.Snapshot()
	c.HTML(pageStatus(snap), "products.html", h.deps.Composer.Compose(snap))
}

// selectOption handles the selector form post and redirects to the page for
// the new state.
func (h *handlers) selectOption(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		Fail(c, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}
	optionType := strings.TrimSpace(c.PostForm("type"))
	if optionType == "" {
		Fail(c, commonerrors.NewInvalidSelectionError("type is required"))
		return
	}

	st := h.deps.Codec.Decode(c.Request.PostForm)
	st.Selection.Select(optionType, c.PostForm("optionId"))

	c.Redirect(http.StatusSeeOther, "/products?"+h.deps.Codec.Query(st))
}

func (h *handlers) configuratorJSON(c *gin.Context) {
	ctl := h.newController(h.deps.Codec.Decode(c.Request.URL.Query()))
	ctl.Load(c.Request.Context())

	snap := ctl.Snapshot()
	c.JSON(pageStatus(snap), configuratorResponse{
		Page: h.deps.Composer.Compose(snap),
		URL:  h.pageURL(snap),
	})
}

// selectJSON applies one choice to the posted state and loads the result.
func (h *handlers) selectJSON(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, commonerrors.NewInvalidSelectionError(err.Error()))
		return
	}

	st := h.postedState(req.ProductID, req.OptionsByType)
	changed := st.Selection.Select(req.Type, req.OptionID)

	ctl := h.newController(st)
	ctl.Load(c.Request.Context())

	snap := ctl.Snapshot()
	c.JSON(pageStatus(snap), configuratorResponse{
		Page:    h.deps.Composer.Compose(snap),
		URL:     h.pageURL(snap),
		Changed: &changed,
	})
}

// switchProductJSON moves the posted state to another product. The selection
// is carried over unchanged.
func (h *handlers) switchProductJSON(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	st := h.postedState(req.ProductID, req.OptionsByType)
	ctx := c.Request.Context()
	ctl := h.newController(st)
	if req.SwitchTo == st.ProductID {
		ctl.Load(ctx)
	} else {
		ctl.SetProduct(ctx, req.SwitchTo)
	}

	snap := ctl.Snapshot()
	c.JSON(pageStatus(snap), configuratorResponse{
		Page: h.deps.Composer.Compose(snap),
		URL:  h.pageURL(snap),
	})
}

func (h *handlers) postedState(productID string, sel *selection.Selection) selection.State {
	if productID == "" {
		productID = h.deps.Codec.DefaultProductID
	}
	if sel == nil {
		sel = selection.New()
	}
	return selection.State{ProductID: productID, Selection: sel}
}

func (h *handlers) gallery(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	cfg := h.deps.Config.Search
	perPage := cfg.PerPage
	result := &models.SearchResult{}
	var searchErr error

	if h.deps.Search != nil {
		perPage = h.deps.Search.PerPage()
		result, searchErr = h.deps.Search.Search(c.Request.Context(), search.Query{
			Text:    query,
			Page:    page,
			PerPage: perPage,
		})
		if searchErr != nil {
			stdErr := commonerrors.Normalize(upstreamError("gallery", searchErr))
			h.logger.Warn("gallery search failed", map[string]interface{}{
				"request_id": GetRequestID(c),
				"query":      query,
				"page":       page,
				"code":       stdErr.Code,
				"retryable":  stdErr.Retryable,
				"error":      searchErr,
			})
		}
	}

	c.HTML(http.StatusOK, "gallery.html", view.ComposeGallery(query, page, perPage, cfg.PageWindow, result, searchErr))
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.deps.Config.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ready pings every configured backend concurrently.
func (h *handlers) ready(c *gin.Context) {
	results := make([]string, len(h.deps.Checks))

	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, check := range h.deps.Checks {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, readyTimeout)
			defer cancel()
			if err := check.Ping(pctx); err != nil {
				results[i] = err.Error()
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	body := gin.H{"status": "ready"}
	checks := make(map[string]string, len(results))
	for i, check := range h.deps.Checks {
		checks[check.Name] = results[i]
		if results[i] != "ok" {
			status = http.StatusServiceUnavailable
			body["status"] = "not_ready"
		}
	}
	body["checks"] = checks
	body["time"] = time.Now().UTC().Format(time.RFC3339)
	c.JSON(status, body)
}
