package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	finderhttp "github.com/router-for-me/PlacesFinder/internal/http"
	"github.com/router-for-me/PlacesFinder/internal/quota"
	"github.com/router-for-me/PlacesFinder/internal/search"
	"github.com/router-for-me/PlacesFinder/internal/webui"
	log "github.com/sirupsen/logrus"
)

// User-facing messages rendered on the search page.
const (
	MsgMissingInput     = "Please provide both location and business type"
	MsgLocationNotFound = "Location not found"
	MsgUnavailable      = "Service temporarily unavailable"
	MsgTooManyRequests  = "Too many requests, please wait a moment and try again"
)

// Searcher runs a business search.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Business, error)
}

// SearchPage is the index template model.
type SearchPage struct {
	Location     string
	BusinessType string
	Businesses   []search.Business
	Error        string
	Searched     bool
}

// SearchHandler serves the search form and its results.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Form renders the empty search form.
func (h *SearchHandler) Form(c *gin.Context) {
	c.HTML(http.StatusOK, webui.IndexTemplate, SearchPage{})
}

// Submit runs the search from the posted form and renders results or an error message.
func (h *SearchHandler) Submit(c *gin.Context) {
	page := SearchPage{
		Location:     strings.TrimSpace(c.PostForm("location")),
		BusinessType: strings.TrimSpace(c.PostForm("business_type")),
		Searched:     true,
	}

	businesses, errSearch := h.searcher.Search(c.Request.Context(), search.Query{
		Location:     page.Location,
		BusinessType: page.BusinessType,
	})
	if errSearch != nil {
		page.Error = UserMessage(errSearch)
		entry := log.WithError(errSearch).WithField("request_id", c.GetString(finderhttp.RequestIDKey))
		if errors.Is(errSearch, search.ErrMissingInput) {
			entry.Warn("missing form data")
		} else {
			entry.Error("search failed")
		}
	}
	page.Businesses = businesses
	c.HTML(http.StatusOK, webui.IndexTemplate, page)
}

// Throttled renders the form with a rate-limit message.
func (h *SearchHandler) Throttled(c *gin.Context) {
	c.HTML(http.StatusTooManyRequests, webui.IndexTemplate, SearchPage{
		Location:     strings.TrimSpace(c.PostForm("location")),
		BusinessType: strings.TrimSpace(c.PostForm("business_type")),
		Error:        MsgTooManyRequests,
	})
}

// UserMessage maps a search error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, search.ErrMissingInput):
		return MsgMissingInput
	case errors.Is(err, search.ErrLocationNotFound):
		return MsgLocationNotFound
	case errors.Is(err, quota.ErrQuotaExceeded):
		return MsgUnavailable
	default:
		return err.Error()
	}
}
