package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

type pageParams struct {
	number int
	size   int
}

func (p pageParams) window() repository.Page {
	return repository.Page{Offset: (p.number - 1) * p.size, Limit: p.size}
}

// parsePage reads ?page= and ?limit=, falling back to sane defaults on bad input.
func parsePage(c *gin.Context) pageParams {
	p := pageParams{number: 1, size: defaultPageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.number = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.size = n
	}
	if p.size > maxPageSize {
		p.size = maxPageSize
	}
	return p
}

// buildPage wraps results in the {count, next, previous, results} envelope.
func buildPage[T any](c *gin.Context, p pageParams, total int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: total, Results: results}
	if int64(p.number*p.size) < total {
		page.Next = pageURL(c, p.number+1)
	}
	if p.number > 1 {
		page.Previous = pageURL(c, p.number-1)
	}
	return page
}

func pageURL(c *gin.Context, number int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	q := c.Request.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: q.Encode()}
	s := u.String()
	return &s
}
