package pagination

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Params struct {
	Page  int
	Limit int
}

// MaxPage keeps Offset from overflowing at any allowed limit.
const MaxPage = math.MaxInt / MaxLimit

// FromRequest reads ?page= and ?limit=, falling back to page 1 and the
// default limit on missing or invalid values. Page is capped at MaxPage.
func FromRequest(c echo.Context) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		p.Page = min(v, MaxPage)
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}
	return p
}

func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

type Page[T any] struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	Limit   int `json:"limit"`
	Results []T `json:"results"`
}

func New[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Count: total, Page: p.Page, Limit: p.Limit, Results: items}
}
