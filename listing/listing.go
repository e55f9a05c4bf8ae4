// Package listing filters, sorts and paginates the administration user list.
package listing

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/textnorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	SortName                = "name"
	SortEmail               = "email"
	SortCreatedAt           = "createdAt"
	SortLastLoginAt         = "lastLoginAt"
	SortProfileCompleteness = "profileCompleteness"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

var sortKeys = []string{SortName, SortEmail, SortCreatedAt, SortLastLoginAt, SortProfileCompleteness}

// Query is a parsed user list request. Nil filters are not applied.
type Query struct {
	Page                int
	Limit               int
	SortBy              string
	Order               string
	Search              string
	RequestedPlan       *bool
	OnboardingCompleted *bool
	// RequestedFirst lists users waiting for a plan before the others,
	// keeping the requested order inside each group.
	RequestedFirst bool
}

// Pagination describes the returned page.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ParseQuery reads list parameters. Invalid values fall back to defaults
// instead of failing the request.
func ParseQuery(v url.Values) Query {
	q := Query{
		Page:           1,
		Limit:          DefaultLimit,
		SortBy:         SortCreatedAt,
		Order:          OrderDesc,
		Search:         strings.TrimSpace(v.Get("search")),
		RequestedFirst: true,
	}

	if page, err := strconv.Atoi(v.Get("page")); err == nil && page >= 1 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(v.Get("limit")); err == nil && limit >= 1 {
		q.Limit = min(limit, MaxLimit)
	}
	if sortBy := v.Get("sortBy"); slices.Contains(sortKeys, sortBy) {
		q.SortBy = sortBy
	}
	if order := strings.ToLower(v.Get("order")); order == OrderAsc || order == OrderDesc {
		q.Order = order
	}
	q.RequestedPlan = parseBool(v.Get("requestedPlan"))
	q.OnboardingCompleted = parseBool(v.Get("onboardingCompleted"))
	if b := parseBool(v.Get("requestedFirst")); b != nil {
		q.RequestedFirst = *b
	}
	return q
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// Summarize builds the list row of a user.
func Summarize(u *entities.User) entities.UserSummary {
	return entities.UserSummary{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.DisplayName(),
		IsAdmin:             u.IsAdmin,
		CreatedAt:           u.CreatedAt,
		LastLoginAt:         u.LastLoginAt,
		OnboardingCompleted: u.OnboardingCompleted,
		OnboardingStep:      u.OnboardingStep,
		RequestedPlan:       u.RequestedPlan,
		AssignedPlan:        u.AssignedPlan != "",
		ProfileCompleteness: ai.Completeness(u).Percentage,
	}
}

// Apply filters, sorts and paginates rows. The input slice is not modified.
// A page past the end yields an empty, non-nil slice.
func Apply(rows []entities.UserSummary, q Query) ([]entities.UserSummary, Pagination) {
	filtered := make([]entities.UserSummary, 0, len(rows))
	for _, row := range rows {
		if matches(row, q) {
			filtered = append(filtered, row)
		}
	}

	slices.SortStableFunc(filtered, func(a, b entities.UserSummary) int {
		if q.RequestedFirst && a.RequestedPlan != b.RequestedPlan {
			if a.RequestedPlan {
				return -1
			}
			return 1
		}
		c := compare(a, b, q.SortBy)
		if q.Order == OrderDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	limit := q.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	page := max(q.Page, 1)
	total := len(filtered)
	p := Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}

	// compare before multiplying, page is only bounded by the int range
	if total == 0 || page-1 > (total-1)/limit {
		return []entities.UserSummary{}, p
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	return filtered[start:end], p
}

func matches(row entities.UserSummary, q Query) bool {
	if q.RequestedPlan != nil && row.RequestedPlan != *q.RequestedPlan {
		return false
	}
	if q.OnboardingCompleted != nil && row.OnboardingCompleted != *q.OnboardingCompleted {
		return false
	}
	if q.Search != "" {
		return textnorm.Contains(row.Name, q.Search) || textnorm.Contains(row.Email, q.Search)
	}
	return true
}

// compare orders rows ascending by key. A missing last login sorts before
// any login date.
func compare(a, b entities.UserSummary, key string) int {
	switch key {
	case SortName:
		return cmp.Compare(textnorm.Fold(a.Name), textnorm.Fold(b.Name))
	case SortEmail:
		return cmp.Compare(a.Email, b.Email)
	case SortLastLoginAt:
		return compareTimes(a.LastLoginAt, b.LastLoginAt)
	case SortProfileCompleteness:
		return cmp.Compare(a.ProfileCompleteness, b.ProfileCompleteness)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
