// Package listquery keeps list filtering, sorting and pagination in the URL
// query string. Handlers parse it against a per-resource Spec, repositories
// turn it into SQL, and responses echo the canonical form back.
package listquery

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid list query")

const (
	ParamSearch   = "q"
	ParamSort     = "sort"
	ParamPage     = "page"
	ParamPageSize = "pageSize"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Spec describes what a list endpoint accepts.
type Spec struct {
	Filters         []string
	Sorts           map[string]string // sort key -> SQL column
	DefaultSort     string            // e.g. "-createdAt"
	DefaultPageSize int
	MaxPageSize     int
}

type SortField struct {
	Key  string
	Desc bool
}

type Query struct {
	Search   string
	Filters  map[string]string
	Sort     []SortField
	Page     int
	PageSize int
}

func Parse(v url.Values, spec Spec) (Query, error) {
	q := Query{
		Search:   strings.TrimSpace(v.Get(ParamSearch)),
		Filters:  make(map[string]string),
		Page:     1,
		PageSize: spec.pageSize(),
	}

	for _, key := range spec.Filters {
		if val := strings.TrimSpace(v.Get(key)); val != "" {
			q.Filters[key] = val
		}
	}

	rawSort := v.Get(ParamSort)
	if rawSort == "" {
		rawSort = spec.DefaultSort
	}
	sortFields, err := parseSort(rawSort, spec)
	if err != nil {
		return Query{}, err
	}
	q.Sort = sortFields

	if raw := v.Get(ParamPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Query{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalid)
		}
		q.Page = page
	}

	if raw := v.Get(ParamPageSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return Query{}, fmt.Errorf("%w: pageSize must be a positive integer", ErrInvalid)
		}
		q.PageSize = min(size, spec.maxPageSize())
	}

	// the offset has to fit a 32-bit integer
	if q.Page-1 > math.MaxInt32/q.PageSize {
		return Query{}, fmt.Errorf("%w: page out of range", ErrInvalid)
	}

	return q, nil
}

func parseSort(raw string, spec Spec) ([]SortField, error) {
	var out []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := SortField{Key: part}
		if strings.HasPrefix(part, "-") {
			f = SortField{Key: part[1:], Desc: true}
		}
		if _, ok := spec.Sorts[f.Key]; !ok {
			return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalid, f.Key)
		}
		out = append(out, f)
	}
	return out, nil
}

// Values renders the query back into its canonical URL form.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set(ParamSearch, q.Search)
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set(k, q.Filters[k])
	}
	if len(q.Sort) > 0 {
		parts := make([]string, 0, len(q.Sort))
		for _, f := range q.Sort {
			if f.Desc {
				parts = append(parts, "-"+f.Key)
			} else {
				parts = append(parts, f.Key)
			}
		}
		v.Set(ParamSort, strings.Join(parts, ","))
	}
	v.Set(ParamPage, strconv.Itoa(q.Page))
	v.Set(ParamPageSize, strconv.Itoa(q.PageSize))
	return v
}

func (q Query) Limit() int { return q.PageSize }

func (q Query) Offset() int { return (q.Page - 1) * q.PageSize }

// OrderBy builds an ORDER BY clause from whitelisted columns. tieBreaker is
// appended so paging is stable.
func (q Query) OrderBy(spec Spec, tieBreaker string) string {
	parts := make([]string, 0, len(q.Sort)+1)
	for _, f := range q.Sort {
		col, ok := spec.Sorts[f.Key]
		if !ok {
			continue
		}
		if f.Desc {
			col += " DESC"
		}
		parts = append(parts, col)
	}
	if tieBreaker != "" {
		parts = append(parts, tieBreaker)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (s Spec) pageSize() int {
	if s.DefaultPageSize > 0 {
		return min(s.DefaultPageSize, s.maxPageSize())
	}
	return min(defaultPageSize, s.maxPageSize())
}

func (s Spec) maxPageSize() int {
	if s.MaxPageSize > 0 {
		return s.MaxPageSize
	}
	return maxPageSize
}
