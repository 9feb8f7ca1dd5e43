package listquery

import (
	"fmt"
	"strings"
)

// Where collects AND-ed conditions with positional pgx arguments.
type Where struct {
	clauses []string
	Args    []any
}

func (w *Where) Eq(column string, value any) {
	w.Args = append(w.Args, value)
	w.clauses = append(w.clauses, fmt.Sprintf("%s = $%d", column, len(w.Args)))
}

// Search matches term case-insensitively against any of columns.
func (w *Where) Search(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}
	w.Args = append(w.Args, "%"+term+"%")
	n := len(w.Args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Paginate appends LIMIT/OFFSET placeholders and returns the clause and the
// full argument list.
func (w *Where) Paginate(q Query) (string, []any) {
	args := append(append([]any(nil), w.Args...), q.Limit(), q.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// Page is one page of a list response.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	Query      map[string]string `json:"query"`
}

func NewPage[T any](items []T, q Query, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if q.PageSize > 0 {
		pages = (total + q.PageSize - 1) / q.PageSize
	}
	query := make(map[string]string)
	for k, v := range q.Values() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return Page[T]{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: pages,
		Query:      query,
	}
}
