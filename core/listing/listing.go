// Package listing implements the in-memory table pipeline shared by every
// list-backed entity: filter -> search -> sort -> paginate.
package listing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultPageSize = 10

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type (
	// Row is a generic record of typed fields.
	Row map[string]interface{}

	// Column declares a row field; Searchable columns take part in
	// free-text search.
	Column struct {
		Field      string
		Searchable bool
	}

	// ViewState carries the full table state explicitly; callers re-run
	// Apply with a fresh ViewState on every filter/sort/page event.
	ViewState struct {
		// Filters are exact-match (case-insensitive), except keys of the
		// form `<field>_start` / `<field>_end` which filter `<field>` as a
		// date range when the field name implies a date.
		Filters   map[string]string
		Search    string
		SortField string
		SortDir   SortDirection
		Page      int // 1-based
		PageSize  int
	}

	Result struct {
		Rows          []Row `json:"rows"`
		Page          int   `json:"page"`
		TotalPages    int   `json:"total_pages"`
		TotalMatching int   `json:"total_matching"`
	}
)

// Apply runs the pipeline over rows. The input slice and its rows are never
// mutated; identical inputs produce identical results.
func Apply(rows []Row, columns []Column, state ViewState) Result {
	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matchesFilters(row, state.Filters) && matchesSearch(row, columns, state.Search) {
			matched = append(matched, row)
		}
	}

	if state.SortField != "" {
		sortRows(matched, state.SortField, state.SortDir)
	}

	pageSize := state.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalMatching := len(matched)
	totalPages := (totalMatching + pageSize - 1) / pageSize

	if totalPages == 0 {
		return Result{Rows: []Row{}, Page: 0, TotalPages: 0, TotalMatching: 0}
	}

	// clamp so a filter change never lands on an empty page
	page := state.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > totalMatching {
		end = totalMatching
	}
	return Result{
		Rows:          matched[start:end],
		Page:          page,
		TotalPages:    totalPages,
		TotalMatching: totalMatching,
	}
}

func matchesFilters(row Row, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		if base, ok := rangeBase(key, "_start"); ok && isDateField(base) {
			if !matchesDateRange(row, base, want, false) {
				return false
			}
			continue
		}
		if base, ok := rangeBase(key, "_end"); ok && isDateField(base) {
			if !matchesDateRange(row, base, want, true) {
				return false
			}
			continue
		}
		val, ok := row[key]
		if !ok || val == nil {
			continue // filter only applies to rows carrying the field
		}
		if !strings.EqualFold(stringify(val), want) {
			return false
		}
	}
	return true
}

func matchesDateRange(row Row, field, want string, upper bool) bool {
	val, ok := row[field]
	if !ok || val == nil {
		return true
	}
	rowDate, ok := parseDate(val)
	if !ok {
		return true
	}
	wantDate, ok := parseDate(want)
	if !ok {
		return true
	}
	if upper {
		return !rowDate.After(wantDate)
	}
	return !rowDate.Before(wantDate)
}

func matchesSearch(row Row, columns []Column, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, col := range columns {
		if !col.Searchable {
			continue
		}
		val, ok := row[col.Field]
		if !ok || val == nil {
			continue
		}
		if strings.Contains(strings.ToLower(stringify(val)), term) {
			return true
		}
	}
	return false
}

func sortRows(rows []Row, field string, dir SortDirection) {
	coll := collate.New(language.English, collate.Loose)
	desc := dir == SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compareValues(coll, rows[i][field], rows[j][field])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareValues orders strings with locale-aware collation and numbers
// numerically; mixed or unsupported types compare equal so the stable sort
// keeps their original relative order.
func compareValues(coll *collate.Collator, a, b interface{}) int {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return coll.CompareString(sa, sb)
		}
		return 0
	}
	na, aok := toNumber(a)
	nb, bok := toNumber(b)
	if aok && bok {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return 0
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	return 0, false
}

func rangeBase(key, suffix string) (string, bool) {
	if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
		return strings.TrimSuffix(key, suffix), true
	}
	return "", false
}

func isDateField(field string) bool {
	return field == "date" || strings.Contains(field, "date")
}

var dateFormats = []string{"2006-01-02", time.RFC3339}

func parseDate(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format("2006-01-02")
	case []string:
		return strings.Join(s, ", ")
	}
	return fmt.Sprint(v)
}
