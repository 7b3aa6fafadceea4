// Package view derives the visible page of tasks from the engine's
// collection snapshot. The pipeline is pure: the same snapshot and query
// always produce the same page, and nothing here mutates the collection.
package view

import (
	"sort"
	"strings"
	"time"

	"taskdesk/internal/model"
)

type SortKey string

const (
	SortByCreatedAt SortKey = "created_at"
	SortByDueDate   SortKey = "due_date"
	SortByPriority  SortKey = "priority"
	SortByStatus    SortKey = "status"
	SortByTitle     SortKey = "title"
	SortByPoints    SortKey = "points"
)

// Query holds every filter, sort and paging parameter of the derived view.
// Empty multi-select sets pass all tasks for that dimension.
type Query struct {
	Start *time.Time
	End   *time.Time

	Term string

	ResourceIDs  []uint
	RequesterIDs []uint
	Statuses     []model.Status
	UnitIDs      []uint

	SortKey    SortKey
	Descending bool

	Page     int
	PageSize int
}

type Page struct {
	Items []model.Task
	Total int
	Page  int
}

// Apply filters, sorts and paginates a collection snapshot. Requesting a
// page past the end yields an empty page, never an error.
func Apply(tasks []model.Task, q Query) Page {
	filtered := Filter(tasks, q)
	Sort(filtered, q.SortKey, q.Descending)
	return paginate(filtered, q)
}

// Filter returns the tasks passing every non-empty filter dimension.
func Filter(tasks []model.Task, q Query) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether a single task passes all filter dimensions.
func Matches(t model.Task, q Query) bool {
	return matchesDate(t, q.Start, q.End) &&
		matchesTerm(t, q.Term) &&
		matchesResources(t, q.ResourceIDs) &&
		containsUint(q.RequesterIDs, t.RequesterID) &&
		matchesStatus(t, q.Statuses) &&
		containsUint(q.UnitIDs, t.OperationalUnitID)
}

// matchesDate compares date parts only, in the timestamp's own location.
// A nil start means no lower bound; a nil end means no upper bound.
func matchesDate(t model.Task, start, end *time.Time) bool {
	created := dateOnly(t.CreatedAt)
	if start != nil && created.Before(dateOnly(*start)) {
		return false
	}
	if end != nil && created.After(dateOnly(*end)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// matchesTerm does a case-insensitive substring match against the task's
// search blob: title, requester name and the active resource names.
func matchesTerm(t model.Task, term string) bool {
	if term == "" {
		return true
	}

	var blob strings.Builder
	blob.WriteString(t.Title)
	blob.WriteByte(' ')
	blob.WriteString(t.RequesterName)
	for _, a := range t.Allocations {
		if a.Active() {
			blob.WriteByte(' ')
			blob.WriteString(a.ResourceName)
		}
	}

	return strings.Contains(strings.ToLower(blob.String()), strings.ToLower(term))
}

func matchesResources(t model.Task, selected []uint) bool {
	if len(selected) == 0 {
		return true
	}
	for _, a := range t.Allocations {
		if !a.Active() {
			continue
		}
		for _, id := range selected {
			if a.ResourceID == id {
				return true
			}
		}
	}
	return false
}

func matchesStatus(t model.Task, selected []model.Status) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if t.Status == s {
			return true
		}
	}
	return false
}

func containsUint(selected []uint, value uint) bool {
	if len(selected) == 0 {
		return true
	}
	for _, id := range selected {
		if id == value {
			return true
		}
	}
	return false
}

// Sort orders tasks in place, stably, by the chosen key. Tasks without a
// value for the key sort to the end regardless of direction; ties keep
// their original relative order.
func Sort(tasks []model.Task, key SortKey, descending bool) {
	if key == "" {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j], key, descending)
	})
}

func less(a, b model.Task, key SortKey, descending bool) bool {
	av, aok := sortValue(a, key)
	bv, bok := sortValue(b, key)

	// missing values always sink to the end
	if !aok || !bok {
		return aok && !bok
	}

	switch x := av.(type) {
	case float64:
		y := bv.(float64)
		if x == y {
			return false
		}
		if descending {
			return x > y
		}
		return x < y
	case string:
		y := bv.(string)
		if x == y {
			return false
		}
		if descending {
			return x > y
		}
		return x < y
	}
	return false
}

func sortValue(t model.Task, key SortKey) (interface{}, bool) {
	switch key {
	case SortByCreatedAt:
		return float64(t.CreatedAt.UnixNano()), true
	case SortByDueDate:
		if t.DueDate == nil {
			return nil, false
		}
		return float64(t.DueDate.UnixNano()), true
	case SortByPriority:
		return float64(t.Priority), true
	case SortByStatus:
		return string(t.Status), true
	case SortByTitle:
		return strings.ToLower(t.Title), true
	case SortByPoints:
		if t.Points == nil {
			return nil, false
		}
		return float64(*t.Points), true
	}
	return nil, false
}

func paginate(filtered []model.Task, q Query) Page {
	total := len(filtered)

	if q.PageSize <= 0 {
		return Page{Items: filtered, Total: total, Page: 1}
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	startIdx := (page - 1) * q.PageSize
	if startIdx >= total {
		return Page{Items: []model.Task{}, Total: total, Page: page}
	}

	endIdx := startIdx + q.PageSize
	if endIdx > total {
		endIdx = total
	}
	return Page{Items: filtered[startIdx:endIdx], Total: total, Page: page}
}

// View keeps the current query between recomputations and resets the
// page to 1 whenever the page size or the effective filtered count
// changes, so the user never lands on a page that no longer exists.
type View struct {
	query     Query
	lastTotal int
	hasTotal  bool
}

func NewView(q Query) *View {
	return &View{query: q}
}

func (v *View) Query() Query {
	return v.query
}

func (v *View) SetPage(page int) {
	v.query.Page = page
}

func (v *View) SetPageSize(size int) {
	if size != v.query.PageSize {
		v.query.PageSize = size
		v.query.Page = 1
	}
}

// UpdateFilters modifies the filter parameters and drops back to page 1.
func (v *View) UpdateFilters(update func(*Query)) {
	update(&v.query)
	v.query.Page = 1
}

// Recompute derives the current page from a fresh collection snapshot.
func (v *View) Recompute(tasks []model.Task) Page {
	filtered := Filter(tasks, v.query)
	Sort(filtered, v.query.SortKey, v.query.Descending)

	if v.hasTotal && len(filtered) != v.lastTotal {
		v.query.Page = 1
	}
	v.lastTotal = len(filtered)
	v.hasTotal = true

	return paginate(filtered, v.query)
}
