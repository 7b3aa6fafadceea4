package view_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskdesk/internal/model"
	"taskdesk/internal/view"
)

func fixtureTasks() []model.Task {
	statuses := []model.Status{
		model.StatusWaiting, model.StatusOpen, model.StatusInProgress,
		model.StatusOverdue, model.StatusCancelled, model.StatusFinished,
	}
	requesters := []struct {
		id   uint
		name string
	}{
		{1, "Ana Petrova"}, {2, "Boris Kolev"}, {3, "Carla Mendes"},
	}
	resources := []struct {
		id   uint
		name string
	}{
		{1, "Ivan Ivanov"}, {2, "Maria Lopez"}, {3, "Chen Wei"},
	}

	base := time.Date(2025, 9, 25, 10, 0, 0, 0, time.UTC)

	tasks := make([]model.Task, 0, 50)
	for i := 0; i < 50; i++ {
		req := requesters[i%len(requesters)]
		title := fmt.Sprintf("Task %02d maintenance", i)
		if i%5 == 0 {
			title = fmt.Sprintf("Task %02d login outage", i)
		}

		task := model.Task{
			ID:                uint(i + 1),
			BusinessUnitID:    uint(i%2 + 1),
			OperationalUnitID: uint(i%4 + 1),
			Priority:          model.Priority(i%4 + 1),
			Title:             title,
			Status:            statuses[i%len(statuses)],
			RequesterID:       req.id,
			RequesterName:     req.name,
			CreatedAt:         base.AddDate(0, 0, i%20),
		}
		if i%3 == 0 {
			due := base.AddDate(0, 0, 30+i)
			task.DueDate = &due
		}
		res := resources[i%len(resources)]
		task.Allocations = []model.Allocation{
			{ID: uint(1000 + i), TaskID: task.ID, ResourceID: res.id, ResourceName: res.name, AssignedAt: base},
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestApply_DateTextStatusIntersection(t *testing.T) {
	// Arrange
	tasks := fixtureTasks()
	q := view.Query{
		Start:    datePtr(2025, 10, 1),
		End:      datePtr(2025, 10, 10),
		Term:     "login",
		Statuses: []model.Status{model.StatusInProgress, model.StatusOverdue},
	}

	// manually computed intersection over the fixture
	var expected []uint
	for _, task := range tasks {
		created := task.CreatedAt
		inRange := !created.Before(*q.Start) && created.Before(q.End.AddDate(0, 0, 1))
		hasTerm := strings.Contains(strings.ToLower(task.Title), "login")
		statusOK := task.Status == model.StatusInProgress || task.Status == model.StatusOverdue
		if inRange && hasTerm && statusOK {
			expected = append(expected, task.ID)
		}
	}

	// Act
	page := view.Apply(tasks, q)

	// Assert: result equals the intersection, and total reflects the
	// filtered count, not the fixture size
	var got []uint
	for _, task := range page.Items {
		got = append(got, task.ID)
	}
	assert.ElementsMatch(t, expected, got)
	assert.Equal(t, len(expected), page.Total)
	assert.NotEqual(t, 50, page.Total)
}

func TestApply_FilterComposition(t *testing.T) {
	// Property: a task is in the result iff it independently passes every
	// non-empty dimension, for random dimension combinations
	tasks := fixtureTasks()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		q := view.Query{}
		if rng.Intn(2) == 0 {
			q.Start = datePtr(2025, 9, 25+rng.Intn(10))
		}
		if rng.Intn(2) == 0 {
			q.End = datePtr(2025, 10, 1+rng.Intn(14))
		}
		if rng.Intn(3) == 0 {
			q.Term = []string{"login", "maintenance", "petrova", "zzz-nothing"}[rng.Intn(4)]
		}
		if rng.Intn(2) == 0 {
			q.ResourceIDs = []uint{uint(rng.Intn(3) + 1)}
		}
		if rng.Intn(2) == 0 {
			q.RequesterIDs = []uint{uint(rng.Intn(3) + 1)}
		}
		if rng.Intn(2) == 0 {
			q.Statuses = []model.Status{model.StatusOpen, model.StatusFinished}[:rng.Intn(2)+1]
		}
		if rng.Intn(2) == 0 {
			q.UnitIDs = []uint{uint(rng.Intn(4) + 1)}
		}

		result := view.Filter(tasks, q)

		inResult := make(map[uint]bool, len(result))
		for _, task := range result {
			inResult[task.ID] = true
		}
		for _, task := range tasks {
			assert.Equal(t, view.Matches(task, q), inResult[task.ID],
				"trial %d task %d", trial, task.ID)
		}
	}
}

func TestSort_StableWithTies(t *testing.T) {
	// Arrange: many tasks share a priority, so order within a priority
	// class must match the original order
	tasks := fixtureTasks()

	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	view.Sort(sorted, view.SortByPriority, false)

	// Assert: ties preserve original relative order
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Priority == sorted[i].Priority {
			assert.Less(t, sorted[i-1].ID, sorted[i].ID)
		}
	}

	// sorting twice yields the same order
	again := make([]model.Task, len(tasks))
	copy(again, tasks)
	view.Sort(again, view.SortByPriority, false)
	assert.Equal(t, sorted, again)
}

func TestSort_NilValuesLastBothDirections(t *testing.T) {
	tasks := fixtureTasks()

	for _, descending := range []bool{false, true} {
		sorted := make([]model.Task, len(tasks))
		copy(sorted, tasks)
		view.Sort(sorted, view.SortByDueDate, descending)

		seenNil := false
		for _, task := range sorted {
			if task.DueDate == nil {
				seenNil = true
			} else {
				assert.False(t, seenNil, "task with due date after a task without one (descending=%v)", descending)
			}
		}
	}
}

func TestApply_PaginationBounds(t *testing.T) {
	tasks := fixtureTasks()

	// page 1 is items[0:pageSize]
	first := view.Apply(tasks, view.Query{Page: 1, PageSize: 20})
	assert.Len(t, first.Items, 20)
	assert.Equal(t, 50, first.Total)

	// last partial page
	last := view.Apply(tasks, view.Query{Page: 3, PageSize: 20})
	assert.Len(t, last.Items, 10)

	// beyond the last page: empty page, not an error
	beyond := view.Apply(tasks, view.Query{Page: 9, PageSize: 20})
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 50, beyond.Total)
}

func TestView_PageResetsWhenFilteredCountChanges(t *testing.T) {
	// Arrange
	tasks := fixtureTasks()
	v := view.NewView(view.Query{Page: 1, PageSize: 10})

	v.Recompute(tasks)
	v.SetPage(3)
	page := v.Recompute(tasks)
	assert.Equal(t, 3, page.Page)

	// Act: a filter change shrinks the result set
	v.UpdateFilters(func(q *view.Query) {
		q.Term = "login"
	})
	page = v.Recompute(tasks)

	// Assert
	assert.Equal(t, 1, page.Page)
}

func TestView_PageResetsOnPageSizeChange(t *testing.T) {
	tasks := fixtureTasks()
	v := view.NewView(view.Query{Page: 1, PageSize: 10})

	v.Recompute(tasks)
	v.SetPage(4)
	assert.Equal(t, 4, v.Recompute(tasks).Page)

	v.SetPageSize(25)
	assert.Equal(t, 1, v.Recompute(tasks).Page)
}
