// Package sync owns the canonical in-memory task collection and mediates
// every read and write against the remote store. Mutations are
// server-confirmed: the local collection only changes once the store has
// acknowledged, and always with the store's returned representation, so a
// failed call leaves the collection exactly as it was.
package sync

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	"github.com/sirupsen/logrus"

	"taskdesk/internal/log"
	"taskdesk/internal/model"
	"taskdesk/internal/store"
	"taskdesk/internal/taskerr"
)

type Engine struct {
	mu       gosync.Mutex
	store    store.RemoteStore
	logger   *logrus.Logger
	tasks    []model.Task
	inflight map[string]struct{}
	closed   bool
}

func NewEngine(remote store.RemoteStore) *Engine {
	return &Engine{
		store:    remote,
		logger:   log.GetLogger(),
		inflight: make(map[string]struct{}),
	}
}

// Close marks the engine as abandoned. Outstanding calls may still
// resolve, but their results are discarded instead of mutating state
// nobody is consuming anymore.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// begin registers an in-flight key so the same logical operation cannot
// be double-submitted while a prior submission is unresolved.
func (e *Engine) begin(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return taskerr.New(taskerr.KindValidation, "engine is closed")
	}
	if _, busy := e.inflight[key]; busy {
		return taskerr.Newf(taskerr.KindValidation, "operation %q is already in flight", key)
	}
	e.inflight[key] = struct{}{}
	return nil
}

func (e *Engine) finish(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key)
}

// apply runs a collection mutation under the lock, skipping it when the
// engine was closed while the remote call was outstanding.
func (e *Engine) apply(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	fn()
}

// Snapshot returns a copy of the current collection. Callers must treat
// the contained tasks as read-only; all mutation goes through the engine.
func (e *Engine) Snapshot() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Get returns the loaded task with the given id.
func (e *Engine) Get(id uint) (model.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (e *Engine) indexOf(id uint) int {
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Load fetches all tasks created within [start, end] and replaces the
// whole collection with the result. It runs on initial population and on
// every date-range change; it is a replacement, not a merge.
func (e *Engine) Load(ctx context.Context, start, end time.Time) error {
	if err := e.begin("load"); err != nil {
		return err
	}
	defer e.finish("load")

	tasks, err := e.store.ListTasks(ctx, start, end)
	if err != nil {
		e.logger.Errorf("Failed to load tasks: %v", err)
		return err
	}

	e.apply(func() {
		e.tasks = tasks
	})
	return nil
}

// Create validates the draft locally, submits it, and prepends the
// server-confirmed task to the front of the collection.
func (e *Engine) Create(ctx context.Context, draft model.Task) (*model.Task, error) {
	if draft.Status == "" {
		draft.Status = model.StatusOpen
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if err := e.begin("create"); err != nil {
		return nil, err
	}
	defer e.finish("create")

	created, err := e.store.CreateTask(ctx, draft)
	if err != nil {
		e.logger.Errorf("Failed to create task: %v", err)
		return nil, err
	}

	e.apply(func() {
		e.tasks = append([]model.Task{*created}, e.tasks...)
	})
	return created, nil
}

// PatchStatus validates the transition locally, sends the status-only
// patch, and on success copies only the changed fields (status, closure
// timestamp, rating) from the server response into the local task.
func (e *Engine) PatchStatus(ctx context.Context, taskID uint, status model.Status, rating *int) error {
	current, ok := e.Get(taskID)
	if !ok {
		return taskerr.Newf(taskerr.KindNotFound, "task %d is not loaded", taskID)
	}

	// dry run to reject invalid transitions before any network traffic
	dry, err := model.ApplyTransition(current, status, time.Now())
	if err != nil {
		return err
	}
	if err := model.CheckRatingChange(dry.Status, rating); err != nil {
		return err
	}

	key := fmt.Sprintf("status:%d", taskID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	updated, err := e.store.PatchStatus(ctx, taskID, status, rating)
	if err != nil {
		e.logger.Errorf("Failed to patch status of task %d: %v", taskID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(taskID); i >= 0 {
			e.tasks[i].Status = updated.Status
			e.tasks[i].ClosedAt = updated.ClosedAt
			e.tasks[i].Rating = updated.Rating
		}
	})
	return nil
}

// Update sends a full field-set update and replaces the local copy with
// the server's returned representation. The server response, not the
// locally edited object, becomes the new truth: server-computed fields
// such as resolved names may differ.
func (e *Engine) Update(ctx context.Context, task model.Task) error {
	if err := model.CheckRatingChange(task.Status, task.Rating); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}

	key := fmt.Sprintf("update:%d", task.ID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	updated, err := e.store.UpdateTask(ctx, task)
	if err != nil {
		e.logger.Errorf("Failed to update task %d: %v", task.ID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(task.ID); i >= 0 {
			e.tasks[i] = *updated
		}
	})
	return nil
}

// Remove requests soft-deletion. A not-found answer means the record is
// already absent, which is the end state we wanted, so it counts as
// success; either way the task leaves the local collection.
func (e *Engine) Remove(ctx context.Context, taskID uint) error {
	key := fmt.Sprintf("remove:%d", taskID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	if err := e.store.DeleteTask(ctx, taskID); err != nil && !taskerr.IsNotFound(err) {
		e.logger.Errorf("Failed to delete task %d: %v", taskID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(taskID); i >= 0 {
			e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
		}
	})
	return nil
}

// SetActiveAllocations replaces the task's active resource set. The store
// reconciles by symmetric difference and returns the full allocation
// history, which becomes the task's local ledger.
func (e *Engine) SetActiveAllocations(ctx context.Context, taskID uint, resourceIDs []uint) error {
	if _, ok := e.Get(taskID); !ok {
		return taskerr.Newf(taskerr.KindNotFound, "task %d is not loaded", taskID)
	}

	key := fmt.Sprintf("allocations:%d", taskID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	history, err := e.store.ReplaceAllocations(ctx, taskID, resourceIDs)
	if err != nil {
		e.logger.Errorf("Failed to replace allocations of task %d: %v", taskID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(taskID); i >= 0 {
			e.tasks[i].Allocations = history
		}
	})
	return nil
}

// RemoveAllocation soft-removes one allocation row for manual audit
// correction, distinct from the bulk replacement above.
func (e *Engine) RemoveAllocation(ctx context.Context, taskID, allocationID uint) error {
	if task, ok := e.Get(taskID); ok {
		found := false
		for _, a := range task.Allocations {
			if a.ID == allocationID {
				found = true
				break
			}
		}
		if !found {
			return taskerr.Newf(taskerr.KindNotFound, "allocation %d does not belong to task %d", allocationID, taskID)
		}
	}

	key := fmt.Sprintf("allocation-remove:%d:%d", taskID, allocationID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	removed, err := e.store.RemoveAllocation(ctx, taskID, allocationID)
	if err != nil {
		e.logger.Errorf("Failed to remove allocation %d of task %d: %v", allocationID, taskID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(taskID); i >= 0 {
			for j := range e.tasks[i].Allocations {
				if e.tasks[i].Allocations[j].ID == removed.ID {
					e.tasks[i].Allocations[j] = *removed
					break
				}
			}
		}
	})
	return nil
}

// History returns the task's full allocation ledger, active and removed
// rows alike, ordered by assigned-at ascending.
func (e *Engine) History(taskID uint) ([]model.Allocation, error) {
	task, ok := e.Get(taskID)
	if !ok {
		return nil, taskerr.Newf(taskerr.KindNotFound, "task %d is not loaded", taskID)
	}

	history := make([]model.Allocation, len(task.Allocations))
	copy(history, task.Allocations)
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].AssignedAt.Equal(history[j].AssignedAt) {
			return history[i].ID < history[j].ID
		}
		return history[i].AssignedAt.Before(history[j].AssignedAt)
	})
	return history, nil
}

// LinkToParent sets the child's parent reference. A child that already
// has a parent is rejected; the caller must unlink first. Cycles are not
// detected here; this method is the single choke point where a guard
// would go.
func (e *Engine) LinkToParent(ctx context.Context, childID, parentID uint) error {
	if child, ok := e.Get(childID); ok && child.ParentID != nil {
		return taskerr.Newf(taskerr.KindAlreadyLinked, "task %d is already linked to parent %d", childID, *child.ParentID)
	}

	key := fmt.Sprintf("link:%d", childID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	updated, err := e.store.SetParent(ctx, childID, parentID)
	if err != nil {
		e.logger.Errorf("Failed to link task %d to parent %d: %v", childID, parentID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(childID); i >= 0 {
			e.tasks[i] = *updated
		}
	})
	return nil
}

// Unlink clears the child's parent reference.
func (e *Engine) Unlink(ctx context.Context, childID uint) error {
	key := fmt.Sprintf("link:%d", childID)
	if err := e.begin(key); err != nil {
		return err
	}
	defer e.finish(key)

	updated, err := e.store.ClearParent(ctx, childID)
	if err != nil {
		e.logger.Errorf("Failed to unlink task %d: %v", childID, err)
		return err
	}

	e.apply(func() {
		if i := e.indexOf(childID); i >= 0 {
			e.tasks[i] = *updated
		}
	})
	return nil
}

// CountChildren counts loaded tasks referencing the given parent. The
// count only covers the currently loaded date range, so it is a lower
// bound, not an exact aggregate.
func (e *Engine) CountChildren(parentID uint) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, t := range e.tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			count++
		}
	}
	return count
}

// FindLinkCandidates searches the remote store for tasks eligible to
// become a parent. Excluding the task being edited is the caller's job,
// via the filters it passes.
func (e *Engine) FindLinkCandidates(ctx context.Context, term string, resourceIDs []uint) ([]model.Task, error) {
	tasks, err := e.store.SearchTasks(ctx, term, resourceIDs)
	if err != nil {
		e.logger.Errorf("Failed to search link candidates: %v", err)
		return nil, err
	}
	return tasks, nil
}

// FindResources searches the resource directory, feeding the allocation
// picker.
func (e *Engine) FindResources(ctx context.Context, name string) ([]model.Resource, error) {
	resources, err := e.store.SearchResources(ctx, name)
	if err != nil {
		e.logger.Errorf("Failed to search resources: %v", err)
		return nil, err
	}
	return resources, nil
}

// Flags fetches the flag catalog.
func (e *Engine) Flags(ctx context.Context) ([]model.Flag, error) {
	flags, err := e.store.ListFlags(ctx)
	if err != nil {
		e.logger.Errorf("Failed to list flags: %v", err)
		return nil, err
	}
	return flags, nil
}

// AppendComment appends to the task's timeline and merges the returned
// comment into the local sequence without re-fetching the task.
func (e *Engine) AppendComment(ctx context.Context, actor model.Actor, taskID uint, body string) (*model.Comment, error) {
	if actor.ID == 0 {
		return nil, taskerr.New(taskerr.KindValidation, "acting user is required for comment authorship")
	}
	if body == "" {
		return nil, taskerr.New(taskerr.KindValidation, "comment body must not be empty")
	}

	key := fmt.Sprintf("comment:%d", taskID)
	if err := e.begin(key); err != nil {
		return nil, err
	}
	defer e.finish(key)

	comment, err := e.store.AppendComment(ctx, taskID, actor, body)
	if err != nil {
		e.logger.Errorf("Failed to append comment to task %d: %v", taskID, err)
		return nil, err
	}

	e.apply(func() {
		if i := e.indexOf(taskID); i >= 0 {
			e.tasks[i].Comments = append(e.tasks[i].Comments, *comment)
		}
	})
	return comment, nil
}
