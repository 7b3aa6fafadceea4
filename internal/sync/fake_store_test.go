package sync_test

import (
	"context"
	gosync "sync"
	"time"

	"taskdesk/internal/model"
	"taskdesk/internal/taskerr"
)

// fakeStore implements store.RemoteStore with in-memory state and real
// server-side semantics, so engine tests exercise the same contract the
// HTTP store provides. Setting failWith makes every call fail; a non-nil
// gate makes calls block until the gate is closed.
type fakeStore struct {
	mu          gosync.Mutex
	tasks       map[uint]*model.Task
	nextTaskID  uint
	nextAllocID uint
	nextComment uint
	resources   map[uint]string
	failWith    error
	gate        chan struct{}
	entered     chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: make(map[uint]*model.Task),
		resources: map[uint]string{
			1: "Ivan Ivanov",
			2: "Maria Lopez",
			3: "Chen Wei",
		},
	}
}

func (f *fakeStore) checkpoint() error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWith
}

func (f *fakeStore) seed(t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := t
	f.tasks[t.ID] = &cp
	if t.ID > f.nextTaskID {
		f.nextTaskID = t.ID
	}
}

func (f *fakeStore) ListTasks(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTaskID++
	task.ID = f.nextTaskID
	task.CreatedAt = time.Now()
	f.tasks[task.ID] = &task
	cp := task
	return &cp, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.tasks[task.ID]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	task.CreatedAt = existing.CreatedAt
	task.Allocations = existing.Allocations
	task.Comments = existing.Comments
	f.tasks[task.ID] = &task
	cp := task
	return &cp, nil
}

func (f *fakeStore) PatchStatus(ctx context.Context, id uint, status model.Status, rating *int) (*model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	updated, err := model.ApplyTransition(*t, status, time.Now())
	if err != nil {
		return nil, err
	}
	if rating != nil {
		if err := model.CheckRatingChange(updated.Status, rating); err != nil {
			return nil, err
		}
		updated.Rating = rating
	}
	f.tasks[id] = &updated
	cp := updated
	return &cp, nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id uint) error {
	if err := f.checkpoint(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return taskerr.New(taskerr.KindNotFound, "task not found")
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) SetParent(ctx context.Context, childID, parentID uint) (*model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	child, ok := f.tasks[childID]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	if child.ParentID != nil {
		return nil, taskerr.New(taskerr.KindAlreadyLinked, "task is already linked to a parent")
	}
	if _, ok := f.tasks[parentID]; !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "parent task not found")
	}
	pid := parentID
	child.ParentID = &pid
	cp := *child
	return &cp, nil
}

func (f *fakeStore) ClearParent(ctx context.Context, childID uint) (*model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	child, ok := f.tasks[childID]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	child.ParentID = nil
	cp := *child
	return &cp, nil
}

func (f *fakeStore) ReplaceAllocations(ctx context.Context, taskID uint, resourceIDs []uint) ([]model.Allocation, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}

	desired := make(map[uint]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		desired[id] = true
	}
	now := time.Now()

	active := make(map[uint]bool)
	for i := range t.Allocations {
		a := &t.Allocations[i]
		if a.RemovedAt != nil {
			continue
		}
		active[a.ResourceID] = true
		if !desired[a.ResourceID] {
			removed := now
			a.RemovedAt = &removed
		}
	}
	for _, id := range resourceIDs {
		if !active[id] {
			f.nextAllocID++
			t.Allocations = append(t.Allocations, model.Allocation{
				ID:           f.nextAllocID,
				TaskID:       taskID,
				ResourceID:   id,
				ResourceName: f.resources[id],
				AssignedAt:   now,
			})
		}
	}

	out := make([]model.Allocation, len(t.Allocations))
	copy(out, t.Allocations)
	return out, nil
}

func (f *fakeStore) RemoveAllocation(ctx context.Context, taskID, allocationID uint) (*model.Allocation, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	for i := range t.Allocations {
		if t.Allocations[i].ID == allocationID {
			if t.Allocations[i].RemovedAt == nil {
				now := time.Now()
				t.Allocations[i].RemovedAt = &now
			}
			cp := t.Allocations[i]
			return &cp, nil
		}
	}
	return nil, taskerr.New(taskerr.KindNotFound, "allocation not found")
}

func (f *fakeStore) AppendComment(ctx context.Context, taskID uint, actor model.Actor, body string) (*model.Comment, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, taskerr.New(taskerr.KindNotFound, "task not found")
	}
	f.nextComment++
	comment := model.Comment{
		ID:         f.nextComment,
		TaskID:     taskID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	t.Comments = append(t.Comments, comment)
	return &comment, nil
}

func (f *fakeStore) SearchTasks(ctx context.Context, term string, resourceIDs []uint) ([]model.Task, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeStore) SearchResources(ctx context.Context, name string) ([]model.Resource, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeStore) ListFlags(ctx context.Context) ([]model.Flag, error) {
	if err := f.checkpoint(); err != nil {
		return nil, err
	}
	return nil, nil
}
