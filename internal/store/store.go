package store

import (
	"context"
	"time"

	"taskdesk/internal/model"
)

// RemoteStore is the sync engine's contract with the durable task store.
// Every write returns the authoritative representation of the affected
// entity except DeleteTask, which returns empty success or not-found.
type RemoteStore interface {
	ListTasks(ctx context.Context, start, end time.Time) ([]model.Task, error)
	GetTask(ctx context.Context, id uint) (*model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (*model.Task, error)
	PatchStatus(ctx context.Context, id uint, status model.Status, rating *int) (*model.Task, error)
	DeleteTask(ctx context.Context, id uint) error

	SetParent(ctx context.Context, childID, parentID uint) (*model.Task, error)
	ClearParent(ctx context.Context, childID uint) (*model.Task, error)

	ReplaceAllocations(ctx context.Context, taskID uint, resourceIDs []uint) ([]model.Allocation, error)
	RemoveAllocation(ctx context.Context, taskID, allocationID uint) (*model.Allocation, error)

	AppendComment(ctx context.Context, taskID uint, actor model.Actor, body string) (*model.Comment, error)

	SearchTasks(ctx context.Context, term string, resourceIDs []uint) ([]model.Task, error)
	SearchResources(ctx context.Context, name string) ([]model.Resource, error)
	ListFlags(ctx context.Context) ([]model.Flag, error)
}
