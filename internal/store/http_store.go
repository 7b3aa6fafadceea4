package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"taskdesk/internal/model"
	"taskdesk/internal/taskerr"
)

// HTTPStore talks to the remote task store over its REST surface and maps
// transport and status failures onto the taskerr taxonomy.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStore(baseURL, token string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return taskerr.Wrap(taskerr.KindValidation, err, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return taskerr.Wrap(taskerr.KindValidation, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return taskerr.Wrap(taskerr.KindNetworkFailure, errors.WithStack(err), "remote store unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return taskerr.Wrap(taskerr.KindNetworkFailure, errors.WithStack(err), "failed to read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return taskerr.New(taskerr.KindNotFound, remoteMessage(data, "record not found"))
	case resp.StatusCode == http.StatusConflict:
		return taskerr.New(taskerr.KindAlreadyLinked, remoteMessage(data, "task is already linked to a parent"))
	case resp.StatusCode >= 300:
		// the store's message is surfaced verbatim to the user
		return taskerr.New(taskerr.KindRemoteRejected,
			remoteMessage(data, fmt.Sprintf("remote store returned status %d", resp.StatusCode)))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return taskerr.Wrap(taskerr.KindRemoteRejected, err, "malformed response from remote store")
		}
	}
	return nil
}

// remoteMessage pulls the error field out of a JSON error body, falling
// back to a generic category label when the body carries none.
func remoteMessage(data []byte, fallback string) string {
	if msg := gjson.GetBytes(data, "error"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return fallback
}

func (s *HTTPStore) ListTasks(ctx context.Context, start, end time.Time) ([]model.Task, error) {
	params := url.Values{}
	if !start.IsZero() {
		params.Set("start", start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		params.Set("end", end.Format("2006-01-02"))
	}

	path := "/tasks"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var tasks []model.Task
	if err := s.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *HTTPStore) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *HTTPStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	payload := map[string]interface{}{
		"title":               task.Title,
		"business_unit_id":    task.BusinessUnitID,
		"operational_unit_id": task.OperationalUnitID,
		"priority":            int(task.Priority),
		"due_date":            task.DueDate,
		"points":              task.Points,
	}

	var created model.Task
	if err := s.do(ctx, http.MethodPost, "/tasks", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *HTTPStore) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	var flagIDs []uint
	for _, f := range task.Flags {
		flagIDs = append(flagIDs, f.ID)
	}
	payload := map[string]interface{}{
		"title":               task.Title,
		"business_unit_id":    task.BusinessUnitID,
		"operational_unit_id": task.OperationalUnitID,
		"priority":            int(task.Priority),
		"status":              string(task.Status),
		"due_date":            task.DueDate,
		"points":              task.Points,
		"rating":              task.Rating,
		"flag_ids":            flagIDs,
	}

	var updated model.Task
	if err := s.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", task.ID), payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *HTTPStore) PatchStatus(ctx context.Context, id uint, status model.Status, rating *int) (*model.Task, error) {
	payload := map[string]interface{}{"status": string(status)}
	if rating != nil {
		payload["rating"] = *rating
	}

	var updated model.Task
	if err := s.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/status", id), payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *HTTPStore) DeleteTask(ctx context.Context, id uint) error {
	return s.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

func (s *HTTPStore) SetParent(ctx context.Context, childID, parentID uint) (*model.Task, error) {
	var updated model.Task
	err := s.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/parent", childID),
		map[string]interface{}{"parent_id": parentID}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *HTTPStore) ClearParent(ctx context.Context, childID uint) (*model.Task, error) {
	var updated model.Task
	if err := s.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d/parent", childID), nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *HTTPStore) ReplaceAllocations(ctx context.Context, taskID uint, resourceIDs []uint) ([]model.Allocation, error) {
	ids := resourceIDs
	if ids == nil {
		ids = []uint{}
	}

	var history []model.Allocation
	err := s.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d/allocations", taskID),
		map[string]interface{}{"resource_ids": ids}, &history)
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (s *HTTPStore) RemoveAllocation(ctx context.Context, taskID, allocationID uint) (*model.Allocation, error) {
	var removed model.Allocation
	err := s.do(ctx, http.MethodDelete,
		fmt.Sprintf("/tasks/%d/allocations/%d", taskID, allocationID), nil, &removed)
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

func (s *HTTPStore) AppendComment(ctx context.Context, taskID uint, actor model.Actor, body string) (*model.Comment, error) {
	// authorship travels in the session token; the payload carries only
	// the body
	_ = actor

	var comment model.Comment
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/comments", taskID),
		map[string]interface{}{"body": body}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *HTTPStore) SearchTasks(ctx context.Context, term string, resourceIDs []uint) ([]model.Task, error) {
	params := url.Values{}
	if term != "" {
		params.Set("term", term)
	}
	for _, id := range resourceIDs {
		params.Add("resource_ids", fmt.Sprintf("%d", id))
	}

	path := "/tasks/search"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var tasks []model.Task
	if err := s.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *HTTPStore) SearchResources(ctx context.Context, name string) ([]model.Resource, error) {
	path := "/resources"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}

	var resources []model.Resource
	if err := s.do(ctx, http.MethodGet, path, nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (s *HTTPStore) ListFlags(ctx context.Context) ([]model.Flag, error) {
	var flags []model.Flag
	if err := s.do(ctx, http.MethodGet, "/flags", nil, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}
