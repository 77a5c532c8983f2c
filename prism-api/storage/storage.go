package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"prism-todo/prism-api/domain"
)

const (
	tasksPartition = "tasks"
	edmInt64       = "Edm.Int64"
	edmBoolean     = "Edm.Boolean"
)

// TableStore keeps tasks in an Azure Storage table, one entity per task.
type TableStore struct {
	taskTable *aztables.Client
}

// NewTableStore creates a TableStore from the given connection string.
func NewTableStore(connStr, tasksTable string) (*TableStore, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	return &TableStore{taskTable: svc.NewClient(tasksTable)}, nil
}

// entity holds the table keys. Timestamp is managed by the service.
type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type taskEntity struct {
	entity
	Text          string `json:"Text"`
	Completed     bool   `json:"Completed"`
	CompletedType string `json:"Completed@odata.type,omitempty"`
	Important     bool   `json:"Important"`
	ImportantType string `json:"Important@odata.type,omitempty"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

func toEntity(t domain.Task) taskEntity {
	return taskEntity{
		entity:        entity{PartitionKey: tasksPartition, RowKey: t.ID},
		Text:          t.Text,
		Completed:     t.Completed,
		CompletedType: edmBoolean,
		Important:     t.Important,
		ImportantType: edmBoolean,
		CreatedAt:     t.CreatedAt.UnixNano(),
		CreatedAtType: edmInt64,
		UpdatedAt:     t.UpdatedAt.UnixNano(),
		UpdatedAtType: edmInt64,
	}
}

func (e taskEntity) task() domain.Task {
	return domain.Task{
		ID:        e.RowKey,
		Text:      e.Text,
		Completed: e.Completed,
		Important: e.Important,
		CreatedAt: time.Unix(0, e.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, e.UpdatedAt).UTC(),
	}
}

func decodeTaskEntity(data []byte) (taskEntity, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return taskEntity{}, err
	}
	return ent, nil
}

// tableFilter builds the OData filter for the boolean part of q. Text search
// is not expressible in table queries and is left to the caller.
func tableFilter(q domain.Query) string {
	parts := []string{"PartitionKey eq '" + tasksPartition + "'"}
	switch q.Filter {
	case domain.FilterCompleted:
		parts = append(parts, "Completed eq true")
	case domain.FilterPending:
		parts = append(parts, "Completed eq false")
	case domain.FilterImportant:
		parts = append(parts, "Important eq true")
	}
	return strings.Join(parts, " and ")
}

// ListTasks retrieves the tasks matching the boolean filter of q.
func (s *TableStore) ListTasks(ctx context.Context, q domain.Query) ([]domain.Task, error) {
	filter := tableFilter(q)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, domain.Unavailable("list tasks", err)
		}
		for _, e := range resp.Entities {
			ent, err := decodeTaskEntity(e)
			if err != nil {
				return nil, domain.Unavailable("decode task", err)
			}
			tasks = append(tasks, ent.task())
		}
	}
	return tasks, nil
}

// InsertTask adds a new task entity.
func (s *TableStore) InsertTask(ctx context.Context, t domain.Task) error {
	payload, err := json.Marshal(toEntity(t))
	if err != nil {
		return err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Unavailable("insert task", err)
	}
	return nil
}

func (s *TableStore) getTask(ctx context.Context, id string) (taskEntity, azcore.ETag, error) {
	resp, err := s.taskTable.GetEntity(ctx, tasksPartition, id, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return taskEntity{}, "", domain.NotFoundError{ID: id}
		}
		return taskEntity{}, "", domain.Unavailable("get task", err)
	}
	ent, err := decodeTaskEntity(resp.Value)
	if err != nil {
		return taskEntity{}, "", domain.Unavailable("decode task", err)
	}
	return ent, resp.ETag, nil
}

// UpdateTask applies p to the stored task. Concurrent writers are detected
// with the entity ETag and the read-modify-write is retried.
func (s *TableStore) UpdateTask(ctx context.Context, id string, p domain.TaskPatch, now time.Time) (domain.Task, error) {
	for {
		ent, etag, err := s.getTask(ctx, id)
		if err != nil {
			return domain.Task{}, err
		}
		updated := p.ApplyTo(ent.task(), now)
		payload, err := json.Marshal(toEntity(updated))
		if err != nil {
			return domain.Task{}, err
		}
		_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
		if err == nil {
			return updated, nil
		}
		switch {
		case isStatus(err, http.StatusPreconditionFailed):
			continue
		case isStatus(err, http.StatusNotFound):
			return domain.Task{}, domain.NotFoundError{ID: id}
		}
		return domain.Task{}, domain.Unavailable("update task", err)
	}
}

// DeleteTask removes the task entity.
func (s *TableStore) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, tasksPartition, id, nil); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.NotFoundError{ID: id}
		}
		return domain.Unavailable("delete task", err)
	}
	return nil
}

// Ping checks that the table answers queries.
func (s *TableStore) Ping(ctx context.Context) error {
	top := int32(1)
	filter := tableFilter(domain.Query{})
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	if _, err := pager.NextPage(ctx); err != nil {
		return domain.Unavailable("ping", err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}
