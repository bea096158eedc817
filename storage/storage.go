package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"todo-stream/domain"
)

const edmInt64 = "Edm.Int64"

// Storage provides access to underlying persistence mechanisms: the task
// record table, the user directory table and the creation-event queue.
type Storage struct {
	taskTable  *aztables.Client
	userTable  *aztables.Client
	eventQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, usersTable, eventsQueue string) (*Storage, error) {
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
	tt := svc.NewClient(tasksTable)
	ut := svc.NewClient(usersTable)
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: tt, userTable: ut, eventQueue: eq}, nil
}

type taskEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Description   string `json:"Description,omitempty"`
	Completed     bool   `json:"Completed"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type,omitempty"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type,omitempty"`
}

func (e taskEntity) toTask() domain.Task {
	return domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Completed:   e.Completed,
		UserID:      e.PartitionKey,
		CreatedAt:   fromMillis(e.CreatedAt),
		UpdatedAt:   fromMillis(e.UpdatedAt),
	}
}

type userEntity struct {
	aztables.Entity
	Name  string `json:"Name,omitempty"`
	Email string `json:"Email,omitempty"`
}

// ListTasks retrieves the full snapshot of the user's tasks, newest first.
func (s *Storage) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, ent.toTask())
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

// CreateTask persists a new record owned by userID and enqueues the
// creation event. The record id is assigned here, never by the caller.
func (s *Storage) CreateTask(ctx context.Context, userID, title, description string) (domain.Task, error) {
	now := nextTimestamp()
	id := uuid.NewString()
	ent := taskEntity{
		Entity:        aztables.Entity{PartitionKey: userID, RowKey: id},
		Title:         title,
		Description:   description,
		Completed:     false,
		CreatedAt:     now,
		CreatedAtType: edmInt64,
		UpdatedAt:     now,
		UpdatedAtType: edmInt64,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, err
	}
	task := ent.toTask()
	if err := s.enqueueCreated(ctx, task); err != nil {
		// The write is already committed; the trigger pipeline is best
		// effort from the writer's point of view.
		log.Errorf("enqueue task-created event for %s: %v", id, err)
	}
	return task, nil
}

func (s *Storage) enqueueCreated(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(domain.TaskCreatedData{Title: t.Title, Description: t.Description})
	if err != nil {
		return err
	}
	ev := domain.Event{
		ID:         uuid.NewString(),
		EntityID:   t.ID,
		EntityType: domain.EntityTypeTask,
		Type:       domain.TaskCreated,
		Data:       data,
		Time:       t.CreatedAt.UnixMilli(),
		UserID:     t.UserID,
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.eventQueue.EnqueueMessage(ctx, string(msg), nil)
	return err
}

// ToggleTask flips the Completed flag on the identified record and
// refreshes its updated timestamp. Concurrent toggles both land; the last
// merge wins at the table layer.
func (s *Storage) ToggleTask(ctx context.Context, userID, id string) error {
	if id == "" {
		return nil
	}
	resp, err := s.taskTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return err
	}
	upd := map[string]any{
		"PartitionKey":         userID,
		"RowKey":               id,
		"Completed":            !ent.Completed,
		"UpdatedAt":            strconv.FormatInt(nextTimestamp(), 10),
		"UpdatedAt@odata.type": edmInt64,
	}
	payload, err := json.Marshal(upd)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return err
}

// DeleteTask permanently removes the record from the store.
func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.taskTable.DeleteEntity(ctx, userID, id, nil)
	return err
}

// GetUser looks up a directory entry by principal id. A missing user
// returns nil without error.
func (s *Storage) GetUser(ctx context.Context, id string) (*domain.User, error) {
	resp, err := s.userTable.GetEntity(ctx, id, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	return &domain.User{ID: ent.RowKey, Name: ent.Name, Email: ent.Email}, nil
}
