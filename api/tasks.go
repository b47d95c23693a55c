package api

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Task statuses. Processing and Failed carry a step counter.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

func processingStatus(i, n int) string {
	return fmt.Sprintf("Processing %d/%d", i, n)
}

func failedStatus(i, n int) string {
	return fmt.Sprintf("Failed at %d/%d", i, n)
}

// Operation is one step of an execute request.
type Operation struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Result records what one step returned.
type Result struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// Task is the tracked state of an execute request.
type Task struct {
	ID        string    `json:"task_id"`
	Status    string    `json:"status"`
	Results   []Result  `json:"results"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskStore keeps tasks in memory. Nothing survives a restart; an intent
// that was already published can be picked up again with resume_settlement.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*Task), now: time.Now}
}

func (s *TaskStore) Create(id string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	t := &Task{ID: id, Status: StatusPending, Results: []Result{}, CreatedAt: now, UpdatedAt: now}
	s.tasks[id] = t
	return t
}

// Get returns a snapshot of the task.
func (s *TaskStore) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	snap := *t
	snap.Results = append([]Result(nil), t.Results...)
	return snap, true
}

func (s *TaskStore) SetStatus(id, status string) {
	s.update(id, func(t *Task) { t.Status = status })
}

func (s *TaskStore) AddResult(id string, r Result) {
	s.update(id, func(t *Task) { t.Results = append(t.Results, r) })
}

func (s *TaskStore) update(id string, fn func(*Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		fn(t)
		t.UpdatedAt = s.now()
	}
}
