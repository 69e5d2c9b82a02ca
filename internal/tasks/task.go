package tasks

import (
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeFetchSource TaskType = "fetch_source"
	TaskTypeFetchAll    TaskType = "fetch_all"
	TaskTypeCleanup     TaskType = "cleanup"
)

type Task struct {
	ID         string
	Type       TaskType
	SourceName string
	StartedAt  *time.Time
}

func NewTask(taskType TaskType, sourceName string) Task {
	return Task{
		ID:         fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000)),
		Type:       taskType,
		SourceName: sourceName,
	}
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}
