// Package task 提供批量操作的任务管理，例如按客户批量下发计价。
package task

import (
	"sync"
	"time"
)

// Status 任务状态。
type Status int

const (
	// StatusPending 等待中。
	StatusPending Status = iota
	// StatusRunning 运行中。
	StatusRunning
	// StatusCompleted 全部步骤成功。
	StatusCompleted
	// StatusFailed 至少一个步骤失败。
	StatusFailed
	// StatusCanceled 已取消。
	StatusCanceled
)

// String 返回任务状态的字符串表示。
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Finished 判断是否为终态。
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// StepError 记录单个步骤的失败。
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Task 表示一次批量操作。
type Task struct {
	mu sync.RWMutex

	ID        string
	Name      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	Total  int
	Done   int
	Failed []*StepError
}

// NewTask 创建新任务。
func NewTask(id, name string, total int) *Task {
	now := time.Now()
	return &Task{
		ID:        id,
		Name:      name,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Total:     total,
	}
}

// SetStatus 设置任务状态，终态不再变更。
func (t *Task) SetStatus(status Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status.Finished() {
		return false
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return true
}

// GetStatus 获取任务状态。
func (t *Task) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// record 记录一个步骤的结果。
func (t *Task) record(step string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Done++
	if err != nil {
		t.Failed = append(t.Failed, &StepError{Step: step, Err: err})
	}
	t.UpdatedAt = time.Now()
}

// GetProgress 获取已完成与总步骤数。
func (t *Task) GetProgress() (done, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Done, t.Total
}

// Percent 返回完成百分比（0-100）。
func (t *Task) Percent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.Total <= 0 {
		return 0
	}
	return float64(t.Done) / float64(t.Total) * 100
}

// Clone 返回任务的副本（用于安全传递给回调）。
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Task{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Total:     t.Total,
		Done:      t.Done,
		Failed:    append([]*StepError(nil), t.Failed...),
	}
}

// ProgressCallback 进度回调函数类型。
type ProgressCallback func(task *Task)
