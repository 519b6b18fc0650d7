package task

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// 错误定义。
var (
	ErrTaskNotFound  = errors.New("task: 任务不存在")
	ErrTaskCanceled  = errors.New("task: 任务已取消")
	ErrInvalidStatus = errors.New("task: 无效的任务状态")
)

// Step 为批量任务中的一个步骤，Name 用于定位失败项。
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Manager 任务管理器，所有任务共享同一并发上限。
type Manager struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	callbacks []ProgressCallback
	cancels   map[string]context.CancelFunc

	maxConcurrent int
	semaphore     chan struct{}
}

// ManagerOption 管理器配置选项。
type ManagerOption func(*Manager)

// WithMaxConcurrent 设置最大并发数。
func WithMaxConcurrent(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

// NewManager 创建任务管理器。
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		tasks:         make(map[string]*Task),
		cancels:       make(map[string]context.CancelFunc),
		maxConcurrent: 3,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.semaphore = make(chan struct{}, m.maxConcurrent)
	return m
}

// Submit 创建任务并在后台执行，返回任务 ID。
func (m *Manager) Submit(ctx context.Context, name string, steps []Step) string {
	task, ctx := m.create(ctx, name, len(steps))
	go m.execute(ctx, task, steps)
	return task.ID
}

// Run 创建任务并阻塞至结束。步骤失败时返回各失败项合并后的错误。
func (m *Manager) Run(ctx context.Context, name string, steps []Step) (*Task, error) {
	task, ctx := m.create(ctx, name, len(steps))
	m.execute(ctx, task, steps)
	snap := task.Clone()
	switch snap.Status {
	case StatusCanceled:
		return snap, ErrTaskCanceled
	case StatusFailed:
		errs := make([]error, len(snap.Failed))
		for i, f := range snap.Failed {
			errs[i] = f
		}
		return snap, errors.Join(errs...)
	}
	return snap, nil
}

func (m *Manager) create(ctx context.Context, name string, total int) (*Task, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	task := NewTask(uuid.New().String(), name, total)
	m.mu.Lock()
	m.tasks[task.ID] = task
	m.cancels[task.ID] = cancel
	m.mu.Unlock()
	return task, ctx
}

func (m *Manager) execute(ctx context.Context, task *Task, steps []Step) {
	defer m.unregisterCancel(task.ID)
	if task.SetStatus(StatusRunning) {
		m.notifyProgress(task)
	}

	var wg sync.WaitGroup
	for _, step := range steps {
		if err := m.acquireSemaphore(ctx); err != nil {
			break
		}
		if ctx.Err() != nil {
			m.releaseSemaphore()
			break
		}
		wg.Add(1)
		go func(step Step) {
			defer wg.Done()
			defer m.releaseSemaphore()
			err := step.Run(ctx)
			if ctx.Err() != nil && errors.Is(err, context.Canceled) {
				return
			}
			task.record(step.Name, err)
			m.notifyProgress(task)
		}(step)
	}
	wg.Wait()

	final := StatusCompleted
	switch {
	case ctx.Err() != nil:
		final = StatusCanceled
	case len(task.Clone().Failed) > 0:
		final = StatusFailed
	}
	if task.SetStatus(final) {
		m.notifyProgress(task)
	}
}

// GetTask 获取任务快照。
func (m *Manager) GetTask(taskID string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// ListTasks 列出所有任务。
func (m *Manager) ListTasks() []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		result = append(result, task.Clone())
	}
	return result
}

// RemoveTask 移除已结束的任务。
func (m *Manager) RemoveTask(taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if !task.GetStatus().Finished() {
		return ErrInvalidStatus
	}
	delete(m.tasks, taskID)
	return nil
}

// Cancel 取消任务，未开始的步骤不再执行。
func (m *Manager) Cancel(taskID string) error {
	m.mu.RLock()
	task, ok := m.tasks[taskID]
	cancel, hasCancel := m.cancels[taskID]
	m.mu.RUnlock()

	if !ok {
		return ErrTaskNotFound
	}
	if task.GetStatus().Finished() {
		return ErrInvalidStatus
	}
	if hasCancel {
		cancel()
	}
	if task.SetStatus(StatusCanceled) {
		m.notifyProgress(task)
	}
	return nil
}

// Subscribe 订阅进度更新。
func (m *Manager) Subscribe(callback ProgressCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// notifyProgress 通知进度更新。
func (m *Manager) notifyProgress(task *Task) {
	m.mu.RLock()
	callbacks := make([]ProgressCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	clone := task.Clone()
	for _, cb := range callbacks {
		cb(clone)
	}
}

func (m *Manager) acquireSemaphore(ctx context.Context) error {
	select {
	case m.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) releaseSemaphore() {
	<-m.semaphore
}

func (m *Manager) unregisterCancel(taskID string) {
	m.mu.Lock()
	cancel := m.cancels[taskID]
	delete(m.cancels, taskID)
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
