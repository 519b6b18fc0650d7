package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dnslin/printdash/core/httpclient"
	"github.com/dnslin/printdash/core/store"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshLeeway 令牌到期前提前刷新的时间窗口。
const DefaultRefreshLeeway = 10 * time.Second

// State 表示协调器当前所处阶段。
type State int

const (
	// StateIdle 没有进行中的刷新。
	StateIdle State = iota
	// StateRefreshing 刷新进行中，新请求会排队等待。
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateRefreshing:
		return "refreshing"
	default:
		return "idle"
	}
}

// RefreshObserver 接收刷新结果，result 为 success 或 failure。
type RefreshObserver interface {
	ObserveRefresh(result string)
}

// flight 表示一轮刷新，done 关闭后 err 只读。
type flight struct {
	done chan struct{}
	err  error
}

// Manager 持有访问令牌，并保证同一时刻最多只有一次刷新在进行。
// 收到 401 的请求与刷新期间发出的新请求共享同一轮刷新的结果，
// 刷新失败时全部以 *LoginRequiredError 结束，且 OnLoginRequired 只触发一次。
type Manager struct {
	mu         sync.Mutex
	group      singleflight.Group
	refresher  Refresher
	store      store.SessionStore[*Session]
	session    *Session
	generation uint64
	inflight   *flight
	lastErr    error

	loginPath       string
	leeway          time.Duration
	onLoginRequired func(*LoginRequiredError)
	observer        RefreshObserver
	logger          httpclient.Logger
	now             func() time.Time
}

// ManagerOption 自定义 Manager。
type ManagerOption func(*Manager)

// WithSessionStore 设置会话持久化，创建时会尝试加载已有会话。
func WithSessionStore(s store.SessionStore[*Session]) ManagerOption {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLoginPath 设置刷新失败后建议跳转的地址。
func WithLoginPath(path string) ManagerOption {
	return func(m *Manager) {
		m.loginPath = path
	}
}

// WithRefreshLeeway 设置提前刷新窗口，0 表示到期才刷新。
func WithRefreshLeeway(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.leeway = d
		}
	}
}

// WithOnLoginRequired 注册刷新失败回调，每轮失败的刷新只调用一次。
func WithOnLoginRequired(fn func(*LoginRequiredError)) ManagerOption {
	return func(m *Manager) {
		m.onLoginRequired = fn
	}
}

// WithRefreshObserver 注入刷新结果观察者，通常为 *httpclient.Metrics。
func WithRefreshObserver(o RefreshObserver) ManagerOption {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithManagerLogger 注入日志。
func WithManagerLogger(logger httpclient.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNow 替换时间来源。
func WithNow(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager 创建协调器。refresher 为空时 401 会直接要求重新登录。
func NewManager(refresher Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		refresher: refresher,
		loginPath: DefaultLoginPath,
		leeway:    DefaultRefreshLeeway,
		logger:    httpclient.NopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.logger == nil {
		m.logger = httpclient.NopLogger{}
	}
	if m.store != nil {
		session, err := m.store.LoadSession()
		switch {
		case err == nil:
			m.session = session.Clone()
		case !errors.Is(err, store.ErrNotFound):
			m.logger.Errorf("auth: 加载会话失败: %v", err)
		}
	}
	return m
}

// State 返回当前阶段。
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight != nil {
		return StateRefreshing
	}
	return StateIdle
}

// Generation 返回凭证版本号，每轮刷新结束后加一。
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Session 返回当前会话副本。
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

// SetSession 替换当前会话，通常在登录成功后调用。
func (m *Manager) SetSession(session *Session) error {
	m.mu.Lock()
	m.session = session.Clone()
	m.lastErr = nil
	m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	if session == nil {
		return m.store.ClearSession()
	}
	return m.store.SaveSession(session.Clone())
}

// Clear 清空会话，通常在登出后调用。
func (m *Manager) Clear() error {
	return m.SetSession(nil)
}

// Authorize 实现 httpclient.Authenticator：刷新进行中时等待结果，随后写入 Bearer 令牌。
// 已知过期的令牌会先触发刷新再发送。
func (m *Manager) Authorize(ctx context.Context, req *http.Request) (uint64, error) {
	generation, token, err := m.current(ctx)
	if err != nil {
		return 0, err
	}
	if token != "" && req != nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return generation, nil
}

// Refresh 实现 httpclient.Authenticator。
// generation 早于当前版本说明已有刷新结算，直接返回那次的结果；
// 否则加入或发起本轮刷新并等待。
func (m *Manager) Refresh(ctx context.Context, generation uint64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	if generation < m.generation {
		err := m.lastErr
		m.mu.Unlock()
		return err
	}
	if m.inflight == nil {
		m.inflight = &flight{done: make(chan struct{})}
		m.logger.Debugf("auth: 开始刷新访问令牌 generation=%d", m.generation)
	}
	f := m.inflight
	runCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(strconv.FormatUint(m.generation, 10), func() (any, error) {
		return nil, m.run(runCtx, f)
	})
	m.mu.Unlock()

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// current 在没有进行中的刷新时返回版本号与令牌。
func (m *Manager) current(ctx context.Context) (uint64, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	refreshed := false
	m.mu.Lock()
	for {
		if f := m.inflight; f != nil {
			m.mu.Unlock()
			select {
			case <-f.done:
			case <-ctx.Done():
				return 0, "", ctx.Err()
			}
			if f.err != nil {
				return 0, "", f.err
			}
			m.mu.Lock()
			continue
		}
		if !refreshed && m.refresher != nil && m.session != nil && m.session.Expired(m.now().Add(m.leeway)) {
			generation := m.generation
			m.mu.Unlock()
			if err := m.Refresh(ctx, generation); err != nil {
				return 0, "", err
			}
			refreshed = true
			m.mu.Lock()
			continue
		}
		generation, token := m.generation, m.session.GetAccessToken()
		m.mu.Unlock()
		return generation, token, nil
	}
}

// run 执行一次实际刷新，并在锁内结算本轮结果。
func (m *Manager) run(ctx context.Context, f *flight) error {
	var session *Session
	var err error = ErrRefresherNil
	if m.refresher != nil {
		session, err = m.refresher.Refresh(ctx)
	}
	if err == nil && session.GetAccessToken() == "" {
		err = ErrEmptyToken
	}
	if err == nil && m.store != nil {
		if saveErr := m.store.SaveSession(session.Clone()); saveErr != nil {
			m.logger.Errorf("auth: 保存会话失败: %v", saveErr)
		}
	}

	var loginErr *LoginRequiredError
	m.mu.Lock()
	m.generation++
	if err != nil {
		loginErr = &LoginRequiredError{RedirectTo: m.loginPath, Err: err}
		f.err = loginErr
		m.session = nil
	} else {
		m.session = session.Clone()
	}
	m.lastErr = f.err
	m.inflight = nil
	close(f.done)
	m.mu.Unlock()

	if loginErr != nil {
		m.logger.Errorf("auth: 刷新失败，需要重新登录: %v", err)
		if m.store != nil {
			if clearErr := m.store.ClearSession(); clearErr != nil {
				m.logger.Errorf("auth: 清理会话失败: %v", clearErr)
			}
		}
		m.observe("failure")
		if m.onLoginRequired != nil {
			m.onLoginRequired(loginErr)
		}
		return loginErr
	}
	m.observe("success")
	return nil
}

func (m *Manager) observe(result string) {
	if m.observer != nil {
		m.observer.ObserveRefresh(result)
	}
}
