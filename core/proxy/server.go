package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/dnslin/printdash/core/httpclient"
	"github.com/dnslin/printdash/core/logging"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ErrBackendRequired 未配置后端地址。
var ErrBackendRequired = coreerrors.New(coreerrors.ErrCodeInvalidConfig, "proxy: 后端地址不能为空")

// Config 转发服务配置。
type Config struct {
	Backend      string
	CookieSecure bool
	CookieDomain string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	// Client 用于调用后端认证接口，为空时按 Backend 创建。
	// 各用户共用这一客户端，其 CookieJar 会被剥离。
	Client   *httpclient.Client
	Logger   *zap.Logger
	Registry *prometheus.Registry
}

// Server 在同源 /api 下提供认证接口，并把其余资源请求转发到后端。
type Server struct {
	router  *mux.Router
	backend *url.URL
	api     *httpclient.Client
	proxy   *httputil.ReverseProxy
	cookies cookieJar
	log     *zap.Logger
	metrics *metrics
}

// New 创建转发服务。
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.Backend) == "" {
		return nil, ErrBackendRequired
	}
	backend, err := url.Parse(cfg.Backend)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, "proxy: 后端地址非法", err)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	api := cfg.Client
	if api == nil {
		api = httpclient.NewClient(
			httpclient.WithBaseURL(cfg.Backend),
			httpclient.WithLogger(logging.NewAdapter(log)),
			httpclient.WithMiddlewares(httpclient.WithRequestID()),
			httpclient.WithoutCookieJar(),
		)
	} else if api.Jar != nil || (api.HTTP != nil && api.HTTP.Jar != nil) {
		log.Debug("proxy: backend client cookie jar detached")
		api = api.DetachCookieJar()
	}
	s := &Server{
		router:  mux.NewRouter(),
		backend: backend,
		api:     api,
		cookies: cookieJar{
			secure:     cfg.CookieSecure,
			domain:     cfg.CookieDomain,
			accessTTL:  cfg.AccessTTL,
			refreshTTL: cfg.RefreshTTL,
		},
		log: log,
	}
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Registry != nil {
		gatherer = cfg.Registry
		s.metrics = newMetrics(cfg.Registry)
	} else {
		s.metrics = newMetrics(nil)
	}
	s.proxy = &httputil.ReverseProxy{
		Rewrite:      s.rewrite,
		ErrorHandler: s.proxyError,
	}

	s.router.Use(requestID, s.accessLog)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name("healthz")
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet).Name("metrics")

	authRouter := s.router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost).Name("auth.login")
	authRouter.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost).Name("auth.refresh")
	authRouter.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost).Name("auth.logout")
	s.router.PathPrefix("/api/").Handler(s.proxy).Name("api")
	return s, nil
}

// Handler 返回根路由。
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe 启动服务，ctx 取消后优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("proxy listening", zap.String("addr", addr), zap.String("backend", s.backend.String()))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// rewrite 保留原路径转发，没有 Authorization 时用 access_token Cookie 补齐。
// 浏览器 Cookie 不外传给后端。
func (s *Server) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(s.backend)
	pr.SetXForwarded()
	if pr.Out.Header.Get("Authorization") == "" {
		if token := cookieValue(pr.In, AccessCookie); token != "" {
			pr.Out.Header.Set("Authorization", "Bearer "+token)
		}
	}
	pr.Out.Header.Del("Cookie")
}

func (s *Server) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("proxy upstream failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", r.Header.Get(httpclient.RequestIDHeader)),
		zap.Error(err),
	)
	writeError(w, http.StatusBadGateway, "后端服务不可用")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, httpclient.ErrorEnvelope{
		Message:    httpclient.Messages{message},
		Err:        http.StatusText(status),
		StatusCode: status,
	})
}
