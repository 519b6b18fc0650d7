package main

import (
	"context"
	"errors"

	"github.com/dnslin/printdash/core/auth"
	"github.com/dnslin/printdash/core/config"
	"github.com/dnslin/printdash/core/console"
	"github.com/dnslin/printdash/core/httpclient"
	"github.com/dnslin/printdash/core/logging"
	"github.com/dnslin/printdash/core/model"
	"github.com/dnslin/printdash/core/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	envFile    string
	cfg        *config.Config
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "printdash",
		Short:         "打印管理控制台的访问层工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML 配置文件路径")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", ".env 文件路径，默认读取当前目录的 .env")
	root.AddCommand(newServeCmd(a), newDevicesCmd(a), newPriceCmd(), newPagesCmd())
	return root
}

func (a *app) init() error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	cfg, err := config.Load(a.configPath, envFiles...)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// httpClient 按配置组装出站客户端，auth 为空时不做令牌注入。
func (a *app) httpClient(authn httpclient.Authenticator, metrics *httpclient.Metrics) *httpclient.Client {
	api := a.cfg.API
	logger := logging.NewAdapter(a.log)
	opts := []httpclient.Option{
		httpclient.WithBaseURL(api.BaseURL),
		httpclient.WithTimeout(api.Timeout),
		httpclient.WithLogger(logger),
		httpclient.WithMetrics(metrics),
		httpclient.WithRetryPolicy(httpclient.NewExponentialBackoffRetry(httpclient.RetryConfig{
			MaxRetries: api.Retries,
			BaseDelay:  httpclient.DefaultRetryConfig().BaseDelay,
			MaxDelay:   httpclient.DefaultRetryConfig().MaxDelay,
			Logger:     logger,
		})),
		httpclient.WithMiddlewares(httpclient.WithRequestID()),
	}
	if api.UserAgent != "" {
		opts = append(opts, httpclient.WithMiddlewares(httpclient.WithUserAgent(api.UserAgent)))
	}
	if api.RateLimit > 0 {
		opts = append(opts, httpclient.WithRateLimiter(httpclient.NewTokenBucketLimiter(api.RateLimit, api.Burst, nil)))
	}
	if authn != nil {
		opts = append(opts, httpclient.WithAuthenticator(authn))
	}
	return httpclient.NewClient(opts...)
}

// consoleClient 登录后返回带自动刷新的资源客户端。
// 登录与刷新共用同一个 CookieJar，刷新令牌 Cookie 由同源服务写入。
func (a *app) consoleClient(ctx context.Context) (*console.Client, error) {
	if a.cfg.Auth.Email == "" || a.cfg.Auth.Password == "" {
		return nil, errors.New("printdash: 需要设置 PRINTDASH_EMAIL 与 PRINTDASH_PASSWORD")
	}
	metrics := httpclient.NewMetrics(prometheus.NewRegistry())
	logger := logging.NewAdapter(a.log)
	base := a.httpClient(nil, metrics)

	manager := auth.NewManager(
		auth.NewCookieRefresher(base, auth.WithRefreshPath(a.cfg.Auth.RefreshPath), auth.WithRefresherLogger(logger)),
		auth.WithSessionStore(store.NewMemoryStore((*auth.Session).Clone)),
		auth.WithLoginPath(a.cfg.Auth.LoginPath),
		auth.WithRefreshObserver(metrics),
		auth.WithManagerLogger(logger),
		auth.WithOnLoginRequired(func(e *auth.LoginRequiredError) {
			a.log.Warn("session expired", zap.String("redirect", e.RedirectTo), zap.Error(e.Err))
		}),
	)
	session, err := auth.NewLoginClient(base, auth.WithLoginLogger(logger)).Login(ctx, auth.Credentials{
		Email:    a.cfg.Auth.Email,
		Password: a.cfg.Auth.Password,
	})
	if err != nil {
		return nil, err
	}
	if err := manager.SetSession(session); err != nil {
		return nil, err
	}

	client := a.httpClient(manager, metrics)
	client.HTTP.Jar = base.Jar
	client.Jar = base.Jar
	return console.NewClient(client, console.WithLogger(logger)), nil
}

// preferences 读取保存的筛选偏好，未配置或不存在时返回零值。
func (a *app) preferences() (model.FilterPreferences, *store.FileConfigStore[model.FilterPreferences], error) {
	if a.cfg.PreferencesFile == "" {
		return model.FilterPreferences{}, nil, nil
	}
	s := store.NewFileConfigStore[model.FilterPreferences](a.cfg.PreferencesFile)
	prefs, err := s.LoadConfig()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.FilterPreferences{}, nil, err
	}
	return prefs, s, nil
}
