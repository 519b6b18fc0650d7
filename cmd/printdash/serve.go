package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnslin/printdash/core/httpclient"
	"github.com/dnslin/printdash/core/logging"
	"github.com/dnslin/printdash/core/proxy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动同源 /api 转发服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Proxy
			if listen != "" {
				cfg.Listen = listen
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			backend := httpclient.NewClient(
				httpclient.WithBaseURL(cfg.Backend),
				httpclient.WithTimeout(a.cfg.API.Timeout),
				httpclient.WithLogger(logging.NewAdapter(a.log)),
				httpclient.WithMetrics(httpclient.NewMetrics(reg)),
				httpclient.WithMiddlewares(httpclient.WithRequestID()),
				httpclient.WithoutCookieJar(),
			)
			srv, err := proxy.New(proxy.Config{
				Backend:      cfg.Backend,
				CookieSecure: cfg.CookieSecure,
				CookieDomain: cfg.CookieDomain,
				AccessTTL:    cfg.AccessTTL,
				RefreshTTL:   cfg.RefreshTTL,
				Client:       backend,
				Logger:       a.log,
				Registry:     reg,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "监听地址，覆盖配置中的 proxy.listen")
	return cmd
}
