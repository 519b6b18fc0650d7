package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dnslin/printdash/core/console"
	"github.com/dnslin/printdash/core/model"
	"github.com/dnslin/printdash/core/pricing"
	"github.com/dnslin/printdash/core/task"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newDevicesSetPricingCmd 按客户批量下发设备计价。
func newDevicesSetPricingCmd(a *app) *cobra.Command {
	var (
		customerID      string
		bwVND, colorVND string
		rate            string
		concurrency     int
	)
	cmd := &cobra.Command{
		Use:   "set-pricing",
		Short: "为某客户的全部设备设置单价",
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerID == "" {
				return errors.New("需要 --customer")
			}
			calc := pricing.NewCalculator(rate)
			if err := errors.Join(calc.SetVND(pricing.BW, bwVND), calc.SetVND(pricing.Color, colorVND)); err != nil {
				return err
			}
			rates, err := calc.Rates()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.consoleClient(ctx)
			if err != nil {
				return errors.New(console.DisplayMessage(err))
			}
			devices, err := console.Collect(ctx, func(ctx context.Context, opts ...console.ListOption) (*console.Page[model.Device], error) {
				return client.ListDevicesByCustomer(ctx, customerID, opts...)
			})
			if err != nil {
				return errors.New(console.DisplayMessage(err))
			}

			manager := task.NewManager(task.WithMaxConcurrent(concurrency))
			manager.Subscribe(func(t *task.Task) {
				done, total := t.GetProgress()
				a.log.Debug("pricing progress", zap.String("task", t.ID), zap.Stringer("status", t.Status), zap.Int("done", done), zap.Int("total", total))
			})
			result, err := manager.Run(ctx, "set-pricing", pricingSteps(client, devices, rates))
			done, total := result.GetProgress()
			fmt.Fprintf(cmd.OutOrStdout(), "已处理 %d/%d 台设备，失败 %d 台\n", done, total, len(result.Failed))
			for _, f := range result.Failed {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", f.Step, console.DisplayMessage(f.Err))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&customerID, "customer", "", "客户 ID")
	cmd.Flags().StringVar(&bwVND, "bw-vnd", "", "黑白单价（越南盾）")
	cmd.Flags().StringVar(&colorVND, "color-vnd", "", "彩色单价（越南盾）")
	cmd.Flags().StringVar(&rate, "rate", "", "汇率（1 美元兑越南盾）")
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "并发请求数")
	_ = cmd.MarkFlagRequired("bw-vnd")
	_ = cmd.MarkFlagRequired("color-vnd")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

type pricingUpdater interface {
	UpdatePricing(ctx context.Context, deviceID string, rates pricing.Rates) (*pricing.Rates, error)
}

func pricingSteps(client pricingUpdater, devices []model.Device, rates pricing.Rates) []task.Step {
	steps := make([]task.Step, 0, len(devices))
	for _, d := range devices {
		id := d.ID
		steps = append(steps, task.Step{
			Name: d.SerialNumber + "(" + id + ")",
			Run: func(ctx context.Context) error {
				_, err := client.UpdatePricing(ctx, id, rates)
				return err
			},
		})
	}
	return steps
}
