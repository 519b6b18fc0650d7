package main

import (
	"errors"
	"fmt"

	"github.com/dnslin/printdash/core/pricing"
	"github.com/spf13/cobra"
)

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "计价换算",
	}
	cmd.AddCommand(newPriceConvertCmd())
	return cmd
}

func newPriceConvertCmd() *cobra.Command {
	var vnd, usd, rate string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "越南盾与美元单价互转",
		Example: "  printdash price convert --vnd 1000 --rate 25000\n" +
			"  printdash price convert --usd 0.04 --rate 25000",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (vnd == "") == (usd == "") {
				return errors.New("--vnd 与 --usd 需且仅需指定一个")
			}
			calc := pricing.NewCalculator(rate)
			var err error
			if vnd != "" {
				err = calc.SetVND(pricing.BW, vnd)
			} else {
				err = calc.SetUSD(pricing.BW, usd)
			}
			if err != nil {
				return err
			}
			outVND, outUSD := calc.Get(pricing.BW)
			if outVND == "" || outUSD == "" {
				return errors.New("金额或汇率无效")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VND %s = USD %s (汇率 %s)\n", outVND, outUSD, calc.ExchangeRate())
			return nil
		},
	}
	cmd.Flags().StringVar(&vnd, "vnd", "", "越南盾金额")
	cmd.Flags().StringVar(&usd, "usd", "", "美元金额")
	cmd.Flags().StringVar(&rate, "rate", "", "汇率（1 美元兑越南盾）")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

func newPagesCmd() *cobra.Command {
	var total, bw, color string
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "由任意两项推算 A4 折算页数的第三项",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := pricing.ParseA4Counts(total, bw, color)
			if err != nil {
				return err
			}
			counts, err = counts.Complete()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "总页数 %d = 黑白 %d + 彩色 %d\n", *counts.Total, *counts.BW, *counts.Color)
			return nil
		},
	}
	cmd.Flags().StringVar(&total, "total", "", "总页数")
	cmd.Flags().StringVar(&bw, "bw", "", "黑白页数")
	cmd.Flags().StringVar(&color, "color", "", "彩色页数")
	return cmd
}
