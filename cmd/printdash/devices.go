package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dnslin/printdash/core/console"
	"github.com/dnslin/printdash/core/model"
	"github.com/spf13/cobra"
)

func newDevicesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "设备相关操作",
	}
	cmd.AddCommand(newDevicesListCmd(a), newDevicesSetPricingCmd(a))
	return cmd
}

func newDevicesListCmd(a *app) *cobra.Command {
	var (
		page, limit int
		search      string
		status      string
		customerID  string
		all, asJSON bool
		savePrefs   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "分页列出设备",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prefs, prefStore, err := a.preferences()
			if err != nil {
				return err
			}
			opts := []console.ListOption{console.WithPreferences(prefs, "devices")}
			if cmd.Flags().Changed("limit") {
				opts = append(opts, console.WithLimit(limit))
			}
			opts = append(opts,
				console.WithPage(page),
				console.WithSearch(search),
				console.WithFilter("status", status),
				console.WithFilter("customerId", customerID),
			)

			client, err := a.consoleClient(ctx)
			if err != nil {
				return errors.New(console.DisplayMessage(err))
			}
			var devices []model.Device
			var pagination *model.Pagination
			if all {
				devices, err = console.Collect(ctx, client.ListDevices, opts...)
			} else {
				var res *console.Page[model.Device]
				res, err = client.ListDevices(ctx, opts...)
				if res != nil {
					devices, pagination = res.Items, &res.Pagination
				}
			}
			if err != nil {
				return errors.New(console.DisplayMessage(err))
			}

			if savePrefs && prefStore != nil {
				prefs = rememberDeviceFilters(prefs, limit, status)
				if err := prefStore.SaveConfig(prefs); err != nil {
					return err
				}
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(devices)
			}
			printDevices(cmd.OutOrStdout(), devices, pagination)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", console.DefaultPage, "页码")
	cmd.Flags().IntVar(&limit, "limit", console.DefaultLimit, "每页条数")
	cmd.Flags().StringVar(&search, "search", "", "关键字")
	cmd.Flags().StringVar(&status, "status", "", "按状态筛选 online/offline/error/maintenance")
	cmd.Flags().StringVar(&customerID, "customer", "", "按客户筛选")
	cmd.Flags().BoolVar(&all, "all", false, "翻页拉取全部设备")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	cmd.Flags().BoolVar(&savePrefs, "save", false, "保存本次的每页条数与状态筛选")
	return cmd
}

func rememberDeviceFilters(prefs model.FilterPreferences, limit int, status string) model.FilterPreferences {
	if limit > 0 {
		prefs.Limit = limit
	}
	if prefs.Filters == nil {
		prefs.Filters = make(map[string]map[string]string)
	}
	if prefs.Filters["devices"] == nil {
		prefs.Filters["devices"] = make(map[string]string)
	}
	if status == "" {
		delete(prefs.Filters["devices"], "status")
	} else {
		prefs.Filters["devices"]["status"] = status
	}
	return prefs
}

func printDevices(out io.Writer, devices []model.Device, p *model.Pagination) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\t序列号\t型号\t状态\t位置\t总页数")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", d.ID, d.SerialNumber, d.Model, d.Status, d.Location, d.TotalPages)
	}
	_ = w.Flush()
	if p != nil {
		fmt.Fprintf(out, "第 %d/%d 页，共 %d 台\n", p.Page, max(p.TotalPages, 1), p.Total)
	}
}
