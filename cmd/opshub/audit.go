package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/api/audit"
	"github.com/opshub/console/internal/app"
)

func newAuditCmd(o *rootOptions) *cobra.Command {
	f := &audit.Filter{}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read operation, login and data audit logs",
	}
	pf := cmd.PersistentFlags()
	pf.IntVar(&f.Page, "page", 1, "Page number")
	pf.IntVar(&f.PageSize, "page-size", 20, "Page size")
	pf.StringVar(&f.Username, "user", "", "Filter by username")
	pf.StringVar(&f.StartTime, "since", "", "Start date (YYYY-MM-DD)")
	pf.StringVar(&f.EndTime, "until", "", "End date (YYYY-MM-DD)")

	operations := &cobra.Command{
		Use:   "operations",
		Short: "List operation logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Audit.OperationLogs(ctx, *f)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				var rows []table.Row
				for _, l := range page.List {
					rows = append(rows, table.Row{l.ID, l.CreatedAt, l.Username, l.Module, l.Action, l.Method + " " + l.Path, l.Status, fmt.Sprintf("%dms", l.CostTime)})
				}
				renderTable(out(cmd), table.Row{"ID", "Time", "User", "Module", "Action", "Request", "Status", "Cost"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}
	operations.Flags().StringVar(&f.Module, "module", "", "Filter by module")
	operations.Flags().StringVar(&f.Action, "action", "", "Filter by action")

	logins := &cobra.Command{
		Use:   "logins",
		Short: "List login logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Audit.LoginLogs(ctx, *f)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				var rows []table.Row
				for _, l := range page.List {
					rows = append(rows, table.Row{l.ID, l.LoginTime, l.Username, l.LoginType, l.LoginStatus, l.IP, l.FailReason})
				}
				renderTable(out(cmd), table.Row{"ID", "Time", "User", "Type", "Status", "IP", "Reason"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}
	logins.Flags().StringVar(&f.LoginType, "type", "", "Filter by login type")
	logins.Flags().StringVar(&f.LoginStatus, "status", "", "Filter by login status")

	data := &cobra.Command{
		Use:   "data",
		Short: "List data change logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Audit.DataLogs(ctx, *f)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				var rows []table.Row
				for _, l := range page.List {
					rows = append(rows, table.Row{l.ID, l.CreatedAt, l.Username, l.TableName, l.RecordID, l.Action})
				}
				renderTable(out(cmd), table.Row{"ID", "Time", "User", "Table", "Record", "Action"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}
	data.Flags().StringVar(&f.TableName, "table", "", "Filter by table")
	data.Flags().StringVar(&f.Action, "action", "", "Filter by action")

	cmd.AddCommand(operations, logins, data)
	return cmd
}
