package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/api/task"
	"github.com/opshub/console/internal/app"
)

func newTaskCmd(o *rootOptions) *cobra.Command {
	p := &task.ListParams{}
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Browse jobs, job templates and Ansible tasks",
	}
	pf := cmd.PersistentFlags()
	pf.IntVar(&p.Page, "page", 1, "Page number")
	pf.IntVar(&p.PageSize, "page-size", 20, "Page size")
	pf.StringVar(&p.Keyword, "keyword", "", "Filter by keyword")
	pf.StringVar(&p.Status, "status", "", "Filter by status")

	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Tasks.Jobs(ctx, *p)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				var rows []table.Row
				for _, j := range page.List {
					rows = append(rows, table.Row{j.ID, j.Name, j.TaskType, j.Status, j.ExecuteTime})
				}
				renderTable(out(cmd), table.Row{"ID", "Name", "Type", "Status", "Executed"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}
	jobs.Flags().StringVar(&p.TaskType, "type", "", "Filter by task type")

	templates := &cobra.Command{
		Use:   "templates",
		Short: "List job templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Tasks.Templates(ctx, *p)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				var rows []table.Row
				for _, t := range page.List {
					rows = append(rows, table.Row{t.ID, t.Name, t.Code, t.Category, t.Platform, t.Timeout})
				}
				renderTable(out(cmd), table.Row{"ID", "Name", "Code", "Category", "Platform", "Timeout"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}
	templates.Flags().StringVar(&p.Category, "category", "", "Filter by category")
	templates.Flags().StringVar(&p.Platform, "platform", "", "Filter by platform")

	ansible := &cobra.Command{
		Use:   "ansible",
		Short: "List Ansible tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Tasks.AnsibleTasks(ctx, *p)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				var rows []table.Row
				for _, t := range page.List {
					rows = append(rows, table.Row{t.ID, t.Name, t.Status, t.LastRunTime, t.LastRunResult})
				}
				renderTable(out(cmd), table.Row{"ID", "Name", "Status", "Last run", "Result"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}

	cmd.AddCommand(jobs, templates, ansible)
	return cmd
}
