package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/api/arthas"
	"github.com/opshub/console/internal/app"
)

func newArthasCmd(o *rootOptions) *cobra.Command {
	t := &arthas.Target{}
	cmd := &cobra.Command{
		Use:   "arthas",
		Short: "Diagnose JVMs in Kubernetes pods with Arthas",
	}
	pf := cmd.PersistentFlags()
	pf.UintVar(&t.ClusterID, "cluster", 0, "Cluster ID")
	pf.StringVarP(&t.Namespace, "namespace", "n", "default", "Pod namespace")
	pf.StringVar(&t.Pod, "pod", "", "Pod name")
	pf.StringVarP(&t.Container, "container", "c", "", "Container name")
	pf.StringVar(&t.ProcessID, "pid", "", "Java process ID (default: picked by the backend)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "processes",
			Short: "List Java processes in the container",
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.run(cmd, func(ctx context.Context, a *app.App) error {
					procs, err := a.Arthas.JavaProcesses(ctx, *t)
					if err != nil {
						return err
					}
					if o.jsonOutput() {
						return printJSON(out(cmd), procs)
					}
					rows := make([]table.Row, 0, len(procs))
					for _, p := range procs {
						rows = append(rows, table.Row{p.PID, p.MainClass})
					}
					renderTable(out(cmd), table.Row{"PID", "Main class"}, rows)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "exec <command...>",
			Short: "Run one Arthas command and print its output",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.run(cmd, func(ctx context.Context, a *app.App) error {
					output, err := a.Arthas.Exec(ctx, *t, strings.Join(args, " "))
					if err != nil {
						return err
					}
					fmt.Fprintln(out(cmd), output)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "attach",
			Short: "Open an interactive Arthas session",
			Long:  "Reads commands from stdin, one per line, and streams their output until stdin closes or the session ends.",
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.run(cmd, func(ctx context.Context, a *app.App) error {
					token, err := a.Credentials.Token(ctx)
					if err != nil {
						return err
					}
					s, err := arthas.Dial(ctx, a.Config.Server, *t, token)
					if err != nil {
						return err
					}
					defer s.Close()
					return attach(ctx, s, cmd.InOrStdin(), out(cmd))
				})
			},
		},
	)
	return cmd
}

// attach pumps stdin lines into the session and session output to w.
func attach(ctx context.Context, s *arthas.Session, in io.Reader, w io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-s.Done():
				return
			}
		}
	}()

	msgs := s.Messages()
	for {
		select {
		case <-ctx.Done():
			_ = s.Stop()
			return nil
		case line, ok := <-lines:
			if !ok {
				_ = s.Stop()
				lines = nil
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := s.Send(line); err != nil {
				return err
			}
		case m, ok := <-msgs:
			if !ok {
				return s.Err()
			}
			switch m.Type {
			case arthas.TypeError:
				fmt.Fprintf(w, "error: %s\n", m.Content)
			default:
				fmt.Fprint(w, m.Content)
				if !strings.HasSuffix(m.Content, "\n") {
					fmt.Fprintln(w)
				}
			}
		}
	}
}
