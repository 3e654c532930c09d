package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/app"
	"github.com/opshub/console/plugins/sslcert"
)

func newCertCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cert",
		Aliases: []string{"certs", "ssl-cert"},
		Short:   "Manage SSL certificates",
	}
	cmd.AddCommand(newCertListCmd(o), newCertStatsCmd(o), newCertRenewCmd(o), newCertDownloadCmd(o))
	return cmd
}

func newCertListCmd(o *rootOptions) *cobra.Command {
	f := sslcert.CertificateFilter{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List certificates with days left until expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Certs.Certificates(ctx, f)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), page)
				}
				now := time.Now()
				var rows []table.Row
				for _, c := range page.List {
					expires, left := "-", "-"
					if c.NotAfter != nil {
						expires = c.NotAfter.Format("2006-01-02")
						left = fmt.Sprint(c.DaysLeft(now))
					}
					rows = append(rows, table.Row{c.ID, c.Domain, c.Status, c.SourceType, expires, left, c.AutoRenew})
				}
				renderTable(out(cmd), table.Row{"ID", "Domain", "Status", "Source", "Expires", "Days left", "Auto renew"}, rows)
				fmt.Fprintf(out(cmd), "%d of %d\n", len(page.List), page.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&f.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.PageSize, "page-size", 20, "Page size")
	cmd.Flags().StringVar(&f.Domain, "domain", "", "Filter by domain")
	cmd.Flags().StringVar(&f.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&f.SourceType, "source", "", "Filter by source type")
	return cmd
}

func newCertStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show certificate counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Certs.Stats(ctx)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), stats)
				}
				keys := make([]string, 0, len(stats))
				for k := range stats {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				rows := make([]table.Row, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, table.Row{k, stats[k]})
				}
				renderTable(out(cmd), table.Row{"Status", "Count"}, rows)
				return nil
			})
		},
	}
}

func newCertRenewCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "renew <id>",
		Short: "Start a renewal task for a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				task, err := a.Certs.Renew(ctx, id)
				if err != nil {
					return err
				}
				if o.jsonOutput() {
					return printJSON(out(cmd), task)
				}
				if task != nil {
					fmt.Fprintf(out(cmd), "Renewal task %d is %s.\n", task.ID, task.Status)
				} else {
					fmt.Fprintln(out(cmd), "Renewal started.")
				}
				return nil
			})
		},
	}
}

func newCertDownloadCmd(o *rootOptions) *cobra.Command {
	var format, dir string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download certificate key material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if format != "pem" && format != "nginx" {
				return fmt.Errorf("unsupported format %q (use pem or nginx)", format)
			}
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				b, err := a.Certs.Download(ctx, id, format)
				if err != nil {
					return err
				}
				if b == nil {
					return fmt.Errorf("certificate %d has no key material", id)
				}
				files := bundleFiles(b)
				if len(files) == 0 {
					return fmt.Errorf("certificate %d has no key material", id)
				}
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
				for _, f := range files {
					p := filepath.Join(dir, fmt.Sprintf("%d-%s", id, f.name))
					if err := os.WriteFile(p, []byte(f.data), 0o600); err != nil {
						return fmt.Errorf("failed to write %s: %w", p, err)
					}
					fmt.Fprintln(out(cmd), p)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "pem", "Download format: pem or nginx")
	cmd.Flags().StringVar(&dir, "out", ".", "Directory to write files into")
	return cmd
}

type bundleFile struct {
	name string
	data string
}

func bundleFiles(b *sslcert.Bundle) []bundleFile {
	candidates := []bundleFile{
		{"cert.pem", b.Certificate},
		{"key.pem", b.PrivateKey},
		{"chain.pem", b.CertChain},
		{"ssl_certificate.crt", b.SSLCertificate},
		{"ssl_certificate.key", b.SSLCertificateKey},
	}
	var files []bundleFile
	for _, f := range candidates {
		if f.data != "" {
			files = append(files, f)
		}
	}
	return files
}
