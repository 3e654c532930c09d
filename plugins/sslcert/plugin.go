// Package sslcert contributes the SSL certificate screens and the typed
// client for the ssl-cert backend plugin: issuance and renewal, DNS
// validation providers, deployment targets and the task log.
package sslcert

import (
	"context"
	"fmt"

	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/plugin"
)

var info = plugin.Info{
	Name:        "ssl-cert",
	PrettyName:  "SSL Certificates",
	Description: "Automatic SSL certificate renewal with Let's Encrypt and cloud certificate services, deployed to Nginx and Kubernetes",
	Version:     "1.0.0",
	Author:      "J",
}

const parentPath = "/ssl-cert"

type SSLCertPlugin struct {
	api *API
}

// New returns the plugin. With a non-nil api, installing probes the
// backend so a missing backend module fails the install.
func New(api *API) *SSLCertPlugin {
	return &SSLCertPlugin{api: api}
}

func (p *SSLCertPlugin) Name() string {
	return info.Name
}

func (p *SSLCertPlugin) Info() plugin.Info {
	return info
}

func (p *SSLCertPlugin) Install(ctx context.Context) error {
	log := logx.Component("ssl-cert")
	if p.api == nil {
		return nil
	}
	stats, err := p.api.Stats(ctx)
	if err != nil {
		return fmt.Errorf("ssl-cert backend unavailable: %w", err)
	}
	log.Info().Interface("stats", stats).Msg("backend reachable")
	return nil
}

func (p *SSLCertPlugin) Uninstall(ctx context.Context) error {
	return nil
}

func (p *SSLCertPlugin) Menus() []plugin.MenuConfig {
	return []plugin.MenuConfig{
		{Name: "SSL Certificates", Path: parentPath, Icon: "Key", Sort: 25},
		{Name: "Certificates", Path: "/ssl-cert/certificates", Icon: "Document", Sort: 1, ParentPath: parentPath},
		{Name: "DNS Providers", Path: "/ssl-cert/dns-providers", Icon: "Connection", Sort: 2, ParentPath: parentPath},
		{Name: "Deploy Configs", Path: "/ssl-cert/deploy-configs", Icon: "Upload", Sort: 3, ParentPath: parentPath},
		{Name: "Tasks", Path: "/ssl-cert/tasks", Icon: "List", Sort: 4, ParentPath: parentPath},
	}
}

func (p *SSLCertPlugin) Routes() []plugin.RouteConfig {
	return []plugin.RouteConfig{
		{
			Path:      parentPath,
			Name:      "SSLCert",
			Component: "ssl-cert/CertificateList",
			Redirect:  "/ssl-cert/certificates",
			Meta:      map[string]interface{}{"title": "SSL Certificates"},
		},
		{Path: "/ssl-cert/certificates", Name: "CertificateList", Component: "ssl-cert/CertificateList", Meta: map[string]interface{}{"title": "Certificates"}},
		{Path: "/ssl-cert/dns-providers", Name: "DNSProviderList", Component: "ssl-cert/DNSProviderList", Meta: map[string]interface{}{"title": "DNS Providers"}},
		{Path: "/ssl-cert/deploy-configs", Name: "DeployConfigList", Component: "ssl-cert/DeployConfigList", Meta: map[string]interface{}{"title": "Deploy Configs"}},
		{Path: "/ssl-cert/tasks", Name: "TaskList", Component: "ssl-cert/TaskList", Meta: map[string]interface{}{"title": "Tasks"}},
	}
}
