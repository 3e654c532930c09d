package sslcert

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/opshub/console/internal/request"
)

const apiBase = "/api/v1/plugins/ssl-cert"

// Certificate statuses reported by the backend.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusExpiring = "expiring"
	StatusExpired  = "expired"
	StatusError    = "error"
)

// Page is the ssl-cert plugin's list shape, which uses snake_case keys.
type Page[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type Certificate struct {
	ID              uint           `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Name            string         `json:"name"`
	Domain          string         `json:"domain"`
	SANDomains      string         `json:"san_domains"`
	ACMEEmail       string         `json:"acme_email"`
	CAProvider      string         `json:"ca_provider"`
	KeyAlgorithm    string         `json:"key_algorithm"`
	SourceType      string         `json:"source_type"`
	CloudAccountID  *uint          `json:"cloud_account_id"`
	CloudCertID     string         `json:"cloud_cert_id"`
	Issuer          string         `json:"issuer"`
	NotBefore       *time.Time     `json:"not_before"`
	NotAfter        *time.Time     `json:"not_after"`
	Fingerprint     string         `json:"fingerprint"`
	Status          string         `json:"status"`
	AutoRenew       bool           `json:"auto_renew"`
	RenewDaysBefore int            `json:"renew_days_before"`
	DNSProviderID   *uint          `json:"dns_provider_id"`
	LastRenewAt     *time.Time     `json:"last_renew_at"`
	LastError       string         `json:"last_error"`
	DNSProvider     *DNSProvider   `json:"dns_provider,omitempty"`
	DeployConfigs   []DeployConfig `json:"deploy_configs,omitempty"`
}

// DaysLeft returns the whole days until expiry, or -1 when unknown.
func (c Certificate) DaysLeft(now time.Time) int {
	if c.NotAfter == nil {
		return -1
	}
	return int(c.NotAfter.Sub(now).Hours() / 24)
}

type CreateCertificate struct {
	Name            string   `json:"name"`
	Domain          string   `json:"domain"`
	SANDomains      []string `json:"san_domains,omitempty"`
	ACMEEmail       string   `json:"acme_email,omitempty"`
	SourceType      string   `json:"source_type"`
	CAProvider      string   `json:"ca_provider,omitempty"`
	KeyAlgorithm    string   `json:"key_algorithm,omitempty"`
	DNSProviderID   uint     `json:"dns_provider_id,omitempty"`
	CloudAccountID  uint     `json:"cloud_account_id,omitempty"`
	AutoRenew       *bool    `json:"auto_renew,omitempty"`
	RenewDaysBefore int      `json:"renew_days_before,omitempty"`
}

type ImportCertificate struct {
	Name            string   `json:"name"`
	Domain          string   `json:"domain"`
	SANDomains      []string `json:"san_domains,omitempty"`
	Certificate     string   `json:"certificate"`
	PrivateKey      string   `json:"private_key"`
	CertChain       string   `json:"cert_chain,omitempty"`
	AutoRenew       *bool    `json:"auto_renew,omitempty"`
	RenewDaysBefore int      `json:"renew_days_before,omitempty"`
}

type UpdateCertificate struct {
	Name            string `json:"name,omitempty"`
	AutoRenew       *bool  `json:"auto_renew,omitempty"`
	RenewDaysBefore int    `json:"renew_days_before,omitempty"`
	DNSProviderID   uint   `json:"dns_provider_id,omitempty"`
	ACMEEmail       string `json:"acme_email,omitempty"`
}

type CertificateFilter struct {
	Page       int
	PageSize   int
	Domain     string
	Status     string
	SourceType string
}

// Bundle is the downloaded key material. PEM downloads fill Certificate,
// PrivateKey and CertChain; nginx downloads fill the SSL* fields.
type Bundle struct {
	Certificate       string `json:"certificate,omitempty"`
	PrivateKey        string `json:"private_key,omitempty"`
	CertChain         string `json:"cert_chain,omitempty"`
	SSLCertificate    string `json:"ssl_certificate,omitempty"`
	SSLCertificateKey string `json:"ssl_certificate_key,omitempty"`
}

type CloudAccount struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

type DNSProvider struct {
	ID         uint                   `json:"id"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Name       string                 `json:"name"`
	Provider   string                 `json:"provider"`
	Config     map[string]interface{} `json:"config,omitempty"`
	Email      string                 `json:"email"`
	Phone      string                 `json:"phone"`
	Enabled    bool                   `json:"enabled"`
	LastTestAt *time.Time             `json:"last_test_at"`
	LastTestOK bool                   `json:"last_test_ok"`
}

type DNSProviderInput struct {
	Name     string                 `json:"name,omitempty"`
	Provider string                 `json:"provider,omitempty"`
	Config   map[string]interface{} `json:"config,omitempty"`
	Email    string                 `json:"email,omitempty"`
	Phone    string                 `json:"phone,omitempty"`
	Enabled  *bool                  `json:"enabled,omitempty"`
}

type DeployConfig struct {
	ID            uint       `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CertificateID uint       `json:"certificate_id"`
	Name          string     `json:"name"`
	DeployType    string     `json:"deploy_type"`
	TargetConfig  string     `json:"target_config"`
	AutoDeploy    bool       `json:"auto_deploy"`
	Enabled       bool       `json:"enabled"`
	LastDeployAt  *time.Time `json:"last_deploy_at"`
	LastDeployOK  bool       `json:"last_deploy_ok"`
	LastError     string     `json:"last_error"`
}

type DeployConfigInput struct {
	CertificateID uint                   `json:"certificate_id,omitempty"`
	Name          string                 `json:"name,omitempty"`
	DeployType    string                 `json:"deploy_type,omitempty"`
	TargetConfig  map[string]interface{} `json:"target_config,omitempty"`
	AutoDeploy    *bool                  `json:"auto_deploy,omitempty"`
	Enabled       *bool                  `json:"enabled,omitempty"`
}

type Task struct {
	ID            uint       `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CertificateID uint       `json:"certificate_id"`
	TaskType      string     `json:"task_type"`
	Status        string     `json:"status"`
	TriggerType   string     `json:"trigger_type"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	ErrorMessage  string     `json:"error_message"`
	Result        string     `json:"result"`
}

type TaskFilter struct {
	Page          int
	PageSize      int
	CertificateID uint
	TaskType      string
	Status        string
	TriggerType   string
}

// API is the typed client for the ssl-cert backend plugin.
type API struct {
	c *request.Client
}

func NewAPI(c *request.Client) *API {
	return &API{c: c}
}

func item(kind string, id uint, suffix string) string {
	return fmt.Sprintf("%s/%s/%d%s", apiBase, kind, id, suffix)
}

// Certificates

func (a *API) Certificates(ctx context.Context, f CertificateFilter) (Page[Certificate], error) {
	q := request.Query("page", f.Page, "page_size", f.PageSize, "domain", f.Domain, "status", f.Status, "source_type", f.SourceType)
	return request.Get[Page[Certificate]](ctx, a.c, apiBase+"/certificates", q)
}

func (a *API) Certificate(ctx context.Context, id uint) (*Certificate, error) {
	return request.Get[*Certificate](ctx, a.c, item("certificates", id, ""), nil)
}

func (a *API) CreateCertificate(ctx context.Context, in CreateCertificate) (*Certificate, error) {
	return request.Post[*Certificate](ctx, a.c, apiBase+"/certificates", in)
}

func (a *API) ImportCertificate(ctx context.Context, in ImportCertificate) (*Certificate, error) {
	if in.Certificate == "" || in.PrivateKey == "" {
		return nil, errors.New("certificate and private key are required")
	}
	return request.Post[*Certificate](ctx, a.c, apiBase+"/certificates/import", in)
}

func (a *API) UpdateCertificate(ctx context.Context, id uint, in UpdateCertificate) (*Certificate, error) {
	return request.Put[*Certificate](ctx, a.c, item("certificates", id, ""), in)
}

func (a *API) DeleteCertificate(ctx context.Context, id uint) error {
	_, err := request.Delete[request.Empty](ctx, a.c, item("certificates", id, ""))
	return err
}

// Renew queues a renewal task and returns it.
func (a *API) Renew(ctx context.Context, id uint) (*Task, error) {
	return request.Post[*Task](ctx, a.c, item("certificates", id, "/renew"), nil)
}

// Sync refreshes a cloud-hosted certificate's status.
func (a *API) Sync(ctx context.Context, id uint) error {
	_, err := request.Post[request.Empty](ctx, a.c, item("certificates", id, "/sync"), nil)
	return err
}

// Download fetches key material in the given format ("pem" or "nginx").
func (a *API) Download(ctx context.Context, id uint, format string) (*Bundle, error) {
	if format == "" {
		format = "pem"
	}
	return request.Get[*Bundle](ctx, a.c, item("certificates", id, "/download"), url.Values{"format": {format}})
}

// DownloadRaw returns the download response exactly as sent by the backend.
func (a *API) DownloadRaw(ctx context.Context, id uint, format string) ([]byte, error) {
	if format == "" {
		format = "pem"
	}
	return a.c.Download(ctx, request.Request{
		Method: http.MethodGet,
		Path:   item("certificates", id, "/download"),
		Query:  url.Values{"format": {format}},
	})
}

// Stats returns certificate counts keyed by status.
func (a *API) Stats(ctx context.Context) (map[string]int64, error) {
	return request.Get[map[string]int64](ctx, a.c, apiBase+"/certificates/stats", nil)
}

func (a *API) CloudAccounts(ctx context.Context, provider string) ([]CloudAccount, error) {
	return request.Get[[]CloudAccount](ctx, a.c, apiBase+"/certificates/cloud-accounts", request.Query("provider", provider))
}

// DNS providers

func (a *API) DNSProviders(ctx context.Context, page, pageSize int, name, provider string) (Page[DNSProvider], error) {
	q := request.Query("page", page, "page_size", pageSize, "name", name, "provider", provider)
	return request.Get[Page[DNSProvider]](ctx, a.c, apiBase+"/dns-providers", q)
}

func (a *API) AllDNSProviders(ctx context.Context) ([]DNSProvider, error) {
	return request.Get[[]DNSProvider](ctx, a.c, apiBase+"/dns-providers/all", nil)
}

func (a *API) DNSProvider(ctx context.Context, id uint) (*DNSProvider, error) {
	return request.Get[*DNSProvider](ctx, a.c, item("dns-providers", id, ""), nil)
}

// DNSProviderDetail includes the provider credentials, for editing.
func (a *API) DNSProviderDetail(ctx context.Context, id uint) (*DNSProvider, error) {
	return request.Get[*DNSProvider](ctx, a.c, item("dns-providers", id, "/detail"), nil)
}

func (a *API) CreateDNSProvider(ctx context.Context, in DNSProviderInput) (*DNSProvider, error) {
	return request.Post[*DNSProvider](ctx, a.c, apiBase+"/dns-providers", in)
}

func (a *API) UpdateDNSProvider(ctx context.Context, id uint, in DNSProviderInput) (*DNSProvider, error) {
	return request.Put[*DNSProvider](ctx, a.c, item("dns-providers", id, ""), in)
}

func (a *API) DeleteDNSProvider(ctx context.Context, id uint) error {
	_, err := request.Delete[request.Empty](ctx, a.c, item("dns-providers", id, ""))
	return err
}

func (a *API) TestDNSProvider(ctx context.Context, id uint) error {
	_, err := request.Post[request.Empty](ctx, a.c, item("dns-providers", id, "/test"), nil)
	return err
}

// Deploy configs

func (a *API) DeployConfigs(ctx context.Context, page, pageSize int, certificateID uint, deployType string) (Page[DeployConfig], error) {
	q := request.Query("page", page, "page_size", pageSize, "certificate_id", certificateID, "deploy_type", deployType)
	return request.Get[Page[DeployConfig]](ctx, a.c, apiBase+"/deploy-configs", q)
}

func (a *API) DeployConfig(ctx context.Context, id uint) (*DeployConfig, error) {
	return request.Get[*DeployConfig](ctx, a.c, item("deploy-configs", id, ""), nil)
}

func (a *API) CreateDeployConfig(ctx context.Context, in DeployConfigInput) (*DeployConfig, error) {
	return request.Post[*DeployConfig](ctx, a.c, apiBase+"/deploy-configs", in)
}

func (a *API) UpdateDeployConfig(ctx context.Context, id uint, in DeployConfigInput) (*DeployConfig, error) {
	return request.Put[*DeployConfig](ctx, a.c, item("deploy-configs", id, ""), in)
}

func (a *API) DeleteDeployConfig(ctx context.Context, id uint) error {
	_, err := request.Delete[request.Empty](ctx, a.c, item("deploy-configs", id, ""))
	return err
}

// Deploy pushes the certificate to the configured target now.
func (a *API) Deploy(ctx context.Context, id uint) error {
	_, err := request.Post[request.Empty](ctx, a.c, item("deploy-configs", id, "/deploy"), nil)
	return err
}

func (a *API) TestDeployConfig(ctx context.Context, id uint) error {
	_, err := request.Post[request.Empty](ctx, a.c, item("deploy-configs", id, "/test"), nil)
	return err
}

// Tasks

func (a *API) Tasks(ctx context.Context, f TaskFilter) (Page[Task], error) {
	q := request.Query("page", f.Page, "page_size", f.PageSize, "certificate_id", f.CertificateID,
		"task_type", f.TaskType, "status", f.Status, "trigger_type", f.TriggerType)
	return request.Get[Page[Task]](ctx, a.c, apiBase+"/tasks", q)
}

func (a *API) Task(ctx context.Context, id uint) (*Task, error) {
	return request.Get[*Task](ctx, a.c, item("tasks", id, ""), nil)
}
