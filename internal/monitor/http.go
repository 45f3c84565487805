package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// HTTPMonitor probes members with an HTTP GET and considers any 2xx
// response healthy.
type HTTPMonitor struct {
	base

	useSSL   bool
	hostname string
	urlPath  string
	port     int

	client *http.Client
}

// NewHTTPMonitor creates an HTTP monitor.
//
// Recognized params: port (default 80, or 443 with use_ssl), use_ssl,
// hostname (sent as the Host header), url_path (default "/"), plus the
// shared interval/timeout/retries.
func NewHTTPMonitor(params Params) (Monitor, error) {
	b, err := newBase("http", params)
	if err != nil {
		return nil, err
	}

	m := &HTTPMonitor{
		base:    b,
		urlPath: "/",
	}

	if v, ok := params["use_ssl"]; ok {
		m.useSSL, err = boolParam("http", "use_ssl", v)
		if err != nil {
			return nil, err
		}
	}

	m.port = 80
	if m.useSSL {
		m.port = 443
	}
	if v, ok := params["port"]; ok {
		m.port, err = intParam("http", "port", v)
		if err != nil {
			return nil, err
		}
		if m.port < 1 || m.port > 65535 {
			return nil, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
				"http monitor port %d must be between 1 and 65535", m.port).WithField("port")
		}
	}

	if v, ok := params["hostname"]; ok {
		m.hostname, err = strParam("http", "hostname", v)
		if err != nil {
			return nil, err
		}
	}

	if v, ok := params["url_path"]; ok {
		m.urlPath, err = strParam("http", "url_path", v)
		if err != nil {
			return nil, err
		}
		if m.urlPath == "" || m.urlPath[0] != '/' {
			return nil, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
				"http monitor url_path %q must start with /", m.urlPath).WithField("url_path")
		}
	}

	m.client = &http.Client{
		Timeout: m.timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  true,
			MaxIdleConnsPerHost: 2,
		},
	}

	return m, nil
}

// Kind returns "http"
func (m *HTTPMonitor) Kind() string { return "http" }

// Probe issues a GET against the member and reports non-2xx responses and
// transport failures as errors.
func (m *HTTPMonitor) Probe(ctx context.Context, ip string) error {
	scheme := "http"
	if m.useSSL {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s%s", scheme,
		net.JoinHostPort(ip, strconv.Itoa(m.port)), m.urlPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gslberrors.Wrap(err, gslberrors.ErrCodeProbeFailed,
			"failed to create http probe request for %s", ip)
	}
	if m.hostname != "" {
		req.Host = m.hostname
	}
	req.Header.Set("User-Agent", "polaris-health/1.0")

	resp, err := m.client.Do(req)
	if err != nil {
		return gslberrors.Wrap(err, gslberrors.ErrCodeProbeFailed,
			"http probe of %s failed", ip)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gslberrors.New(gslberrors.ErrCodeProbeFailed,
			"http probe of %s returned status %d", ip, resp.StatusCode)
	}
	return nil
}
