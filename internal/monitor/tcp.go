package monitor

import (
	"context"
	"net"
	"strconv"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// TCPMonitor probes members by opening a TCP connection to a fixed port.
type TCPMonitor struct {
	base
	port int
}

// NewTCPMonitor creates a TCP monitor. The "port" param is required; the
// shared interval/timeout/retries params are optional.
func NewTCPMonitor(params Params) (Monitor, error) {
	b, err := newBase("tcp", params)
	if err != nil {
		return nil, err
	}

	v, ok := params["port"]
	if !ok {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
			"tcp monitor requires a port param").WithField("port")
	}
	port, err := intParam("tcp", "port", v)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
			"tcp monitor port %d must be between 1 and 65535", port).WithField("port")
	}

	return &TCPMonitor{base: b, port: port}, nil
}

// Kind returns "tcp"
func (m *TCPMonitor) Kind() string { return "tcp" }

// Probe attempts a TCP connect; any dial failure marks the probe failed.
func (m *TCPMonitor) Probe(ctx context.Context, ip string) error {
	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp",
		net.JoinHostPort(ip, strconv.Itoa(m.port)))
	if err != nil {
		return gslberrors.Wrap(err, gslberrors.ErrCodeProbeFailed,
			"tcp probe of %s:%d failed", ip, m.port)
	}
	return conn.Close()
}
