// Package monitor provides the health-monitor kinds a pool can be probed
// with, and the registry the configuration loader resolves them through.
package monitor

import (
	"context"
	"time"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// Defaults applied when monitor_params omit the shared knobs.
const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 5 * time.Second
	DefaultRetries  = 2
)

// Monitor is a health-probing strategy for the members of one pool.
//
// Probe performs a single synchronous check of one member address; the
// probe-scheduling loop that calls it periodically and flips member status
// lives outside this package.
type Monitor interface {
	// Kind returns the registered kind name
	Kind() string
	// Interval returns how often members should be probed
	Interval() time.Duration
	// Timeout returns the per-probe deadline
	Timeout() time.Duration
	// Retries returns how many consecutive probe failures are tolerated
	// before a member is declared down
	Retries() int
	// Probe checks one member address, returning nil if it is healthy
	Probe(ctx context.Context, ip string) error
}

// Params is the monitor_params mapping from the pool configuration,
// passed verbatim to the monitor factory.
type Params map[string]interface{}

// base carries the knobs shared by every monitor kind
type base struct {
	interval time.Duration
	timeout  time.Duration
	retries  int
}

func (b base) Interval() time.Duration { return b.interval }
func (b base) Timeout() time.Duration  { return b.timeout }
func (b base) Retries() int            { return b.retries }

// newBase parses the shared interval/timeout/retries params, in seconds.
func newBase(kind string, params Params) (base, error) {
	b := base{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		retries:  DefaultRetries,
	}

	if v, ok := params["interval"]; ok {
		n, err := intParam(kind, "interval", v)
		if err != nil {
			return b, err
		}
		if n < 1 {
			return b, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
				"%s monitor interval must be at least 1 second", kind).WithField("interval")
		}
		b.interval = time.Duration(n) * time.Second
	}

	if v, ok := params["timeout"]; ok {
		n, err := intParam(kind, "timeout", v)
		if err != nil {
			return b, err
		}
		if n < 1 {
			return b, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
				"%s monitor timeout must be at least 1 second", kind).WithField("timeout")
		}
		b.timeout = time.Duration(n) * time.Second
	}

	if v, ok := params["retries"]; ok {
		n, err := intParam(kind, "retries", v)
		if err != nil {
			return b, err
		}
		if n < 0 {
			return b, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
				"%s monitor retries must not be negative", kind).WithField("retries")
		}
		b.retries = n
	}

	return b, nil
}

// intParam coerces a params value to int. YAML decodes integers as int, but
// accept the wider integer types too.
func intParam(kind, key string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
			"%s monitor param %q must be an integer, got %T", kind, key, v).WithField(key)
	}
}

func strParam(kind, key string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
			"%s monitor param %q must be a string, got %T", kind, key, v).WithField(key)
	}
	return s, nil
}

func boolParam(kind, key string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
			"%s monitor param %q must be a bool, got %T", kind, key, v).WithField(key)
	}
	return b, nil
}
