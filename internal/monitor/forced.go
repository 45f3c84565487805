package monitor

import (
	"context"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// ForcedMonitor reports a fixed probe result regardless of the member's
// actual state. Used to pin a pool up or down during maintenance.
type ForcedMonitor struct {
	base
	up bool
}

// NewForcedMonitor creates a forced monitor. The "status" param ("up" or
// "down") selects the fixed result; default is "up".
func NewForcedMonitor(params Params) (Monitor, error) {
	b, err := newBase("forced", params)
	if err != nil {
		return nil, err
	}

	m := &ForcedMonitor{base: b, up: true}

	if v, ok := params["status"]; ok {
		s, err := strParam("forced", "status", v)
		if err != nil {
			return nil, err
		}
		switch s {
		case "up":
			m.up = true
		case "down":
			m.up = false
		default:
			return nil, gslberrors.New(gslberrors.ErrCodeInvalidMonitorParams,
				"forced monitor status %q must be %q or %q", s, "up", "down").WithField("status")
		}
	}

	return m, nil
}

// Kind returns "forced"
func (m *ForcedMonitor) Kind() string { return "forced" }

// Probe returns the configured fixed result
func (m *ForcedMonitor) Probe(ctx context.Context, ip string) error {
	if m.up {
		return nil
	}
	return gslberrors.New(gslberrors.ErrCodeProbeFailed,
		"member %s forced down", ip)
}
