package pool

import (
	"net/netip"
	"sync"
	"time"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// MemberStatus represents the health status of a pool member
type MemberStatus int

const (
	// StatusUnknown indicates the member has not been probed yet
	StatusUnknown MemberStatus = iota
	// StatusUp indicates the member passed its last health check
	StatusUp
	// StatusDown indicates the member failed its health checks
	StatusDown
)

// String returns the string representation of MemberStatus
func (s MemberStatus) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

const (
	// MaxMemberNameLen is the maximum length of a member name
	MaxMemberNameLen = 256
	// MaxMemberWeight is the maximum weight of a member, a weight of 0
	// disables the member
	MaxMemberWeight = 99
	// MaxRegionLen is the maximum length of a topology region id
	MaxRegionLen = 256
)

// Member represents a backend server, member of a pool.
//
// IP, Name, Weight and Region are fixed at construction. The health fields
// (status, last probe time, retries left) are written by the health-monitor
// subsystem and read by the distribution table builder; writes are serialized
// by the member's mutex.
type Member struct {
	IP     string `json:"ip"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Region string `json:"region,omitempty"`

	mu              sync.Mutex
	status          MemberStatus
	lastProbeIssued time.Time
	retriesLeft     int
}

// NewMember creates a validated pool member.
//
// ip must be a valid IPv4 address (IPv6 is rejected). weight 0 means the
// member is administratively disabled: it is still health-checked but never
// enters a rotation. region is only meaningful for topology-based
// distribution and may be empty otherwise.
func NewMember(ip, name string, weight int, region string) (*Member, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidAddress,
			"%q does not appear to be a valid IP address", ip).WithField("ip")
	}
	if !addr.Is4() {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidAddress,
			"only v4 IP addresses are supported, got %q", ip).WithField("ip")
	}

	if len(name) > MaxMemberNameLen {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidName,
			"member name must be at most %d chars", MaxMemberNameLen).WithField("name")
	}

	if weight < 0 || weight > MaxMemberWeight {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidWeight,
			"member %q weight %d must be between 0 and %d",
			name, weight, MaxMemberWeight).WithField("weight")
	}

	if len(region) > MaxRegionLen {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidRegion,
			"member %q region must be at most %d chars", name, MaxRegionLen).WithField("region")
	}

	return &Member{
		IP:          ip,
		Name:        name,
		Weight:      weight,
		Region:      region,
		status:      StatusUnknown,
		retriesLeft: -1, // unset until the monitor seeds it
	}, nil
}

// Status returns the current health status of the member
func (m *Member) Status() MemberStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SetStatus updates the health status of the member. Called by the
// health-monitor subsystem only.
func (m *Member) SetStatus(status MemberStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Healthy returns true if the member's status is up
func (m *Member) Healthy() bool {
	return m.Status() == StatusUp
}

// LastProbeIssued returns the time the most recent health probe was
// dispatched, or the zero time if no probe was issued yet.
func (m *Member) LastProbeIssued() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastProbeIssued
}

// MarkProbeIssued records the dispatch time of a health probe. Called by
// the health-monitor subsystem only.
func (m *Member) MarkProbeIssued(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastProbeIssued = t
}

// RetriesLeft returns how many more consecutive probe failures are tolerated
// before the member is declared down, or -1 if the monitor has not seeded
// the counter yet.
func (m *Member) RetriesLeft() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retriesLeft
}

// SetRetriesLeft seeds or resets the failure countdown. Called by the
// health-monitor subsystem only.
func (m *Member) SetRetriesLeft(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retriesLeft = n
}

// DecrementRetries consumes one tolerated failure and returns the remaining
// count. Called by the health-monitor subsystem only.
func (m *Member) DecrementRetries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retriesLeft > 0 {
		m.retriesLeft--
	}
	return m.retriesLeft
}
