package pool

import (
	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// LBMethod represents a distribution method name
type LBMethod string

const (
	// LBMethodWRR distributes queries proportionally to member weights
	LBMethodWRR LBMethod = "wrr"
	// LBMethodTWRR is weighted round-robin partitioned by topology region
	LBMethodTWRR LBMethod = "twrr"
)

// Fallback represents the pool behavior when all members are down
type Fallback string

const (
	// FallbackAny distributes among all configured members, ignoring health
	FallbackAny Fallback = "any"
	// FallbackRefuse serves nothing while the pool is down
	FallbackRefuse Fallback = "refuse"
)

const (
	// MaxPoolNameLen is the maximum length of a pool name
	MaxPoolNameLen = 256
	// MaxMaxAddrsReturned is the upper bound on addresses returned per query
	MaxMaxAddrsReturned = 32

	// DefaultFallback is applied when the configuration omits fallback
	DefaultFallback = FallbackAny
	// DefaultMaxAddrsReturned is applied when the configuration omits
	// max_addrs_returned
	DefaultMaxAddrsReturned = 1
)

// Monitor is the health-probing strategy attached to a pool. The pool treats
// it as an opaque handle; probe scheduling and status mutation live in the
// monitor subsystem.
type Monitor interface {
	// Kind returns the registered monitor kind name
	Kind() string
	// Retries returns how many consecutive probe failures are tolerated
	// before a member is declared down
	Retries() int
}

// Pool is a named set of interchangeable backend servers fronted by one
// load-balancing policy.
//
// A pool and its members are built once from configuration and live until
// the next configuration reload. After construction only the members' health
// fields mutate, and only via the monitor subsystem.
type Pool struct {
	Name    string
	Monitor Monitor
	// Members maps member IPv4 address to the member
	Members          map[string]*Member
	LBMethod         LBMethod
	Fallback         Fallback
	MaxAddrsReturned int
}

// New creates a validated pool.
//
// Every argument is validated as given; callers that want the defaults for
// fallback or maxAddrsReturned (the configuration loader, when the fields
// are absent) substitute DefaultFallback and DefaultMaxAddrsReturned
// themselves. members must be non-empty; an empty pool is a
// misconfiguration, not a valid idle state.
func New(name string, monitor Monitor, members map[string]*Member,
	lbMethod LBMethod, fallback Fallback, maxAddrsReturned int) (*Pool, error) {

	if len(name) > MaxPoolNameLen {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidName,
			"pool name must be at most %d chars", MaxPoolNameLen).
			WithPool(name).WithField("name")
	}

	if len(members) == 0 {
		return nil, gslberrors.New(gslberrors.ErrCodeMissingMembers,
			"pool must have at least one member").WithPool(name)
	}

	switch lbMethod {
	case LBMethodWRR, LBMethodTWRR:
	default:
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidLbMethod,
			"lb_method %q must be one of %q, %q",
			lbMethod, LBMethodWRR, LBMethodTWRR).WithPool(name).WithField("lb_method")
	}

	switch fallback {
	case FallbackAny, FallbackRefuse:
	default:
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidFallback,
			"fallback %q must be %q or %q",
			fallback, FallbackAny, FallbackRefuse).WithPool(name).WithField("fallback")
	}

	if maxAddrsReturned < 1 || maxAddrsReturned > MaxMaxAddrsReturned {
		return nil, gslberrors.New(gslberrors.ErrCodeInvalidMaxAddrs,
			"max_addrs_returned %d must be between 1 and %d",
			maxAddrsReturned, MaxMaxAddrsReturned).WithPool(name).WithField("max_addrs_returned")
	}

	return &Pool{
		Name:             name,
		Monitor:          monitor,
		Members:          members,
		LBMethod:         lbMethod,
		Fallback:         fallback,
		MaxAddrsReturned: maxAddrsReturned,
	}, nil
}

// Status returns the aggregate health of the pool: true if any member is up,
// false otherwise.
//
// It is recomputed on every call from the live member statuses, never
// cached. Cost is O(member count) with a short-circuit on the first up
// member.
func (p *Pool) Status() bool {
	for _, m := range p.Members {
		if m.Status() == StatusUp {
			return true
		}
	}
	return false
}
