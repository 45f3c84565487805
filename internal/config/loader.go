package config

import (
	"errors"
	"sort"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
	"github.com/polaris-gslb/polaris/internal/monitor"
	"github.com/polaris-gslb/polaris/internal/pool"
	"github.com/polaris-gslb/polaris/internal/topology"
	"github.com/polaris-gslb/polaris/pkg/logger"
)

// Loader builds validated pools from their configuration, resolving monitor
// kinds through an injected registry and member regions through an injected
// topology resolver.
type Loader struct {
	registry *monitor.Registry
	topo     topology.Resolver
	log      *logger.Logger
}

// NewLoader creates a pool loader. topo may be nil when no topology-based
// pools are configured; log may be nil to use a quiet default.
func NewLoader(registry *monitor.Registry, topo topology.Resolver, log *logger.Logger) *Loader {
	if log == nil {
		log, _ = logger.New(logger.Config{
			Level:  "error",
			Format: "json",
			Output: "stderr",
		})
	}
	return &Loader{
		registry: registry,
		topo:     topo,
		log:      log,
	}
}

// Pools builds every pool in the configuration, failing fast on the first
// invalid one. Member IPs and pool names are processed in sorted order so
// the first error reported is deterministic.
func (l *Loader) Pools(cfg *Config) (map[string]*pool.Pool, error) {
	names := make([]string, 0, len(cfg.Pools))
	for name := range cfg.Pools {
		names = append(names, name)
	}
	sort.Strings(names)

	pools := make(map[string]*pool.Pool, len(names))
	for _, name := range names {
		p, err := l.Pool(name, cfg.Pools[name])
		if err != nil {
			return nil, err
		}
		pools[name] = p
	}
	return pools, nil
}

// Pool builds one validated pool from its configuration. Nothing is
// returned on error; there is no partially built pool.
func (l *Loader) Pool(name string, cfg PoolConfig) (*pool.Pool, error) {
	log := l.log.PoolLogger(name)

	// monitor_params may be omitted entirely, but an explicitly empty map
	// is a misconfiguration.
	if cfg.MonitorParams != nil && len(cfg.MonitorParams) == 0 {
		err := gslberrors.New(gslberrors.ErrCodeEmptyMonitorParams,
			"monitor_params should not be empty").WithPool(name)
		log.Error(err.Error())
		return nil, err
	}

	mon, err := l.registry.Create(cfg.Monitor, monitor.Params(cfg.MonitorParams))
	if err != nil {
		err = withPool(err, name)
		log.Error(err.Error())
		return nil, err
	}

	if len(cfg.Members) == 0 {
		err := gslberrors.New(gslberrors.ErrCodeMissingMembers,
			"configuration must contain a non-empty members map").WithPool(name)
		log.Error(err.Error())
		return nil, err
	}

	memberIPs := make([]string, 0, len(cfg.Members))
	for ip := range cfg.Members {
		memberIPs = append(memberIPs, ip)
	}
	sort.Strings(memberIPs)

	members := make(map[string]*pool.Member, len(memberIPs))
	for _, ip := range memberIPs {
		mc := cfg.Members[ip]

		// Topology-based distribution requires a region for every member;
		// an unresolvable region is a hard error, the member is never
		// silently dropped.
		region := ""
		if cfg.LBMethod == string(pool.LBMethodTWRR) {
			if l.topo != nil {
				region = l.topo.Region(ip)
			}
			if region == "" {
				err := gslberrors.New(gslberrors.ErrCodeInvalidRegion,
					"unable to determine region for member %s(%s)",
					ip, mc.Name).WithPool(name).WithMember(ip)
				l.log.MemberLogger(name, ip).Error(err.Error())
				return nil, err
			}
		}

		m, err := pool.NewMember(ip, mc.Name, mc.Weight, region)
		if err != nil {
			err = withMember(withPool(err, name), ip)
			l.log.MemberLogger(name, ip).Error(err.Error())
			return nil, err
		}
		members[ip] = m
	}

	// Optional parameters default only when absent from the configuration;
	// a value that is present is validated as given, so an explicit
	// max_addrs_returned of 0 is rejected rather than promoted to the
	// default.
	fallback := pool.Fallback(cfg.Fallback)
	if cfg.Fallback == "" {
		fallback = pool.DefaultFallback
	}
	maxAddrs := pool.DefaultMaxAddrsReturned
	if cfg.MaxAddrsReturned != nil {
		maxAddrs = *cfg.MaxAddrsReturned
	}

	p, err := pool.New(name, mon, members,
		pool.LBMethod(cfg.LBMethod), fallback, maxAddrs)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.WithField("lb_method", cfg.LBMethod).
		WithField("num_members", len(members)).
		Debug("pool loaded")

	return p, nil
}

func withPool(err error, name string) error {
	var vErr *gslberrors.ValidationError
	if errors.As(err, &vErr) {
		return vErr.WithPool(name)
	}
	return err
}

func withMember(err error, ip string) error {
	var vErr *gslberrors.ValidationError
	if errors.As(err, &vErr) {
		return vErr.WithMember(ip)
	}
	return err
}
