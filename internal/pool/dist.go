package pool

import (
	"math/rand"
	"sort"
	"time"
)

// DefaultDistTable is the key of the distribution table that is always
// built, regardless of lb method and pool health. Downstream consumers key
// off this name, so it must stay stable.
const DefaultDistTable = "_default"

// DistTable is one rotation list consumed circularly by the distributor.
type DistTable struct {
	// Rotation is the weight-expanded, shuffled list of member addresses
	Rotation []string `json:"rotation"`
	// NumUniqueAddrs is the number of distinct members in the rotation
	NumUniqueAddrs int `json:"num_unique_addrs"`
	// Index is the randomized position the distributor starts from when it
	// syncs its cursor from this snapshot
	Index int `json:"index"`
}

// DistSnapshot is the point-in-time handoff structure consumed by the DNS
// distributor to answer queries for the pool.
type DistSnapshot struct {
	LBMethod         LBMethod              `json:"lb_method"`
	MaxAddrsReturned int                   `json:"max_addrs_returned"`
	DistTables       map[string]*DistTable `json:"dist_tables"`
}

// DistSnapshot builds the distribution tables from the pool's current
// member health, weights and regions.
//
// The "_default" table is always built. Regional tables are added only when
// the pool uses a topology-based lb method and the pool as a whole is up.
// When every member is down and fallback is "any", all configured members
// are distributed regardless of health and the effective lb method is forced
// to wrr: with every member returned indiscriminately, region distinctions
// carry no information.
//
// The result is a fresh snapshot on every call; nothing is cached between
// calls. rng is used for rotation shuffling and start-index selection; pass
// a seeded generator in tests, or nil for a time-seeded one. The builder
// never fails: an empty default rotation is the valid representation of a
// full outage with "refuse" fallback.
func (p *Pool) DistSnapshot(rng *rand.Rand) *DistSnapshot {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// Aggregate status is sampled once: the snapshot reflects pool health
	// at this instant even if a probe lands mid-build.
	up := p.Status()

	lbMethod := p.LBMethod
	if !up && p.Fallback == FallbackAny {
		lbMethod = LBMethodWRR
	}

	tables := map[string]*DistTable{
		DefaultDistTable: {Rotation: make([]string, 0)},
	}

	// Members are expanded in sorted IP order so a seeded rng produces
	// identical rotations on every call.
	ips := make([]string, 0, len(p.Members))
	for ip := range p.Members {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	for _, ip := range ips {
		m := p.Members[ip]
		status := m.Status()

		// A member contributes only if it is up, or the whole pool is down
		// with "any" fallback.
		if status != StatusUp && !(!up && p.Fallback == FallbackAny) {
			continue
		}

		// weight 0 = administratively disabled
		if m.Weight == 0 {
			continue
		}

		def := tables[DefaultDistTable]
		def.NumUniqueAddrs++
		for i := 0; i < m.Weight; i++ {
			def.Rotation = append(def.Rotation, ip)
		}

		// Regional tables require the pool as a whole to be up, not just
		// this member.
		if p.LBMethod == LBMethodTWRR && up {
			rt, ok := tables[m.Region]
			if !ok {
				rt = &DistTable{Rotation: make([]string, 0)}
				tables[m.Region] = rt
			}
			rt.NumUniqueAddrs++
			for i := 0; i < m.Weight; i++ {
				rt.Rotation = append(rt.Rotation, ip)
			}
		}
	}

	// Shuffle in sorted table order for the same reason: every call with
	// the same seed draws from the rng in the same sequence.
	tableNames := make([]string, 0, len(tables))
	for name := range tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	for _, name := range tableNames {
		t := tables[name]
		rot := t.Rotation
		rng.Shuffle(len(rot), func(i, j int) {
			rot[i], rot[j] = rot[j], rot[i]
		})

		// Start each rotation at a random cursor so distributors that
		// re-sync from this snapshot do not all hammer the same members
		// first. Empty rotations keep index 0.
		if len(rot) > 0 {
			t.Index = rng.Intn(len(rot))
		}
	}

	return &DistSnapshot{
		LBMethod:         lbMethod,
		MaxAddrsReturned: p.MaxAddrsReturned,
		DistTables:       tables,
	}
}
