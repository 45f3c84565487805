/*
Package pool contains the core GSLB health-state entities: pool members,
pools, and the distribution table builder.

A Member is one backend server with a weight, an optional topology region,
and a tri-state health status (unknown, up, down) that the health-monitor
subsystem mutates over time:

	m, err := pool.NewMember("10.1.1.10", "web-1", 10, "us-east")
	m.SetStatus(pool.StatusUp)

A Pool groups members under one load-balancing policy and derives its
aggregate status from their live health:

	p, err := pool.New("www-example", mon, members, pool.LBMethodTWRR,
		pool.FallbackAny, 2)
	if p.Status() {
		snapshot := p.DistSnapshot(nil)
		// hand snapshot to the DNS distributor
	}

DistSnapshot is the algorithmic core: it expands each eligible member into
its weight-many rotation slots, partitions by region under topology-based
distribution, shuffles every rotation and picks a randomized start index.
It is a pure function of the pool's state at the moment of the call.

Thread safety: member health fields are written only by the monitor
subsystem, serialized by a per-member mutex; the table builder takes read
locks only and tolerates reading a status that flips mid-build (the snapshot
is recomputed after every health-check cycle anyway).
*/
package pool
