package pool

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMember describes a member for dist table test fixtures
type testMember struct {
	ip     string
	weight int
	region string
	status MemberStatus
}

func distTestPool(t *testing.T, lbMethod LBMethod, fallback Fallback, tms []testMember) *Pool {
	t.Helper()

	members := make(map[string]*Member, len(tms))
	for i, tm := range tms {
		m, err := NewMember(tm.ip, "srv", tm.weight, tm.region)
		require.NoError(t, err, "member %d", i)
		m.SetStatus(tm.status)
		members[tm.ip] = m
	}

	p, err := New("www-example", nil, members, lbMethod, fallback, 1)
	require.NoError(t, err)
	return p
}

// ipCounts collapses a rotation into a multiset of IP counts
func ipCounts(rotation []string) map[string]int {
	counts := make(map[string]int)
	for _, ip := range rotation {
		counts[ip]++
	}
	return counts
}

func TestDistDefaultRotationMatchesWeights(t *testing.T) {
	t.Parallel()

	// A up with weight 2, B down with weight 1, refuse fallback: only A
	// contributes, twice.
	p := distTestPool(t, LBMethodWRR, FallbackRefuse, []testMember{
		{ip: "10.1.1.10", weight: 2, status: StatusUp},
		{ip: "10.1.1.11", weight: 1, status: StatusDown},
	})
	assert.True(t, p.Status())

	snapshot := p.DistSnapshot(rand.New(rand.NewSource(1)))

	require.Contains(t, snapshot.DistTables, DefaultDistTable)
	def := snapshot.DistTables[DefaultDistTable]
	assert.Equal(t, map[string]int{"10.1.1.10": 2}, ipCounts(def.Rotation))
	assert.Equal(t, 1, def.NumUniqueAddrs)
	assert.Equal(t, LBMethodWRR, snapshot.LBMethod)
	assert.Equal(t, 1, snapshot.MaxAddrsReturned)
}

func TestDistUnknownStatusIsNotEligible(t *testing.T) {
	t.Parallel()

	p := distTestPool(t, LBMethodWRR, FallbackRefuse, []testMember{
		{ip: "10.1.1.10", weight: 1, status: StatusUp},
		{ip: "10.1.1.11", weight: 1, status: StatusUnknown},
	})

	def := p.DistSnapshot(rand.New(rand.NewSource(1))).DistTables[DefaultDistTable]
	assert.Equal(t, map[string]int{"10.1.1.10": 1}, ipCounts(def.Rotation))
	assert.Equal(t, 1, def.NumUniqueAddrs)
}

func TestDistAllDownFallbackRefuse(t *testing.T) {
	t.Parallel()

	p := distTestPool(t, LBMethodWRR, FallbackRefuse, []testMember{
		{ip: "10.1.1.10", weight: 2, status: StatusDown},
		{ip: "10.1.1.11", weight: 1, status: StatusDown},
	})

	snapshot := p.DistSnapshot(rand.New(rand.NewSource(1)))

	require.Len(t, snapshot.DistTables, 1)
	def := snapshot.DistTables[DefaultDistTable]
	assert.Empty(t, def.Rotation)
	assert.Equal(t, 0, def.NumUniqueAddrs)
	assert.Equal(t, 0, def.Index, "empty rotation keeps index 0")
}

func TestDistAllDownFallbackAny(t *testing.T) {
	t.Parallel()

	// Configured twrr, but a full outage with "any" fallback distributes
	// all members and forces the effective method to wrr.
	p := distTestPool(t, LBMethodTWRR, FallbackAny, []testMember{
		{ip: "10.1.1.10", weight: 2, region: "r1", status: StatusDown},
		{ip: "10.1.1.11", weight: 1, region: "r2", status: StatusDown},
	})

	snapshot := p.DistSnapshot(rand.New(rand.NewSource(1)))

	assert.Equal(t, LBMethodWRR, snapshot.LBMethod)
	require.Len(t, snapshot.DistTables, 1, "no regional tables while the pool is down")
	def := snapshot.DistTables[DefaultDistTable]
	assert.Equal(t, map[string]int{"10.1.1.10": 2, "10.1.1.11": 1}, ipCounts(def.Rotation))
	assert.Equal(t, 2, def.NumUniqueAddrs)
}

func TestDistRegionalTables(t *testing.T) {
	t.Parallel()

	p := distTestPool(t, LBMethodTWRR, FallbackAny, []testMember{
		{ip: "10.1.1.10", weight: 1, region: "r1", status: StatusUp},
		{ip: "10.2.1.10", weight: 1, region: "r2", status: StatusUp},
	})

	snapshot := p.DistSnapshot(rand.New(rand.NewSource(1)))

	assert.Equal(t, LBMethodTWRR, snapshot.LBMethod)
	require.Len(t, snapshot.DistTables, 3)

	def := snapshot.DistTables[DefaultDistTable]
	assert.Equal(t, map[string]int{"10.1.1.10": 1, "10.2.1.10": 1}, ipCounts(def.Rotation))
	assert.Equal(t, 2, def.NumUniqueAddrs)

	r1 := snapshot.DistTables["r1"]
	require.NotNil(t, r1)
	assert.Equal(t, map[string]int{"10.1.1.10": 1}, ipCounts(r1.Rotation))
	assert.Equal(t, 1, r1.NumUniqueAddrs)

	r2 := snapshot.DistTables["r2"]
	require.NotNil(t, r2)
	assert.Equal(t, map[string]int{"10.2.1.10": 1}, ipCounts(r2.Rotation))
	assert.Equal(t, 1, r2.NumUniqueAddrs)
}

func TestDistRegionalDownMemberExcluded(t *testing.T) {
	t.Parallel()

	// Pool is up, so regional tables are built, but the down member's
	// region never materializes.
	p := distTestPool(t, LBMethodTWRR, FallbackAny, []testMember{
		{ip: "10.1.1.10", weight: 1, region: "r1", status: StatusUp},
		{ip: "10.2.1.10", weight: 1, region: "r2", status: StatusDown},
	})

	snapshot := p.DistSnapshot(rand.New(rand.NewSource(1)))

	require.Len(t, snapshot.DistTables, 2)
	assert.Contains(t, snapshot.DistTables, "r1")
	assert.NotContains(t, snapshot.DistTables, "r2")
}

func TestDistRegionalCountsMembersOnce(t *testing.T) {
	t.Parallel()

	// num_unique_addrs counts members, not rotation slots, in regional
	// tables as well as in _default.
	p := distTestPool(t, LBMethodTWRR, FallbackAny, []testMember{
		{ip: "10.1.1.10", weight: 3, region: "r1", status: StatusUp},
		{ip: "10.1.1.11", weight: 2, region: "r1", status: StatusUp},
	})

	snapshot := p.DistSnapshot(rand.New(rand.NewSource(1)))

	r1 := snapshot.DistTables["r1"]
	require.NotNil(t, r1)
	assert.Len(t, r1.Rotation, 5)
	assert.Equal(t, 2, r1.NumUniqueAddrs)
	assert.Equal(t, map[string]int{"10.1.1.10": 3, "10.1.1.11": 2}, ipCounts(r1.Rotation))
}

func TestDistWeightZeroNeverContributes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fallback Fallback
		status   MemberStatus
		other    MemberStatus
	}{
		{name: "zero weight member up", fallback: FallbackRefuse, status: StatusUp, other: StatusUp},
		{name: "zero weight under any fallback outage", fallback: FallbackAny, status: StatusDown, other: StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := distTestPool(t, LBMethodWRR, tt.fallback, []testMember{
				{ip: "10.1.1.10", weight: 0, status: tt.status},
				{ip: "10.1.1.11", weight: 1, status: tt.other},
			})

			def := p.DistSnapshot(rand.New(rand.NewSource(1))).DistTables[DefaultDistTable]
			assert.NotContains(t, ipCounts(def.Rotation), "10.1.1.10")
			assert.Equal(t, 1, def.NumUniqueAddrs)
		})
	}
}

func TestDistIndexWithinBounds(t *testing.T) {
	t.Parallel()

	p := distTestPool(t, LBMethodTWRR, FallbackAny, []testMember{
		{ip: "10.1.1.10", weight: 7, region: "r1", status: StatusUp},
		{ip: "10.2.1.10", weight: 3, region: "r2", status: StatusUp},
	})

	// nil rng takes the time-seeded path
	for i := 0; i < 50; i++ {
		snapshot := p.DistSnapshot(nil)
		for name, table := range snapshot.DistTables {
			assert.GreaterOrEqual(t, table.Index, 0, "table %s", name)
			if len(table.Rotation) > 0 {
				assert.Less(t, table.Index, len(table.Rotation), "table %s", name)
			} else {
				assert.Equal(t, 0, table.Index, "table %s", name)
			}
		}
	}
}

func TestDistShufflePreservesMultiset(t *testing.T) {
	t.Parallel()

	p := distTestPool(t, LBMethodWRR, FallbackAny, []testMember{
		{ip: "10.1.1.10", weight: 5, status: StatusUp},
		{ip: "10.1.1.11", weight: 3, status: StatusUp},
		{ip: "10.1.1.12", weight: 1, status: StatusUp},
	})

	want := []string{
		"10.1.1.10", "10.1.1.10", "10.1.1.10", "10.1.1.10", "10.1.1.10",
		"10.1.1.11", "10.1.1.11", "10.1.1.11",
		"10.1.1.12",
	}

	for seed := int64(0); seed < 10; seed++ {
		rotation := p.DistSnapshot(rand.New(rand.NewSource(seed))).DistTables[DefaultDistTable].Rotation
		got := append([]string(nil), rotation...)
		sort.Strings(got)
		assert.Equal(t, want, got, "seed %d", seed)
	}
}

func TestDistDeterministicWithSeededRand(t *testing.T) {
	t.Parallel()

	build := func() *DistSnapshot {
		p := distTestPool(t, LBMethodTWRR, FallbackAny, []testMember{
			{ip: "10.1.1.10", weight: 4, region: "r1", status: StatusUp},
			{ip: "10.1.1.11", weight: 2, region: "r1", status: StatusUp},
			{ip: "10.2.1.10", weight: 3, region: "r2", status: StatusUp},
		})
		return p.DistSnapshot(rand.New(rand.NewSource(42)))
	}

	first := build()
	second := build()

	// Same seed, same snapshot: identical rotations (order included) and
	// identical start indexes across all tables.
	assert.Equal(t, first, second)
}

func TestDistSnapshotIsFreshEachCall(t *testing.T) {
	t.Parallel()

	p := distTestPool(t, LBMethodWRR, FallbackRefuse, []testMember{
		{ip: "10.1.1.10", weight: 2, status: StatusUp},
		{ip: "10.1.1.11", weight: 1, status: StatusDown},
	})

	before := p.DistSnapshot(rand.New(rand.NewSource(1)))
	assert.Equal(t, 1, before.DistTables[DefaultDistTable].NumUniqueAddrs)

	// Health flips between calls; the next snapshot reflects it, the old
	// snapshot is untouched.
	p.Members["10.1.1.11"].SetStatus(StatusUp)
	after := p.DistSnapshot(rand.New(rand.NewSource(1)))

	assert.Equal(t, 1, before.DistTables[DefaultDistTable].NumUniqueAddrs)
	assert.Equal(t, 2, after.DistTables[DefaultDistTable].NumUniqueAddrs)
}
