// Package topology maps member IP addresses to topology regions for
// region-aware distribution.
package topology

import (
	"net/netip"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

// Resolver resolves a member IP address to its topology region. An empty
// result means no region is known for the address.
type Resolver interface {
	Region(ip string) string
}

// prefixEntry associates one network prefix with a region
type prefixEntry struct {
	prefix netip.Prefix
	region string
}

// PrefixResolver resolves regions by longest-prefix match over a static map
// of IPv4 networks.
type PrefixResolver struct {
	entries []prefixEntry
}

// NewPrefixResolver builds a resolver from a region → network list mapping,
// as found in the topology configuration file:
//
//	us-east:
//	  - 10.1.0.0/16
//	  - 192.168.1.0/24
//	us-west:
//	  - 10.2.0.0/16
func NewPrefixResolver(regions map[string][]string) (*PrefixResolver, error) {
	r := &PrefixResolver{}

	for region, networks := range regions {
		if region == "" {
			return nil, gslberrors.New(gslberrors.ErrCodeInvalidRegion,
				"topology map contains an empty region name")
		}
		for _, network := range networks {
			prefix, err := netip.ParsePrefix(network)
			if err != nil {
				return nil, gslberrors.Wrap(err, gslberrors.ErrCodeConfigLoad,
					"region %q network %q is not a valid prefix", region, network)
			}
			if !prefix.Addr().Is4() {
				return nil, gslberrors.New(gslberrors.ErrCodeConfigLoad,
					"region %q network %q: only v4 networks are supported",
					region, network)
			}
			r.entries = append(r.entries, prefixEntry{
				prefix: prefix.Masked(),
				region: region,
			})
		}
	}

	// Longest prefix first, so the first containing entry wins.
	sort.Slice(r.entries, func(i, j int) bool {
		return r.entries[i].prefix.Bits() > r.entries[j].prefix.Bits()
	})

	return r, nil
}

// LoadFromFile builds a PrefixResolver from a YAML topology file
func LoadFromFile(filename string) (*PrefixResolver, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, gslberrors.Wrap(err, gslberrors.ErrCodeConfigLoad,
			"failed to read topology file %s", filename)
	}

	regions := make(map[string][]string)
	if err := yaml.Unmarshal(data, &regions); err != nil {
		return nil, gslberrors.Wrap(err, gslberrors.ErrCodeConfigLoad,
			"failed to parse topology file %s", filename)
	}

	return NewPrefixResolver(regions)
}

// Region returns the region of the longest prefix containing ip, or an
// empty string when the address is unparseable or matches no prefix.
func (r *PrefixResolver) Region(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	for _, e := range r.entries {
		if e.prefix.Contains(addr) {
			return e.region
		}
	}
	return ""
}

// StaticResolver resolves regions from a fixed ip → region map. Mostly
// useful in tests.
type StaticResolver map[string]string

// Region returns the mapped region for ip, or an empty string
func (r StaticResolver) Region(ip string) string {
	return r[ip]
}
