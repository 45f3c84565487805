package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gslberrors "github.com/polaris-gslb/polaris/internal/errors"
)

func TestPrefixResolverLongestMatch(t *testing.T) {
	t.Parallel()

	r, err := NewPrefixResolver(map[string][]string{
		"us-east":     {"10.0.0.0/8"},
		"us-east-dc1": {"10.1.0.0/16"},
		"eu-west":     {"192.168.1.0/24"},
	})
	require.NoError(t, err)

	assert.Equal(t, "us-east-dc1", r.Region("10.1.2.3"), "longest prefix wins")
	assert.Equal(t, "us-east", r.Region("10.2.3.4"))
	assert.Equal(t, "eu-west", r.Region("192.168.1.200"))
	assert.Equal(t, "", r.Region("172.16.0.1"), "no matching prefix")
	assert.Equal(t, "", r.Region("not-an-ip"))
}

func TestNewPrefixResolverValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		regions  map[string][]string
		wantCode gslberrors.ErrorCode
	}{
		{
			name:     "invalid prefix",
			regions:  map[string][]string{"r1": {"10.0.0.0/33"}},
			wantCode: gslberrors.ErrCodeConfigLoad,
		},
		{
			name:     "not a prefix at all",
			regions:  map[string][]string{"r1": {"bogus"}},
			wantCode: gslberrors.ErrCodeConfigLoad,
		},
		{
			name:     "v6 prefix rejected",
			regions:  map[string][]string{"r1": {"2001:db8::/32"}},
			wantCode: gslberrors.ErrCodeConfigLoad,
		},
		{
			name:     "empty region name",
			regions:  map[string][]string{"": {"10.0.0.0/8"}},
			wantCode: gslberrors.ErrCodeInvalidRegion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrefixResolver(tt.regions)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, gslberrors.Code(err))
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "topology.yaml")
	content := `
us-east:
  - 10.1.0.0/16
us-west:
  - 10.2.0.0/16
  - 192.168.2.0/24
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "us-east", r.Region("10.1.1.10"))
	assert.Equal(t, "us-west", r.Region("192.168.2.7"))

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, gslberrors.ErrCodeConfigLoad, gslberrors.Code(err))
}

func TestStaticResolver(t *testing.T) {
	t.Parallel()

	r := StaticResolver{"10.1.1.10": "r1"}
	assert.Equal(t, "r1", r.Region("10.1.1.10"))
	assert.Equal(t, "", r.Region("10.1.1.11"))
}
