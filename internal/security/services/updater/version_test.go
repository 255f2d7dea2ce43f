package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		installed, remote string
		want              bool
	}{
		{"1.0", "1.2", true},
		{"1.0", "1.0", false},
		{"1.0", "1.0.0", false},
		{"1.2", "1.0", false},
		{"1.9", "1.10", true},
		{"1.0.0-beta", "1.0.0", true},
		{"v1.0", "1.0.1", true},
		{"1.0", "1.2\n", true},
		{" 1.0 ", "\t1.0\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.installed+"->"+tt.remote, func(t *testing.T) {
			got, err := isNewer(tt.installed, tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNewer_Errors(t *testing.T) {
	_, err := isNewer("one", "1.0")
	assert.Error(t, err)
	_, err = isNewer("1.0", "")
	assert.Error(t, err)
}

// Missing trailing components count as zero, so padding a version with ".0"
// never produces an offer.
func TestIsNewer_TrailingZerosAreEqual(t *testing.T) {
	for _, pair := range [][2]string{{"1.0", "1.0.0"}, {"1.0.0", "1.0"}, {"2", "2.0.0.0"}} {
		got, err := isNewer(pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, got, "%s -> %s", pair[0], pair[1])
	}
}
