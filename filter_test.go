package thredds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludeExclude(t *testing.T) {
	ids := []string{"", "ds1", "icon/2016/ds1.nc", "ICON", "cat_monthly", "x.nc"}
	patterns := []string{`ds1`, `^icon`, `\.nc$`, `.*`, `monthly|daily`}

	for _, pattern := range patterns {
		inc, err := NewInclude(pattern)
		require.NoError(t, err)
		exc, err := NewExclude(pattern)
		require.NoError(t, err)

		for _, id := range ids {
			assert.Equal(t, !inc.Test(id), exc.Test(id), "pattern %q id %q", pattern, id)
		}
	}
}

func TestIncludeMatchesSubstring(t *testing.T) {
	inc, err := NewInclude(`2016`)
	require.NoError(t, err)
	assert.True(t, inc.Test("icon/2016/ds1.nc"))
	assert.False(t, inc.Test("icon/2017/ds1.nc"))
}

func TestInvalidPattern(t *testing.T) {
	_, err := NewInclude(`(`)
	assert.Error(t, err)
	_, err = NewExclude(`[`)
	assert.Error(t, err)
}

func TestPasses(t *testing.T) {
	inc, err := NewInclude(`^icon`)
	require.NoError(t, err)
	exc, err := NewExclude(`test`)
	require.NoError(t, err)

	assert.True(t, passes(nil, "anything"))
	assert.True(t, passes([]Filter{inc, exc}, "icon/run"))
	assert.False(t, passes([]Filter{inc, exc}, "icon/test"))
	assert.False(t, passes([]Filter{inc, exc}, "other"))
}
