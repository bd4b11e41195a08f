package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateClampsSize(t *testing.T) {
	offset, limit := Calculate(1, 1000)
	require.Equal(t, 0, offset)
	require.Equal(t, MaxPageSize, limit)

	offset, limit = Calculate(3, 1000)
	require.Equal(t, 200, offset)
	require.Equal(t, MaxPageSize, limit)
}

func TestCalculateDefaults(t *testing.T) {
	offset, limit := Calculate(0, 0)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, limit)

	offset, limit = Calculate(-5, -1)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, limit)

	offset, limit = Calculate(2, 10)
	require.Equal(t, 10, offset)
	require.Equal(t, 10, limit)
}

func TestParseIntDefault(t *testing.T) {
	require.Equal(t, 7, ParseIntDefault("", 7))
	require.Equal(t, 42, ParseIntDefault("42", 7))
	require.Equal(t, 7, ParseIntDefault("junk", 7))
}

func TestMeta(t *testing.T) {
	m := Meta(2, 10, 10, 25)
	require.EqualValues(t, 3, m["total_pages"])
	require.Equal(t, true, m["has_prev"])
	require.Equal(t, true, m["has_next"])

	last := Meta(3, 10, 20, 25)
	require.Equal(t, false, last["has_next"])
}
