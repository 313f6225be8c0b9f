package serialize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metricsd/metricsd/internal/histogram"
)

func mustResolver(t *testing.T) *histogram.Resolver {
	t.Helper()
	resolver, err := histogram.NewResolver([]histogram.Pattern{
		{Match: "a", Config: histogram.Config{Min: 0, Max: 10, BinWidth: 5, NumBins: 4}},
	})
	require.NoError(t, err)
	return resolver
}
