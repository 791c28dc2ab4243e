package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadOracleDelegatesToReader(t *testing.T) {
	f := newFixture(t, true, nil)
	f.oh.Data["ipfs://doc"] = []byte("hello")

	data, err := f.rt.ReadOracle("ipfs://doc")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	// Second read is served from the oracle's cache, not a fresh pull.
	callsBefore := f.oh.PullDataCalls
	_, err = f.rt.ReadOracle("ipfs://doc")
	require.NoError(t, err)
	require.Equal(t, callsBefore, f.oh.PullDataCalls)
}
