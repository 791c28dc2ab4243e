package runtime

import (
	"testing"

	"github.com/govm-net/corevm/core"
	"github.com/stretchr/testify/require"
)

func TestTransferTokensOnChainDelegatesToNexus(t *testing.T) {
	f := newFixture(t, true, nil)
	from := core.NewAddress(core.KindUser, []byte("alice"))
	to := core.NewAddress(core.KindUser, []byte("bob"))

	ok := f.rt.TransferTokens("GOLD", from, to, 10)
	require.True(t, ok)
	require.Len(t, f.nexus.Transfers, 1)
	require.Empty(t, f.interop.Withdrawals)
}

func TestTransferTokensToInteropRaisesWithdrawal(t *testing.T) {
	f := newFixture(t, true, nil)
	from := core.NewAddress(core.KindUser, []byte("alice"))
	to := core.NewAddress(core.KindInterop, []byte("foreign"))

	ok := f.rt.TransferTokens("GOLD", from, to, 10)
	require.True(t, ok)
	require.Len(t, f.interop.Withdrawals, 1)
	require.Empty(t, f.nexus.Transfers)
}
