package runtime

import (
	"math/big"
	"testing"

	"github.com/govm-net/corevm/host"
	"github.com/stretchr/testify/require"
)

func TestGetTokenPriceFiatIsFixedByDecimals(t *testing.T) {
	f := newFixture(t, true, nil)
	f.nexus.PutToken(host.TokenInfo{Symbol: "USD", Decimals: 2, IsFiat: true})

	price, err := f.rt.GetTokenPrice("USD")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100_000_000), price) // 10^8, the fixture's FiatDecimals
}

func TestGetTokenPriceFuelIsStakingPriceOverFive(t *testing.T) {
	f := newFixture(t, true, nil)
	f.nexus.PutToken(host.TokenInfo{Symbol: "FUEL", Decimals: 8, IsFuel: true})
	f.nexus.Governance[stakingPriceGovernanceKey] = 1000

	price, err := f.rt.GetTokenPrice("FUEL")
	require.NoError(t, err)
	require.Equal(t, int64(200), price.Int64())
}

func TestGetTokenPriceReadsOracleForOtherTokens(t *testing.T) {
	f := newFixture(t, true, nil)
	f.nexus.PutToken(host.TokenInfo{Symbol: "GOLD", Decimals: 8})
	f.oh.Prices["GOLD"] = 55

	price, err := f.rt.GetTokenPrice("GOLD")
	require.NoError(t, err)
	require.Equal(t, int64(55), price.Int64())
}

func TestGetTokenPriceFaultsOnUnknownToken(t *testing.T) {
	f := newFixture(t, true, nil)
	_, err := f.rt.GetTokenPrice("NOPE")
	require.Error(t, err)
}

func TestGetTokenQuoteIdentityReturnsSameAmount(t *testing.T) {
	f := newFixture(t, true, nil)
	f.nexus.PutToken(host.TokenInfo{Symbol: "GOLD", Decimals: 8})
	f.oh.Prices["GOLD"] = 55

	amount := big.NewInt(123_456)
	result, err := f.rt.GetTokenQuote("GOLD", "GOLD", amount)
	require.NoError(t, err)
	require.Equal(t, amount, result)
}

func TestGetTokenQuoteAcrossTokens(t *testing.T) {
	f := newFixture(t, true, nil)
	f.nexus.PutToken(host.TokenInfo{Symbol: "USD", Decimals: 2, IsFiat: true})
	f.nexus.PutToken(host.TokenInfo{Symbol: "GOLD", Decimals: 8})
	f.oh.Prices["GOLD"] = 200_000_000 // GOLD prices at 2x the fiat unit (USD prices at 10^8, the fixture's FiatDecimals)

	// 1 whole GOLD (10^8 units) should quote to 2 whole USD (200 cents).
	result, err := f.rt.GetTokenQuote("GOLD", "USD", big.NewInt(100_000_000))
	require.NoError(t, err)
	require.Equal(t, int64(200), result.Int64())
}
