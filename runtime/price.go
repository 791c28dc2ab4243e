package runtime

import (
	"math/big"

	"github.com/govm-net/corevm/value"
)

// stakingPriceGovernanceKey is the Nexus governance value backing the
// fuel-token shortcut in GetTokenPrice.
const stakingPriceGovernanceKey = "StakingPrice"

// GetTokenPrice implements §4.E GetTokenPrice: fiat tokens price at
// 10^FiatDecimals, the fuel token prices at StakingPrice/5, and every
// other registered token is priced through the Oracle's price:// URL.
func (rt *Runtime) GetTokenPrice(symbol string) (*big.Int, error) {
	info, err := rt.Nexus.GetTokenInfo(symbol)
	if err != nil {
		return nil, fault("GetTokenPrice", "unknown token %q: %v", symbol, err)
	}

	if info.IsFiat {
		return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(rt.cfg.FiatDecimals)), nil), nil
	}
	if info.IsFuel {
		staking, err := rt.Nexus.GetGovernanceValue(stakingPriceGovernanceKey)
		if err != nil {
			return nil, fault("GetTokenPrice", "staking price unavailable: %v", err)
		}
		return new(big.Int).Div(big.NewInt(staking), big.NewInt(5)), nil
	}

	raw, err := rt.Oracle.Read(rt.Now, "price://"+symbol)
	if err != nil {
		return nil, fault("GetTokenPrice", "oracle unavailable for %q: %v", symbol, err)
	}
	price, err := value.Bytes(raw).AsInteger()
	if err != nil {
		return nil, fault("GetTokenPrice", "malformed oracle price for %q: %v", symbol, err)
	}
	return price, nil
}

// GetTokenQuote implements §4.E GetTokenQuote: amount * basePrice,
// decimal-normalized to fiat decimals, divided by quotePrice, then
// normalized to quote decimals — computed as one combined
// multiply-then-divide so the base and quote decimal/price factors
// cancel exactly when base == quote, satisfying
// GetTokenQuote(A, A, x) == x. Division truncates toward zero.
func (rt *Runtime) GetTokenQuote(base, quote string, amount *big.Int) (*big.Int, error) {
	basePrice, err := rt.GetTokenPrice(base)
	if err != nil {
		return nil, err
	}
	quotePrice, err := rt.GetTokenPrice(quote)
	if err != nil {
		return nil, err
	}
	if quotePrice.Sign() == 0 {
		return nil, fault("GetTokenQuote", "quote price for %q is zero", quote)
	}

	baseInfo, err := rt.Nexus.GetTokenInfo(base)
	if err != nil {
		return nil, fault("GetTokenQuote", "unknown token %q: %v", base, err)
	}
	quoteInfo, err := rt.Nexus.GetTokenInfo(quote)
	if err != nil {
		return nil, fault("GetTokenQuote", "unknown token %q: %v", quote, err)
	}

	quoteScale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(quoteInfo.Decimals)), nil)
	baseScale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(baseInfo.Decimals)), nil)

	numerator := new(big.Int).Mul(amount, basePrice)
	numerator.Mul(numerator, quoteScale)
	denominator := new(big.Int).Mul(quotePrice, baseScale)

	return new(big.Int).Quo(numerator, denominator), nil
}

func (rt *Runtime) extcallGetTokenPrice(args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Value{}, fault("gettokenprice", "expected 1 argument")
	}
	symbol, err := args[0].AsString()
	if err != nil {
		return value.Value{}, err
	}
	price, err := rt.GetTokenPrice(symbol)
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(price), nil
}

func (rt *Runtime) extcallGetTokenQuote(args []value.Value) (value.Value, error) {
	if len(args) < 3 {
		return value.Value{}, fault("gettokenquote", "expected 3 arguments")
	}
	base, err := args[0].AsString()
	if err != nil {
		return value.Value{}, err
	}
	quote, err := args[1].AsString()
	if err != nil {
		return value.Value{}, err
	}
	amount, err := args[2].AsInteger()
	if err != nil {
		return value.Value{}, err
	}
	result, err := rt.GetTokenQuote(base, quote, amount)
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(result), nil
}
