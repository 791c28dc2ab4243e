package runtime

import "github.com/govm-net/corevm/value"

// EncodeGasEscrowPayload builds the Notify data payload for a
// GasEscrow event: {price, amount}.
func EncodeGasEscrowPayload(price, amount int64) []byte {
	s := value.NewStruct()
	s.Set("price", value.Int64(price))
	s.Set("amount", value.Int64(amount))
	return value.Encode(value.StructVal(s))
}

// EncodeGasPaymentPayload builds the Notify data payload for a
// GasPayment event: {amount}.
func EncodeGasPaymentPayload(amount int64) []byte {
	s := value.NewStruct()
	s.Set("amount", value.Int64(amount))
	return value.Encode(value.StructVal(s))
}

func decodeEscrowPayload(data []byte) (price, amount int64) {
	v, _, err := value.Decode(data)
	if err != nil {
		return 0, 0
	}
	s, err := v.AsStruct()
	if err != nil {
		return 0, 0
	}
	if p, ok := s.Get("price"); ok {
		if i, err := p.AsInteger(); err == nil {
			price = i.Int64()
		}
	}
	if a, ok := s.Get("amount"); ok {
		if i, err := a.AsInteger(); err == nil {
			amount = i.Int64()
		}
	}
	return price, amount
}

func decodeAmountPayload(data []byte) int64 {
	v, _, err := value.Decode(data)
	if err != nil {
		return 0
	}
	s, err := v.AsStruct()
	if err != nil {
		return 0
	}
	if a, ok := s.Get("amount"); ok {
		if i, err := a.AsInteger(); err == nil {
			return i.Int64()
		}
	}
	return 0
}
