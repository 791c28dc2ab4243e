package runtime

import "encoding/binary"

// lcgMultiplier and lcgModulus are the Lehmer/Park-Miller constants
// fixed by §4.E GetRandomNumber: a = 16807, m = 2^31 - 1.
const (
	lcgMultiplier = 16807
	lcgModulus    = (1 << 31) - 1
)

// GetRandomNumber implements §4.E GetRandomNumber: a deterministic LCG
// seeded lazily from the transaction hash, entry script, and block
// time, advancing on every subsequent call.
func (rt *Runtime) GetRandomNumber() int64 {
	if !rt.randInited {
		rt.randState = rt.seedFromTransaction()
		rt.randInited = true
		return int64(rt.randState)
	}
	rt.randState = uint32((uint64(lcgMultiplier) * uint64(rt.randState)) % lcgModulus)
	return int64(rt.randState)
}

// seedFromTransaction computes H = transaction.hash XOR entryScript XOR
// little_endian(time), byte-wise with wrapping index, and folds its
// first four bytes into a nonzero LCG seed.
func (rt *Runtime) seedFromTransaction() uint32 {
	hash := rt.Transaction.Hash[:]
	script := rt.entryScript

	var timeBytes [8]byte
	binary.LittleEndian.PutUint64(timeBytes[:], uint64(rt.Now.UnixNano()))

	n := len(hash)
	if len(script) > n {
		n = len(script)
	}
	if len(timeBytes) > n {
		n = len(timeBytes)
	}
	if n == 0 {
		return 1
	}

	mixed := make([]byte, n)
	for i := 0; i < n; i++ {
		var b byte
		b ^= hash[i%len(hash)]
		if len(script) > 0 {
			b ^= script[i%len(script)]
		}
		b ^= timeBytes[i%len(timeBytes)]
		mixed[i] = b
	}

	var seed uint32
	for i := 0; i < 4 && i < len(mixed); i++ {
		seed |= uint32(mixed[i]) << (8 * uint(i))
	}
	seed %= lcgModulus
	if seed == 0 {
		seed = 1
	}
	return seed
}
