package runtime

import "github.com/govm-net/corevm/value"

// ReadOracle implements §4.E ReadOracle: a thin, cache-aware wrapper
// over the Oracle Reader scoped to the current transaction's time.
func (rt *Runtime) ReadOracle(url string) ([]byte, error) {
	return rt.Oracle.Read(rt.Now, url)
}

func (rt *Runtime) extcallReadOracle(args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Value{}, fault("readoracle", "expected 1 argument")
	}
	url, err := args[0].AsString()
	if err != nil {
		return value.Value{}, err
	}
	data, err := rt.ReadOracle(url)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bytes(data), nil
}
