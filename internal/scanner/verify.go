package scanner

import "encoding/json"

// VerifyDouble cross-checks ParseDouble against encoding/json for a bare
// numeric literal. It is a debug/test aid, not used on the hot path: it
// allocates and is orders of magnitude slower than ParseDouble.
func VerifyDouble(literal []byte) (fast, reference float64, match bool) {
	fast = ParseDouble(literal, 0)
	var ref float64
	if err := json.Unmarshal(literal, &ref); err != nil {
		return fast, 0, false
	}
	return fast, ref, fast == ref
}

// VerifyInt64 cross-checks ParseInt64 against encoding/json for a bare
// integer literal.
func VerifyInt64(literal []byte) (fast, reference int64, match bool) {
	fast = ParseInt64(literal, 0)
	var ref int64
	if err := json.Unmarshal(literal, &ref); err != nil {
		return fast, 0, false
	}
	return fast, ref, fast == ref
}
