// Package scanner implements hand-rolled, allocation-free primitives for
// pulling fields out of the known, shallow JSON shapes venues send. It is
// not a general JSON parser: it exploits the fact that every message this
// codebase cares about has a known field layout.
package scanner

// powersOfTen is used as the fractional divisor table in ParseDouble: a
// fractional part of length n is divided by powersOfTen[n].
var powersOfTen = [19]float64{
	1,
	10,
	100,
	1000,
	10000,
	100000,
	1000000,
	10000000,
	100000000,
	1000000000,
	10000000000,
	100000000000,
	1000000000000,
	10000000000000,
	100000000000000,
	1000000000000000,
	10000000000000000,
	100000000000000000,
	1000000000000000000,
}

// IsSpace reports whether b is JSON insignificant whitespace.
func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func indexOf(payload, key []byte) int {
	if len(key) == 0 || len(payload) < len(key) {
		return -1
	}
outer:
	for i := 0; i <= len(payload)-len(key); i++ {
		for j := 0; j < len(key); j++ {
			if payload[i+j] != key[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

// FindValueAfterKey locates the first occurrence of "key": in payload,
// skips the colon and any whitespace, and returns the byte offset of the
// first byte of the value. For a quoted string value, the offset points
// past the opening quote. It returns -1, false if the key is absent or
// the value is truncated.
func FindValueAfterKey(payload []byte, key string) (int, bool) {
	quoted := make([]byte, 0, len(key)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, key...)
	quoted = append(quoted, '"')

	idx := indexOf(payload, quoted)
	if idx < 0 {
		return -1, false
	}
	i := idx + len(quoted)
	for i < len(payload) && payload[i] != ':' {
		i++
	}
	if i >= len(payload) {
		return -1, false
	}
	i++
	for i < len(payload) && IsSpace(payload[i]) {
		i++
	}
	if i >= len(payload) {
		return -1, false
	}
	if payload[i] == '"' {
		i++
		if i >= len(payload) {
			return -1, false
		}
	}
	return i, true
}

// ParseDouble parses a decimal number starting at payload[start] and
// returns its value. It stops at the first byte that is neither a digit
// nor '.', ignores exponent notation, and returns 0.0 for malformed
// input. It does not allocate.
func ParseDouble(payload []byte, start int) float64 {
	i := start
	n := len(payload)
	if i >= n {
		return 0
	}

	neg := false
	if payload[i] == '-' {
		neg = true
		i++
	} else if payload[i] == '+' {
		i++
	}

	var intPart float64
	sawDigit := false
	for i < n && payload[i] >= '0' && payload[i] <= '9' {
		intPart = intPart*10 + float64(payload[i]-'0')
		i++
		sawDigit = true
	}

	var fracPart float64
	fracLen := 0
	if i < n && payload[i] == '.' {
		i++
		for i < n && payload[i] >= '0' && payload[i] <= '9' && fracLen < len(powersOfTen)-1 {
			fracPart = fracPart*10 + float64(payload[i]-'0')
			i++
			fracLen++
			sawDigit = true
		}
		for i < n && payload[i] >= '0' && payload[i] <= '9' {
			i++
		}
	}

	if !sawDigit {
		return 0
	}

	v := intPart + fracPart/powersOfTen[fracLen]
	if neg {
		v = -v
	}
	return v
}

// ParseInt64 parses an optionally signed integer starting at
// payload[start] and returns its value, stopping at the first non-digit
// byte. Malformed input yields 0.
func ParseInt64(payload []byte, start int) int64 {
	i := start
	n := len(payload)
	if i >= n {
		return 0
	}

	neg := false
	if payload[i] == '-' {
		neg = true
		i++
	} else if payload[i] == '+' {
		i++
	}

	var v int64
	sawDigit := false
	for i < n && payload[i] >= '0' && payload[i] <= '9' {
		v = v*10 + int64(payload[i]-'0')
		i++
		sawDigit = true
	}
	if !sawDigit {
		return 0
	}
	if neg {
		v = -v
	}
	return v
}

// ScanString extracts the quoted string value beginning at
// payload[start] (with the opening quote already consumed, as returned
// by FindValueAfterKey). It returns a slice into payload, not a copy,
// so the result is only valid as long as the backing frame is alive.
func ScanString(payload []byte, start int) ([]byte, bool) {
	i := start
	n := len(payload)
	for i < n && payload[i] != '"' {
		if payload[i] == '\\' {
			i++
		}
		i++
	}
	if i >= n {
		return nil, false
	}
	return payload[start:i], true
}
