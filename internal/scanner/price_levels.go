package scanner

import "github.com/driftfeed/marketfeed/internal/model"

// ParsePriceQtyArray parses a JSON array of price/size levels starting at
// or before payload[start]'s '[' (leading whitespace is skipped). It
// tolerates two shapes seen across venues: pair arrays
// ([["100.1","0.5"], [100.2, 0.25]]) and object arrays
// ([{"price":"100.1","size":"0.5"}]), with "qty" accepted as a synonym for
// "size". It returns the parsed levels and the offset just past the
// array's closing ']'.
func ParsePriceQtyArray(payload []byte, start int) ([]model.PriceLevel, int) {
	i := skipSpace(payload, start)
	n := len(payload)
	if i >= n || payload[i] != '[' {
		return nil, i
	}
	i++

	var levels []model.PriceLevel
	for {
		i = skipSpace(payload, i)
		if i >= n {
			return levels, i
		}
		if payload[i] == ']' {
			return levels, i + 1
		}

		var level model.PriceLevel
		var ok bool
		switch payload[i] {
		case '[':
			level, i, ok = parsePairLevel(payload, i)
		case '{':
			level, i, ok = parseObjectLevel(payload, i)
		default:
			return levels, skipToArrayEnd(payload, i)
		}
		if !ok {
			return levels, skipToArrayEnd(payload, i)
		}
		levels = append(levels, level)

		i = skipSpace(payload, i)
		if i < n && payload[i] == ',' {
			i++
		}
	}
}

func parsePairLevel(payload []byte, i int) (model.PriceLevel, int, bool) {
	n := len(payload)
	i++ // consume '['
	price, i, ok := parseNumberOrQuoted(payload, i)
	if !ok {
		return model.PriceLevel{}, i, false
	}
	i = skipSpace(payload, i)
	if i >= n || payload[i] != ',' {
		return model.PriceLevel{}, i, false
	}
	i++
	size, i, ok := parseNumberOrQuoted(payload, i)
	if !ok {
		return model.PriceLevel{}, i, false
	}
	i = skipSpace(payload, i)
	for i < n && payload[i] != ']' {
		i++
	}
	if i < n {
		i++ // consume ']'
	}
	return model.PriceLevel{Price: price, Size: size}, i, true
}

func parseObjectLevel(payload []byte, i int) (model.PriceLevel, int, bool) {
	end := ObjectEnd(payload, i)
	if end < 0 {
		return model.PriceLevel{}, len(payload), false
	}
	obj := payload[i:end]

	level := model.PriceLevel{}
	if v, ok := FindValueAfterKey(obj, "price"); ok {
		level.Price = ParseDouble(obj, v)
	}
	if v, ok := FindValueAfterKey(obj, "size"); ok {
		level.Size = ParseDouble(obj, v)
	} else if v, ok := FindValueAfterKey(obj, "qty"); ok {
		level.Size = ParseDouble(obj, v)
	}
	return level, end, true
}

// ObjectEnd returns the offset just past the closing '}' of the object
// beginning at payload[start] (payload[start] must be '{'), accounting
// for nested braces and quoted strings. It returns -1 if the object is
// unterminated.
func ObjectEnd(payload []byte, start int) int {
	depth := 0
	i := start
	n := len(payload)
	for i < n {
		switch payload[i] {
		case '"':
			i++
			for i < n && payload[i] != '"' {
				if payload[i] == '\\' {
					i++
				}
				i++
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return -1
}

func parseNumberOrQuoted(payload []byte, i int) (float64, int, bool) {
	i = skipSpace(payload, i)
	n := len(payload)
	if i >= n {
		return 0, i, false
	}
	if payload[i] == '"' {
		i++
		v := ParseDouble(payload, i)
		for i < n && payload[i] != '"' {
			i++
		}
		if i < n {
			i++
		}
		return v, i, true
	}
	v := ParseDouble(payload, i)
	for i < n && (payload[i] == '-' || payload[i] == '+' || payload[i] == '.' || (payload[i] >= '0' && payload[i] <= '9')) {
		i++
	}
	return v, i, true
}

func skipSpace(payload []byte, i int) int {
	for i < len(payload) && IsSpace(payload[i]) {
		i++
	}
	return i
}

func skipToArrayEnd(payload []byte, i int) int {
	depth := 1
	n := len(payload)
	for i < n {
		switch payload[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"':
			i++
			for i < n && payload[i] != '"' {
				if payload[i] == '\\' {
					i++
				}
				i++
			}
		}
		i++
	}
	return n
}
