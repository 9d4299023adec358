package scanner

// daysBeforeMonth[m] is the number of days elapsed before the first of
// month m (1-indexed, January = 1) in a non-leap year.
var daysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysSinceEpoch(year, month, day int) int64 {
	days := int64(0)
	if year >= 1970 {
		for y := 1970; y < year; y++ {
			days += 365
			if isLeap(y) {
				days++
			}
		}
	} else {
		for y := year; y < 1970; y++ {
			days -= 365
			if isLeap(y) {
				days--
			}
		}
	}
	days += int64(daysBeforeMonth[month])
	if month > 2 && isLeap(year) {
		days++
	}
	days += int64(day - 1)
	return days
}

// ParseISO8601ToNS converts a "YYYY-MM-DDTHH:MM:SS[.fff...][Z]" timestamp
// starting at payload[start] into Unix nanoseconds, treating the value as
// UTC regardless of a trailing "Z" or offset suffix. Malformed input
// yields 0.
func ParseISO8601ToNS(payload []byte, start int) int64 {
	i := start
	n := len(payload)
	if i+19 > n {
		return 0
	}

	readInt := func(width int) (int, bool) {
		v := 0
		for k := 0; k < width; k++ {
			if i >= n || payload[i] < '0' || payload[i] > '9' {
				return 0, false
			}
			v = v*10 + int(payload[i]-'0')
			i++
		}
		return v, true
	}
	expect := func(b byte) bool {
		if i >= n || payload[i] != b {
			return false
		}
		i++
		return true
	}

	year, ok := readInt(4)
	if !ok || !expect('-') {
		return 0
	}
	month, ok := readInt(2)
	if !ok || !expect('-') {
		return 0
	}
	day, ok := readInt(2)
	if !ok || !expect('T') {
		return 0
	}
	hour, ok := readInt(2)
	if !ok || !expect(':') {
		return 0
	}
	minute, ok := readInt(2)
	if !ok || !expect(':') {
		return 0
	}
	second, ok := readInt(2)
	if !ok {
		return 0
	}

	var nanos int64
	if i < n && payload[i] == '.' {
		i++
		fracStart := i
		for i < n && payload[i] >= '0' && payload[i] <= '9' {
			i++
		}
		fracLen := i - fracStart
		if fracLen > 0 {
			if fracLen > 9 {
				fracLen = 9
			}
			frac := ParseInt64(payload[:fracStart+fracLen], fracStart)
			scale := int64(1)
			for k := 0; k < 9-fracLen; k++ {
				scale *= 10
			}
			nanos = frac * scale
		}
	}

	days := daysSinceEpoch(year, month, day)
	secs := days*86400 + int64(hour)*3600 + int64(minute)*60 + int64(second)
	return secs*1e9 + nanos
}
