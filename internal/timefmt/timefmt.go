// Package timefmt converts between WCA attempt values, stored as signed
// centisecond counts, and the strings shown on the results board.
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
)

// Centi is an attempt value in hundredths of a second. Negative values are
// outcome sentinels, and zero means "no attempt recorded" (a real attempt can
// never take zero time in this domain, so 0 is free to act as the blank).
type Centi int

const (
	Blank Centi = 0
	DNF   Centi = -1
	DNS   Centi = -2
)

// IsSentinel reports whether v is a DNF/DNS outcome rather than a duration.
func (v Centi) IsSentinel() bool { return v == DNF || v == DNS }

// Countable reports whether v contributes to time-budget sums.
// Sentinels and the blank contribute nothing.
func (v Centi) Countable() bool { return v > 0 }

// Format renders v for display. Sentinels map to fixed tokens, a blank maps
// to "-", and two event kinds get special treatment:
//
//   - 333fm results under 100 are move counts, shown as a bare integer;
//   - 333mbf results are a packed integer DDSSSSSMM, where MM is the missed
//     cube count, SSSSS the elapsed seconds, and DD an inverted points offset
//     (99 - DD = points). Shown as "solved / attempted m:ss".
//
// Everything else is a duration: "S.cc" under a minute, "M:SS.cc" from one
// minute up, with seconds and hundredths zero-padded to two digits.
func Format(v Centi, eventID string) string {
	switch v {
	case Blank:
		return "-"
	case DNF:
		return "DNF"
	case DNS:
		return "DNS"
	}
	if v < 0 {
		return "DNF"
	}

	if eventID == "333fm" && v < 100 {
		return strconv.Itoa(int(v))
	}
	if eventID == "333mbf" {
		return formatMultiBlind(int(v))
	}

	if v < 6000 {
		return fmt.Sprintf("%d.%02d", v/100, v%100)
	}
	return fmt.Sprintf("%d:%02d.%02d", v/6000, (v%6000)/100, v%100)
}

func formatMultiBlind(v int) string {
	missed := v % 100
	seconds := (v / 100) % 100000
	points := 99 - v/10000000

	solved := missed + points
	attempted := 2*missed + points
	return fmt.Sprintf("%d / %d %d:%02d", solved, attempted, seconds/60, seconds%60)
}

// Parse is the left inverse of Format for ordinary events. "DNF" and "DNS"
// map back to their sentinels; a value containing ':' is read as
// minutes:seconds.hundredths, otherwise as seconds.hundredths. A comma works
// as the decimal separator. Malformed or missing segments count as zero, and
// short hundredths are right-padded ("9.5" parses as 950).
func Parse(s string) Centi {
	s = strings.TrimSpace(s)
	switch s {
	case "DNF":
		return DNF
	case "DNS":
		return DNS
	case "", "-":
		return Blank
	}

	s = strings.ReplaceAll(s, ",", ".")

	minutes := 0
	if mm, rest, found := strings.Cut(s, ":"); found {
		minutes = atoiOrZero(mm)
		s = rest
	}

	secs, centis, _ := strings.Cut(s, ".")
	for len(centis) < 2 {
		centis += "0"
	}
	return Centi(minutes*6000 + atoiOrZero(secs)*100 + atoiOrZero(centis[:2]))
}

// FormatKeystrokes turns a free-typed digit string into a canonical display
// string, the way a stackmat entry field fills from the right:
//
//	"7"      -> "0.07"
//	"123"    -> "1.23"
//	"12345"  -> "1:23.45"
//
// Non-digit characters are stripped first. An empty result stays empty.
func FormatKeystrokes(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch n := len(digits); {
	case n == 0:
		return ""
	case n <= 2:
		for len(digits) < 2 {
			digits = "0" + digits
		}
		return "0." + digits
	case n <= 4:
		return fmt.Sprintf("%d.%s", atoiOrZero(digits[:n-2]), digits[n-2:])
	default:
		return fmt.Sprintf("%d:%s.%s", atoiOrZero(digits[:n-4]), digits[n-4:n-2], digits[n-2:])
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
