package txtfile

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The bank file stores every value as fixed-width ASCII: dates as
// AAAAMMDD, money with two implied decimals, rates with four.

func formatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) != 8 || raw == "00000000" {
		return ""
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return raw
	}
	return t.Format("02/01/2006")
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 8 || raw == "00000000" {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseMoney(raw string) decimal.Decimal {
	return parseImplied(raw, 2)
}

func parsePercent(raw string) decimal.Decimal {
	return parseImplied(raw, 4)
}

func parseImplied(raw string, places int) decimal.Decimal {
	digits := onlyDigits(raw)
	if digits == "" {
		return decimal.Zero
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.New(n, -int32(places))
}

func parseIntField(raw string) int {
	digits := strings.TrimLeft(onlyDigits(raw), "0")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func stripZeros(raw string) string {
	raw = strings.TrimSpace(raw)
	trimmed := strings.TrimLeft(raw, "0")
	if trimmed == "" && raw != "" {
		return "0"
	}
	return trimmed
}

func onlyDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
