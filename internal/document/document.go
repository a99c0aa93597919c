// Package document normalizes brazilian CPF/CNPJ numbers the way the
// bank file and the CRM store them: the bank pads with leading zeros,
// the CRM strips them, and deal titles carry yet another variant.
package document

import (
	"strings"

	"pipedrive-sync/internal/domain"
)

const (
	cpfLen  = 11
	cnpjLen = 14
)

// Clean keeps only the digits of a document.
func Clean(doc string) string {
	var b strings.Builder
	b.Grow(len(doc))
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func targetLen(t domain.PersonType) int {
	if t == domain.PersonTypePJ {
		return cnpjLen
	}
	return cpfLen
}

// Normalize brings a document to its canonical width for the given
// person type: last N digits when longer, zero padded when shorter.
func Normalize(doc string, t domain.PersonType) string {
	clean := Clean(doc)
	if clean == "" {
		return ""
	}
	target := targetLen(t)
	if len(clean) >= target {
		return clean[len(clean)-target:]
	}
	return zfill(clean, target)
}

// NormalizeLoose normalizes without knowing the person type, guessing
// it from the digit count.
func NormalizeLoose(doc string) string {
	clean := Clean(doc)
	if clean == "" {
		return ""
	}
	if len(clean) >= cnpjLen {
		return clean[len(clean)-cnpjLen:]
	}
	return zfill(clean, cpfLen)
}

// GuessType decides PF or PJ from the digit count alone.
func GuessType(doc string) domain.PersonType {
	if len(Clean(doc)) > cpfLen {
		return domain.PersonTypePJ
	}
	return domain.PersonTypePF
}

// Variants returns every representation of the document worth searching
// the CRM for, most likely first, deduplicated.
func Variants(doc string) []string {
	clean := Clean(doc)
	if clean == "" {
		return nil
	}

	candidates := []string{
		clean,
		strings.TrimLeft(clean, "0"),
		zfill(clean, cnpjLen),
		zfill(clean, cpfLen),
	}
	if len(clean) > cnpjLen {
		candidates = append(candidates, clean[len(clean)-cnpjLen:])
	}
	if len(clean) > cpfLen {
		candidates = append(candidates, clean[len(clean)-cpfLen:])
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FromDealTitle extracts the document from a "DOC - NAME" deal title.
// Returns "" when the title carries no digits before the separator.
func FromDealTitle(title string) string {
	prefix := title
	if idx := strings.Index(title, " - "); idx >= 0 {
		prefix = title[:idx]
	}
	digits := Clean(prefix)
	if digits == "" {
		return ""
	}
	if len(digits) <= cpfLen {
		return zfill(digits, cpfLen)
	}
	return zfill(digits, cnpjLen)
}

// ValidCPF rejects documents that cannot be a CPF: wrong width or a
// single repeated digit.
func ValidCPF(doc string) bool {
	clean := Clean(doc)
	if len(clean) != cpfLen {
		return false
	}
	first := clean[0]
	for i := 1; i < len(clean); i++ {
		if clean[i] != first {
			return true
		}
	}
	return false
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
