package pipedrive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pipedrive-sync/internal/document"
	"pipedrive-sync/internal/domain"
)

// maxTextLen is the CRM limit for text fields.
const maxTextLen = 255

var (
	dateFields = map[string]bool{
		"DATA_NASCIMENTO":        true,
		"VENCIMENTO_MAIS_ANTIGO": true,
		"DATA_ABERTURA":          true,
	}
	moneyFields = map[string]bool{
		"VALOR_TOTAL_DA_DIVIDA": true,
		"VALOR_TOTAL_VENCIDO":   true,
		"VALOR_TOTAL_COM_JUROS": true,
		"VALOR_MINIMO":          true,
	}
	intFields = map[string]bool{
		"IDADE":          true,
		"DIAS_DE_ATRASO": true,
	}
	// fields where the CRM expects an empty string, never a null
	keepEmptyFields = map[string]bool{
		"CONTRATO_GARANTINORTE": true,
		"AVALISTAS":             true,
	}
)

// marital status option IDs of the ESTADO_CIVIL enum field
var maritalOptions = []struct {
	keyword string
	id      int
}{
	{"DIVORCIADO", 123},
	{"SEPARADO", 124},
	{"SOLTEIRO", 103},
	{"VIUVO", 104},
	{"CASADO", 102},
}

const maritalDefault = 103

var streetNumberRe = regexp.MustCompile(`\d+`)

// FormatFieldValue shapes one logical field value the way API v2
// expects it: dates as ISO, money as value+currency objects, enums as
// option IDs and everything textual clipped to the field limit.
// A nil return means the field must be omitted from the request.
func FormatFieldValue(name string, value any) any {
	switch {
	case dateFields[name]:
		return formatDateValue(value)
	case moneyFields[name]:
		return formatMoneyValue(value)
	case intFields[name]:
		return formatIntValue(value)
	case name == "ID_CPF_CNPJ" || name == "CPF" || name == "CPF_CNPJ":
		s := document.Clean(fmt.Sprint(value))
		if s == "" {
			return nil
		}
		return s
	case name == "ESTADO_CIVIL":
		return formatMaritalStatus(value)
	case name == "CONDICAO_CPF":
		s := strings.TrimSpace(fmt.Sprint(value))
		if s == "" {
			return nil
		}
		if strings.EqualFold(s, domain.CreditConditionClean) {
			s = "NORMAL"
		}
		return truncate(s, maxTextLen)
	case name == "TAG_ATRASO":
		return formatDelayTag(value)
	case name == "ENDERECO":
		return formatAddress(value)
	}

	return formatDefault(name, value)
}

func formatDefault(name string, value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			if keepEmptyFields[name] {
				return ""
			}
			return nil
		}
		return truncate(s, maxTextLen)
	case decimal.Decimal:
		return v.InexactFloat64()
	case int, int32, int64, float32, float64:
		return v
	case []string:
		if len(v) == 0 {
			return nil
		}
		return truncate(strings.Join(v, "; "), maxTextLen)
	default:
		return v
	}
}

func formatDateValue(value any) any {
	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" || s == "<nil>" {
		return nil
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func formatMoneyValue(value any) any {
	var f float64
	switch v := value.(type) {
	case decimal.Decimal:
		f = v.InexactFloat64()
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		f = parsed.InexactFloat64()
	default:
		return nil
	}
	if f <= 0 {
		return nil
	}
	return map[string]any{"value": f, "currency": "BRL"}
}

func formatIntValue(value any) any {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return n
	default:
		return nil
	}
}

func formatMaritalStatus(value any) any {
	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" || s == "<nil>" {
		return nil
	}
	folded := strings.ToUpper(stripAccents(s))
	for _, opt := range maritalOptions {
		if strings.Contains(folded, opt.keyword) {
			return opt.id
		}
	}
	return maritalDefault
}

func formatDelayTag(value any) any {
	switch v := value.(type) {
	case []int:
		if len(v) == 0 {
			return nil
		}
		return v
	case int:
		if v == domain.DelayTagUpTo90 || v == domain.DelayTagOver90 {
			return []int{v}
		}
		if v > domain.DelayThreshold {
			return []int{domain.DelayTagOver90}
		}
		return []int{domain.DelayTagUpTo90}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return formatDelayTag(n)
	default:
		return nil
	}
}

// formatAddress turns the consolidated "street, district, city, state,
// zip" line into the structured address object of API v2.
func formatAddress(value any) any {
	full := strings.TrimSpace(fmt.Sprint(value))
	if full == "" || full == "<nil>" {
		return nil
	}

	parts := strings.Split(full, ", ")
	addr := map[string]any{
		"value":             truncate(full, maxTextLen),
		"country":           "Brasil",
		"formatted_address": truncate(full, maxTextLen),
	}

	if len(parts) > 0 && parts[0] != "" {
		addr["route"] = parts[0]
		if num := streetNumberRe.FindString(parts[0]); num != "" {
			addr["street_number"] = num
		}
	}
	if len(parts) > 1 && parts[1] != "" {
		addr["sublocality"] = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		addr["locality"] = parts[2]
		addr["admin_area_level_2"] = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		addr["admin_area_level_1"] = parts[3]
	}
	if len(parts) > 4 && parts[4] != "" {
		addr["postal_code"] = parts[4]
	}
	return addr
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
