package txtfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipedrive-sync/internal/domain"
	"pipedrive-sync/internal/logging"
)

// buildLine places values at 1-based columns over a space-padded record.
func buildLine(code string, width int, fields map[int]string) string {
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, code)
	for begin, v := range fields {
		copy(buf[begin-1:], v)
	}
	return string(buf)
}

func debtorLine(doc, name, personType string, extra map[int]string) string {
	fields := map[int]string{
		3:   doc,
		18:  name,
		819: personType,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return buildLine("01", 1500, fields)
}

func TestParseSingleBlock(t *testing.T) {
	lines := []string{
		buildLine("00", 100, nil),
		debtorLine("000012345678901", "JOAO DA SILVA", "01", map[int]string{
			98:  "19800215",
			106: "RUA DAS FLORES 123",
			176: "CENTRO",
			206: "MANAUS",
			236: "AM",
			238: "69000-000",
			247: "0092", 251: "999887766",
			260: "0000", 264: "000000000", // placeholder pair must be dropped
			299: "joao@example.com",
			344: "sem-arroba",
			449: "MARIA DA SILVA",
			549: "CASADO",
		}),
		buildLine("05", 200, map[int]string{
			3:   "PEDRO VIZINHO",
			103: "VIZINHO",
			153: "0092",
			157: "988776655",
		}),
		buildLine("10", 320, map[int]string{
			3:   "000000654321",
			115: "CARTEIRA COMERCIAL",
			195: "1",
			231: "00000000000150000", // 1500.00
			248: "0012",
			252: "20230105",
			260: "0000000000000777",
		}),
		buildLine("15", 170, map[int]string{
			3:   "0001",
			7:   "20240110",
			15:  "0095",
			124: "000000000100000", // 1000.00
		}),
		buildLine("20", 450, map[int]string{
			3:   "000098765432100",
			18:  "ANA AVALISTA",
			389: "AVALISTA",
			442: "01",
		}),
		buildLine("99", 100, nil),
	}

	p := NewParser(logging.NewNop())
	debtors, err := p.Parse(strings.Join(lines, "\n"))
	require.NoError(t, err)
	require.Len(t, debtors, 1)

	d := debtors[0]
	assert.Equal(t, "12345678901", d.Document)
	assert.Equal(t, domain.PersonTypePF, d.PersonType)
	assert.Equal(t, "JOAO DA SILVA", d.Name)
	assert.Equal(t, []string{"(92) 999887766"}, d.Phones)
	assert.Equal(t, []string{"joao@example.com"}, d.Emails)
	assert.Equal(t, "RUA DAS FLORES 123, CENTRO, MANAUS, AM, 69000-000", d.Address)
	assert.Equal(t, "15/02/1980", d.BirthDate)
	assert.Equal(t, "MARIA DA SILVA", d.MotherName)
	assert.Equal(t, "CASADO", d.MaritalStatus)

	assert.Equal(t, "1500.00", d.TotalDebt.String())
	assert.Equal(t, "1000.00", d.TotalOverdue.String())
	assert.Equal(t, "1000.00", d.TotalWithInterest.String())
	assert.Equal(t, 95, d.MaxDaysLate)
	assert.Equal(t, "10/01/2024", d.OldestDueDate)
	assert.Equal(t, domain.DelayTagOver90, d.DelayTagID)
	assert.Equal(t, domain.CreditConditionRestricted, d.CreditCondition)

	assert.Equal(t, "654321", d.MainContract)
	assert.Equal(t, "654321", d.AllContracts)
	assert.Equal(t, "777", d.AllOperations)
	assert.Equal(t, "CARTEIRA COMERCIAL", d.PortfolioType)
	assert.Equal(t, "12", d.TotalInstallments)

	assert.Equal(t, "JOAO DA SILVA", d.Member)
	assert.Equal(t, domain.CooperativeName, d.Cooperative)

	require.Len(t, d.References, 1)
	assert.Equal(t, "(92) 988776655", d.References[0].Phone)

	require.Len(t, d.Guarantors, 1)
	assert.Equal(t, "98765432100", d.Guarantors[0].Document)
	assert.Equal(t, "ANA AVALISTA", d.Guarantors[0].Name)
	assert.Equal(t, domain.PersonTypePF, d.Guarantors[0].PersonType)
}

func TestParseSkipsUnknownPersonType(t *testing.T) {
	lines := []string{
		debtorLine("000012345678901", "JOAO", "XX", nil),
		debtorLine("000012345678000", "EMPRESA LTDA", "02", nil),
	}

	p := NewParser(logging.NewNop())
	debtors, err := p.Parse(strings.Join(lines, "\n"))
	require.NoError(t, err)
	require.Len(t, debtors, 1)
	assert.Equal(t, domain.PersonTypePJ, debtors[0].PersonType)
	assert.Equal(t, "00012345678000", debtors[0].Document)
}

func TestParseSkipsRepeatedDigitCPF(t *testing.T) {
	lines := []string{
		debtorLine("000011111111111", "FRAUDE DA SILVA", "01", nil),
		debtorLine("000012345678901", "JOAO", "01", nil),
	}

	p := NewParser(logging.NewNop())
	debtors, err := p.Parse(strings.Join(lines, "\n"))
	require.NoError(t, err)
	require.Len(t, debtors, 1)
	assert.Equal(t, "12345678901", debtors[0].Document)
}

func TestParseCleanCondition(t *testing.T) {
	lines := []string{
		debtorLine("000012345678901", "JOAO", "01", nil),
		buildLine("15", 170, map[int]string{
			7:   "21000101", // future due date stays out of the overdue total
			15:  "0010",
			124: "000000000050000",
		}),
	}

	p := NewParser(logging.NewNop())
	debtors, err := p.Parse(strings.Join(lines, "\n"))
	require.NoError(t, err)
	require.Len(t, debtors, 1)

	d := debtors[0]
	assert.Equal(t, domain.CreditConditionClean, d.CreditCondition)
	assert.Equal(t, domain.DelayTagUpTo90, d.DelayTagID)
	assert.True(t, d.TotalOverdue.IsZero())
	assert.Equal(t, "500.00", d.TotalWithInterest.String())
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "05/01/2023", formatDate("20230105"))
	assert.Equal(t, "", formatDate("00000000"))
	assert.Equal(t, "99999999", formatDate("99999999"))

	assert.Equal(t, "1500.00", parseMoney("00000000000150000").String())
	assert.Equal(t, "0.05", parseMoney("005").String())
	assert.True(t, parseMoney("").IsZero())

	assert.Equal(t, "1.2345", parsePercent("00000012345").String())

	assert.Equal(t, "123", stripZeros("000123"))
	assert.Equal(t, "0", stripZeros("0000"))
	assert.Equal(t, "", stripZeros(""))

	assert.Equal(t, 95, parseIntField("0095"))
	assert.Equal(t, 0, parseIntField("    "))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(92) 999887766", formatPhone("0092", "999887766"))
	assert.Equal(t, "", formatPhone("0000", "999887766"))
	assert.Equal(t, "", formatPhone("0092", "000000000"))
	assert.Equal(t, "", formatPhone("", "999887766"))
}

func TestDocumentSet(t *testing.T) {
	debtors := []domain.Debtor{
		{PersonType: domain.PersonTypePF, Document: "12345678901"},
		{PersonType: domain.PersonTypePJ, Document: "12345678000195"},
	}
	set := DocumentSet(debtors)
	assert.True(t, set[SetKey(domain.PersonTypePF, "12345678901")])
	assert.True(t, set["pj:12345678000195"])
	assert.False(t, set["pf:000"])
}
