package pipedrive

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDateFields(t *testing.T) {
	assert.Equal(t, "1980-02-15", FormatFieldValue("DATA_NASCIMENTO", "15/02/1980"))
	assert.Equal(t, "2024-01-10", FormatFieldValue("VENCIMENTO_MAIS_ANTIGO", "10/01/2024"))
	assert.Nil(t, FormatFieldValue("DATA_NASCIMENTO", ""))
	assert.Nil(t, FormatFieldValue("DATA_NASCIMENTO", "nao-e-data"))
}

func TestFormatMoneyFields(t *testing.T) {
	got := FormatFieldValue("VALOR_TOTAL_DA_DIVIDA", decimal.NewFromFloat(1500.50))
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1500.50, m["value"])
	assert.Equal(t, "BRL", m["currency"])

	assert.Nil(t, FormatFieldValue("VALOR_TOTAL_VENCIDO", decimal.Zero))
	assert.Nil(t, FormatFieldValue("VALOR_TOTAL_COM_JUROS", "abc"))

	got = FormatFieldValue("VALOR_TOTAL_COM_JUROS", "2000.00")
	m, ok = got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2000.0, m["value"])
}

func TestFormatIntFields(t *testing.T) {
	assert.Equal(t, 95, FormatFieldValue("DIAS_DE_ATRASO", 95))
	assert.Equal(t, 42, FormatFieldValue("IDADE", "42"))
	assert.Nil(t, FormatFieldValue("IDADE", "quarenta"))
}

func TestFormatDocumentFields(t *testing.T) {
	assert.Equal(t, "12345678901", FormatFieldValue("ID_CPF_CNPJ", "123.456.789-01"))
	assert.Equal(t, "12345678901", FormatFieldValue("CPF", "12345678901"))
	assert.Nil(t, FormatFieldValue("ID_CPF_CNPJ", "---"))
}

func TestFormatMaritalStatus(t *testing.T) {
	assert.Equal(t, 102, FormatFieldValue("ESTADO_CIVIL", "Casado(a)"))
	assert.Equal(t, 103, FormatFieldValue("ESTADO_CIVIL", "SOLTEIRO"))
	assert.Equal(t, 104, FormatFieldValue("ESTADO_CIVIL", "Viúvo"))
	assert.Equal(t, 123, FormatFieldValue("ESTADO_CIVIL", "divorciado"))
	assert.Equal(t, 124, FormatFieldValue("ESTADO_CIVIL", "SEPARADO JUDICIALMENTE"))
	// unknown values fall back to single
	assert.Equal(t, 103, FormatFieldValue("ESTADO_CIVIL", "UNIAO ESTAVEL"))
	assert.Nil(t, FormatFieldValue("ESTADO_CIVIL", ""))
}

func TestFormatCreditCondition(t *testing.T) {
	assert.Equal(t, "NORMAL", FormatFieldValue("CONDICAO_CPF", "LIMPO"))
	assert.Equal(t, "RESTRITO", FormatFieldValue("CONDICAO_CPF", "RESTRITO"))
	assert.Nil(t, FormatFieldValue("CONDICAO_CPF", " "))
}

func TestFormatDelayTag(t *testing.T) {
	assert.Equal(t, []int{121}, FormatFieldValue("TAG_ATRASO", 121))
	assert.Equal(t, []int{122}, FormatFieldValue("TAG_ATRASO", 122))
	assert.Equal(t, []int{122}, FormatFieldValue("TAG_ATRASO", 120)) // days, not a tag id
	assert.Equal(t, []int{121}, FormatFieldValue("TAG_ATRASO", 30))
	assert.Equal(t, []int{121, 122}, FormatFieldValue("TAG_ATRASO", []int{121, 122}))
	assert.Nil(t, FormatFieldValue("TAG_ATRASO", "x"))
}

func TestFormatAddress(t *testing.T) {
	got := FormatFieldValue("ENDERECO", "RUA DAS FLORES 123, CENTRO, MANAUS, AM, 69000-000")
	addr, ok := got.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "RUA DAS FLORES 123", addr["route"])
	assert.Equal(t, "123", addr["street_number"])
	assert.Equal(t, "CENTRO", addr["sublocality"])
	assert.Equal(t, "MANAUS", addr["locality"])
	assert.Equal(t, "MANAUS", addr["admin_area_level_2"])
	assert.Equal(t, "AM", addr["admin_area_level_1"])
	assert.Equal(t, "69000-000", addr["postal_code"])
	assert.Equal(t, "Brasil", addr["country"])

	assert.Nil(t, FormatFieldValue("ENDERECO", ""))
}

func TestFormatDefaultTruncates(t *testing.T) {
	long := strings.Repeat("A", 300)
	got := FormatFieldValue("COOPERADO", long)
	assert.Len(t, got, maxTextLen)
}

func TestFormatKeepsEmptyForContractFields(t *testing.T) {
	assert.Equal(t, "", FormatFieldValue("CONTRATO_GARANTINORTE", ""))
	assert.Equal(t, "", FormatFieldValue("AVALISTAS", ""))
	assert.Nil(t, FormatFieldValue("COOPERADO", ""))
}
