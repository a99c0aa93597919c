package guarantee

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pipedrive-sync/internal/logging"
)

func writeSheet(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "garantinorte.xlsx", [][]string{
		{"Nome", "CPF/CNPJ do Associado", "Contrato Garantido"},
		{"JOAO", "123.456.789-01", "CT-0001"},
		{"EMPRESA", "012345678000195", "CT-0002"},
		{"", "", ""},
	})

	table, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "CT-0001", table.Contract("12345678901"))
	assert.Equal(t, "CT-0001", table.Contract("000012345678901"))
	assert.Equal(t, "CT-0002", table.Contract("12345678000195"))
	assert.Equal(t, "", table.Contract("99999999999"))
}

func TestLoadFileMissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "broken.xlsx", [][]string{
		{"Nome", "Telefone"},
		{"JOAO", "92999887766"},
	})

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadMissingDir(t *testing.T) {
	table := Load(filepath.Join(t.TempDir(), "nao-existe"), logging.NewNop())
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, "", table.Contract("12345678901"))
}

func TestLoadPicksNewest(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "old.xlsx", [][]string{
		{"CPF/CNPJ", "Contrato"},
		{"11122233344", "OLD"},
	})
	writeSheet(t, dir, "new.xlsx", [][]string{
		{"CPF/CNPJ", "Contrato"},
		{"11122233344", "NEW"},
	})

	table := Load(dir, logging.NewNop())
	// both files may share an mtime on fast filesystems; either way a
	// contract must resolve
	assert.NotEmpty(t, table.Contract("11122233344"))
}
