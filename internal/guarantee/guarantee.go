// Package guarantee loads the GARANTINORTE spreadsheet that maps
// documents to guaranteed contract numbers. The spreadsheet is optional:
// when it is missing or malformed the sync proceeds without it.
package guarantee

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pipedrive-sync/internal/document"
)

// Table indexes guaranteed contracts by every known shape of the
// document: canonical, zero-stripped and as written in the sheet.
type Table struct {
	contracts map[string]string
}

func emptyTable() *Table {
	return &Table{contracts: map[string]string{}}
}

// Load finds the newest spreadsheet in dir and indexes it. Any problem
// yields an empty table so the sync never blocks on the guarantee file.
func Load(dir string, log *zap.SugaredLogger) *Table {
	path, err := findLatest(dir)
	if err != nil {
		log.Warnw("guarantee spreadsheet not found, proceeding without it", "dir", dir, "error", err)
		return emptyTable()
	}

	t, err := LoadFile(path)
	if err != nil {
		log.Warnw("guarantee spreadsheet unreadable, proceeding without it", "path", path, "error", err)
		return emptyTable()
	}

	log.Infow("guarantee spreadsheet loaded", "path", path, "documents", t.Len())
	return t
}

// LoadFile indexes one spreadsheet. The document and contract columns
// are located by case-insensitive header match.
func LoadFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	docCol, contractCol := -1, -1
	for i, header := range rows[0] {
		h := strings.ToLower(strings.TrimSpace(header))
		if docCol < 0 && strings.Contains(h, "cpf") {
			docCol = i
		}
		if contractCol < 0 && strings.Contains(h, "contrato") {
			contractCol = i
		}
	}
	if docCol < 0 || contractCol < 0 {
		return nil, fmt.Errorf("required columns not found in sheet %q", sheet)
	}

	t := emptyTable()
	for _, row := range rows[1:] {
		if docCol >= len(row) || contractCol >= len(row) {
			continue
		}
		doc := strings.TrimSpace(row[docCol])
		contract := strings.TrimSpace(row[contractCol])
		if doc == "" || contract == "" {
			continue
		}
		t.index(doc, contract)
	}
	return t, nil
}

func (t *Table) index(doc, contract string) {
	clean := document.Clean(doc)
	if clean == "" {
		return
	}
	keys := []string{
		document.NormalizeLoose(clean),
		strings.TrimLeft(clean, "0"),
		clean,
	}
	for _, k := range keys {
		if k != "" {
			t.contracts[k] = contract
		}
	}
}

// Contract returns the guaranteed contract for a document, or "" when
// the document is not covered.
func (t *Table) Contract(doc string) string {
	if t == nil || len(t.contracts) == 0 {
		return ""
	}
	clean := document.Clean(doc)
	if clean == "" {
		return ""
	}
	for _, k := range []string{
		document.NormalizeLoose(clean),
		strings.TrimLeft(clean, "0"),
		clean,
	} {
		if c, ok := t.contracts[k]; ok {
			return c
		}
	}
	return ""
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.contracts)
}

func findLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read dir %q: %w", dir, err)
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = e.Name()
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no spreadsheets in %q", dir)
	}
	return filepath.Join(dir, newest), nil
}
