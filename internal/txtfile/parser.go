// Package txtfile reads the fixed-width delinquency remittance the bank
// drops daily and consolidates each debtor block into one record.
package txtfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"pipedrive-sync/internal/document"
	"pipedrive-sync/internal/domain"
)

type block struct {
	debtor       line
	references   []line
	operations   []line
	installments []line
	guarantors   []line
}

// Parser turns a remittance file into consolidated debtors.
type Parser struct {
	log *zap.SugaredLogger
	now func() time.Time
}

func NewParser(log *zap.SugaredLogger) *Parser {
	return &Parser{log: log, now: time.Now}
}

// ParseFile reads a latin-1 encoded remittance and returns one Debtor
// per block. Blocks with an unknown person type are skipped.
func (p *Parser) ParseFile(path string) ([]domain.Debtor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", path, err)
	}

	return p.Parse(string(decoded))
}

// Parse consolidates already-decoded file content.
func (p *Parser) Parse(content string) ([]domain.Debtor, error) {
	var (
		blocks  []block
		current *block
	)

	for _, rawLine := range strings.Split(content, "\n") {
		rawLine = strings.TrimRight(rawLine, "\r")
		l := line(rawLine)

		switch l.code() {
		case recHeader, recTrailer, "":
			continue
		case recDebtor:
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &block{debtor: l}
		case recReference:
			if current != nil {
				current.references = append(current.references, l)
			}
		case recOperation:
			if current != nil {
				current.operations = append(current.operations, l)
			}
		case recInstallment:
			if current != nil {
				current.installments = append(current.installments, l)
			}
		case recGuarantor:
			if current != nil {
				current.guarantors = append(current.guarantors, l)
			}
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}

	debtors := make([]domain.Debtor, 0, len(blocks))
	for _, b := range blocks {
		d, ok := p.consolidate(b)
		if !ok {
			continue
		}
		debtors = append(debtors, d)
	}

	p.log.Infow("remittance parsed", "blocks", len(blocks), "debtors", len(debtors))
	return debtors, nil
}

func (p *Parser) consolidate(b block) (domain.Debtor, bool) {
	rec := parseDebtorRecord(b.debtor)

	personType := domain.ParsePersonType(rec.personType)
	if personType == domain.PersonTypeUnknown {
		p.log.Warnw("skipping debtor with unknown person type",
			"document", rec.document, "raw_type", rec.personType)
		return domain.Debtor{}, false
	}

	d := domain.Debtor{
		Document:      document.Normalize(rec.document, personType),
		PersonType:    personType,
		Name:          rec.name,
		Phones:        collectPhones(rec.phones),
		Emails:        collectEmails(rec.emails),
		Address:       joinAddress(rec.street, rec.district, rec.city, rec.state, rec.zip),
		BirthDate:     formatDate(rec.birthDate),
		RG:            rec.rg,
		RGIssueDate:   formatDate(rec.rgIssueDate),
		RGIssuer:      rec.rgIssuer,
		RGState:       rec.rgState,
		MotherName:    rec.motherName,
		MaritalStatus: rec.maritalStatus,
		SpouseName:    rec.spouseName,
		Nationality:   rec.nationality,
		Member:        rec.name,
		Cooperative:   domain.CooperativeName,
	}
	if d.Document == "" {
		p.log.Warnw("skipping debtor without document", "name", rec.name)
		return domain.Debtor{}, false
	}
	if personType == domain.PersonTypePF && !document.ValidCPF(d.Document) {
		p.log.Warnw("skipping debtor with invalid cpf", "document", d.Document, "name", rec.name)
		return domain.Debtor{}, false
	}

	for _, rl := range b.references {
		ref := parseReferenceRecord(rl)
		if ref.name == "" {
			continue
		}
		d.References = append(d.References, domain.Reference{
			Name:  ref.name,
			Kind:  ref.kind,
			Phone: formatPhone(ref.ddd, ref.phone),
		})
	}

	restricted := false

	var contracts, operationIDs []string
	for i, ol := range b.operations {
		rec := parseOperationRecord(ol)
		op := domain.Operation{
			ContractNumber:    rec.contractNumber,
			Responsibility:    rec.responsibility,
			Product:           rec.product,
			Portfolio:         rec.portfolio,
			OperationValue:    parseMoney(rec.operationValue),
			IOFValue:          parseMoney(rec.iofValue),
			BookValue:         parseMoney(rec.bookValue),
			TotalInstallments: stripZeros(rec.totalInstallments),
			ContractDate:      formatDate(rec.contractDate),
			OperationID:       rec.operationID,
			CollectionID:      rec.collectionID,
			PreviousID:        rec.previousID,
			InterestRate:      parsePercent(rec.interestRate),
			ArrearsRate:       parsePercent(rec.arrearsRate),
			FineRate:          parsePercent(rec.fineRate),
			Restricted:        rec.serasaFlag == "1" || rec.spcFlag == "1" || rec.boaVistaFlag == "1",
		}
		d.Operations = append(d.Operations, op)

		d.TotalDebt = d.TotalDebt.Add(op.BookValue)
		if op.Restricted {
			restricted = true
		}
		if c := stripZeros(op.ContractNumber); c != "" {
			contracts = appendUnique(contracts, c)
		}
		if id := stripZeros(op.OperationID); id != "" {
			operationIDs = appendUnique(operationIDs, id)
		}
		if i == 0 {
			d.PortfolioType = op.Portfolio
			d.TotalInstallments = op.TotalInstallments
		}
	}

	today := p.now().Truncate(24 * time.Hour)
	var oldest time.Time
	for _, il := range b.installments {
		rec := parseInstallmentRecord(il)
		due, hasDue := parseDate(rec.dueDate)
		inst := domain.Installment{
			Number:       stripZeros(rec.number),
			DueDate:      due,
			DueDateRaw:   formatDate(rec.dueDate),
			DaysLate:     parseIntField(rec.daysLate),
			Value:        parseMoney(rec.value),
			FineValue:    parseMoney(rec.fineValue),
			ArrearsValue: parseMoney(rec.arrearsValue),
			UpdatedValue: parseMoney(rec.updatedValue),
			OperationID:  rec.operationID,
			Situation:    rec.situation,
			Restricted:   rec.serasaFlag == "1" || rec.spcFlag == "1" || rec.boaVistaFlag == "1",
		}
		d.Installments = append(d.Installments, inst)

		d.TotalWithInterest = d.TotalWithInterest.Add(inst.UpdatedValue)
		if hasDue && due.Before(today) {
			d.TotalOverdue = d.TotalOverdue.Add(inst.UpdatedValue)
		}
		if inst.DaysLate > d.MaxDaysLate {
			d.MaxDaysLate = inst.DaysLate
		}
		if hasDue && (oldest.IsZero() || due.Before(oldest)) {
			oldest = due
		}
		if inst.Restricted {
			restricted = true
		}
	}
	if !oldest.IsZero() {
		d.OldestDueDate = oldest.Format("02/01/2006")
	}

	for _, gl := range b.guarantors {
		rec := parseGuarantorRecord(gl)
		if rec.document == "" || rec.name == "" {
			continue
		}
		gt := domain.ParsePersonType(rec.personType)
		if gt == domain.PersonTypeUnknown {
			gt = document.GuessType(rec.document)
		}
		d.Guarantors = append(d.Guarantors, domain.Guarantor{
			Document:       document.Normalize(rec.document, gt),
			Name:           rec.name,
			Responsibility: rec.responsibility,
			PersonType:     gt,
			Phones:         collectPhones(rec.phones),
			Emails:         collectEmails(rec.emails),
		})
	}

	d.AllContracts = strings.Join(contracts, "; ")
	d.AllOperations = strings.Join(operationIDs, "; ")
	if len(contracts) > 0 {
		d.MainContract = contracts[0]
	}

	if restricted {
		d.CreditCondition = domain.CreditConditionRestricted
	} else {
		d.CreditCondition = domain.CreditConditionClean
	}
	if d.MaxDaysLate > domain.DelayThreshold {
		d.DelayTagID = domain.DelayTagOver90
	} else {
		d.DelayTagID = domain.DelayTagUpTo90
	}

	return d, true
}

func formatPhone(ddd, number string) string {
	ddd = strings.TrimSpace(ddd)
	number = strings.TrimSpace(number)
	if ddd == "" || number == "" {
		return ""
	}
	if strings.Trim(ddd, "0") == "" || strings.Trim(number, "0") == "" {
		return ""
	}
	return fmt.Sprintf("(%s) %s", strings.TrimLeft(ddd, "0"), strings.TrimLeft(number, "0"))
}

func collectPhones(pairs [4][2]string) []string {
	var out []string
	for _, p := range pairs {
		if formatted := formatPhone(p[0], p[1]); formatted != "" {
			out = appendUnique(out, formatted)
		}
	}
	return out
}

func collectEmails(emails [2]string) []string {
	var out []string
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" || !strings.Contains(e, "@") {
			continue
		}
		out = appendUnique(out, e)
	}
	return out
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// FindLatest returns the newest .txt file in dir by modification time.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read dir %q: %w", dir, err)
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
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
		return "", fmt.Errorf("no .txt files in %q", dir)
	}
	return filepath.Join(dir, newest), nil
}

// DocumentSet builds the lookup used by the removal pass: every
// (person type, document) pair present in the file.
func DocumentSet(debtors []domain.Debtor) map[string]bool {
	set := make(map[string]bool, len(debtors))
	for _, d := range debtors {
		set[SetKey(d.PersonType, d.Document)] = true
	}
	return set
}

// SetKey is the canonical key of a debtor in the document set.
func SetKey(t domain.PersonType, doc string) string {
	return strings.ToLower(string(t)) + ":" + doc
}
