package txtfile

import "strings"

// Record codes of the bank remittance layout. 00 and 99 are file
// header/trailer and carry no debtor data.
const (
	recHeader      = "00"
	recDebtor      = "01"
	recReference   = "05"
	recOperation   = "10"
	recInstallment = "15"
	recGuarantor   = "20"
	recTrailer     = "99"
)

// line holds one decoded record. Positions in the layout are 1-based
// column numbers over the decoded text.
type line []rune

func (l line) field(begin, length int) string {
	start := begin - 1
	if start < 0 || start >= len(l) {
		return ""
	}
	end := start + length
	if end > len(l) {
		end = len(l)
	}
	return strings.TrimSpace(string(l[start:end]))
}

func (l line) code() string {
	if len(l) < 2 {
		return ""
	}
	return string(l[:2])
}

// Record 01: the debtor itself.
type debtorRecord struct {
	document      string
	name          string
	birthDate     string
	street        string
	district      string
	city          string
	state         string
	zip           string
	phones        [4][2]string // ddd, number
	emails        [2]string
	rg            string
	rgIssueDate   string
	rgIssuer      string
	rgState       string
	motherName    string
	maritalStatus string
	spouseName    string
	nationality   string
	pacID         string
	personType    string
	sequence      string
}

func parseDebtorRecord(l line) debtorRecord {
	return debtorRecord{
		document:  l.field(3, 15),
		name:      l.field(18, 80),
		birthDate: l.field(98, 8),
		street:    l.field(106, 70),
		district:  l.field(176, 30),
		city:      l.field(206, 30),
		state:     l.field(236, 2),
		zip:       l.field(238, 9),
		phones: [4][2]string{
			{l.field(247, 4), l.field(251, 9)},
			{l.field(260, 4), l.field(264, 9)},
			{l.field(273, 4), l.field(277, 9)},
			{l.field(286, 4), l.field(290, 9)},
		},
		emails:        [2]string{l.field(299, 45), l.field(344, 45)},
		rg:            l.field(389, 30),
		rgIssueDate:   l.field(419, 8),
		rgIssuer:      l.field(427, 20),
		rgState:       l.field(447, 2),
		motherName:    l.field(449, 100),
		maritalStatus: l.field(549, 60),
		spouseName:    l.field(609, 100),
		nationality:   l.field(709, 100),
		pacID:         l.field(809, 10),
		personType:    l.field(819, 2),
		sequence:      l.field(1494, 7),
	}
}

// Record 05: personal reference.
type referenceRecord struct {
	name  string
	kind  string
	ddd   string
	phone string
}

func parseReferenceRecord(l line) referenceRecord {
	return referenceRecord{
		name:  l.field(3, 100),
		kind:  l.field(103, 50),
		ddd:   l.field(153, 4),
		phone: l.field(157, 9),
	}
}

// Record 10: credit operation.
type operationRecord struct {
	contractNumber    string
	responsibility    string
	product           string
	portfolio         string
	operationValue    string
	iofValue          string
	serasaFlag        string
	spcFlag           string
	boaVistaFlag      string
	interestRate      string
	arrearsRate       string
	fineRate          string
	bookValue         string
	totalInstallments string
	contractDate      string
	operationID       string
	collectionID      string
	previousID        string
}

func parseOperationRecord(l line) operationRecord {
	return operationRecord{
		contractNumber:    l.field(3, 12),
		responsibility:    l.field(15, 50),
		product:           l.field(65, 50),
		portfolio:         l.field(115, 50),
		operationValue:    l.field(165, 15),
		iofValue:          l.field(180, 15),
		serasaFlag:        l.field(195, 1),
		spcFlag:           l.field(196, 1),
		boaVistaFlag:      l.field(197, 1),
		interestRate:      l.field(198, 11),
		arrearsRate:       l.field(209, 11),
		fineRate:          l.field(220, 11),
		bookValue:         l.field(231, 17),
		totalInstallments: l.field(248, 4),
		contractDate:      l.field(252, 8),
		operationID:       l.field(260, 19),
		collectionID:      l.field(279, 20),
		previousID:        l.field(299, 20),
	}
}

// Record 15: installment of an operation.
type installmentRecord struct {
	number       string
	dueDate      string
	daysLate     string
	value        string
	fineValue    string
	arrearsValue string
	updatedValue string
	serasaFlag   string
	spcFlag      string
	boaVistaFlag string
	operationID  string
	situation    string
}

func parseInstallmentRecord(l line) installmentRecord {
	return installmentRecord{
		number:       l.field(3, 4),
		dueDate:      l.field(7, 8),
		daysLate:     l.field(15, 4),
		value:        l.field(19, 15),
		fineValue:    l.field(34, 15),
		arrearsValue: l.field(49, 15),
		updatedValue: l.field(124, 15),
		serasaFlag:   l.field(139, 1),
		spcFlag:      l.field(140, 1),
		boaVistaFlag: l.field(141, 1),
		operationID:  l.field(142, 20),
		situation:    l.field(162, 2),
	}
}

// Record 20: guarantor / co-responsible. Mirrors the debtor layout for
// identity and contact fields.
type guarantorRecord struct {
	document       string
	name           string
	phones         [4][2]string
	emails         [2]string
	responsibility string
	personType     string
}

func parseGuarantorRecord(l line) guarantorRecord {
	return guarantorRecord{
		document: l.field(3, 15),
		name:     l.field(18, 80),
		phones: [4][2]string{
			{l.field(247, 4), l.field(251, 9)},
			{l.field(260, 4), l.field(264, 9)},
			{l.field(273, 4), l.field(277, 9)},
			{l.field(286, 4), l.field(290, 9)},
		},
		emails:         [2]string{l.field(299, 45), l.field(344, 45)},
		responsibility: l.field(389, 50),
		personType:     l.field(442, 2),
	}
}
