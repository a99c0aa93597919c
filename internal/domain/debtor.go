package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PersonType separates individuals from companies. The bank file encodes
// it as 01/PF/F versus 02/PJ/J; anything else is treated as unknown and
// the record is skipped.
type PersonType string

const (
	PersonTypePF      PersonType = "PF"
	PersonTypePJ      PersonType = "PJ"
	PersonTypeUnknown PersonType = "INDEFINIDO"
)

func ParsePersonType(raw string) PersonType {
	switch raw {
	case "01", "1", "PF", "F":
		return PersonTypePF
	case "02", "2", "PJ", "J":
		return PersonTypePJ
	default:
		return PersonTypeUnknown
	}
}

// Operation is one credit contract of a debtor (record 10).
type Operation struct {
	ContractNumber    string
	Responsibility    string
	Product           string
	Portfolio         string
	OperationValue    decimal.Decimal
	IOFValue          decimal.Decimal
	BookValue         decimal.Decimal
	TotalInstallments string
	ContractDate      string
	OperationID       string
	CollectionID      string
	PreviousID        string
	InterestRate      decimal.Decimal
	ArrearsRate       decimal.Decimal
	FineRate          decimal.Decimal
	Restricted        bool
}

// Installment is one due amount of an operation (record 15).
type Installment struct {
	Number       string
	DueDate      time.Time
	DueDateRaw   string
	DaysLate     int
	Value        decimal.Decimal
	FineValue    decimal.Decimal
	ArrearsValue decimal.Decimal
	UpdatedValue decimal.Decimal
	OperationID  string
	Situation    string
	Restricted   bool
}

// Guarantor is a co-responsible party of a contract (record 20).
type Guarantor struct {
	Document       string
	Name           string
	Responsibility string
	PersonType     PersonType
	Phones         []string
	Emails         []string
}

// Reference is a personal reference of the debtor (record 05).
type Reference struct {
	Name  string
	Kind  string
	Phone string
}

// Debtor is the consolidated view of one block of the bank file: the
// debtor record plus every contract, installment, guarantor and
// reference that followed it.
type Debtor struct {
	Document   string
	PersonType PersonType
	Name       string

	Phones  []string
	Emails  []string
	Address string

	BirthDate     string
	RG            string
	RGIssueDate   string
	RGIssuer      string
	RGState       string
	MotherName    string
	MaritalStatus string
	SpouseName    string
	Nationality   string

	TotalDebt         decimal.Decimal
	TotalOverdue      decimal.Decimal
	TotalWithInterest decimal.Decimal
	MaxDaysLate       int
	OldestDueDate     string

	MainContract      string
	AllContracts      string
	AllOperations     string
	PortfolioType     string
	TotalInstallments string
	CreditCondition   string
	DelayTagID        int

	Member      string
	Cooperative string

	GuaranteeContract string

	Operations   []Operation
	Installments []Installment
	Guarantors   []Guarantor
	References   []Reference
}

const (
	CreditConditionClean      = "LIMPO"
	CreditConditionRestricted = "RESTRITO"

	DelayTagUpTo90  = 121
	DelayTagOver90  = 122
	DelayThreshold  = 90
	CooperativeName = "OURO VERDE"
)
