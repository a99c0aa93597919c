package domain

import "time"

// Entity is one row of the local audit database: the last state of a
// debtor as pushed to the CRM, keyed by (document, person type).
type Entity struct {
	ID         int64      `json:"id"`
	Document   string     `json:"document"`
	PersonType PersonType `json:"person_type"`
	Name       string     `json:"name"`

	PipedrivePersonID *int64 `json:"pipedrive_person_id"`
	PipedriveOrgID    *int64 `json:"pipedrive_org_id"`
	PipedriveDealID   *int64 `json:"pipedrive_deal_id"`

	TotalDebt         float64 `json:"total_debt"`
	TotalOverdue      float64 `json:"total_overdue"`
	TotalWithInterest float64 `json:"total_with_interest"`
	MaxDaysLate       int     `json:"max_days_late"`

	Member            string `json:"member"`
	Cooperative       string `json:"cooperative"`
	MainContract      string `json:"main_contract"`
	AllContracts      string `json:"all_contracts"`
	AllOperations     string `json:"all_operations"`
	OldestDueDate     string `json:"oldest_due_date"`
	PortfolioType     string `json:"portfolio_type"`
	TotalInstallments string `json:"total_installments"`
	DelayTag          string `json:"delay_tag"`
	GuaranteeContract string `json:"guarantee_contract"`

	Phones     []string `json:"phones"`
	Emails     []string `json:"emails"`
	Guarantors []string `json:"guarantors"`
	Address    string   `json:"address"`

	BirthDate     string `json:"birth_date"`
	RG            string `json:"rg"`
	MotherName    string `json:"mother_name"`
	MaritalStatus string `json:"marital_status"`

	CreditCondition string `json:"credit_condition"`

	OperationStatus string `json:"operation_status"`
	CurrentPipeline string `json:"current_pipeline"`
	CurrentStage    string `json:"current_stage"`

	RawData []byte `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// ChangeRecord is one audit-trail entry describing how an entity moved
// between two synchronizations.
type ChangeRecord struct {
	ID         int64      `json:"id"`
	EntityID   int64      `json:"entity_id"`
	Document   string     `json:"document"`
	PersonType PersonType `json:"person_type"`
	Action     string     `json:"action"`
	Previous   []byte     `json:"-"`
	Current    []byte     `json:"-"`
	SourceFile string     `json:"source_file"`
	Timestamp  time.Time  `json:"timestamp"`
	Notes      string     `json:"notes,omitempty"`
}

const (
	ChangeActionCreated = "criado"
	ChangeActionUpdated = "atualizado"
	ChangeActionRemoved = "removido"
)

// EntityStats is the aggregate view served by the stats endpoint.
type EntityStats struct {
	Total         int            `json:"total"`
	ByPersonType  map[string]int `json:"by_person_type"`
	ByStatus      map[string]int `json:"by_status"`
	ChangeRecords int            `json:"change_records"`
	LastUpdate    string         `json:"last_update"`
}
