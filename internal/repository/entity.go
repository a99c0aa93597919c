package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pipedrive-sync/internal/domain"
)

type EntityRepository struct {
	db *sql.DB
}

func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

const entityColumns = `id, documento, tipo_pessoa, nome,
	pipedrive_person_id, pipedrive_org_id, pipedrive_deal_id,
	valor_total_divida, valor_total_vencido, valor_total_com_juros, dias_atraso_maximo,
	cooperado, cooperativa, numero_contrato, todos_contratos, todas_operacoes,
	vencimento_mais_antigo, tipo_acao_carteira, total_parcelas, tag_atraso, contrato_garantinorte,
	telefones, emails, avalistas_info, endereco_completo,
	data_nascimento, rg, nome_mae, estado_civil, condicao_cpf,
	status_operacao, pipeline_atual, stage_atual, raw_txt_data,
	created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*domain.Entity, error) {
	var (
		e                          domain.Entity
		personID, orgID, dealID    sql.NullInt64
		phones, emails, guarantors sql.NullString
		nullable                   = make([]sql.NullString, 20)
		rawData                    sql.NullString
		createdAt, updatedAt       string
	)

	err := row.Scan(
		&e.ID, &e.Document, &e.PersonType, &e.Name,
		&personID, &orgID, &dealID,
		&e.TotalDebt, &e.TotalOverdue, &e.TotalWithInterest, &e.MaxDaysLate,
		&nullable[0], &nullable[1], &nullable[2], &nullable[3], &nullable[4],
		&nullable[5], &nullable[6], &nullable[7], &nullable[8], &nullable[9],
		&phones, &emails, &guarantors, &nullable[10],
		&nullable[11], &nullable[12], &nullable[13], &nullable[14], &nullable[15],
		&nullable[16], &nullable[17], &nullable[18], &rawData,
		&createdAt, &updatedAt, &e.Version,
	)
	if err != nil {
		return nil, err
	}

	if personID.Valid {
		e.PipedrivePersonID = &personID.Int64
	}
	if orgID.Valid {
		e.PipedriveOrgID = &orgID.Int64
	}
	if dealID.Valid {
		e.PipedriveDealID = &dealID.Int64
	}

	e.Member = nullable[0].String
	e.Cooperative = nullable[1].String
	e.MainContract = nullable[2].String
	e.AllContracts = nullable[3].String
	e.AllOperations = nullable[4].String
	e.OldestDueDate = nullable[5].String
	e.PortfolioType = nullable[6].String
	e.TotalInstallments = nullable[7].String
	e.DelayTag = nullable[8].String
	e.GuaranteeContract = nullable[9].String
	e.Address = nullable[10].String
	e.BirthDate = nullable[11].String
	e.RG = nullable[12].String
	e.MotherName = nullable[13].String
	e.MaritalStatus = nullable[14].String
	e.CreditCondition = nullable[15].String
	e.OperationStatus = nullable[16].String
	e.CurrentPipeline = nullable[17].String
	e.CurrentStage = nullable[18].String

	e.Phones = decodeStrings(phones.String)
	e.Emails = decodeStrings(emails.String)
	e.Guarantors = decodeStrings(guarantors.String)
	if rawData.Valid {
		e.RawData = []byte(rawData.String)
	}

	e.CreatedAt = parseDBTime(createdAt)
	e.UpdatedAt = parseDBTime(updatedAt)

	return &e, nil
}

func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func parseDBTime(raw string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FindByDocument returns the entity or nil when unknown.
func (r *EntityRepository) FindByDocument(ctx context.Context, doc string, t domain.PersonType) (*domain.Entity, error) {
	query := fmt.Sprintf(`SELECT %s FROM entidades_devedores WHERE documento = ? AND tipo_pessoa = ?`, entityColumns)

	e, err := scanEntity(r.db.QueryRowContext(ctx, query, doc, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entity %s/%s: %w", t, doc, err)
	}
	return e, nil
}

// Save upserts the entity keyed by (document, person type) and appends
// a change record with the previous state. Returns the row id and the
// action taken.
func (r *EntityRepository) Save(ctx context.Context, e domain.Entity, sourceFile string) (int64, string, error) {
	prior, err := r.FindByDocument(ctx, e.Document, e.PersonType)
	if err != nil {
		return 0, "", err
	}

	current, err := json.Marshal(e)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode entity: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	var (
		id     int64
		action string
	)

	if prior != nil {
		action = domain.ChangeActionUpdated
		id = prior.ID

		_, err = tx.ExecContext(ctx, `UPDATE entidades_devedores SET
			nome = ?,
			pipedrive_person_id = ?, pipedrive_org_id = ?, pipedrive_deal_id = ?,
			valor_total_divida = ?, valor_total_vencido = ?, valor_total_com_juros = ?, dias_atraso_maximo = ?,
			cooperado = ?, cooperativa = ?, numero_contrato = ?, todos_contratos = ?, todas_operacoes = ?,
			vencimento_mais_antigo = ?, tipo_acao_carteira = ?, total_parcelas = ?, tag_atraso = ?, contrato_garantinorte = ?,
			telefones = ?, emails = ?, avalistas_info = ?, endereco_completo = ?,
			data_nascimento = ?, rg = ?, nome_mae = ?, estado_civil = ?, condicao_cpf = ?,
			status_operacao = ?, pipeline_atual = ?, stage_atual = ?, raw_txt_data = ?,
			updated_at = datetime('now'), version = version + 1
			WHERE id = ?`,
			e.Name,
			e.PipedrivePersonID, e.PipedriveOrgID, e.PipedriveDealID,
			e.TotalDebt, e.TotalOverdue, e.TotalWithInterest, e.MaxDaysLate,
			e.Member, e.Cooperative, e.MainContract, e.AllContracts, e.AllOperations,
			e.OldestDueDate, e.PortfolioType, e.TotalInstallments, e.DelayTag, e.GuaranteeContract,
			encodeStrings(e.Phones), encodeStrings(e.Emails), encodeStrings(e.Guarantors), e.Address,
			e.BirthDate, e.RG, e.MotherName, e.MaritalStatus, e.CreditCondition,
			e.OperationStatus, e.CurrentPipeline, e.CurrentStage, string(e.RawData),
			id,
		)
		if err != nil {
			return 0, "", fmt.Errorf("failed to update entity %d: %w", id, err)
		}
	} else {
		action = domain.ChangeActionCreated

		res, err := tx.ExecContext(ctx, `INSERT INTO entidades_devedores (
			documento, tipo_pessoa, nome,
			pipedrive_person_id, pipedrive_org_id, pipedrive_deal_id,
			valor_total_divida, valor_total_vencido, valor_total_com_juros, dias_atraso_maximo,
			cooperado, cooperativa, numero_contrato, todos_contratos, todas_operacoes,
			vencimento_mais_antigo, tipo_acao_carteira, total_parcelas, tag_atraso, contrato_garantinorte,
			telefones, emails, avalistas_info, endereco_completo,
			data_nascimento, rg, nome_mae, estado_civil, condicao_cpf,
			status_operacao, pipeline_atual, stage_atual, raw_txt_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Document, string(e.PersonType), e.Name,
			e.PipedrivePersonID, e.PipedriveOrgID, e.PipedriveDealID,
			e.TotalDebt, e.TotalOverdue, e.TotalWithInterest, e.MaxDaysLate,
			e.Member, e.Cooperative, e.MainContract, e.AllContracts, e.AllOperations,
			e.OldestDueDate, e.PortfolioType, e.TotalInstallments, e.DelayTag, e.GuaranteeContract,
			encodeStrings(e.Phones), encodeStrings(e.Emails), encodeStrings(e.Guarantors), e.Address,
			e.BirthDate, e.RG, e.MotherName, e.MaritalStatus, e.CreditCondition,
			e.OperationStatus, e.CurrentPipeline, e.CurrentStage, string(e.RawData),
		)
		if err != nil {
			return 0, "", fmt.Errorf("failed to insert entity %s: %w", e.Document, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, "", err
		}
	}

	var priorJSON any
	if prior != nil {
		data, err := json.Marshal(prior)
		if err == nil {
			priorJSON = string(data)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO historico_alteracoes
		(entidade_id, documento, tipo_pessoa, acao, dados_anteriores, dados_novos, origem_arquivo)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, e.Document, string(e.PersonType), action, priorJSON, string(current), sourceFile,
	)
	if err != nil {
		return 0, "", fmt.Errorf("failed to append change record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return id, action, nil
}

// MarkRemoved records that the debtor left the bank file and what was
// done with the linked deal.
func (r *EntityRepository) MarkRemoved(ctx context.Context, doc string, t domain.PersonType, sourceFile, notes string) error {
	prior, err := r.FindByDocument(ctx, doc, t)
	if err != nil {
		return err
	}
	if prior == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `UPDATE entidades_devedores SET
		status_operacao = ?, updated_at = datetime('now'), version = version + 1
		WHERE id = ?`,
		domain.ChangeActionRemoved, prior.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark entity %d removed: %w", prior.ID, err)
	}

	priorJSON, _ := json.Marshal(prior)
	_, err = tx.ExecContext(ctx, `INSERT INTO historico_alteracoes
		(entidade_id, documento, tipo_pessoa, acao, dados_anteriores, origem_arquivo, observacoes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		prior.ID, doc, string(t), domain.ChangeActionRemoved, string(priorJSON), sourceFile, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to append removal record: %w", err)
	}

	return tx.Commit()
}

// EntitiesFilter narrows List; nil fields match everything.
type EntitiesFilter struct {
	Document     *string
	PersonType   *string
	Status       *string
	UpdatedAfter *time.Time
}

func (r *EntityRepository) List(ctx context.Context, f EntitiesFilter) ([]domain.Entity, error) {
	query := fmt.Sprintf(`SELECT %s FROM entidades_devedores WHERE 1=1`, entityColumns)
	var args []any

	if f.Document != nil {
		query += ` AND documento = ?`
		args = append(args, *f.Document)
	}
	if f.PersonType != nil {
		query += ` AND tipo_pessoa = ?`
		args = append(args, *f.PersonType)
	}
	if f.Status != nil {
		query += ` AND status_operacao = ?`
		args = append(args, *f.Status)
	}
	if f.UpdatedAfter != nil {
		query += ` AND updated_at >= ?`
		args = append(args, f.UpdatedAfter.Format("2006-01-02 15:04:05"))
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}

func (r *EntityRepository) Stats(ctx context.Context) (domain.EntityStats, error) {
	stats := domain.EntityStats{
		ByPersonType: map[string]int{},
		ByStatus:     map[string]int{},
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entidades_devedores`).Scan(&stats.Total); err != nil {
		return stats, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT tipo_pessoa, COUNT(*) FROM entidades_devedores GROUP BY tipo_pessoa`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var tipo string
		var count int
		if err := rows.Scan(&tipo, &count); err != nil {
			return stats, err
		}
		stats.ByPersonType[tipo] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	statusRows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(status_operacao, ''), COUNT(*) FROM entidades_devedores GROUP BY status_operacao`)
	if err != nil {
		return stats, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var count int
		if err := statusRows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
	}
	if err := statusRows.Err(); err != nil {
		return stats, err
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM historico_alteracoes`).Scan(&stats.ChangeRecords); err != nil {
		return stats, err
	}

	var last sql.NullString
	if err := r.db.QueryRowContext(ctx,
		`SELECT MAX(updated_at) FROM entidades_devedores`).Scan(&last); err != nil {
		return stats, err
	}
	stats.LastUpdate = last.String

	return stats, nil
}

// History lists the change records of one entity, newest first.
func (r *EntityRepository) History(ctx context.Context, entityID int64) ([]domain.ChangeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, entidade_id, documento, tipo_pessoa, acao,
		COALESCE(dados_anteriores, ''), COALESCE(dados_novos, ''),
		COALESCE(origem_arquivo, ''), timestamp_operacao, COALESCE(observacoes, '')
		FROM historico_alteracoes WHERE entidade_id = ? ORDER BY id DESC`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of entity %d: %w", entityID, err)
	}
	defer rows.Close()

	var records []domain.ChangeRecord
	for rows.Next() {
		var (
			rec            domain.ChangeRecord
			prev, curr, ts string
		)
		if err := rows.Scan(&rec.ID, &rec.EntityID, &rec.Document, &rec.PersonType, &rec.Action,
			&prev, &curr, &rec.SourceFile, &ts, &rec.Notes); err != nil {
			return nil, err
		}
		rec.Previous = []byte(prev)
		rec.Current = []byte(curr)
		rec.Timestamp = parseDBTime(ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}
