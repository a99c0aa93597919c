package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pipedrive-sync/internal/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start opens a run log entry and returns its row id.
func (r *RunRepository) Start(ctx context.Context, key, sourceFile string, totalRecords int, config []byte) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO log_processamentos
		(chave, arquivo_txt, total_registros_txt, status, configuracao_ativa)
		VALUES (?, ?, ?, ?, ?)`,
		key, sourceFile, totalRecords, domain.RunStatusRunning, string(config),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to open run log: %w", err)
	}
	return res.LastInsertId()
}

// Finish closes a run log entry with its outcome.
func (r *RunRepository) Finish(ctx context.Context, id int64, created, updated, removed int, status, errMsg string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE log_processamentos SET
		timestamp_fim = datetime('now'),
		entidades_criadas = ?, entidades_atualizadas = ?, entidades_removidas = ?,
		status = ?, mensagem_erro = ?
		WHERE id = ?`,
		created, updated, removed, status, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to close run log %d: %w", id, err)
	}
	return nil
}

// UpdateTotal sets the record count once parsing finished.
func (r *RunRepository) UpdateTotal(ctx context.Context, id int64, totalRecords int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE log_processamentos SET total_registros_txt = ? WHERE id = ?`, totalRecords, id)
	return err
}

const runColumns = `id, chave, arquivo_txt, timestamp_inicio, timestamp_fim,
	total_registros_txt, entidades_criadas, entidades_atualizadas, entidades_removidas,
	status, COALESCE(mensagem_erro, ''), COALESCE(configuracao_ativa, '')`

func scanRun(row rowScanner) (*domain.SyncRun, error) {
	var (
		run      domain.SyncRun
		started  string
		finished sql.NullString
		config   string
	)
	err := row.Scan(&run.ID, &run.Key, &run.SourceFile, &started, &finished,
		&run.TotalRecords, &run.Created, &run.Updated, &run.Removed,
		&run.Status, &run.ErrorMessage, &config)
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseDBTime(started)
	if finished.Valid {
		t := parseDBTime(finished.String)
		if !t.IsZero() {
			run.FinishedAt = &t
		}
	}
	run.Config = []byte(config)
	return &run, nil
}

// FindByKey returns the run or nil when unknown.
func (r *RunRepository) FindByKey(ctx context.Context, key string) (*domain.SyncRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM log_processamentos WHERE chave = ?`, runColumns)
	run, err := scanRun(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %q: %w", key, err)
	}
	return run, nil
}

// List returns the most recent runs.
func (r *RunRepository) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM log_processamentos ORDER BY id DESC LIMIT ?`, runColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
