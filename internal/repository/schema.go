package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the audit schema. Statements are idempotent so every
// start can run them.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entidades_devedores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			documento TEXT NOT NULL,
			tipo_pessoa TEXT NOT NULL,
			nome TEXT NOT NULL,
			pipedrive_person_id INTEGER,
			pipedrive_org_id INTEGER,
			pipedrive_deal_id INTEGER,
			valor_total_divida REAL DEFAULT 0,
			valor_total_vencido REAL DEFAULT 0,
			valor_total_com_juros REAL DEFAULT 0,
			dias_atraso_maximo INTEGER DEFAULT 0,
			cooperado TEXT,
			cooperativa TEXT,
			numero_contrato TEXT,
			todos_contratos TEXT,
			todas_operacoes TEXT,
			vencimento_mais_antigo TEXT,
			tipo_acao_carteira TEXT,
			total_parcelas TEXT,
			tag_atraso TEXT,
			contrato_garantinorte TEXT,
			telefones TEXT,
			emails TEXT,
			avalistas_info TEXT,
			endereco_completo TEXT,
			data_nascimento TEXT,
			rg TEXT,
			nome_mae TEXT,
			estado_civil TEXT,
			condicao_cpf TEXT,
			status_operacao TEXT,
			pipeline_atual TEXT,
			stage_atual TEXT,
			raw_txt_data TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			version INTEGER NOT NULL DEFAULT 1,
			UNIQUE(documento, tipo_pessoa)
		)`,
		`CREATE TABLE IF NOT EXISTS historico_alteracoes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entidade_id INTEGER NOT NULL REFERENCES entidades_devedores(id),
			documento TEXT NOT NULL,
			tipo_pessoa TEXT NOT NULL,
			acao TEXT NOT NULL,
			dados_anteriores TEXT,
			dados_novos TEXT,
			origem_arquivo TEXT,
			timestamp_operacao TEXT NOT NULL DEFAULT (datetime('now')),
			observacoes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS log_processamentos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chave TEXT NOT NULL UNIQUE,
			arquivo_txt TEXT NOT NULL,
			timestamp_inicio TEXT NOT NULL DEFAULT (datetime('now')),
			timestamp_fim TEXT,
			total_registros_txt INTEGER DEFAULT 0,
			entidades_criadas INTEGER DEFAULT 0,
			entidades_atualizadas INTEGER DEFAULT 0,
			entidades_removidas INTEGER DEFAULT 0,
			status TEXT NOT NULL,
			mensagem_erro TEXT,
			configuracao_ativa TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documento ON entidades_devedores(documento)`,
		`CREATE INDEX IF NOT EXISTS idx_tipo_pessoa ON entidades_devedores(tipo_pessoa)`,
		`CREATE INDEX IF NOT EXISTS idx_pipedrive_ids ON entidades_devedores(pipedrive_person_id, pipedrive_deal_id)`,
		`CREATE INDEX IF NOT EXISTS idx_updated_at ON entidades_devedores(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_historico_entidade ON historico_alteracoes(entidade_id)`,
		`CREATE INDEX IF NOT EXISTS idx_historico_timestamp ON historico_alteracoes(timestamp_operacao)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
