package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pipedrive-sync/internal/clients"
	"pipedrive-sync/internal/domain"
	"pipedrive-sync/internal/repository"
)

type EntityLister interface {
	List(ctx context.Context, f repository.EntitiesFilter) ([]domain.Entity, error)
}

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

type ExportService struct {
	repo    EntityLister
	storage *clients.StorageClient
	redis   *clients.RedisClient
	s3      *clients.S3Client
	ws      *clients.WebSocketClient
	log     *zap.SugaredLogger
}

func NewExportService(
	repo EntityLister,
	storage *clients.StorageClient,
	redis *clients.RedisClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
	log *zap.SugaredLogger,
) *ExportService {
	return &ExportService{
		repo:    repo,
		storage: storage,
		redis:   redis,
		s3:      s3,
		ws:      ws,
		log:     log,
	}
}

func int64Ptr(p *int64) any {
	if p == nil {
		return ""
	}
	return *p
}

type EntityColumn struct {
	Header string
	Value  func(e domain.Entity) any
}

var entityColumns = map[string]EntityColumn{
	"documento": {
		Header: "CPF/CNPJ",
		Value:  func(e domain.Entity) any { return e.Document },
	},
	"tipo_pessoa": {
		Header: "Tipo",
		Value:  func(e domain.Entity) any { return string(e.PersonType) },
	},
	"nome": {
		Header: "Nome",
		Value:  func(e domain.Entity) any { return e.Name },
	},
	"cooperado": {
		Header: "Cooperado",
		Value:  func(e domain.Entity) any { return e.Member },
	},
	"cooperativa": {
		Header: "Cooperativa",
		Value:  func(e domain.Entity) any { return e.Cooperative },
	},
	"valor_total_divida": {
		Header: "Valor Total da Dívida",
		Value:  func(e domain.Entity) any { return e.TotalDebt },
	},
	"valor_total_vencido": {
		Header: "Valor Total Vencido",
		Value:  func(e domain.Entity) any { return e.TotalOverdue },
	},
	"valor_total_com_juros": {
		Header: "Valor Total com Juros",
		Value:  func(e domain.Entity) any { return e.TotalWithInterest },
	},
	"dias_atraso": {
		Header: "Dias de Atraso",
		Value:  func(e domain.Entity) any { return e.MaxDaysLate },
	},
	"vencimento_mais_antigo": {
		Header: "Vencimento Mais Antigo",
		Value:  func(e domain.Entity) any { return e.OldestDueDate },
	},
	"numero_contrato": {
		Header: "Contrato Principal",
		Value:  func(e domain.Entity) any { return e.MainContract },
	},
	"todos_contratos": {
		Header: "Todos os Contratos",
		Value:  func(e domain.Entity) any { return e.AllContracts },
	},
	"todas_operacoes": {
		Header: "Todas as Operações",
		Value:  func(e domain.Entity) any { return e.AllOperations },
	},
	"tipo_acao_carteira": {
		Header: "Tipo de Ação/Carteira",
		Value:  func(e domain.Entity) any { return e.PortfolioType },
	},
	"total_parcelas": {
		Header: "Total de Parcelas",
		Value:  func(e domain.Entity) any { return e.TotalInstallments },
	},
	"condicao_cpf": {
		Header: "Condição do CPF",
		Value:  func(e domain.Entity) any { return e.CreditCondition },
	},
	"contrato_garantinorte": {
		Header: "Contrato Garantinorte",
		Value:  func(e domain.Entity) any { return e.GuaranteeContract },
	},
	"telefones": {
		Header: "Telefones",
		Value:  func(e domain.Entity) any { return strings.Join(e.Phones, "; ") },
	},
	"emails": {
		Header: "E-mails",
		Value:  func(e domain.Entity) any { return strings.Join(e.Emails, "; ") },
	},
	"endereco": {
		Header: "Endereço",
		Value:  func(e domain.Entity) any { return e.Address },
	},
	"avalistas": {
		Header: "Avalistas",
		Value:  func(e domain.Entity) any { return strings.Join(e.Guarantors, "; ") },
	},
	"data_nascimento": {
		Header: "Data de Nascimento",
		Value:  func(e domain.Entity) any { return e.BirthDate },
	},
	"estado_civil": {
		Header: "Estado Civil",
		Value:  func(e domain.Entity) any { return e.MaritalStatus },
	},
	"status_operacao": {
		Header: "Status",
		Value:  func(e domain.Entity) any { return e.OperationStatus },
	},
	"pipeline_atual": {
		Header: "Pipeline Atual",
		Value:  func(e domain.Entity) any { return e.CurrentPipeline },
	},
	"stage_atual": {
		Header: "Etapa Atual",
		Value:  func(e domain.Entity) any { return e.CurrentStage },
	},
	"pipedrive_person_id": {
		Header: "ID Pessoa (Pipedrive)",
		Value:  func(e domain.Entity) any { return int64Ptr(e.PipedrivePersonID) },
	},
	"pipedrive_deal_id": {
		Header: "ID Negócio (Pipedrive)",
		Value:  func(e domain.Entity) any { return int64Ptr(e.PipedriveDealID) },
	},
	"atualizado_em": {
		Header: "Atualizado Em",
		Value: func(e domain.Entity) any {
			if e.UpdatedAt.IsZero() {
				return ""
			}
			return e.UpdatedAt.Format("2006-01-02 15:04:05")
		},
	},
	"versao": {
		Header: "Versão",
		Value:  func(e domain.Entity) any { return e.Version },
	},
}

var defaultExportColumns = []string{
	"documento", "tipo_pessoa", "nome",
	"valor_total_divida", "valor_total_vencido", "valor_total_com_juros",
	"dias_atraso", "todos_contratos", "condicao_cpf",
	"status_operacao", "pipeline_atual",
}

func (s *ExportService) saveExportStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}

	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartExport kicks an export off in the background and returns its key.
func (s *ExportService) StartExport(ctx context.Context, selected []string, filter repository.EntitiesFilter) (string, error) {
	if len(selected) == 0 {
		selected = defaultExportColumns
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	now := time.Now()

	status := &ExportStatus{
		Key:      exportID,
		Type:     "entities",
		Filters:  buildEntitiesFiltersMap(filter, selected),
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}
	_ = s.saveExportStatus(ctx, status)

	go s.runExport(context.Background(), exportID, selected, filter, now)

	return exportID, nil
}

func (s *ExportService) runExport(
	ctx context.Context,
	exportID string,
	selected []string,
	filter repository.EntitiesFilter,
	createdAt time.Time,
) {
	status := &ExportStatus{
		Key:      exportID,
		Type:     "entities",
		Filters:  buildEntitiesFiltersMap(filter, selected),
		Progress: 0,
		FileURL:  nil,
		Created:  createdAt,
	}

	fail := func(msg string, err error) {
		s.log.Errorw("export failed", "key", exportID, "error", err)
		status.Error = fmt.Sprintf("%s: %v", msg, err)
		_ = s.saveExportStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyExportFailed(ctx, exportID, status.Error)
		}
	}

	entities, err := s.repo.List(ctx, filter)
	if err != nil {
		fail("consulta de entidades falhou", err)
		return
	}

	var cols []EntityColumn
	for _, key := range selected {
		col, ok := entityColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		fail("colunas inválidas", errors.New("nenhuma coluna selecionada é conhecida"))
		return
	}

	f := excelize.NewFile()
	sheet := "Entidades"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(entities)
	chunkSize := 500
	rowIdx := 2

	for i, e := range entities {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, col.Value(e))
		}
		rowIdx++

		if (i+1)%chunkSize == 0 || i == total-1 {
			raw := float64(i+1) / float64(total) * 100.0
			progress := math.Round(raw)
			// 100% is reserved for when the file URL is ready
			if progress >= 100 {
				progress = 95
			}

			status.Progress = progress
			_ = s.saveExportStatus(ctx, status)

			if s.ws != nil {
				_ = s.ws.NotifyExportProgress(ctx, exportID, progress, "gerando")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail("geração da planilha falhou", err)
		return
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("entidades_%s.xlsx", time.Now().Format("20060102_150405"))

	status.Progress = 95
	_ = s.saveExportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, exportID, 95, "salvando")
	}

	var url string

	if s.s3 != nil {
		key, err := s.s3.UploadXLSX(ctx, fileName, data)
		if err != nil {
			s.log.Warnw("s3 upload failed, keeping local copy only", "key", exportID, "error", err)
		} else if presigned, err := s.s3.GetTemporaryURL(ctx, key, 48*time.Hour); err == nil {
			url = presigned
		}
	}

	saved, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		fail("gravação do arquivo falhou", err)
		return
	}
	if url == "" {
		url = s.storage.GetURL(saved)
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveExportStatus(ctx, status)

	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, exportID, 100, "pronto")
		_ = s.ws.NotifyExportComplete(ctx, exportID, url, fileName)
	}

	s.log.Infow("export finished", "key", exportID, "rows", total, "file", fileName)
}

// GetExports lists the exports still present in redis, newest first.
func (s *ExportService) GetExports(ctx context.Context) ([]any, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	exports := make([]any, 0, len(statuses))
	for _, status := range statuses {
		exports = append(exports, exportMap(status))
	}
	return exports, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string) (any, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("export not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}

	return exportMap(status), nil
}

func exportMap(status ExportStatus) map[string]any {
	return map[string]any{
		"key":        status.Key,
		"type":       status.Type,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"filters":    status.Filters,
		"error":      status.Error,
		"created_at": humanizeAgo(status.Created),
	}
}

func humanizeAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "agora mesmo"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "agora mesmo"
	}
	if minutes < 60 {
		return fmt.Sprintf("há %d %s", minutes, ptPlural(minutes, "minuto", "minutos"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("há %d %s", hours, ptPlural(hours, "hora", "horas"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("há %d %s", days, ptPlural(days, "dia", "dias"))
	}
	return t.Format("02/01/2006 15:04")
}

func ptPlural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func buildEntitiesFiltersMap(f repository.EntitiesFilter, fields []string) map[string]any {
	m := map[string]any{}
	if f.Document != nil {
		m["documento"] = *f.Document
	} else {
		m["documento"] = nil
	}
	if f.PersonType != nil {
		m["tipo_pessoa"] = *f.PersonType
	} else {
		m["tipo_pessoa"] = nil
	}
	if f.Status != nil {
		m["status"] = *f.Status
	} else {
		m["status"] = nil
	}
	m["fields"] = fields
	return m
}
