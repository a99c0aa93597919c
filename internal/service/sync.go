package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pipedrive-sync/internal/clients"
	"pipedrive-sync/internal/config"
	"pipedrive-sync/internal/document"
	"pipedrive-sync/internal/domain"
	"pipedrive-sync/internal/guarantee"
	"pipedrive-sync/internal/pipedrive"
	"pipedrive-sync/internal/repository"
	"pipedrive-sync/internal/txtfile"
)

// PipedriveAPI is the slice of the CRM client the sync needs. Kept as an
// interface so the flow can be tested against an in-memory CRM.
type PipedriveAPI interface {
	SearchPersonByDocument(ctx context.Context, doc string) (*pipedrive.Person, error)
	GetPerson(ctx context.Context, id int) (*pipedrive.Person, error)
	CreatePerson(ctx context.Context, in pipedrive.PersonInput) (*pipedrive.Person, error)
	UpdatePerson(ctx context.Context, id int, in pipedrive.PersonInput) error

	CreateDeal(ctx context.Context, in pipedrive.DealInput) (*pipedrive.Deal, error)
	UpdateDeal(ctx context.Context, id int, upd pipedrive.DealUpdate) error
	MarkDealLost(ctx context.Context, id int, reason string) error
	ReopenDeal(ctx context.Context, id, pipelineID, stageID int) error
	DealsByPerson(ctx context.Context, personID int) ([]pipedrive.Deal, error)
	DealsByPipeline(ctx context.Context, pipelineID int) ([]pipedrive.Deal, error)

	CurrentProfile() pipedrive.RateProfile
}

type SyncService struct {
	api       PipedriveAPI
	entities  *repository.EntityRepository
	runs      *repository.RunRepository
	parser    *txtfile.Parser
	redis     *clients.RedisClient
	ws        *clients.WebSocketClient
	pipelines config.PipelinesConfig
	folders   config.FoldersConfig
	log       *zap.SugaredLogger
}

func NewSyncService(
	api PipedriveAPI,
	entities *repository.EntityRepository,
	runs *repository.RunRepository,
	parser *txtfile.Parser,
	redis *clients.RedisClient,
	ws *clients.WebSocketClient,
	pipelines config.PipelinesConfig,
	folders config.FoldersConfig,
	log *zap.SugaredLogger,
) *SyncService {
	return &SyncService{
		api:       api,
		entities:  entities,
		runs:      runs,
		parser:    parser,
		redis:     redis,
		ws:        ws,
		pipelines: pipelines,
		folders:   folders,
		log:       log,
	}
}

// RunStatus is the live progress of a run, kept in redis next to the
// durable row in the run log.
type RunStatus struct {
	Key       string `json:"key"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

const (
	runStatusTTL = 20 * time.Minute

	maxRunErrors     = 50
	progressInterval = 10
)

// StartSync launches a run in the background and returns its key. An
// empty path means the newest remittance in the input folder.
func (s *SyncService) StartSync(path string) (string, error) {
	if path == "" {
		latest, err := txtfile.FindLatest(s.folders.Input)
		if err != nil {
			return "", err
		}
		path = latest
	} else {
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.folders.Input, filepath.Base(path))
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("remittance file not accessible: %w", err)
		}
	}

	key := "runs:" + uuid.New().String()

	go func() {
		ctx := context.Background()
		s.setRunStatus(ctx, RunStatus{Key: key, Status: domain.RunStatusRunning, Stage: "analisando"})

		stats, err := s.run(ctx, key, path)
		if err != nil {
			s.log.Errorw("sync run failed", "key", key, "file", path, "error", err)
			s.setRunStatus(ctx, RunStatus{Key: key, Status: domain.RunStatusFailed, Error: err.Error()})
			s.notifyFailed(ctx, key, err.Error())
			return
		}

		s.setRunStatus(ctx, RunStatus{
			Key:       key,
			Status:    domain.RunStatusDone,
			Processed: stats.TotalDebtors,
			Total:     stats.TotalDebtors,
		})
		s.notifyComplete(ctx, key, stats)
	}()

	return key, nil
}

// ProcessFile runs a synchronization to completion. Used by the one-shot
// CLI mode and the folder watcher.
func (s *SyncService) ProcessFile(ctx context.Context, path string) (domain.SyncStats, error) {
	key := "runs:" + uuid.New().String()
	return s.run(ctx, key, path)
}

// RunStatusByKey reads the live status, falling back to the run log when
// redis has already expired the entry.
func (s *SyncService) RunStatusByKey(ctx context.Context, key string) (*RunStatus, error) {
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key); err == nil && raw != "" {
			var st RunStatus
			if err := json.Unmarshal([]byte(raw), &st); err == nil {
				return &st, nil
			}
		}
	}

	run, err := s.runs.FindByKey(ctx, key)
	if err != nil || run == nil {
		return nil, err
	}
	st := &RunStatus{
		Key:       run.Key,
		Status:    run.Status,
		Processed: run.Created + run.Updated,
		Total:     run.TotalRecords,
		Error:     run.ErrorMessage,
	}
	return st, nil
}

func (s *SyncService) Runs(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	return s.runs.List(ctx, limit)
}

func (s *SyncService) RunByKey(ctx context.Context, key string) (*domain.SyncRun, error) {
	return s.runs.FindByKey(ctx, key)
}

type runState struct {
	key string

	mu        sync.Mutex
	stats     domain.SyncStats
	created   int
	updated   int
	removed   int
	processed int
}

func (st *runState) add(f func(*domain.SyncStats)) {
	st.mu.Lock()
	f(&st.stats)
	st.mu.Unlock()
}

func (st *runState) fail(doc string, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stats.Skipped++
	if len(st.stats.Errors) < maxRunErrors {
		st.stats.Errors = append(st.stats.Errors, fmt.Sprintf("%s: %v", doc, err))
	}
}

func (st *runState) count(action string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	switch action {
	case domain.ChangeActionCreated:
		st.created++
	case domain.ChangeActionUpdated:
		st.updated++
	}
}

func (st *runState) step() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.processed++
	return st.processed
}

func (s *SyncService) run(ctx context.Context, key, path string) (domain.SyncStats, error) {
	source := filepath.Base(path)
	profile := s.api.CurrentProfile()

	activeConfig, _ := json.Marshal(map[string]any{
		"pipelines":    s.pipelines,
		"rate_profile": profile.Name,
	})

	// The run row is opened before parsing so a broken remittance still
	// leaves a failed entry in the log. The record count follows once
	// the file is consolidated.
	runID, err := s.runs.Start(ctx, key, source, 0, activeConfig)
	if err != nil {
		return domain.SyncStats{}, err
	}

	debtors, err := s.parser.ParseFile(path)
	if err != nil {
		finishErr := fmt.Sprintf("leitura do arquivo falhou: %v", err)
		_ = s.runs.Finish(ctx, runID, 0, 0, 0, domain.RunStatusFailed, finishErr)
		return domain.SyncStats{}, err
	}
	if err := s.runs.UpdateTotal(ctx, runID, len(debtors)); err != nil {
		s.log.Warnw("failed to record run total", "key", key, "error", err)
	}

	table := guarantee.Load(s.folders.Guarantee, s.log)

	s.log.Infow("sync run started",
		"key", key, "file", source, "debtors", len(debtors),
		"profile", profile.Name, "workers", profile.MaxConcurrent)

	st := &runState{key: key}
	st.stats.TotalDebtors = len(debtors)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, profile.MaxConcurrent))

	for _, d := range debtors {
		d := d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.syncDebtor(gctx, d, table, source, st)
			s.progress(gctx, st, len(debtors), "sincronizando")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		finishErr := fmt.Sprintf("sincronização interrompida: %v", err)
		_ = s.runs.Finish(ctx, runID, st.created, st.updated, st.removed, domain.RunStatusFailed, finishErr)
		return st.stats, err
	}

	s.setRunStatus(ctx, RunStatus{
		Key:       key,
		Status:    domain.RunStatusRunning,
		Stage:     "removendo",
		Processed: len(debtors),
		Total:     len(debtors),
	})
	s.removalPass(ctx, txtfile.DocumentSet(debtors), source, st)

	if err := s.runs.Finish(ctx, runID, st.created, st.updated, st.removed, domain.RunStatusDone, ""); err != nil {
		return st.stats, err
	}

	s.log.Infow("sync run finished",
		"key", key,
		"created", st.created, "updated", st.updated, "removed", st.removed,
		"deals_created", st.stats.DealsCreated, "deals_lost", st.stats.DealsLost,
		"errors", len(st.stats.Errors))

	return st.stats, nil
}

func (s *SyncService) progress(ctx context.Context, st *runState, total int, stage string) {
	processed := st.step()
	if processed%progressInterval != 0 && processed != total {
		return
	}
	s.setRunStatus(ctx, RunStatus{
		Key:       st.key,
		Status:    domain.RunStatusRunning,
		Stage:     stage,
		Processed: processed,
		Total:     total,
	})
	if s.ws != nil {
		_ = s.ws.NotifySyncProgress(ctx, st.key, processed, total, stage)
	}
}

// syncDebtor pushes one debtor to the CRM: person first, then the deals
// whose title carries the document.
func (s *SyncService) syncDebtor(ctx context.Context, d domain.Debtor, table *guarantee.Table, source string, st *runState) {
	doc := d.Document
	title := fmt.Sprintf("%s - %s", doc, d.Name)
	value := d.TotalWithInterest

	guaranteeContract := table.Contract(doc)

	var avalistas string
	if d.PersonType == domain.PersonTypePJ {
		avalistas = s.guarantorsText(ctx, d.Guarantors)
	}
	data := s.dealData(d, guaranteeContract, avalistas)

	person, err := s.findPerson(ctx, doc)
	if err != nil {
		st.fail(doc, fmt.Errorf("busca de pessoa falhou: %w", err))
		return
	}

	var (
		personID, dealID    int
		pipelineID, stageID int
	)

	if person == nil {
		created, err := s.api.CreatePerson(ctx, s.personInput(d))
		if err != nil {
			st.fail(doc, fmt.Errorf("criação de pessoa falhou: %w", err))
			return
		}
		personID = created.ID
		st.add(func(x *domain.SyncStats) { x.PersonsCreated++ })

		deal, err := s.api.CreateDeal(ctx, pipedrive.DealInput{
			Title:      title,
			PersonID:   personID,
			PipelineID: s.pipelines.SDR,
			StageID:    s.pipelines.StageNewCollections,
			Value:      value,
			Custom:     data,
		})
		if err != nil {
			st.fail(doc, fmt.Errorf("criação de negócio falhou: %w", err))
			return
		}
		dealID = deal.ID
		pipelineID, stageID = s.pipelines.SDR, s.pipelines.StageNewCollections
		st.add(func(x *domain.SyncStats) { x.DealsCreated++ })
	} else {
		personID = person.ID

		if err := s.api.UpdatePerson(ctx, personID, s.personInput(d)); err != nil {
			s.log.Warnw("person update failed", "document", doc, "person_id", personID, "error", err)
		} else {
			st.add(func(x *domain.SyncStats) { x.PersonsUpdated++ })
		}

		deals, err := s.api.DealsByPerson(ctx, personID)
		if err != nil {
			st.fail(doc, fmt.Errorf("listagem de negócios falhou: %w", err))
			return
		}

		variants := document.Variants(doc)
		var matched []pipedrive.Deal
		for _, dl := range deals {
			if titleMatches(dl.Title, variants) {
				matched = append(matched, dl)
			}
		}

		if len(matched) == 0 {
			deal, err := s.api.CreateDeal(ctx, pipedrive.DealInput{
				Title:      title,
				PersonID:   personID,
				PipelineID: s.pipelines.SDR,
				StageID:    s.pipelines.StageNewCollections,
				Value:      value,
				Custom:     data,
			})
			if err != nil {
				st.fail(doc, fmt.Errorf("criação de negócio falhou: %w", err))
				return
			}
			dealID = deal.ID
			pipelineID, stageID = s.pipelines.SDR, s.pipelines.StageNewCollections
			st.add(func(x *domain.SyncStats) { x.DealsCreated++ })
		}

		for _, dl := range matched {
			switch {
			case dl.PipelineID == s.pipelines.Judicial:
				// judicial collection is handled by another team, only registered here
				st.add(func(x *domain.SyncStats) { x.JudicialKept++ })
				if dealID == 0 {
					dealID, pipelineID, stageID = dl.ID, dl.PipelineID, dl.StageID
				}

			case dl.PipelineID == s.pipelines.SDR || dl.PipelineID == s.pipelines.Negotiation:
				upd := pipedrive.DealUpdate{Title: &title, Value: &value, Custom: data}
				if dl.Status != pipedrive.DealStatusOpen {
					open := pipedrive.DealStatusOpen
					upd.Status = &open
					st.add(func(x *domain.SyncStats) { x.DealsReopened++ })
				}
				if err := s.api.UpdateDeal(ctx, dl.ID, upd); err != nil {
					st.fail(doc, fmt.Errorf("atualização do negócio %d falhou: %w", dl.ID, err))
					continue
				}
				st.add(func(x *domain.SyncStats) { x.DealsUpdated++ })
				if dealID == 0 {
					dealID, pipelineID, stageID = dl.ID, dl.PipelineID, dl.StageID
				}

			default:
				open := pipedrive.DealStatusOpen
				sdr, stage := s.pipelines.SDR, s.pipelines.StageNewCollections
				upd := pipedrive.DealUpdate{
					Title:      &title,
					Status:     &open,
					PipelineID: &sdr,
					StageID:    &stage,
					Value:      &value,
					Custom:     data,
				}
				if err := s.api.UpdateDeal(ctx, dl.ID, upd); err != nil {
					st.fail(doc, fmt.Errorf("movimentação do negócio %d falhou: %w", dl.ID, err))
					continue
				}
				st.add(func(x *domain.SyncStats) { x.DealsMoved++ })
				if dealID == 0 {
					dealID, pipelineID, stageID = dl.ID, sdr, stage
				}
			}
		}
	}

	s.cachePerson(ctx, doc, personID)

	entity := s.entityFromDebtor(d, personID, dealID, pipelineID, stageID, guaranteeContract)
	_, action, err := s.entities.Save(ctx, entity, source)
	if err != nil {
		st.fail(doc, fmt.Errorf("registro local falhou: %w", err))
		return
	}
	st.count(action)
}

// removalPass walks the collection pipelines and closes deals whose
// debtor no longer appears in the bank file.
func (s *SyncService) removalPass(ctx context.Context, present map[string]bool, source string, st *runState) {
	for _, pipelineID := range []int{s.pipelines.SDR, s.pipelines.Negotiation} {
		deals, err := s.api.DealsByPipeline(ctx, pipelineID)
		if err != nil {
			st.fail(fmt.Sprintf("pipeline %d", pipelineID), fmt.Errorf("listagem falhou: %w", err))
			continue
		}

		for _, dl := range deals {
			doc := document.FromDealTitle(dl.Title)
			if doc == "" {
				continue
			}
			t := domain.PersonTypePF
			if len(doc) == 14 {
				t = domain.PersonTypePJ
			}
			if present[txtfile.SetKey(t, doc)] {
				continue
			}

			switch {
			case dl.PipelineID == s.pipelines.Judicial || s.inJudicial(ctx, doc, t):
				st.add(func(x *domain.SyncStats) { x.JudicialKept++ })

			case dl.PipelineID == s.pipelines.Formalization:
				// formalization deals run their own course

			case s.isExceptionStage(dl.StageID):
				st.add(func(x *domain.SyncStats) { x.ExceptionKept++ })

			case dl.Status == pipedrive.DealStatusLost:
				if err := s.api.ReopenDeal(ctx, dl.ID, dl.PipelineID, s.pipelines.StageStartCollection); err != nil {
					st.fail(doc, fmt.Errorf("reabertura do negócio %d falhou: %w", dl.ID, err))
					continue
				}
				st.add(func(x *domain.SyncStats) { x.DealsReopened++ })
				s.markRemoved(ctx, doc, t, source, st,
					fmt.Sprintf("negócio %d reaberto para cobrança (estava perdido)", dl.ID))

			default:
				if err := s.api.MarkDealLost(ctx, dl.ID, s.pipelines.LostReason); err != nil {
					st.fail(doc, fmt.Errorf("encerramento do negócio %d falhou: %w", dl.ID, err))
					continue
				}
				st.add(func(x *domain.SyncStats) { x.DealsLost++ })
				s.markRemoved(ctx, doc, t, source, st,
					fmt.Sprintf("negócio %d marcado como perdido: %s", dl.ID, s.pipelines.LostReason))
			}
		}
	}
}

func (s *SyncService) markRemoved(ctx context.Context, doc string, t domain.PersonType, source string, st *runState, notes string) {
	if err := s.entities.MarkRemoved(ctx, doc, t, source, notes); err != nil {
		s.log.Warnw("failed to record removal", "document", doc, "error", err)
		return
	}
	st.mu.Lock()
	st.removed++
	st.mu.Unlock()
}

func (s *SyncService) inJudicial(ctx context.Context, doc string, t domain.PersonType) bool {
	ent, err := s.entities.FindByDocument(ctx, doc, t)
	if err != nil || ent == nil {
		return false
	}
	return ent.CurrentPipeline == strconv.Itoa(s.pipelines.Judicial)
}

func (s *SyncService) isExceptionStage(stageID int) bool {
	for _, id := range s.pipelines.ExceptionStages {
		if id == stageID {
			return true
		}
	}
	return false
}

func titleMatches(title string, variants []string) bool {
	for _, v := range variants {
		if v != "" && strings.Contains(title, v) {
			return true
		}
	}
	return false
}

func (s *SyncService) findPerson(ctx context.Context, doc string) (*pipedrive.Person, error) {
	if s.redis != nil {
		if id, ok := s.redis.CachedPersonID(ctx, doc); ok {
			if p, err := s.api.GetPerson(ctx, id); err == nil && p != nil {
				return p, nil
			}
		}
	}
	return s.api.SearchPersonByDocument(ctx, doc)
}

func (s *SyncService) cachePerson(ctx context.Context, doc string, personID int) {
	if s.redis == nil || personID <= 0 {
		return
	}
	if err := s.redis.CachePersonID(ctx, doc, personID); err != nil {
		s.log.Debugw("person cache write failed", "document", doc, "error", err)
	}
}

func (s *SyncService) personInput(d domain.Debtor) pipedrive.PersonInput {
	custom := map[string]any{"CPF": d.Document}
	if d.BirthDate != "" {
		custom["DATA_NASCIMENTO"] = d.BirthDate
	}
	if d.MaritalStatus != "" {
		custom["ESTADO_CIVIL"] = d.MaritalStatus
	}
	if d.CreditCondition != "" {
		custom["CONDICAO_CPF"] = d.CreditCondition
	}
	if d.Address != "" {
		custom["ENDERECO"] = d.Address
	}
	return pipedrive.PersonInput{
		Name:   d.Name,
		Phones: d.Phones,
		Emails: d.Emails,
		Custom: custom,
	}
}

func (s *SyncService) dealData(d domain.Debtor, guaranteeContract, avalistas string) map[string]any {
	return map[string]any{
		"COOPERADO":              d.Member,
		"COOPERATIVA":            d.Cooperative,
		"TODOS_CONTRATOS":        d.AllContracts,
		"TODAS_OPERACOES":        d.AllOperations,
		"VENCIMENTO_MAIS_ANTIGO": d.OldestDueDate,
		"NUMERO_CONTRATO":        d.MainContract,
		"TIPO_ACAO_CARTEIRA":     d.PortfolioType,
		"ID_CPF_CNPJ":            d.Document,
		"AVALISTAS":              avalistas,
		"DIAS_DE_ATRASO":         d.MaxDaysLate,
		"VALOR_TOTAL_DA_DIVIDA":  d.TotalDebt.InexactFloat64(),
		"VALOR_TOTAL_VENCIDO":    d.TotalOverdue.InexactFloat64(),
		"VALOR_TOTAL_COM_JUROS":  d.TotalWithInterest.InexactFloat64(),
		"CONDICAO_CPF":           d.CreditCondition,
		"TOTAL_DE_PARCELAS":      d.TotalInstallments,
		"TAG_ATRASO":             d.DelayTagID,
		"CONTRATO_GARANTINORTE":  guaranteeContract,
	}
}

// guarantorsText builds the AVALISTAS note: one line per guarantor with
// what the CRM already knows about them. Guarantors are never created
// automatically, only reported.
func (s *SyncService) guarantorsText(ctx context.Context, guarantors []domain.Guarantor) string {
	if len(guarantors) == 0 {
		return ""
	}
	lines := make([]string, 0, len(guarantors))
	for _, g := range guarantors {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", g.Name, g.Document, s.guarantorNote(ctx, g)))
	}
	return strings.Join(lines, "\n")
}

func (s *SyncService) guarantorNote(ctx context.Context, g domain.Guarantor) string {
	person, err := s.api.SearchPersonByDocument(ctx, g.Document)
	if err != nil {
		s.log.Warnw("guarantor lookup failed", "document", g.Document, "error", err)
		return "Novo"
	}
	if person == nil {
		return "Novo"
	}

	deals, err := s.api.DealsByPerson(ctx, person.ID)
	if err != nil || len(deals) == 0 {
		return "Pessoa cadastrada, sem negócios"
	}

	ids := make([]string, 0, 3)
	for i, dl := range deals {
		if i == 3 {
			break
		}
		ids = append(ids, strconv.Itoa(dl.ID))
	}
	note := "Negócios: " + strings.Join(ids, ", ")
	if extra := len(deals) - len(ids); extra > 0 {
		note += fmt.Sprintf(" (+%d outros)", extra)
	}
	return note
}

func (s *SyncService) entityFromDebtor(d domain.Debtor, personID, dealID, pipelineID, stageID int, guaranteeContract string) domain.Entity {
	raw, _ := json.Marshal(d)

	guarantors := make([]string, 0, len(d.Guarantors))
	for _, g := range d.Guarantors {
		guarantors = append(guarantors, fmt.Sprintf("%s (%s)", g.Name, g.Document))
	}

	e := domain.Entity{
		Document:   d.Document,
		PersonType: d.PersonType,
		Name:       d.Name,

		TotalDebt:         d.TotalDebt.InexactFloat64(),
		TotalOverdue:      d.TotalOverdue.InexactFloat64(),
		TotalWithInterest: d.TotalWithInterest.InexactFloat64(),
		MaxDaysLate:       d.MaxDaysLate,

		Member:            d.Member,
		Cooperative:       d.Cooperative,
		MainContract:      d.MainContract,
		AllContracts:      d.AllContracts,
		AllOperations:     d.AllOperations,
		OldestDueDate:     d.OldestDueDate,
		PortfolioType:     d.PortfolioType,
		TotalInstallments: d.TotalInstallments,
		DelayTag:          strconv.Itoa(d.DelayTagID),
		GuaranteeContract: guaranteeContract,

		Phones:     d.Phones,
		Emails:     d.Emails,
		Guarantors: guarantors,
		Address:    d.Address,

		BirthDate:     d.BirthDate,
		RG:            d.RG,
		MotherName:    d.MotherName,
		MaritalStatus: d.MaritalStatus,

		CreditCondition: d.CreditCondition,

		OperationStatus: "ativo",
		RawData:         raw,
	}

	if personID > 0 {
		id := int64(personID)
		e.PipedrivePersonID = &id
	}
	if dealID > 0 {
		id := int64(dealID)
		e.PipedriveDealID = &id
	}
	if pipelineID > 0 {
		e.CurrentPipeline = strconv.Itoa(pipelineID)
	}
	if stageID > 0 {
		e.CurrentStage = strconv.Itoa(stageID)
	}
	return e
}

func (s *SyncService) setRunStatus(ctx context.Context, st RunStatus) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, st.Key, data, runStatusTTL); err != nil {
		s.log.Debugw("run status write failed", "key", st.Key, "error", err)
	}
}

func (s *SyncService) notifyComplete(ctx context.Context, key string, stats domain.SyncStats) {
	if s.ws == nil {
		return
	}
	_ = s.ws.NotifySyncComplete(ctx, key, stats)
}

func (s *SyncService) notifyFailed(ctx context.Context, key, msg string) {
	if s.ws == nil {
		return
	}
	_ = s.ws.NotifySyncFailed(ctx, key, msg)
}
