package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/processo/email"
	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/export"
	"github.com/apoio-migrante/gestor-processos/internal/processo/processid"
	"github.com/apoio-migrante/gestor-processos/internal/processo/registry"
	"github.com/apoio-migrante/gestor-processos/internal/processo/repository"
	"github.com/apoio-migrante/gestor-processos/internal/processo/templating"
	"github.com/apoio-migrante/gestor-processos/internal/shared/mail"
)

var (
	ErrNoProcessID  = errors.New("processId is required")
	ErrInvalidType  = errors.New("invalid process type")
	ErrNoRecipients = errors.New("at least one recipient is required")
	ErrTypeMismatch = errors.New("tipoProcesso does not match processId")
)

// Publisher receives record change notifications. Implementations must not block.
type Publisher interface {
	PublishRegenerate(processID string)
	PublishProcessoUpdate(processID, action string)
}

// Documento generated email for one record.
type Documento struct {
	ProcessID string `json:"processId"`
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
}

// EnvioRequest recipients of a generated document.
type EnvioRequest struct {
	To  []string `json:"to"`
	Cc  []string `json:"cc,omitempty"`
	Bcc []string `json:"bcc,omitempty"`
}

// ProcessoService record lifecycle: create, save, render and send.
type ProcessoService struct {
	store  repository.Store
	reg    *registry.Registry
	gens   *email.Generators
	sender mail.Sender
	events Publisher
	from   string
	logger *zap.Logger

	onWrite []func(ctx context.Context, processID string)
}

func NewProcessoService(store repository.Store, reg *registry.Registry, sender mail.Sender, events Publisher, from string, logger *zap.Logger) *ProcessoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = mail.Disabled{}
	}
	return &ProcessoService{
		store:  store,
		reg:    reg,
		gens:   email.NewGenerators(reg),
		sender: sender,
		events: events,
		from:   from,
		logger: logger,
	}
}

// OnWrite registers fn to run after this service stores a record. Writes
// made through Persist are not reported.
func (s *ProcessoService) OnWrite(fn func(ctx context.Context, processID string)) {
	s.onWrite = append(s.onWrite, fn)
}

func (s *ProcessoService) Registry() *registry.Registry {
	return s.reg
}

// Create starts a record of tipo with a freshly generated id.
func (s *ProcessoService) Create(ctx context.Context, tipo string) (*entity.Processo, error) {
	tipo = strings.TrimSpace(tipo)
	if tipo == "" {
		tipo = registry.DefaultType
	}
	if !s.reg.Has(tipo) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, tipo)
	}
	p := &entity.Processo{
		ProcessID:      processid.Generate(tipo),
		TipoProcesso:   tipo,
		Campos:         map[string]any{},
		SelectedFields: map[string]bool{},
	}
	saved, err := s.store.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create processo: %w", err)
	}
	s.logger.Info("processo created", zap.String("processId", saved.ProcessID), zap.String("tipo", tipo))
	s.publishUpdate(ctx, saved.ProcessID, "criado")
	return saved, nil
}

// Save validates p against its type, fills type defaults and upserts it.
func (s *ProcessoService) Save(ctx context.Context, p *entity.Processo) (*entity.Processo, error) {
	if p == nil || strings.TrimSpace(p.ProcessID) == "" {
		return nil, ErrNoProcessID
	}
	p = p.Clone()
	if err := s.resolveType(p); err != nil {
		return nil, err
	}
	if p.Campos != nil {
		p.Campos, _ = s.reg.ApplyDefaults(p.TipoProcesso, p.Campos)
	}
	saved, err := s.persist(ctx, p)
	if err != nil {
		return nil, err
	}
	s.publishUpdate(ctx, saved.ProcessID, "guardado")
	return saved, nil
}

// Persist validates and stores p as is. Used by form sessions after each edit.
func (s *ProcessoService) Persist(ctx context.Context, p *entity.Processo) (*entity.Processo, error) {
	p = p.Clone()
	if err := s.resolveType(p); err != nil {
		return nil, err
	}
	return s.persist(ctx, p)
}

func (s *ProcessoService) persist(ctx context.Context, p *entity.Processo) (*entity.Processo, error) {
	if err := s.reg.Validate(p.TipoProcesso, p.Campos); err != nil {
		return nil, err
	}
	saved, err := s.store.Upsert(ctx, p)
	if err != nil {
		s.logger.Error("store upsert failed", zap.String("processId", p.ProcessID), zap.Error(err))
		return nil, fmt.Errorf("save processo: %w", err)
	}
	return saved, nil
}

// resolveType fills TipoProcesso from the id, or checks that both agree.
func (s *ProcessoService) resolveType(p *entity.Processo) error {
	fromID := processid.ParseType(p.ProcessID)
	if p.TipoProcesso == "" {
		p.TipoProcesso = fromID
		return nil
	}
	if p.TipoProcesso != fromID {
		return fmt.Errorf("%w: %q vs %q", ErrTypeMismatch, p.TipoProcesso, fromID)
	}
	return nil
}

func (s *ProcessoService) Get(ctx context.Context, id string) (*entity.Processo, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ProcessoService) List(ctx context.Context) ([]*entity.Processo, error) {
	return s.store.List(ctx)
}

// Templates renders the card, summary and detail strings of a record.
func (s *ProcessoService) Templates(ctx context.Context, id string) (registry.Templates, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return registry.Templates{}, err
	}
	return templating.Display(s.reg, p), nil
}

// Documento generates the appointment request of a stored record.
func (s *ProcessoService) Documento(ctx context.Context, id string) (*Documento, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Render(p), nil
}

// Render generates the appointment request of p without touching the store.
func (s *ProcessoService) Render(p *entity.Processo) *Documento {
	g := s.gens.ForProcesso(p)
	return &Documento{ProcessID: p.ProcessID, Subject: g.Subject(p), HTML: g.Body(p)}
}

// EnviarEmail generates the document of id, mails it and marks the record sent.
func (s *ProcessoService) EnviarEmail(ctx context.Context, id string, req EnvioRequest) (string, error) {
	if len(req.To) == 0 {
		return "", ErrNoRecipients
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	doc := s.Render(p)
	messageID, err := s.SendEmail(ctx, mail.Message{
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: doc.Subject,
		HTML:    doc.HTML,
	})
	if err != nil {
		return "", err
	}
	if err := s.markSent(ctx, id); err != nil {
		// the mail is already out; a stale status is only logged
		s.logger.Error("mark processo sent failed", zap.String("processId", id), zap.Error(err))
	} else {
		s.publishUpdate(ctx, id, "enviado")
	}
	return messageID, nil
}

// SendEmail delivers an arbitrary message from the configured sender address.
func (s *ProcessoService) SendEmail(ctx context.Context, msg mail.Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	if msg.From == "" {
		msg.From = s.from
	}
	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		s.logger.Error("email send failed", zap.Strings("to", msg.To), zap.Error(err))
		return "", err
	}
	s.logger.Info("email sent", zap.Strings("to", msg.To), zap.String("messageId", id))
	return id, nil
}

// Export builds the XLSX workbook of every stored record.
func (s *ProcessoService) Export(ctx context.Context) (*excelize.File, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return export.Processos(records, s.reg)
}

// markSent re-reads the record so edits made while the mail was out survive.
func (s *ProcessoService) markSent(ctx context.Context, id string) error {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.Status = entity.StatusEnviado
	_, err = s.store.Upsert(ctx, p)
	return err
}

func (s *ProcessoService) publishUpdate(ctx context.Context, id, action string) {
	for _, fn := range s.onWrite {
		fn(ctx, id)
	}
	if s.events != nil {
		s.events.PublishProcessoUpdate(id, action)
	}
}
