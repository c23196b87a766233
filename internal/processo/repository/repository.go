// Package repository persists process records keyed by processId.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrNoID     = errors.New("processId is required")
)

// Store upsert-by-id record store.
type Store interface {
	// Upsert creates the record or merges it into the stored one and returns
	// what was written.
	Upsert(ctx context.Context, p *entity.Processo) (*entity.Processo, error)
	FindByID(ctx context.Context, id string) (*entity.Processo, error)
	// List returns records ordered by creation time.
	List(ctx context.Context) ([]*entity.Processo, error)
}

var now = time.Now

// merge applies incoming on top of existing (nil for a new record).
// Creation stamps are set once; ultimaAtualizacao moves on every write.
func merge(existing, incoming *entity.Processo, at time.Time) *entity.Processo {
	at = at.UTC()
	if existing == nil {
		out := incoming.Clone()
		if out.Status == "" {
			out.Status = entity.StatusEmAndamento
		}
		if out.DataCriacao.IsZero() {
			out.DataCriacao = at
		}
		out.Timestamps.Criacao = out.DataCriacao
		out.Timestamps.UltimaAtualizacao = at
		if out.Campos == nil {
			out.Campos = map[string]any{}
		}
		if out.SelectedFields == nil {
			out.SelectedFields = map[string]bool{}
		}
		return out
	}

	out := existing.Clone()
	if incoming.TipoProcesso != "" {
		out.TipoProcesso = incoming.TipoProcesso
	}
	if incoming.Campos != nil {
		out.Campos = entity.CloneMap(incoming.Campos)
	}
	if incoming.SelectedFields != nil {
		out.SelectedFields = make(map[string]bool, len(incoming.SelectedFields))
		for k, v := range incoming.SelectedFields {
			out.SelectedFields[k] = v
		}
	}
	// notes are always sent whole, an empty value clears them
	out.OutrosDetalhes = incoming.OutrosDetalhes
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	out.Timestamps.UltimaAtualizacao = at
	return out
}
