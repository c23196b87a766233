package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
)

// processoRow table layout of a process record; campos and selectedFields
// live in jsonb columns.
type processoRow struct {
	ProcessID         string            `gorm:"primaryKey;size:160;column:process_id"`
	TipoProcesso      string            `gorm:"size:64;index"`
	Campos            datatypes.JSONMap `gorm:"type:jsonb"`
	SelectedFields    datatypes.JSONMap `gorm:"type:jsonb"`
	OutrosDetalhes    string            `gorm:"type:text"`
	Status            string            `gorm:"size:32;index"`
	DataCriacao       time.Time
	Criacao           time.Time
	UltimaAtualizacao time.Time
}

func (processoRow) TableName() string {
	return "processos"
}

func toRow(p *entity.Processo) *processoRow {
	selected := datatypes.JSONMap{}
	for k, v := range p.SelectedFields {
		selected[k] = v
	}
	campos := datatypes.JSONMap(entity.CloneMap(p.Campos))
	if campos == nil {
		campos = datatypes.JSONMap{}
	}
	return &processoRow{
		ProcessID:         p.ProcessID,
		TipoProcesso:      p.TipoProcesso,
		Campos:            campos,
		SelectedFields:    selected,
		OutrosDetalhes:    p.OutrosDetalhes,
		Status:            p.Status,
		DataCriacao:       p.DataCriacao,
		Criacao:           p.Timestamps.Criacao,
		UltimaAtualizacao: p.Timestamps.UltimaAtualizacao,
	}
}

func (r *processoRow) toEntity() *entity.Processo {
	selected := make(map[string]bool, len(r.SelectedFields))
	for k, v := range r.SelectedFields {
		if b, ok := v.(bool); ok {
			selected[k] = b
		}
	}
	campos := map[string]any(r.Campos)
	if campos == nil {
		campos = map[string]any{}
	}
	return &entity.Processo{
		ProcessID:      r.ProcessID,
		TipoProcesso:   r.TipoProcesso,
		Campos:         campos,
		SelectedFields: selected,
		OutrosDetalhes: r.OutrosDetalhes,
		Status:         r.Status,
		DataCriacao:    r.DataCriacao,
		Timestamps: entity.Timestamps{
			Criacao:           r.Criacao,
			UltimaAtualizacao: r.UltimaAtualizacao,
		},
	}
}

// GormStore PostgreSQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates the processos table.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&processoRow{})
}

func (s *GormStore) Upsert(ctx context.Context, p *entity.Processo) (*entity.Processo, error) {
	if p == nil || p.ProcessID == "" {
		return nil, ErrNoID
	}
	var out *entity.Processo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row processoRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "process_id = ?", p.ProcessID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = merge(nil, p, now())
			return tx.Create(toRow(out)).Error
		case err != nil:
			return err
		}
		out = merge(row.toEntity(), p, now())
		return tx.Save(toRow(out)).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*entity.Processo, error) {
	var row processoRow
	err := s.db.WithContext(ctx).First(&row, "process_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (s *GormStore) List(ctx context.Context) ([]*entity.Processo, error) {
	var rows []processoRow
	if err := s.db.WithContext(ctx).Order("criacao ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Processo, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}
