package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormSource reads the players table.
type GormSource struct {
	db *gorm.DB
}

// OpenGorm shares pool with the rest of the server.
func OpenGorm(pool *pgxpool.Pool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// NewGormSource migrates the players table and seeds it when empty.
func NewGormSource(ctx context.Context, db *gorm.DB, seed []Player) (*GormSource, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Player{}); err != nil {
		return nil, fmt.Errorf("migrate players: %w", err)
	}
	s := &GormSource{db: db}
	if len(seed) == 0 {
		return s, nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(&Player{}).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	if n == 0 {
		rows := make([]Player, len(seed))
		copy(rows, seed)
		for i := range rows {
			rows[i].ID = 0
		}
		if err := db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
			return nil, fmt.Errorf("seed players: %w", err)
		}
	}
	return s, nil
}

func (s *GormSource) scope(ctx context.Context, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&Player{})
	if active(q.Era) {
		tx = tx.Where("era = ?", q.Era)
	}
	if active(q.League) {
		tx = tx.Where("league = ?", q.League)
	}
	if active(q.Tier) {
		tx = tx.Where("tier = ?", q.Tier)
	}
	if positions := Positions(q.Position); positions != nil {
		tx = tx.Where("position IN ?", positions)
	}
	if len(q.Clubs) > 0 {
		tx = tx.Where("club IN ?", q.Clubs)
	}
	if len(q.Exclude) > 0 {
		tx = tx.Where("name NOT IN ?", q.Exclude)
	}
	return tx
}

func (s *GormSource) Count(ctx context.Context, q Query) (int, error) {
	var n int64
	if err := s.scope(ctx, q).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *GormSource) Pick(ctx context.Context, q Query, i int) (Player, error) {
	var p Player
	err := s.scope(ctx, q).Order("id").Offset(i).Limit(1).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Player{}, ErrNoMatch
	}
	return p, err
}

func (s *GormSource) List(ctx context.Context, q Query) ([]Player, error) {
	var ps []Player
	if err := s.scope(ctx, q).Order("id").Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *GormSource) Clubs(ctx context.Context) ([]string, error) {
	var clubs []string
	err := s.db.WithContext(ctx).Model(&Player{}).
		Where("club <> ''").
		Distinct("club").Order("club").Pluck("club", &clubs).Error
	return clubs, err
}
