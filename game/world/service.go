package world

import (
	"context"
	"errors"

	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/model"
	"gorm.io/gorm"
)

var (
	ErrContinentNotFound = apperr.NotFound("continent not found")
	ErrLocationNotFound  = apperr.NotFound("location not found")
	ErrRaceNotFound      = apperr.NotFound("race not found")
)

// Service serves the static world catalog: continents, locations and
// races. Read-only after seeding.
type Service struct {
	db *gorm.DB
}

// NewService creates a world Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Continents returns all continents ordered by name.
func (svc *Service) Continents(ctx context.Context) ([]model.Continent, error) {
	var continents []model.Continent
	err := svc.db.WithContext(ctx).Order("name").Find(&continents).Error
	return continents, err
}

// ContinentBySlug resolves a continent by slug.
func (svc *Service) ContinentBySlug(ctx context.Context, slug string) (*model.Continent, error) {
	var c model.Continent
	err := svc.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContinentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LocationsByContinent returns the continent's locations ordered by name.
func (svc *Service) LocationsByContinent(ctx context.Context, continentID int64) ([]model.Location, error) {
	var locs []model.Location
	err := svc.db.WithContext(ctx).
		Where("continent_id = ?", continentID).
		Order("name").
		Find(&locs).Error
	return locs, err
}

// LocationBySlug resolves a location by slug.
func (svc *Service) LocationBySlug(ctx context.Context, slug string) (*model.Location, error) {
	var loc model.Location
	err := svc.db.WithContext(ctx).Where("slug = ?", slug).First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// LocationByID resolves a location by primary key.
func (svc *Service) LocationByID(ctx context.Context, id int64) (*model.Location, error) {
	var loc model.Location
	err := svc.db.WithContext(ctx).First(&loc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// Races returns all races ordered by name.
func (svc *Service) Races(ctx context.Context) ([]model.Race, error) {
	var races []model.Race
	err := svc.db.WithContext(ctx).Order("name").Find(&races).Error
	return races, err
}

// RaceBySlug resolves a race by slug.
func (svc *Service) RaceBySlug(ctx context.Context, slug string) (*model.Race, error) {
	var r model.Race
	err := svc.db.WithContext(ctx).Where("slug = ?", slug).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RaceByID resolves a race by primary key.
func (svc *Service) RaceByID(ctx context.Context, id int64) (*model.Race, error) {
	var r model.Race
	err := svc.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
