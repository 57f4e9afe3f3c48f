package watchlist

import (
	"context"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	cs "github.com/webtor-io/common-services"

	"github.com/reelist-io/reelist/models"
)

var errNoDB = errors.New("db is not initialized")

type pgStore struct {
	pg *cs.PG
}

func (s *pgStore) Create(ctx context.Context, item *models.WatchlistItem) error {
	db := s.pg.Get()
	if db == nil {
		return errNoDB
	}
	return models.CreateWatchlistItem(ctx, db, item)
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*models.WatchlistItem, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errNoDB
	}
	return models.GetItemByID(ctx, db, id)
}

func (s *pgStore) GetByTMDBID(ctx context.Context, tmdbID int64) (*models.WatchlistItem, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errNoDB
	}
	return models.GetItemByTMDBID(ctx, db, tmdbID)
}

func (s *pgStore) List(ctx context.Context, status *models.ItemStatus) ([]*models.WatchlistItem, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errNoDB
	}
	return models.GetItems(ctx, db, status)
}

func (s *pgStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) (*models.WatchlistItem, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errNoDB
	}
	return models.UpdateItemStatus(ctx, db, id, status)
}

func (s *pgStore) UpdatePersonal(ctx context.Context, id uuid.UUID, rating *float64, notes *string) (*models.WatchlistItem, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errNoDB
	}
	return models.UpdateItemPersonal(ctx, db, id, rating, notes)
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	db := s.pg.Get()
	if db == nil {
		return false, errNoDB
	}
	return models.DeleteItem(ctx, db, id)
}
