package models

import (
	"context"
	"strings"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

type ItemStatus string

const (
	StatusToWatch ItemStatus = "to_watch"
	StatusWatched ItemStatus = "watched"
)

func (s ItemStatus) Valid() bool {
	return s == StatusToWatch || s == StatusWatched
}

// Provider is one watch offer stored alongside the item. The type field keeps
// the catalog's offer kind (flatrate, rent, buy).
type Provider struct {
	Name            string `json:"name"`
	LogoPath        string `json:"logo_path"`
	Kind            string `json:"type"`
	DisplayPriority int    `json:"display_priority"`
}

// ErrItemExists signals a unique-constraint violation on the catalog id:
// the movie is already on the list.
var ErrItemExists = errors.New("item already exists")

type WatchlistItem struct {
	tableName struct{} `pg:"watchlist_item"`

	ItemID   uuid.UUID `pg:"item_id,pk,type:uuid,default:uuid_generate_v4()"`
	TMDBID   int64     `pg:"tmdb_id,use_zero"`
	RawInput string    `pg:"raw_input"`

	Title       string     `pg:"title"`
	Year        *int       `pg:"year"`
	Description *string    `pg:"description"`
	PosterPath  *string    `pg:"poster_path"`
	ReleaseDate *string    `pg:"release_date"`
	Genres      []string   `pg:"genres,type:jsonb"`
	VoteAverage *float64   `pg:"vote_average"`
	VoteCount   *int       `pg:"vote_count"`
	Providers   []Provider `pg:"providers,type:jsonb"`
	Overview    *string    `pg:"overview"`
	Runtime     *int       `pg:"runtime"`

	PersonalRating *float64   `pg:"personal_rating"`
	PersonalNotes  *string    `pg:"personal_notes"`
	Status         ItemStatus `pg:"status"`
	WatchedAt      *time.Time `pg:"watched_at"`

	CreatedAt time.Time `pg:"created_at,default:now()"`
	UpdatedAt time.Time `pg:"updated_at,default:now()"`
}

func CreateWatchlistItem(ctx context.Context, db *pg.DB, item *WatchlistItem) error {
	if item.Status == "" {
		item.Status = StatusToWatch
	}
	_, err := db.Model(item).
		Context(ctx).
		Insert()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrItemExists
		}
		return errors.Wrap(err, "failed to insert watchlist item")
	}
	return nil
}

func GetItemByID(ctx context.Context, db *pg.DB, id uuid.UUID) (*WatchlistItem, error) {
	var item WatchlistItem
	err := db.Model(&item).
		Context(ctx).
		Where("item_id = ?", id).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch watchlist item")
	}
	return &item, nil
}

func GetItemByTMDBID(ctx context.Context, db *pg.DB, tmdbID int64) (*WatchlistItem, error) {
	var item WatchlistItem
	err := db.Model(&item).
		Context(ctx).
		Where("tmdb_id = ?", tmdbID).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch watchlist item by tmdb id")
	}
	return &item, nil
}

// GetItems returns items newest first, optionally filtered by status.
func GetItems(ctx context.Context, db *pg.DB, status *ItemStatus) ([]*WatchlistItem, error) {
	var items []*WatchlistItem
	q := db.Model(&items).
		Context(ctx).
		Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Select(); err != nil {
		return nil, errors.Wrap(err, "failed to fetch watchlist items")
	}
	return items, nil
}

// UpdateItemStatus flips the watched state; watched_at is set on transition to
// watched and cleared otherwise. Returns nil when the item does not exist.
func UpdateItemStatus(ctx context.Context, db *pg.DB, id uuid.UUID, status ItemStatus) (*WatchlistItem, error) {
	item := &WatchlistItem{
		ItemID: id,
		Status: status,
	}
	if status == StatusWatched {
		now := time.Now()
		item.WatchedAt = &now
	}
	item.UpdatedAt = time.Now()
	res, err := db.Model(item).
		Context(ctx).
		WherePK().
		Column("status", "watched_at", "updated_at").
		Update()
	if err != nil {
		return nil, errors.Wrap(err, "failed to update item status")
	}
	if res.RowsAffected() == 0 {
		return nil, nil
	}
	return GetItemByID(ctx, db, id)
}

// UpdateItemPersonal updates the personal rating and notes; nil fields keep
// the stored values. Returns nil when the item does not exist.
func UpdateItemPersonal(ctx context.Context, db *pg.DB, id uuid.UUID, rating *float64, notes *string) (*WatchlistItem, error) {
	item, err := GetItemByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if rating != nil {
		item.PersonalRating = rating
	}
	if notes != nil {
		item.PersonalNotes = notes
	}
	item.UpdatedAt = time.Now()
	_, err = db.Model(item).
		Context(ctx).
		WherePK().
		Column("personal_rating", "personal_notes", "updated_at").
		Update()
	if err != nil {
		return nil, errors.Wrap(err, "failed to update item personal details")
	}
	return item, nil
}

func DeleteItem(ctx context.Context, db *pg.DB, id uuid.UUID) (bool, error) {
	res, err := db.Model((*WatchlistItem)(nil)).
		Context(ctx).
		Where("item_id = ?", id).
		Delete()
	if err != nil {
		return false, errors.Wrap(err, "failed to delete watchlist item")
	}
	return res.RowsAffected() > 0, nil
}
