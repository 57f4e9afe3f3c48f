package migrations

import (
	"github.com/go-pg/migrations/v8"
)

// Init registers all schema migrations on the collection. Versions are
// derived from the defining file names.
func Init(col *migrations.Collection) {
	createWatchlistItem(col)
}

func createWatchlistItem(col *migrations.Collection) {
	col.MustRegisterTx(func(db migrations.DB) error {
		_, err := db.Exec(`
			CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
			CREATE TABLE watchlist_item (
				item_id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				tmdb_id bigint NOT NULL UNIQUE,
				raw_input text NOT NULL,
				title text NOT NULL,
				year integer,
				description text,
				poster_path text,
				release_date text,
				genres jsonb NOT NULL DEFAULT '[]',
				vote_average double precision,
				vote_count integer,
				providers jsonb NOT NULL DEFAULT '[]',
				overview text,
				runtime integer,
				personal_rating double precision,
				personal_notes text,
				status text NOT NULL DEFAULT 'to_watch' CHECK (status IN ('to_watch', 'watched')),
				watched_at timestamptz,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			);
			CREATE INDEX watchlist_item_status_idx ON watchlist_item (status);
		`)
		return err
	}, func(db migrations.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS watchlist_item;`)
		return err
	})
}
