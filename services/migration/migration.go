package migration

import (
	"github.com/go-pg/migrations/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cs "github.com/webtor-io/common-services"
)

type PGMigration struct {
	pg  *cs.PG
	col *migrations.Collection
}

func NewPGMigration(pg *cs.PG, col *migrations.Collection) *PGMigration {
	return &PGMigration{
		pg:  pg,
		col: col,
	}
}

// Run applies migration commands ("up", "down", "reset", "version"). With no
// arguments it runs all pending migrations.
func (s *PGMigration) Run(a ...string) error {
	db := s.pg.Get()
	if db == nil {
		return errors.New("db is not initialized")
	}
	if len(a) == 0 {
		a = []string{"up"}
	}
	_, _, err := s.col.Run(db, "init")
	if err != nil {
		return errors.Wrap(err, "failed to init migrations")
	}
	oldVersion, newVersion, err := s.col.Run(db, a...)
	if err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	if newVersion != oldVersion {
		log.Infof("migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Infof("migration version is %d", oldVersion)
	}
	return nil
}
