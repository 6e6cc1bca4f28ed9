package database

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationConfig controls how schema migrations are applied at boot.
type MigrationConfig struct {
	// Path to the folder of NNNNNN_name.{up,down}.sql files, absolute or
	// relative to the working directory.
	FolderPath string
	// Target schema version. Zero means migrate all the way up.
	TargetVersion uint
	// When non-zero, force the recorded version before migrating. Used to
	// recover a database left dirty by a crashed deploy.
	ForceVersion int
	// Revert a dirty database to its pre-migration version on failure.
	AutoRollback bool
}

// Migrator applies golang-migrate migrations with recovery for the two
// failure modes seen in practice: a dirty version row and a version row
// pointing at a migration file that no longer exists.
type Migrator struct {
	config MigrationConfig
	logger ectologger.Logger
}

func NewMigrator(logger ectologger.Logger, config MigrationConfig) *Migrator {
	return &Migrator{config: config, logger: logger}
}

// Run applies migrations from the configured folder to the given database.
func (mg *Migrator) Run(databaseName string, driver database.Driver) error {
	folder, err := mg.folder()
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, driver)
	if err != nil {
		return errors.Wrap(err, "creating migrate instance")
	}
	m.Log = migrateLog{mg.logger}

	if mg.config.ForceVersion != 0 {
		if err := m.Force(mg.config.ForceVersion); err != nil {
			return errors.Wrapf(err, "forcing schema version %d", mg.config.ForceVersion)
		}
	}

	// Remember where we started so a failed run can roll back to it.
	before, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		mg.logger.WithError(err).Warn("could not read current schema version")
	}

	start := time.Now()
	if mg.config.TargetVersion != 0 {
		err = m.Migrate(mg.config.TargetVersion)
	} else {
		err = m.Up()
	}

	switch {
	case err == nil:
		mg.logger.Infof("schema migrations applied in %s", time.Since(start))
		return nil
	case err == migrate.ErrNoChange:
		mg.logger.Info("schema is up to date")
		return nil
	default:
		return mg.recover(m, folder, err, before)
	}
}

// recover handles a failed migration run. A missing-file error (the version
// row points past the files on disk, typically after a rollback deploy) is
// repaired by forcing to the newest file present. Any other failure on a
// dirty database is reverted to the pre-run version when AutoRollback is on;
// the original error is still returned so the process refuses to start.
func (mg *Migrator) recover(m *migrate.Migrate, folder string, runErr error, before uint) error {
	if strings.Contains(runErr.Error(), "no migration found for version") {
		latest, err := newestVersionOnDisk(folder)
		if err != nil {
			mg.logger.WithError(err).Error("could not determine newest migration on disk")
			return runErr
		}
		mg.logger.Warnf("schema version has no matching file, forcing to %d", latest)
		if err := m.Force(latest); err != nil {
			return errors.Wrapf(err, "forcing schema version %d", latest)
		}
		return nil
	}

	mg.logger.WithError(runErr).Error("schema migration failed")

	current, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		mg.logger.WithError(err).Warn("could not read schema version after failure")
		return runErr
	}

	if mg.config.AutoRollback && dirty {
		if before == 0 {
			before = current - 1
		}
		mg.logger.Warnf("schema dirty at version %d, reverting to %d", current, before)
		if err := m.Force(int(before)); err != nil {
			return errors.Wrapf(err, "reverting schema to version %d", before)
		}
	}

	return runErr
}

func (mg *Migrator) folder() (string, error) {
	folder := mg.config.FolderPath
	if _, err := os.Stat(folder); err == nil {
		return folder, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving migration folder")
	}
	folder = filepath.Join(wd, folder)
	if _, err := os.Stat(folder); err != nil {
		return "", errors.Wrapf(err, "migration folder %s not found", folder)
	}
	return folder, nil
}

var upMigrationPattern = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

func newestVersionOnDisk(folder string) (int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := upMigrationPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		v, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files in %s", folder)
	}
	sort.Ints(versions)
	return versions[len(versions)-1], nil
}

// migrateLog routes golang-migrate's verbose output through the service logger.
type migrateLog struct {
	ectologger.Logger
}

func (l migrateLog) Printf(format string, v ...any) {
	l.Infof(strings.TrimRight(format, "\n"), v...)
}

func (l migrateLog) Verbose() bool { return false }
