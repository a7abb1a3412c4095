package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationLogger adapts an ectologger.Logger to migrate.Logger.
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return false
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

type MigrationConfig struct {
	MigrationFolderPath string
	Version             uint
	Force               int
}

type MigrationService struct {
	config MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

// resolveMigrationFolder accepts an absolute path or one relative to the working directory.
func (ms *MigrationService) resolveMigrationFolder() (string, error) {
	folder := ms.config.MigrationFolderPath
	if !filepath.IsAbs(folder) {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		folder = filepath.Join(wd, folder)
	}
	if _, err := os.Stat(folder); err != nil {
		return "", fmt.Errorf("migration folder %s does not exist: %w", folder, err)
	}
	return folder, nil
}

// Migrate applies the migrations in the configured folder to db.
func (ms *MigrationService) Migrate(db *DatabaseInstance, databaseName string) error {
	folder, err := ms.resolveMigrationFolder()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{DatabaseName: databaseName})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, driver)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}
	m.Log = MigrationLogger{Logger: ms.logger}

	if ms.config.Force != 0 {
		if err := m.Force(ms.config.Force); err != nil {
			ms.logger.WithError(err).Errorf("Failed to force database to version %d", ms.config.Force)
			return err
		}
	}

	startTime := time.Now()
	if ms.config.Version != 0 {
		err = m.Migrate(ms.config.Version)
	} else {
		err = m.Up()
	}

	switch {
	case err == nil:
		ms.logger.Infof("Database migrations completed in %v", time.Since(startTime))
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	version, dirty, versionErr := m.Version()
	if versionErr != nil && !errors.Is(versionErr, migrate.ErrNilVersion) {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
	}
	latest, _ := LatestVersion(folder)
	ms.logger.WithError(err).Errorf("Failed to apply migrations. dirty=%t version=%d latest=%d", dirty, version, latest)
	return err
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

// LatestVersion returns the highest version among the up migrations in folderPath.
func LatestVersion(folderPath string) (int, error) {
	files, err := os.ReadDir(folderPath)
	if err != nil {
		return 0, err
	}

	var versions []int
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(file.Name())
		if len(matches) < 2 {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, err
		}
		versions = append(versions, version)
	}

	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files found in %s", folderPath)
	}

	sort.Ints(versions)
	return versions[len(versions)-1], nil
}
