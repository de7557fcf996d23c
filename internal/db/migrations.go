package db

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	embeddedmigrations "github.com/terraincognita07/tukicale/migrations"
	"gorm.io/gorm"
)

var (
	ErrMigrationEmpty    = errors.New("migration has no statements")
	ErrMigrationModified = errors.New("applied migration was modified")
	ErrMigrationConflict = errors.New("duplicate migration version")
)

var (
	migrationNamePattern = regexp.MustCompile(`^(\d+)_[^/]*\.sql$`)
	addColumnPattern     = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+(\S+)\s+ADD\s+COLUMN\s+(\S+)`)
)

// schemaMigration is one row of the ledger of applied schema files.
type schemaMigration struct {
	Version   string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Checksum  string    `gorm:"not null;default:''"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

type migrationFile struct {
	version    string
	order      int
	name       string
	checksum   string
	statements []string
}

func applyEmbeddedMigrations(database *gorm.DB) error {
	return applyMigrations(database, embeddedmigrations.Files)
}

// applyMigrations brings the schema up to date with the NNN_name.sql files in
// files. Each pending file runs in its own transaction; a file whose content
// changed after it was applied stops the run.
func applyMigrations(database *gorm.DB, files fs.FS) error {
	if err := database.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("prepare schema_migrations: %w", err)
	}

	pending, err := loadMigrations(files)
	if err != nil {
		return err
	}

	var applied []schemaMigration
	if err := database.Find(&applied).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	ledger := make(map[string]schemaMigration, len(applied))
	for _, row := range applied {
		ledger[row.Version] = row
	}

	for _, migration := range pending {
		if row, ok := ledger[migration.version]; ok {
			if row.Checksum != "" && row.Checksum != migration.checksum {
				return fmt.Errorf("%w: %s", ErrMigrationModified, migration.name)
			}
			continue
		}
		if err := runMigration(database, migration); err != nil {
			return err
		}
	}
	return nil
}

func loadMigrations(files fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	migrations := make([]migrationFile, 0, len(entries))
	byVersion := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := path.Base(entry.Name())
		match := migrationNamePattern.FindStringSubmatch(name)
		if entry.IsDir() || match == nil {
			continue
		}

		version := match[1]
		if other, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("%w %s: %s and %s", ErrMigrationConflict, version, other, name)
		}
		byVersion[version] = name

		order, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		content, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		sum := sha256.Sum256(content)
		migrations = append(migrations, migrationFile{
			version:    version,
			order:      order,
			name:       name,
			checksum:   hex.EncodeToString(sum[:]),
			statements: splitStatements(string(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].order < migrations[j].order
	})
	return migrations, nil
}

func runMigration(database *gorm.DB, migration migrationFile) error {
	if len(migration.statements) == 0 {
		return fmt.Errorf("%w: %s", ErrMigrationEmpty, migration.name)
	}

	return database.Transaction(func(tx *gorm.DB) error {
		for _, statement := range migration.statements {
			exists, err := addedColumnExists(tx, statement)
			if err != nil {
				return fmt.Errorf("migration %s: %w", migration.name, err)
			}
			if exists {
				continue
			}
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("migration %s: %w", migration.name, err)
			}
		}

		return tx.Create(&schemaMigration{
			Version:   migration.version,
			Name:      migration.name,
			Checksum:  migration.checksum,
			AppliedAt: time.Now().UTC(),
		}).Error
	})
}

// splitStatements drops "--" comment lines and splits on semicolons. Files
// must not use semicolons inside string literals.
func splitStatements(content string) []string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var statements []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

// addedColumnExists makes ALTER TABLE ... ADD COLUMN rerunnable on databases
// where the column was already added by hand.
func addedColumnExists(database *gorm.DB, statement string) (bool, error) {
	match := addColumnPattern.FindStringSubmatch(statement)
	if match == nil {
		return false, nil
	}
	return tableColumnExists(database, unquoteIdentifier(match[1]), unquoteIdentifier(match[2]))
}

func tableColumnExists(database *gorm.DB, table string, column string) (bool, error) {
	columns, err := database.Migrator().ColumnTypes(table)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", table, err)
	}
	for _, existing := range columns {
		if strings.EqualFold(existing.Name(), column) {
			return true, nil
		}
	}
	return false, nil
}

func unquoteIdentifier(identifier string) string {
	return strings.Trim(strings.TrimSpace(identifier), "\"`[]")
}
