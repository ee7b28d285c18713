package database

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/pkg/errors"
)

const (
	// KeyColumn keys both the samples and the otu table
	KeyColumn = "otu_id"
	// MetadataKeyColumn keys the metadata table
	MetadataKeyColumn = "SAMPLEID"
)

// metadataColumns are read by every metadata lookup
var metadataColumns = []string{MetadataKeyColumn, "ETHNICITY", "GENDER", "AGE", "LOCATION", "BBTYPE", "WFREQ"}

// readOnlyParams are appended to every DSN; the service never writes
const readOnlyParams = "mode=ro&_busy_timeout=5000&_query_only=true"

// buildDSN turns a file path (or file: URI) into a read-only sqlite3 DSN.
// URI filenames have to begin with 'file:' for the mode parameter to apply.
func buildDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + readOnlyParams
	}
	return dsn + "?" + readOnlyParams
}

// openPool opens, pings and validates one connection pool
func openPool(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, errors.Wrapf(err, "dataset %s not accessible", cfg.Path)
		}
	}

	db, err := sqlx.Open("sqlite3", buildDSN(cfg.Path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", cfg.Path)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			log.Printf("[DATABASE] Failed to close pool after ping error: %v", cerr)
		}
		return nil, errors.Wrapf(err, "failed to ping dataset %s", cfg.Path)
	}

	if err := validateSchema(ctx, db, cfg); err != nil {
		if cerr := db.Close(); cerr != nil {
			log.Printf("[DATABASE] Failed to close pool after validation error: %v", cerr)
		}
		return nil, errors.Wrapf(err, "dataset %s failed validation", cfg.Path)
	}
	return db, nil
}

// validateSchema checks the three tables exist and carry their key columns
func validateSchema(ctx context.Context, db *sqlx.DB, cfg *config.DatabaseConfig) error {
	required := []struct {
		table   string
		columns []string
	}{
		{cfg.SamplesTable, []string{KeyColumn}},
		{cfg.OTUTable, []string{KeyColumn}},
		{cfg.MetadataTable, metadataColumns},
	}
	for _, req := range required {
		cols, err := tableColumns(ctx, db, req.table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return errors.Errorf("table %q not found", req.table)
		}
		for _, want := range req.columns {
			if indexOfColumn(cols, want) < 0 {
				return errors.Errorf("table %q has no column %q", req.table, want)
			}
		}
	}
	return nil
}

// tableColumns returns the column names of table in declaration order,
// or an empty slice if the table does not exist
func tableColumns(ctx context.Context, db *sqlx.DB, table string) ([]string, error) {
	const query = "SELECT name FROM pragma_table_info(?) ORDER BY cid"
	cols := []string{}
	err := retryable(ctx, query, func() error {
		cols = cols[:0]
		return db.SelectContext(ctx, &cols, query, table)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read columns of %q", table)
	}
	return cols, nil
}

// indexOfColumn finds a column the way SQLite resolves identifiers (case-insensitive)
func indexOfColumn(cols []string, name string) int {
	for i, col := range cols {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}
