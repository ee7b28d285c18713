// Package dbtest builds small biodiversity datasets on disk for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

// Schema mirrors the layout of belly_button_biodiversity.sqlite with two samples.
const Schema = `
CREATE TABLE samples (otu_id INTEGER PRIMARY KEY, BB_940 INTEGER, BB_941 INTEGER);
CREATE TABLE otu (otu_id INTEGER PRIMARY KEY, lowest_taxonomic_unit_found TEXT);
CREATE TABLE samples_metadata (
	SAMPLEID INTEGER, EVENT TEXT, ETHNICITY TEXT, GENDER TEXT, AGE INTEGER,
	WFREQ REAL, BBTYPE TEXT, LOCATION TEXT, COUNTRY012 TEXT
);
`

// Rows fills the tables.
//
// BB_940 holds (5,3) (2,1) (9,7) (1,0); BB_941 holds (5,4) (2,4) (9,0) (1,2).
// Subject 941 has a NULL WFREQ, subject 950 is stored twice and 942 not at all.
const Rows = `
INSERT INTO samples (otu_id, BB_940, BB_941) VALUES (1, 0, 2), (2, 1, 4), (5, 3, 4), (9, 7, 0);
INSERT INTO otu (otu_id, lowest_taxonomic_unit_found) VALUES
	(1, 'Archaea;Euryarchaeota'), (2, 'Bacteria'), (5, 'Bacteria;Actinobacteria'), (9, 'Bacteria;Firmicutes');
INSERT INTO samples_metadata (SAMPLEID, EVENT, ETHNICITY, GENDER, AGE, WFREQ, BBTYPE, LOCATION, COUNTRY012) VALUES
	(940, 'BellyButtonsScience', 'Caucasian', 'F', 24, 2, 'I', 'Beaufort/NC', 'usa'),
	(941, 'BellyButtonsScience', 'Caucasian/Midleastern', 'F', 34, NULL, 'I', 'Chicago/IL', 'usa'),
	(950, 'BellyButtonsScience', 'Caucasian', 'M', 40, 1, 'O', 'Raleigh/NC', 'usa'),
	(950, 'BellyButtonsScience', 'Caucasian', 'M', 41, 3, 'O', 'Raleigh/NC', 'usa');
`

// Write creates a dataset file at path from the given statements.
func Write(t testing.TB, path string, statements ...string) {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		t.Fatalf("dbtest: open %s: %v", path, err)
	}
	defer db.Close()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("dbtest: exec: %v", err)
		}
	}
}

// New writes the default dataset into a temp dir and returns a config pointing at it.
func New(t testing.TB) *config.DatabaseConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "belly_button_biodiversity.sqlite")
	Write(t, path, Schema, Rows)
	cfg := config.NewDefaultConfig().Database
	cfg.Path = path
	return cfg
}
