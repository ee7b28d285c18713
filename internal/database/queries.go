package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-while/go-bbdiversity/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v3"
)

// SampleNames returns every column of the samples table except the key, in column order
func (s *Store) SampleNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.withDB(func(db *sqlx.DB) (err error) {
		names, err = nonKeyColumns(ctx, db, s.cfg.SamplesTable, KeyColumn)
		return err
	})
	return names, err
}

// OTUFields returns every column of the otu table except the key, in column order
func (s *Store) OTUFields(ctx context.Context) ([]string, error) {
	var fields []string
	err := s.withDB(func(db *sqlx.DB) (err error) {
		fields, err = nonKeyColumns(ctx, db, s.cfg.OTUTable, KeyColumn)
		return err
	})
	return fields, err
}

// Metadata returns the metadata row of one subject.
// No row yields ErrNotFound, more than one row ErrAmbiguous.
func (s *Store) Metadata(ctx context.Context, sampleID int64) (*models.SampleMetadata, error) {
	var md *models.SampleMetadata
	err := s.withDB(func(db *sqlx.DB) (err error) {
		md, err = s.metadataRow(ctx, db, sampleID)
		return err
	})
	return md, err
}

// WashFrequency returns WFREQ of one subject, which may be null.
// Missing and duplicate subjects fail the same way as Metadata.
func (s *Store) WashFrequency(ctx context.Context, sampleID int64) (null.Float, error) {
	md, err := s.Metadata(ctx, sampleID)
	if err != nil {
		return null.Float{}, err
	}
	return md.WFreq, nil
}

// SampleValues returns the OTUs with a count above 1 in the named sample,
// most abundant first. Equal counts are ordered by otu_id.
func (s *Store) SampleValues(ctx context.Context, sampleName string) (*models.SampleValues, error) {
	var result *models.SampleValues
	err := s.withDB(func(db *sqlx.DB) error {
		names, err := nonKeyColumns(ctx, db, s.cfg.SamplesTable, KeyColumn)
		if err != nil {
			return err
		}
		if !containsExact(names, sampleName) {
			return errors.Wrapf(ErrUnknownSample, "sample %q", sampleName)
		}

		col := quoteIdent(sampleName)
		query := fmt.Sprintf(
			"SELECT %[1]s AS otu_id, %[2]s AS value FROM %[3]s WHERE %[2]s > 1 ORDER BY %[2]s DESC, %[1]s ASC",
			quoteIdent(KeyColumn), col, quoteIdent(s.cfg.SamplesTable))

		var rows []models.SampleValueRow
		err = retryable(ctx, query, func() error {
			rows = rows[:0]
			return db.SelectContext(ctx, &rows, query)
		})
		if err != nil {
			return errors.Wrapf(err, "failed to read sample %q", sampleName)
		}

		result = models.NewSampleValues(len(rows))
		for _, row := range rows {
			result.Append(row.OTUID, row.Value)
		}
		return nil
	})
	return result, err
}

// OTUDescription returns every column of one otu row, key included
func (s *Store) OTUDescription(ctx context.Context, otuID int64) (models.OTUDescription, error) {
	desc := models.OTUDescription{}
	err := s.withDB(func(db *sqlx.DB) error {
		query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1",
			quoteIdent(s.cfg.OTUTable), quoteIdent(KeyColumn))
		err := retryable(ctx, query, func() error {
			for k := range desc {
				delete(desc, k)
			}
			return db.QueryRowxContext(ctx, query, otuID).MapScan(desc)
		})
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "otu %d", otuID)
		}
		if err != nil {
			return errors.Wrapf(err, "failed to read otu %d", otuID)
		}
		// TEXT columns come back as []byte
		for k, v := range desc {
			if b, ok := v.([]byte); ok {
				desc[k] = string(b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return desc, nil
}

func (s *Store) metadataRow(ctx context.Context, db *sqlx.DB, sampleID int64) (*models.SampleMetadata, error) {
	quoted := make([]string, len(metadataColumns))
	for i, col := range metadataColumns {
		quoted[i] = quoteIdent(col) + " AS " + quoteIdent(col)
	}
	// LIMIT 2 is enough to tell a unique row from a duplicated one
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 2",
		strings.Join(quoted, ", "), quoteIdent(s.cfg.MetadataTable), quoteIdent(MetadataKeyColumn))

	var rows []*models.SampleMetadata
	err := retryable(ctx, query, func() error {
		rows = rows[:0]
		return db.SelectContext(ctx, &rows, query, sampleID)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata of subject %d", sampleID)
	}
	switch len(rows) {
	case 0:
		return nil, errors.Wrapf(ErrNotFound, "no metadata for subject %d", sampleID)
	case 1:
		return rows[0], nil
	default:
		return nil, errors.Wrapf(ErrAmbiguous, "metadata for subject %d", sampleID)
	}
}

func nonKeyColumns(ctx context.Context, db *sqlx.DB, table, key string) ([]string, error) {
	cols, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.Errorf("table %q not found", table)
	}
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		if strings.EqualFold(col, key) {
			continue
		}
		out = append(out, col)
	}
	return out, nil
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
