package database

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SampleIDPrefixLen is the length of the fixed prefix in front of the
// numeric subject id of every sample name ("BB_940" -> 940)
const SampleIDPrefixLen = 3

// ParseSampleID extracts the subject id from a sample name by dropping the
// fixed prefix. Names that are too short or whose suffix is not plain decimal
// digits fail with ErrInvalidSampleName.
func ParseSampleID(sampleName string) (int64, error) {
	runes := []rune(sampleName)
	if len(runes) <= SampleIDPrefixLen {
		return 0, errors.Wrapf(ErrInvalidSampleName, "%q is too short", sampleName)
	}
	suffix := runes[SampleIDPrefixLen:]
	// digits only: ParseInt alone would also take a sign
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, errors.Wrapf(ErrInvalidSampleName, "%q has no numeric id after the prefix", sampleName)
		}
	}
	id, err := strconv.ParseInt(string(suffix), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSampleName, "%q id out of range", sampleName)
	}
	return id, nil
}

// quoteIdent quotes a table or column name for use in SQL text.
// Callers only pass names that were read back from the schema.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
