// Package models defines core data structures for go-bbdiversity
package models

import (
	"gopkg.in/guregu/null.v3"
)

// SampleMetadata represents one subject row of the metadata table.
// WFREQ is read alongside the descriptive fields but only served by /wfreq.
type SampleMetadata struct {
	SampleID  int64       `json:"SAMPLEID" db:"SAMPLEID"`
	Ethnicity null.String `json:"ETHNICITY" db:"ETHNICITY"`
	Gender    null.String `json:"GENDER" db:"GENDER"`
	Age       null.Int    `json:"AGE" db:"AGE"`
	Location  null.String `json:"LOCATION" db:"LOCATION"`
	BBType    null.String `json:"BBTYPE" db:"BBTYPE"`
	WFreq     null.Float  `json:"-" db:"WFREQ"`
}

// SampleValues holds the OTUs present in one sample, ordered by abundance (descending).
// OTUIDs[i] and Values[i] always describe the same row.
type SampleValues struct {
	OTUIDs []int64 `json:"otu_ids"`
	Values []int64 `json:"sample_values"`
}

// NewSampleValues returns an empty result that encodes as two empty arrays.
func NewSampleValues(capacity int) *SampleValues {
	return &SampleValues{
		OTUIDs: make([]int64, 0, capacity),
		Values: make([]int64, 0, capacity),
	}
}

// Append adds one row keeping both slices aligned
func (sv *SampleValues) Append(otuID, value int64) {
	sv.OTUIDs = append(sv.OTUIDs, otuID)
	sv.Values = append(sv.Values, value)
}

// Len returns the number of rows
func (sv *SampleValues) Len() int {
	return len(sv.OTUIDs)
}

// SampleValueRow is one (otu_id, count) pair as read from the samples table
type SampleValueRow struct {
	OTUID int64 `db:"otu_id"`
	Value int64 `db:"value"`
}

// OTUDescription maps every descriptive column of an OTU row to its value.
type OTUDescription map[string]interface{}

// Health represents the /healthz response
type Health struct {
	Status    string `json:"status"`
	Samples   int    `json:"samples"`
	OTUFields int    `json:"otu_fields"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}
