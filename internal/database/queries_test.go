package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleNames(t *testing.T) {
	s := openFixture(t)
	names, err := s.SampleNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BB_940", "BB_941"}, names)
}

func TestOTUFields(t *testing.T) {
	s := openFixture(t)
	fields, err := s.OTUFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"lowest_taxonomic_unit_found"}, fields)
}

func TestSampleValuesFiltersAndSorts(t *testing.T) {
	s := openFixture(t)
	sv, err := s.SampleValues(context.Background(), "BB_940")
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 5}, sv.OTUIDs)
	assert.Equal(t, []int64{7, 3}, sv.Values)
}

func TestSampleValuesTiesOrderedByOTU(t *testing.T) {
	s := openFixture(t)
	sv, err := s.SampleValues(context.Background(), "BB_941")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 1}, sv.OTUIDs)
	assert.Equal(t, []int64{4, 4, 2}, sv.Values)
}

func TestSampleValuesSortedAboveOneForEveryName(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()
	names, err := s.SampleNames(ctx)
	require.NoError(t, err)
	for _, name := range names {
		sv, err := s.SampleValues(ctx, name)
		require.NoError(t, err, name)
		require.Equal(t, len(sv.OTUIDs), len(sv.Values), name)
		for i, v := range sv.Values {
			assert.Greater(t, v, int64(1), name)
			if i > 0 {
				assert.LessOrEqual(t, v, sv.Values[i-1], name)
			}
		}
	}
}

func TestSampleValuesUnknownSample(t *testing.T) {
	s := openFixture(t)
	for _, name := range []string{"ZZZ_999", "otu_id", "bb_940", `BB_940" --`} {
		_, err := s.SampleValues(context.Background(), name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrUnknownSample), name)
	}
}

func TestMetadata(t *testing.T) {
	s := openFixture(t)
	md, err := s.Metadata(context.Background(), 940)
	require.NoError(t, err)
	assert.Equal(t, int64(940), md.SampleID)
	assert.Equal(t, "Caucasian", md.Ethnicity.String)
	assert.Equal(t, "F", md.Gender.String)
	assert.Equal(t, int64(24), md.Age.Int64)
	assert.Equal(t, "Beaufort/NC", md.Location.String)
	assert.Equal(t, "I", md.BBType.String)
}

func TestMetadataNotFound(t *testing.T) {
	s := openFixture(t)
	_, err := s.Metadata(context.Background(), 942)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMetadataAmbiguous(t *testing.T) {
	s := openFixture(t)
	_, err := s.Metadata(context.Background(), 950)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguous))
}

func TestWashFrequency(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()

	wfreq, err := s.WashFrequency(ctx, 940)
	require.NoError(t, err)
	assert.True(t, wfreq.Valid)
	assert.Equal(t, 2.0, wfreq.Float64)

	wfreq, err = s.WashFrequency(ctx, 941)
	require.NoError(t, err)
	assert.False(t, wfreq.Valid)

	_, err = s.WashFrequency(ctx, 942)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOTUDescription(t *testing.T) {
	s := openFixture(t)
	desc, err := s.OTUDescription(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), desc["otu_id"])
	assert.Equal(t, "Bacteria;Actinobacteria", desc["lowest_taxonomic_unit_found"])

	_, err = s.OTUDescription(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadsAreIdempotent(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()
	first, err := s.SampleValues(ctx, "BB_940")
	require.NoError(t, err)
	second, err := s.SampleValues(ctx, "BB_940")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
