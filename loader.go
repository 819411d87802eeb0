package tsinfer

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadGenotypeSourceCSV reads a comma-delimited genotype matrix into an
// InMemoryGenotypeSource, grounded on the teacher's LoadSequences: a small,
// line-oriented loader good enough for CLI/test use, with the real columnar
// persistence formats (HDF5/zarr) left out of scope per spec.md §1.
//
// Format: one header row "sequence_length,<float>", then one row per site:
// "<position>,<ancestral>,<derived>,<genotype bitstring>", where the
// bitstring has one '0' or '1' character per sample, in sample order.
func LoadGenotypeSourceCSV(path string) (*InMemoryGenotypeSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening genotype source %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing genotype source %s", path)
	}
	if len(records) < 1 || len(records[0]) != 2 || records[0][0] != "sequence_length" {
		return nil, invalidInputf("genotype source %s: missing sequence_length header row", path)
	}
	seqLen, err := strconv.ParseFloat(records[0][1], 64)
	if err != nil {
		return nil, invalidInputf("genotype source %s: invalid sequence_length %q", path, records[0][1])
	}

	var numSamples int
	sites := make([]*Site, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 4 {
			return nil, invalidInputf("genotype source %s: site row %d has %d fields, want 4", path, i, len(rec))
		}
		pos, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, invalidInputf("genotype source %s: site row %d has invalid position %q", path, i, rec[0])
		}
		bits := rec[3]
		if i == 0 {
			numSamples = len(bits)
		} else if len(bits) != numSamples {
			return nil, invalidInputf("genotype source %s: site row %d has %d samples, want %d", path, i, len(bits), numSamples)
		}
		genotypes := make([]uint8, len(bits))
		for j, c := range bits {
			switch c {
			case '0':
				genotypes[j] = 0
			case '1':
				genotypes[j] = 1
			default:
				return nil, invalidInputf("genotype source %s: site row %d has non-binary character %q", path, i, c)
			}
		}
		sites = append(sites, &Site{
			SiteID:    i,
			Position:  pos,
			Ancestral: rec[1],
			Derived:   rec[2],
			Genotypes: genotypes,
		})
	}
	return NewInMemoryGenotypeSource(numSamples, seqLen, sites)
}
