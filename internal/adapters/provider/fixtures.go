package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/udrf/internal/domain/model"
)

// fixtureFile is the on-disk layout of a fixture file. The raw submission is
// kept as a generic tree and decoded through the lenient JSON decoder so that
// YAML and JSON fixtures tolerate the same malformed values.
type fixtureFile struct {
	Departments []fixtureDepartment `yaml:"departments"`
}

type fixtureDepartment struct {
	model.Department `yaml:",inline"`
	Raw              map[string]any `yaml:"raw"`
}

// ParseFixtures decodes departments and submissions from YAML or JSON bytes.
func ParseFixtures(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFixtures
	}
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("provider: decode fixtures: %w", err)
	}

	seen := make(map[recordKey]bool, len(file.Departments))
	out := make([]Record, 0, len(file.Departments))
	for i, d := range file.Departments {
		dept := d.Department
		dept.ID = strings.TrimSpace(dept.ID)
		dept.AcademicYear = strings.TrimSpace(dept.AcademicYear)
		switch {
		case dept.ID == "":
			return nil, fmt.Errorf("provider: department #%d: %w", i+1, ErrMissingID)
		case dept.AcademicYear == "":
			return nil, fmt.Errorf("provider: department %s: %w", dept.ID, ErrMissingYear)
		case seen[recordKey{dept.ID, dept.AcademicYear}]:
			return nil, fmt.Errorf("provider: %w: %s %s", ErrDuplicateRecord, dept.ID, dept.AcademicYear)
		}
		seen[recordKey{dept.ID, dept.AcademicYear}] = true

		raw, err := decodeRaw(d.Raw)
		if err != nil {
			return nil, fmt.Errorf("provider: department %s: %w", dept.ID, err)
		}
		out = append(out, Record{Department: dept, Raw: raw})
	}
	return out, nil
}

// LoadFixtures reads a fixture file into a MemoryProvider.
func LoadFixtures(path string) (*MemoryProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("provider: read %s: %w", path, err)
	}
	records, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("provider: %s: %w", path, err)
	}
	return NewMemoryProvider(records...), nil
}

func decodeRaw(tree map[string]any) (model.RawData, error) {
	var raw model.RawData
	if len(tree) == 0 {
		return raw, nil
	}
	b, err := json.Marshal(tree)
	if err != nil {
		return raw, fmt.Errorf("encode raw data: %w", err)
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return raw, fmt.Errorf("decode raw data: %w", err)
	}
	return raw, nil
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Department.ID != rs[j].Department.ID {
			return rs[i].Department.ID < rs[j].Department.ID
		}
		return rs[i].Department.AcademicYear < rs[j].Department.AcademicYear
	})
}
