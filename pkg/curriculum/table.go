// Package curriculum holds the national standard annual hours reference table.
package curriculum

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed standard_hours.yaml
var defaultTableYAML []byte

// Table maps grade -> subject name -> annual standard hours. It is read-only
// after construction and safe for concurrent use.
type Table struct {
	grades map[int]map[string]int
}

type tableDocument struct {
	Version int                    `yaml:"version"`
	Grades  map[int]map[string]int `yaml:"grades"`
}

// Parse decodes a YAML reference table.
func Parse(raw []byte) (*Table, error) {
	var doc tableDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode standard hours: %w", err)
	}
	if len(doc.Grades) == 0 {
		return nil, fmt.Errorf("standard hours table has no grades")
	}
	for grade, subjects := range doc.Grades {
		if grade < 1 || grade > 6 {
			return nil, fmt.Errorf("standard hours: grade %d out of range", grade)
		}
		for name, hours := range subjects {
			if hours < 0 {
				return nil, fmt.Errorf("standard hours: grade %d %s is negative", grade, name)
			}
		}
	}
	return New(doc.Grades), nil
}

// Default returns the embedded national standard table.
func Default() *Table {
	t, err := Parse(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded standard hours table is invalid: %v", err))
	}
	return t
}

// Load reads the table from path, or returns Default when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standard hours %s: %w", path, err)
	}
	return Parse(raw)
}

// New builds a table from an in-memory mapping. The input is copied.
func New(grades map[int]map[string]int) *Table {
	copied := make(map[int]map[string]int, len(grades))
	for grade, subjects := range grades {
		inner := make(map[string]int, len(subjects))
		for name, hours := range subjects {
			inner[name] = hours
		}
		copied[grade] = inner
	}
	return &Table{grades: copied}
}

// Lookup returns the annual hours for an exact (grade, subject name) match.
func (t *Table) Lookup(grade int, subject string) (int, bool) {
	if t == nil {
		return 0, false
	}
	hours, ok := t.grades[grade][subject]
	return hours, ok
}

// AnnualHours returns the annual hours, or 0 when the pair is unknown.
func (t *Table) AnnualHours(grade int, subject string) int {
	hours, _ := t.Lookup(grade, subject)
	return hours
}

// Grades lists configured grades in ascending order.
func (t *Table) Grades() []int {
	if t == nil {
		return nil
	}
	grades := make([]int, 0, len(t.grades))
	for g := range t.grades {
		grades = append(grades, g)
	}
	sort.Ints(grades)
	return grades
}

// Subjects returns the subject->hours mapping of one grade, sorted by name.
func (t *Table) Subjects(grade int) []SubjectHours {
	if t == nil {
		return nil
	}
	subjects := t.grades[grade]
	out := make([]SubjectHours, 0, len(subjects))
	for name, hours := range subjects {
		out = append(out, SubjectHours{Subject: name, AnnualHours: hours})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}

// SubjectHours is one row of the reference table.
type SubjectHours struct {
	Subject     string `json:"subject"`
	AnnualHours int    `json:"annual_hours"`
}
