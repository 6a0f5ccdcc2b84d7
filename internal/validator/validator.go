package validator

import (
	"sort"
	"strings"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
	"github.com/schemactl/schemactl/pkg/logger"
)

// Kind tags a validation problem with the category it was found in.
type Kind string

const (
	KindTable      Kind = "Table"
	KindColumn     Kind = "Column"
	KindIndex      Kind = "Index"
	KindConstraint Kind = "Constraint"
	KindUnknown    Kind = "Unknown"
)

// Problem is one mismatch between the live database and the catalog.
type Problem struct {
	Kind Kind
	Name string
}

// Result accumulates everything a validation run found. All four checks run
// unconditionally, so the result is never partial. Callers treat it as
// read-only once returned.
type Result struct {
	ValidTables      []string
	ValidColumns     []string
	ValidIndexes     []string
	ValidConstraints []string
	Problems         []Problem
}

// Ok reports whether the live schema matched the catalog completely.
func (r *Result) Ok() bool {
	return len(r.Problems) == 0
}

// CountByKind returns how many problems of the given kind were recorded.
func (r *Result) CountByKind(kind Kind) int {
	count := 0
	for _, p := range r.Problems {
		if p.Kind == kind {
			count++
		}
	}
	return count
}

// Validator compares live database metadata against a catalog. Mismatches are
// reported as data in the result, never as errors; an error return means the
// live schema could not be inspected at all.
type Validator struct {
	adapter dialect.Adapter
	logger  *logger.Logger
	ignored map[string]bool
}

type Option func(*Validator)

// WithIgnoredTables excludes infrastructure tables (and their columns,
// indexes and constraints) from validation, such as the migration history.
func WithIgnoredTables(names ...string) Option {
	return func(v *Validator) {
		for _, name := range names {
			v.ignored[strings.ToLower(name)] = true
		}
	}
}

func New(adapter dialect.Adapter, log *logger.Logger, opts ...Option) *Validator {
	v := &Validator{
		adapter: adapter,
		logger:  log,
		ignored: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate pulls tables, columns, indexes and constraints from the live
// database and compares each against the catalog with case-insensitive set
// differences.
func (v *Validator) Validate(db dialect.Querier, cat *catalog.Catalog) (*Result, error) {
	result := &Result{}

	if err := v.validateTables(db, cat, result); err != nil {
		return nil, err
	}
	if err := v.validateColumns(db, cat, result); err != nil {
		return nil, err
	}
	if err := v.validateIndexes(db, cat, result); err != nil {
		return nil, err
	}
	if err := v.validateConstraints(db, cat, result); err != nil {
		return nil, err
	}

	v.logger.Infof("Schema validation finished: %d valid tables, %d problems", len(result.ValidTables), len(result.Problems))
	return result, nil
}

func (v *Validator) validateTables(db dialect.Querier, cat *catalog.Catalog, result *Result) error {
	live, err := v.adapter.ListTables(db)
	if err != nil {
		return err
	}
	live = v.dropIgnored(live, func(name string) string { return name })

	valid, problems := compareSets(live, cat.TableNames(), KindTable)
	result.ValidTables = valid
	result.Problems = append(result.Problems, problems...)
	return nil
}

func (v *Validator) validateColumns(db dialect.Querier, cat *catalog.Catalog, result *Result) error {
	live, err := v.adapter.ListColumns(db)
	if err != nil {
		return err
	}

	var keys []string
	for _, col := range live {
		if v.ignored[strings.ToLower(col.TableName)] {
			continue
		}
		keys = append(keys, col.TableName+","+col.ColumnName)
	}

	valid, problems := compareSets(keys, cat.ColumnKeys(), KindColumn)
	result.ValidColumns = valid
	result.Problems = append(result.Problems, problems...)
	return nil
}

func (v *Validator) validateIndexes(db dialect.Querier, cat *catalog.Catalog, result *Result) error {
	live, err := v.adapter.ListIndexes(db)
	if err != nil {
		return err
	}

	var names []string
	for _, idx := range live {
		if v.ignored[strings.ToLower(idx.TableName)] {
			continue
		}
		names = append(names, idx.IndexName)
	}

	valid, problems := compareSets(names, cat.IndexNames(), KindIndex)
	result.ValidIndexes = valid
	result.Problems = append(result.Problems, problems...)
	return nil
}

// validateConstraints classifies every live key constraint by name prefix.
// Constraints with the conventional PK_/FK_ prefixes are matched exactly
// against the catalog; anything else is accepted when its name occurs as a
// substring of a known key name, a deliberately loose rule since naming
// conventions outside our own are arbitrary.
func (v *Validator) validateConstraints(db dialect.Querier, cat *catalog.Catalog, result *Result) error {
	live, err := v.adapter.ListConstraints(db)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var liveFKs, livePKs, unknown []string
	for _, c := range live {
		if v.ignored[strings.ToLower(c.TableName)] {
			continue
		}
		key := strings.ToLower(c.ConstraintName)
		if seen[key] {
			continue
		}
		seen[key] = true

		switch {
		case hasPrefixFold(c.ConstraintName, catalog.ForeignKeyPrefix):
			liveFKs = append(liveFKs, c.ConstraintName)
		case hasPrefixFold(c.ConstraintName, catalog.PrimaryKeyPrefix):
			livePKs = append(livePKs, c.ConstraintName)
		default:
			unknown = append(unknown, c.ConstraintName)
		}
	}

	knownFKs := cat.ForeignKeyNames()
	knownPKs := cat.PrimaryKeyNames()

	validFKs, fkProblems := compareSets(liveFKs, knownFKs, KindConstraint)
	validPKs, pkProblems := compareSets(livePKs, knownPKs, KindConstraint)
	result.ValidConstraints = append(result.ValidConstraints, validFKs...)
	result.ValidConstraints = append(result.ValidConstraints, validPKs...)
	result.Problems = append(result.Problems, fkProblems...)
	result.Problems = append(result.Problems, pkProblems...)

	known := append(append([]string{}, knownFKs...), knownPKs...)
	for _, name := range unknown {
		if containedInAny(name, known) {
			result.ValidConstraints = append(result.ValidConstraints, name)
			continue
		}
		result.Problems = append(result.Problems, Problem{Kind: KindUnknown, Name: name})
	}

	return nil
}

func (v *Validator) dropIgnored(names []string, keyOf func(string) string) []string {
	var kept []string
	for _, name := range names {
		if v.ignored[strings.ToLower(keyOf(name))] {
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

// compareSets performs a case-insensitive symmetric difference. Names present
// on both sides are valid; names present on either side only become problems
// of the given kind.
func compareSets(live, expected []string, kind Kind) ([]string, []Problem) {
	liveSet := make(map[string]string, len(live))
	for _, name := range live {
		liveSet[strings.ToLower(name)] = name
	}
	expectedSet := make(map[string]string, len(expected))
	for _, name := range expected {
		expectedSet[strings.ToLower(name)] = name
	}

	var valid []string
	var problems []Problem

	for key, name := range liveSet {
		if _, ok := expectedSet[key]; ok {
			valid = append(valid, name)
		} else {
			problems = append(problems, Problem{Kind: kind, Name: name})
		}
	}
	for key, name := range expectedSet {
		if _, ok := liveSet[key]; !ok {
			problems = append(problems, Problem{Kind: kind, Name: name})
		}
	}

	sort.Strings(valid)
	sort.Slice(problems, func(i, j int) bool { return problems[i].Name < problems[j].Name })
	return valid, problems
}

func hasPrefixFold(name, prefix string) bool {
	return len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix)
}

func containedInAny(name string, known []string) bool {
	lower := strings.ToLower(name)
	for _, k := range known {
		if strings.Contains(strings.ToLower(k), lower) {
			return true
		}
	}
	return false
}
