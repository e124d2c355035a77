// Package importer validates bulk uploads of entity rows before they are
// written: each row is checked against a JSON Schema and for duplicates
// inside the file and against stored rows.
package importer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Kind tells the importer how to convert a cell before validation.
type Kind int

const (
	String Kind = iota
	Boolean
	Integer
)

// Config describes one importable entity.
type Config struct {
	Entity string
	// Schema is a JSON Schema applied to each row after conversion.
	Schema string
	// Keys are the columns that identify a row for duplicate detection.
	// Comparison ignores case and surrounding space.
	Keys []string
	// Kinds overrides the conversion of specific columns; others stay strings.
	Kinds map[string]Kind
}

// Importer checks rows for a single entity. It is safe for concurrent use.
type Importer struct {
	cfg    Config
	schema *gojsonschema.Schema
}

func New(cfg Config) (*Importer, error) {
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("importer %s: at least one key column is required", cfg.Entity)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(cfg.Schema))
	if err != nil {
		return nil, fmt.Errorf("importer %s: compile schema: %w", cfg.Entity, err)
	}
	return &Importer{cfg: cfg, schema: schema}, nil
}

func MustNew(cfg Config) *Importer {
	im, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return im
}

func (im *Importer) Entity() string { return im.cfg.Entity }

// Row is a validated record ready to be stored.
type Row struct {
	Line   int
	Values map[string]interface{}
}

// String returns the string value of column, or "".
func (r Row) String(column string) string {
	s, _ := r.Values[column].(string)
	return s
}

// Bool returns the boolean value of column and whether it was present.
func (r Row) Bool(column string) (bool, bool) {
	b, ok := r.Values[column].(bool)
	return b, ok
}

// Int returns the integer value of column and whether it was present.
func (r Row) Int(column string) (int64, bool) {
	n, ok := r.Values[column].(int64)
	return n, ok
}

type RowError struct {
	Line   int      `json:"line"`
	Errors []string `json:"errors"`
}

type Duplicate struct {
	Line   int    `json:"line"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Report is the outcome of checking (and later storing) one upload.
type Report struct {
	Entity     string      `json:"entity"`
	Total      int         `json:"total"`
	Imported   int         `json:"imported"`
	Rejected   []RowError  `json:"rejected"`
	Duplicates []Duplicate `json:"duplicates"`
	DryRun     bool        `json:"dryRun"`

	Accepted []Row `json:"-"`
}

// ExistsFunc reports whether a row with the same key is already stored.
type ExistsFunc func(ctx context.Context, row Row) (bool, error)

// Check validates records and sorts them into accepted, rejected and
// duplicate rows. exists may be nil. Errors from exists abort the check.
func (im *Importer) Check(ctx context.Context, records []Record, exists ExistsFunc) (*Report, error) {
	report := &Report{
		Entity:     im.cfg.Entity,
		Total:      len(records),
		Rejected:   []RowError{},
		Duplicates: []Duplicate{},
	}
	firstSeen := make(map[string]int, len(records))

	for _, rec := range records {
		row, errs := im.convert(rec)
		if len(errs) == 0 {
			errs = im.validate(row)
		}
		if len(errs) > 0 {
			report.Rejected = append(report.Rejected, RowError{Line: rec.Line, Errors: errs})
			continue
		}

		key := im.key(row)
		if line, ok := firstSeen[key]; ok {
			report.Duplicates = append(report.Duplicates, Duplicate{
				Line: rec.Line, Key: key, Reason: fmt.Sprintf("duplicate of line %d", line),
			})
			continue
		}
		firstSeen[key] = rec.Line

		if exists != nil {
			found, err := exists(ctx, row)
			if err != nil {
				return nil, fmt.Errorf("check line %d: %w", rec.Line, err)
			}
			if found {
				report.Duplicates = append(report.Duplicates, Duplicate{
					Line: rec.Line, Key: key, Reason: "already exists",
				})
				continue
			}
		}
		report.Accepted = append(report.Accepted, row)
	}
	return report, nil
}

func (im *Importer) convert(rec Record) (Row, []string) {
	row := Row{Line: rec.Line, Values: make(map[string]interface{}, len(rec.Fields))}
	var errs []string
	for col, raw := range rec.Fields {
		switch im.cfg.Kinds[col] {
		case Boolean:
			b, err := parseBool(raw)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", col, err))
				continue
			}
			row.Values[col] = b
		case Integer:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %q is not an integer", col, raw))
				continue
			}
			row.Values[col] = n
		default:
			row.Values[col] = raw
		}
	}
	sort.Strings(errs)
	return row, errs
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", s)
}

func (im *Importer) validate(row Row) []string {
	result, err := im.schema.Validate(gojsonschema.NewGoLoader(row.Values))
	if err != nil {
		return []string{fmt.Sprintf("schema validation error: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return errs
}

func (im *Importer) key(row Row) string {
	parts := make([]string, len(im.cfg.Keys))
	for i, k := range im.cfg.Keys {
		parts[i] = strings.ToLower(strings.TrimSpace(fmt.Sprint(row.Values[k])))
	}
	return strings.Join(parts, "|")
}
