// Package builder assembles decoded report rows into one container per
// family occurrence. Rows that cannot be decoded or added are kept as
// diagnostics and the build carries on.
package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"famtree/internal/model"
	"famtree/internal/report"
)

// ErrEmptyReport is recorded for a report file without data rows.
var ErrEmptyReport = errors.New("report file has no data rows")

// Diagnostic is a report row, or a whole file, that was skipped.
type Diagnostic struct {
	File string
	Row  int // 0 when the whole file was skipped
	Err  error
}

func (d Diagnostic) String() string {
	if d.Row == 0 {
		return fmt.Sprintf("%s: %v", d.File, d.Err)
	}
	return fmt.Sprintf("%s:%d: %v", d.File, d.Row, d.Err)
}

func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		File  string `json:"file"`
		Row   int    `json:"row"`
		Error string `json:"error"`
	}{d.File, d.Row, d.Err.Error()})
}

// Result is everything one build produced.
type Result struct {
	Files       []string                     `json:"files"`
	Containers  []*model.FamilyDataContainer `json:"containers"`
	Diagnostics []Diagnostic                 `json:"diagnostics"`
}

// Rows returns how many records were stored across all containers.
func (r Result) Rows() int {
	n := 0
	for _, c := range r.Containers {
		for _, d := range model.DataTypes {
			n += c.Count(d)
		}
	}
	return n
}

type Option func(*Builder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// Builder groups records by occurrence identity. It is not safe for
// concurrent use.
type Builder struct {
	logger zerolog.Logger
	parser *report.Parser

	containers  map[model.Identity]*model.FamilyDataContainer
	order       []model.Identity
	files       []string
	diagnostics []Diagnostic
}

func New(opts ...Option) *Builder {
	b := &Builder{
		logger:     zerolog.Nop(),
		parser:     report.NewParser(),
		containers: make(map[model.Identity]*model.FamilyDataContainer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddRecord stores a record in the container of its occurrence, creating
// the container on first sight. A rejected first record creates nothing.
func (b *Builder) AddRecord(r model.Record) error {
	id := r.Header().Identity()
	c, ok := b.containers[id]
	if !ok {
		c = model.NewContainer()
	}
	if err := c.Add(r); err != nil {
		return err
	}
	if !ok {
		b.containers[id] = c
		b.order = append(b.order, id)
	}
	return nil
}

// AddRow decodes and stores one report row. Failures become diagnostics.
func (b *Builder) AddRow(row report.Row) {
	err := row.Err
	if err == nil {
		var rec model.Record
		if rec, err = report.DecodeRow(row.Fields); err == nil {
			err = b.AddRecord(rec)
		}
	}
	if err != nil {
		b.diagnose(Diagnostic{File: row.File, Row: row.Line, Err: err})
	}
}

// ReadFile streams one report file into the builder. A file that cannot be
// opened or has no data rows is a diagnostic, not an error. The only error
// is context cancellation.
func (b *Builder) ReadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		b.diagnose(Diagnostic{File: path, Err: err})
		return nil
	}
	defer f.Close()
	b.files = append(b.files, path)

	count := 0
	rows, errs := b.parser.Parse(path, f)
	for row := range rows {
		if ctx.Err() != nil {
			continue // drain so the parser goroutine exits
		}
		count++
		b.AddRow(row)
	}
	if err := <-errs; err != nil {
		b.diagnose(Diagnostic{File: path, Err: fmt.Errorf("read report: %w", err)})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if count == 0 {
		b.diagnose(Diagnostic{File: path, Err: ErrEmptyReport})
	}
	b.logger.Debug().Str("file", path).Int("rows", count).Msg("report read")
	return nil
}

// ReadPath reads a report file or every report in a directory.
func (b *Builder) ReadPath(ctx context.Context, path string) error {
	files, err := report.Discover(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := b.ReadFile(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Containers returns the containers in the order their occurrence was
// first seen.
func (b *Builder) Containers() []*model.FamilyDataContainer {
	out := make([]*model.FamilyDataContainer, len(b.order))
	for i, id := range b.order {
		out[i] = b.containers[id]
	}
	return out
}

func (b *Builder) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), b.diagnostics...)
}

func (b *Builder) Result() Result {
	return Result{
		Files:       append([]string(nil), b.files...),
		Containers:  b.Containers(),
		Diagnostics: b.Diagnostics(),
	}
}

func (b *Builder) diagnose(d Diagnostic) {
	b.logger.Warn().Str("file", d.File).Int("row", d.Row).Err(d.Err).Msg("row skipped")
	b.diagnostics = append(b.diagnostics, d)
}

// Build groups in-memory records. Diagnostics carry the record index as
// their row.
func Build(records []model.Record, opts ...Option) ([]*model.FamilyDataContainer, []Diagnostic) {
	b := New(opts...)
	for i, r := range records {
		if err := b.AddRecord(r); err != nil {
			b.diagnose(Diagnostic{Row: i + 1, Err: err})
		}
	}
	return b.Containers(), b.Diagnostics()
}

// BuildPath reads every report under path into containers.
func BuildPath(ctx context.Context, path string, opts ...Option) (Result, error) {
	b := New(opts...)
	if err := b.ReadPath(ctx, path); err != nil {
		return Result{}, err
	}
	res := b.Result()
	b.logger.Info().
		Int("files", len(res.Files)).
		Int("containers", len(res.Containers)).
		Int("rows", res.Rows()).
		Int("skipped", len(res.Diagnostics)).
		Msg("reports loaded")
	return res, nil
}
