package report

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// Row is one raw report row and where it came from.
type Row struct {
	File   string
	Line   int // 1-based line the row starts on
	Fields []string
	Err    error // set when the row itself could not be read
}

// Parser streams rows out of a report CSV.
type Parser struct {
	comma rune
}

// NewParser creates a Parser for comma separated reports.
func NewParser() *Parser {
	return &Parser{comma: ','}
}

// Parse reads the report stream and returns a channel of rows.
// The first row is the header and is skipped. It runs asynchronously.
func (p *Parser) Parse(file string, r io.Reader) (chan Row, chan error) {
	rows := make(chan Row)
	errs := make(chan error, 1) // Buffered to avoid blocking if receiver stops

	go func() {
		defer close(rows)
		defer close(errs)

		cr := csv.NewReader(r)
		cr.Comma = p.comma
		cr.FieldsPerRecord = -1 // width is checked per data type
		cr.LazyQuotes = true

		first := true
		for {
			fields, err := cr.Read()
			if err == io.EOF {
				return
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// csv.Reader resumes at the next record
				rows <- Row{File: file, Line: perr.StartLine, Err: err}
				first = false
				continue
			}
			if err != nil {
				errs <- err
				return
			}
			line, _ := cr.FieldPos(0)
			if first {
				first = false
				continue
			}
			if isBlank(fields) {
				continue
			}
			rows <- Row{File: file, Line: line, Fields: fields}
		}
	}()

	return rows, errs
}

// ReadFile parses a whole report file.
func (p *Parser) ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Row
	rows, errs := p.Parse(path, f)
	for row := range rows {
		out = append(out, row)
	}
	if err := <-errs; err != nil {
		return out, err
	}
	return out, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
