// Package ilacsv reads sample tables exported by an in-circuit trace unit.
//
// The first line holds comma separated column names, optionally suffixed with
// a bit index ("data[3]"). A Vivado style "Radix - ..." line may follow and
// sets the number base of each column. HEX, BINARY and UNSIGNED cells are
// register patterns; SIGNED and unmarked cells are numbers. Every further line is one sample row;
// the row index is the sample's cycle count.
package ilacsv

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

// Radix is the number base of a column.
type Radix int

const (
	Decimal  Radix = iota // signed or plain decimal, kept as a real number
	Unsigned              // unsigned decimal, kept as a bit pattern
	Hex
	Binary
)

const radixPrefix = "radix - "

func parseRadix(field string) Radix {
	switch strings.ToUpper(strings.TrimSpace(field)) {
	case "HEX":
		return Hex
	case "BINARY":
		return Binary
	case "UNSIGNED":
		return Unsigned
	default:
		return Decimal
	}
}

// Table is a parsed capture. It is not modified after Parse returns.
type Table struct {
	Source string

	header []string
	names  []string
	index  map[string]int
	radix  []Radix
	rows   [][]sample.Raw
}

// Names returns the logical column names in order of first appearance.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Rows returns the number of sample rows.
func (t *Table) Rows() int {
	return len(t.rows)
}

// Index returns the field index of a logical column. Columns sharing a base
// name resolve to the last one.
func (t *Table) Index(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}

// Column extracts one column as a raw series. The cycle of each sample is its
// row index.
func (t *Table) Column(name string) ([]sample.Raw, bool) {
	idx, ok := t.Index(name)
	if !ok {
		return nil, false
	}
	out := make([]sample.Raw, len(t.rows))
	for i, row := range t.rows {
		r := row[idx]
		r.Cycle = uint64(i)
		out[i] = r
	}
	return out, true
}

// BaseName strips a trailing bit index and surrounding blanks from a header
// field.
func BaseName(field string) string {
	field = strings.TrimSpace(field)
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = strings.TrimSpace(field[:i])
	}
	return field
}

// ParseFile reads a table from disk.
func ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a whole table.
func Parse(r io.Reader, source string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	fail := func(line int, cause error, format string, args ...any) error {
		return errors.New(errors.KindParse).
			Source(source).
			Line(line).
			Detail(format, args...).
			Cause(cause).
			Build()
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fail(0, nil, "empty capture")
	}
	if err != nil {
		return nil, fail(csvLine(err), err, "malformed header")
	}

	t := &Table{
		Source: source,
		header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
		radix:  make([]Radix, len(header)),
	}
	for i, field := range header {
		name := BaseName(field)
		if name == "" {
			return nil, fail(1, nil, "empty column name in field %d", i+1)
		}
		t.header[i] = name
		if _, seen := t.index[name]; !seen {
			t.names = append(t.names, name)
		}
		t.index[name] = i
	}

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fail(csvLine(err), err, "malformed row")
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(record[0])), radixPrefix) {
				if len(record) != len(t.header) {
					return nil, fail(line, nil, "radix row has %d fields, header has %d", len(record), len(t.header))
				}
				for i, field := range record {
					if i == 0 {
						field = strings.TrimSpace(field)[len(radixPrefix):]
					}
					t.radix[i] = parseRadix(field)
				}
				continue
			}
		}

		if len(record) != len(t.header) {
			return nil, fail(line, nil, "row has %d fields, header has %d", len(record), len(t.header))
		}

		row := make([]sample.Raw, len(record))
		for i, field := range record {
			raw, err := parseCell(strings.TrimSpace(field), t.radix[i])
			if err != nil {
				return nil, fail(line, err, "column %q: invalid value %q", t.header[i], field)
			}
			row[i] = raw
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

func parseCell(field string, radix Radix) (sample.Raw, error) {
	switch radix {
	case Hex:
		bits, err := hexBits(field)
		if err != nil {
			return sample.Raw{}, err
		}
		return sample.Raw{Bits: bits}, nil
	case Unsigned:
		// the column holds the register pattern; sign and width are the probe's
		n, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return sample.Raw{}, err
		}
		return sample.Raw{Bits: strconv.FormatUint(n, 2)}, nil
	case Binary:
		for i := 0; i < len(field); i++ {
			switch field[i] {
			case '0', '1', 'x', 'X', 'z', 'Z':
			default:
				return sample.Raw{}, fmt.Errorf("invalid binary digit %q", field[i])
			}
		}
		if field == "" {
			return sample.Raw{}, stderrors.New("empty value")
		}
		return sample.Raw{Bits: strings.ToLower(field)}, nil
	default:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return sample.Raw{}, err
		}
		return sample.Raw{Real: v, IsReal: true}, nil
	}
}

// hexBits expands hex digits to four bits each. An x or z digit expands to
// four unknown bits.
func hexBits(field string) (string, error) {
	if field == "" {
		return "", stderrors.New("empty value")
	}
	var b strings.Builder
	b.Grow(4 * len(field))
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case c == 'x' || c == 'X':
			b.WriteString("xxxx")
		case c == 'z' || c == 'Z':
			b.WriteString("zzzz")
		default:
			n, err := strconv.ParseUint(string(c), 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid hex digit %q", c)
			}
			fmt.Fprintf(&b, "%04b", n)
		}
	}
	return b.String(), nil
}

func csvLine(err error) int {
	var perr *csv.ParseError
	if stderrors.As(err, &perr) {
		return perr.Line
	}
	return 0
}
