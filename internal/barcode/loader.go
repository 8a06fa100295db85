package barcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrConfiguration is wrapped by every marker table loading error.
var ErrConfiguration = errors.New("invalid marker table")

// Column names of the curated levels table.
const (
	colPos     = "POS"
	colRef     = "REF"
	colAlt     = "ALT"
	colLineage = "lineage"
	colLevel   = "level"
)

// LoadTable loads the marker table from a tab-separated file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open marker table: %v", ErrConfiguration, err)
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTable parses a marker table. The header must name the POS, REF, ALT,
// lineage and level columns; every level from 1 to NumLevels must have at
// least one marker.
func ParseTable(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: read header: %v", ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: empty file", ErrConfiguration)
	}

	cols, err := headerColumns(strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t"))
	if err != nil {
		return nil, err
	}

	t := newTable()
	lineNumber := 1
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		m, err := parseMarker(strings.Split(line, "\t"), cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrConfiguration, lineNumber, err)
		}
		t.add(m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan marker table: %v", ErrConfiguration, err)
	}

	var missing []string
	for _, ix := range t.levels {
		if ix.Len() == 0 {
			missing = append(missing, strconv.Itoa(ix.Level))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no markers for level %s", ErrConfiguration, strings.Join(missing, ", "))
	}

	return t, nil
}

// columnIndex records where each required column sits in a row.
type columnIndex struct {
	pos, ref, alt, lineage, level int
	width                         int
}

func headerColumns(header []string) (columnIndex, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var ci columnIndex
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{colPos, &ci.pos},
		{colRef, &ci.ref},
		{colAlt, &ci.alt},
		{colLineage, &ci.lineage},
		{colLevel, &ci.level},
	} {
		i, ok := idx[c.name]
		if !ok {
			return ci, fmt.Errorf("%w: missing %q column", ErrConfiguration, c.name)
		}
		*c.dst = i
		ci.width = max(ci.width, i+1)
	}
	return ci, nil
}

func parseMarker(fields []string, ci columnIndex) (Marker, error) {
	if len(fields) < ci.width {
		return Marker{}, fmt.Errorf("expected at least %d columns, found %d", ci.width, len(fields))
	}

	pos, err := strconv.ParseInt(strings.TrimSpace(fields[ci.pos]), 10, 64)
	if err != nil {
		return Marker{}, fmt.Errorf("invalid position: %s", fields[ci.pos])
	}

	level, err := strconv.Atoi(strings.TrimSpace(fields[ci.level]))
	if err != nil {
		return Marker{}, fmt.Errorf("invalid level: %s", fields[ci.level])
	}
	if level < 1 || level > NumLevels {
		return Marker{}, fmt.Errorf("level %d out of range 1-%d", level, NumLevels)
	}

	m := Marker{
		Pos:     pos,
		Ref:     strings.TrimSpace(fields[ci.ref]),
		Alt:     strings.TrimSpace(fields[ci.alt]),
		Lineage: strings.TrimSpace(fields[ci.lineage]),
		Level:   level,
	}
	if m.Ref == "" || m.Alt == "" || m.Lineage == "" {
		return Marker{}, fmt.Errorf("empty allele or lineage at position %d", pos)
	}
	return m, nil
}
