// Package archive reads and writes the `name "value"` record format used to
// persist variables between runs.
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zjrosen/dvars/internal/config"
	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
)

const header = "// dvars archive, rewritten on persist\n"

// Record is one parsed line.
type Record struct {
	Line    int
	Command string // "", "set" or "seta"
	Name    string
	Value   string
}

// ArchivedNames returns the names of variables flagged FlagArchive, sorted.
func ArchivedNames(reg *dvar.Registry) []string {
	var names []string
	reg.ForEach(func(v *dvar.Variable) {
		if v.Flags().Has(dvar.FlagArchive) {
			names = append(names, v.Name())
		}
	})
	return names
}

// Write saves names to path atomically. A latched variable is written with
// its pending value, which becomes current when the archive is loaded on the
// next run. Unknown names are skipped.
func Write(path string, reg *dvar.Registry, names []string) error {
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, name := range names {
		v := reg.Find(name)
		if v == nil {
			log.Warn(log.CatConfig, "Skipping unknown dvar in archive", "name", name)
			continue
		}
		buf.WriteString(dvar.FormatRecord(v.Name(), v.DisplayableLatchedValue()))
	}
	if err := config.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	log.Info(log.CatConfig, "Wrote archive", "path", path, "count", len(names))
	return nil
}

// Parse reads records from r. Malformed lines are logged and skipped.
func Parse(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}
		rec, ok := parseLine(line)
		if !ok {
			log.Warn(log.CatConfig, "Skipping malformed archive line", "line", lineNo, "text", line)
			continue
		}
		rec.Line = lineNo
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("reading archive: %w", err)
	}
	return out, nil
}

// Load parses r and applies each record to reg. Plain records are set on
// behalf of source; set and seta lines go through the console set command,
// and seta also flags the variable for archiving. Returns the number of
// records applied.
func Load(r io.Reader, reg *dvar.Registry, source dvar.Source) (int, error) {
	records, err := Parse(r)
	n := 0
	for _, rec := range records {
		if apply(reg, rec, source) != nil {
			n++
		}
	}
	return n, err
}

// LoadFile is Load over a file. A missing file applies nothing.
func LoadFile(path string, reg *dvar.Registry, source dvar.Source) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug(log.CatConfig, "No archive file", "path", path)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := Load(f, reg, source)
	log.Info(log.CatConfig, "Loaded archive", "path", path, "count", n)
	return n, err
}

func apply(reg *dvar.Registry, rec Record, source dvar.Source) *dvar.Variable {
	switch rec.Command {
	case "set":
		return reg.SetCommand(rec.Name, rec.Value)
	case "seta":
		v := reg.SetCommand(rec.Name, rec.Value)
		v.AddFlags(dvar.FlagArchive)
		return v
	default:
		return reg.SetFromStringByNameFromSource(rec.Name, rec.Value, source, dvar.FlagNone)
	}
}

func parseLine(line string) (Record, bool) {
	var rec Record
	word, rest := nextToken(line)
	switch strings.ToLower(word) {
	case "set", "seta":
		rec.Command = strings.ToLower(word)
		word, rest = nextToken(rest)
	}
	if word == "" || !dvar.IsValidName(word) {
		return rec, false
	}
	rec.Name = word

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return rec, false
		}
		rec.Value = rest[1 : end+1]
		return rec, true
	}
	rec.Value = rest
	return rec, true
}

func nextToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// stripComment removes a // comment that is not inside quotes.
func stripComment(line string) string {
	quoted := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			quoted = !quoted
		case !quoted && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}
