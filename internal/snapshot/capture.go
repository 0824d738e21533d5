package snapshot

import (
	"strings"

	"github.com/zjrosen/dvars/internal/dvar"
)

// Capture records every variable in reg, in name order.
func Capture(reg *dvar.Registry) []Record {
	var out []Record
	reg.ForEach(func(v *dvar.Variable) {
		out = append(out, Record{
			Name:  v.Name(),
			Type:  v.Type().String(),
			Value: v.DisplayableValue(),
			Flags: uint32(v.Flags()),
		})
	})
	return out
}

// Restore applies records to reg on behalf of source. Missing variables are
// created as external strings and adopt the value when code registers them.
// Permission rules apply as for any other set. It returns the number of
// records applied.
func Restore(reg *dvar.Registry, records []Record, source dvar.Source) int {
	n := 0
	for _, rec := range records {
		if reg.SetFromStringByNameFromSource(rec.Name, rec.Value, source, dvar.FlagNone) != nil {
			n++
		}
	}
	return n
}

// Dump renders records in the archive line format, one per line.
func Dump(records []Record) string {
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(dvar.FormatRecord(rec.Name, rec.Value))
	}
	return b.String()
}
