package dvar

import (
	"bufio"
	"fmt"
	"io"
)

// ExternalDescription is the help text given to variables created from text.
const ExternalDescription = "External Dvar"

// SetFromString parses text as the variable's type and stores it on behalf
// of source. Enum text matching no table entry resets the variable.
func (v *Variable) SetFromString(text string, source Source) {
	if v == nil {
		return
	}
	r := v.reg
	cheatsOn := r.CheatsEnabled()

	v.mu.Lock()
	if v.name == "" {
		v.mu.Unlock()
		return
	}
	value := StringToValue(v.typ, v.domain, text)
	if v.typ == TypeEnum && value.i == InvalidEnumIndex {
		r.diag(DiagRejected, v.name, "'%s' is not a valid value for dvar '%s'. %s", text, v.name, DescribeDomain(v.typ, v.domain))
		value = v.reset
	}
	n := r.setVariantLocked(v, value, source, cheatsOn)
	v.mu.Unlock()

	r.publish(n)
}

// SetFromStringByName sets name from text on behalf of the Internal source,
// creating a string variable if none exists.
func (r *Registry) SetFromStringByName(name, text string) *Variable {
	return r.SetFromStringByNameFromSource(name, text, SourceInternal, FlagNone)
}

// SetFromStringByNameFromSource sets name from text. A missing name is
// registered as a string variable with flags plus FlagExternal; its value
// is adopted by the typed registration that eventually claims the name.
func (r *Registry) SetFromStringByNameFromSource(name, text string, source Source, flags Flags) *Variable {
	v := r.Find(name)
	if v == nil {
		return r.RegisterString(name, text, flags|FlagExternal, ExternalDescription)
	}
	v.SetFromString(text, source)
	return v
}

// SetCommand is the console "set" command: an External assignment that
// creates the variable if needed. While auto-exec loading is active the
// variable is tagged FlagAutoExec and the new value also becomes its reset.
func (r *Registry) SetCommand(name, text string) *Variable {
	v := r.SetFromStringByNameFromSource(name, text, SourceExternal, FlagNone)
	if v == nil {
		return nil
	}
	if r.InAutoExec() {
		v.mu.Lock()
		v.flags |= FlagAutoExec
		v.storeSlot(slotReset, v.current)
		v.mu.Unlock()
	}
	return v
}

// SetOrRegisterString sets v to value, or registers name as an external
// string variable when v is nil.
func (r *Registry) SetOrRegisterString(v *Variable, name, value string) *Variable {
	if v == nil {
		return r.RegisterString(name, value, FlagExternal, ExternalDescription)
	}
	v.SetText(value, SourceInternal)
	return v
}

// FormatRecord renders one archive line, `name "value"` and a newline.
// Values are not escaped: text containing a double quote is cut at that
// quote when the line is parsed back.
func FormatRecord(name, value string) string {
	return name + ` "` + value + "\"\n"
}

// SaveDvarsToBuffer writes one FormatRecord line per named variable, in the
// given order, using the current value. Unknown names are skipped with a
// diagnostic. A string value containing a double quote does not survive a
// reload intact; see FormatRecord.
func (r *Registry) SaveDvarsToBuffer(names []string, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, name := range names {
		v := r.Find(name)
		if v == nil {
			r.diag(DiagNotFound, name, "can't save unknown dvar '%s'", name)
			continue
		}
		v.mu.RLock()
		line := FormatRecord(v.name, ValueToString(v.current, v.domain))
		v.mu.RUnlock()
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing dvar buffer: %w", err)
	}
	return nil
}
