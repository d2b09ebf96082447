package basis

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/romgo/internal/errs"
)

// ModeSpec selects how many modes each block keeps: one count for every
// block, or one count per domain. The zero value keeps all modes.
type ModeSpec struct {
	all       int
	perDomain []int
}

// Modes returns a spec applying n to every block.
func Modes(n int) ModeSpec { return ModeSpec{all: n} }

// PerDomain returns a spec with one count per domain.
func PerDomain(n ...int) ModeSpec { return ModeSpec{perDomain: append([]int(nil), n...)} }

// IsPerDomain reports whether the spec lists counts per domain.
func (m ModeSpec) IsPerDomain() bool { return m.perDomain != nil }

// Resolve expands the spec to count blocks. A per-domain list must have
// exactly count entries. Negative counts are rejected.
func (m ModeSpec) Resolve(count int) ([]int, error) {
	out := make([]int, count)
	if m.perDomain != nil {
		if len(m.perDomain) != count {
			return nil, errs.InvalidArgument("mode list has %d entries for %d domains", len(m.perDomain), count)
		}
		copy(out, m.perDomain)
	} else {
		for i := range out {
			out[i] = m.all
		}
	}
	for i, n := range out {
		if n < 0 {
			return nil, errs.InvalidArgument("negative mode count %d for block %d", n, i)
		}
	}
	return out, nil
}

func (m ModeSpec) String() string {
	if m.perDomain == nil {
		return strconv.Itoa(m.all)
	}
	parts := make([]string, len(m.perDomain))
	for i, n := range m.perDomain {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseModeSpec parses "8" or "8,6,6,8".
func ParseModeSpec(s string) (ModeSpec, error) {
	fields := strings.Split(s, ",")
	ns := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return ModeSpec{}, errs.InvalidArgument("bad mode count %q", f)
		}
		ns[i] = n
	}
	if len(ns) == 1 {
		return Modes(ns[0]), nil
	}
	return PerDomain(ns...), nil
}

// UnmarshalYAML accepts a scalar or a sequence of integers.
func (m *ModeSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var n int
		if err := value.Decode(&n); err != nil {
			return err
		}
		*m = Modes(n)
	case yaml.SequenceNode:
		var ns []int
		if err := value.Decode(&ns); err != nil {
			return err
		}
		*m = PerDomain(ns...)
	default:
		return fmt.Errorf("line %d: modes must be an integer or a list of integers", value.Line)
	}
	return nil
}

// MarshalYAML writes the scalar or list form.
func (m ModeSpec) MarshalYAML() (any, error) {
	if m.perDomain != nil {
		return m.perDomain, nil
	}
	return m.all, nil
}
