package selection

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SelectionParseError means the launcher answered in a form we could not
// turn into an index, which indicates a protocol mismatch.
type SelectionParseError struct {
	Source string // EnvInfo or "argument"
	Raw    string
	Err    error
}

func (e *SelectionParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid selection from %s %q: %v", e.Source, e.Raw, e.Err)
	}
	return fmt.Sprintf("invalid selection from %s %q", e.Source, e.Raw)
}

func (e *SelectionParseError) Unwrap() error {
	return e.Err
}

// Selection is the launcher's answer for the second phase.
type Selection struct {
	Index    int
	HasIndex bool
	Literal  string // the raw argument, if any
	Source   string
}

// Empty reports a first-phase invocation: nothing was selected yet.
func (s Selection) Empty() bool {
	return !s.HasIndex && s.Literal == ""
}

// RequireIndex returns the selected index or a SelectionParseError.
func (s Selection) RequireIndex() (int, error) {
	if !s.HasIndex {
		return 0, &SelectionParseError{Source: s.Source, Raw: s.Literal}
	}
	return s.Index, nil
}

// Decode interprets the launcher's answer. An index in the environment
// wins; otherwise the argument is checked for a "<index>:" prefix or a bare
// integer, and kept as a literal either way.
func Decode(env string, envSet bool, arg string) (Selection, error) {
	if envSet {
		idx, err := parseIndex(env)
		if err != nil {
			return Selection{}, &SelectionParseError{Source: EnvInfo, Raw: env, Err: err}
		}
		return Selection{Index: idx, HasIndex: true, Literal: arg, Source: EnvInfo}, nil
	}

	sel := Selection{Literal: arg, Source: "argument"}
	if arg == "" {
		return sel, nil
	}
	head := arg
	if i := strings.Index(arg, ":"); i >= 0 {
		head = arg[:i]
	}
	if idx, err := parseIndex(head); err == nil {
		sel.Index = idx
		sel.HasIndex = true
	}
	return sel, nil
}

// FromEnv decodes using the process environment.
func FromEnv(arg string) (Selection, error) {
	env, ok := os.LookupEnv(EnvInfo)
	return Decode(env, ok, arg)
}

func parseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, fmt.Errorf("negative index %d", idx)
	}
	return idx, nil
}
