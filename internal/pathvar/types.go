// Package pathvar implements the headless path variable editor: a draft
// name/value pair that is validated on every change against injected name,
// path syntax and existence oracles.
package pathvar

import (
	"fmt"
	"strings"

	"workbench/internal/errors"
)

// Severity of a validation outcome. Ordered: None < Warning < Error.
type Severity int

const (
	None Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case None:
		return "none"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Mode tells whether a session defines a new variable or edits an existing one
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// Kind is a bitmask of the chooser requests a session offers
type Kind uint8

const (
	KindFile Kind = 1 << iota
	KindFolder
)

// Has reports whether every bit of other is set in k
func (k Kind) Has(other Kind) bool {
	return k&other == other && other != 0
}

func (k Kind) String() string {
	var parts []string
	if k.Has(KindFile) {
		parts = append(parts, "file")
	}
	if k.Has(KindFolder) {
		parts = append(parts, "folder")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseKinds converts names such as "file" and "folder" into a Kind mask
func ParseKinds(names []string) (Kind, error) {
	var k Kind
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "file":
			k |= KindFile
		case "folder", "dir", "directory":
			k |= KindFolder
		case "":
		default:
			return 0, errors.NewValidationError(fmt.Sprintf("unknown variable kind %q", name), "kinds", errors.InvalidConfig)
		}
	}
	return k, nil
}

// Standard messages shown while nothing is wrong
const (
	MessageNewVariable      = "Define a new path variable"
	MessageExistingVariable = "Edit an existing path variable"
)

// Validation messages
const (
	MessageNameEmpty    = "name must not be empty"
	MessageNameInUse    = "a variable with this name already exists"
	MessageValueEmpty   = "value must not be empty"
	MessagePathSyntax   = "not a valid path"
	MessagePathRelative = "path must be absolute"
	MessagePathMissing  = "path does not exist"
)

// Session is the fixed context of one editing session
type Session struct {
	Mode          Mode
	Kinds         Kind
	OriginalName  string // edit mode only
	OriginalValue string // edit mode only
	NamesInUse    []string
}

// StandardMessage returns the message shown when validation finds nothing
func (s Session) StandardMessage() string {
	if s.Mode == Edit {
		return MessageExistingVariable
	}
	return MessageNewVariable
}

func (s Session) nameInUse(name string) bool {
	if s.Mode == Edit && name == s.OriginalName {
		return false
	}
	for _, n := range s.NamesInUse {
		if n == name {
			return true
		}
	}
	return false
}

// Draft is the variable being edited
type Draft struct {
	Name         string
	Value        string
	NameTouched  bool
	ValueTouched bool
}

// Result is the outcome of validating a draft. Kind is Unknown when the
// severity is None.
type Result struct {
	Severity      Severity
	Message       string
	CommitEnabled bool
	Kind          errors.ErrorKind
}

// Variable is a committed name/value pair
type Variable struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}
