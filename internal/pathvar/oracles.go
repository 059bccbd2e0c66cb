package pathvar

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"workbench/internal/errors"
)

// NamePolicy judges whether a variable name is syntactically acceptable.
// A non-nil error's message is shown to the user as is.
type NamePolicy interface {
	ValidateName(name string) error
}

// NamePolicyFunc adapts a function to NamePolicy
type NamePolicyFunc func(name string) error

func (f NamePolicyFunc) ValidateName(name string) error { return f(name) }

// PathSyntax judges path strings
type PathSyntax interface {
	IsValidPath(path string) bool
	IsAbsolute(path string) bool
}

// ExistenceProbe answers whether an absolute path currently resolves to
// something on the filesystem
type ExistenceProbe interface {
	Exists(path string) (bool, error)
}

// ProbeFunc adapts a function to ExistenceProbe
type ProbeFunc func(path string) (bool, error)

func (f ProbeFunc) Exists(path string) (bool, error) { return f(path) }

// Chooser opens a file or folder selection seeded with the current value.
// ok is false when the user cancelled.
type Chooser interface {
	ChooseFile(seed string) (path string, ok bool, err error)
	ChooseFolder(seed string) (path string, ok bool, err error)
}

// DefaultNamePolicy accepts names that start with a letter or underscore and
// continue with letters, digits or underscores.
type DefaultNamePolicy struct{}

func (DefaultNamePolicy) ValidateName(name string) error {
	if name == "" {
		return errors.NewValidationError(MessageNameEmpty, "name", errors.EmptyName)
	}
	for i, r := range name {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return errors.NewValidationError("variable name must start with a letter or underscore", "name", errors.NameSyntax)
			}
			continue
		}
		if unicode.IsSpace(r) {
			return errors.NewValidationError("variable name must not contain whitespace", "name", errors.NameSyntax)
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return errors.NewValidationError(fmt.Sprintf("variable name contains invalid character '%c'", r), "name", errors.NameSyntax)
		}
	}
	return nil
}

// OSPathSyntax checks paths against the rules of the running OS
type OSPathSyntax struct {
	// Windows forces Windows rules regardless of GOOS
	Windows bool
}

func (p OSPathSyntax) windows() bool {
	return p.Windows || runtime.GOOS == "windows"
}

func (p OSPathSyntax) IsValidPath(path string) bool {
	if strings.ContainsRune(path, 0) {
		return false
	}
	if !p.windows() {
		return true
	}
	rest := path
	if len(rest) >= 2 && rest[1] == ':' && isDriveLetter(rest[0]) {
		rest = rest[2:]
	}
	return !strings.ContainsAny(rest, `<>"|?*:`)
}

func (p OSPathSyntax) IsAbsolute(path string) bool {
	if !p.windows() {
		return filepath.IsAbs(path)
	}
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		return true
	}
	return len(path) >= 3 && isDriveLetter(path[0]) && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// FSProbe stats the path. Errors other than not-exist are returned.
type FSProbe struct{}

func (FSProbe) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewFileError("cannot probe path", path, errors.FileAccessDenied, err)
}

// StaticChooser answers chooser requests with fixed values. An empty answer
// counts as a cancellation.
type StaticChooser struct {
	File   string
	Folder string
	Err    error
}

func (c StaticChooser) ChooseFile(string) (string, bool, error) {
	if c.Err != nil {
		return "", false, c.Err
	}
	return c.File, c.File != "", nil
}

func (c StaticChooser) ChooseFolder(string) (string, bool, error) {
	if c.Err != nil {
		return "", false, c.Err
	}
	return c.Folder, c.Folder != "", nil
}

// normalize turns a chooser answer into an absolute OS-native path
func normalize(path string) (string, error) {
	abs, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
