package pathvar_test

import (
	"path/filepath"
	"testing"

	"workbench/internal/pathvar"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNamePolicy(t *testing.T) {
	policy := pathvar.DefaultNamePolicy{}

	tests := []struct {
		name    string
		wantErr string
	}{
		{"HOME", ""},
		{"_private", ""},
		{"var2", ""},
		{"", "name must not be empty"},
		{"2var", "variable name must start with a letter or underscore"},
		{" lead", "variable name must start with a letter or underscore"},
		{"has space", "variable name must not contain whitespace"},
		{"dash-name", "variable name contains invalid character '-'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.ValidateName(tt.name)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestWindowsPathSyntax(t *testing.T) {
	syntax := pathvar.OSPathSyntax{Windows: true}

	assert.True(t, syntax.IsValidPath(`C:\work\src`))
	assert.False(t, syntax.IsValidPath(`C:\work\a?b`))
	assert.False(t, syntax.IsValidPath(`C:\work:stream`))
	assert.False(t, syntax.IsValidPath("a\x00b"))

	assert.True(t, syntax.IsAbsolute(`C:\work`))
	assert.True(t, syntax.IsAbsolute(`\\server\share`))
	assert.False(t, syntax.IsAbsolute(`work\src`))
	assert.False(t, syntax.IsAbsolute(`C:work`))
}

func TestFSProbe(t *testing.T) {
	dir := t.TempDir()

	exists, err := pathvar.FSProbe{}.Exists(dir)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = pathvar.FSProbe{}.Exists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
}
