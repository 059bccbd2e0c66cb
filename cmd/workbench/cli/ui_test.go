package cli

import (
	"testing"

	"workbench/internal/pathvar"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	keys := []string{"AUTO_BUILD", "SAVE_INTERVAL", "SELECT_ON_HOVER"}

	assert.Equal(t, []string{"AUTO_BUILD"}, Suggest("auto_buld", keys))
	assert.Equal(t, []string{"SAVE_INTERVAL"}, Suggest("SAVE_INTERVL", keys))
	assert.Empty(t, Suggest("completely_different", keys))

	assert.Contains(t, DidYouMean("auto_buld", keys), "Did you mean AUTO_BUILD?")
	assert.Empty(t, DidYouMean("xyz", keys))
}

func TestResultLine(t *testing.T) {
	line := Result(pathvar.Result{Severity: pathvar.Warning, Message: "path does not exist", CommitEnabled: true})
	assert.Contains(t, line, "warning")
	assert.Contains(t, line, "path does not exist")
	assert.Contains(t, line, "commit enabled")

	line = Result(pathvar.Result{Severity: pathvar.Error, Message: "path must be absolute"})
	assert.Contains(t, line, "commit blocked")
}

func TestTable(t *testing.T) {
	out := Table([][2]string{{"A", "1"}, {"LONGER", "2"}})
	assert.Contains(t, out, "A     ")
	assert.Contains(t, out, "LONGER")
}
