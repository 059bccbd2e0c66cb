package preferences_test

import (
	"testing"
	"time"

	"workbench/internal/errors"
	"workbench/internal/preferences"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := preferences.NewMemoryStore()
	store.SetDefault("flag", true)
	store.SetDefault("count", 3)

	t.Run("defaults apply until set", func(t *testing.T) {
		assert.True(t, store.Bool("flag"))
		assert.Equal(t, 3, store.Int("count"))
		assert.True(t, store.IsDefault("flag"))
		assert.True(t, store.Contains("count"))
		assert.False(t, store.Contains("missing"))
		assert.Equal(t, 0, store.Int("missing"))
	})

	t.Run("listeners see changes only", func(t *testing.T) {
		var events []preferences.ChangeEvent
		remove := store.AddListener(func(e preferences.ChangeEvent) {
			events = append(events, e)
		})
		defer remove()

		store.SetBool("flag", true)
		assert.Empty(t, events, "setting the current value fires nothing")

		store.SetBool("flag", false)
		require.Len(t, events, 1)
		assert.Equal(t, preferences.ChangeEvent{Key: "flag", Old: true, New: false}, events[0])
		assert.False(t, store.IsDefault("flag"))

		store.SetToDefault("flag")
		require.Len(t, events, 2)
		assert.True(t, store.Bool("flag"))
	})

	t.Run("values equal to the default are not stored", func(t *testing.T) {
		store.SetInt("count", 7)
		assert.Equal(t, map[string]string{"count": "7"}, store.Values())
		store.SetInt("count", 3)
		assert.Empty(t, store.Values())
	})

	t.Run("load and keys", func(t *testing.T) {
		store.Load(map[string]string{"name": "x"})
		assert.Equal(t, "x", store.String("name"))
		assert.Equal(t, []string{"count", "flag", "name"}, store.Keys())
	})
}

func newPage(t *testing.T, ws *preferences.StaticWorkspace) (*preferences.MemoryStore, *preferences.Page) {
	t.Helper()
	store := preferences.NewMemoryStore()
	preferences.RegisterDefaults(store)
	return store, preferences.NewPage(store, ws)
}

func TestPageInit(t *testing.T) {
	ws := &preferences.StaticWorkspace{Auto: false, Interval: 10 * time.Minute}
	_, page := newPage(t, ws)

	assert.False(t, page.AutoBuild, "auto-build comes from the workspace")
	assert.Equal(t, 10, page.SaveInterval)
	assert.True(t, page.ExitPromptOnCloseLastWindow)
	assert.Equal(t, preferences.OpenDouble, page.OpenMode)
	assert.False(t, page.SelectOnHoverEnabled())
	assert.Equal(t, preferences.DoubleClick, page.OpenMethod())
}

func TestPagePerformOk(t *testing.T) {
	t.Run("writes options and fires interval change", func(t *testing.T) {
		ws := &preferences.StaticWorkspace{Auto: true, Interval: 5 * time.Minute}
		store, page := newPage(t, ws)

		var intervalEvents []preferences.ChangeEvent
		store.AddListener(func(e preferences.ChangeEvent) {
			if e.Key == preferences.SaveInterval {
				intervalEvents = append(intervalEvents, e)
			}
		})

		page.SaveAllBeforeBuild = true
		page.SaveInterval = 30
		page.SelectOpenMode(preferences.OpenSingle)
		page.SelectOnHover = true
		page.OpenAfterDelay = true
		require.NoError(t, page.PerformOk())

		assert.True(t, store.Bool(preferences.SaveAllBeforeBuild))
		assert.True(t, store.Bool(preferences.OpenOnSingleClick))
		assert.Equal(t, 30*time.Minute, ws.Interval)
		require.Len(t, intervalEvents, 1)
		assert.Equal(t, 5, intervalEvents[0].Old)
		assert.Equal(t, 30, intervalEvents[0].New)
		assert.Equal(t, preferences.SingleClick|preferences.SelectHover|preferences.ArrowKeysOpen, page.OpenMethod())

		// Unchanged interval fires nothing
		require.NoError(t, page.PerformOk())
		assert.Len(t, intervalEvents, 1)
	})

	t.Run("hover options are ignored for double click", func(t *testing.T) {
		_, page := newPage(t, &preferences.StaticWorkspace{Auto: true, Interval: 5 * time.Minute})
		page.SelectOnHover = true
		require.NoError(t, page.PerformOk())
		assert.Equal(t, preferences.DoubleClick, page.OpenMethod())
		assert.Equal(t, "double-click", page.OpenMethod().String())
	})

	t.Run("legacy auto-build is reconciled", func(t *testing.T) {
		ws := &preferences.StaticWorkspace{Auto: false, Interval: 5 * time.Minute}
		store, page := newPage(t, ws)
		require.True(t, store.Bool(preferences.AutoBuild), "store default says true")

		var autoEvents []preferences.ChangeEvent
		store.AddListener(func(e preferences.ChangeEvent) {
			if e.Key == preferences.AutoBuild {
				autoEvents = append(autoEvents, e)
			}
		})

		page.AutoBuild = true
		require.NoError(t, page.PerformOk())
		require.Len(t, autoEvents, 2)
		assert.Equal(t, false, autoEvents[0].New)
		assert.Equal(t, true, autoEvents[1].New)
	})

	t.Run("invalid options are rejected", func(t *testing.T) {
		ws := &preferences.StaticWorkspace{Auto: true, Interval: 5 * time.Minute}
		store, page := newPage(t, ws)

		page.SaveInterval = 0
		err := page.PerformOk()
		require.Error(t, err)
		assert.Equal(t, errors.InvalidPreference, errors.KindOf(err))
		assert.Contains(t, err.Error(), "between 1 and 9999")

		page.SaveInterval = preferences.MaxSaveInterval + 1
		assert.Error(t, page.PerformOk())

		page.SaveInterval = 5
		page.OpenMode = "triple"
		assert.ErrorContains(t, page.PerformOk(), "OpenMode")

		assert.Empty(t, store.Values(), "nothing was written")
	})
}

func TestPagePerformDefaults(t *testing.T) {
	ws := &preferences.StaticWorkspace{Auto: false, Interval: 45 * time.Minute}
	store, page := newPage(t, ws)
	store.SetBool(preferences.ShowTasksOnBuild, false)
	page.Init()
	require.False(t, page.ShowTasksOnBuild)

	page.SelectOpenMode(preferences.OpenSingle)
	page.PerformDefaults()

	assert.True(t, page.AutoBuild)
	assert.True(t, page.ShowTasksOnBuild)
	assert.Equal(t, 5, page.SaveInterval)
	assert.Equal(t, preferences.OpenDouble, page.OpenMode)
	assert.False(t, page.OpenAfterDelayEnabled())
}
