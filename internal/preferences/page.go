package preferences

import (
	"fmt"
	"time"

	"workbench/internal/errors"
	"workbench/internal/log"

	"github.com/go-playground/validator/v10"
)

// Keys of the general workbench preferences
const (
	AutoBuild                   = "AUTO_BUILD"
	SaveAllBeforeBuild          = "SAVE_ALL_BEFORE_BUILD"
	RefreshWorkspaceOnStartup   = "REFRESH_WORKSPACE_ON_STARTUP"
	ExitPromptOnCloseLastWindow = "EXIT_PROMPT_ON_CLOSE_LAST_WINDOW"
	ShowTasksOnBuild            = "SHOW_TASKS_ON_BUILD"
	SaveInterval                = "SAVE_INTERVAL"
	OpenOnSingleClick           = "OPEN_ON_SINGLE_CLICK"
	SelectOnHover               = "SELECT_ON_HOVER"
	OpenAfterDelay              = "OPEN_AFTER_DELAY"
)

// MaxSaveInterval is the largest snapshot interval in minutes
const MaxSaveInterval = 9999

// GeneralKeys lists the keys the general page manages
var GeneralKeys = []string{
	AutoBuild, SaveAllBeforeBuild, RefreshWorkspaceOnStartup, ExitPromptOnCloseLastWindow,
	ShowTasksOnBuild, SaveInterval, OpenOnSingleClick, SelectOnHover, OpenAfterDelay,
}

// RegisterDefaults installs the defaults of the general page into store
func RegisterDefaults(store Store) {
	store.SetDefault(AutoBuild, true)
	store.SetDefault(SaveAllBeforeBuild, false)
	store.SetDefault(RefreshWorkspaceOnStartup, false)
	store.SetDefault(ExitPromptOnCloseLastWindow, true)
	store.SetDefault(ShowTasksOnBuild, true)
	store.SetDefault(SaveInterval, 5)
	store.SetDefault(OpenOnSingleClick, false)
	store.SetDefault(SelectOnHover, false)
	store.SetDefault(OpenAfterDelay, false)
}

// OpenMode selects how items in viewers are opened
type OpenMode string

const (
	OpenSingle OpenMode = "single"
	OpenDouble OpenMode = "double"
)

// OpenMethod is the bitmask handed to viewers
type OpenMethod int

const (
	DoubleClick   OpenMethod = 0
	SingleClick   OpenMethod = 1 << 0
	SelectHover   OpenMethod = 1 << 1
	ArrowKeysOpen OpenMethod = 1 << 2
)

func (m OpenMethod) String() string {
	if m&SingleClick == 0 {
		return "double-click"
	}
	s := "single-click"
	if m&SelectHover != 0 {
		s += "|select-on-hover"
	}
	if m&ArrowKeysOpen != 0 {
		s += "|arrow-keys-open"
	}
	return s
}

// Workspace is the part of the workspace description the page edits
type Workspace interface {
	AutoBuilding() bool
	SnapshotInterval() time.Duration
	SetSnapshotInterval(d time.Duration) error
}

// StaticWorkspace is an in-memory Workspace
type StaticWorkspace struct {
	Auto     bool
	Interval time.Duration
}

func (w *StaticWorkspace) AutoBuilding() bool              { return w.Auto }
func (w *StaticWorkspace) SnapshotInterval() time.Duration { return w.Interval }

func (w *StaticWorkspace) SetSnapshotInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("snapshot interval must be positive, got %s", d)
	}
	w.Interval = d
	return nil
}

// Options holds the values shown on the general page
type Options struct {
	AutoBuild                   bool
	SaveAllBeforeBuild          bool
	RefreshWorkspaceOnStartup   bool
	ExitPromptOnCloseLastWindow bool
	ShowTasksOnBuild            bool
	SaveInterval                int      `validate:"min=1,max=9999"`
	OpenMode                    OpenMode `validate:"oneof=single double"`
	SelectOnHover               bool
	OpenAfterDelay              bool
}

// Page edits the general workbench preferences
type Page struct {
	Options

	store      Store
	workspace  Workspace
	validate   *validator.Validate
	logger     log.Logging
	openMethod OpenMethod
}

// NewPage creates a page over store and workspace and loads its options
func NewPage(store Store, workspace Workspace) *Page {
	p := &Page{
		store:     store,
		workspace: workspace,
		validate:  validator.New(),
		logger:    log.Default(),
	}
	p.Init()
	return p
}

// Init loads the options. Auto-build and the save interval come from the
// workspace, everything else from the store.
func (p *Page) Init() {
	p.AutoBuild = p.workspace.AutoBuilding()
	p.SaveAllBeforeBuild = p.store.Bool(SaveAllBeforeBuild)
	p.RefreshWorkspaceOnStartup = p.store.Bool(RefreshWorkspaceOnStartup)
	p.ExitPromptOnCloseLastWindow = p.store.Bool(ExitPromptOnCloseLastWindow)
	p.ShowTasksOnBuild = p.store.Bool(ShowTasksOnBuild)
	p.SaveInterval = int(p.workspace.SnapshotInterval() / time.Minute)
	p.SelectOpenMode(openModeOf(p.store.Bool(OpenOnSingleClick)))
	p.SelectOnHover = p.store.Bool(SelectOnHover)
	p.OpenAfterDelay = p.store.Bool(OpenAfterDelay)
	p.openMethod = p.computeOpenMethod()
}

// PerformDefaults resets every option to the store defaults
func (p *Page) PerformDefaults() {
	p.AutoBuild = p.store.DefaultBool(AutoBuild)
	p.SaveAllBeforeBuild = p.store.DefaultBool(SaveAllBeforeBuild)
	p.RefreshWorkspaceOnStartup = p.store.DefaultBool(RefreshWorkspaceOnStartup)
	p.ExitPromptOnCloseLastWindow = p.store.DefaultBool(ExitPromptOnCloseLastWindow)
	p.ShowTasksOnBuild = p.store.DefaultBool(ShowTasksOnBuild)
	p.SaveInterval = p.store.DefaultInt(SaveInterval)
	p.SelectOpenMode(openModeOf(p.store.DefaultBool(OpenOnSingleClick)))
	p.SelectOnHover = p.store.DefaultBool(SelectOnHover)
	p.OpenAfterDelay = p.store.DefaultBool(OpenAfterDelay)
}

// SelectOpenMode switches between single and double click opening
func (p *Page) SelectOpenMode(mode OpenMode) {
	p.OpenMode = mode
}

// SelectOnHoverEnabled reports whether the hover option applies
func (p *Page) SelectOnHoverEnabled() bool {
	return p.OpenMode == OpenSingle
}

// OpenAfterDelayEnabled reports whether the delayed open option applies
func (p *Page) OpenAfterDelayEnabled() bool {
	return p.OpenMode == OpenSingle
}

// Validate checks the options without applying them
func (p *Page) Validate() error {
	if err := p.validate.Struct(p.Options); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.NewValidationError(describe(fe), fe.Field(), errors.InvalidPreference)
		}
		return errors.Wrap(err, "invalid preferences")
	}
	return nil
}

// PerformOk validates and writes the options to the store and workspace
func (p *Page) PerformOk() error {
	if err := p.Validate(); err != nil {
		return err
	}

	// Older workspaces kept auto-build only in the workspace description
	if p.store.Bool(AutoBuild) && !p.workspace.AutoBuilding() {
		p.store.SetBool(AutoBuild, false)
	}
	p.store.SetBool(AutoBuild, p.AutoBuild)
	p.store.SetBool(SaveAllBeforeBuild, p.SaveAllBeforeBuild)
	p.store.SetBool(RefreshWorkspaceOnStartup, p.RefreshWorkspaceOnStartup)
	p.store.SetBool(ExitPromptOnCloseLastWindow, p.ExitPromptOnCloseLastWindow)
	p.store.SetBool(ShowTasksOnBuild, p.ShowTasksOnBuild)

	oldInterval := int(p.workspace.SnapshotInterval() / time.Minute)
	if oldInterval != p.SaveInterval {
		if err := p.workspace.SetSnapshotInterval(time.Duration(p.SaveInterval) * time.Minute); err != nil {
			p.logger.WithError(err).Error("Error changing save interval preference")
		} else {
			p.store.Fire(ChangeEvent{Key: SaveInterval, Old: oldInterval, New: p.SaveInterval})
		}
	}

	p.store.SetBool(OpenOnSingleClick, p.OpenMode == OpenSingle)
	p.store.SetBool(SelectOnHover, p.SelectOnHover)
	p.store.SetBool(OpenAfterDelay, p.OpenAfterDelay)
	p.openMethod = p.computeOpenMethod()

	p.logger.With(log.F("open_method", p.openMethod.String())).Debug("General preferences applied")
	return nil
}

// OpenMethod returns the method computed by the last Init or PerformOk
func (p *Page) OpenMethod() OpenMethod {
	return p.openMethod
}

func (p *Page) computeOpenMethod() OpenMethod {
	if p.OpenMode != OpenSingle {
		return DoubleClick
	}
	m := SingleClick
	if p.SelectOnHover {
		m |= SelectHover
	}
	if p.OpenAfterDelay {
		m |= ArrowKeysOpen
	}
	return m
}

func openModeOf(single bool) OpenMode {
	if single {
		return OpenSingle
	}
	return OpenDouble
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		return fmt.Sprintf("%s must be between 1 and %d", fe.Field(), MaxSaveInterval)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
