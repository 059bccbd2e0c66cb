package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"workbench/cmd/workbench/cli"
	"workbench/internal/errors"
	"workbench/internal/log"
	"workbench/internal/pathvar"
	"workbench/internal/preferences"
	"workbench/internal/prefimport"

	"github.com/spf13/cobra"
)

// Preference nodes the CLI reads and writes
const (
	instanceScope    = "instance"
	workbenchNode    = "org.eclipse.ui.workbench"
	resourcesNode    = "org.eclipse.core.resources"
	pathVarKeyPrefix = "pathvariable."
)

// generalPrefs bundles the store, workspace and page built from config
type generalPrefs struct {
	store     *preferences.MemoryStore
	workspace *preferences.StaticWorkspace
	page      *preferences.Page
}

func (a *app) generalPrefs() *generalPrefs {
	store := preferences.NewMemoryStore()
	preferences.RegisterDefaults(store)
	store.Load(a.cfg.Preferences)

	ws := &preferences.StaticWorkspace{
		Auto:     store.Bool(preferences.AutoBuild),
		Interval: time.Duration(store.Int(preferences.SaveInterval)) * time.Minute,
	}
	// The interval lives in the workspace; mirror it into the store so it persists
	store.AddListener(func(e preferences.ChangeEvent) {
		if e.Key != preferences.SaveInterval {
			return
		}
		if minutes, ok := e.New.(int); ok {
			store.SetInt(preferences.SaveInterval, minutes)
		}
		log.LogWithFields(log.F("old", e.Old), log.F("new", e.New)).Debug("Save interval changed")
	})

	return &generalPrefs{store: store, workspace: ws, page: preferences.NewPage(store, ws)}
}

// persist copies the explicit store values into the configuration file
func (a *app) persistPrefs(g *generalPrefs) error {
	a.cfg.Preferences = g.store.Values()
	return a.saveConfig()
}

// setOption applies a textual value for key to the page options
func setOption(page *preferences.Page, key, raw string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return false, errors.NewValidationError(fmt.Sprintf("%s expects true or false, got %q", key, raw), key, errors.InvalidPreference)
		}
		return b, nil
	}

	var err error
	switch key {
	case preferences.AutoBuild:
		page.AutoBuild, err = parseBool()
	case preferences.SaveAllBeforeBuild:
		page.SaveAllBeforeBuild, err = parseBool()
	case preferences.RefreshWorkspaceOnStartup:
		page.RefreshWorkspaceOnStartup, err = parseBool()
	case preferences.ExitPromptOnCloseLastWindow:
		page.ExitPromptOnCloseLastWindow, err = parseBool()
	case preferences.ShowTasksOnBuild:
		page.ShowTasksOnBuild, err = parseBool()
	case preferences.SelectOnHover:
		page.SelectOnHover, err = parseBool()
	case preferences.OpenAfterDelay:
		page.OpenAfterDelay, err = parseBool()
	case preferences.OpenOnSingleClick:
		var single bool
		if single, err = parseBool(); err == nil {
			mode := preferences.OpenDouble
			if single {
				mode = preferences.OpenSingle
			}
			page.SelectOpenMode(mode)
		}
	case preferences.SaveInterval:
		minutes, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return errors.NewValidationError(fmt.Sprintf("%s expects minutes, got %q", key, raw), key, errors.InvalidPreference)
		}
		page.SaveInterval = minutes
	default:
		return errors.NewValidationError(
			fmt.Sprintf("unknown preference %q%s", key, cli.DidYouMean(key, preferences.GeneralKeys)),
			key, errors.InvalidPreference)
	}
	return err
}

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show, change and import workbench preferences",
	}
	cmd.AddCommand(newPrefsShowCmd(a))
	cmd.AddCommand(newPrefsSetCmd(a))
	cmd.AddCommand(newPrefsDefaultsCmd(a))
	cmd.AddCommand(newPrefsImportCmd(a))
	return cmd
}

func newPrefsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the general preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.generalPrefs()
			rows := make([][2]string, 0, len(preferences.GeneralKeys)+1)
			for _, key := range preferences.GeneralKeys {
				value := g.store.String(key)
				if g.store.IsDefault(key) {
					value += " " + cli.DimStyle.Render("(default)")
				}
				rows = append(rows, [2]string{key, value})
			}
			rows = append(rows, [2]string{"open method", g.page.OpenMethod().String()})

			fmt.Fprintln(cmd.OutOrStdout(), cli.Title("General preferences"))
			fmt.Fprint(cmd.OutOrStdout(), cli.Table(rows))
			return nil
		},
	}
}

func newPrefsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE [KEY VALUE...]",
		Short: "Change general preferences",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected KEY VALUE pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.generalPrefs()
			for i := 0; i < len(args); i += 2 {
				if err := setOption(g.page, strings.ToUpper(args[i]), args[i+1]); err != nil {
					return err
				}
			}
			if err := g.page.PerformOk(); err != nil {
				return err
			}
			if err := a.persistPrefs(g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s open method %s\n", cli.SuccessStyle.Render("applied"), g.page.OpenMethod())
			return nil
		},
	}
}

func newPrefsDefaultsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Restore the default general preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.generalPrefs()
			g.page.PerformDefaults()
			if err := g.page.PerformOk(); err != nil {
				return err
			}
			if err := a.persistPrefs(g); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("defaults restored"))
			return nil
		},
	}
}

func newPrefsImportCmd(a *app) *cobra.Command {
	var (
		filterIDs []string
		listOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import preferences from an exported snapshot (.epf, .yaml, .toml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			elements, err := prefimport.ElementsFromConfig(a.cfg.Import.Filters)
			if err != nil {
				return err
			}

			g := a.generalPrefs()
			service := prefimport.NewPlatformService()
			service.Bind(instanceScope, workbenchNode, g.store)

			page := prefimport.NewImportPage(service, elements)
			page.SetSource(args[0])
			transfers := page.Transfers()

			if listOnly {
				if len(transfers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.StatusStyle.Render("Nothing in this file matches a transfer."))
					return nil
				}
				rows := make([][2]string, 0, len(transfers))
				for _, t := range transfers {
					rows = append(rows, [2]string{t.ID, t.Name})
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.Title("Available transfers"))
				fmt.Fprint(cmd.OutOrStdout(), cli.Table(rows))
				return nil
			}

			filters, err := selectFilters(transfers, elements, filterIDs)
			if err != nil {
				return err
			}
			if !page.Transfer(filters) {
				return errors.NewFileError("preference import failed", args[0], errors.PreferenceImportFailed, nil)
			}

			if err := a.persistPrefs(g); err != nil {
				return err
			}
			imported, err := a.importPathVariables(service)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d transfer(s), %d path variable(s)\n",
				cli.SuccessStyle.Render("imported"), len(filters), imported)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&filterIDs, "filter", "f", nil, "transfer ids to import (default: every matching transfer)")
	cmd.Flags().BoolVar(&listOnly, "list", false, "only list the transfers that match the file")
	return cmd
}

// selectFilters picks the filters for ids, or every offered transfer when
// no ids are given
func selectFilters(offered, all []prefimport.TransferElement, ids []string) ([]*prefimport.Filter, error) {
	if len(ids) == 0 {
		filters := make([]*prefimport.Filter, 0, len(offered))
		for _, t := range offered {
			filters = append(filters, t.Filter)
		}
		return filters, nil
	}

	known := make([]string, 0, len(all))
	byID := make(map[string]prefimport.TransferElement, len(all))
	for _, e := range all {
		known = append(known, e.ID)
		byID[e.ID] = e
	}
	filters := make([]*prefimport.Filter, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown transfer %q%s", id, cli.DidYouMean(id, known))
		}
		filters = append(filters, e.Filter)
	}
	return filters, nil
}

// importPathVariables moves imported pathvariable.* values into the
// variable registry. Values that are not valid variables are skipped.
func (a *app) importPathVariables(service *prefimport.PlatformService) (int, error) {
	node := service.Node(instanceScope, resourcesNode)
	reg, err := a.loadRegistry()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range node.Keys() {
		if !strings.HasPrefix(key, pathVarKeyPrefix) {
			continue
		}
		h := pathvar.Open(pathvar.Session{Mode: pathvar.Create, NamesInUse: reg.Names()})
		h.SetName(strings.TrimPrefix(key, pathVarKeyPrefix))
		h.SetValue(node.String(key))
		v, err := h.Commit()
		if err != nil {
			h.Cancel()
			log.LogWithError(err).Warnf("Skipping imported path variable %s", key)
			continue
		}
		reg.Set(v)
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return count, reg.Save()
}
