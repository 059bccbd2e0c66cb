package main

import (
	"fmt"

	"workbench/cmd/workbench/cli"
	"workbench/internal/errors"
	"workbench/internal/log"
	"workbench/internal/pathvar"
	"workbench/internal/watch"

	"github.com/spf13/cobra"
)

// variableFlags are the inputs of new, edit and check
type variableFlags struct {
	name         string
	value        string
	chooseFile   string
	chooseFolder string
	kinds        []string
}

func (f *variableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "variable name")
	cmd.Flags().StringVarP(&f.value, "value", "v", "", "variable value (an absolute path)")
	cmd.Flags().StringVar(&f.chooseFile, "choose-file", "", "answer a file request with this path")
	cmd.Flags().StringVar(&f.chooseFolder, "choose-folder", "", "answer a folder request with this path")
	cmd.Flags().StringSliceVar(&f.kinds, "kinds", nil, "chooser kinds offered: file, folder (default from config)")
}

// newProbe builds the existence probe the configuration asks for
func (a *app) newProbe() (pathvar.ExistenceProbe, func(), error) {
	if !a.cfg.Probe.Cache && !a.cfg.Probe.Watch {
		return pathvar.FSProbe{}, func() {}, nil
	}
	probe := pathvar.NewCachingProbe(pathvar.FSProbe{})
	if a.cfg.Probe.Watch {
		w, err := watch.New()
		if err != nil {
			return nil, nil, err
		}
		if err := probe.Watch(w); err != nil {
			return nil, nil, err
		}
	}
	return probe, probe.Close, nil
}

func (a *app) loadRegistry() (*pathvar.Registry, error) {
	return pathvar.LoadRegistry(a.cfg.Variables.File)
}

// runSession opens a session, feeds it the flags and returns the handle.
// Only flags that were given are applied, in the order name, value, file
// request, folder request.
func (a *app) runSession(cmd *cobra.Command, session pathvar.Session, f *variableFlags) (*pathvar.Handle, func(), error) {
	kindNames := f.kinds
	if len(kindNames) == 0 {
		kindNames = a.cfg.Variables.Kinds
	}
	kinds, err := pathvar.ParseKinds(kindNames)
	if err != nil {
		return nil, nil, err
	}
	session.Kinds = kinds

	probe, closeProbe, err := a.newProbe()
	if err != nil {
		return nil, nil, err
	}

	h := pathvar.Open(session,
		pathvar.WithProbe(probe),
		pathvar.WithChooser(pathvar.StaticChooser{File: f.chooseFile, Folder: f.chooseFolder}),
	)

	if cmd.Flags().Changed("name") {
		if _, err := h.SetName(f.name); err != nil {
			closeProbe()
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("value") {
		if _, err := h.SetValue(f.value); err != nil {
			closeProbe()
			return nil, nil, err
		}
	}
	if f.chooseFile != "" {
		if _, err := h.RequestFile(); err != nil {
			closeProbe()
			return nil, nil, fmt.Errorf("file request: %w", err)
		}
	}
	if f.chooseFolder != "" {
		if _, err := h.RequestFolder(); err != nil {
			closeProbe()
			return nil, nil, fmt.Errorf("folder request: %w", err)
		}
	}
	return h, closeProbe, nil
}

func newPathvarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pathvar",
		Aliases: []string{"pv"},
		Short:   "Define, edit and resolve path variables",
	}

	cmd.AddCommand(newPathvarNewCmd(a))
	cmd.AddCommand(newPathvarEditCmd(a))
	cmd.AddCommand(newPathvarCheckCmd(a))
	cmd.AddCommand(newPathvarListCmd(a))
	cmd.AddCommand(newPathvarRemoveCmd(a))
	cmd.AddCommand(newPathvarResolveCmd(a))
	return cmd
}

// commitAndSave commits h and stores the variable, replacing oldName
func commitAndSave(cmd *cobra.Command, h *pathvar.Handle, reg *pathvar.Registry, oldName string) error {
	fmt.Fprintln(cmd.OutOrStdout(), cli.Result(h.Result()))

	v, err := h.Commit()
	if err != nil {
		return err
	}
	reg.Rename(oldName, v)
	if err := reg.Save(); err != nil {
		return err
	}
	log.LogWithFields(log.F("name", v.Name), log.F("file", reg.Path())).Info("Path variable saved")
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", cli.SuccessStyle.Render("saved"), v.Name, v.Value)
	return nil
}

func newPathvarNewCmd(a *app) *cobra.Command {
	var f variableFlags
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Define a new path variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			h, closeProbe, err := a.runSession(cmd, pathvar.Session{
				Mode:       pathvar.Create,
				NamesInUse: reg.Names(),
			}, &f)
			if err != nil {
				return err
			}
			defer closeProbe()
			return commitAndSave(cmd, h, reg, "")
		},
	}
	f.register(cmd)
	return cmd
}

func newPathvarEditCmd(a *app) *cobra.Command {
	var f variableFlags
	cmd := &cobra.Command{
		Use:   "edit NAME",
		Short: "Edit an existing path variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			original := args[0]
			value, ok := reg.Get(original)
			if !ok {
				return errors.NewValidationError(
					fmt.Sprintf("no path variable named %q%s", original, cli.DidYouMean(original, reg.Names())),
					"name", errors.NotDefined)
			}
			h, closeProbe, err := a.runSession(cmd, pathvar.Session{
				Mode:          pathvar.Edit,
				OriginalName:  original,
				OriginalValue: value,
				NamesInUse:    reg.Names(),
			}, &f)
			if err != nil {
				return err
			}
			defer closeProbe()
			return commitAndSave(cmd, h, reg, original)
		},
	}
	f.register(cmd)
	return cmd
}

func newPathvarCheckCmd(a *app) *cobra.Command {
	var f variableFlags
	var editing string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a variable without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			session := pathvar.Session{Mode: pathvar.Create, NamesInUse: reg.Names()}
			if editing != "" {
				value, _ := reg.Get(editing)
				session = pathvar.Session{
					Mode:          pathvar.Edit,
					OriginalName:  editing,
					OriginalValue: value,
					NamesInUse:    reg.Names(),
				}
			}
			h, closeProbe, err := a.runSession(cmd, session, &f)
			if err != nil {
				return err
			}
			defer closeProbe()
			defer h.Cancel()

			r := h.Result()
			fmt.Fprintln(cmd.OutOrStdout(), cli.Result(r))
			if !r.CommitEnabled {
				return errors.NewValidationError(r.Message, "variable", errors.NotReady)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&editing, "edit", "", "check as an edit of this existing variable")
	return cmd
}

func newPathvarListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List path variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			names := reg.Names()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.StatusStyle.Render("No path variables defined."))
				return nil
			}

			probe := pathvar.FSProbe{}
			rows := make([][2]string, 0, len(names))
			for _, name := range names {
				value, _ := reg.Get(name)
				if exists, err := probe.Exists(value); err != nil || !exists {
					value += " " + cli.WarningStyle.Render("(missing)")
				}
				rows = append(rows, [2]string{name, value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.Title("Path variables"))
			fmt.Fprint(cmd.OutOrStdout(), cli.Table(rows))
			return nil
		},
	}
}

func newPathvarRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Remove a path variable",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			if !reg.Remove(args[0]) {
				return fmt.Errorf("no path variable named %q%s", args[0], cli.DidYouMean(args[0], reg.Names()))
			}
			if err := reg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.SuccessStyle.Render("removed"), args[0])
			return nil
		},
	}
}

func newPathvarResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve PATH",
		Short: "Expand a leading path variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reg.Resolve(args[0]))
			return nil
		},
	}
}
