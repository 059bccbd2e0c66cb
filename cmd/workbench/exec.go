package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"workbench/cmd/workbench/cli"
	"workbench/internal/config"
	"workbench/internal/errors"
	"workbench/internal/handlers"

	"github.com/spf13/cobra"
)

// Handler classes the CLI can instantiate
const (
	classEcho        = "echo"
	classResolvePath = "pathvar.resolve"
	classPrefGet     = "prefs.get"
)

// builtinHandlers are always available. Configured handlers are registered
// first so they win ties against these.
var builtinHandlers = []config.HandlerDecl{
	{CommandID: "pathvar.resolve", Class: classResolvePath},
	{CommandID: "prefs.get", Class: classPrefGet},
}

// funcHandler adapts a function to handlers.Handler
type funcHandler struct {
	run   func(ctx context.Context, param interface{}) (interface{}, error)
	attrs map[string]interface{}
}

func (h *funcHandler) Execute(ctx context.Context, param interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.run(ctx, param)
}

func (h *funcHandler) Attributes() map[string]interface{} { return h.attrs }

func descriptorAttrs(d handlers.Descriptor) map[string]interface{} {
	attrs := make(map[string]interface{}, len(d.Attributes)+2)
	for k, v := range d.Attributes {
		attrs[k] = v
	}
	attrs[handlers.AttributeID] = d.CommandID
	attrs[handlers.AttributePriority] = d.Priority
	return attrs
}

// handlerRegistry registers every class the CLI knows. Factories only run
// when a proxy loads, so the registry and preferences are read lazily too.
func (a *app) handlerRegistry() (*handlers.Registry, error) {
	r := handlers.NewRegistry()
	if err := r.Register(classEcho, handlers.NewEchoHandler); err != nil {
		return nil, err
	}

	err := r.Register(classResolvePath, func(d handlers.Descriptor) (handlers.Handler, error) {
		reg, err := a.loadRegistry()
		if err != nil {
			return nil, err
		}
		return &funcHandler{
			attrs: descriptorAttrs(d),
			run: func(_ context.Context, param interface{}) (interface{}, error) {
				path, ok := param.(string)
				if !ok || path == "" {
					return nil, fmt.Errorf("expected a path parameter")
				}
				return reg.Resolve(path), nil
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	err = r.Register(classPrefGet, func(d handlers.Descriptor) (handlers.Handler, error) {
		store := a.generalPrefs().store
		return &funcHandler{
			attrs: descriptorAttrs(d),
			run: func(_ context.Context, param interface{}) (interface{}, error) {
				key, _ := param.(string)
				if !store.Contains(key) {
					return nil, fmt.Errorf("unknown preference %q", key)
				}
				return store.String(key), nil
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newExecCmd(a *app) *cobra.Command {
	var (
		contexts  []string
		param     string
		showAttrs bool
	)
	cmd := &cobra.Command{
		Use:   "exec COMMAND_ID",
		Short: "Run a command through its declared handlers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.handlerRegistry()
			if err != nil {
				return err
			}
			decls := append(append([]config.HandlerDecl(nil), a.cfg.Handlers...), builtinHandlers...)
			svc := handlers.FromConfig(decls, registry)

			commandID := args[0]
			proxy, err := svc.Resolve(commandID, contexts)
			if err != nil {
				if errors.IsNotDefined(err) && len(svc.Proxies(commandID)) == 0 {
					return fmt.Errorf("%w%s", err, cli.DidYouMean(commandID, svc.Commands()))
				}
				return err
			}

			if showAttrs {
				attrs, err := proxy.Attributes()
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(attrs))
				for k := range attrs {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				rows := make([][2]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, [2]string{k, fmt.Sprint(attrs[k])})
				}
				fmt.Fprint(cmd.OutOrStdout(), cli.Table(rows))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var input interface{}
			if cmd.Flags().Changed("param") {
				input = param
			}
			out, err := svc.Execute(ctx, commandID, contexts, input)
			if err != nil {
				return err
			}
			if out != nil {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&contexts, "context", "c", nil, "active context ids")
	cmd.Flags().StringVarP(&param, "param", "p", "", "parameter passed to the handler")
	cmd.Flags().BoolVar(&showAttrs, "attributes", false, "print the resolved handler's attributes instead of running it")
	return cmd
}
