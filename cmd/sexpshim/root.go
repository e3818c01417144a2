package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/sexpbridge/application/config"
	"github.com/reglet-dev/sexpbridge/bridge"
	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/host"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "sexpshim",
		Short:        "Exercise the native boundary adapter",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML runtime configuration")

	cmd.AddCommand(
		newGophersCmd(opts),
		newLookupCmd(opts),
		newPrintCmd(opts),
		newSchemaCmd(),
	)
	return cmd
}

func (o *rootOptions) runtimeConfig() (entities.RuntimeConfig, error) {
	if o.configPath == "" {
		return entities.DefaultRuntimeConfig(), nil
	}
	return config.LoadFile(o.configPath)
}

// run executes fn against a fresh executor. A native fatal error raised
// inside fn is returned as the command's error.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, e *host.Executor) error) error {
	cfg, err := o.runtimeConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: host.ParseLevel(cfg.LogLevel),
	}))
	e, err := host.NewExecutor(ctx,
		host.WithConfig(cfg),
		host.WithLogger(logger),
		host.WithPrinter(bridge.NewTextPrinter(cmd.OutOrStdout())),
	)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close(ctx) }()

	var fnErr error
	if err := e.Runtime().TopLevel(func() { fnErr = fn(ctx, e) }); err != nil {
		return err
	}
	return fnErr
}

func newGophersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gophers N",
		Short: "Build a character vector of N gophers and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid gopher count %q", args[0])
			}
			return opts.run(cmd, func(ctx context.Context, e *host.Executor) error {
				rt := e.Runtime()
				vec := rt.Protect(rt.NewString(n))
				defer rt.Unprotect(1)
				for i := range n {
					ch, err := rt.MkChar(fmt.Sprintf("Gopher %d", i+1))
					if err != nil {
						return err
					}
					rt.SetStringElt(vec, i, ch)
				}
				e.Adapter().DispatchPrint(ctx, vec)
				return nil
			})
		},
	}
}

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup NAME [ITEM...]",
		Short: "Print the index of the first list element named NAME, or -1",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, items := args[0], args[1:]
			return opts.run(cmd, func(_ context.Context, e *host.Executor) error {
				rt := e.Runtime()
				list := rt.Protect(rt.NewList(len(items)))
				defer rt.Unprotect(1)
				if len(items) > 0 {
					names, err := rt.NewCharacter(items...)
					if err != nil {
						return err
					}
					rt.SetNames(list, names)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), e.Adapter().FindNamedIndex(list, []byte(name)))
				return err
			})
		},
	}
}

func newPrintCmd(opts *rootOptions) *cobra.Command {
	var elements bool

	cmd := &cobra.Command{
		Use:   "print VALUE...",
		Short: "Pack the values into a character vector and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, e *host.Executor) error {
				rt := e.Runtime()
				vec, err := rt.Pack(args)
				if err != nil {
					return err
				}
				rt.Protect(vec)
				defer rt.Unprotect(1)

				a := e.Adapter()
				a.DispatchPrint(ctx, vec)
				if !elements {
					return nil
				}
				for i := range args {
					desc := a.ExtractString(vec, i)
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "[%d] ptr=%d len=%d %q\n", i, desc.Ptr, desc.Len, a.HostString(desc)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&elements, "elements", false, "also print the location of each element")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the runtime configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	}
}
