// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/z5labs/propedit/internal/diff"
	"github.com/z5labs/propedit/property"
	"github.com/z5labs/propedit/repository"
	"github.com/z5labs/propedit/watch"

	"github.com/spf13/cobra"
)

func listCommand(a *app) *cobra.Command {
	var (
		source string
		text   string
		order  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the reconciled properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return a.list(a.stdout, repo, source, text, order)
		},
	}
	cmd.Flags().StringVar(&source, "source", "all", "only list properties from: all, file, schema or both")
	cmd.Flags().StringVar(&text, "filter", "", "only list properties whose key, value or description contains this text")
	cmd.Flags().StringVar(&order, "sort", "natural", "sort order: natural, key-asc, key-desc or type")
	return cmd
}

func (a *app) list(w io.Writer, repo *repository.Repository, source, text, order string) error {
	match, err := matchSource(source)
	if err != nil {
		return err
	}

	var props []property.Property
	for _, p := range filter(repo.Properties(), text) {
		if match(p) {
			props = append(props, p)
		}
	}
	err = sortProperties(props, order)
	if err != nil {
		return err
	}
	return printer{color: a.colorEnabled()}.list(w, props)
}

func getCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range repo.Properties() {
				if p.Key == args[0] {
					_, err = fmt.Fprintln(a.stdout, valueString(p.Value))
					return err
				}
			}
			return UnknownKeyError{Key: args[0]}
		},
	}
}

func setCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set the value of a property",
		Long:  "Set the value of a property. Array values are separated by commas.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := a.load(ctx)
			if err != nil {
				return err
			}

			key := args[0]
			var def *property.Definition
			if d, ok := repo.Definition(key); ok {
				def = &d
			}
			v, err := parseInput(key, args[1], def)
			if err != nil {
				return err
			}
			p := property.Property{Key: key, Value: v}

			if dryRun {
				return a.preview(ctx, func(ctx context.Context) (repository.Preview, error) {
					return repo.PreviewUpdate(ctx, p)
				})
			}
			return repo.UpdateProperty(ctx, p)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the change as a diff instead of saving it")
	return cmd
}

func deleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Remove a property from the properties file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return repo.DeleteProperty(cmd.Context(), args[0])
		},
	}
}

func resetCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset every defined property to its default value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if dryRun {
				return a.preview(cmd.Context(), repo.PreviewReset)
			}
			return repo.ResetToDefaults(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the change as a diff instead of saving it")
	return cmd
}

func presetsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the presets defined in the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return printer{color: a.colorEnabled()}.presets(a.stdout, repo.Presets())
		},
	}
}

func applyCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply NAME",
		Short: "Apply a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if dryRun {
				return a.preview(cmd.Context(), func(ctx context.Context) (repository.Preview, error) {
					return repo.PreviewPreset(ctx, args[0])
				})
			}
			return repo.ApplyPreset(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the change as a diff instead of saving it")
	return cmd
}

func (a *app) preview(ctx context.Context, f func(context.Context) (repository.Preview, error)) error {
	p, err := f(ctx)
	if err != nil {
		return err
	}

	res := diff.NewGenerator(a.colorEnabled()).Unified(p.Before, p.After, p.Path)
	if res.Empty() {
		_, err = fmt.Fprintln(a.stdout, res.Summary())
		return err
	}
	_, err = fmt.Fprint(a.stdout, res.Unified)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, res.Summary())
	return err
}

func exportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the reconciled properties as a properties document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return export(a.stdout, repo.Properties())
		},
	}
}

func pathsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved properties and schema file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			files, err := p.FileSettings()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "properties: %s\nschema: %s\n", files.PropertiesFile, files.SchemaFile)
			return err
		},
	}
}

func watchCommand(a *app) *cobra.Command {
	var (
		source string
		text   string
		order  string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "List the properties again whenever the files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := a.provider()
			if err != nil {
				return err
			}
			files, err := p.FileSettings()
			if err != nil {
				return err
			}

			var repo *repository.Repository
			w := watch.New(
				func(ctx context.Context) error {
					return repo.LoadConfiguration(ctx)
				},
				[]string{files.PropertiesFile, files.SchemaFile},
				watch.Logger(a.log),
			)

			repo, err = a.repository(repository.Refresher(w))
			if err != nil {
				return err
			}
			sub := repo.Subscribe(repository.ObserverFunc(func() {
				err := a.list(a.stdout, repo, source, text, order)
				if err != nil {
					fmt.Fprintln(a.stderr, err)
				}
			}))
			defer sub.Unsubscribe()

			err = repo.LoadConfiguration(ctx)
			if err != nil {
				return err
			}

			errs := repo.OnError(func(err error) {
				if err != nil {
					fmt.Fprintln(a.stderr, err)
				}
			})
			defer errs.Unsubscribe()

			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&source, "source", "all", "only list properties from: all, file, schema or both")
	cmd.Flags().StringVar(&text, "filter", "", "only list properties whose key, value or description contains this text")
	cmd.Flags().StringVar(&order, "sort", "natural", "sort order: natural, key-asc, key-desc or type")
	return cmd
}
