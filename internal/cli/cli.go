// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the propedit command line.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/z5labs/propedit/internal/logging"
	"github.com/z5labs/propedit/internal/tracing"
	"github.com/z5labs/propedit/repository"
	"github.com/z5labs/propedit/settings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DefaultSettingsFile is the settings file looked for in the project dir
// when --settings isn't given.
const DefaultSettingsFile = "propedit.yaml"

// Execute runs the propedit command line with args. Flags may also be set
// through PROPEDIT_* environment variables, e.g. PROPEDIT_LOG_LEVEL.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	a := &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		log:    logging.Discard(),
	}
	defer func() {
		if a.shutdown == nil {
			return
		}
		err = errors.Join(err, a.shutdown(context.Background()))
	}()

	cmd := a.command()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type app struct {
	v        *viper.Viper
	stdout   io.Writer
	stderr   io.Writer
	log      *slog.Logger
	shutdown func(context.Context) error
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "propedit",
		Short:             "Edit .properties files against a JSON schema",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	fs := cmd.PersistentFlags()
	fs.String("project", ".", "project directory default and relative file paths are resolved against")
	fs.String("properties", "", "properties file (default <project>/local.properties)")
	fs.String("schema", "", "schema file (default <project>/property_schema.json)")
	fs.String("settings", "", "YAML or JSON settings file (default <project>/propedit.yaml)")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.Bool("log-json", false, "write logs as JSON")
	fs.Bool("trace", false, "write OpenTelemetry spans to stderr")
	fs.Bool("no-color", false, "disable coloured output")

	a.v.SetEnvPrefix("PROPEDIT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(
		listCommand(a),
		getCommand(a),
		setCommand(a),
		deleteCommand(a),
		resetCommand(a),
		presetsCommand(a),
		applyCommand(a),
		exportCommand(a),
		pathsCommand(a),
		watchCommand(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	err := a.v.BindPFlags(cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.log = logging.New(a.stderr, level, a.v.GetBool("log-json"))

	if !a.v.GetBool("trace") {
		return nil
	}
	a.shutdown, err = tracing.Local(cmd.Context(), tracing.Out(a.stderr))
	return err
}

func (a *app) colorEnabled() bool {
	return !a.v.GetBool("no-color") && !color.NoColor
}

func (a *app) provider() (settings.Provider, error) {
	project, err := filepath.Abs(a.v.GetString("project"))
	if err != nil {
		return nil, err
	}

	path := a.v.GetString("settings")
	if path == "" {
		path = filepath.Join(project, DefaultSettingsFile)
	}

	overrides := settings.Map{}
	if p := a.v.GetString("properties"); p != "" {
		overrides["properties_file"] = p
	}
	if p := a.v.GetString("schema"); p != "" {
		overrides["schema_file"] = p
	}

	return settings.FileProvider{
		ProjectDir: project,
		Path:       path,
		Overrides:  overrides,
	}, nil
}

func (a *app) repository(opts ...repository.Option) (*repository.Repository, error) {
	p, err := a.provider()
	if err != nil {
		return nil, err
	}
	opts = append([]repository.Option{repository.Logger(a.log)}, opts...)
	return repository.New(p, opts...), nil
}

func (a *app) load(ctx context.Context) (*repository.Repository, error) {
	repo, err := a.repository()
	if err != nil {
		return nil, err
	}
	err = repo.LoadConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
