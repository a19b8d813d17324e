// Package cli implements the formguard command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formguard/pkg/logger"
)

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "formguard",
		Short:         "Validate HTML forms described by data-fg-* attributes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.SetVersionTemplate(fmt.Sprintf("formguard version %s\n", version))

	root.PersistentFlags().String("log-level", "warn", "Log level: debug | info | warn | error")
	root.PersistentFlags().String("log-format", "text", "Log format: text | json")

	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewServeCmd())
	return root
}

// newLogger builds the command logger from the persistent flags. Logs go to
// stderr so command output stays clean.
func newLogger(cmd *cobra.Command, extra ...logger.Option) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return buildLogger(cmd.ErrOrStderr(), level, format, extra...)
}

// buildLogger applies extra first, so level and format always win over
// defaults an extra option sets.
func buildLogger(out io.Writer, level, format string, extra ...logger.Option) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, exitError(exitFailure, "invalid --log-level %q", level)
	}
	var fmtOpt logger.Option
	switch format {
	case "text":
		fmtOpt = logger.WithTextFormatter()
	case "json":
		fmtOpt = logger.WithJSONFormatter()
	default:
		return nil, exitError(exitFailure, "invalid --log-format %q", format)
	}

	opts := append(extra, logger.WithOutput(out), logger.WithLevel(lvl), fmtOpt)
	return logger.New(opts...), nil
}
