package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formguard"
	"github.com/dmitrymomot/formguard/pkg/form"
	"github.com/dmitrymomot/formguard/pkg/message"
)

// NewCheckCmd creates the "check" subcommand.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.html>",
		Short: "Validate the forms of an HTML file",
		Long: `Parses the file, binds the --set values into its forms and validates them.
Exits with status 2 when any form is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().StringArray("set", nil, "Submit a value as name=value (repeatable)")
	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().String("style", "", "Error style for roots without data-fg-style")
	cmd.Flags().String("catalog", "", "YAML file with default messages")
	cmd.Flags().Bool("render", false, "Print the validated HTML")

	return cmd
}

type checkReport struct {
	File  string       `json:"file"`
	Valid bool         `json:"valid"`
	Forms []formReport `json:"forms"`
	HTML  string       `json:"html,omitempty"`
}

type formReport struct {
	ID     string        `json:"id"`
	Valid  bool          `json:"valid"`
	Errors []fieldReport `json:"errors,omitempty"`
}

type fieldReport struct {
	Field   string `json:"field"`
	Name    string `json:"name,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
	Tier    string `json:"tier"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	sets, _ := cmd.Flags().GetStringArray("set")
	format, _ := cmd.Flags().GetString("format")
	style, _ := cmd.Flags().GetString("style")
	catalogPath, _ := cmd.Flags().GetString("catalog")
	render, _ := cmd.Flags().GetBool("render")

	if format != "text" && format != "json" {
		return exitError(exitFailure, "invalid --format %q", format)
	}
	values, err := parseSets(sets)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	opts := []formguard.Option{formguard.WithLogger(log)}
	if style != "" {
		opts = append(opts, formguard.WithStyle(style))
	}
	if catalogPath != "" {
		catalog, err := message.LoadCatalog(catalogPath)
		if err != nil {
			return exitError(exitFailure, "loading catalog: %v", err)
		}
		opts = append(opts, formguard.WithCatalog(catalog))
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitNotFound, "file not found: %s", path)
		}
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	page, err := formguard.New(opts...).Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	defer page.Close()

	if page.Scan(nil) == 0 {
		log.Warn("no data-fg-validate roots found", "file", path)
	}
	if err := page.Overlay(values); err != nil {
		return fmt.Errorf("binding values: %w", err)
	}

	report := checkReport{File: path, Valid: page.Validate()}
	failing := page.FieldErrors()
	for _, fm := range page.Forms() {
		report.Forms = append(report.Forms, newFormReport(fm.ID(), failing[fm.ID()]))
	}
	if render {
		report.HTML = page.String()
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		printReport(out, report)
	}

	if !report.Valid {
		return exitError(exitValidation, "validation failed")
	}
	return nil
}

func parseSets(sets []string) (url.Values, error) {
	values := url.Values{}
	for _, s := range sets {
		name, val, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, exitError(exitFailure, "invalid --set %q, want name=value", s)
		}
		values.Add(name, val)
	}
	return values, nil
}

func newFormReport(id string, errs []form.FieldError) formReport {
	r := formReport{ID: id, Valid: len(errs) == 0}
	for _, fe := range errs {
		r.Errors = append(r.Errors, fieldReport{
			Field:   fe.Field,
			Name:    fe.Name,
			Rule:    fe.Rule,
			Message: fe.Message,
			Tier:    fe.Tier.String(),
		})
	}
	return r
}

func printReport(w io.Writer, r checkReport) {
	for _, fr := range r.Forms {
		if fr.Valid {
			fmt.Fprintf(w, "form %s: valid\n", fr.ID)
			continue
		}
		fmt.Fprintf(w, "form %s: %d error(s)\n", fr.ID, len(fr.Errors))
		for _, e := range fr.Errors {
			fmt.Fprintf(w, "  %s: %s [%s, %s]\n", e.Field, e.Message, e.Rule, e.Tier)
		}
	}
	if r.HTML != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, r.HTML)
	}
}
