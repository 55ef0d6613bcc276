package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docfill/internal/catalog"
	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/normalize"
	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/dgallion1/docfill/internal/placeholder"
	"github.com/dgallion1/docfill/internal/preview"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// cli carries the resolved configuration shared by subcommands.
type cli struct {
	cfg          config.Config
	catalogFile  string
	templatesDir string
	generatedDir string
	log          *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Load()}

	root := &cobra.Command{
		Use:   "docfill",
		Short: "Fill right-to-left Word templates with field values",
		Long: `docfill generates administrative documents from .docx templates.

Placeholders such as {fullName} in the template are replaced with field
values, runs split by the editor are merged, and every paragraph is laid out
right-to-left.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.templatesDir != "" {
				c.cfg.TemplatesDir = c.templatesDir
			}
			if c.generatedDir != "" {
				c.cfg.GeneratedDir = c.generatedDir
			}
			if c.catalogFile != "" {
				c.cfg.CatalogFile = c.catalogFile
			}
			c.log = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: c.cfg.Level()}))
			return c.cfg.Validate()
		},
	}
	root.PersistentFlags().StringVar(&c.templatesDir, "templates", "", "Templates directory (default $TEMPLATES_DIR or Templates)")
	root.PersistentFlags().StringVar(&c.generatedDir, "generated", "", "Output directory (default $GENERATED_DIR or Generated)")
	root.PersistentFlags().StringVar(&c.catalogFile, "catalog", "", "YAML catalog of document types (default built-in)")

	root.AddCommand(c.typesCmd(), c.generateCmd(), c.previewCmd())
	return root
}

func (c *cli) catalog() (*catalog.Catalog, error) {
	return catalog.LoadOrBuiltin(c.cfg.CatalogFile)
}

func (c *cli) typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List document types and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, dt := range cat.Types() {
				fmt.Fprintf(out, "%s\t%s\n", dt.Label, dt.TemplateFile())
				for _, f := range dt.Fields {
					fmt.Fprintf(out, "  %s\t%s\n", f.Key, f.Label)
				}
			}
			return nil
		},
	}
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		docType  string
		template string
		output   string
		fields   []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a document",
		Long: `Generate a document either from a catalog type:

  docfill generate --type "شهادة السكنى" --field fullName=... --field date=...

or from an arbitrary template:

  docfill generate --template in.docx --output out.docx --field key=value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			switch {
			case docType != "" && (template != "" || output != ""):
				return fmt.Errorf("--type cannot be combined with --template/--output")
			case docType != "":
				return c.generateType(cmd, docType, values)
			case template != "" && output != "":
				return c.generateFile(cmd, template, output, values)
			}
			return fmt.Errorf("either --type or both --template and --output are required")
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "", "Document type label from the catalog")
	cmd.Flags().StringVar(&template, "template", "", "Template .docx path")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output .docx path")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field value as key=value (repeatable)")
	return cmd
}

func (c *cli) generateType(cmd *cobra.Command, docType string, values map[string]string) error {
	cat, err := c.catalog()
	if err != nil {
		return err
	}
	svc, err := pipeline.NewService(c.cfg, cat, c.log)
	if err != nil {
		return err
	}
	rec, err := svc.Generate(docType, values)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rec.OutputPath)
	if rec.Stats != nil {
		warnDiagnostic(cmd, rec.Stats.Diagnostic)
	}
	return nil
}

func (c *cli) generateFile(cmd *cobra.Command, template, output string, values map[string]string) error {
	syntax, err := placeholder.ParseSyntax(c.cfg.TokenSyntax)
	if err != nil {
		return err
	}
	policy, err := normalize.ParsePolicy(c.cfg.MergePolicy)
	if err != nil {
		return err
	}
	g := pipeline.NewGenerator(c.log)
	g.Syntax = syntax
	g.Policy = policy
	res, err := g.Generate(template, output, values)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
	warnDiagnostic(cmd, res.Diagnostic)
	return nil
}

func warnDiagnostic(cmd *cobra.Command, diagnostic string) {
	if diagnostic != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: directionality incomplete:", diagnostic)
	}
}

func (c *cli) previewCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "preview <file.docx>",
		Short: "Render a document as right-to-left HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if output == "" {
				return preview.RenderFile(cmd.OutOrStdout(), path, title)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := preview.RenderFile(f, path, title); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write HTML to this file instead of stdout")
	return cmd
}

// parseFields turns key=value pairs into a placeholder map. Values may
// contain '='.
func parseFields(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --field %q: want key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// exitCode maps generation failures to distinct process exit codes.
func exitCode(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindInvalidArgument:
		return 2
	case pipeline.KindTemplateNotFound:
		return 3
	case pipeline.KindTemplateCorrupt:
		return 4
	case pipeline.KindGenerationFailed:
		return 5
	}
	return 1
}
