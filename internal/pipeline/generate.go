// Package pipeline turns a template and a placeholder map into a generated
// document, and tracks generations made through the Service.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/loader"
	"github.com/dgallion1/docfill/internal/normalize"
	"github.com/dgallion1/docfill/internal/ooxml"
	"github.com/dgallion1/docfill/internal/placeholder"
	"github.com/dgallion1/docfill/internal/rtl"
)

// Result reports what a generation did.
type Result struct {
	OutputPath         string `json:"output_path"`
	ReplacedPass1      int    `json:"replaced_pass1"`
	ReplacedPass2      int    `json:"replaced_pass2"`
	RunsMerged         int    `json:"runs_merged"`
	ParagraphsEnforced int    `json:"paragraphs_enforced"`
	RunsEnforced       int    `json:"runs_enforced"`
	TabStopAdded       bool   `json:"tab_stop_added"`
	// Diagnostic is the swallowed directionality failure, if any.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Generator runs the substitute, normalize, substitute, enforce sequence.
// It holds no per-call state and is safe for concurrent use as long as calls
// target different output paths.
type Generator struct {
	Syntax placeholder.Syntax
	Policy normalize.Policy

	log  *slog.Logger
	save func(pkg *ooxml.Package, path string) error
}

// NewGenerator creates a Generator with the canonical single-brace syntax
// and signature merge policy.
func NewGenerator(log *slog.Logger) *Generator {
	if log == nil {
		log = discardLogger()
	}
	return &Generator{
		Syntax: placeholder.SingleBrace,
		Policy: normalize.PolicySignature,
		log:    log.With("component", "generator"),
		save:   (*ooxml.Package).Save,
	}
}

var defaultGenerator = NewGenerator(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Generate fills templatePath with fields and writes the result to
// outputPath using the default Generator. It returns the absolute output
// path.
func Generate(templatePath, outputPath string, fields map[string]string) (string, error) {
	res, err := defaultGenerator.Generate(templatePath, outputPath, fields)
	if err != nil {
		return "", err
	}
	return res.OutputPath, nil
}

// Generate validates the template, copies it to outputPath (overwriting any
// existing file), and transforms the copy in place. Errors are always *Error.
// A failure after the copy leaves the partially transformed file behind.
func (g *Generator) Generate(templatePath, outputPath string, fields map[string]string) (*Result, error) {
	res, err := g.generate(templatePath, outputPath, fields)
	if err != nil {
		g.log.Error("generation failed", "kind", KindOf(err).String(), "template", templatePath, "output", outputPath, "error", err)
		return nil, err
	}
	g.log.Info("document generated",
		"output", res.OutputPath,
		"replaced_pass1", res.ReplacedPass1,
		"replaced_pass2", res.ReplacedPass2,
		"runs_merged", res.RunsMerged,
	)
	return res, nil
}

func (g *Generator) generate(templatePath, outputPath string, fields map[string]string) (*Result, error) {
	if strings.TrimSpace(templatePath) == "" {
		return nil, invalidArgument("template path is empty")
	}
	if strings.TrimSpace(outputPath) == "" {
		return nil, invalidArgument("output path is empty")
	}
	if fields == nil {
		return nil, invalidArgument("placeholder map is missing")
	}

	src, err := filepath.Abs(templatePath)
	if err != nil {
		return nil, generationFailed(templatePath, err)
	}
	dst, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, generationFailed(outputPath, err)
	}

	if src == dst {
		return nil, invalidArgument("output path must differ from template path")
	}

	info, err := os.Stat(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, templateNotFound(src, err)
	case err != nil:
		return nil, generationFailed(src, err)
	case info.IsDir():
		return nil, templateNotFound(src, fmt.Errorf("is a directory"))
	}

	if _, err := loader.LoadAndValidate(src); err != nil {
		switch {
		case errors.Is(err, loader.ErrCorrupt):
			return nil, templateCorrupt(src, err)
		case errors.Is(err, loader.ErrNotFound):
			return nil, templateNotFound(src, err)
		}
		return nil, generationFailed(src, err)
	}
	g.log.Debug("template validated", "template", src)

	res, err := g.render(src, dst, fields)
	if err != nil {
		return nil, generationFailed(dst, err)
	}
	return res, nil
}

func (g *Generator) render(src, dst string, fields map[string]string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := copyFile(src, dst); err != nil {
		return nil, fmt.Errorf("copy template: %w", err)
	}

	pkg, err := ooxml.Open(dst)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	main, err := pkg.MainDocumentPart()
	if err != nil {
		return nil, err
	}
	tree, err := pkg.XMLPart(main)
	if err != nil {
		return nil, err
	}
	doc, err := doctree.FromTree(tree)
	if err != nil {
		return nil, err
	}

	res = &Result{OutputPath: dst}
	res.ReplacedPass1 = placeholder.Substitute(doc, fields, g.Syntax)
	res.RunsMerged = normalize.Document(doc, g.Policy)
	res.ReplacedPass2 = placeholder.Substitute(doc, fields, g.Syntax)
	g.log.Debug("placeholders substituted", "output", dst, "runs_merged", res.RunsMerged)

	rep := rtl.Enforce(doc, pkg)
	res.ParagraphsEnforced = rep.Paragraphs
	res.RunsEnforced = rep.Runs
	res.TabStopAdded = rep.TabStop
	if rep.Err != nil {
		res.Diagnostic = rep.Err.Error()
		g.log.Warn("directionality incomplete", "output", dst, "error", rep.Err)
	}

	pkg.PutXMLPart(main, tree)
	if err := g.save(pkg, dst); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
