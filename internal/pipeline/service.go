package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/docfill/internal/catalog"
	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/normalize"
	"github.com/dgallion1/docfill/internal/placeholder"
	"github.com/google/uuid"
)

// Service generates catalog documents into the configured directories and
// remembers the outcome of each generation for a while.
type Service struct {
	gen     *Generator
	catalog *catalog.Catalog
	records *RecordStore
	log     *slog.Logger

	templatesDir string
	generatedDir string
	nfc          bool
	now          func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService builds a Service from cfg and cat.
func NewService(cfg config.Config, cat *catalog.Catalog, log *slog.Logger) (*Service, error) {
	syntax, err := placeholder.ParseSyntax(cfg.TokenSyntax)
	if err != nil {
		return nil, err
	}
	policy, err := normalize.ParsePolicy(cfg.MergePolicy)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.Builtin()
	}
	if log == nil {
		log = discardLogger()
	}
	gen := NewGenerator(log)
	gen.Syntax = syntax
	gen.Policy = policy
	return &Service{
		gen:          gen,
		catalog:      cat,
		records:      NewRecordStore(cfg.RecordTTL),
		log:          log.With("component", "service"),
		templatesDir: cfg.TemplatesDir,
		generatedDir: cfg.GeneratedDir,
		nfc:          cfg.NormalizeValues,
		now:          time.Now,
	}, nil
}

// Start launches the record cleanup loop.
func (s *Service) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if n := s.records.Cleanup(); n > 0 {
					s.log.Debug("records evicted", "count", n)
				}
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Catalog returns the document types the service knows.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Record returns a previous generation by ID.
func (s *Service) Record(id string) (Record, bool) {
	return s.records.Get(id)
}

// Generate fills the template of docType with values. Every field of the
// type is sent to the engine; unknown keys are dropped. The returned record
// is stored whether or not generation succeeded.
func (s *Service) Generate(docType string, values map[string]string) (Record, error) {
	dt, ok := s.catalog.Lookup(docType)
	if !ok {
		return Record{}, &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf("unknown document type %q", docType)}
	}

	col := dt.Collect(values, s.nfc)
	if len(col.Unknown) > 0 {
		s.log.Warn("ignoring unknown fields", "type", dt.Label, "fields", col.Unknown)
	}
	if col.Blank {
		s.log.Warn("all fields are blank", "type", dt.Label)
	}

	templatePath := filepath.Join(s.templatesDir, dt.TemplateFile())
	outputPath := filepath.Join(s.generatedDir, dt.OutputFile(s.now()))
	absTemplate, _ := filepath.Abs(templatePath)
	absOutput, _ := filepath.Abs(outputPath)
	_, statErr := os.Stat(templatePath)
	s.log.Info("generation requested",
		"type", dt.Label,
		"template", absTemplate,
		"output", absOutput,
		"template_exists", statErr == nil,
		"fields", len(col.Fields),
	)

	rec := Record{
		ID:           uuid.NewString(),
		DocType:      dt.Label,
		TemplatePath: absTemplate,
		Fields:       len(col.Fields),
		CreatedAt:    s.now(),
	}
	res, err := s.gen.Generate(templatePath, outputPath, col.Fields)
	if err != nil {
		rec.Status = StatusFailed
		rec.Kind = KindOf(err).String()
		rec.Error = err.Error()
		if KindOf(err) == KindGenerationFailed {
			// The copy may already exist.
			rec.OutputPath = absOutput
		}
		s.records.Put(rec)
		return rec, err
	}
	rec.Status = StatusCompleted
	rec.OutputPath = res.OutputPath
	rec.OutputDir = filepath.Dir(res.OutputPath)
	rec.Stats = res
	s.records.Put(rec)
	return rec, nil
}
