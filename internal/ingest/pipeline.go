// Package ingest drives one ingestion run from column map to audit rows.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvingest/internal/colmap"
	"github.com/JonMunkholm/csvingest/internal/config"
	"github.com/JonMunkholm/csvingest/internal/core"
	"github.com/JonMunkholm/csvingest/internal/frame"
	"github.com/JonMunkholm/csvingest/internal/logging"
	"github.com/JonMunkholm/csvingest/internal/report"
	"github.com/JonMunkholm/csvingest/internal/store"
)

// MaxNotesLength bounds the notes column of an audit row.
const MaxNotesLength = 1000

// Pipeline runs the ingestion steps in order. A nil store limits the run to
// decoding, normalization and reporting.
type Pipeline struct {
	cfg   config.IngestConfig
	store store.Store
	out   io.Writer
	now   func() time.Time
}

// New creates a pipeline writing its report to out.
func New(cfg config.IngestConfig, st store.Store, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{cfg: cfg, store: st, out: out, now: time.Now}
}

// TableResult tracks one materialized table through the run.
type TableResult struct {
	ID         string // column map identifier
	Table      string
	Source     string // CSV path read
	Decoded    string // decoded CSV path written, empty when disabled
	Frame      *frame.Frame
	Normalized *core.Normalized // nil for tables without a definition
	Load       *store.LoadResult
}

// Errors counts coercion failures plus rows the database rejected.
func (r *TableResult) Errors() int {
	n := 0
	if r.Normalized != nil {
		n += r.Normalized.Errors.Total()
	}
	if r.Load != nil {
		n += len(r.Load.Failed)
	}
	return n
}

// Processed counts rows that were not rejected by the database.
func (r *TableResult) Processed() int {
	n := r.Frame.Len()
	if r.Load != nil {
		n -= len(r.Load.Failed)
	}
	return n
}

// Notes summarizes what happened to the table, "" when nothing noteworthy did.
func (r *TableResult) Notes() string {
	var parts []string
	if n := r.Normalized; n != nil {
		if len(n.Missing) > 0 {
			parts = append(parts, "missing columns: "+strings.Join(n.Missing, ", "))
		}
		if n.Errors.Total() > 0 {
			parts = append(parts, "coercion: "+n.Errors.String())
		}
		if len(n.Flagged) > 0 && n.Def.Info.FlagName != "" {
			parts = append(parts, fmt.Sprintf("%s: %d", n.Def.Info.FlagName, len(n.Flagged)))
		}
	}
	if l := r.Load; l != nil {
		parts = append(parts, fmt.Sprintf("inserted: %d", l.Inserted))
		if l.Skipped > 0 {
			parts = append(parts, fmt.Sprintf("skipped existing: %d", l.Skipped))
		}
		if len(l.Failed) > 0 {
			parts = append(parts, fmt.Sprintf("failed inserts: %d", len(l.Failed)))
		}
	}
	return truncate(strings.Join(parts, "; "), MaxNotesLength)
}

// Record builds the audit row for this table.
func (r *TableResult) Record(runID uuid.UUID, at time.Time) store.IngestionRecord {
	return store.IngestionRecord{
		RunID:         runID,
		SourceFile:    r.Source,
		RetrievedAt:   at,
		TotalRows:     r.Frame.Len(),
		ProcessedRows: r.Processed(),
		Errors:        r.Errors(),
		Notes:         r.Notes(),
	}
}

// Summary is the outcome of a run.
type Summary struct {
	RunID   uuid.UUID
	Dialect string // database engine written to, empty without a store
	Tables  []*TableResult
	Skipped map[string]error // map id -> reason the entry was not materialized
	Created []string         // tables created by the schema step
	Loads   []store.LoadResult
}

// Table returns the result for a table name.
func (s *Summary) Table(name string) (*TableResult, bool) {
	for _, t := range s.Tables {
		if t.Table == name {
			return t, true
		}
	}
	return nil, false
}

// Run executes the pipeline. Data-quality problems are logged and counted;
// map, file-write and database errors end the run.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.New(), Skipped: make(map[string]error)}
	ctx = logging.WithRunID(ctx, sum.RunID.String())
	log := logging.FromContext(ctx)

	m, err := colmap.Load(p.cfg.MapFile)
	if err != nil {
		return sum, fmt.Errorf("load column map: %w", err)
	}
	log.Info("column map loaded", "file", p.cfg.MapFile, "entries", len(m))

	p.materialize(ctx, m, sum)

	if p.cfg.WriteDecoded {
		if err := p.writeDecoded(ctx, sum); err != nil {
			return sum, err
		}
	}

	p.normalize(ctx, sum)

	if err := p.report(sum); err != nil {
		return sum, fmt.Errorf("write report: %w", err)
	}

	if p.store == nil {
		return sum, nil
	}

	sum.Dialect = p.store.Dialect()
	sum.Created, err = p.store.EnsureSchema(ctx)
	if err != nil {
		return sum, fmt.Errorf("ensure schema: %w", err)
	}
	log.Info("schema ensured", "dialect", sum.Dialect, "created", sum.Created)

	if p.cfg.LoadRows {
		if err := p.load(ctx, sum); err != nil {
			return sum, err
		}
	}

	if err := p.logIngestions(ctx, sum); err != nil {
		return sum, err
	}

	log.Info("ingestion complete", "tables", len(sum.Tables), "skipped", len(sum.Skipped))
	return sum, nil
}

// materialize loads every non-excluded entry. A later entry for the same
// table replaces the earlier one.
func (p *Pipeline) materialize(ctx context.Context, m colmap.Map, sum *Summary) {
	log := logging.FromContext(ctx)
	mat := colmap.NewMaterializer(p.cfg.DataDir, p.cfg.Exclude)

	for _, e := range m {
		if mat.Excluded(e.ID) {
			log.Debug("skipping excluded table", "id", e.ID, "table", e.Table)
			sum.Skipped[e.ID] = colmap.ErrExcluded
			continue
		}

		tableLog := logging.WithFields(ctx, "table", e.Table, "file", mat.Path(e))
		tableLog.Info("loading table")
		fr, err := mat.Materialize(e)
		if err != nil {
			if errors.Is(err, colmap.ErrFileNotFound) {
				tableLog.Warn("file not found")
			} else {
				tableLog.Warn("table skipped", "error", err)
			}
			sum.Skipped[e.ID] = err
			continue
		}
		tableLog.Debug("table materialized", "rows", fr.Len(), "columns", len(fr.Columns))

		res := &TableResult{ID: e.ID, Table: e.Table, Source: fr.Source, Frame: fr}
		if prev, ok := sum.Table(e.Table); ok {
			log.Warn("duplicate table in column map; later entry wins", "table", e.Table, "replaced", prev.ID, "by", e.ID)
			*prev = *res
			continue
		}
		sum.Tables = append(sum.Tables, res)
	}
}

func (p *Pipeline) writeDecoded(ctx context.Context, sum *Summary) error {
	log := logging.FromContext(ctx)
	for _, t := range sum.Tables {
		path, err := t.Frame.WriteFile(p.cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("write decoded %s: %w", t.Table, err)
		}
		t.Decoded = path
		log.Info("decoded table saved", "table", t.Table, "path", path)
	}
	return nil
}

func (p *Pipeline) normalize(ctx context.Context, sum *Summary) {
	log := logging.FromContext(ctx)
	opts := core.Options{LargeTxnThreshold: p.cfg.LargeTxnThreshold}

	for _, def := range core.All() {
		t, ok := sum.Table(def.Info.Key)
		if !ok {
			log.Warn("table not materialized; skipping normalization", "table", def.Info.Key)
			continue
		}

		n := core.Normalize(def, t.Frame, opts)
		t.Normalized = n

		if len(n.Missing) > 0 {
			log.Warn("declared columns missing", "table", def.Info.Key, "columns", n.Missing)
		}
		if n.Errors.Total() > 0 {
			log.Warn("values coerced to null", "table", def.Info.Key, "counts", n.Errors.String())
		}
		log.Debug("table normalized", "table", def.Info.Key, "rows", len(n.Records), "flagged", len(n.Flagged))
	}
}

// report prints the flagged rows of every table that derives a flag.
func (p *Pipeline) report(sum *Summary) error {
	for _, def := range core.All() {
		if def.Info.FlagLabel == "" {
			continue
		}
		t, ok := sum.Table(def.Info.Key)
		if !ok || t.Normalized == nil {
			continue
		}
		if err := report.Flagged(p.out, def.Info.FlagLabel, t.Normalized.FlaggedFrame()); err != nil {
			return err
		}
	}
	return nil
}

// load inserts users before cards so the foreign key can resolve.
func (p *Pipeline) load(ctx context.Context, sum *Summary) error {
	log := logging.FromContext(ctx)

	if t, ok := sum.Table("users"); ok && t.Normalized != nil {
		res, err := p.store.InsertUsers(ctx, t.Normalized.Users())
		if err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		t.Load = &res
		sum.Loads = append(sum.Loads, res)
	}

	if t, ok := sum.Table("cards"); ok && t.Normalized != nil {
		res, err := p.store.InsertCards(ctx, t.Normalized.Cards())
		if err != nil {
			return fmt.Errorf("insert cards: %w", err)
		}
		t.Load = &res
		sum.Loads = append(sum.Loads, res)
	}

	for _, res := range sum.Loads {
		log.Info("rows loaded", "table", res.Table, "inserted", res.Inserted, "skipped", res.Skipped, "failed", len(res.Failed))
		for _, f := range res.Failed {
			log.Warn("row rejected", "table", res.Table, "line", f.Line, "id", f.ID, "reason", f.Reason)
		}
	}

	return report.Loads(p.out, sum.Loads)
}

func (p *Pipeline) logIngestions(ctx context.Context, sum *Summary) error {
	for _, t := range sum.Tables {
		rec := t.Record(sum.RunID, p.now().UTC())
		if err := p.store.LogIngestion(ctx, rec); err != nil {
			return fmt.Errorf("log ingestion for %s: %w", t.Table, err)
		}
		logging.FromContext(ctx).Debug("ingestion logged", "table", t.Table, "errors", rec.Errors)
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
