// Package ingest wires together parsing, storage, detection and
// alerting into the end-to-end pipeline a log line travels through.
// Grounded on
// original_source/api/app/ingestion/ingestion_service.py's
// IngestionService.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arjunmehta/sentinelwatch/internal/logging"
	"github.com/arjunmehta/sentinelwatch/pkg/alerts"
	"github.com/arjunmehta/sentinelwatch/pkg/engine"
	"github.com/arjunmehta/sentinelwatch/pkg/geoloc"
	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/parser"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// Result summarizes the outcome of an ingestion call.
type Result struct {
	Ingested        int    `json:"ingested"`
	AlertsGenerated int    `json:"alerts_generated"`
	SourceFile      string `json:"source_file,omitempty"`
	LogEntryID      int64  `json:"log_entry_id,omitempty"`
}

// Orchestrator drives a raw log line through parse -> store -> detect
// -> alert for every line it's given.
type Orchestrator struct {
	parser     *parser.Parser
	resolver   *geoloc.Resolver
	events     store.EventStore
	alertStore store.AlertStore
	alerts     *alerts.Manager
	engine     *engine.Engine
}

// New builds an Orchestrator from its collaborators. resolver may be
// nil, in which case structured events ingested via IngestEvent carry
// no geolocation.
func New(p *parser.Parser, resolver *geoloc.Resolver, events store.EventStore, alertStore store.AlertStore, en *engine.Engine) *Orchestrator {
	return &Orchestrator{
		parser:     p,
		resolver:   resolver,
		events:     events,
		alertStore: alertStore,
		alerts:     alerts.New(alertStore),
		engine:     en,
	}
}

// IngestEvent stores an already-built event (e.g. from a structured
// API request) and runs detection against it. Like the line-parsing
// path, it geolocates source_ip before storing, mirroring the
// original's ingest_single_log.
func (o *Orchestrator) IngestEvent(ctx context.Context, e models.Event) (Result, error) {
	o.geolocate(&e)

	stored, err := o.events.AppendEvent(ctx, e)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: append event: %w", err)
	}

	generated, err := o.detectAndAlert(ctx, stored)
	if err != nil {
		return Result{}, err
	}

	return Result{Ingested: 1, AlertsGenerated: generated, LogEntryID: stored.ID}, nil
}

// geolocate enriches e with its source IP's location, unless it's
// already been resolved (e.g. by the line parser) or there's no
// resolver configured.
func (o *Orchestrator) geolocate(e *models.Event) {
	if e.HasLocation || e.SourceIP == "" || o.resolver == nil {
		return
	}
	if loc, found := o.resolver.GetLocation(e.SourceIP); found {
		e.HasLocation = true
		e.CountryCode = loc.CountryCode
		e.Latitude = loc.Latitude
		e.Longitude = loc.Longitude
	}
}

// IngestLines parses each non-blank line in turn, storing and
// detecting on every one that parses successfully. Lines that fail to
// parse are logged and skipped, matching the parser's best-effort
// contract.
func (o *Orchestrator) IngestLines(ctx context.Context, lines []string, sourceFile string) (Result, error) {
	result := Result{SourceFile: sourceFile}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		event, ok := o.parser.ParseLine(line, sourceFile)
		if !ok {
			logging.Get().Warn().Str("source_file", sourceFile).Msg("unparseable log line; skipping")
			continue
		}

		stored, err := o.events.AppendEvent(ctx, event)
		if err != nil {
			return Result{}, fmt.Errorf("ingest: append event: %w", err)
		}

		generated, err := o.detectAndAlert(ctx, stored)
		if err != nil {
			return Result{}, err
		}

		result.Ingested++
		result.AlertsGenerated += generated
	}

	return result, nil
}

// IngestFile reads r line by line and ingests it the same way
// IngestLines does, tagging every resulting event with sourceFile
// (typically the uploaded file's base name).
func (o *Orchestrator) IngestFile(ctx context.Context, r io.Reader, sourceFile string) (Result, error) {
	sourceFile = filepath.Base(sourceFile)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("ingest: read file: %w", err)
	}

	return o.IngestLines(ctx, lines, sourceFile)
}

// detectAndAlert runs detection and persists every resulting alert. A
// StorageFailure while persisting an alert aborts the batch rather
// than being logged and skipped, so the request fails, per the storage
// layer's fail-fast policy. No transaction wraps the batch: events and
// alerts already written before the failure stay stored.
func (o *Orchestrator) detectAndAlert(ctx context.Context, event models.Event) (int, error) {
	specs := o.engine.Detect(ctx, event, o.events, o.alertStore)

	generated := 0
	for _, spec := range specs {
		if _, err := o.alerts.Create(ctx, spec, &event); err != nil {
			return generated, fmt.Errorf("ingest: persist alert for rule %s: %w", spec.RuleName, err)
		}
		generated++
	}
	return generated, nil
}
