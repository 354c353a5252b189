package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/document"
	"github.com/joseph-ayodele/summary-extractor/internal/extract"
	"github.com/joseph-ayodele/summary-extractor/internal/ratelimit"
	"github.com/joseph-ayodele/summary-extractor/internal/repository"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
	"github.com/joseph-ayodele/summary-extractor/internal/source"
)

// Input names one source and the strategy key to parse it with.
type Input struct {
	Source string
	Format string
	// Force bypasses duplicate detection.
	Force bool
}

// Result is the outcome of one processed source.
type Result struct {
	ID          uuid.UUID           `json:"id"`
	Source      string              `json:"source"`
	ContentHash string              `json:"content_hash"`
	Status      constants.RunStatus `json:"status"`
	Records     []extract.Record    `json:"records"`
	Documents   []document.Document `json:"documents"`
	Warnings    []string            `json:"warnings"`
}

// BatchItem pairs an input with its result or error.
type BatchItem struct {
	Input  Input
	Result *Result
	Err    error
}

// Processor coordinates read -> validate -> sanitize -> extract -> persist.
type Processor struct {
	logger         *slog.Logger
	reader         source.Reader
	sanitizer      *sanitizer.Sanitizer
	registry       *extract.Registry
	limiter        *ratelimit.Limiter
	history        repository.HistoryRepository
	skipDuplicates bool
	concurrency    int
}

type Option func(*Processor)

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLimiter gates every Process call through l.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(p *Processor) { p.limiter = l }
}

// WithHistory records every run in h.
func WithHistory(h repository.HistoryRepository) Option {
	return func(p *Processor) { p.history = h }
}

// WithSkipDuplicates returns the stored result for content already processed
// successfully instead of parsing it again. Requires WithHistory.
func WithSkipDuplicates(skip bool) Option {
	return func(p *Processor) { p.skipDuplicates = skip }
}

func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func NewProcessor(reader source.Reader, san *sanitizer.Sanitizer, registry *extract.Registry, opts ...Option) *Processor {
	if san == nil {
		san = sanitizer.Default()
	}
	if registry == nil {
		registry = extract.NewRegistry(extract.NewParser(san))
	}
	p := &Processor{
		logger:      slog.Default(),
		reader:      reader,
		sanitizer:   san,
		registry:    registry,
		concurrency: 4,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Registry exposes the strategy registry so callers can add formats.
func (p *Processor) Registry() *extract.Registry { return p.registry }

// Sanitizer returns the sanitizer used for every source.
func (p *Processor) Sanitizer() *sanitizer.Sanitizer { return p.sanitizer }

// Process reads in.Source and extracts every summary block from it.
func (p *Processor) Process(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := p.admit(); err != nil {
		p.logger.Warn("processor.rate_limited", "source", in.Source)
		return nil, err
	}

	fd, err := p.reader.Stat(ctx, in.Source)
	if err != nil {
		return nil, p.fail(ctx, in, "", err)
	}
	fileCheck, err := p.sanitizer.ValidateFile(fd)
	if err != nil {
		return nil, p.fail(ctx, in, "", err)
	}
	text, err := p.reader.ReadFullText(ctx, in.Source)
	if err != nil {
		return nil, p.fail(ctx, in, "", err)
	}

	res, err := p.run(ctx, in, text, fileCheck.Warnings)
	if err != nil {
		return nil, err
	}
	p.logger.Info("processor.parse.ok",
		"source", in.Source,
		"records", len(res.Records),
		"status", res.Status,
		"request_id", common.RequestIDFromContext(ctx),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ProcessContent parses content that is already in memory; name is only
// used for history and logs.
func (p *Processor) ProcessContent(ctx context.Context, name, content, format string) (*Result, error) {
	in := Input{Source: name, Format: format}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := p.admit(); err != nil {
		return nil, err
	}
	return p.run(ctx, in, content, nil)
}

// ProcessWhenAdmitted is Process, but a rate-limit denial waits for the
// limiter window to free a slot and tries again until ctx ends.
func (p *Processor) ProcessWhenAdmitted(ctx context.Context, in Input) (*Result, error) {
	for {
		res, err := p.Process(ctx, in)
		if !errors.Is(err, common.ErrRateLimited) {
			return res, err
		}
		t := time.NewTimer(p.RetryAfter())
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, err
		case <-t.C:
		}
	}
}

// RetryAfter is how long a rate-limited caller should wait before trying
// again. It never returns less than minRetryDelay.
func (p *Processor) RetryAfter() time.Duration {
	if p.limiter == nil {
		return minRetryDelay
	}
	return max(p.limiter.TimeUntilReset(), minRetryDelay)
}

const minRetryDelay = 10 * time.Millisecond

// ProcessBatch processes inputs in parallel. Items come back in input order
// and one failure does not stop the others. Inputs denied by the rate limiter
// wait for a free slot rather than failing.
func (p *Processor) ProcessBatch(ctx context.Context, inputs []Input) []BatchItem {
	items := make([]BatchItem, len(inputs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, in := range inputs {
		i, in := i, in
		items[i].Input = in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = p.ProcessWhenAdmitted(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func (p *Processor) admit() error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Check()
}

func (p *Processor) run(ctx context.Context, in Input, text string, warnings []string) (*Result, error) {
	hash := contentHash(text)

	if p.skipDuplicates && !in.Force && p.history != nil {
		if prev, err := p.history.GetByHash(ctx, hash); err == nil {
			return p.duplicate(ctx, in, prev, warnings)
		} else if !errors.Is(err, common.ErrNotFound) {
			p.logger.Warn("processor.dedup.lookup_failed", "source", in.Source, "error", err)
		}
	}

	checked, err := p.sanitizer.ValidateAndSanitize(text)
	if err != nil {
		return nil, p.fail(ctx, in, hash, err)
	}
	warnings = append(warnings, checked.Warnings...)

	records, err := p.registry.Get(in.Format)(checked.SanitizedContent)
	if err != nil {
		return nil, p.fail(ctx, in, hash, common.WrapParsingError(err))
	}

	docs := document.FromRecords(records)
	for i, d := range docs {
		if err := document.Validate(d); err != nil {
			return nil, p.fail(ctx, in, hash, common.NewParsingError(fmt.Sprintf("record %d: %v", i+1, err)))
		}
	}

	res := &Result{
		ID:          uuid.New(),
		Source:      in.Source,
		ContentHash: hash,
		Status:      constants.RunStatusSuccess,
		Records:     records,
		Documents:   docs,
		Warnings:    nonNil(warnings),
	}
	p.save(ctx, in, res, "")
	return res, nil
}

// duplicate answers from the stored run. History keeps the records as the
// strategy returned them, so Documents are rebuilt from those.
func (p *Processor) duplicate(ctx context.Context, in Input, prev *repository.Run, warnings []string) (*Result, error) {
	var records []extract.Record
	if err := json.Unmarshal(prev.Records, &records); err != nil {
		return nil, fmt.Errorf("decode stored records: %w", err)
	}
	if records == nil {
		records = []extract.Record{}
	}
	docs := document.FromRecords(records)
	res := &Result{
		ID:          uuid.New(),
		Source:      in.Source,
		ContentHash: prev.ContentHash,
		Status:      constants.RunStatusDuplicate,
		Records:     records,
		Documents:   docs,
		Warnings:    nonNil(warnings),
	}
	p.logger.Info("processor.duplicate", "source", in.Source, "previous_id", prev.ID)
	p.save(ctx, in, res, "")
	return res, nil
}

// fail records a failed run and returns err unchanged.
func (p *Processor) fail(ctx context.Context, in Input, hash string, err error) error {
	p.logger.Error("processor.parse.failed", "source", in.Source, "kind", common.KindOf(err), "error", err)
	p.save(ctx, in, &Result{
		ID:          uuid.New(),
		Source:      in.Source,
		ContentHash: hash,
		Status:      constants.RunStatusFailed,
	}, err.Error())
	return err
}

func (p *Processor) save(ctx context.Context, in Input, res *Result, errMsg string) {
	if p.history == nil {
		return
	}
	records, err := json.Marshal(nonNilRecords(res.Records))
	if err != nil {
		p.logger.Error("processor.history.encode_failed", "source", in.Source, "error", err)
		return
	}
	_, err = p.history.Create(ctx, &repository.Run{
		ID:           res.ID,
		Source:       res.Source,
		ContentHash:  res.ContentHash,
		Status:       res.Status,
		Format:       formatKey(in.Format),
		RecordCount:  len(res.Records),
		Records:      records,
		ErrorMessage: errMsg,
		Warnings:     res.Warnings,
	})
	if err != nil {
		p.logger.Error("processor.history.save_failed", "source", in.Source, "error", err)
	}
}

var reFormatKey = regexp.MustCompile(`^[\w.-]+$`)

func validateInput(in Input) error {
	v := common.NewValidator().
		Field("source", in.Source, common.Required, common.MaxLengthRule(4096)).
		Field("format", in.Format, common.MaxLengthRule(64), common.Matches(reFormatKey, "must contain only letters, digits, '.', '_' or '-'"))
	if v.HasErrors() {
		return common.NewValidationError(v.Messages(), nil)
	}
	return nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func formatKey(f string) string {
	if f == "" {
		return extract.DefaultKey
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRecords(r []extract.Record) []extract.Record {
	if r == nil {
		return []extract.Record{}
	}
	return r
}
