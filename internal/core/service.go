package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvdml/internal/cache"
	"github.com/JonMunkholm/csvdml/internal/history"
	"github.com/JonMunkholm/csvdml/internal/logging"
	"github.com/JonMunkholm/csvdml/internal/metrics"
)

// ErrVerifyUnavailable is returned when verification is requested but the
// service has no verifier.
var ErrVerifyUnavailable = errors.New("verification is not available")

// ResultCache stores generated output keyed by upload content and options.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// OutputArchiver copies generated SQL to durable storage and returns its key.
type OutputArchiver interface {
	Archive(ctx context.Context, id string, at time.Time, sql string) (string, error)
}

// Verifier executes statements against a scratch database and returns the
// number of rows they produced.
type Verifier interface {
	Verify(ctx context.Context, table string, columns, statements []string) (int, error)
}

// ServiceConfig holds the service's tunables.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWait       time.Duration
	Defaults      Options // Fills fields the request leaves empty
}

// Deps are the optional collaborators of a Service. Nil fields disable the
// feature, except History, which falls back to an in-memory store.
type Deps struct {
	Cache    ResultCache
	History  history.Store
	Archive  OutputArchiver
	Verifier Verifier
}

// Service converts uploads to SQL. It is safe for concurrent use.
type Service struct {
	limiter  *ConversionLimiter
	defaults Options

	cache    ResultCache
	history  history.Store
	archive  OutputArchiver
	verifier Verifier

	now func() time.Time
}

// NewService creates a Service.
func NewService(cfg ServiceConfig, deps Deps) *Service {
	defaults := cfg.Defaults
	if defaults.TableName == "" {
		defaults.TableName = DefaultTableName
	}
	if defaults.CaseTransform == "" {
		defaults.CaseTransform = CaseNone
	}
	if defaults.Dialect == "" {
		defaults.Dialect = DefaultDialect
	}

	s := &Service{
		limiter:  NewConversionLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		defaults: defaults,
		cache:    deps.Cache,
		history:  deps.History,
		archive:  deps.Archive,
		verifier: deps.Verifier,
		now:      time.Now,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.history == nil {
		s.history = history.NewMemoryStore(history.DefaultLimit)
	}
	return s
}

// cachedOutput is the value stored in the result cache.
type cachedOutput struct {
	SQL        string   `json:"sql"`
	Statements int      `json:"statements"`
	Columns    []string `json:"columns"`
}

// Convert reads body to completion and returns the INSERT statements for it.
//
// The file name is checked before any bytes are read. A conversion slot is
// held for the rest of the call. Cache, archive and history failures are
// logged and do not fail the conversion.
func (s *Service) Convert(ctx context.Context, req Request, body io.Reader) (*Result, error) {
	start := s.now()
	opts := s.withDefaults(req.Options)
	res := &Result{
		ID:       uuid.NewString(),
		FileName: req.FileName,
		Options:  opts,
	}
	logger := logging.WithFields(ctx,
		"conversion_id", res.ID,
		"file", req.FileName,
		"table", opts.TableName,
	)

	comp, err := CheckFileName(req.FileName)
	if err != nil {
		metrics.ObserveConversion(metrics.StatusRejected, 0, 0, 0)
		logger.Info("upload rejected", "error", err)
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.ObserveConversion(metrics.StatusRejected, 0, 0, 0)
		logger.Warn("conversion slot unavailable", "error", err, "active", s.limiter.ActiveCount())
		return nil, err
	}
	metrics.SetActiveConversions(s.limiter.ActiveCount())
	defer func() {
		s.limiter.Release()
		metrics.SetActiveConversions(s.limiter.ActiveCount())
	}()

	cr := newCountingReader(body)
	data, err := io.ReadAll(cr)
	res.BytesRead = cr.BytesRead
	if err != nil {
		return nil, s.fail(ctx, res, start, fmt.Errorf("read upload: %w", err))
	}

	key := cache.Key(data, opts.TableName, string(opts.CaseTransform), comp.String())
	if !req.Verify {
		if out, ok := s.lookup(ctx, key); ok {
			res.SQL = out.SQL
			res.Statements = out.Statements
			res.Columns = out.Columns
			res.Cached = true
			res.Duration = s.now().Sub(start)
			metrics.ObserveConversion(metrics.StatusCached, res.Statements, res.BytesRead, res.Duration)
			s.record(ctx, res, start, nil)
			logger.Info("conversion served from cache", "statements", res.Statements)
			return res, nil
		}
	}

	columns, stmts, err := convertBytes(data, comp, opts)
	if err != nil {
		return nil, s.fail(ctx, res, start, err)
	}
	res.Columns = columns
	res.Statements = len(stmts)
	res.SQL = strings.Join(stmts, "\n")

	if req.Verify {
		if s.verifier == nil {
			return nil, s.fail(ctx, res, start, ErrVerifyUnavailable)
		}
		n, err := s.verifier.Verify(ctx, opts.TableName, columns, stmts)
		if err != nil {
			return nil, s.fail(ctx, res, start, err)
		}
		res.Verified = true
		res.VerifiedRows = n
	}

	s.store(ctx, key, res)
	res.Duration = s.now().Sub(start)
	metrics.ObserveConversion(metrics.StatusSuccess, res.Statements, res.BytesRead, res.Duration)
	s.record(ctx, res, start, nil)

	logger.Info("conversion completed",
		"statements", res.Statements,
		"bytes", res.BytesRead,
		"verified", res.Verified,
		"duration", res.Duration,
	)
	return res, nil
}

// convertBytes runs decompress, decode, normalize and generate.
func convertBytes(data []byte, comp Compression, opts Options) ([]string, []string, error) {
	r, closeFn, err := decompress(bytes.NewReader(data), comp)
	if err != nil {
		return nil, nil, err
	}
	defer closeFn()

	t, err := DecodeCSV(r)
	if err != nil {
		return nil, nil, err
	}
	t.Columns = NormalizeColumns(t.Columns)

	stmts, err := Statements(t, opts)
	if err != nil {
		return nil, nil, err
	}
	return t.Columns, stmts, nil
}

func (s *Service) withDefaults(o Options) Options {
	if strings.TrimSpace(o.TableName) == "" {
		o.TableName = s.defaults.TableName
	}
	if o.CaseTransform == "" {
		o.CaseTransform = s.defaults.CaseTransform
	}
	if o.Dialect == "" {
		o.Dialect = s.defaults.Dialect
	}
	return o
}

func (s *Service) lookup(ctx context.Context, key string) (cachedOutput, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.FromContext(ctx).Warn("cache lookup failed", "error", err)
		return cachedOutput{}, false
	}
	if !ok {
		return cachedOutput{}, false
	}
	var out cachedOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logging.FromContext(ctx).Warn("discarding unreadable cache entry", "error", err)
		return cachedOutput{}, false
	}
	return out, true
}

// store writes res to the cache and archive. Archive errors leave
// ArchiveKey empty.
func (s *Service) store(ctx context.Context, key string, res *Result) {
	logger := logging.FromContext(ctx)

	raw, err := json.Marshal(cachedOutput{SQL: res.SQL, Statements: res.Statements, Columns: res.Columns})
	if err == nil {
		err = s.cache.Set(ctx, key, string(raw))
	}
	if err != nil {
		logger.Warn("cache store failed", "conversion_id", res.ID, "error", err)
	}

	if s.archive == nil {
		return
	}
	archiveKey, err := s.archive.Archive(ctx, res.ID, s.now(), res.SQL)
	if err != nil {
		logger.Warn("archive failed", "conversion_id", res.ID, "error", err)
		return
	}
	res.ArchiveKey = archiveKey
}

func (s *Service) fail(ctx context.Context, res *Result, start time.Time, err error) error {
	d := s.now().Sub(start)
	res.Duration = d
	metrics.ObserveConversion(metrics.StatusFailed, 0, res.BytesRead, d)
	s.record(ctx, res, start, err)
	logging.WithFields(ctx, "conversion_id", res.ID, "file", res.FileName).
		Error("conversion failed", "error", err, "bytes", res.BytesRead)
	return err
}

func (s *Service) record(ctx context.Context, res *Result, start time.Time, convErr error) {
	e := history.Entry{
		ID:            res.ID,
		FileName:      res.FileName,
		TableName:     res.Options.TableName,
		CaseTransform: string(res.Options.CaseTransform),
		Dialect:       string(res.Options.Dialect),
		Status:        history.StatusSuccess,
		Statements:    res.Statements,
		BytesRead:     res.BytesRead,
		Duration:      res.Duration,
		ArchiveKey:    res.ArchiveKey,
		ClientIP:      ClientIPFromContext(ctx),
		CreatedAt:     start.UTC(),
	}
	if convErr != nil {
		e.Status = history.StatusFailed
		e.Statements = 0
		e.Error = convErr.Error()
	}
	if err := s.history.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("history record failed", "conversion_id", res.ID, "error", err)
	}
}

// Recent returns the latest conversions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	return s.history.Recent(ctx, history.ClampLimit(limit))
}

// LimiterStatus reports current conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until in-flight conversions finish or ctx ends.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
