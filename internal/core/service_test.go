package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/csvdml/internal/history"
	"github.com/JonMunkholm/csvdml/internal/verify"
)

// ----------------------------------------------------------------------------
// Test doubles
// ----------------------------------------------------------------------------

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = value
	return nil
}

type stubArchiver struct {
	key  string
	err  error
	sqls []string
}

func (a *stubArchiver) Archive(_ context.Context, id string, _ time.Time, sql string) (string, error) {
	a.sqls = append(a.sqls, sql)
	if a.err != nil {
		return "", a.err
	}
	return a.key + id, nil
}

type failingStore struct{ history.Store }

func (failingStore) Record(context.Context, history.Entry) error { return errors.New("db down") }

func newTestService(deps Deps) *Service {
	return NewService(ServiceConfig{MaxConcurrent: 2, MaxWait: time.Second}, deps)
}

// ----------------------------------------------------------------------------
// Convert Tests
// ----------------------------------------------------------------------------

func TestServiceConvert(t *testing.T) {
	svc := newTestService(Deps{})

	res, err := svc.Convert(context.Background(), Request{
		FileName: "people.csv",
		Options:  Options{TableName: "people", CaseTransform: CaseUpper},
	}, strings.NewReader("First Name,Age\nO'Brien,\n"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	want := "INSERT INTO people (first_name, age) VALUES ('O''BRIEN', NULL);"
	if res.SQL != want {
		t.Errorf("SQL = %q, want %q", res.SQL, want)
	}
	if res.Statements != 1 {
		t.Errorf("Statements = %d, want 1", res.Statements)
	}
	if res.ID == "" {
		t.Error("expected a conversion ID")
	}
	if res.BytesRead != int64(len("First Name,Age\nO'Brien,\n")) {
		t.Errorf("BytesRead = %d", res.BytesRead)
	}
	if res.Options.Dialect != DefaultDialect {
		t.Errorf("Dialect = %q, want default", res.Options.Dialect)
	}
}

func TestServiceConvertDefaults(t *testing.T) {
	svc := newTestService(Deps{})

	res, err := svc.Convert(context.Background(), Request{FileName: "x.csv"}, strings.NewReader("A\n1\n"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.SQL != "INSERT INTO sua_tabela (a) VALUES ('1');" {
		t.Errorf("SQL = %q", res.SQL)
	}
	if res.Options.CaseTransform != CaseNone {
		t.Errorf("CaseTransform = %q", res.Options.CaseTransform)
	}
}

func TestServiceConvertRejectsFileName(t *testing.T) {
	svc := newTestService(Deps{})

	_, err := svc.Convert(context.Background(), Request{FileName: "data.xlsx"}, strings.NewReader("a\n1\n"))
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
}

func TestServiceConvertInputErrorsRecorded(t *testing.T) {
	store := history.NewMemoryStore(10)
	svc := newTestService(Deps{History: store})
	ctx := ContextWithClientIP(context.Background(), "198.51.100.4")

	_, err := svc.Convert(ctx, Request{FileName: "bad.csv"}, strings.NewReader("a\n1,2\n"))
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ShapeError, got %v", err)
	}

	entries, _ := svc.Recent(context.Background(), 10)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Status != history.StatusFailed || e.Error != se.Error() || e.ClientIP != "198.51.100.4" {
		t.Errorf("entry = %+v", e)
	}
}

func TestServiceConvertCache(t *testing.T) {
	c := newMapCache()
	svc := newTestService(Deps{Cache: c})
	req := Request{FileName: "a.csv", Options: Options{TableName: "t"}}
	body := "a\n'x'\n"

	first, err := svc.Convert(context.Background(), req, strings.NewReader(body))
	if err != nil {
		t.Fatalf("first Convert() error = %v", err)
	}
	if first.Cached {
		t.Fatal("first conversion should not be cached")
	}

	second, err := svc.Convert(context.Background(), req, strings.NewReader(body))
	if err != nil {
		t.Fatalf("second Convert() error = %v", err)
	}
	if !second.Cached || second.SQL != first.SQL || second.Statements != first.Statements {
		t.Errorf("second = %+v, want cached copy of %+v", second, first)
	}
	if second.ID == first.ID {
		t.Error("cached result should get its own ID")
	}

	// A different table name misses.
	req.Options.TableName = "other"
	third, err := svc.Convert(context.Background(), req, strings.NewReader(body))
	if err != nil {
		t.Fatalf("third Convert() error = %v", err)
	}
	if third.Cached {
		t.Error("different options should not hit the cache")
	}
}

func TestServiceConvertSinkFailuresIgnored(t *testing.T) {
	c := newMapCache()
	c.err = errors.New("redis gone")
	arch := &stubArchiver{err: errors.New("bucket gone")}
	svc := newTestService(Deps{Cache: c, History: failingStore{}, Archive: arch})

	res, err := svc.Convert(context.Background(), Request{FileName: "a.csv"}, strings.NewReader("a\n1\n"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Statements != 1 || res.ArchiveKey != "" {
		t.Errorf("result = %+v", res)
	}
	if len(arch.sqls) != 1 {
		t.Errorf("archive calls = %d, want 1", len(arch.sqls))
	}
}

func TestServiceConvertArchives(t *testing.T) {
	arch := &stubArchiver{key: "k/"}
	svc := newTestService(Deps{Archive: arch})

	res, err := svc.Convert(context.Background(), Request{FileName: "a.csv"}, strings.NewReader("a\n1\n"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.ArchiveKey != "k/"+res.ID {
		t.Errorf("ArchiveKey = %q", res.ArchiveKey)
	}
	if len(arch.sqls) != 1 || arch.sqls[0] != res.SQL {
		t.Errorf("archived %q, want %q", arch.sqls, res.SQL)
	}
}

func TestServiceConvertVerify(t *testing.T) {
	svc := newTestService(Deps{Verifier: verify.New()})

	res, err := svc.Convert(context.Background(), Request{
		FileName: "people.csv",
		Options:  Options{TableName: "people"},
		Verify:   true,
	}, strings.NewReader("First Name,Age\nO'Brien,\nann,30\n"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !res.Verified || res.VerifiedRows != 2 {
		t.Errorf("Verified = %v, VerifiedRows = %d", res.Verified, res.VerifiedRows)
	}
}

func TestServiceConvertVerifyUnavailable(t *testing.T) {
	svc := newTestService(Deps{})

	_, err := svc.Convert(context.Background(), Request{FileName: "a.csv", Verify: true}, strings.NewReader("a\n1\n"))
	if !errors.Is(err, ErrVerifyUnavailable) {
		t.Fatalf("expected ErrVerifyUnavailable, got %v", err)
	}
}

func TestServiceConvertBusy(t *testing.T) {
	svc := NewService(ServiceConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond}, Deps{})
	if !svc.limiter.TryAcquire() {
		t.Fatal("could not take the only slot")
	}
	defer svc.limiter.Release()

	_, err := svc.Convert(context.Background(), Request{FileName: "a.csv"}, strings.NewReader("a\n1\n"))
	if !errors.Is(err, ErrTooManyConversions) {
		t.Fatalf("expected ErrTooManyConversions, got %v", err)
	}
	if s := svc.LimiterStatus(); s.Active != 1 || s.Available != 0 {
		t.Errorf("status = %+v", s)
	}
}

func TestServiceConvertReleasesSlot(t *testing.T) {
	svc := newTestService(Deps{})

	for i := 0; i < 5; i++ {
		_, _ = svc.Convert(context.Background(), Request{FileName: "a.csv"}, strings.NewReader("a\n1,2\n"))
	}
	if n := svc.LimiterStatus().Active; n != 0 {
		t.Errorf("active = %d after conversions finished", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.WaitForConversions(ctx); err != nil {
		t.Errorf("WaitForConversions() error = %v", err)
	}
}
