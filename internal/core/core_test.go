package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/extract"
	"github.com/joseph-ayodele/order-tracker/internal/ingest"
	"github.com/joseph-ayodele/order-tracker/internal/ledger"
	"github.com/joseph-ayodele/order-tracker/internal/metrics"
	"github.com/joseph-ayodele/order-tracker/internal/store"
)

func orderPage(orderID, code, amount string) entity.Page {
	return entity.Page{
		Text: "订单号：" + orderID + "\n" + code + " BILLY 书柜 1 " + amount + " 13% ¥" + amount + "\n",
		Table: entity.Table{
			{"商品货号", "金额"},
			{code, "¥" + amount},
		},
		PageCount: 1,
	}
}

// fakePages serves pages by file base name. A name mapped to nil panics.
type fakePages struct {
	pages map[string]*entity.Page
}

func (f fakePages) ExtractFirstPage(_ context.Context, path string) (entity.Page, error) {
	p, ok := f.pages[filepath.Base(path)]
	if !ok {
		return entity.Page{}, errors.New("pdftotext: exit status 1")
	}
	if p == nil {
		panic("corrupt xref table")
	}
	return *p, nil
}

func ptr(p entity.Page) *entity.Page { return &p }

type jobCall struct {
	path    string
	status  string
	records int
}

type fakeJobs struct {
	mu        sync.Mutex
	started   map[uuid.UUID]string
	calls     []jobCall
	succeeded map[string]bool
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{started: map[uuid.UUID]string{}, succeeded: map[string]bool{}}
}

func (f *fakeJobs) Start(_ context.Context, runID, sourcePath, _ string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if runID == "" {
		return uuid.Nil, errors.New("missing run id")
	}
	id := uuid.New()
	f.started[id] = sourcePath
	return id, nil
}

func (f *fakeJobs) FinishSuccess(_ context.Context, jobID uuid.UUID, _ string, records int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := "SUCCEEDED"
	if records == 0 {
		status = "EMPTY"
	}
	f.calls = append(f.calls, jobCall{path: f.started[jobID], status: status, records: records})
	return nil
}

func (f *fakeJobs) FinishFailure(_ context.Context, jobID uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, jobCall{path: f.started[jobID], status: "FAILED"})
	return nil
}

func (f *fakeJobs) HasSucceeded(_ context.Context, contentHash string) (bool, error) {
	return f.succeeded[contentHash], nil
}

func (f *fakeJobs) statusOf(path string) string {
	for _, c := range f.calls {
		if c.path == path {
			return c.status
		}
	}
	return ""
}

func docs(names ...string) []ingest.DocumentFile {
	out := make([]ingest.DocumentFile, len(names))
	for i, n := range names {
		out[i] = ingest.DocumentFile{Path: "/orders/" + n, Name: n, Ext: "pdf", HashHex: "hash-" + n}
	}
	return out
}

func samplePages() fakePages {
	return fakePages{pages: map[string]*entity.Page{
		"a.pdf":     ptr(orderPage("27000001", "102.635.24", "199.00")),
		"b.pdf":     ptr(orderPage("27000002", "403.011.55", "99.00")),
		"c.pdf":     ptr(orderPage("27000003", "301.222.33", "45.00")),
		"empty.pdf": ptr(entity.Page{Text: "订单号：27000009\n感谢您的惠顾\n"}),
		"bad.pdf":   nil,
	}}
}

func newBatch(t *testing.T, workers int, jobs *fakeJobs, storePath string) (*Batch, *metrics.Registry) {
	t.Helper()
	m := metrics.NewRegistry()
	proc := NewProcessor(ProcessorConfig{}, samplePages(), extract.NewExtractor(nil, nil), jobs, m, nil)
	st := store.NewXLSXStore(storePath, "Sheet1", nil)
	return NewBatch(BatchConfig{Workers: workers}, proc, st, m, nil), m
}

func TestProcessDocument(t *testing.T) {
	jobs := newFakeJobs()
	proc := NewProcessor(ProcessorConfig{}, samplePages(), nil, jobs, nil, nil)
	ctx := common.WithRunID(context.Background(), "run-1")

	ok := proc.ProcessDocument(ctx, docs("a.pdf")[0])
	require.NoError(t, ok.Err)
	assert.Equal(t, "27000001", ok.DocumentID)
	assert.NotEqual(t, uuid.Nil, ok.JobID)
	require.Len(t, ok.Records, 1)
	assert.Equal(t, "102.635.24", ok.Records[0].ProductCode)
	assert.Equal(t, "199.00", ok.Records[0].Amount.StringFixed(2))
	assert.Empty(t, jobs.statusOf("/orders/a.pdf"), "job stays running until its records are stored")

	res := proc.ProcessDocument(ctx, docs("empty.pdf")[0])
	assert.ErrorIs(t, res.Err, common.ErrNoRecords)
	assert.Equal(t, "27000009", res.DocumentID)

	res = proc.ProcessDocument(ctx, docs("missing.pdf")[0])
	assert.ErrorContains(t, res.Err, "read first page")

	res = proc.ProcessDocument(ctx, docs("bad.pdf")[0])
	assert.ErrorContains(t, res.Err, "panic")

	proc.FinishDocument(ctx, ok, nil)
	assert.Equal(t, "SUCCEEDED", jobs.statusOf("/orders/a.pdf"))
	assert.Equal(t, "EMPTY", jobs.statusOf("/orders/empty.pdf"))
	assert.Equal(t, "FAILED", jobs.statusOf("/orders/missing.pdf"))
	assert.Equal(t, "FAILED", jobs.statusOf("/orders/bad.pdf"))
}

func TestProcessDocumentSkipsProcessed(t *testing.T) {
	jobs := newFakeJobs()
	jobs.succeeded["hash-a.pdf"] = true
	m := metrics.NewRegistry()
	proc := NewProcessor(ProcessorConfig{SkipProcessed: true}, samplePages(), nil, jobs, m, nil)

	res := proc.ProcessDocument(context.Background(), docs("a.pdf")[0])
	assert.True(t, res.Skipped)
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Records)
	assert.Empty(t, jobs.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsSkipped))
}

func TestBatchRunFiles(t *testing.T) {
	for _, workers := range []int{1, 3} {
		jobs := newFakeJobs()
		path := filepath.Join(t.TempDir(), "orders.xlsx")
		b, m := newBatch(t, workers, jobs, path)

		sum, err := b.RunFiles(context.Background(), docs("a.pdf", "bad.pdf", "b.pdf", "empty.pdf", "missing.pdf", "c.pdf"))
		require.NoError(t, err)
		assert.NotEmpty(t, sum.RunID)
		assert.Equal(t, 6, sum.Documents)
		assert.Equal(t, 3, sum.Succeeded)
		assert.Equal(t, 3, sum.Failed)
		assert.Equal(t, 3, sum.Records)
		assert.Equal(t, 3, sum.StoreRows)

		rows, err := store.NewXLSXStore(path, "Sheet1", nil).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"27000001", "27000002", "27000003"},
			[]string{rows[0].OrderNumber, rows[1].OrderNumber, rows[2].OrderNumber}, "workers=%d", workers)

		assert.Equal(t, 3.0, testutil.ToFloat64(m.DocumentsProcessed))
		assert.Equal(t, 3.0, testutil.ToFloat64(m.DocumentsFailed))
		assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsExtracted))
		assert.Len(t, jobs.calls, 6)
	}
}

func TestBatchAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	b, _ := newBatch(t, 1, newFakeJobs(), path)

	_, err := b.RunFiles(context.Background(), docs("a.pdf"))
	require.NoError(t, err)
	sum, err := b.RunFiles(context.Background(), docs("b.pdf", "c.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.StoreRows)
}

func TestBatchNoRecordsLeavesStoreUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	b, _ := newBatch(t, 1, newFakeJobs(), path)

	sum, err := b.RunFiles(context.Background(), docs("empty.pdf", "bad.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed)
	assert.Zero(t, sum.Records)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBatchPersistenceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "orders.xlsx")
	jobs := newFakeJobs()
	b, _ := newBatch(t, 1, jobs, path)

	sum, err := b.RunFiles(context.Background(), docs("a.pdf", "empty.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Zero(t, sum.StoreRows)
	assert.Equal(t, "FAILED", jobs.statusOf("/orders/a.pdf"))
	assert.Equal(t, "EMPTY", jobs.statusOf("/orders/empty.pdf"))
}

func TestBatchRetriesDocumentsAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	db, err := ledger.Open(ctx, ledger.Config{DSN: filepath.Join(t.TempDir(), "ledger.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	m := metrics.NewRegistry()
	proc := NewProcessor(ProcessorConfig{SkipProcessed: true}, samplePages(), nil, db.Jobs(), m, nil)
	files := docs("a.pdf")

	broken := store.NewXLSXStore(filepath.Join(t.TempDir(), "no-such-dir", "orders.xlsx"), "Sheet1", nil)
	_, err = NewBatch(BatchConfig{}, proc, broken, m, nil).RunFiles(ctx, files)
	require.ErrorIs(t, err, common.ErrPersistence)

	done, err := db.Jobs().HasSucceeded(ctx, files[0].HashHex)
	require.NoError(t, err)
	assert.False(t, done)

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	good := NewBatch(BatchConfig{}, proc, store.NewXLSXStore(path, "Sheet1", nil), m, nil)
	sum, err := good.RunFiles(ctx, files)
	require.NoError(t, err)
	assert.Zero(t, sum.Skipped)
	assert.Equal(t, 1, sum.Records)
	assert.Equal(t, 1, sum.StoreRows)

	rows, err := store.NewXLSXStore(path, "Sheet1", nil).Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "27000001", rows[0].OrderNumber)

	sum, err = good.RunFiles(ctx, files)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Records)
}

func TestBatchRunScansDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.pdf", "a.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4 "+n), 0o644))
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling.pdf")))
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	m := metrics.NewRegistry()
	proc := NewProcessor(ProcessorConfig{}, samplePages(), nil, nil, m, nil)
	b := NewBatch(BatchConfig{DocumentDir: dir}, proc, store.NewXLSXStore(path, "Sheet1", nil), m, nil)

	sum, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Documents)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed, "unreadable documents count as failures")
	assert.Equal(t, 2, sum.Records)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsFailed))

	rows, err := store.NewXLSXStore(path, "Sheet1", nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "27000001", rows[0].OrderNumber)
}

func TestBatchRunMissingDirectory(t *testing.T) {
	b, _ := newBatch(t, 1, newFakeJobs(), filepath.Join(t.TempDir(), "orders.xlsx"))
	b.cfg.DocumentDir = filepath.Join(t.TempDir(), "absent")
	_, err := b.Run(context.Background())
	assert.Error(t, err)
}
