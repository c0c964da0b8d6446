package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/internal/contract/repository"
	"github.com/pravodoc/pravodoc-backend/internal/contract/service"
	"github.com/pravodoc/pravodoc-backend/internal/dates"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
	"github.com/pravodoc/pravodoc-backend/pkg/messaging"
	"github.com/pravodoc/pravodoc-backend/pkg/testutil"
)

// fileRenderer writes placeholder documents at the real file names.
type fileRenderer struct {
	err   error
	calls int
}

func (r *fileRenderer) Render(_ context.Context, c *domain.Contract, dir string) (domain.Files, error) {
	r.calls++
	if r.err != nil {
		return domain.Files{}, r.err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Files{}, err
	}
	base := filepath.Join(dir, c.BaseName())
	files := domain.Files{Docx: base + ".docx", PDF: base + ".pdf"}
	for _, p := range files.Paths() {
		if err := os.WriteFile(p, []byte(c.Number), 0o644); err != nil {
			return domain.Files{}, err
		}
	}
	return files, nil
}

type fixture struct {
	svc      *service.Service
	renderer *fileRenderer
	pub      *testutil.MockPublisher
	root     string
	dataDir  string
}

var fixedNow = time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		renderer: &fileRenderer{},
		pub:      testutil.NewMockPublisher(),
		root:     filepath.Join(dir, "contracts"),
		dataDir:  filepath.Join(dir, "data"),
	}
	f.svc = service.NewService(
		repository.NewJSONCounter(filepath.Join(f.dataDir, "counter.json")),
		repository.NewJSONRegistry(filepath.Join(f.dataDir, "registry.json")),
		f.renderer,
		f.pub,
		f.root,
		logger.Nop(),
		service.WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func client() passport.Record {
	return passport.Record{
		FullName:   "Иванов Иван Иванович",
		Series:     "4510",
		Number:     "123456",
		IssuedBy:   "Отделом УФМС России по г. Москве",
		IssuedDate: dates.Date(2015, time.June, 1),
	}
}

func TestService_Prepare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := dates.Date(2024, time.March, 25)

	first, err := f.svc.Prepare(ctx, client(), 132000, start)
	require.NoError(t, err)
	assert.Equal(t, "00001-ИИИ", first.Number)
	assert.Len(t, first.Payments, 9)
	assert.Equal(t, dates.Date(2024, time.March, 1), first.Date)
	assert.Equal(t, start, first.FirstPayment)

	second, err := f.svc.Prepare(ctx, client(), 5000, start)
	require.NoError(t, err)
	assert.Equal(t, "00002-ИИИ", second.Number)
	assert.Zero(t, f.renderer.calls)
}

func TestService_PrepareRejectsInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	incomplete := client()
	incomplete.Series = "45"
	_, err := f.svc.Prepare(ctx, incomplete, 132000, dates.Date(2024, time.March, 25))
	require.Error(t, err)
	assert.True(t, errors.IsFormat(err))

	_, err = f.svc.Prepare(ctx, client(), 0, dates.Date(2024, time.March, 25))
	assert.True(t, errors.IsBadRequest(err))

	_, err = f.svc.Prepare(ctx, client(), schedule.MaxTotal+1, dates.Date(2024, time.March, 25))
	assert.True(t, errors.IsBadRequest(err))
	f.pub.AssertNoEventsPublished(t)

	c, err := f.svc.Prepare(ctx, client(), 1000, dates.Date(2024, time.March, 25))
	require.NoError(t, err)
	assert.Equal(t, "00001-ИИИ", c.Number, "rejected drafts must not consume numbers")
}

func TestService_Generate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.Generate(ctx, "42", client(), 132000, dates.Date(2024, time.March, 25))
	require.NoError(t, err)

	dir := filepath.Join(f.root, "Иванов_Иван_Иванович")
	assert.Equal(t, filepath.Join(dir, "dogovor_00001-ИИИ_Иванов_Иван_Иванович.docx"), entry.DocxPath)
	assert.Equal(t, filepath.Join(dir, "dogovor_00001-ИИИ_Иванов_Иван_Иванович.pdf"), entry.PDFPath)
	assert.Equal(t, "2024-03-25", entry.FirstPaymentDate)
	assert.Equal(t, fixedNow, entry.CreatedAt)

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, messaging.EventContractGenerated, events[0].Type)
	event, ok := events[0].Payload.(messaging.ContractGeneratedEvent)
	require.True(t, ok)
	assert.Equal(t, "00001-ИИИ", event.ContractNumber)
	assert.Equal(t, 9, event.Payments)
	assert.Len(t, event.Files, 2)

	last, err := f.svc.LastContract(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, entry.ContractNumber, last.ContractNumber)
}

func TestService_IssuePublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.pub.Err = assert.AnError
	ctx := context.Background()

	c, err := f.svc.Prepare(ctx, client(), 10000, dates.Date(2024, time.March, 25))
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, "42", c)
	require.NoError(t, err)

	_, err = f.svc.LastContract(ctx, "42")
	assert.NoError(t, err)
}

func TestService_IssueRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = assert.AnError
	ctx := context.Background()

	c, err := f.svc.Prepare(ctx, client(), 10000, dates.Date(2024, time.March, 25))
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, "42", c)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	f.pub.AssertNoEventsPublished(t)

	_, err = f.svc.LastContract(ctx, "42")
	assert.True(t, errors.IsNotFound(err))
}

func TestService_LastContractMissingFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LastContract(ctx, "42")
	assert.True(t, errors.IsNotFound(err))
	assert.NotErrorIs(t, err, service.ErrFilesMissing)

	entry, err := f.svc.Generate(ctx, "42", client(), 10000, dates.Date(2024, time.March, 25))
	require.NoError(t, err)
	require.NoError(t, os.Remove(entry.PDFPath))

	_, err = f.svc.LastContract(ctx, "42")
	assert.True(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, service.ErrFilesMissing)
}
