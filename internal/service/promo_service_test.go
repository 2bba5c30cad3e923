package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promo-data/internal/domain"
	"promo-data/internal/metrics"
	"promo-data/internal/repository"
	"promo-data/internal/sqlgen"
)

type fakeTickets struct {
	names map[string]string
	calls int
}

func (f *fakeTickets) Reporter(_ context.Context, ticket string) (string, error) {
	f.calls++
	if n, ok := f.names[ticket]; ok {
		return n, nil
	}
	return "", errors.New("not found")
}

func newPromoService(t *testing.T, tickets TicketLookup) (*PromoService, *repository.MemoryPromotionsRepo) {
	t.Helper()
	repo := repository.NewMemoryPromotionsRepo()
	uploads := repository.NewFileUploadStore(t.TempDir())
	svc := NewPromoService(repo, uploads, sqlgen.NewAssembler(sqlgen.DefaultOptions(), zap.NewNop()), tickets, metrics.New(), zap.NewNop())
	return svc, repo
}

func samplePromo(code string) *domain.PromotionRecord {
	rec := domain.NewPromotionRecord(code)
	rec.OperatorID = "16086"
	rec.BillFacingName = "Summer Trade"
	rec.PromoStartDate = "2025-07-01"
	rec.PromoEndDate = "2025-08-01"
	rec.Amount = "500"
	rec.SKUGroupID = domain.Text("SKU_" + code)
	return rec
}

func xlsxBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	path := writeXLSX(t, filepath.Join(t.TempDir(), "upload.xlsx"), 1, rows)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestPromoService_GetOrCreate(t *testing.T) {
	svc, _ := newPromoService(t, nil)
	ctx := context.Background()

	rec, created, err := svc.GetOrCreate(ctx, " P100 ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "P100", rec.Code)
	assert.Equal(t, domain.Text("*"), rec.MarketGroupID)

	require.NoError(t, svc.Save(ctx, rec, "jdoe"))
	again, created, err := svc.GetOrCreate(ctx, "P100")
	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, again.VersionHistory, 1)
	assert.True(t, strings.HasSuffix(again.VersionHistory[0], " - jdoe - Created promo."))

	_, _, err = svc.GetOrCreate(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, _, err = svc.GetOrCreate(ctx, "../etc")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestPromoService_GenerateSQL_CachesScript(t *testing.T) {
	svc, repo := newPromoService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, samplePromo("P200"), "jdoe"))

	sum, err := svc.StoreUpload(ctx, "P200", repository.UploadSKU, bytes.NewReader(xlsxBytes(t, [][]string{
		{"SKU", "Description"},
		{"190199", "iPhone 15 128GB"},
		{"SM-S928U", "Galaxy S24 Ultra"},
	})))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rows)

	res, err := svc.GenerateSQL(ctx, "P200")
	require.NoError(t, err)
	require.True(t, res.OK(), res.Script)
	assert.Contains(t, res.Script, "'SM-S928U'")
	assert.Contains(t, res.Script, "'000000190199'")

	stored, err := repo.GetPromotion(ctx, "P200")
	require.NoError(t, err)
	assert.Equal(t, res.Script, stored.GeneratedSQL)
}

func TestPromoService_GenerateSQL_ValidationFailure(t *testing.T) {
	svc, repo := newPromoService(t, nil)
	ctx := context.Background()
	rec := samplePromo("P300")
	rec.TradeInTiers[0].Amount = "100"
	rec.PricingTiers[0].Amount = "50"
	require.NoError(t, svc.Save(ctx, rec, "jdoe"))

	res, err := svc.GenerateSQL(ctx, "P300")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, sqlgen.ErrMutualExclusion)
	assert.True(t, strings.HasPrefix(res.Script, "-- ERROR:"))
	assert.NotContains(t, res.Script, "INSERT")

	stored, err := repo.GetPromotion(ctx, "P300")
	require.NoError(t, err)
	assert.Empty(t, stored.GeneratedSQL)
}

func TestPromoService_GenerateSQL_UnknownPromo(t *testing.T) {
	svc, _ := newPromoService(t, nil)
	_, err := svc.GenerateSQL(context.Background(), "NOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPromoService_GenerateSQL_TicketReporter(t *testing.T) {
	tickets := &fakeTickets{names: map[string]string{"RDC-42": "Pat Lee"}}
	svc, _ := newPromoService(t, tickets)
	ctx := context.Background()

	rec := samplePromo("P400")
	rec.TicketID = "RDC-42"
	require.NoError(t, svc.Save(ctx, rec, "jdoe"))
	res, err := svc.GenerateSQL(ctx, "P400")
	require.NoError(t, err)
	assert.Contains(t, res.Script, "-- Requested by : Pat Lee\n")

	// 查不到时回退到表单
	rec2 := samplePromo("P401")
	rec2.TicketID = "RDC-43"
	rec2.RequesterName = "Form User"
	require.NoError(t, svc.Save(ctx, rec2, "jdoe"))
	res, err = svc.GenerateSQL(ctx, "P401")
	require.NoError(t, err)
	assert.Contains(t, res.Script, "-- Requested by : Form User\n")
	assert.Equal(t, 2, tickets.calls)
}

func TestPromoService_StoreUpload_Rejects(t *testing.T) {
	svc, _ := newPromoService(t, nil)
	ctx := context.Background()

	_, err := svc.StoreUpload(ctx, "P500", repository.UploadSKU, strings.NewReader("not a workbook"))
	assert.Error(t, err)

	_, err = svc.StoreUpload(ctx, "P500", "pdf", bytes.NewReader(xlsxBytes(t, [][]string{{"a", "b"}})))
	assert.Error(t, err)

	// trade-in 清单必须有 MAKE / MODEL 表头
	_, err = svc.StoreUpload(ctx, "P500", repository.UploadTradeIn, bytes.NewReader(xlsxBytes(t, [][]string{{"foo", "bar"}})))
	assert.True(t, sqlgen.IsValidationError(err), fmt.Sprint(err))

	sum, err := svc.StoreUpload(ctx, "P500", repository.UploadTradeIn, bytes.NewReader(xlsxBytes(t, [][]string{
		{"MAKE", "MODEL"},
		{"Apple", "iPhone 12"},
		{"Samsung", "Galaxy S21"},
	})))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rows)
}

func TestPromoService_ListDelete(t *testing.T) {
	svc, _ := newPromoService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, samplePromo("A1"), "u"))
	require.NoError(t, svc.Save(ctx, samplePromo("B2"), "u"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, "A1"))
	assert.ErrorIs(t, svc.Delete(ctx, "A1"), repository.ErrNotFound)
}
