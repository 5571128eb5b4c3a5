package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/service"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAccount(t *testing.T, s *SQLiteStorage, userID string) *model.Account {
	t.Helper()
	account := &model.Account{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     "Conta Corrente",
		Currency: "BRL",
	}
	require.NoError(t, s.CreateAccount(context.Background(), account))
	return account
}

func testTransaction(userID, accountID, fingerprint string) model.Transaction {
	return model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   accountID,
		OccurredAt:  time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
		Description: "UBER *TRIP",
		Amount:      decimal.RequireFromString("-15.90"),
		Currency:    "BRL",
		Fingerprint: fingerprint,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestAccountRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	account := seedAccount(t, s, "user-1")

	got, err := s.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "BRL", got.Currency)

	_, err = s.GetAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestImportBatchLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	batch := &model.ImportBatch{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		AccountID: "acct-1",
		Status:    model.ImportStatusUploaded,
		FileName:  "extrato-jan.pdf",
		FileKey:   "user-1/extrato-jan.pdf",
		FileSize:  2048,
	}
	require.NoError(t, s.CreateImportBatch(ctx, batch))

	got, err := s.GetImportBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusUploaded, got.Status)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.ProcessedAt)

	processedAt := time.Date(2025, time.February, 1, 10, 30, 0, 0, time.UTC)
	got.Status = model.ImportStatusDone
	got.ProcessedAt = &processedAt
	got.Summary = &model.ImportSummary{
		Layout: "checking",
		Period: model.SummaryPeriod{Start: "2025-01-02", End: "2025-01-07"},
		Counts: model.SummaryCounts{Parsed: 3, Inserted: 2, Deduped: 1},
		Totals: model.SummaryTotals{
			InAmount:  decimal.RequireFromString("250.00"),
			OutAmount: decimal.RequireFromString("-42.50"),
		},
	}
	require.NoError(t, s.UpdateImportBatch(ctx, got))

	reloaded, err := s.GetImportBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusDone, reloaded.Status)
	require.NotNil(t, reloaded.Summary)
	assert.Equal(t, "checking", reloaded.Summary.Layout)
	assert.Equal(t, 2, reloaded.Summary.Counts.Inserted)
	assert.True(t, reloaded.Summary.Totals.OutAmount.Equal(decimal.RequireFromString("-42.50")))
	require.NotNil(t, reloaded.ProcessedAt)
	assert.True(t, processedAt.Equal(*reloaded.ProcessedAt))

	_, err = s.GetImportBatch(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplaceRowAuditsReplacesWholesale(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	batch := &model.ImportBatch{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		AccountID: "acct-1",
		Status:    model.ImportStatusUploaded,
		FileName:  "f.pdf",
		FileKey:   "k",
	}
	require.NoError(t, s.CreateImportBatch(ctx, batch))

	first := []model.RowAudit{
		{Page: 1, LineIndex: 0, RawLine: "header", Status: model.AuditSkipped, Reason: model.ReasonHeaderFooter},
		{Page: 1, LineIndex: 1, RawLine: "02/01/2025 PIX R$ 10,00", Status: model.AuditParsed},
	}
	require.NoError(t, s.ReplaceRowAudits(ctx, batch.ID, first))

	second := []model.RowAudit{
		{Page: 1, LineIndex: 0, RawLine: "only line", Status: model.AuditError, Reason: model.ReasonBadDate, Message: "boom"},
	}
	require.NoError(t, s.ReplaceRowAudits(ctx, batch.ID, second))

	got, err := s.GetRowAudits(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, got, 1, "previous run's audits are gone")
	assert.Equal(t, model.AuditError, got[0].Status)
	assert.Equal(t, model.ReasonBadDate, got[0].Reason)
	assert.Equal(t, "boom", got[0].Message)
	assert.Equal(t, batch.ID, got[0].ImportID)
}

func TestInsertTransactionsAndFingerprints(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("user-1", "acct-1", "fp-1")
	txn.LegacyFingerprint = "legacy-1"

	result, err := s.InsertTransactions(ctx, []model.Transaction{txn})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)

	fps, err := s.GetUserFingerprints(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, fps, "fp-1")
	assert.Contains(t, fps, "legacy-1", "legacy hashes participate in dedup")

	other, err := s.GetUserFingerprints(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other, "fingerprint space is per user")
}

func TestInsertTransactionsUniqueViolation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.InsertTransactions(ctx, []model.Transaction{testTransaction("user-1", "acct-1", "fp-1")})
	require.NoError(t, err)

	conflicting := []model.Transaction{
		testTransaction("user-1", "acct-1", "fp-2"),
		testTransaction("user-1", "acct-1", "fp-1"),
	}
	_, err = s.InsertTransactions(ctx, conflicting)
	require.Error(t, err)
	var unique *service.ErrUniqueViolation
	require.ErrorAs(t, err, &unique)

	// The violating batch rolled back whole: fp-2 was not inserted.
	fps, err := s.GetUserFingerprints(ctx, "user-1")
	require.NoError(t, err)
	assert.NotContains(t, fps, "fp-2")

	// Same fingerprint under another user is fine.
	_, err = s.InsertTransactions(ctx, []model.Transaction{testTransaction("user-2", "acct-9", "fp-1")})
	assert.NoError(t, err)
}

func TestInsertTransactionsEmptyBatch(t *testing.T) {
	s := newTestStorage(t)
	result, err := s.InsertTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
}

func TestRuleOrderingAndScopes(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	category := &model.Category{UserID: "user-1", Name: "Transporte", IsActive: true}
	require.NoError(t, s.CreateCategory(ctx, category))
	require.NotZero(t, category.ID)

	minAmt := decimal.RequireFromString("10")
	acct := "acct-1"
	rules := []*model.CategoryRule{
		{UserID: "user-1", CategoryID: category.ID, Pattern: "uber", MatchType: model.MatchContains, Priority: 50, IsActive: true},
		{UserID: "user-1", CategoryID: category.ID, Pattern: "99app", MatchType: model.MatchContains, Priority: 10, IsActive: true, AccountID: &acct, MinAmount: &minAmt},
		{UserID: "user-1", CategoryID: category.ID, Pattern: "taxi", MatchType: model.MatchContains, Priority: 20, IsActive: false},
	}
	for _, r := range rules {
		require.NoError(t, s.CreateRule(ctx, r))
		require.NotZero(t, r.ID)
	}

	active, err := s.GetActiveRules(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "99app", active[0].Pattern, "priority ascending")
	assert.Equal(t, "uber", active[1].Pattern)
	require.NotNil(t, active[0].AccountID)
	assert.Equal(t, "acct-1", *active[0].AccountID)
	require.NotNil(t, active[0].MinAmount)
	assert.True(t, active[0].MinAmount.Equal(minAmt))
	assert.Nil(t, active[0].MaxAmount)

	all, err := s.ListRules(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	categories, err := s.GetCategories(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Transporte", categories[0].Name)
}

func TestListImportBatchIDsByStatus(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ids := []string{"imp-a", "imp-b", "imp-c"}
	for _, id := range ids {
		batch := &model.ImportBatch{
			ID:        id,
			UserID:    "user-1",
			AccountID: "acct-1",
			Status:    model.ImportStatusUploaded,
			FileName:  id + ".pdf",
			FileKey:   "user-1/" + id + ".pdf",
		}
		require.NoError(t, s.CreateImportBatch(ctx, batch))
	}

	done, err := s.GetImportBatch(ctx, "imp-b")
	require.NoError(t, err)
	done.Status = model.ImportStatusDone
	require.NoError(t, s.UpdateImportBatch(ctx, done))

	pending, err := s.ListImportBatchIDsByStatus(ctx, model.ImportStatusUploaded, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"imp-a", "imp-c"}, pending)

	limited, err := s.ListImportBatchIDsByStatus(ctx, model.ImportStatusUploaded, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"imp-a"}, limited)

	failed, err := s.ListImportBatchIDsByStatus(ctx, model.ImportStatusFailed, 10)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := &model.Category{UserID: "user-1", Name: "Mercado", IsActive: true}
	require.NoError(t, s.CreateCategory(ctx, first))

	dup := &model.Category{UserID: "user-1", Name: "Mercado", IsActive: true}
	err := s.CreateCategory(ctx, dup)
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	otherUser := &model.Category{UserID: "user-2", Name: "Mercado", IsActive: true}
	require.NoError(t, s.CreateCategory(ctx, otherUser))
}
