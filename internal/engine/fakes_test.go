package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lbarros/extratoflow/internal/common"
	"github.com/lbarros/extratoflow/internal/model"
	"github.com/lbarros/extratoflow/internal/service"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeStorage is an in-memory service.Storage with the same insert semantics
// as the SQLite layer: a fingerprint conflict rolls back the whole batch.
type fakeStorage struct {
	accounts      map[string]*model.Account
	batches       map[string]*model.ImportBatch
	audits        map[string][]model.RowAudit
	rules         map[string][]model.CategoryRule
	transactions  []model.Transaction
	statusHistory []model.ImportStatus

	// onInsert runs before each InsertTransactions call; tests use it to
	// simulate a concurrent writer.
	onInsert func()
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		accounts: make(map[string]*model.Account),
		batches:  make(map[string]*model.ImportBatch),
		audits:   make(map[string][]model.RowAudit),
		rules:    make(map[string][]model.CategoryRule),
	}
}

func (f *fakeStorage) GetAccount(_ context.Context, accountID string) (*model.Account, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, accountID)
	}
	copied := *account
	return &copied, nil
}

func (f *fakeStorage) GetImportBatch(_ context.Context, importID string) (*model.ImportBatch, error) {
	batch, ok := f.batches[importID]
	if !ok {
		return nil, fmt.Errorf("%w: import batch %s", common.ErrNotFound, importID)
	}
	copied := *batch
	return &copied, nil
}

func (f *fakeStorage) CreateImportBatch(_ context.Context, batch *model.ImportBatch) error {
	copied := *batch
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeStorage) UpdateImportBatch(_ context.Context, batch *model.ImportBatch) error {
	if _, ok := f.batches[batch.ID]; !ok {
		return fmt.Errorf("%w: import batch %s", common.ErrNotFound, batch.ID)
	}
	copied := *batch
	f.batches[batch.ID] = &copied
	f.statusHistory = append(f.statusHistory, batch.Status)
	return nil
}

func (f *fakeStorage) ReplaceRowAudits(_ context.Context, importID string, audits []model.RowAudit) error {
	f.audits[importID] = append([]model.RowAudit(nil), audits...)
	return nil
}

func (f *fakeStorage) InsertTransactions(_ context.Context, transactions []model.Transaction) (service.InsertResult, error) {
	if f.onInsert != nil {
		f.onInsert()
	}
	existing := f.fingerprintSet()
	for _, txn := range transactions {
		if _, dup := existing[txn.UserID+"|"+txn.Fingerprint]; dup {
			return service.InsertResult{}, &service.ErrUniqueViolation{
				Err: errors.New("UNIQUE constraint failed: transactions.user_id, transactions.fingerprint"),
			}
		}
		existing[txn.UserID+"|"+txn.Fingerprint] = struct{}{}
	}
	f.transactions = append(f.transactions, transactions...)
	return service.InsertResult{Inserted: len(transactions)}, nil
}

func (f *fakeStorage) fingerprintSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.transactions))
	for _, txn := range f.transactions {
		set[txn.UserID+"|"+txn.Fingerprint] = struct{}{}
	}
	return set
}

func (f *fakeStorage) GetUserFingerprints(_ context.Context, userID string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, txn := range f.transactions {
		if txn.UserID != userID {
			continue
		}
		set[txn.Fingerprint] = struct{}{}
		if txn.LegacyFingerprint != "" {
			set[txn.LegacyFingerprint] = struct{}{}
		}
	}
	return set, nil
}

func (f *fakeStorage) GetActiveRules(_ context.Context, userID string) ([]model.CategoryRule, error) {
	var active []model.CategoryRule
	for _, r := range f.rules[userID] {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (f *fakeStorage) CreateRule(_ context.Context, rule *model.CategoryRule) error {
	f.rules[rule.UserID] = append(f.rules[rule.UserID], *rule)
	return nil
}

func (f *fakeStorage) ListRules(_ context.Context, userID string) ([]model.CategoryRule, error) {
	return f.rules[userID], nil
}

func (f *fakeStorage) GetCategories(_ context.Context, _ string) ([]model.Category, error) {
	return nil, nil
}

func (f *fakeStorage) CreateCategory(_ context.Context, _ *model.Category) error { return nil }
func (f *fakeStorage) CreateAccount(_ context.Context, account *model.Account) error {
	copied := *account
	f.accounts[account.ID] = &copied
	return nil
}
func (f *fakeStorage) Migrate(_ context.Context) error { return nil }
func (f *fakeStorage) Close() error                    { return nil }

type fakeBlobStore struct {
	files map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{files: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(_ context.Context, key string, data []byte, _ string) error {
	f.files[key] = data
	return nil
}

func (f *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

// fakeExtractor ignores the file bytes and returns canned pages, or an error.
type fakeExtractor struct {
	pages []service.Page
	err   error
	calls int
}

func (f *fakeExtractor) ExtractPages(_ context.Context, _ []byte) ([]service.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type enqueuedJob struct {
	kind   string
	userID string
	year   int
	month  time.Month
}

type fakePublisher struct {
	jobs []enqueuedJob
}

func (f *fakePublisher) EnqueueGenerateAlerts(_ context.Context, userID string, year int, month time.Month) error {
	f.jobs = append(f.jobs, enqueuedJob{kind: "alerts", userID: userID, year: year, month: month})
	return nil
}

func (f *fakePublisher) EnqueueComputeForecast(_ context.Context, userID string, year int, month time.Month) error {
	f.jobs = append(f.jobs, enqueuedJob{kind: "forecast", userID: userID, year: year, month: month})
	return nil
}
