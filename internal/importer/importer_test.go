package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/dedup"
	"github.com/bibikovilya/prior-import/internal/models"
	"github.com/bibikovilya/prior-import/internal/textutils"
)

const statementFixture = `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
31.01.2024 00:00:00,Поступление на контракт клиента 749114-00081-032913  ,"900,00",BYN,25.01.2024,"0,00","900,00",,,
Всего по контракту,Зачислено,Списано,Комиссия/Money-back,Изменение баланса,

Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
01.02.2024 14:44:55,Retail BLR Minsk Gipermarket Gippo  ,"-1,99",BYN,01.02.2024,"0,00","-1,99",,Магазины продуктовые,
31.01.2024 12:00:00,ATM BLR MINSK UL.LENINA 5  ,"-50,00",BYN,31.01.2024,"0,00","-50,00",,Снятие наличных,
not a date,broken line,"-1,00",BYN,31.01.2024
Всего по контракту,Зачислено,Списано,Комиссия/Money-back,Изменение баланса,
`

// fakeBackend implements the resolver, notes-source and persister boundaries
// in memory, remembering the notes of everything it persisted.
type fakeBackend struct {
	nextID    int64
	persisted map[string]struct{}
	batches   int
	lastRec   ImportRecord
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{persisted: make(map[string]struct{})}
}

func (f *fakeBackend) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeBackend) ResolveAccount(_ context.Context, label string) (models.Account, error) {
	return models.Account{ID: f.id(), Name: label}, nil
}

func (f *fakeBackend) ResolveCategory(_ context.Context, label string) (models.Category, error) {
	if label == "" {
		return models.Category{}, nil
	}
	return models.Category{ID: f.id(), Name: label}, nil
}

func (f *fakeBackend) ResolveTag(_ context.Context, label string) (models.Tag, bool, error) {
	if label == "" {
		return models.Tag{}, false, nil
	}
	return models.Tag{ID: f.id(), Name: label}, true, nil
}

func (f *fakeBackend) FindOrCreateCashAccount(_ context.Context, currency string) (models.Account, error) {
	return models.Account{ID: f.id(), Name: "Cash " + currency, Currency: currency, IsCash: true}, nil
}

func (f *fakeBackend) PriorImportNotes(_ context.Context, _ dedup.Scope) (map[string]struct{}, error) {
	notes := make(map[string]struct{}, len(f.persisted))
	for n := range f.persisted {
		notes[n] = struct{}{}
	}
	return notes, nil
}

func (f *fakeBackend) ApplyBatch(_ context.Context, rec ImportRecord, intents []models.LedgerEntryIntent) error {
	f.batches++
	f.lastRec = rec
	for _, intent := range intents {
		if intent.IsTransfer() {
			f.remember(intent.Transfer.Outflow)
			f.remember(intent.Transfer.Inflow)
			continue
		}
		f.remember(*intent.Transaction)
	}
	return nil
}

func (f *fakeBackend) remember(tx models.TransactionIntent) {
	note := textutils.CleanNote(tx.Entry.Notes)
	if note != "" {
		f.persisted[note] = struct{}{}
	}
}

func TestRun_Report(t *testing.T) {
	backend := newFakeBackend()
	imp := New(backend, backend, nil)

	report, err := imp.Run(context.Background(), strings.NewReader(statementFixture), Options{
		Format: config.PriorDefault(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ImportID)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 3, report.Accepted)
	assert.Equal(t, 0, report.Duplicates)
	require.Len(t, report.Rejections, 1)
	require.Len(t, report.Intents, 3)

	assert.Equal(t, "900", report.Inflow.String())
	assert.Equal(t, "51.99", report.Outflow.String())

	// The ATM row became the only transfer.
	transfers := 0
	for _, intent := range report.Intents {
		if intent.IsTransfer() {
			transfers++
		}
	}
	assert.Equal(t, 1, transfers)
}

func TestRun_InvalidFormatRejected(t *testing.T) {
	backend := newFakeBackend()
	imp := New(backend, backend, nil)

	_, err := imp.Run(context.Background(), strings.NewReader("whatever"), Options{
		Format: config.StatementFormat{Name: "broken"},
	})
	assert.Error(t, err)
}

func TestRun_PinnedAccount(t *testing.T) {
	backend := newFakeBackend()
	imp := New(backend, backend, nil)

	report, err := imp.Run(context.Background(), strings.NewReader(statementFixture), Options{
		Format:             config.PriorDefault(),
		PinnedAccountLabel: "Prior Gold",
	})
	require.NoError(t, err)
	require.Len(t, report.Intents, 3)

	for _, intent := range report.Intents {
		if intent.IsTransfer() {
			assert.Equal(t, "Prior Gold", intent.Transfer.Outflow.Entry.Account.Name)
			continue
		}
		assert.Equal(t, "Prior Gold", intent.Transaction.Entry.Account.Name)
	}
}

func TestRunAndPersist_ReimportIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	imp := New(backend, backend, nil)

	first, err := imp.RunAndPersist(context.Background(), strings.NewReader(statementFixture), Options{
		Format:     config.PriorDefault(),
		SourceName: "statement.csv",
	}, backend)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Accepted)
	assert.Equal(t, 1, backend.batches)
	assert.Equal(t, ImportKind, backend.lastRec.Kind)
	assert.Equal(t, "statement.csv", backend.lastRec.Source)

	second, err := imp.RunAndPersist(context.Background(), strings.NewReader(statementFixture), Options{
		Format: config.PriorDefault(),
	}, backend)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Accepted)
	assert.Equal(t, 3, second.Duplicates)
	assert.Empty(t, second.Intents)
}
