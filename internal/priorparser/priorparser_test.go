package priorparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/currencyutils"
	"github.com/bibikovilya/prior-import/internal/models"
	"github.com/bibikovilya/prior-import/internal/parsererror"
	"github.com/bibikovilya/prior-import/internal/scanner"
)

const statementFixture = `Выписка по контракту
Период выписки:,01.01.2024-01.02.2024,
Дата выписки:,06.08.2024 21:52:11,
Номер контракта:,......9090 Валюта контракта BYN,
Карта:,........5333 VISA GOLD ,

Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
01.02.2024 14:44:55,Retail BLR Minsk Gipermarket Gippo  ,"-1,99",BYN,01.02.2024,"0,00","-1,99",,Магазины продуктовые,
31.01.2024 14:10:59,Retail BLR MINSK MOBILE BANK  ,"-60,19",BYN,31.01.2024,"0,00","-60,19",,Денежные переводы,
31.01.2024 13:50:42,CH Debit BLR MINSK P2P SDBO NO FEE  ,"-20,00",BYN,31.01.2024,"0,00","-20,00",,Переводы с карты на карту,
Всего по контракту,Зачислено,Списано,Комиссия/Money-back,Изменение баланса,
,"199,00","8 699,11","0,00","-8 500,11",
`

const twoSectionFixture = `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
31.01.2024 00:00:00,Поступление на контракт клиента 749114-00081-032913  ,"900,00",BYN,25.01.2024,"0,00","900,00",,,
Всего по контракту,Зачислено,Списано,Комиссия/Money-back,Изменение баланса,

Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
01.02.2024 14:44:55,Retail BLR Minsk Gipermarket Gippo  ,"-1,99",BYN,01.02.2024,"0,00","-1,99",,Магазины продуктовые,
Всего по контракту,Зачислено,Списано,Комиссия/Money-back,Изменение баланса,
`

func acceptedRows(results []models.RowResult) []models.ClassifiedRow {
	var rows []models.ClassifiedRow
	for _, res := range results {
		if res.Accepted() {
			rows = append(rows, *res.Row)
		}
	}
	return rows
}

func TestParse_Statement(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	results, err := parser.Parse(strings.NewReader(statementFixture))
	require.NoError(t, err)

	rows := acceptedRows(results)
	require.Len(t, rows, 3)

	gippo := rows[0]
	assert.Equal(t, "01.02.2024", gippo.Date.Format("02.01.2006"))
	assert.Equal(t, "-1.99", currencyutils.FormatStatementAmount(gippo.Amount, false))
	assert.Equal(t, "Retail BLR Minsk Gipermarket Gippo", gippo.Name)
	assert.Equal(t, "BYN", gippo.Currency)
	assert.Equal(t, "Магазины продуктовые", gippo.Category)
	assert.Equal(t, "****5333", gippo.Account)
	assert.Equal(t, "Retail BLR Minsk Gipermarket Gippo", gippo.Notes)
	assert.False(t, gippo.IsCashWithdrawal)
}

func TestParse_MultipleCardSections(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	results, err := parser.Parse(strings.NewReader(twoSectionFixture))
	require.NoError(t, err)

	rows := acceptedRows(results)
	require.Len(t, rows, 2)

	income := rows[0]
	assert.Equal(t, "****9090", income.Account)
	assert.Equal(t, "900.00", currencyutils.FormatStatementAmount(income.Amount, false))

	expense := rows[1]
	assert.Equal(t, "****5333", expense.Account)
	assert.Equal(t, "-1.99", currencyutils.FormatStatementAmount(expense.Amount, false))
}

func TestParse_QuotedFieldWithEmbeddedComma(t *testing.T) {
	input := `Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
01.02.2024 14:44:55,"Retail BLR Minsk, Gipermarket Gippo","-1,99",BYN,01.02.2024,"0,00","-1,99",,Магазины продуктовые,
Всего по контракту,Зачислено,
`
	parser := New(config.PriorDefault(), nil)
	results, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)

	rows := acceptedRows(results)
	require.Len(t, rows, 1)
	assert.Equal(t, "Retail BLR Minsk, Gipermarket Gippo", rows[0].Name)
	assert.Equal(t, "Магазины продуктовые", rows[0].Category)
}

func TestParse_InvalidFormat(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	_, err := parser.Parse(strings.NewReader("Date,Amount\n2024-01-01,5.00\n"))
	require.Error(t, err)

	var formatErr *parsererror.InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseSection_RejectionReasons(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	section := scanner.StatementSection{
		Header: "Операции по ........5333",
		Lines: []scanner.RawLine{
			{Number: 1, Text: `01.02.2024 14:44:55,Retail  ,"-1,99",BYN,01.02.2024,"0,00","-1,99",,,`},
			{Number: 2, Text: `too,few,fields`},
			{Number: 3, Text: `,Retail  ,"-1,99",BYN,01.02.2024,"0,00"`},
			{Number: 4, Text: `not a date,Retail  ,"-1,99",BYN,01.02.2024,"0,00"`},
			{Number: 5, Text: `01.02.2024,Retail  ,abcdef,BYN,01.02.2024,"0,00"`},
		},
	}

	results := parser.ParseSection(section)
	require.Len(t, results, 5)

	assert.True(t, results[0].Accepted())
	assert.Equal(t, parsererror.RejectTooFewFields, results[1].Rejected.Reason)
	assert.Equal(t, parsererror.RejectBlankField, results[2].Rejected.Reason)
	assert.Equal(t, parsererror.RejectBadDate, results[3].Rejected.Reason)
	assert.Equal(t, parsererror.RejectBadAmount, results[4].Rejected.Reason)
}

func TestParseSection_FieldIndexPastEndIsEmpty(t *testing.T) {
	// The category column (index 8) is absent from short lines; that is not
	// an error, the category is just empty.
	parser := New(config.PriorDefault(), nil)
	section := scanner.StatementSection{
		Header: "Операции по ........5333",
		Lines: []scanner.RawLine{
			{Number: 1, Text: `01.02.2024 14:44:55,Retail  ,"-1,99",BYN,01.02.2024`},
		},
	}

	results := parser.ParseSection(section)
	require.Len(t, results, 1)
	require.True(t, results[0].Accepted())
	assert.Equal(t, "", results[0].Row.Category)
}

func TestParseSection_DefaultsForBlankNameAndCurrency(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	section := scanner.StatementSection{
		Header: "Операции по ........5333",
		Lines: []scanner.RawLine{
			{Number: 1, Text: `01.02.2024 14:44:55,,"-1,99",,01.02.2024`},
		},
	}

	results := parser.ParseSection(section)
	require.Len(t, results, 1)
	require.True(t, results[0].Accepted())
	assert.Equal(t, "Банковская операция", results[0].Row.Name)
	assert.Equal(t, "BYN", results[0].Row.Currency)
}

func TestParseSection_UnknownAccountSentinel(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	section := scanner.StatementSection{
		Header: "Операции по карте",
		Lines: []scanner.RawLine{
			{Number: 1, Text: `01.02.2024 14:44:55,Retail  ,"-1,99",BYN,01.02.2024`},
		},
	}

	results := parser.ParseSection(section)
	require.Len(t, results, 1)
	require.True(t, results[0].Accepted())
	assert.Equal(t, models.UnknownAccount, results[0].Row.Account)
}

func TestClassify_WithdrawalMarker(t *testing.T) {
	parser := New(config.PriorDefault(), nil)
	section := scanner.StatementSection{
		Header: "Операции по ........5333",
		Lines: []scanner.RawLine{
			{Number: 1, Text: `31.01.2024 12:00:00,ATM BLR MINSK UL.LENINA 5  ,"-50,00",BYN,31.01.2024,"0,00","-50,00",,Снятие наличных,`},
			{Number: 2, Text: `01.02.2024 14:44:55,Retail BLR Minsk Gipermarket Gippo  ,"-1,99",BYN,01.02.2024,"0,00","-1,99",,Магазины продуктовые,`},
		},
	}

	results := parser.ParseSection(section)
	require.Len(t, results, 2)
	require.True(t, results[0].Accepted())
	require.True(t, results[1].Accepted())
	assert.True(t, results[0].Row.IsCashWithdrawal)
	assert.False(t, results[1].Row.IsCashWithdrawal)
}

func TestClassify_NeverFlagsWhenNotesNotPopulated(t *testing.T) {
	format := config.PriorDefault()
	format.PopulateNotes = false
	parser := New(format, nil)
	section := scanner.StatementSection{
		Header: "Операции по ........5333",
		Lines: []scanner.RawLine{
			{Number: 1, Text: `31.01.2024 12:00:00,ATM BLR MINSK UL.LENINA 5  ,"-50,00",BYN,31.01.2024`},
		},
	}

	results := parser.ParseSection(section)
	require.Len(t, results, 1)
	require.True(t, results[0].Accepted())
	assert.Empty(t, results[0].Row.Notes)
	assert.False(t, results[0].Row.IsCashWithdrawal)
}
