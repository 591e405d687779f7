package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibikovilya/prior-import/internal/config"
)

const statementFixture = `Выписка по контракту
Период выписки:,01.01.2024-01.02.2024,
Номер контракта:,......9090 Валюта контракта BYN,

Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Комиссия/Money-back,Обороты по счету,Цифровая карта,Категория операции,
01.02.2024 14:44:55,Retail BLR Minsk Gipermarket Gippo  ,"-1,99",BYN,01.02.2024,"0,00","-1,99",,Магазины продуктовые,
31.01.2024 14:10:59,Retail BLR MINSK MOBILE BANK  ,"-60,19",BYN,31.01.2024,"0,00","-60,19",,Денежные переводы,
Всего по контракту,Зачислено,Списано,Комиссия/Money-back,Изменение баланса,
,"199,00","8 699,11","0,00","-8 500,11",
`

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	return New(config.PriorDefault(), nil)
}

func TestScan_SingleSection(t *testing.T) {
	doc, err := newScanner(t).Scan(strings.NewReader(statementFixture))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	section := doc.Sections[0]
	assert.Equal(t, "Операции по ........5333", section.Header)
	require.Len(t, section.Lines, 2)
	assert.Contains(t, section.Lines[0].Text, "Gipermarket Gippo")
	assert.Contains(t, section.Lines[1].Text, "MOBILE BANK")
	assert.Contains(t, doc.Header, "Дата транзакции,Операция,Сумма")
}

func TestScan_MultipleSections(t *testing.T) {
	input := `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Категория операции
31.01.2024 00:00:00,Поступление на контракт клиента  ,"900,00",BYN,,
Всего по контракту,Зачислено,Списано,

Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Категория операции
01.02.2024 14:44:55,Retail BLR Minsk Gipermarket Gippo  ,"-1,99",BYN,Магазины продуктовые
Всего по контракту,Зачислено,Списано,
`
	doc, err := newScanner(t).Scan(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Операции по ........9090", doc.Sections[0].Header)
	assert.Equal(t, "Операции по ........5333", doc.Sections[1].Header)
	assert.Len(t, doc.Sections[0].Lines, 1)
	assert.Len(t, doc.Sections[1].Lines, 1)
}

func TestScan_CanonicalHeaderIsFirstOccurrence(t *testing.T) {
	input := `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Категория операции
Всего по контракту,

Операции по ........5333
Дата транзакции,Операция,Сумма,Валюта,Дата операции по счету,Категория операции
Всего по контракту,
`
	doc, err := newScanner(t).Scan(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Дата транзакции,Операция,Сумма,Валюта,Категория операции", doc.Header)
}

func TestScan_SectionWithoutHeaderDiscarded(t *testing.T) {
	input := `Операции по ........9090
31.01.2024 00:00:00,Поступление  ,"900,00",BYN,
Всего по контракту,Зачислено,
`
	doc, err := newScanner(t).Scan(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
}

func TestScan_EmptySectionFlushedOnTerminator(t *testing.T) {
	input := `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Категория операции
Всего по контракту,Зачислено,
`
	doc, err := newScanner(t).Scan(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Empty(t, doc.Sections[0].Lines)
}

func TestScan_UnterminatedSectionDiscarded(t *testing.T) {
	input := `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Категория операции
31.01.2024 00:00:00,Поступление  ,"900,00",BYN,
`
	doc, err := newScanner(t).Scan(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
}

func TestScan_SkipsBlankAndNonSeparatorLines(t *testing.T) {
	input := `Операции по ........9090
Дата транзакции,Операция,Сумма,Валюта,Категория операции
31.01.2024 00:00:00,Поступление  ,"900,00",BYN,

расшифровка операций
01.02.2024 14:44:55,Retail  ,"-1,99",BYN,
Всего по контракту,Зачислено,
`
	doc, err := newScanner(t).Scan(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Len(t, doc.Sections[0].Lines, 2)
}

func TestScan_LinePreservesSourceOrder(t *testing.T) {
	doc, err := newScanner(t).Scan(strings.NewReader(statementFixture))
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	lines := doc.Sections[0].Lines
	require.Len(t, lines, 2)
	assert.Less(t, lines[0].Number, lines[1].Number)
}
