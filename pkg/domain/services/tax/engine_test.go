package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	eur = &entities.Currency{ID: 1, Name: "EUR", Symbol: "€", Rounding: d("0.01")}
	usd = &entities.Currency{ID: 2, Name: "USD", Symbol: "$", Rounding: d("0.01")}

	perLineCompany = &entities.Company{ID: 1, Name: "YourCompany", Currency: eur, TaxRounding: entities.RoundPerLine}
	globalCompany  = &entities.Company{ID: 2, Name: "GlobalCo", Currency: eur, TaxRounding: entities.RoundGlobally}
)

func percent(id int64, amount string) *entities.Tax {
	return &entities.Tax{ID: id, Name: amount + "%", Sequence: 10, AmountType: entities.TaxPercent, Amount: d(amount)}
}

func TestEngine_AddTaxDetails(t *testing.T) {
	vatIncluded := percent(2, "20")
	vatIncluded.PriceInclude = true

	ecoFee := &entities.Tax{ID: 3, Name: "Eco fee", Sequence: 1, AmountType: entities.TaxFixed, Amount: d("1"), IncludeBaseAmount: true}
	division := &entities.Tax{ID: 4, Name: "Division 10%", Sequence: 10, AmountType: entities.TaxDivision, Amount: d("10")}

	tests := []struct {
		name             string
		line             BaseLine
		expectedExcluded string
		expectedIncluded string
	}{
		{
			name:             "zero_percent_tax",
			line:             BaseLine{Taxes: entities.TaxSet{percent(1, "0")}, Quantity: d("10"), PriceUnit: d("100"), Currency: eur},
			expectedExcluded: "1000",
			expectedIncluded: "1000",
		},
		{
			name:             "no_taxes",
			line:             BaseLine{Quantity: d("3"), PriceUnit: d("12.5"), Currency: eur},
			expectedExcluded: "37.5",
			expectedIncluded: "37.5",
		},
		{
			name:             "excluded_percent",
			line:             BaseLine{Taxes: entities.TaxSet{percent(1, "20")}, Quantity: d("2"), PriceUnit: d("100"), Currency: eur},
			expectedExcluded: "200",
			expectedIncluded: "240",
		},
		{
			name:             "discount",
			line:             BaseLine{Taxes: entities.TaxSet{percent(1, "20")}, Quantity: d("1"), PriceUnit: d("100"), Discount: d("10"), Currency: eur},
			expectedExcluded: "90",
			expectedIncluded: "108",
		},
		{
			name:             "price_included_percent",
			line:             BaseLine{Taxes: entities.TaxSet{vatIncluded}, Quantity: d("1"), PriceUnit: d("120"), Currency: eur},
			expectedExcluded: "100",
			expectedIncluded: "120",
		},
		{
			name:             "fixed_affects_next_base",
			line:             BaseLine{Taxes: entities.TaxSet{percent(1, "20"), ecoFee}, Quantity: d("1"), PriceUnit: d("10"), Currency: eur},
			expectedExcluded: "10",
			expectedIncluded: "13.2",
		},
		{
			name:             "division",
			line:             BaseLine{Taxes: entities.TaxSet{division}, Quantity: d("1"), PriceUnit: d("90"), Currency: eur},
			expectedExcluded: "90",
			expectedIncluded: "100",
		},
	}

	engine := NewEngine(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.line
			require.NoError(t, engine.AddTaxDetails(&line, perLineCompany))
			require.NotNil(t, line.TaxDetails)

			assert.True(t, line.TaxDetails.RawTotalExcludedCurrency.Equal(d(tt.expectedExcluded)),
				"excluded = %s, want %s", line.TaxDetails.RawTotalExcludedCurrency, tt.expectedExcluded)
			assert.True(t, line.TaxDetails.RawTotalIncludedCurrency.Equal(d(tt.expectedIncluded)),
				"included = %s, want %s", line.TaxDetails.RawTotalIncludedCurrency, tt.expectedIncluded)
		})
	}
}

func TestEngine_AddTaxDetails_CurrencyRate(t *testing.T) {
	engine := NewEngine(nil)
	line := &BaseLine{Taxes: entities.TaxSet{percent(1, "10")}, Quantity: d("1"), PriceUnit: d("200"), Currency: usd, Rate: d("2")}

	require.NoError(t, engine.AddTaxDetails(line, perLineCompany))
	assert.True(t, line.TaxDetails.RawTotalExcludedCurrency.Equal(d("200")))
	assert.True(t, line.TaxDetails.RawTotalExcluded.Equal(d("100")))
	assert.True(t, line.TaxDetails.RawTotalIncluded.Equal(d("110")))
}

func TestEngine_AddTaxDetails_FallsBackToCompanyCurrency(t *testing.T) {
	engine := NewEngine(nil)
	line := &BaseLine{Quantity: d("1"), PriceUnit: d("5")}

	require.NoError(t, engine.AddTaxDetails(line, perLineCompany))
	assert.Equal(t, eur, line.Currency)
}

func TestEngine_AddTaxDetails_Errors(t *testing.T) {
	engine := NewEngine(nil)

	broken := &entities.Currency{ID: 9, Name: "XXX", Rounding: d("-1")}
	err := engine.AddTaxDetails(&BaseLine{Quantity: d("1"), PriceUnit: d("1"), Currency: broken}, perLineCompany)
	assert.ErrorIs(t, err, entities.ErrInvalidCurrency)

	full := &entities.Tax{ID: 5, Name: "Full division", AmountType: entities.TaxDivision, Amount: d("100")}
	err = engine.AddTaxDetails(&BaseLine{Taxes: entities.TaxSet{full}, Quantity: d("1"), PriceUnit: d("1"), Currency: eur}, perLineCompany)
	assert.ErrorIs(t, err, ErrInvalidTax)
}

func smallLines() []*BaseLine {
	vat := percent(1, "10")
	lines := make([]*BaseLine, 3)
	for i := range lines {
		lines[i] = &BaseLine{MoveID: int64(i + 1), Taxes: entities.TaxSet{vat}, Quantity: d("1"), PriceUnit: d("0.25"), Currency: eur}
	}
	return lines
}

func TestEngine_RoundTaxDetails_PerLine(t *testing.T) {
	engine := NewEngine(nil)
	lines := smallLines()

	require.NoError(t, engine.AddTaxDetailsBatch(lines, perLineCompany))
	require.NoError(t, engine.RoundTaxDetails(lines, perLineCompany))

	for _, line := range lines {
		assert.True(t, line.TaxDetails.Taxes[0].TaxAmountCurrency.Equal(d("0.03")))
		assert.True(t, line.TaxDetails.TotalIncludedCurrency.Equal(d("0.28")))
	}
}

func TestEngine_RoundTaxDetails_Globally(t *testing.T) {
	engine := NewEngine(nil)
	lines := smallLines()

	require.NoError(t, engine.AddTaxDetailsBatch(lines, globalCompany))
	require.NoError(t, engine.RoundTaxDetails(lines, globalCompany))

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(SumTaxes(line.TaxDetails))
	}
	assert.True(t, total.Equal(d("0.08")), "global tax total = %s", total)
	assert.True(t, lines[0].TaxDetails.Taxes[0].TaxAmountCurrency.Equal(d("0.02")), "delta lands on the first largest line")
	assert.True(t, lines[1].TaxDetails.Taxes[0].TaxAmountCurrency.Equal(d("0.03")))
}

func TestEngine_TotalsSummary(t *testing.T) {
	engine := NewEngine(nil)
	vat20 := percent(1, "20")
	vat20.Group = "VAT"
	vat10 := percent(2, "10")
	vat10.Group = "VAT"
	eco := &entities.Tax{ID: 3, Name: "Eco", Sequence: 20, AmountType: entities.TaxFixed, Amount: d("0.5"), Group: "Eco"}

	lines := []*BaseLine{
		{MoveID: 1, Taxes: entities.TaxSet{vat20, eco}, Quantity: d("2"), PriceUnit: d("50"), Currency: eur},
		{MoveID: 2, Taxes: entities.TaxSet{vat10}, Quantity: d("1"), PriceUnit: d("30"), Currency: eur},
		{MoveID: 3, Quantity: d("4"), PriceUnit: d("0"), Currency: eur},
	}

	totals, err := engine.TotalsSummary(lines, eur, perLineCompany)
	require.NoError(t, err)

	assert.Equal(t, "EUR", totals.CurrencyName)
	assert.True(t, totals.BaseAmountCurrency.Equal(d("130")), "base = %s", totals.BaseAmountCurrency)
	assert.True(t, totals.TaxAmountCurrency.Equal(d("24")), "tax = %s", totals.TaxAmountCurrency)
	assert.True(t, totals.TotalAmountCurrency.Equal(totals.BaseAmountCurrency.Add(totals.TaxAmountCurrency)))
	assert.False(t, totals.SameTaxBase)

	require.Len(t, totals.Subtotals, 1)
	subtotal := totals.Subtotals[0]
	assert.Equal(t, UntaxedAmountLabel, subtotal.Name)
	require.Len(t, subtotal.TaxGroups, 2)
	assert.Equal(t, "VAT", subtotal.TaxGroups[0].GroupName)
	assert.True(t, subtotal.TaxGroups[0].BaseAmountCurrency.Equal(d("130")))
	assert.True(t, subtotal.TaxGroups[0].TaxAmountCurrency.Equal(d("23")))
	assert.Equal(t, "Eco", subtotal.TaxGroups[1].GroupName)
	assert.True(t, subtotal.TaxGroups[1].TaxAmountCurrency.Equal(d("1")))
}

func TestEngine_TotalsSummary_InvalidCurrency(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.TotalsSummary(nil, nil, perLineCompany)
	assert.ErrorIs(t, err, entities.ErrInvalidCurrency)
}
