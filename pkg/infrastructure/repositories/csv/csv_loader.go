package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// Scenario file names inside a scenario directory
const (
	CurrenciesFile  = "currencies.csv"
	CompaniesFile   = "companies.csv"
	PartnersFile    = "partners.csv"
	UoMsFile        = "uoms.csv"
	ProductsFile    = "products.csv"
	PackagingsFile  = "packagings.csv"
	TaxesFile       = "taxes.csv"
	SaleOrdersFile  = "sale_orders.csv"
	SaleLinesFile   = "sale_lines.csv"
	PickingsFile    = "pickings.csv"
	MovesFile       = "moves.csv"
	MoveLinesFile   = "move_lines.csv"
	taxIDsSeparator = "|"
)

var (
	currencyHeader  = []string{"id", "name", "symbol", "rounding"}
	companyHeader   = []string{"id", "name", "currency_id", "tax_rounding"}
	partnerHeader   = []string{"id", "name", "delivery_report_valued"}
	uomHeader       = []string{"id", "name", "category", "ratio", "rounding"}
	productHeader   = []string{"id", "default_code", "name", "uom_id"}
	packagingHeader = []string{"id", "name", "product_id", "qty"}
	taxHeader       = []string{"id", "name", "sequence", "amount_type", "amount", "price_include", "include_base_amount", "tax_group"}
	orderHeader     = []string{"id", "name", "partner_id", "company_id", "currency_id", "currency_rate"}
	saleLineHeader  = []string{"id", "order_id", "price_unit", "discount", "tax_ids"}
	pickingHeader   = []string{"id", "name", "partner_id", "company_id", "sale_order_id", "backorder_of_id"}
	moveHeader      = []string{"id", "picking_id", "product_id", "description", "uom_id", "product_uom_qty", "quantity", "state", "packaging_id", "sale_line_id", "package_level"}
	moveLineHeader  = []string{"id", "move_id", "quantity", "uom_id", "lot_name", "result_package"}
)

// Scenario is a fully linked set of delivery records
type Scenario struct {
	Currencies map[int64]*entities.Currency
	Companies  map[int64]*entities.Company
	Partners   map[int64]*entities.Partner
	UoMs       map[int64]*entities.UoM
	Products   map[int64]*entities.Product
	Packagings map[int64]*entities.Packaging
	Taxes      map[int64]*entities.Tax
	SaleOrders map[int64]*entities.SaleOrder
	SaleLines  map[int64]*entities.SaleOrderLine
	Pickings   []*entities.Picking
}

// Loader handles loading delivery scenarios from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads every file of a scenario directory and links the records.
// Partner, packaging, tax, sale order and move line files are optional.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	s := &Scenario{
		Currencies: make(map[int64]*entities.Currency),
		Companies:  make(map[int64]*entities.Company),
		Partners:   make(map[int64]*entities.Partner),
		UoMs:       make(map[int64]*entities.UoM),
		Products:   make(map[int64]*entities.Product),
		Packagings: make(map[int64]*entities.Packaging),
		Taxes:      make(map[int64]*entities.Tax),
		SaleOrders: make(map[int64]*entities.SaleOrder),
		SaleLines:  make(map[int64]*entities.SaleOrderLine),
	}

	steps := []struct {
		file     string
		header   []string
		optional bool
		parse    func(s *Scenario, record []string) error
	}{
		{CurrenciesFile, currencyHeader, false, parseCurrency},
		{CompaniesFile, companyHeader, false, parseCompany},
		{PartnersFile, partnerHeader, true, parsePartner},
		{UoMsFile, uomHeader, false, parseUoM},
		{ProductsFile, productHeader, false, parseProduct},
		{PackagingsFile, packagingHeader, true, parsePackaging},
		{TaxesFile, taxHeader, true, parseTax},
		{SaleOrdersFile, orderHeader, true, parseSaleOrder},
		{SaleLinesFile, saleLineHeader, true, parseSaleLine},
		{PickingsFile, pickingHeader, false, nil},
		{MovesFile, moveHeader, false, nil},
		{MoveLinesFile, moveLineHeader, true, nil},
	}

	pickings := make(map[int64]*entities.Picking)
	moves := make(map[int64]*entities.Move)
	var backorderLinks [][2]int64

	for _, step := range steps {
		path := filepath.Join(dir, step.file)
		records, err := l.readRecords(path, step.header)
		if errors.Is(err, os.ErrNotExist) && step.optional {
			continue
		}
		if err != nil {
			return nil, err
		}

		for i, record := range records {
			row := i + 2
			switch step.file {
			case PickingsFile:
				picking, backorderOf, err := parsePicking(s, record)
				if err != nil {
					return nil, fmt.Errorf("%s row %d: %w", step.file, row, err)
				}
				if _, dup := pickings[picking.ID]; dup {
					return nil, fmt.Errorf("%s row %d: duplicate picking id %d", step.file, row, picking.ID)
				}
				pickings[picking.ID] = picking
				s.Pickings = append(s.Pickings, picking)
				if backorderOf != 0 {
					backorderLinks = append(backorderLinks, [2]int64{backorderOf, picking.ID})
				}
			case MovesFile:
				move, err := parseMove(s, pickings, record)
				if err != nil {
					return nil, fmt.Errorf("%s row %d: %w", step.file, row, err)
				}
				moves[move.ID] = move
			case MoveLinesFile:
				if err := parseMoveLine(s, moves, record); err != nil {
					return nil, fmt.Errorf("%s row %d: %w", step.file, row, err)
				}
			default:
				if err := step.parse(s, record); err != nil {
					return nil, fmt.Errorf("%s row %d: %w", step.file, row, err)
				}
			}
		}
	}

	for _, link := range backorderLinks {
		parent, ok := pickings[link[0]]
		if !ok {
			return nil, fmt.Errorf("picking %d: unknown backorder_of_id %d", link[1], link[0])
		}
		parent.AddBackorder(pickings[link[1]])
	}

	return s, nil
}

// readRecords reads a CSV file and returns its data rows after checking the header
func (l *Loader) readRecords(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s must have a header row", filename)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(record))
		}
	}

	return records[1:], nil
}

// Helper functions for parsing CSV records

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseCurrency(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	rounding, err := parseDecimal(record[3], "rounding")
	if err != nil {
		return err
	}
	currency, err := entities.NewCurrency(id, record[1], record[2], rounding)
	if err != nil {
		return err
	}
	s.Currencies[id] = currency
	return nil
}

func parseCompany(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	currency, err := lookup(s.Currencies, record[2], "currency_id")
	if err != nil {
		return err
	}
	rounding, err := parseTaxRounding(record[3])
	if err != nil {
		return err
	}
	s.Companies[id] = &entities.Company{ID: id, Name: record[1], Currency: currency, TaxRounding: rounding}
	return nil
}

func parsePartner(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	valued, err := parseBool(record[2], "delivery_report_valued")
	if err != nil {
		return err
	}
	s.Partners[id] = &entities.Partner{ID: id, Name: record[1], DeliveryReportValued: valued}
	return nil
}

func parseUoM(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	ratio, err := parseDecimal(record[3], "ratio")
	if err != nil {
		return err
	}
	rounding, err := parseDecimal(record[4], "rounding")
	if err != nil {
		return err
	}
	uom := &entities.UoM{ID: id, Name: record[1], Category: record[2], Ratio: ratio, Rounding: rounding}
	if err := uom.Validate(); err != nil {
		return err
	}
	s.UoMs[id] = uom
	return nil
}

func parseProduct(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	uom, err := lookup(s.UoMs, record[3], "uom_id")
	if err != nil {
		return err
	}
	s.Products[id] = &entities.Product{ID: id, DefaultCode: record[1], Name: record[2], UoM: uom}
	return nil
}

func parsePackaging(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	product, err := lookup(s.Products, record[2], "product_id")
	if err != nil {
		return err
	}
	qty, err := parseDecimal(record[3], "qty")
	if err != nil {
		return err
	}
	s.Packagings[id] = &entities.Packaging{ID: id, Name: record[1], Product: product, Qty: qty}
	return nil
}

func parseTax(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	sequence, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return fmt.Errorf("invalid sequence: %s", record[2])
	}
	amountType, err := parseTaxAmountType(record[3])
	if err != nil {
		return err
	}
	amount, err := parseDecimal(record[4], "amount")
	if err != nil {
		return err
	}
	priceInclude, err := parseBool(record[5], "price_include")
	if err != nil {
		return err
	}
	includeBase, err := parseBool(record[6], "include_base_amount")
	if err != nil {
		return err
	}
	s.Taxes[id] = &entities.Tax{
		ID:                id,
		Name:              record[1],
		Sequence:          sequence,
		AmountType:        amountType,
		Amount:            amount,
		PriceInclude:      priceInclude,
		IncludeBaseAmount: includeBase,
		Group:             record[7],
	}
	return nil
}

func parseSaleOrder(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	partner, err := optionalLookup(s.Partners, record[2], "partner_id")
	if err != nil {
		return err
	}
	company, err := lookup(s.Companies, record[3], "company_id")
	if err != nil {
		return err
	}
	currency, err := optionalLookup(s.Currencies, record[4], "currency_id")
	if err != nil {
		return err
	}
	rate := decimal.NewFromInt(1)
	if strings.TrimSpace(record[5]) != "" {
		if rate, err = parseDecimal(record[5], "currency_rate"); err != nil {
			return err
		}
	}
	s.SaleOrders[id] = &entities.SaleOrder{
		ID:           id,
		Name:         record[1],
		Partner:      partner,
		Company:      company,
		Currency:     currency,
		CurrencyRate: rate,
	}
	return nil
}

func parseSaleLine(s *Scenario, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	order, err := lookup(s.SaleOrders, record[1], "order_id")
	if err != nil {
		return err
	}
	price, err := parseDecimal(record[2], "price_unit")
	if err != nil {
		return err
	}
	discount := decimal.Zero
	if strings.TrimSpace(record[3]) != "" {
		if discount, err = parseDecimal(record[3], "discount"); err != nil {
			return err
		}
	}

	var taxes entities.TaxSet
	for _, raw := range strings.Split(record[4], taxIDsSeparator) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tax, err := lookup(s.Taxes, raw, "tax_ids")
		if err != nil {
			return err
		}
		taxes = append(taxes, tax)
	}

	s.SaleLines[id] = &entities.SaleOrderLine{ID: id, Order: order, PriceUnit: price, Discount: discount, Taxes: taxes}
	return nil
}

func parsePicking(s *Scenario, record []string) (*entities.Picking, int64, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, 0, err
	}
	partner, err := optionalLookup(s.Partners, record[2], "partner_id")
	if err != nil {
		return nil, 0, err
	}
	company, err := lookup(s.Companies, record[3], "company_id")
	if err != nil {
		return nil, 0, err
	}
	order, err := optionalLookup(s.SaleOrders, record[4], "sale_order_id")
	if err != nil {
		return nil, 0, err
	}
	var backorderOf int64
	if strings.TrimSpace(record[5]) != "" {
		if backorderOf, err = parseID(record[5], "backorder_of_id"); err != nil {
			return nil, 0, err
		}
	}

	return &entities.Picking{
		ID:        id,
		Name:      record[1],
		Partner:   partner,
		Company:   company,
		SaleOrder: order,
	}, backorderOf, nil
}

func parseMove(s *Scenario, pickings map[int64]*entities.Picking, record []string) (*entities.Move, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	picking, err := lookup(pickings, record[1], "picking_id")
	if err != nil {
		return nil, err
	}
	product, err := lookup(s.Products, record[2], "product_id")
	if err != nil {
		return nil, err
	}
	uom, err := optionalLookup(s.UoMs, record[4], "uom_id")
	if err != nil {
		return nil, err
	}
	if uom == nil {
		uom = product.UoM
	}
	demand, err := parseDecimal(record[5], "product_uom_qty")
	if err != nil {
		return nil, err
	}
	quantity, err := parseDecimal(record[6], "quantity")
	if err != nil {
		return nil, err
	}
	state, err := entities.ParseMoveState(record[7])
	if err != nil {
		return nil, err
	}
	packaging, err := optionalLookup(s.Packagings, record[8], "packaging_id")
	if err != nil {
		return nil, err
	}
	saleLine, err := optionalLookup(s.SaleLines, record[9], "sale_line_id")
	if err != nil {
		return nil, err
	}

	move := &entities.Move{
		ID:                 id,
		Company:            picking.Company,
		Product:            product,
		DescriptionPicking: record[3],
		UoM:                uom,
		ProductUoMQty:      demand,
		Quantity:           quantity,
		State:              state,
		Packaging:          packaging,
		SaleLine:           saleLine,
		PackageLevel:       record[10],
	}
	picking.AddMove(move)
	return move, nil
}

func parseMoveLine(s *Scenario, moves map[int64]*entities.Move, record []string) error {
	id, err := parseID(record[0], "id")
	if err != nil {
		return err
	}
	move, err := lookup(moves, record[1], "move_id")
	if err != nil {
		return err
	}
	quantity, err := parseDecimal(record[2], "quantity")
	if err != nil {
		return err
	}
	uom, err := optionalLookup(s.UoMs, record[3], "uom_id")
	if err != nil {
		return err
	}

	move.AddLine(&entities.MoveLine{
		ID:            id,
		UoM:           uom,
		Quantity:      quantity,
		LotName:       record[4],
		ResultPackage: record[5],
	})
	return nil
}

func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, raw)
	}
	return id, nil
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, raw)
	}
	return value, nil
}

func parseBool(raw, field string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", field, raw)
	}
	return value, nil
}

func lookup[T any](records map[int64]*T, raw, field string) (*T, error) {
	id, err := parseID(raw, field)
	if err != nil {
		return nil, err
	}
	record, ok := records[id]
	if !ok {
		return nil, fmt.Errorf("unknown %s: %d", field, id)
	}
	return record, nil
}

func optionalLookup[T any](records map[int64]*T, raw, field string) (*T, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return lookup(records, raw, field)
}

func parseTaxRounding(s string) (entities.TaxRoundingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round_per_line":
		return entities.RoundPerLine, nil
	case "round_globally":
		return entities.RoundGlobally, nil
	default:
		return entities.RoundPerLine, fmt.Errorf("invalid tax_rounding: %s (expected: round_per_line or round_globally)", s)
	}
}

func parseTaxAmountType(s string) (entities.TaxAmountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percent":
		return entities.TaxPercent, nil
	case "fixed":
		return entities.TaxFixed, nil
	case "division":
		return entities.TaxDivision, nil
	default:
		return entities.TaxPercent, fmt.Errorf("invalid amount_type: %s (expected: percent, fixed, or division)", s)
	}
}
