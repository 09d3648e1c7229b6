package edifact

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"
)

// PartyDetails is the content of a NAD segment: the party ID with its
// code list agency, and the name and address
type PartyDetails struct {
	Party   `json:"party"`
	Address `json:"address"`
}

// Quantity is a QTY value with its unit of measure
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// TaxRate is a VAT bucket from the summary section: TAX followed by
// its MOA+124 tax amount
type TaxRate struct {
	Rate    float64 `json:"rate"`
	Taxable float64 `json:"taxable"`
	Amount  float64 `json:"amount"`
}

// Line is a line item extracted from a LineGroup
type Line struct {
	Number      int                            `json:"number"`
	EAN         string                         `json:"ean,omitempty"`
	Article     string                         `json:"article,omitempty"`
	Description string                         `json:"description,omitempty"`
	Quantities  map[QuantityQualifier]Quantity `json:"quantities,omitempty"`
	Prices      map[PriceQualifier]float64     `json:"prices,omitempty"`
	Amounts     map[AmountQualifier]float64    `json:"amounts,omitempty"`
	References  map[ReferenceQualifier]string  `json:"references,omitempty"`
	Dates       map[DateQualifier]time.Time    `json:"dates,omitempty"`
	TaxRate     float64                        `json:"tax_rate"`
}

// Quantity returns the first quantity found for the given qualifiers,
// in order
func (l Line) Quantity(qualifiers ...QuantityQualifier) (Quantity, bool) {
	for _, q := range qualifiers {
		if v, ok := l.Quantities[q]; ok {
			return v, true
		}
	}
	return Quantity{}, false
}

// Document holds the fields shared by every supported message type
type Document struct {
	Identifier MessageIdentifier               `json:"identifier"`
	Number     string                          `json:"number"`
	Dates      map[DateQualifier]time.Time     `json:"dates,omitempty"`
	Currency   string                          `json:"currency,omitempty"`
	Parties    map[PartyQualifier]PartyDetails `json:"parties,omitempty"`
	References map[ReferenceQualifier]string   `json:"references,omitempty"`
	Amounts    map[AmountQualifier]float64     `json:"amounts,omitempty"`
	TaxRates   []TaxRate                       `json:"tax_rates,omitempty"`
	Lines      []Line                          `json:"lines,omitempty"`
}

// Invoice is the content of an INVOIC message
type Invoice struct {
	Document
	Date          time.Time `json:"date"`
	DueDate       time.Time `json:"due_date"`
	UntaxedAmount float64   `json:"untaxed_amount"`
	TotalAmount   float64   `json:"total_amount"`
}

// Order is the content of an ORDERS or DESADV message
type Order struct {
	Document
	Type         MessageType `json:"type"`
	Date         time.Time   `json:"date"`
	DeliveryDate time.Time   `json:"delivery_date"`
}

// ExtractDates returns the DTM dates of the interchange by qualifier.
// Unknown qualifiers are ignored; when a qualifier appears more than
// once, the last occurrence wins.
func ExtractDates(ic *Interchange) (map[DateQualifier]time.Time, error) {
	return extractDates(ic.Segments(dtmSegmentId))
}

// ExtractReferences returns the RFF references of the interchange by
// qualifier, last occurrence wins
func ExtractReferences(ic *Interchange) map[ReferenceQualifier]string {
	return extractReferences(ic.Segments(rffSegmentId))
}

// ExtractParties returns the NAD parties of the interchange by
// qualifier, last occurrence wins
func ExtractParties(ic *Interchange) map[PartyQualifier]PartyDetails {
	return extractParties(ic.Segments(nadSegmentId))
}

// ExtractAmounts returns the MOA amounts of the interchange by
// qualifier, last occurrence wins
func ExtractAmounts(ic *Interchange) (map[AmountQualifier]float64, error) {
	return extractAmounts(ic.Segments(moaSegmentId))
}

// ExtractCurrency returns the reference currency declared in CUX, or
// an empty string
func ExtractCurrency(ic *Interchange) string {
	return extractCurrency(ic.Segments(cuxSegmentId))
}

// ExtractInvoice extracts the content of an INVOIC interchange. Header
// fields are read from the header and summary sections only, so line
// level DTM/RFF/MOA segments don't override them.
func ExtractInvoice(ic *Interchange) (*Invoice, error) {
	doc, err := extractDocument(ic, MessageInvoice)
	if err != nil {
		return nil, err
	}
	inv := &Invoice{
		Document: *doc,
		Date:     doc.Dates[DocumentDate],
		DueDate:  doc.Dates[DueDate],
	}
	inv.UntaxedAmount = firstAmount(doc.Amounts, UntaxedAmount, TaxableAmount)
	inv.TotalAmount = firstAmount(doc.Amounts, TotalAmount, InvoiceTotalAmount)
	return inv, nil
}

// ExtractOrder extracts the content of an ORDERS or DESADV interchange
func ExtractOrder(ic *Interchange) (*Order, error) {
	doc, err := extractDocument(ic, MessageOrder, MessageDespatchAdvice)
	if err != nil {
		return nil, err
	}
	order := &Order{
		Document: *doc,
		Type:     doc.Identifier.Type,
		Date:     doc.Dates[DocumentDate],
	}
	for _, q := range []DateQualifier{RequestedDeliveryDate, LatestDeliveryDate, DeliveryDate} {
		if t, ok := doc.Dates[q]; ok {
			order.DeliveryDate = t
			break
		}
	}
	return order, nil
}

func firstAmount(amounts map[AmountQualifier]float64, qualifiers ...AmountQualifier) float64 {
	for _, q := range qualifiers {
		if v, ok := amounts[q]; ok {
			return v
		}
	}
	return 0
}

func extractDocument(ic *Interchange, types ...MessageType) (*Document, error) {
	ident, err := ic.MessageIdentifier()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(types, ident.Type) {
		var position int
		if unh := ic.Segment(unhSegmentId); unh != nil {
			position = unh.position
		}
		return nil, newFormatError(
			position, unhSegmentId,
			fmt.Errorf("%w: '%s'", ErrUnsupportedMessage, ident.Type),
		)
	}

	sections := GroupLines(ic)
	envelope := slices.Concat(sections.Header, sections.Summary)
	doc := &Document{
		Identifier: ident,
		References: extractReferences(filterTag(envelope, rffSegmentId)),
		Parties:    extractParties(filterTag(envelope, nadSegmentId)),
		Currency:   extractCurrency(filterTag(envelope, cuxSegmentId)),
		Lines:      make([]Line, 0, len(sections.Lines)),
	}
	if bgm := ic.Segment(bgmSegmentId); bgm != nil {
		doc.Number = bgm.Component(1, 0)
	}
	if doc.Dates, err = extractDates(filterTag(envelope, dtmSegmentId)); err != nil {
		return nil, err
	}
	if doc.Amounts, err = extractAmounts(filterTag(sections.Header, moaSegmentId)); err != nil {
		return nil, err
	}
	summaryAmounts, rates, err := extractSummary(sections.Summary)
	if err != nil {
		return nil, err
	}
	for q, v := range summaryAmounts {
		doc.Amounts[q] = v
	}
	doc.TaxRates = rates

	for _, group := range sections.Lines {
		line, err := extractLine(group)
		if err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

// extractLine reads a line item from its group. Only the segments of
// the group are inspected.
func extractLine(g *LineGroup) (Line, error) {
	line := Line{
		EAN:        g.LIN.Component(2, 0),
		Quantities: make(map[QuantityQualifier]Quantity),
		Prices:     make(map[PriceQualifier]float64),
	}
	number, err := parseNumber(g.LIN, 0, 0)
	if err != nil {
		return line, err
	}
	line.Number = int(number)

	for _, pia := range g.SegmentsWithName(piaSegmentId) {
		if pia.Component(1, 1) == piaSupplierArticle {
			line.Article = pia.Component(1, 0)
			break
		}
	}
	if imd := g.Segment(imdSegmentId); imd != nil {
		line.Description = imd.Component(1, 3)
	}

	for _, qty := range g.SegmentsWithName(qtySegmentId) {
		q, ok := ParseQuantityQualifier(qty.Qualifier())
		if !ok {
			continue
		}
		value, err := parseNumber(qty, 0, 1)
		if err != nil {
			return line, err
		}
		line.Quantities[q] = Quantity{Value: value, Unit: qty.Component(0, 2)}
	}
	for _, pri := range g.SegmentsWithName(priSegmentId) {
		q, ok := ParsePriceQualifier(pri.Qualifier())
		if !ok {
			continue
		}
		value, err := parseNumber(pri, 0, 1)
		if err != nil {
			return line, err
		}
		line.Prices[q] = value
	}
	if tax := g.Segment(taxSegmentId); tax != nil {
		if line.TaxRate, err = parseNumber(tax, taxIndexRateDetail, taxRateComponent); err != nil {
			return line, err
		}
	}
	line.References = extractReferences(filterTag(g.Segments, rffSegmentId))
	if line.Amounts, err = extractAmounts(filterTag(g.Segments, moaSegmentId)); err != nil {
		return line, err
	}
	if line.Dates, err = extractDates(filterTag(g.Segments, dtmSegmentId)); err != nil {
		return line, err
	}
	return line, nil
}

// extractSummary reads the summary section. A TAX segment opens a tax
// rate bucket and the MOA+124 directly following it is that bucket's
// tax amount; other MOA segments are document totals.
func extractSummary(summary []*Segment) (
	map[AmountQualifier]float64,
	[]TaxRate,
	error,
) {
	amounts := make(map[AmountQualifier]float64)
	var rates []TaxRate
	queue := newSegmentDeque(summary)
	for queue.Length() > 0 {
		seg := queue.PopLeft()
		switch seg.Tag {
		case taxSegmentId:
			rate, err := parseNumber(seg, taxIndexRateDetail, taxRateComponent)
			if err != nil {
				return nil, nil, err
			}
			taxable, err := parseNumber(seg, taxIndexTaxable, 0)
			if err != nil {
				return nil, nil, err
			}
			bucket := TaxRate{Rate: rate, Taxable: taxable}
			if next := queue.PeekLeft(); next != nil &&
				next.Tag == moaSegmentId &&
				next.Qualifier() == TaxAmount.Code() {
				queue.PopLeft()
				if bucket.Amount, err = parseNumber(next, 0, 1); err != nil {
					return nil, nil, err
				}
			}
			rates = append(rates, bucket)
		case moaSegmentId:
			q, ok := ParseAmountQualifier(seg.Qualifier())
			if !ok {
				continue
			}
			value, err := parseNumber(seg, 0, 1)
			if err != nil {
				return nil, nil, err
			}
			amounts[q] = value
		}
	}
	return amounts, rates, nil
}

func extractDates(segments iter.Seq[*Segment]) (map[DateQualifier]time.Time, error) {
	dates := make(map[DateQualifier]time.Time)
	for seg := range segments {
		q, ok := ParseDateQualifier(seg.Qualifier())
		if !ok {
			continue
		}
		value := seg.Component(0, 1)
		if value == "" {
			continue
		}
		t, err := ParseDate(value, DateFormat(seg.Component(0, 2)))
		if err != nil {
			return nil, newFormatError(seg.position, seg.Tag, err)
		}
		dates[q] = t
	}
	return dates, nil
}

func extractReferences(segments iter.Seq[*Segment]) map[ReferenceQualifier]string {
	refs := make(map[ReferenceQualifier]string)
	for seg := range segments {
		if q, ok := ParseReferenceQualifier(seg.Qualifier()); ok {
			refs[q] = seg.Component(0, 1)
		}
	}
	return refs
}

func extractParties(segments iter.Seq[*Segment]) map[PartyQualifier]PartyDetails {
	parties := make(map[PartyQualifier]PartyDetails)
	for seg := range segments {
		q, ok := ParsePartyQualifier(seg.Qualifier())
		if !ok {
			continue
		}
		parties[q] = PartyDetails{
			Party: Party{
				ID:        seg.Component(1, 0),
				Qualifier: seg.Component(1, 2),
			},
			Address: Address{
				Name:    seg.Component(3, 0),
				Street:  seg.Component(4, 0),
				City:    seg.Component(5, 0),
				Region:  seg.Component(6, 0),
				Zip:     seg.Component(7, 0),
				Country: seg.Component(8, 0),
			},
		}
	}
	return parties
}

func extractAmounts(segments iter.Seq[*Segment]) (map[AmountQualifier]float64, error) {
	amounts := make(map[AmountQualifier]float64)
	for seg := range segments {
		q, ok := ParseAmountQualifier(seg.Qualifier())
		if !ok {
			continue
		}
		value, err := parseNumber(seg, 0, 1)
		if err != nil {
			return nil, err
		}
		amounts[q] = value
	}
	return amounts, nil
}

func extractCurrency(segments iter.Seq[*Segment]) string {
	var currency string
	for seg := range segments {
		if q, ok := ParseCurrencyQualifier(seg.Qualifier()); ok && q == ReferenceCurrency {
			currency = seg.Component(0, 1)
		}
	}
	return currency
}

// filterTag returns a sequence of the segments with the given tag
func filterTag(segments []*Segment, tag string) iter.Seq[*Segment] {
	return func(yield func(*Segment) bool) {
		for _, seg := range segments {
			if seg.Tag == tag && !yield(seg) {
				return
			}
		}
	}
}

// parseNumber parses component i of element j as a number. Empty values
// are zero. A comma decimal mark is accepted.
func parseNumber(seg *Segment, j, i int) (float64, error) {
	value := seg.Component(j, i)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil {
		return 0, newFormatError(
			seg.position, seg.Tag,
			fmt.Errorf("element %d component %d: invalid number %q", j, i, value),
		)
	}
	return n, nil
}
