package edifact

import (
	"time"
)

var (
	// InvoiceCount is the UNT segment count of an invoice built with
	// BuildInvoice: 37 + 11 per line item + 2 per distinct tax rate
	InvoiceCount = TemplateCount(37, 11, 2)
	// OrderCount is the UNT segment count of an order built with
	// BuildOrder: 33 + 11 per line item + 2 per distinct tax rate
	OrderCount = TemplateCount(33, 11, 2)
)

const defaultMessageReference = "1"

// Static codes of the invoice and order templates
const (
	bgmInvoice            = "380"
	bgmOrder              = "220"
	paiDirectPayment      = "42"
	imdInvoiceDescription = "ANM"
	imdOrderDescription   = "F"
	pciMarking            = "14"
	ftxRegulatory         = "REG"
	ftxPaymentDetail      = "PMD"
	ftxPaymentTerms       = "AAB"
	ftxMutuallyDefined    = "ZZZ"
	unitPiece             = "PCE"
)

// Participant is a party of a document template, along with its VAT
// registration number
type Participant struct {
	PartyDetails `yaml:",inline"`
	VAT          string `json:"vat,omitempty" yaml:"vat,omitempty"`
}

func (p Participant) nad(q PartyQualifier) *Segment {
	return NAD(q, p.Party, p.Address)
}

// InvoiceLine is a line item of an InvoiceDocument
type InvoiceLine struct {
	EAN            string  `yaml:"ean"`
	Article        string  `yaml:"article"`
	Description    string  `yaml:"description"`
	Quantity       float64 `yaml:"quantity"`
	Delivered      float64 `yaml:"delivered"`
	Unit           string  `yaml:"unit"`
	Amount         float64 `yaml:"amount"`
	NetPrice       float64 `yaml:"net_price"`
	GrossPrice     float64 `yaml:"gross_price"`
	OrderReference string  `yaml:"order_reference"`
	TaxRate        float64 `yaml:"tax_rate"`
}

// InvoiceDocument is the input of BuildInvoice
type InvoiceDocument struct {
	// Reference is the UNH message reference, defaults to 1
	Reference     string        `yaml:"reference"`
	Number        string        `yaml:"number"`
	Date          time.Time     `yaml:"date"`
	DueDate       time.Time     `yaml:"due_date"`
	DeliveryDate  time.Time     `yaml:"delivery_date"`
	DespatchDate  time.Time     `yaml:"despatch_date"`
	ReferenceDate time.Time     `yaml:"reference_date"`
	PaymentTerms  string        `yaml:"payment_terms"`
	DeliveryNote  string        `yaml:"delivery_note"`
	Invoicee      Participant   `yaml:"invoicee"`
	Buyer         Participant   `yaml:"buyer"`
	Seller        Participant   `yaml:"seller"`
	DeliveryParty Participant   `yaml:"delivery_party"`
	Currency      string        `yaml:"currency"`
	Lines         []InvoiceLine `yaml:"lines"`
	// TaxRates overrides the tax rate buckets, which otherwise are
	// computed from the lines
	TaxRates      []TaxRate `yaml:"tax_rates"`
	UntaxedAmount float64   `yaml:"untaxed_amount"`
	TaxAmount     float64   `yaml:"tax_amount"`
	TotalAmount   float64   `yaml:"total_amount"`
}

// OrderLine is a line item of an OrderDocument
type OrderLine struct {
	EAN         string  `yaml:"ean"`
	Article     string  `yaml:"article"`
	Description string  `yaml:"description"`
	Quantity    float64 `yaml:"quantity"`
	PerPack     float64 `yaml:"per_pack"`
	Unit        string  `yaml:"unit"`
	Amount      float64 `yaml:"amount"`
	TaxRate     float64 `yaml:"tax_rate"`
}

// Contact is the purchasing contact of an order
type Contact struct {
	ID    string `yaml:"id"`
	Phone string `yaml:"phone"`
}

// OrderDocument is the input of BuildOrder
type OrderDocument struct {
	Reference string `yaml:"reference"`
	// Identifier selects the directory release, OrderD96A (default) or
	// OrderD01B
	Identifier            MessageIdentifier `yaml:"-"`
	Number                string            `yaml:"number"`
	Date                  time.Time         `yaml:"date"`
	RequestedDeliveryDate time.Time         `yaml:"requested_delivery_date"`
	LatestDeliveryDate    time.Time         `yaml:"latest_delivery_date"`
	ReferenceDate         time.Time         `yaml:"reference_date"`
	PaymentTerms          string            `yaml:"payment_terms"`
	DeliveryNote          string            `yaml:"delivery_note"`
	Buyer                 Participant       `yaml:"buyer"`
	Supplier              Participant       `yaml:"supplier"`
	DeliveryParty         Participant       `yaml:"delivery_party"`
	Invoicee              Participant       `yaml:"invoicee"`
	Contact               Contact           `yaml:"contact"`
	Currency              string            `yaml:"currency"`
	DeliveryLocation      string            `yaml:"delivery_location"`
	Lines                 []OrderLine       `yaml:"lines"`
	TaxRates              []TaxRate         `yaml:"tax_rates"`
	UntaxedAmount         float64           `yaml:"untaxed_amount"`
	TaxAmount             float64           `yaml:"tax_amount"`
	TotalAmount           float64           `yaml:"total_amount"`
}

// taxBuckets groups line amounts by tax rate, in order of first
// appearance. Rates are compared as formatted on the wire.
func taxBuckets(rates []float64, amounts []float64) []TaxRate {
	var buckets []TaxRate
	index := map[string]int{}
	for ind, rate := range rates {
		key := formatAmount(rate)
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, TaxRate{Rate: rate})
		}
		buckets[pos].Taxable += amounts[ind]
	}
	for ind := range buckets {
		buckets[ind].Amount = buckets[ind].Taxable * buckets[ind].Rate / 100
	}
	return buckets
}

// totals fills in untaxed, tax and total amounts when none were given
func totals(
	untaxed, tax, total float64,
	amounts []float64,
	buckets []TaxRate,
) (float64, float64, float64) {
	if untaxed != 0 || tax != 0 || total != 0 {
		return untaxed, tax, total
	}
	for _, a := range amounts {
		untaxed += a
	}
	for _, b := range buckets {
		tax += b.Amount
	}
	return untaxed, tax, untaxed + tax
}

// summarySegments returns the summary section: UNS, the line count,
// the totals, a TAX+MOA pair per tax rate, and UNT
func summarySegments(
	ref string,
	lines int,
	untaxed, tax, total float64,
	buckets []TaxRate,
) []*Segment {
	segments := []*Segment{
		UNS(),
		CNT(lines),
		MOA(TaxableAmount, untaxed),
		MOA(InvoiceTotalAmount, total),
		MOA(TaxAmount, tax),
	}
	for _, b := range buckets {
		segments = append(
			segments,
			TAXBasis(b.Rate, b.Taxable),
			MOA(TaxAmount, b.Amount),
		)
	}
	return append(segments, MOA(AllowanceAmount, 0), UNT(ref))
}

// BuildInvoice appends an INVOIC D.96A message built from doc to the
// interchange, and sets the interchange counter to InvoiceCount
func BuildInvoice(ic *Interchange, doc InvoiceDocument) {
	ref := doc.Reference
	if ref == "" {
		ref = defaultMessageReference
	}
	ic.AddSegments(
		UNH(ref, InvoiceD96A),
		BGM(bgmInvoice, doc.Number, "Invoice"),
		DTM(DeliveryDate, doc.DeliveryDate, DateFormatCCYYMMDD),
		DTM(DespatchDate, doc.DespatchDate, DateFormatCCYYMMDD),
		DTM(DocumentDate, doc.Date, DateFormatCCYYMMDD),
		PAI(paiDirectPayment),
		FTX(ftxRegulatory, ""),
		FTX(ftxPaymentDetail, ""),
		FTX(ftxPaymentTerms, doc.PaymentTerms),
		RFF(DeliveryNoteReference, doc.DeliveryNote),
		DTM(ReferenceDate, doc.ReferenceDate, DateFormatCCYYMMDD),
		doc.Invoicee.nad(Invoicee),
		RFF(InternalVendorReference, doc.Invoicee.ID),
		doc.Buyer.nad(Buyer),
		RFF(AdditionalPartyReference, ""),
		doc.Seller.nad(Seller),
		RFF(VATReference, doc.Seller.VAT),
		RFF(GovernmentReference, doc.Seller.VAT),
		doc.DeliveryParty.nad(DeliveryParty),
		RFF(AdditionalPartyReference, ""),
		CUX(doc.Currency),
		DTM(ExchangeRateDate, doc.Date, DateFormatCCYYMMDD),
		MustSegment("PAT", "3"),
		DTM(DueDate, doc.DueDate, DateFormatCCYYMMDD),
		MustSegment("PAT", "22", "", Element{"5", "3", "D", "0"}),
		MustSegment("PCD", "12", "0", "13"),
		MustSegment("PAT", "20"),
		MustSegment("PCD", "15", "0"),
		MustSegment("PCD", "1", "0", "13"),
		MOA(AllowanceAmount, 0),
	)

	rates := make([]float64, 0, len(doc.Lines))
	amounts := make([]float64, 0, len(doc.Lines))
	for ind, line := range doc.Lines {
		rates = append(rates, line.TaxRate)
		amounts = append(amounts, line.Amount)
		ic.AddSegments(
			LIN(ind+1, line.EAN),
			PIA(PIASubstituted, line.Article),
			IMD(imdInvoiceDescription, line.Description),
			QTY(InvoicedQuantity, line.Quantity, line.Unit),
			QTY(DeliveredQuantity, line.Delivered, line.Unit),
			MOA(LineAmount, line.Amount),
			PRI(NetPrice, line.NetPrice),
			PRI(GrossPrice, line.GrossPrice),
			RFF(OrderReference, line.OrderReference),
			TAX(line.TaxRate),
			MOA(TaxAmount, line.Amount*line.TaxRate/100),
		)
	}

	buckets := doc.TaxRates
	if buckets == nil {
		buckets = taxBuckets(rates, amounts)
	}
	untaxed, tax, total := totals(
		doc.UntaxedAmount, doc.TaxAmount, doc.TotalAmount, amounts, buckets,
	)
	ic.AddSegments(summarySegments(ref, len(doc.Lines), untaxed, tax, total, buckets)...)
	ic.SetCounter(InvoiceCount)
}

// BuildOrder appends an ORDERS message built from doc to the
// interchange, and sets the interchange counter to OrderCount
func BuildOrder(ic *Interchange, doc OrderDocument) {
	ref := doc.Reference
	if ref == "" {
		ref = defaultMessageReference
	}
	ident := doc.Identifier
	if ident.Type == "" {
		ident = OrderD96A
	}
	ic.AddSegments(
		UNH(ref, ident),
		MustSegment(
			bgmSegmentId,
			Element{bgmOrder, "", bgmResponseOriginal, string(MessageOrder)},
			doc.Number,
			bgmResponseOriginal,
		),
		DTM(DocumentDate, doc.Date, DateFormatCCYYMMDD),
		DTM(RequestedDeliveryDate, doc.RequestedDeliveryDate, DateFormatCCYYMMDD),
		DTM(LatestDeliveryDate, doc.LatestDeliveryDate, DateFormatCCYYMMDD),
		PAI(paiDirectPayment),
		MustSegment(
			ftxSegmentId,
			ftxMutuallyDefined,
			"1",
			Element{"", "", piaCodeListAgency},
		),
		RFF(MessageBatchReference, doc.Number),
		DTM(ReferenceDate, doc.ReferenceDate, DateFormatCCYYMMDD),
		FTX(ftxPaymentDetail, ""),
		FTX(ftxPaymentTerms, doc.PaymentTerms),
		RFF(DeliveryNoteReference, doc.DeliveryNote),
		doc.Buyer.nad(Buyer),
		RFF(VATReference, doc.Buyer.VAT),
		doc.Supplier.nad(Supplier),
		RFF(VATReference, doc.Supplier.VAT),
		doc.DeliveryParty.nad(DeliveryParty),
		RFF(VATReference, doc.DeliveryParty.VAT),
		doc.Invoicee.nad(Invoicee),
		RFF(VATReference, doc.Invoicee.VAT),
		MustSegment("CTA", "PD", Element{doc.Contact.ID, ""}),
		MustSegment("COM", Element{doc.Contact.Phone, "TE"}),
		CUX(doc.Currency),
		DTM(ExchangeRateDate, doc.Date, DateFormatCCYYMMDD),
		MustSegment("TDT", "20", "", "30", "31"),
		MustSegment("LOC", "1", doc.DeliveryLocation),
	)

	rates := make([]float64, 0, len(doc.Lines))
	amounts := make([]float64, 0, len(doc.Lines))
	for ind, line := range doc.Lines {
		rates = append(rates, line.TaxRate)
		amounts = append(amounts, line.Amount)
		perPack := line.PerPack
		if perPack == 0 {
			perPack = 1
		}
		var price float64
		if line.Quantity != 0 {
			price = line.Amount / line.Quantity
		}
		ic.AddSegments(
			LIN(ind+1, line.EAN),
			PIA(PIAAdditional, line.Article),
			IMD(imdOrderDescription, line.Description),
			QTY(OrderedQuantity, line.Quantity, line.Unit),
			QTY(PackQuantity, perPack, unitPiece),
			MOA(LineAmount, line.Amount),
			PRI(NetPrice, price),
			RFF(OrderLineReference, doc.Number),
			MustSegment(
				"PAC",
				formatQuantity(line.Quantity),
				Element{"", "51"},
				line.Unit,
			),
			MustSegment("PCI", pciMarking),
			TAX(line.TaxRate),
		)
	}

	buckets := doc.TaxRates
	if buckets == nil {
		buckets = taxBuckets(rates, amounts)
	}
	untaxed, tax, total := totals(
		doc.UntaxedAmount, doc.TaxAmount, doc.TotalAmount, amounts, buckets,
	)
	ic.AddSegments(summarySegments(ref, len(doc.Lines), untaxed, tax, total, buckets)...)
	ic.SetCounter(OrderCount)
}
