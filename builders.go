package edifact

import (
	"strconv"
	"time"
)

// Segment tags produced by the builders and document templates
const (
	bgmSegmentId = "BGM"
	dtmSegmentId = "DTM"
	rffSegmentId = "RFF"
	nadSegmentId = "NAD"
	moaSegmentId = "MOA"
	qtySegmentId = "QTY"
	priSegmentId = "PRI"
	cuxSegmentId = "CUX"
	piaSegmentId = "PIA"
	imdSegmentId = "IMD"
	cntSegmentId = "CNT"
	ftxSegmentId = "FTX"
	paiSegmentId = "PAI"
)

// Fixed codes written by the builders: EN (7143) marks an EAN/GTIN
// article number, SA the supplier's article number, CNT qualifier 2
// (6069) counts line items
const (
	linItemNumberType     = "EN"
	piaSupplierArticle    = "SA"
	piaCodeListAgency     = "91"
	taxFunctionDuty       = "7"
	taxTypeVAT            = "VAT"
	cntLineItems          = "2"
	unsDetailSummarySplit = "S"
	bgmResponseOriginal   = "9"
)

// PIA product identification function codes (4347)
const (
	PIAAdditional  = "1"
	PIASubstituted = "5"
)

// Address is the name and address part of a NAD segment
type Address struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Street  string `json:"street,omitempty" yaml:"street,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty"`
	Zip     string `json:"zip,omitempty" yaml:"zip,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// formatAmount formats monetary amounts and rates with two decimals
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatQuantity formats a quantity in its shortest representation
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DTM builds a date/time/period segment, ex: `DTM+137:20240131:102'`.
// A zero time produces an empty value.
func DTM(q DateQualifier, t time.Time, format DateFormat) *Segment {
	if format == "" {
		format = DateFormatCCYYMMDD
	}
	var value string
	if !t.IsZero() {
		value = t.Format(dateLayouts[format])
	}
	return MustSegment(dtmSegmentId, Element{q.Code(), value, string(format)})
}

// RFF builds a reference segment, ex: `RFF+ON:4500012345'`
func RFF(q ReferenceQualifier, value string) *Segment {
	return MustSegment(rffSegmentId, Element{q.Code(), value})
}

// NAD builds a name and address segment. The party ID is written with
// its code list agency (ex: 9 for GLN, 92 for assigned by buyer).
func NAD(q PartyQualifier, id Party, addr Address) *Segment {
	return MustSegment(
		nadSegmentId,
		q.Code(),
		Element{id.ID, "", id.Qualifier},
		"",
		addr.Name,
		Element{addr.Street, ""},
		addr.City,
		addr.Region,
		addr.Zip,
		addr.Country,
	)
}

// MOA builds a monetary amount segment, ex: `MOA+203:150.00'`
func MOA(q AmountQualifier, amount float64) *Segment {
	return MustSegment(moaSegmentId, Element{q.Code(), formatAmount(amount)})
}

// QTY builds a quantity segment, ex: `QTY+47:12:PCE'`
func QTY(q QuantityQualifier, qty float64, unit string) *Segment {
	return MustSegment(qtySegmentId, Element{q.Code(), formatQuantity(qty), unit})
}

// PRI builds a price segment, ex: `PRI+AAA:12.50'`
func PRI(q PriceQualifier, price float64) *Segment {
	return MustSegment(priSegmentId, Element{q.Code(), formatAmount(price)})
}

// CUX builds a currency segment declaring the reference currency,
// ex: `CUX+2:EUR:4'`
func CUX(currency string) *Segment {
	return MustSegment(
		cuxSegmentId,
		Element{ReferenceCurrency.Code(), currency, currencyUsageInvoicing},
	)
}

// LIN builds a line item segment, ex: `LIN+1++4000862141404:EN'`
func LIN(n int, ean string) *Segment {
	return MustSegment(
		linSegmentId,
		n,
		"",
		Element{ean, linItemNumberType},
	)
}

// PIA builds an additional product ID segment holding the supplier's
// article number
func PIA(function string, code string) *Segment {
	return MustSegment(
		piaSegmentId,
		function,
		Element{code, piaSupplierArticle, "", piaCodeListAgency},
	)
}

// IMD builds an item description segment with a free-form description
func IMD(kind string, description string) *Segment {
	return MustSegment(imdSegmentId, kind, Element{"", "", "", description})
}

// TAX builds a VAT segment for a line item, carrying only the rate
func TAX(rate float64) *Segment {
	return MustSegment(
		taxSegmentId,
		taxFunctionDuty,
		taxTypeVAT,
		"",
		"",
		Element{"", "", "", formatAmount(rate)},
	)
}

// TAXBasis builds a VAT segment for the summary section, carrying the
// rate and the taxable amount
func TAXBasis(rate float64, taxable float64) *Segment {
	return MustSegment(
		taxSegmentId,
		taxFunctionDuty,
		taxTypeVAT,
		"",
		formatAmount(taxable),
		Element{"", "", "", formatAmount(rate)},
	)
}

// CNT builds a control total segment for the number of line items
func CNT(n int) *Segment {
	return MustSegment(cntSegmentId, Element{cntLineItems, strconv.Itoa(n)})
}

// UNS builds the section control segment, separating the detail
// section from the summary section
func UNS() *Segment {
	return MustSegment(unsSegmentId, unsDetailSummarySplit)
}

// UNH builds a message header
func UNH(ref string, id MessageIdentifier) *Segment {
	return MustSegment(unhSegmentId, ref, id.Element())
}

// UNT builds a message trailer. The segment count is left empty, and
// is set when the interchange is serialized.
func UNT(ref string) *Segment {
	return MustSegment(untSegmentId, "", ref)
}

// BGM builds a beginning of message segment, ex:
// `BGM+380:::Invoice+INV001+9'`
func BGM(code string, number string, name string) *Segment {
	return MustSegment(
		bgmSegmentId,
		Element{code, "", "", name},
		number,
		bgmResponseOriginal,
	)
}

// FTX builds a free text segment
func FTX(subject string, text string) *Segment {
	return MustSegment(ftxSegmentId, subject, "", "", text)
}

// PAI builds a payment instructions segment with the given payment
// means code
func PAI(means string) *Segment {
	return MustSegment(paiSegmentId, Element{"", "", means})
}
