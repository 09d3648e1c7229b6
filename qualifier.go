package edifact

import (
	"fmt"
	"time"
)

// MessageType is the message type code declared in UNH (0065)
type MessageType string

const (
	MessageInvoice        MessageType = "INVOIC"
	MessageOrder          MessageType = "ORDERS"
	MessageDespatchAdvice MessageType = "DESADV"
)

const (
	defaultMessageAgency  = "UN"
	defaultMessageVersion = "D"
)

var defaultMessageTypes = []MessageType{
	MessageInvoice,
	MessageOrder,
	MessageDespatchAdvice,
}

// MessageIdentifier is the composite S009 in UNH, ex: INVOIC:D:96A:UN:EAN008
type MessageIdentifier struct {
	Type        MessageType
	Version     string
	Release     string
	Agency      string
	Association string
}

// Element returns the identifier as a UNH composite element
func (m MessageIdentifier) Element() Element {
	return Element{
		string(m.Type),
		m.Version,
		m.Release,
		m.Agency,
		m.Association,
	}
}

func messageIdentifierFromElement(e Element) MessageIdentifier {
	return MessageIdentifier{
		Type:        MessageType(e.Component(msgIdIndexType)),
		Version:     e.Component(msgIdIndexVersion),
		Release:     e.Component(msgIdIndexRelease),
		Agency:      e.Component(msgIdIndexAgency),
		Association: e.Component(msgIdIndexAssociation),
	}
}

// D96A and D01B are the directory releases in use with EANCOM
var (
	InvoiceD96A = MessageIdentifier{
		MessageInvoice, defaultMessageVersion, "96A",
		defaultMessageAgency, "EAN008",
	}
	OrderD96A = MessageIdentifier{
		MessageOrder, defaultMessageVersion, "96A",
		defaultMessageAgency, "EAN008",
	}
	OrderD01B = MessageIdentifier{
		MessageOrder, defaultMessageVersion, "01B",
		defaultMessageAgency, "EAN010",
	}
)

// DateQualifier is the date/time/period function code qualifier (2005)
// used in DTM
type DateQualifier uint

const (
	UnknownDate DateQualifier = iota
	DocumentDate
	DueDate
	DeliveryDate
	DespatchDate
	RequestedDeliveryDate
	LatestDeliveryDate
	ReferenceDate
	ExchangeRateDate
)

var dateQualifierCodes = map[DateQualifier]string{
	DocumentDate:          "137",
	DueDate:               "13",
	DeliveryDate:          "35",
	DespatchDate:          "11",
	RequestedDeliveryDate: "2",
	LatestDeliveryDate:    "63",
	ReferenceDate:         "171",
	ExchangeRateDate:      "134",
}

var dateQualifierNames = [...]string{
	"",
	"DocumentDate",
	"DueDate",
	"DeliveryDate",
	"DespatchDate",
	"RequestedDeliveryDate",
	"LatestDeliveryDate",
	"ReferenceDate",
	"ExchangeRateDate",
}

func (q DateQualifier) String() string {
	return qualifierName(dateQualifierNames[:], q, "DateQualifier")
}

// Code returns the wire code for the qualifier
func (q DateQualifier) Code() string {
	return dateQualifierCodes[q]
}

func (q DateQualifier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// ReferenceQualifier is the reference code qualifier (1153) used in RFF
type ReferenceQualifier uint

const (
	UnknownReference ReferenceQualifier = iota
	OrderReference
	VATReference
	InvoiceReference
	CustomerReference
	AccountReference
	PromotionReference
	DeliveryNoteReference
	InternalVendorReference
	GovernmentReference
	AdditionalPartyReference
	OrderLineReference
	MessageBatchReference
)

var referenceQualifierCodes = map[ReferenceQualifier]string{
	OrderReference:           "ON",
	VATReference:             "VA",
	InvoiceReference:         "IV",
	CustomerReference:        "CR",
	AccountReference:         "ADE",
	PromotionReference:       "PD",
	DeliveryNoteReference:    "DQ",
	InternalVendorReference:  "IT",
	GovernmentReference:      "GN",
	AdditionalPartyReference: "API",
	OrderLineReference:       "PL",
	MessageBatchReference:    "ALL",
}

var referenceQualifierNames = [...]string{
	"",
	"OrderReference",
	"VATReference",
	"InvoiceReference",
	"CustomerReference",
	"AccountReference",
	"PromotionReference",
	"DeliveryNoteReference",
	"InternalVendorReference",
	"GovernmentReference",
	"AdditionalPartyReference",
	"OrderLineReference",
	"MessageBatchReference",
}

func (q ReferenceQualifier) String() string {
	return qualifierName(referenceQualifierNames[:], q, "ReferenceQualifier")
}

func (q ReferenceQualifier) Code() string {
	return referenceQualifierCodes[q]
}

func (q ReferenceQualifier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// PartyQualifier is the party function code qualifier (3035) used in NAD
type PartyQualifier uint

const (
	UnknownParty PartyQualifier = iota
	Buyer
	Supplier
	Seller
	DeliveryParty
	Invoicee
)

var partyQualifierCodes = map[PartyQualifier]string{
	Buyer:         "BY",
	Supplier:      "SU",
	Seller:        "SE",
	DeliveryParty: "DP",
	Invoicee:      "IV",
}

var partyQualifierNames = [...]string{
	"",
	"Buyer",
	"Supplier",
	"Seller",
	"DeliveryParty",
	"Invoicee",
}

func (q PartyQualifier) String() string {
	return qualifierName(partyQualifierNames[:], q, "PartyQualifier")
}

func (q PartyQualifier) Code() string {
	return partyQualifierCodes[q]
}

func (q PartyQualifier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// AmountQualifier is the monetary amount type code qualifier (5025)
// used in MOA
type AmountQualifier uint

const (
	UnknownAmount AmountQualifier = iota
	UntaxedAmount
	TotalAmount
	TaxableAmount
	InvoiceTotalAmount
	TaxAmount
	LineAmount
	AllowanceAmount
)

var amountQualifierCodes = map[AmountQualifier]string{
	UntaxedAmount:      "79",
	TotalAmount:        "86",
	TaxableAmount:      "125",
	InvoiceTotalAmount: "128",
	TaxAmount:          "124",
	LineAmount:         "203",
	AllowanceAmount:    "8",
}

var amountQualifierNames = [...]string{
	"",
	"UntaxedAmount",
	"TotalAmount",
	"TaxableAmount",
	"InvoiceTotalAmount",
	"TaxAmount",
	"LineAmount",
	"AllowanceAmount",
}

func (q AmountQualifier) String() string {
	return qualifierName(amountQualifierNames[:], q, "AmountQualifier")
}

func (q AmountQualifier) Code() string {
	return amountQualifierCodes[q]
}

func (q AmountQualifier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// QuantityQualifier is the quantity type code qualifier (6063) used in QTY
type QuantityQualifier uint

const (
	UnknownQuantity QuantityQualifier = iota
	OrderedQuantity
	DespatchQuantity
	InvoicedQuantity
	DeliveredQuantity
	PackQuantity
	ReceivedQuantity
)

var quantityQualifierCodes = map[QuantityQualifier]string{
	OrderedQuantity:   "21",
	DespatchQuantity:  "12",
	InvoicedQuantity:  "47",
	DeliveredQuantity: "46",
	PackQuantity:      "52",
	ReceivedQuantity:  "48",
}

var quantityQualifierNames = [...]string{
	"",
	"OrderedQuantity",
	"DespatchQuantity",
	"InvoicedQuantity",
	"DeliveredQuantity",
	"PackQuantity",
	"ReceivedQuantity",
}

func (q QuantityQualifier) String() string {
	return qualifierName(quantityQualifierNames[:], q, "QuantityQualifier")
}

func (q QuantityQualifier) Code() string {
	return quantityQualifierCodes[q]
}

func (q QuantityQualifier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// PriceQualifier is the price code qualifier (5125) used in PRI
type PriceQualifier uint

const (
	UnknownPrice PriceQualifier = iota
	NetPrice
	GrossPrice
)

var priceQualifierCodes = map[PriceQualifier]string{
	NetPrice:   "AAA",
	GrossPrice: "AAB",
}

var priceQualifierNames = [...]string{"", "NetPrice", "GrossPrice"}

func (q PriceQualifier) String() string {
	return qualifierName(priceQualifierNames[:], q, "PriceQualifier")
}

func (q PriceQualifier) Code() string {
	return priceQualifierCodes[q]
}

func (q PriceQualifier) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// CurrencyQualifier is the currency usage code qualifier (6343) used
// in CUX
type CurrencyQualifier uint

const (
	UnknownCurrency CurrencyQualifier = iota
	ReferenceCurrency
)

var currencyQualifierCodes = map[CurrencyQualifier]string{
	ReferenceCurrency: "2",
}

var currencyQualifierNames = [...]string{"", "ReferenceCurrency"}

func (q CurrencyQualifier) String() string {
	return qualifierName(currencyQualifierNames[:], q, "CurrencyQualifier")
}

func (q CurrencyQualifier) Code() string {
	return currencyQualifierCodes[q]
}

// currencyUsageInvoicing is the currency qualifier (6343) for the
// invoicing currency, written after the usage code in CUX
const currencyUsageInvoicing = "4"

// DateFormat is the date/time/period format code (2379) used in DTM
type DateFormat string

const (
	DateFormatCCYYMMDD       DateFormat = "102"
	DateFormatYYMMDD         DateFormat = "101"
	DateFormatCCYYMMDDHHMM   DateFormat = "203"
	DateFormatCCYYMMDDHHMMSS DateFormat = "204"
)

var dateLayouts = map[DateFormat]string{
	DateFormatCCYYMMDD:       "20060102",
	DateFormatYYMMDD:         "060102",
	DateFormatCCYYMMDDHHMM:   "200601021504",
	DateFormatCCYYMMDDHHMMSS: "20060102150405",
}

// ParseDate parses a DTM value with the given format code
func ParseDate(value string, format DateFormat) (time.Time, error) {
	if format == "" {
		format = DateFormatCCYYMMDD
	}
	layout, ok := dateLayouts[format]
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported date format code '%s'", format)
	}
	return time.Parse(layout, value)
}

// codeLookup builds a reverse lookup table of wire code -> qualifier
func codeLookup[Q comparable](codes map[Q]string) map[string]Q {
	lookup := make(map[string]Q, len(codes))
	for q, code := range codes {
		lookup[code] = q
	}
	return lookup
}

var (
	dateQualifierValues      = codeLookup(dateQualifierCodes)
	referenceQualifierValues = codeLookup(referenceQualifierCodes)
	partyQualifierValues     = codeLookup(partyQualifierCodes)
	amountQualifierValues    = codeLookup(amountQualifierCodes)
	quantityQualifierValues  = codeLookup(quantityQualifierCodes)
	priceQualifierValues     = codeLookup(priceQualifierCodes)
	currencyQualifierValues  = codeLookup(currencyQualifierCodes)
)

// ParseDateQualifier returns the DateQualifier for the given code,
// and false for unknown codes
func ParseDateQualifier(code string) (DateQualifier, bool) {
	q, ok := dateQualifierValues[code]
	return q, ok
}

func ParseReferenceQualifier(code string) (ReferenceQualifier, bool) {
	q, ok := referenceQualifierValues[code]
	return q, ok
}

func ParsePartyQualifier(code string) (PartyQualifier, bool) {
	q, ok := partyQualifierValues[code]
	return q, ok
}

func ParseAmountQualifier(code string) (AmountQualifier, bool) {
	q, ok := amountQualifierValues[code]
	return q, ok
}

func ParseQuantityQualifier(code string) (QuantityQualifier, bool) {
	q, ok := quantityQualifierValues[code]
	return q, ok
}

func ParsePriceQualifier(code string) (PriceQualifier, bool) {
	q, ok := priceQualifierValues[code]
	return q, ok
}

func ParseCurrencyQualifier(code string) (CurrencyQualifier, bool) {
	q, ok := currencyQualifierValues[code]
	return q, ok
}

// qualifierName returns the name of q, or the type name and value for
// a value outside the known qualifiers
func qualifierName[Q ~uint](names []string, q Q, typ string) string {
	if uint(q) < uint(len(names)) {
		return names[q]
	}
	return fmt.Sprintf("%s(%d)", typ, uint(q))
}
