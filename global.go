package edifact

const (
	unaSegmentId = "UNA"
	unbSegmentId = "UNB"
	unzSegmentId = "UNZ"
	unhSegmentId = "UNH"
	untSegmentId = "UNT"
	unsSegmentId = "UNS"
	linSegmentId = "LIN"
	taxSegmentId = "TAX"
	// unaLength is the length of the service string advice, including
	// the UNA tag
	unaLength     = 9
	tagLength     = 3
	unbDateLayout = "060102"
	unbTimeLayout = "1504"
	// defaultElemsPerSeg and defaultCompsPerElem are capacity hints
	// for tokenizing
	defaultSegsPerMessage = 64
	defaultElemsPerSeg    = 16
	defaultCompsPerElem   = 8
)

// Default UN/EDIFACT service characters (ISO 9735 level A/B/C)
const (
	DefaultComponentSeparator = ':'
	DefaultElementSeparator   = '+'
	DefaultDecimalMark        = '.'
	DefaultReleaseCharacter   = '?'
	DefaultRepetitionReserved = ' '
	DefaultSegmentTerminator  = '\''
)

const (
	unbIndexSyntax = iota
	unbIndexSender
	unbIndexRecipient
	unbIndexPrepared
	unbIndexReference
)

const (
	unzIndexMessageCount = iota
	unzIndexReference
)

const (
	unhIndexReference = iota
	unhIndexMessageIdentifier
)

const (
	untIndexSegmentCount = iota
	untIndexReference
)

// messageIdentifier component positions within UNH element 1
const (
	msgIdIndexType = iota
	msgIdIndexVersion
	msgIdIndexRelease
	msgIdIndexAgency
	msgIdIndexAssociation
)

// TAX segment element positions, as laid out by TAX(...)
const (
	taxIndexFunction   = 0
	taxIndexType       = 1
	taxIndexTaxable    = 3
	taxIndexRateDetail = 4
	taxRateComponent   = 3
)
