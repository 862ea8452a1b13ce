package id

import "errors"

// Bit widths from J1939-21 section 5.2: a 29-bit identifier decomposes into
// priority (3), extended data page (1), data page (1), PDU format (8),
// PDU specific (8) and source address (8).
const (
	extendedIDMask = 0x1FFFFFFF
	pgnWireMask    = 0x00FFFFFF
)

var (
	ErrPriorityRange      = errors.New("id: priority above 7")
	ErrMissingPGN         = errors.New("id: builder requires a parameter group number")
	ErrMissingSource      = errors.New("id: builder requires a source address")
	ErrMissingDestination = errors.New("id: PDU1 identifier requires a destination address")
)

// PGN is a parameter group number: the numeric identifier of a message's
// semantic content. Transport messages carry it as a 24-bit little-endian
// wire value; arbitrary values round-trip losslessly.
type PGN uint32

// Parameter groups from J1939-21 appendix C that participate in transport
// and memory-access traffic.
const (
	Request2                PGN = 51456
	Transfer                PGN = 51712
	BootLoadData            PGN = 54784 // DM17
	BinaryDataTransfer      PGN = 55040 // DM16
	MemoryAccessResponse    PGN = 55296 // DM15
	MemoryAccessRequest     PGN = 55552 // DM14
	Acknowledgement         PGN = 59392
	Request                 PGN = 59904
	TransportData           PGN = 60160 // TP.DT
	TransportConnection     PGN = 60416 // TP.CM
	ProprietaryA            PGN = 61184
	ProprietaryA2           PGN = 126720
	ProprietaryBBase        PGN = 65280  // 65280..65535 keyed by group extension
	ProprietaryB2Base       PGN = 130816 // 130816..131071 keyed by group extension
)

// NewPGN masks raw to the 24 bits a transport frame can carry.
func NewPGN(raw uint32) PGN {
	return PGN(raw & pgnWireMask)
}

// PF returns the PDU format byte of the group.
func (p PGN) PF() PDUFormat {
	return PDUFormat(p >> 8)
}

// PDUFormat is the PF byte of an identifier. Values at or above 240 carry a
// group extension (PDU2); lower values carry a destination address (PDU1).
type PDUFormat uint8

// PDU2 reports whether the format addresses a group extension rather than a
// specific destination.
func (f PDUFormat) PDU2() bool {
	return f >= 240
}

// ID is a 29-bit J1939 identifier.
type ID uint32

// New masks raw to 29 bits, discarding any frame-format flag bits a CAN
// driver may have left set.
func New(raw uint32) ID {
	return ID(raw & extendedIDMask)
}

// Raw returns the inner 29-bit value.
func (i ID) Raw() uint32 {
	return uint32(i)
}

// Priority returns the 3-bit priority (P).
func (i ID) Priority() uint8 {
	return uint8(i >> 26)
}

// DataPage returns the data page bit (DP).
func (i ID) DataPage() uint8 {
	return uint8(i>>24) & 1
}

// PF returns the PDU format (PF).
func (i ID) PF() PDUFormat {
	return PDUFormat(i >> 16)
}

// PS returns the PDU specific byte (PS): a destination address for PDU1, a
// group extension for PDU2.
func (i ID) PS() uint8 {
	return uint8(i >> 8)
}

// DestinationAddress returns the destination address for PDU1 identifiers.
func (i ID) DestinationAddress() (uint8, bool) {
	if i.PF().PDU2() {
		return 0, false
	}
	return i.PS(), true
}

// GroupExtension returns the group extension for PDU2 identifiers.
func (i ID) GroupExtension() (uint8, bool) {
	if !i.PF().PDU2() {
		return 0, false
	}
	return i.PS(), true
}

// SourceAddress returns the source address (SA).
func (i ID) SourceAddress() uint8 {
	return uint8(i)
}

// PGN extracts the parameter group number. PDU1 identifiers zero the PS byte
// because it addresses a node, not a group.
func (i ID) PGN() PGN {
	raw := (uint32(i) >> 8) & 0xFFFF
	if !i.PF().PDU2() {
		raw &= 0xFF00
	}
	return PGN(raw)
}

// Builder assembles an identifier from its components. PGN and source
// address are required; PDU1 groups additionally require a destination.
type Builder struct {
	priority    uint8
	hasPriority bool
	pgn         PGN
	hasPGN      bool
	sa          uint8
	hasSA       bool
	da          uint8
	hasDA       bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Priority sets the 3-bit priority. Unset defaults to 6.
func (b *Builder) Priority(p uint8) *Builder {
	b.priority = p
	b.hasPriority = true
	return b
}

// PGN sets the parameter group number.
func (b *Builder) PGN(p PGN) *Builder {
	b.pgn = p
	b.hasPGN = true
	return b
}

// Source sets the source address.
func (b *Builder) Source(sa uint8) *Builder {
	b.sa = sa
	b.hasSA = true
	return b
}

// Destination sets the destination address for PDU1 groups.
func (b *Builder) Destination(da uint8) *Builder {
	b.da = da
	b.hasDA = true
	return b
}

// Build validates the components and assembles the identifier.
func (b *Builder) Build() (ID, error) {
	if !b.hasPGN {
		return 0, ErrMissingPGN
	}
	if !b.hasSA {
		return 0, ErrMissingSource
	}
	priority := uint8(6)
	if b.hasPriority {
		if b.priority > 7 {
			return 0, ErrPriorityRange
		}
		priority = b.priority
	}

	raw := uint32(priority)<<26 | uint32(b.pgn)<<8 | uint32(b.sa)

	if !ID(raw).PF().PDU2() {
		if !b.hasDA {
			return 0, ErrMissingDestination
		}
		raw |= uint32(b.da) << 8
	}

	return ID(raw), nil
}
