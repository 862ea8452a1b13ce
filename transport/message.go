package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/umi-eng/saelient/id"
)

// FrameLen is the size of every transport frame: one CAN 2.0 payload.
const FrameLen = 8

// SegmentLen is the number of payload bytes carried by each DataTransfer.
const SegmentLen = 7

// Transfer size limits from J1939-21: at least two packets, at most 255.
const (
	MinTransferSize uint16 = 9
	MaxTransferSize uint16 = 1785
)

// NoBurstLimit in a burst field tells the sender it may stream every
// remaining packet without waiting for another ClearToSend.
const NoBurstLimit uint8 = 255

// Connection-management multiplexor values. TP.DT has none; it travels on
// its own parameter group.
const (
	muxRequestToSend   uint8 = 16
	muxClearToSend     uint8 = 17
	muxEndOfMessageAck uint8 = 19
	muxConnectionAbort uint8 = 255
)

func putPGN(b []byte, p id.PGN) {
	raw := uint32(p)
	b[0] = byte(raw)
	b[1] = byte(raw >> 8)
	b[2] = byte(raw >> 16)
}

func getPGN(b []byte) id.PGN {
	return id.PGN(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16)
}

// RequestToSend opens a transfer (TP.CM_RTS).
type RequestToSend struct {
	TotalSize    uint16 // declared transfer size in bytes, 9..1785
	TotalPackets uint8  // ceil(TotalSize / 7)
	MaxPackets   uint8  // packets per ClearToSend; NoBurstLimit = unlimited
	PGN          id.PGN
}

// NewRequestToSend derives the packet count from totalSize and validates the
// construction limits. Pass NoBurstLimit for unlimited streaming.
func NewRequestToSend(totalSize uint16, maxPackets uint8, pgn id.PGN) (RequestToSend, error) {
	if totalSize < MinTransferSize || totalSize > MaxTransferSize {
		return RequestToSend{}, fmt.Errorf("%w: %d", ErrTotalSizeRange, totalSize)
	}
	if maxPackets == 0 {
		return RequestToSend{}, ErrBurstLimitZero
	}
	return RequestToSend{
		TotalSize:    totalSize,
		TotalPackets: uint8((totalSize + SegmentLen - 1) / SegmentLen),
		MaxPackets:   maxPackets,
		PGN:          pgn,
	}, nil
}

// Unlimited reports whether the sender may stream without flow control.
func (m RequestToSend) Unlimited() bool {
	return m.MaxPackets == NoBurstLimit
}

func (m RequestToSend) Encode() [FrameLen]byte {
	var b [FrameLen]byte
	b[0] = muxRequestToSend
	binary.LittleEndian.PutUint16(b[1:3], m.TotalSize)
	b[3] = m.TotalPackets
	b[4] = m.MaxPackets
	putPGN(b[5:], m.PGN)
	return b
}

// DecodeRequestToSend parses a TP.CM_RTS frame.
func DecodeRequestToSend(b []byte) (RequestToSend, error) {
	if len(b) != FrameLen {
		return RequestToSend{}, ErrFrameLength
	}
	if b[0] != muxRequestToSend {
		return RequestToSend{}, ErrMultiplexor
	}
	return RequestToSend{
		TotalSize:    binary.LittleEndian.Uint16(b[1:3]),
		TotalPackets: b[3],
		MaxPackets:   b[4],
		PGN:          getPGN(b[5:]),
	}, nil
}

// ClearToSend grants the sender its next burst (TP.CM_CTS).
type ClearToSend struct {
	MaxPackets   uint8 // packets allowed before the next ClearToSend
	NextSequence uint8 // sequence number the receiver expects next
	PGN          id.PGN
}

func (m ClearToSend) Encode() [FrameLen]byte {
	b := [FrameLen]byte{muxClearToSend, m.MaxPackets, m.NextSequence, 0xFF, 0xFF}
	putPGN(b[5:], m.PGN)
	return b
}

// DecodeClearToSend parses a TP.CM_CTS frame.
func DecodeClearToSend(b []byte) (ClearToSend, error) {
	if len(b) != FrameLen {
		return ClearToSend{}, ErrFrameLength
	}
	if b[0] != muxClearToSend {
		return ClearToSend{}, ErrMultiplexor
	}
	return ClearToSend{
		MaxPackets:   b[1],
		NextSequence: b[2],
		PGN:          getPGN(b[5:]),
	}, nil
}

// EndOfMessageAck acknowledges a completed transfer (TP.CM_EndOfMsgAck),
// mirroring the originating RequestToSend.
type EndOfMessageAck struct {
	TotalSize    uint16
	TotalPackets uint8
	PGN          id.PGN
}

func (m EndOfMessageAck) Encode() [FrameLen]byte {
	var b [FrameLen]byte
	b[0] = muxEndOfMessageAck
	binary.LittleEndian.PutUint16(b[1:3], m.TotalSize)
	b[3] = m.TotalPackets
	b[4] = 0xFF
	putPGN(b[5:], m.PGN)
	return b
}

// DecodeEndOfMessageAck parses a TP.CM_EndOfMsgAck frame.
func DecodeEndOfMessageAck(b []byte) (EndOfMessageAck, error) {
	if len(b) != FrameLen {
		return EndOfMessageAck{}, ErrFrameLength
	}
	if b[0] != muxEndOfMessageAck {
		return EndOfMessageAck{}, ErrMultiplexor
	}
	return EndOfMessageAck{
		TotalSize:    binary.LittleEndian.Uint16(b[1:3]),
		TotalPackets: b[3],
		PGN:          getPGN(b[5:]),
	}, nil
}

// AbortReason is the J1939-21 table 6 connection abort code. The underlying
// byte is the wire representation, so unrecognized codes round-trip
// losslessly.
type AbortReason uint8

const (
	AbortMaxConnections     AbortReason = 1
	AbortCanceledBySystem   AbortReason = 2
	AbortTimeout            AbortReason = 3
	AbortCTSWhileTransfer   AbortReason = 4
	AbortRetransmitLimit    AbortReason = 5
	AbortUnexpectedTransfer AbortReason = 6
	AbortBadSequence        AbortReason = 7
	AbortDuplicateSequence  AbortReason = 8
	AbortMessageTooLarge    AbortReason = 9
	AbortCustom             AbortReason = 250
)

func (r AbortReason) String() string {
	switch r {
	case AbortMaxConnections:
		return "max connections"
	case AbortCanceledBySystem:
		return "canceled by system"
	case AbortTimeout:
		return "timeout"
	case AbortCTSWhileTransfer:
		return "cts during data transfer"
	case AbortRetransmitLimit:
		return "retransmit limit reached"
	case AbortUnexpectedTransfer:
		return "unexpected data transfer"
	case AbortBadSequence:
		return "bad sequence number"
	case AbortDuplicateSequence:
		return "duplicate sequence number"
	case AbortMessageTooLarge:
		return "message too large"
	case AbortCustom:
		return "custom"
	default:
		return fmt.Sprintf("reserved(%d)", uint8(r))
	}
}

// AbortRole identifies which end of the connection sent the abort. It
// occupies the low two bits of its byte; the rest are reserved.
type AbortRole uint8

const (
	RoleSender       AbortRole = 0b00
	RoleReceiver     AbortRole = 0b01
	RoleReserved     AbortRole = 0b10
	RoleNotSpecified AbortRole = 0b11

	roleMask uint8 = 0b11
)

func (r AbortRole) String() string {
	switch r {
	case RoleSender:
		return "sender"
	case RoleReceiver:
		return "receiver"
	case RoleReserved:
		return "reserved"
	default:
		return "not specified"
	}
}

// ConnectionAbort terminates a transfer (TP.Conn_Abort).
type ConnectionAbort struct {
	Reason AbortReason
	Role   AbortRole
	PGN    id.PGN
}

func (m ConnectionAbort) Encode() [FrameLen]byte {
	b := [FrameLen]byte{muxConnectionAbort, byte(m.Reason), byte(m.Role) & roleMask, 0xFF, 0xFF}
	putPGN(b[5:], m.PGN)
	return b
}

// DecodeConnectionAbort parses a TP.Conn_Abort frame. Reason and role keep
// their raw wire values for forward compatibility.
func DecodeConnectionAbort(b []byte) (ConnectionAbort, error) {
	if len(b) != FrameLen {
		return ConnectionAbort{}, ErrFrameLength
	}
	if b[0] != muxConnectionAbort {
		return ConnectionAbort{}, ErrMultiplexor
	}
	return ConnectionAbort{
		Reason: AbortReason(b[1]),
		Role:   AbortRole(b[2] & roleMask),
		PGN:    getPGN(b[5:]),
	}, nil
}

// DataTransfer carries one payload segment (TP.DT). Trailing bytes of the
// final segment are padding, conventionally 0xFF.
type DataTransfer struct {
	Sequence uint8
	Data     [SegmentLen]byte
}

func (m DataTransfer) Encode() [FrameLen]byte {
	var b [FrameLen]byte
	b[0] = m.Sequence
	copy(b[1:], m.Data[:])
	return b
}

// DecodeDataTransfer parses a TP.DT frame.
func DecodeDataTransfer(b []byte) (DataTransfer, error) {
	if len(b) != FrameLen {
		return DataTransfer{}, ErrFrameLength
	}
	dt := DataTransfer{Sequence: b[0]}
	copy(dt.Data[:], b[1:])
	return dt, nil
}
