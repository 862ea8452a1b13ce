package transport

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// Response is a flow-control frame the receiver must transmit back to the
// sender: either a ClearToSend or an EndOfMessageAck.
type Response interface {
	Encode() [FrameLen]byte
	response()
}

func (ClearToSend) response()     {}
func (EndOfMessageAck) response() {}

// Transfer reassembles one in-flight multi-packet message. It exists only
// for the lifetime of that transfer: it completes or aborts, never resets.
// A Transfer is not safe for concurrent use; drive it from one goroutine or
// lock around it.
type Transfer struct {
	rts       RequestToSend
	rxPackets uint8
	storage   Storage
	aborted   bool
	session   uuid.UUID
	log       zerolog.Logger
}

// NewTransfer starts a session for a received RequestToSend, accumulating
// segments into an owned growable buffer.
func NewTransfer(rts RequestToSend) (*Transfer, error) {
	return NewTransferWithStorage(rts, &GrowableStorage{})
}

// NewTransferWithStorage starts a session that writes into caller-provided
// storage, performing no allocation on the segment path.
func NewTransferWithStorage(rts RequestToSend, storage Storage) (*Transfer, error) {
	if err := validate(rts); err != nil {
		return nil, err
	}
	session, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("transport: session id: %w", err)
	}
	return &Transfer{
		rts:     rts,
		storage: storage,
		session: session,
		log:     zerolog.Nop(),
	}, nil
}

func validate(rts RequestToSend) error {
	if rts.TotalSize < MinTransferSize || rts.TotalSize > MaxTransferSize {
		return fmt.Errorf("%w: %d", ErrTotalSizeRange, rts.TotalSize)
	}
	if want := uint8((rts.TotalSize + SegmentLen - 1) / SegmentLen); rts.TotalPackets != want {
		return fmt.Errorf("%w: got %d want %d", ErrPacketCount, rts.TotalPackets, want)
	}
	if rts.MaxPackets == 0 {
		return ErrBurstLimitZero
	}
	return nil
}

// Session returns the identifier attached to this transfer's log events.
func (t *Transfer) Session() uuid.UUID {
	return t.session
}

// SetLogger attaches a diagnostic logger. Transitions log at debug level,
// aborts at warn. The default logger discards everything.
func (t *Transfer) SetLogger(l zerolog.Logger) {
	t.log = l.With().
		Stringer("session", t.session).
		Uint32("pgn", uint32(t.rts.PGN)).
		Logger()
}

func (t *Transfer) abort(kind error, reason AbortReason) (Response, error) {
	t.aborted = true
	t.log.Warn().Err(kind).Stringer("reason", reason).Msg("transfer aborted")
	return nil, &AbortError{
		Err:   kind,
		Abort: ConnectionAbort{Reason: reason, Role: RoleReceiver, PGN: t.rts.PGN},
	}
}

// Next consumes the next DataTransfer received off the bus.
//
// A nil Response with nil error means the frame was absorbed and the sender
// keeps streaming. A non-nil Response must be transmitted back to the
// sender. A *AbortError carries the ConnectionAbort frame to transmit
// before discarding the session; every such failure is terminal.
func (t *Transfer) Next(dt DataTransfer) (Response, error) {
	if t.aborted {
		// No state change: the sender is repeatedly told the session no
		// longer exists.
		return nil, &AbortError{
			Err:   ErrPreviousAbort,
			Abort: ConnectionAbort{Reason: AbortUnexpectedTransfer, Role: RoleReceiver, PGN: t.rts.PGN},
		}
	}

	if t.rxPackets >= t.rts.TotalPackets {
		// Completed sessions stay readable. Rejecting input here is a
		// caller-side condition, not a protocol abort, so no frame is
		// emitted and no state changes.
		return nil, ErrTransferComplete
	}

	if dt.Sequence != t.rxPackets+1 {
		// Unrecoverable: RTS/CTS transport has no per-segment retransmit,
		// so any ordering violation invalidates the whole session.
		t.log.Debug().
			Uint8("sequence", dt.Sequence).
			Uint8("expected", t.rxPackets+1).
			Msg("out-of-order data transfer")
		return t.abort(ErrBadSequence, AbortBadSequence)
	}

	if err := t.storage.WriteSegment(int(t.rxPackets), dt.Data); err != nil {
		return t.abort(fmt.Errorf("%w: segment %d", err, dt.Sequence), AbortCustom)
	}

	t.rxPackets++

	if t.rxPackets == t.rts.TotalPackets {
		t.log.Debug().Uint8("packets", t.rxPackets).Msg("transfer complete")
		return EndOfMessageAck{
			TotalSize:    t.rts.TotalSize,
			TotalPackets: t.rts.TotalPackets,
			PGN:          t.rts.PGN,
		}, nil
	}

	if !t.rts.Unlimited() && dt.Sequence%t.rts.MaxPackets == 0 {
		t.log.Debug().Uint8("next_sequence", t.rxPackets+1).Msg("burst boundary")
		return ClearToSend{
			MaxPackets:   t.rts.MaxPackets,
			NextSequence: t.rxPackets + 1,
			PGN:          t.rts.PGN,
		}, nil
	}

	return nil, nil
}

// Finished returns the reassembled payload truncated to the declared total
// size, stripping final-segment padding. It reports false until every
// packet has arrived, and always after an abort.
func (t *Transfer) Finished() ([]byte, bool) {
	if t.aborted || t.rxPackets < t.rts.TotalPackets {
		return nil, false
	}
	buf := t.storage.Bytes()
	if len(buf) > int(t.rts.TotalSize) {
		buf = buf[:t.rts.TotalSize]
	}
	return buf, true
}
