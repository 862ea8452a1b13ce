package transport

import "errors"

var (
	// Codec errors. Decoding never consumes or mutates the input frame, so
	// a caller may hand the same bytes to another decoder.
	ErrFrameLength = errors.New("transport: frame is not 8 bytes")
	ErrMultiplexor = errors.New("transport: multiplexor mismatch")

	// Construction contract violations.
	ErrTotalSizeRange = errors.New("transport: total size outside 9..1785")
	ErrPacketCount    = errors.New("transport: packet count does not match total size")
	ErrBurstLimitZero = errors.New("transport: burst limit must be at least one packet")

	// Session failures. All are terminal; recovery means discarding the
	// session and renegotiating the transfer at a higher layer.
	ErrStorageTooSmall  = errors.New("transport: storage too small for transfer")
	ErrBadSequence      = errors.New("transport: data transfer out of sequence")
	ErrPreviousAbort    = errors.New("transport: transfer already aborted")
	ErrTransferComplete = errors.New("transport: transfer already complete")
)

// AbortError couples a session failure with the ConnectionAbort frame the
// caller must transmit to the sender before discarding the session. Err is
// one of the session sentinel errors and matchable with errors.Is.
type AbortError struct {
	Err   error
	Abort ConnectionAbort
}

func (e *AbortError) Error() string {
	return e.Err.Error()
}

func (e *AbortError) Unwrap() error {
	return e.Err
}
