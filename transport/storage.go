package transport

// Storage accumulates reassembled segment bytes. The session calls
// WriteSegment exactly once per accepted sequence number, in ascending
// order, and never retries a segment.
type Storage interface {
	// WriteSegment stores the payload bytes for the zero-based segment
	// index, i.e. sequence number minus one.
	WriteSegment(index int, seg [SegmentLen]byte) error
	// Bytes exposes the accumulated buffer. Only the transfer's declared
	// total size is meaningful; anything beyond is padding or spare
	// capacity.
	Bytes() []byte
}

// GrowableStorage appends segments to an owned buffer. The zero value is
// ready to use.
type GrowableStorage struct {
	buf []byte
}

func (s *GrowableStorage) WriteSegment(index int, seg [SegmentLen]byte) error {
	s.buf = append(s.buf, seg[:]...)
	return nil
}

func (s *GrowableStorage) Bytes() []byte {
	return s.buf
}

// FixedStorage writes segments into a caller-supplied region without
// allocating, for memory-constrained deployments. The region is addressed
// in 7-byte windows; a final window shorter than a full segment is legal
// and the copy is clipped to it.
type FixedStorage struct {
	buf []byte
}

func NewFixedStorage(buf []byte) *FixedStorage {
	return &FixedStorage{buf: buf}
}

func (s *FixedStorage) WriteSegment(index int, seg [SegmentLen]byte) error {
	off := index * SegmentLen
	if off >= len(s.buf) {
		return ErrStorageTooSmall
	}
	copy(s.buf[off:], seg[:])
	return nil
}

func (s *FixedStorage) Bytes() []byte {
	return s.buf
}
