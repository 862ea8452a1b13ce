package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/umi-eng/saelient/internal/testutil/testlog"
)

func TestGrowableStorageAppends(t *testing.T) {
	testlog.Start(t)
	var s GrowableStorage
	if err := s.WriteSegment(0, [SegmentLen]byte{1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("write segment 0: %v", err)
	}
	if err := s.WriteSegment(1, [SegmentLen]byte{8, 9, 10, 11, 12, 13, 14}); err != nil {
		t.Fatalf("write segment 1: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	if !bytes.Equal(s.Bytes(), want) {
		t.Fatalf("buffer mismatch: got=% x want=% x", s.Bytes(), want)
	}
}

func TestFixedStorageClipsFinalWindow(t *testing.T) {
	testlog.Start(t)
	region := make([]byte, 16)
	s := NewFixedStorage(region)
	for i := 0; i < 3; i++ {
		seg := [SegmentLen]byte{}
		for j := range seg {
			seg[j] = byte(i*SegmentLen + j)
		}
		if err := s.WriteSegment(i, seg); err != nil {
			t.Fatalf("write segment %d: %v", i, err)
		}
	}
	// Third window holds only two bytes of the region.
	if region[14] != 14 || region[15] != 15 {
		t.Fatalf("final window not written: % x", region[14:])
	}
}

func TestFixedStorageTooSmall(t *testing.T) {
	testlog.Start(t)
	s := NewFixedStorage(make([]byte, 14))
	if err := s.WriteSegment(1, [SegmentLen]byte{}); err != nil {
		t.Fatalf("segment inside region: %v", err)
	}
	if err := s.WriteSegment(2, [SegmentLen]byte{}); !errors.Is(err, ErrStorageTooSmall) {
		t.Fatalf("expected ErrStorageTooSmall, got %v", err)
	}
}
