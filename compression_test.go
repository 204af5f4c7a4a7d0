package bpx

import (
	"bytes"
	"testing"
)

func TestZlibRoundTripTeesChecksum(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox "), 500)

	var compressed bytes.Buffer
	deflateChk := NewWeakChecksum()
	csize, err := (zlibCodec{}).Deflate(bytes.NewReader(payload), &compressed, deflateChk)
	if err != nil {
		t.Fatal(err)
	}
	if csize <= 0 || csize >= int64(len(payload)) {
		t.Fatalf("csize = %d, expected meaningful compression of %d bytes", csize, len(payload))
	}

	var out bytes.Buffer
	inflateChk := NewWeakChecksum()
	if err := (zlibCodec{}).Inflate(bytes.NewReader(compressed.Bytes()), &out, int(csize), inflateChk); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatal("round-tripped payload mismatch")
	}
	if deflateChk.Finish() != inflateChk.Finish() {
		t.Fatalf("checksum mismatch: deflate=%d inflate=%d", deflateChk.Finish(), inflateChk.Finish())
	}
}

func TestXzRoundTripTeesChecksum(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA, 0xBB, 0xCC, 0xDD}, 4096)

	var compressed bytes.Buffer
	deflateChk := NewCrc32Checksum()
	csize, err := (xzCodec{}).Deflate(bytes.NewReader(payload), &compressed, deflateChk)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	inflateChk := NewCrc32Checksum()
	if err := (xzCodec{}).Inflate(bytes.NewReader(compressed.Bytes()), &out, int(csize), inflateChk); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatal("round-tripped payload mismatch")
	}
	if deflateChk.Finish() != inflateChk.Finish() {
		t.Fatal("checksum mismatch across xz round trip")
	}
}

func TestInflaterForDispatchesByFlagNotType(t *testing.T) {
	if _, ok := inflaterFor(0); ok {
		t.Fatal("no compression flag should select no inflater")
	}
	if codec, ok := inflaterFor(FlagCompressXz); !ok {
		t.Fatal("expected an xz inflater")
	} else if _, isXz := codec.(xzCodec); !isXz {
		t.Fatal("expected xzCodec for FlagCompressXz")
	}
	if codec, ok := inflaterFor(FlagCompressZlib); !ok {
		t.Fatal("expected a zlib inflater")
	} else if _, isZlib := codec.(zlibCodec); !isZlib {
		t.Fatal("expected zlibCodec for FlagCompressZlib")
	}
}
