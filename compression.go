package bpx

import (
	"compress/zlib"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// Inflater decompresses a section payload while teeing the decompressed
// bytes through a Checksum. It reads at most csize compressed bytes from src
// starting at its current position and must drain that input exactly so the
// caller can resume sequential parsing afterward.
type Inflater interface {
	Inflate(src io.Reader, dst io.Writer, csize int, chksum Checksum) error
}

// Deflater compresses a section payload while teeing the uncompressed bytes
// through a Checksum, returning the number of compressed bytes emitted to
// dst.
type Deflater interface {
	Deflate(src io.Reader, dst io.Writer, chksum Checksum) (int64, error)
}

type checksumWriter struct {
	c Checksum
}

func (w checksumWriter) Write(p []byte) (int, error) {
	w.c.Push(p)
	return len(p), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// drain reads and discards whatever remains of r, used to absorb trailing
// padding a codec's reader left unconsumed inside its bounded input.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}

// xzCodec implements Inflater/Deflater for XZ-compressed (LZMA2, default
// preset) section payloads.
type xzCodec struct{}

func (xzCodec) Inflate(src io.Reader, dst io.Writer, csize int, chksum Checksum) error {
	bounded := io.LimitReader(src, int64(csize))
	zr, err := xz.NewReader(bounded)
	if err != nil {
		return fmt.Errorf("bpx: xz inflate: %w", err)
	}
	mw := io.MultiWriter(dst, checksumWriter{chksum})
	if _, err := io.Copy(mw, zr); err != nil {
		return fmt.Errorf("bpx: xz inflate: %w", err)
	}
	drain(bounded)
	return nil
}

func (xzCodec) Deflate(src io.Reader, dst io.Writer, chksum Checksum) (int64, error) {
	cw := &countingWriter{w: dst}
	zw, err := xz.NewWriter(cw)
	if err != nil {
		return 0, fmt.Errorf("bpx: xz deflate: %w", err)
	}
	tee := io.TeeReader(src, checksumWriter{chksum})
	if _, err := io.Copy(zw, tee); err != nil {
		return 0, fmt.Errorf("bpx: xz deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("bpx: xz deflate: %w", err)
	}
	return cw.n, nil
}

// zlibCodec implements Inflater/Deflater for the standard zlib/deflate
// stream.
type zlibCodec struct{}

func (zlibCodec) Inflate(src io.Reader, dst io.Writer, csize int, chksum Checksum) error {
	bounded := io.LimitReader(src, int64(csize))
	zr, err := zlib.NewReader(bounded)
	if err != nil {
		return fmt.Errorf("bpx: zlib inflate: %w", err)
	}
	defer zr.Close()
	mw := io.MultiWriter(dst, checksumWriter{chksum})
	if _, err := io.Copy(mw, zr); err != nil {
		return fmt.Errorf("bpx: zlib inflate: %w", err)
	}
	drain(bounded)
	return nil
}

func (zlibCodec) Deflate(src io.Reader, dst io.Writer, chksum Checksum) (int64, error) {
	cw := &countingWriter{w: dst}
	zw := zlib.NewWriter(cw)
	tee := io.TeeReader(src, checksumWriter{chksum})
	if _, err := io.Copy(zw, tee); err != nil {
		return 0, fmt.Errorf("bpx: zlib deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("bpx: zlib deflate: %w", err)
	}
	return cw.n, nil
}

// inflaterFor and deflaterFor select a codec by flag bits, dispatching
// strictly on the flag rather than any static type parameter: a section's
// compression codec is determined by what its header declares, never by
// what kind of section it is.
func inflaterFor(flags uint8) (Inflater, bool) {
	switch {
	case flags&FlagCompressXz != 0:
		return xzCodec{}, true
	case flags&FlagCompressZlib != 0:
		return zlibCodec{}, true
	default:
		return nil, false
	}
}

func deflaterFor(flags uint8) (Deflater, bool) {
	switch {
	case flags&FlagCompressXz != 0:
		return xzCodec{}, true
	case flags&FlagCompressZlib != 0:
		return zlibCodec{}, true
	default:
		return nil, false
	}
}
