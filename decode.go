package seriallog

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names how device bytes are interpreted before reassembly.
type Encoding string

const (
	// EncodingRaw passes bytes through untouched.
	EncodingRaw Encoding = "raw"
	// EncodingUTF8 replaces invalid UTF-8 with U+FFFD.
	EncodingUTF8 Encoding = "utf8"
	// EncodingUTF16LE decodes little-endian UTF-16 to UTF-8.
	EncodingUTF16LE Encoding = "utf16le"
	// EncodingUTF16BE decodes big-endian UTF-16 to UTF-8.
	EncodingUTF16BE Encoding = "utf16be"
)

const decodeChunk = 4096

// Decoder converts a chunked device stream to UTF-8. Decoding is lossy:
// invalid sequences become U+FFFD instead of failing the read. A sequence cut
// by a read boundary is held back and completed by the next call.
type Decoder struct {
	t     transform.Transformer
	carry []byte
	src   []byte
	dst   []byte
	out   []byte
}

// NewDecoder returns a Decoder for enc, or nil for EncodingRaw.
func NewDecoder(enc Encoding) (*Decoder, error) {
	var t transform.Transformer
	switch enc {
	case EncodingRaw, "":
		return nil, nil
	case EncodingUTF8:
		t = unicode.UTF8.NewDecoder()
	case EncodingUTF16LE:
		t = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case EncodingUTF16BE:
		t = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidConfig, enc)
	}
	t.Reset()
	return &Decoder{t: t, dst: make([]byte, decodeChunk)}, nil
}

// Decode converts p, prefixed by whatever the previous call held back. The
// returned slice is reused by the next call.
func (d *Decoder) Decode(p []byte) ([]byte, error) {
	d.src = append(append(d.src[:0], d.carry...), p...)
	d.carry = d.carry[:0]
	d.out = d.out[:0]

	src := d.src
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(d.dst, src, false)
		d.out = append(d.out, d.dst[:nDst]...)
		src = src[nSrc:]
		switch {
		case err == nil:
			return d.out, nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case errors.Is(err, transform.ErrShortSrc):
			d.carry = append(d.carry, src...)
			return d.out, nil
		default:
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	return d.out, nil
}

// Finish decodes whatever the previous call held back as if the stream ended
// there, so an incomplete sequence becomes U+FFFD instead of being lost. The
// decoder is reset and may be reused.
func (d *Decoder) Finish() ([]byte, error) {
	d.out = d.out[:0]
	src := d.carry
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, true)
		d.out = append(d.out, d.dst[:nDst]...)
		src = src[nSrc:]
		if errors.Is(err, transform.ErrShortDst) {
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		break
	}
	d.carry = d.carry[:0]
	d.t.Reset()
	return d.out, nil
}

// Pending reports how many bytes are held back waiting for the rest of a sequence.
func (d *Decoder) Pending() int { return len(d.carry) }
