package fluorsim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

const exrMagic = 20000630

const (
	exrCompressionZip = 3
	exrPixelFloat     = 2
	exrZipBlockLines  = 16
)

// EncodeEXR writes the buffer as a scanline OpenEXR image with a single
// 32-bit float luminance ("Y") channel and ZIP compression, preserving the
// simulated sample values exactly. Each 16-line block is byte-shuffled,
// delta-predicted and deflated, matching the standard ZIP pipeline.
func EncodeEXR(w io.Writer, buf *Buffer) error {
	if buf.W <= 0 || buf.H <= 0 {
		return errors.New("invalid buffer dimensions")
	}

	var hdr bytes.Buffer

	writeEXRU32(&hdr, exrMagic)
	writeEXRU32(&hdr, 2) // version 2, scanline, no extended features

	box := make([]byte, 16)
	binary.LittleEndian.PutUint32(box[8:12], uint32(buf.W-1))
	binary.LittleEndian.PutUint32(box[12:16], uint32(buf.H-1))

	writeEXRAttr(&hdr, "channels", "chlist", exrChannelListY())
	writeEXRAttr(&hdr, "compression", "compression", []byte{exrCompressionZip})
	writeEXRAttr(&hdr, "dataWindow", "box2i", box)
	writeEXRAttr(&hdr, "displayWindow", "box2i", box)
	writeEXRAttr(&hdr, "lineOrder", "lineOrder", []byte{0})
	writeEXRAttr(&hdr, "pixelAspectRatio", "float", exrFloat(1))
	writeEXRAttr(&hdr, "screenWindowCenter", "v2f", make([]byte, 8))
	writeEXRAttr(&hdr, "screenWindowWidth", "float", exrFloat(1))
	hdr.WriteByte(0) // header terminator

	blockCount := (buf.H + exrZipBlockLines - 1) / exrZipBlockLines
	blocks := make([][]byte, 0, blockCount)
	for block := 0; block < blockCount; block++ {
		startY := block * exrZipBlockLines
		lines := exrZipBlockLines
		if startY+lines > buf.H {
			lines = buf.H - startY
		}
		compressed, err := exrCompressBlock(buf, startY, lines)
		if err != nil {
			return err
		}
		blocks = append(blocks, compressed)
	}

	// Offsets are absolute file positions of each block's scanline header.
	offset := uint64(hdr.Len()) + 8*uint64(blockCount)
	for _, blk := range blocks {
		writeEXRU64(&hdr, offset)
		offset += 8 + uint64(len(blk))
	}

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	for block, blk := range blocks {
		var bh [8]byte
		binary.LittleEndian.PutUint32(bh[0:4], uint32(block*exrZipBlockLines))
		binary.LittleEndian.PutUint32(bh[4:8], uint32(len(blk)))
		if _, err := w.Write(bh[:]); err != nil {
			return err
		}
		if _, err := w.Write(blk); err != nil {
			return err
		}
	}
	return nil
}

// exrChannelListY encodes a chlist attribute with a single float "Y" channel.
func exrChannelListY() []byte {
	var b bytes.Buffer
	b.WriteString("Y")
	b.WriteByte(0)
	writeEXRU32(&b, exrPixelFloat)
	b.Write([]byte{0, 0, 0, 0}) // pLinear + reserved
	writeEXRU32(&b, 1)          // xSampling
	writeEXRU32(&b, 1)          // ySampling
	b.WriteByte(0)              // list terminator
	return b.Bytes()
}

func exrCompressBlock(buf *Buffer, startY, lines int) ([]byte, error) {
	raw := make([]byte, lines*buf.W*4)
	o := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for x := 0; x < buf.W; x++ {
			binary.LittleEndian.PutUint32(raw[o:o+4], math.Float32bits(buf.Pix[y*buf.W+x]))
			o += 4
		}
	}

	shuffled := shuffleEXRBytes(raw)
	applyEXRPredictor(shuffled)

	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(shuffled); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// shuffleEXRBytes splits even and odd bytes into two halves, the inverse of
// the reader-side unshuffle.
func shuffleEXRBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		out[i] = data[2*i]
		out[n+i] = data[2*i+1]
	}
	return out
}

// applyEXRPredictor delta-encodes in place, biased by 128. Walked backwards
// so each delta is computed against the original previous byte.
func applyEXRPredictor(data []byte) {
	for i := len(data) - 1; i >= 1; i-- {
		data[i] = byte(int(data[i]) - int(data[i-1]) + 128)
	}
}

func writeEXRAttr(b *bytes.Buffer, name, typ string, payload []byte) {
	b.WriteString(name)
	b.WriteByte(0)
	b.WriteString(typ)
	b.WriteByte(0)
	writeEXRU32(b, uint32(len(payload)))
	b.Write(payload)
}

func writeEXRU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func writeEXRU64(b *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.Write(tmp[:])
}

func exrFloat(v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return tmp[:]
}
