package websocket

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 125, 126, 127, 65535, 65536, 70000}
	opcodes := []Opcode{OpcodeText, OpcodeBinary, OpcodePing, OpcodePong, OpcodeClose}

	for _, size := range sizes {
		payload := bytes.Repeat([]byte{'x'}, size)
		for _, op := range opcodes {
			encoded := Encode(payload, op)

			f, ok := Decode(encoded)
			if !ok {
				t.Fatalf("size %d opcode %s: decode returned incomplete", size, op)
			}
			if f.Opcode != op {
				t.Errorf("size %d: opcode = %s, want %s", size, f.Opcode, op)
			}
			if !bytes.Equal(f.Payload, payload) {
				t.Errorf("size %d opcode %s: payload mismatch", size, op)
			}
			if f.Length != len(encoded) {
				t.Errorf("size %d: length = %d, want %d", size, f.Length, len(encoded))
			}
		}
	}
}

func TestEncodeHeaderTiers(t *testing.T) {
	tests := []struct {
		size       int
		headerSize int
		lenByte    byte
	}{
		{0, 2, 0},
		{125, 2, 125},
		{126, 4, 126},
		{65535, 4, 126},
		{65536, 10, 127},
	}

	for _, tt := range tests {
		out := Encode(make([]byte, tt.size), OpcodeText)
		if len(out) != tt.headerSize+tt.size {
			t.Errorf("size %d: frame length = %d, want %d", tt.size, len(out), tt.headerSize+tt.size)
		}
		if out[0] != 0x81 {
			t.Errorf("size %d: first byte = %#x, want 0x81", tt.size, out[0])
		}
		if out[1]&0x80 != 0 {
			t.Errorf("size %d: server frame must not be masked", tt.size)
		}
		if out[1]&0x7F != tt.lenByte {
			t.Errorf("size %d: length indicator = %d, want %d", tt.size, out[1]&0x7F, tt.lenByte)
		}
	}
}

// maskedFrame builds a client-style frame the way a browser would.
func maskedFrame(op Opcode, payload []byte, mask [4]byte) []byte {
	unmasked := Encode(payload, op)
	headerSize := len(unmasked) - len(payload)

	out := make([]byte, 0, len(unmasked)+4)
	out = append(out, unmasked[:headerSize]...)
	out[1] |= 0x80
	out = append(out, mask[:]...)
	for i, b := range payload {
		out = append(out, b^mask[i%4])
	}
	return out
}

func TestDecodeMasked(t *testing.T) {
	mask := [4]byte{0x37, 0xfa, 0x21, 0x3d}

	for _, size := range []int{1, 2, 3, 5, 7, 126, 1001} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte('a' + i%26)
		}

		f, ok := Decode(maskedFrame(OpcodeText, payload, mask))
		if !ok {
			t.Fatalf("size %d: decode returned incomplete", size)
		}
		if !bytes.Equal(f.Payload, payload) {
			t.Errorf("size %d: unmasked payload = %q, want %q", size, f.Payload, payload)
		}
	}
}

func TestDecodeMaskedHello(t *testing.T) {
	// RFC 6455 section 5.7 single-frame masked text "Hello".
	raw := []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}

	f, ok := Decode(raw)
	if !ok {
		t.Fatal("decode returned incomplete")
	}
	if string(f.Payload) != "Hello" {
		t.Errorf("payload = %q, want %q", f.Payload, "Hello")
	}
	if f.Length != len(raw) {
		t.Errorf("length = %d, want %d", f.Length, len(raw))
	}
}

func TestDecodePartialLeavesBufferUntouched(t *testing.T) {
	full := maskedFrame(OpcodeText, bytes.Repeat([]byte("abc"), 100), [4]byte{1, 2, 3, 4})

	for cut := 0; cut < len(full); cut++ {
		buf := append([]byte(nil), full[:cut]...)
		before := append([]byte(nil), buf...)

		if _, ok := Decode(buf); ok {
			t.Fatalf("cut %d: decode reported a complete frame", cut)
		}
		if !bytes.Equal(buf, before) {
			t.Fatalf("cut %d: buffer was modified", cut)
		}
	}
}

func TestDecode64BitLength(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 70000)
	encoded := Encode(payload, OpcodeBinary)

	if encoded[1] != 127 {
		t.Fatalf("length indicator = %d, want 127", encoded[1])
	}

	f, ok := Decode(encoded)
	if !ok || len(f.Payload) != len(payload) {
		t.Fatalf("decode: ok=%v len=%d", ok, len(f.Payload))
	}
}

func TestReassemblerSplitsAndJoinsChunks(t *testing.T) {
	first := maskedFrame(OpcodeText, []byte(`{"type":"a"}`), [4]byte{9, 8, 7, 6})
	second := maskedFrame(OpcodePing, []byte("abc"), [4]byte{1, 1, 1, 1})
	third := maskedFrame(OpcodeText, bytes.Repeat([]byte("z"), 300), [4]byte{5, 5, 5, 5})

	stream := append(append(append([]byte(nil), first...), second...), third...)

	r := NewReassembler(0)
	var got []Frame

	// Feed in awkward chunk sizes so frames straddle reads and share reads.
	for i := 0; i < len(stream); i += 7 {
		end := i + 7
		if end > len(stream) {
			end = len(stream)
		}
		r.Feed(stream[i:end])
		for {
			f, ok, err := r.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				break
			}
			got = append(got, f)
		}
	}

	if len(got) != 3 {
		t.Fatalf("got %d frames, want 3", len(got))
	}
	if got[0].Opcode != OpcodeText || string(got[0].Payload) != `{"type":"a"}` {
		t.Errorf("frame 0 = %s %q", got[0].Opcode, got[0].Payload)
	}
	if got[1].Opcode != OpcodePing || string(got[1].Payload) != "abc" {
		t.Errorf("frame 1 = %s %q", got[1].Opcode, got[1].Payload)
	}
	if len(got[2].Payload) != 300 {
		t.Errorf("frame 2 payload length = %d, want 300", len(got[2].Payload))
	}
	if r.Buffered() != 0 {
		t.Errorf("buffered = %d, want 0", r.Buffered())
	}
}

func TestReassemblerRejectsOversizedFrame(t *testing.T) {
	r := NewReassembler(1024)
	r.Feed(Encode(make([]byte, 2048), OpcodeBinary)[:10])

	_, ok, err := r.Next()
	if ok {
		t.Fatal("expected no frame")
	}
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
}
