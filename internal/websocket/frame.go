// Package websocket implements the subset of RFC 6455 the room server speaks:
// single-frame messages, masked client frames, unmasked server frames, and
// the raw 101 handshake. Fragmentation and extensions are not supported.
package websocket

import (
	"encoding/binary"
	"errors"
	"math"
)

// Opcode identifies the type of a frame.
type Opcode uint8

const (
	OpcodeContinuation Opcode = 0x0
	OpcodeText         Opcode = 0x1
	OpcodeBinary       Opcode = 0x2
	OpcodeClose        Opcode = 0x8
	OpcodePing         Opcode = 0x9
	OpcodePong         Opcode = 0xA
)

func (o Opcode) String() string {
	switch o {
	case OpcodeContinuation:
		return "continuation"
	case OpcodeText:
		return "text"
	case OpcodeBinary:
		return "binary"
	case OpcodeClose:
		return "close"
	case OpcodePing:
		return "ping"
	case OpcodePong:
		return "pong"
	default:
		return "unknown"
	}
}

const (
	finBit  = 0x80
	maskBit = 0x80

	len16Marker = 126
	len64Marker = 127

	maxInlineLen = 125
)

// ErrFrameTooLarge is returned when a frame header declares a payload larger
// than the reader is willing to buffer.
var ErrFrameTooLarge = errors.New("websocket: frame payload too large")

// Frame is one decoded frame. Length is the number of bytes the frame
// occupied on the wire, header included.
type Frame struct {
	Opcode  Opcode
	Payload []byte
	Length  int
}

type header struct {
	opcode     Opcode
	masked     bool
	mask       [4]byte
	payloadLen uint64
	size       int
}

// parseHeader reads the frame header at the front of buf. ok is false when
// buf does not hold the full header yet.
func parseHeader(buf []byte) (h header, ok bool) {
	if len(buf) < 2 {
		return h, false
	}

	h.opcode = Opcode(buf[0] & 0x0F)
	h.masked = buf[1]&maskBit != 0
	h.size = 2

	switch n := buf[1] & 0x7F; n {
	case len16Marker:
		if len(buf) < h.size+2 {
			return h, false
		}
		h.payloadLen = uint64(binary.BigEndian.Uint16(buf[h.size:]))
		h.size += 2
	case len64Marker:
		if len(buf) < h.size+8 {
			return h, false
		}
		high := uint64(binary.BigEndian.Uint32(buf[h.size:]))
		low := uint64(binary.BigEndian.Uint32(buf[h.size+4:]))
		h.payloadLen = high<<32 | low
		h.size += 8
	default:
		h.payloadLen = uint64(n)
	}

	if h.masked {
		if len(buf) < h.size+4 {
			return h, false
		}
		copy(h.mask[:], buf[h.size:h.size+4])
		h.size += 4
	}

	return h, true
}

// Decode parses the frame at the front of buf. It returns false when buf
// does not yet contain the whole frame; buf is never modified. The returned
// payload is a copy, already unmasked.
func Decode(buf []byte) (Frame, bool) {
	f, ok, _ := decode(buf, math.MaxInt)
	return f, ok
}

func decode(buf []byte, maxPayload int) (Frame, bool, error) {
	h, ok := parseHeader(buf)
	if !ok {
		return Frame{}, false, nil
	}
	if h.payloadLen > uint64(maxPayload) || h.payloadLen > uint64(math.MaxInt-h.size) {
		return Frame{}, false, ErrFrameTooLarge
	}

	total := h.size + int(h.payloadLen)
	if len(buf) < total {
		return Frame{}, false, nil
	}

	payload := make([]byte, h.payloadLen)
	copy(payload, buf[h.size:total])
	if h.masked {
		for i := range payload {
			payload[i] ^= h.mask[i%4]
		}
	}

	return Frame{Opcode: h.opcode, Payload: payload, Length: total}, true, nil
}

// Encode builds a single unmasked frame with FIN set.
func Encode(payload []byte, opcode Opcode) []byte {
	n := len(payload)

	headerSize := 2
	switch {
	case n > math.MaxUint16:
		headerSize += 8
	case n > maxInlineLen:
		headerSize += 2
	}

	buf := make([]byte, headerSize+n)
	buf[0] = finBit | byte(opcode&0x0F)

	switch headerSize {
	case 2:
		buf[1] = byte(n)
	case 4:
		buf[1] = len16Marker
		binary.BigEndian.PutUint16(buf[2:], uint16(n))
	default:
		buf[1] = len64Marker
		binary.BigEndian.PutUint64(buf[2:], uint64(n))
	}

	copy(buf[headerSize:], payload)
	return buf
}

// EncodeText is shorthand for Encode(payload, OpcodeText).
func EncodeText(payload []byte) []byte {
	return Encode(payload, OpcodeText)
}
