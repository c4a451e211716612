package websocket

import "bytes"

// DefaultMaxPayload bounds the payload a Reassembler will buffer for one frame.
const DefaultMaxPayload = 16 * 1024 * 1024

// Reassembler accumulates socket reads and yields complete frames in arrival
// order. One chunk may hold several frames and one frame may span several
// chunks.
type Reassembler struct {
	buf        bytes.Buffer
	maxPayload int
}

// NewReassembler returns a Reassembler rejecting frames whose payload exceeds
// maxPayload. A non-positive maxPayload selects DefaultMaxPayload.
func NewReassembler(maxPayload int) *Reassembler {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Reassembler{maxPayload: maxPayload}
}

// Feed appends a chunk read from the socket.
func (r *Reassembler) Feed(chunk []byte) {
	r.buf.Write(chunk)
}

// Next returns the next complete frame and consumes its bytes. ok is false
// when more data is needed. A non-nil error means the stream cannot be
// recovered and the connection should be dropped.
func (r *Reassembler) Next() (f Frame, ok bool, err error) {
	f, ok, err = decode(r.buf.Bytes(), r.maxPayload)
	if err != nil || !ok {
		return Frame{}, false, err
	}
	r.buf.Next(f.Length)
	return f, true, nil
}

// Buffered reports how many bytes are waiting for the rest of a frame.
func (r *Reassembler) Buffered() int {
	return r.buf.Len()
}
