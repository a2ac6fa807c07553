// Package wire provides message framing and the codec for the beacon
// protocol.
//
// Frames are length-delimited using protobuf's standard varint encoding: a
// uvarint byte count followed by the encoded message. This allows efficient
// streaming of variable-length messages over a persistent TCP connection.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/errors"
)

// Reader reads length-delimited frames from an io.Reader.
// It is safe for concurrent use.
type Reader struct {
	r  *bufio.Reader
	mu sync.Mutex
}

// NewReader creates a Reader wrapping the given io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// readFrame reads the next frame payload.
//
// I/O failures (including io.EOF on peer disconnect) are returned
// unwrapped so callers can distinguish transport loss from decode errors.
func (r *Reader) readFrame() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		return nil, err
	}
	if size > config.DefaultMaxMessageSize {
		return nil, fmt.Errorf("frame of %d bytes: %w", size, errors.ErrMessageTooLarge)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadPacket reads and decodes the next request packet.
func (r *Reader) ReadPacket() (*Packet, error) {
	buf, err := r.readFrame()
	if err != nil {
		return nil, err
	}
	return UnmarshalPacket(buf)
}

// ReadStatistics reads and decodes the next statistics response.
func (r *Reader) ReadStatistics() (*Statistics, error) {
	buf, err := r.readFrame()
	if err != nil {
		return nil, err
	}
	return UnmarshalStatistics(buf)
}

// Writer writes length-delimited frames to an io.Writer.
// It is safe for concurrent use.
type Writer struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriter creates a Writer wrapping the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// writeFrame writes one frame as a single Write call so concurrent writers
// never interleave bytes.
func (w *Writer) writeFrame(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := binary.AppendUvarint(make([]byte, 0, len(payload)+binary.MaxVarintLen64), uint64(len(payload)))
	buf = append(buf, payload...)

	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	return nil
}

// WritePacket encodes and writes a request packet.
func (w *Writer) WritePacket(p *Packet) error {
	return w.writeFrame(MarshalPacket(p))
}

// WriteStatistics encodes and writes a statistics response.
func (w *Writer) WriteStatistics(s *Statistics) error {
	return w.writeFrame(MarshalStatistics(s))
}

// Conn combines Reader and Writer for bidirectional communication.
type Conn struct {
	*Reader
	*Writer
}

// NewConn creates a Conn from an io.ReadWriter (e.g., net.Conn).
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		Reader: NewReader(rw),
		Writer: NewWriter(rw),
	}
}
