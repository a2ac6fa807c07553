// Message shapes and codec for the beacon protocol.
//
// The schema lives in proto/beacon.proto. The messages are small enough
// that they are marshaled by hand with protowire instead of carrying
// generated code; the bytes on the socket are standard protobuf wire
// format and interoperate with protoc-generated clients.

package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/xtxerr/beacon/internal/errors"
)

// PacketType is the explicit discriminant of a request packet.
type PacketType int32

const (
	TypeUnknown    PacketType = 0
	TypeData       PacketType = 1
	TypeStatistics PacketType = 2
)

// String returns the protocol name of the type.
func (t PacketType) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeStatistics:
		return "STATISTICS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(t))
	}
}

// Data is one telemetry sample as sent on the wire.
type Data struct {
	UUID      string
	Timestamp int64 // producer clock, nanoseconds since the Unix epoch
	X         float64
	Y         float64
}

// Packet is the producer request envelope.
type Packet struct {
	Type PacketType
	Data *Data
}

// ClientStats is the per-client entry of a statistics response.
type ClientStats struct {
	UUID string
	X1   float64
	Y1   float64
	X5   float64
	Y5   float64
}

// Statistics is the response to a STATISTICS packet.
type Statistics struct {
	Clients []ClientStats
}

// =============================================================================
// Marshal
// =============================================================================

func appendData(b []byte, d *Data) []byte {
	if d.UUID != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, d.UUID)
	}
	if d.Timestamp != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.Timestamp))
	}
	if d.X != 0 {
		b = protowire.AppendTag(b, 3, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(d.X))
	}
	if d.Y != 0 {
		b = protowire.AppendTag(b, 4, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(d.Y))
	}
	return b
}

// MarshalPacket encodes a packet to protobuf bytes.
func MarshalPacket(p *Packet) []byte {
	var b []byte
	if p.Type != TypeUnknown {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Type))
	}
	if p.Data != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, appendData(nil, p.Data))
	}
	return b
}

func appendClientStats(b []byte, c *ClientStats) []byte {
	if c.UUID != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, c.UUID)
	}
	for i, v := range []float64{c.X1, c.Y1, c.X5, c.Y5} {
		if v != 0 {
			b = protowire.AppendTag(b, protowire.Number(i+2), protowire.Fixed64Type)
			b = protowire.AppendFixed64(b, math.Float64bits(v))
		}
	}
	return b
}

// MarshalStatistics encodes a statistics response to protobuf bytes.
func MarshalStatistics(s *Statistics) []byte {
	var b []byte
	for i := range s.Clients {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, appendClientStats(nil, &s.Clients[i]))
	}
	return b
}

// =============================================================================
// Unmarshal
// =============================================================================

// decodeErr wraps a protowire failure as a protocol decode error.
func decodeErr(msg string, n int) error {
	return fmt.Errorf("%s: %v: %w", msg, protowire.ParseError(n), errors.ErrDecode)
}

func unmarshalData(b []byte) (*Data, error) {
	d := &Data{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeErr("data tag", n)
		}
		b = b[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, decodeErr("data.uuid", n)
			}
			d.UUID = v
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeErr("data.timestamp", n)
			}
			d.Timestamp = int64(v)
			b = b[n:]
		case num == 3 && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, decodeErr("data.x", n)
			}
			d.X = math.Float64frombits(v)
			b = b[n:]
		case num == 4 && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, decodeErr("data.y", n)
			}
			d.Y = math.Float64frombits(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, decodeErr("data unknown field", n)
			}
			b = b[n:]
		}
	}
	return d, nil
}

// UnmarshalPacket decodes a packet from protobuf bytes.
func UnmarshalPacket(b []byte) (*Packet, error) {
	p := &Packet{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeErr("packet tag", n)
		}
		b = b[n:]

		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeErr("packet.type", n)
			}
			p.Type = PacketType(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, decodeErr("packet.data", n)
			}
			d, err := unmarshalData(v)
			if err != nil {
				return nil, err
			}
			p.Data = d
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, decodeErr("packet unknown field", n)
			}
			b = b[n:]
		}
	}
	return p, nil
}

func unmarshalClientStats(b []byte) (ClientStats, error) {
	var c ClientStats
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, decodeErr("client tag", n)
		}
		b = b[n:]

		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return c, decodeErr("client.uuid", n)
			}
			c.UUID = v
			b = b[n:]
			continue
		}

		if num >= 2 && num <= 5 && typ == protowire.Fixed64Type {
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return c, decodeErr("client stat", n)
			}
			f := math.Float64frombits(v)
			switch num {
			case 2:
				c.X1 = f
			case 3:
				c.Y1 = f
			case 4:
				c.X5 = f
			case 5:
				c.Y5 = f
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return c, decodeErr("client unknown field", n)
		}
		b = b[n:]
	}
	return c, nil
}

// UnmarshalStatistics decodes a statistics response from protobuf bytes.
func UnmarshalStatistics(b []byte) (*Statistics, error) {
	s := &Statistics{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeErr("statistics tag", n)
		}
		b = b[n:]

		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, decodeErr("statistics.clients", n)
			}
			c, err := unmarshalClientStats(v)
			if err != nil {
				return nil, err
			}
			s.Clients = append(s.Clients, c)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, decodeErr("statistics unknown field", n)
		}
		b = b[n:]
	}
	return s, nil
}
