package canbus

import (
	"encoding/binary"
	"errors"
)

const (
	frameLength = 16

	// The first two data bytes of every frame carry the command word, which
	// caps the payload at six bytes.
	maxDataLength = 6

	sffMask = 0x7ff
	effMask = 0x1fffffff
	effFlag = 0x80000000
)

var (
	ErrDataTooLong = errors.New("data length exceeds 6 bytes")
	ErrShortFrame  = errors.New("frame shorter than 16 bytes")
)

// Msg is one exchange with a device node: the node ID it addresses, the
// command word, and up to six bytes of payload. DLC is derived from
// len(Data).
type Msg struct {
	ID   uint32
	Cmd  uint16
	Data []byte
}

// MarshalFrame encodes the message as a 16-byte SocketCAN frame.
func (msg *Msg) MarshalFrame() (raw []byte, err error) {
	if len(msg.Data) > maxDataLength {
		return nil, ErrDataTooLong
	}

	raw = make([]byte, frameLength)

	oid := msg.ID
	if oid != oid&sffMask {
		oid |= effFlag
	}
	binary.LittleEndian.PutUint32(raw[0:4], oid)

	raw[4] = byte(len(msg.Data) + 2) // DLC covers the command word

	binary.LittleEndian.PutUint16(raw[8:10], msg.Cmd)
	copy(raw[10:], msg.Data)

	return raw, nil
}

// UnmarshalFrame decodes a 16-byte SocketCAN frame in place.
func (msg *Msg) UnmarshalFrame(raw []byte) error {
	if len(raw) < frameLength {
		return ErrShortFrame
	}

	oid := binary.LittleEndian.Uint32(raw[0:4])
	if oid&effFlag != 0 {
		msg.ID = oid & effMask
	} else {
		msg.ID = oid & sffMask
	}

	dataLength := int(raw[4]) - 2
	if dataLength < 0 || dataLength > maxDataLength {
		return ErrShortFrame
	}

	msg.Cmd = binary.LittleEndian.Uint16(raw[8:10])
	msg.Data = raw[10 : 10+dataLength]

	return nil
}
