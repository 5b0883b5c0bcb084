package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	MagicNumber = 0x54

	OpPut   = 0x01
	OpDel   = 0x02
	OpRange = 0x03
	OpSplit = 0x04

	RespOK  = 0x00
	RespErr = 0xFF
	RespVal = 0x01

	headerSize = 8

	// MaxValueSize bounds the value of a single frame, 64 MiB.
	MaxValueSize = 64 << 20
)

var (
	ErrBadMagic      = errors.New("invalid magic number")
	ErrFrameTooLarge = errors.New("frame too large")
)

type Packet struct {
	Op    byte
	Key   []byte
	Value []byte
}

func Encode(w io.Writer, op byte, key []byte, value []byte) error {
	if len(key) > 0xFFFF {
		return fmt.Errorf("key too long: %d bytes", len(key))
	}
	if len(value) > MaxValueSize {
		return fmt.Errorf("%w: value of %d bytes", ErrFrameTooLarge, len(value))
	}

	buf := make([]byte, headerSize, headerSize+len(key)+len(value))
	buf[0] = MagicNumber
	buf[1] = op
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(value)))
	buf = append(buf, key...)
	buf = append(buf, value...)

	_, err := w.Write(buf)
	return err
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadMagic, header[0])
	}

	op := header[1]
	kLen := binary.BigEndian.Uint16(header[2:4])
	vLen := binary.BigEndian.Uint32(header[4:8])
	if vLen > MaxValueSize {
		return nil, fmt.Errorf("%w: value of %d bytes", ErrFrameTooLarge, vLen)
	}

	key := make([]byte, kLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	val := make([]byte, vLen)
	if _, err := io.ReadFull(r, val); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Key: key, Value: val}, nil
}
