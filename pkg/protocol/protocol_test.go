package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	buf := new(bytes.Buffer)
	key := []byte("price")
	val := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0xE8}

	if err := Encode(buf, OpDel, key, val); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	pkg, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pkg.Op != OpDel {
		t.Errorf("got op %v, want %v", pkg.Op, OpDel)
	}
	if !bytes.Equal(pkg.Key, key) {
		t.Errorf("key mismatch: got %q", pkg.Key)
	}
	if !bytes.Equal(pkg.Value, val) {
		t.Errorf("value mismatch: got %v", pkg.Value)
	}
}

func TestDecodeInvalidMagic(t *testing.T) {
	buf := bytes.NewReader([]byte{0x00, OpPut, 0, 1, 0, 0, 0, 0, 'x'})
	_, err := Decode(buf)
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}

func TestEncodeDecodeEmptyKeyValue(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := Encode(buf, RespOK, nil, nil); err != nil {
		t.Fatalf("Encode empty failed: %v", err)
	}
	pkg, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pkg.Op != RespOK || len(pkg.Key) != 0 || len(pkg.Value) != 0 {
		t.Errorf("unexpected result: %+v", pkg)
	}
}

func TestEncodeRejectsLongKey(t *testing.T) {
	if err := Encode(io.Discard, OpPut, make([]byte, 0x10000), nil); err == nil {
		t.Error("expected error for 64KiB key")
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := Encode(buf, OpRange, []byte("f"), []byte("0123456789")); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data := buf.Bytes()[:buf.Len()-3]
	_, err := Decode(bytes.NewReader(data))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestPipelinedPackets(t *testing.T) {
	ops := []byte{OpPut, OpDel, OpRange, OpSplit}
	buf := new(bytes.Buffer)
	for _, op := range ops {
		if err := Encode(buf, op, []byte("field"), []byte("payload")); err != nil {
			t.Fatalf("Encode op %v failed: %v", op, err)
		}
	}

	for _, op := range ops {
		pkg, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode op %v failed: %v", op, err)
		}
		if pkg.Op != op {
			t.Errorf("op %v: got %v", op, pkg.Op)
		}
	}

	if _, err := Decode(buf); err != io.EOF {
		t.Errorf("expected EOF after last packet, got %v", err)
	}
}

func TestFrameSizeLimit(t *testing.T) {
	// header announcing a 4 GiB value and no body
	header := []byte{MagicNumber, OpPut, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := Decode(bytes.NewReader(header))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}

	if err := Encode(io.Discard, OpPut, nil, make([]byte, MaxValueSize+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge on encode, got %v", err)
	}

	buf := new(bytes.Buffer)
	if err := Encode(buf, RespVal, nil, make([]byte, 1024)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := Decode(buf); err != nil {
		t.Errorf("Decode within limit failed: %v", err)
	}
}
