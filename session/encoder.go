package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sort"
)

const (
	recordFormatVersionCurrent = 2
	recordFormatVersionV1      = 1
)

const flagPersistent byte = 1 << 0

var (
	// ErrInvalidRecordVersion is returned by Decode for a zero or missing version byte.
	ErrInvalidRecordVersion = errors.New("invalid session record version")
	// ErrRecordTooLarge is returned by Encode when a field exceeds its length prefix.
	ErrRecordTooLarge = errors.New("session record field too large")
)

// Encode serializes r into the current binary record format.
//
// Layout (big-endian):
//
//	u8  version
//	u8  len(principal) | principal
//	i64 createdAt
//	i64 expiresAt
//	u8  flags                                   (v2+)
//	u16 count | { u8 len(k) | k | u16 len(v) | v } (v2+)
//
// Bag entries are written in key order so equal records encode identically.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil session record")
	}

	var buf bytes.Buffer
	buf.Grow(32 + len(r.PrincipalRef) + 16*len(r.Values))

	buf.WriteByte(recordFormatVersionCurrent)

	if len(r.PrincipalRef) > math.MaxUint8 {
		return nil, ErrRecordTooLarge
	}
	buf.WriteByte(byte(len(r.PrincipalRef)))
	buf.WriteString(r.PrincipalRef)

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	var flags byte
	if r.Persistent {
		flags |= flagPersistent
	}
	buf.WriteByte(flags)

	if len(r.Values) > math.MaxUint16 {
		return nil, ErrRecordTooLarge
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.Values))); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := r.Values[k]
		if len(k) > math.MaxUint8 || len(v) > math.MaxUint16 {
			return nil, ErrRecordTooLarge
		}
		buf.WriteByte(byte(len(k)))
		buf.WriteString(k)
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(v))); err != nil {
			return nil, err
		}
		buf.WriteString(v)
	}

	return buf.Bytes(), nil
}

// Decode parses a blob written by Encode at any format version.
//
// Fields introduced after the blob's version take their zero values
// (Persistent=false, Values=nil). Bytes after the last field this package
// knows about are ignored, so a newer writer does not orphan records held by
// an older reader.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrInvalidRecordVersion
	}
	if version < recordFormatVersionV1 {
		return nil, ErrInvalidRecordVersion
	}

	r := &Record{}

	principal, err := readString8(reader)
	if err != nil {
		return nil, err
	}
	r.PrincipalRef = principal

	if err := binary.Read(reader, binary.BigEndian, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}

	if version == recordFormatVersionV1 {
		return r, nil
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Persistent = flags&flagPersistent != 0

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return r, nil
	}

	r.Values = make(map[string]string, count)
	for i := 0; i < int(count); i++ {
		k, err := readString8(reader)
		if err != nil {
			return nil, err
		}
		var vlen uint16
		if err := binary.Read(reader, binary.BigEndian, &vlen); err != nil {
			return nil, err
		}
		v := make([]byte, vlen)
		if _, err := io.ReadFull(reader, v); err != nil {
			return nil, err
		}
		r.Values[k] = string(v)
	}

	return r, nil
}

func readString8(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", err
	}
	return string(b), nil
}
