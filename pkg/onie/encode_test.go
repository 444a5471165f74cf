package onie

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// TLV is one type-length-value record
type TLV struct {
	Type  byte
	Value []byte
}

// Encode builds a TlvInfo image from records and appends the CRC-32 TLV
func Encode(tlvs []TLV) ([]byte, error) {
	var body bytes.Buffer
	for _, t := range tlvs {
		if len(t.Value) > 255 {
			return nil, fmt.Errorf("tlv 0x%02x value too long: %d", t.Type, len(t.Value))
		}
		body.WriteByte(t.Type)
		body.WriteByte(byte(len(t.Value)))
		body.Write(t.Value)
	}
	total := body.Len() + tlvHeaderLen + 4
	if headerLen+total > MaxSize {
		return nil, fmt.Errorf("image size %d exceeds %d", headerLen+total, MaxSize)
	}
	var buf bytes.Buffer
	buf.WriteString(headerID)
	buf.WriteByte(0x01)
	_ = binary.Write(&buf, binary.BigEndian, uint16(total))
	buf.Write(body.Bytes())
	buf.WriteByte(TypeCRC32)
	buf.WriteByte(4)
	crc := crc32.ChecksumIEEE(buf.Bytes())
	_ = binary.Write(&buf, binary.BigEndian, crc)
	return buf.Bytes(), nil
}
