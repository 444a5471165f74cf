package onie

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"net"
	"strings"
)

// TlvInfo layout: 8 byte id string, 1 byte version, 2 byte big endian length of the TLV area
const (
	headerID     = "TlvInfo\x00"
	headerLen    = 11
	tlvHeaderLen = 2
	// MaxSize is the largest TlvInfo image ONIE allows
	MaxSize = 2048
)

// TLV type codes
const (
	TypeProductName     byte = 0x21
	TypePartNumber      byte = 0x22
	TypeSerialNumber    byte = 0x23
	TypeBaseMACAddress  byte = 0x24
	TypeManufactureDate byte = 0x25
	TypeDeviceVersion   byte = 0x26
	TypeLabelRevision   byte = 0x27
	TypePlatformName    byte = 0x28
	TypeONIEVersion     byte = 0x29
	TypeMACAddresses    byte = 0x2A
	TypeManufacturer    byte = 0x2B
	TypeCountryCode     byte = 0x2C
	TypeVendor          byte = 0x2D
	TypeDiagVersion     byte = 0x2E
	TypeServiceTag      byte = 0x2F
	TypeVendorExtension byte = 0xFD
	TypeCRC32           byte = 0xFE
)

var (
	// ErrBadHeader is returned when the image does not start with a TlvInfo header
	ErrBadHeader = errors.New("invalid TlvInfo header")
	// ErrTruncated is returned when a TLV runs past the end of the image
	ErrTruncated = errors.New("truncated TlvInfo image")
	// ErrBadCRC is returned when the CRC-32 TLV does not match the image
	ErrBadCRC = errors.New("TlvInfo CRC-32 mismatch")
)

// Info is the decoded ONIE system EEPROM
type Info struct {
	ProductName      string   `json:"Product Name,omitempty"`
	PartNumber       string   `json:"Part Number,omitempty"`
	SerialNumber     string   `json:"Serial Number,omitempty"`
	MAC              string   `json:"MAC,omitempty"`
	ManufactureDate  string   `json:"Manufacture Date,omitempty"`
	DeviceVersion    *int     `json:"Device Version,omitempty"`
	LabelRevision    string   `json:"Label Revision,omitempty"`
	PlatformName     string   `json:"Platform Name,omitempty"`
	ONIEVersion      string   `json:"ONIE Version,omitempty"`
	MACRange         *int     `json:"MAC Range,omitempty"`
	Manufacturer     string   `json:"Manufacturer,omitempty"`
	CountryCode      string   `json:"Country Code,omitempty"`
	Vendor           string   `json:"Vendor,omitempty"`
	DiagVersion      string   `json:"Diag Version,omitempty"`
	ServiceTag       string   `json:"Service Tag,omitempty"`
	VendorExtensions []string `json:"Vendor Extension,omitempty"`
	CRC              string   `json:"CRC-32,omitempty"`
}

// Decode parses a TlvInfo image. Trailing bytes after the TLV area are ignored.
func Decode(data []byte) (*Info, error) {
	if len(data) < headerLen || !bytes.Equal(data[:len(headerID)], []byte(headerID)) {
		return nil, ErrBadHeader
	}
	if data[8] != 0x01 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, data[8])
	}
	total := int(binary.BigEndian.Uint16(data[9:headerLen]))
	if headerLen+total > MaxSize {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrBadHeader, total, MaxSize)
	}
	if headerLen+total > len(data) {
		return nil, fmt.Errorf("%w: header length %d, have %d bytes", ErrTruncated, total, len(data)-headerLen)
	}

	info := &Info{}
	end := headerLen + total
	offset := headerLen
	for offset < end {
		if offset+tlvHeaderLen > end {
			return nil, fmt.Errorf("%w: tlv header at offset %d", ErrTruncated, offset)
		}
		typ := data[offset]
		l := int(data[offset+1])
		valueStart := offset + tlvHeaderLen
		if valueStart+l > end {
			return nil, fmt.Errorf("%w: tlv 0x%02x at offset %d", ErrTruncated, typ, offset)
		}
		value := data[valueStart : valueStart+l]
		if typ == TypeCRC32 {
			if l != 4 {
				return nil, fmt.Errorf("%w: crc tlv length %d", ErrBadCRC, l)
			}
			want := binary.BigEndian.Uint32(value)
			got := crc32.ChecksumIEEE(data[:valueStart])
			if want != got {
				return nil, fmt.Errorf("%w: stored 0x%08X, computed 0x%08X", ErrBadCRC, want, got)
			}
			info.CRC = fmt.Sprintf("0x%08X", want)
			break
		}
		info.set(typ, value)
		offset = valueStart + l
	}
	if info.CRC == "" {
		return nil, fmt.Errorf("%w: no crc tlv", ErrBadCRC)
	}
	return info, nil
}

func (info *Info) set(typ byte, value []byte) {
	s := strings.TrimRight(string(value), "\x00")
	switch typ {
	case TypeProductName:
		info.ProductName = s
	case TypePartNumber:
		info.PartNumber = s
	case TypeSerialNumber:
		info.SerialNumber = s
	case TypeBaseMACAddress:
		if len(value) == 6 {
			info.MAC = strings.ToUpper(net.HardwareAddr(value).String())
		}
	case TypeManufactureDate:
		info.ManufactureDate = s
	case TypeDeviceVersion:
		if len(value) == 1 {
			v := int(value[0])
			info.DeviceVersion = &v
		}
	case TypeLabelRevision:
		info.LabelRevision = s
	case TypePlatformName:
		info.PlatformName = s
	case TypeONIEVersion:
		info.ONIEVersion = s
	case TypeMACAddresses:
		if len(value) == 2 {
			v := int(binary.BigEndian.Uint16(value))
			info.MACRange = &v
		}
	case TypeManufacturer:
		info.Manufacturer = s
	case TypeCountryCode:
		info.CountryCode = s
	case TypeVendor:
		info.Vendor = s
	case TypeDiagVersion:
		info.DiagVersion = s
	case TypeServiceTag:
		info.ServiceTag = s
	case TypeVendorExtension:
		info.VendorExtensions = append(info.VendorExtensions, fmt.Sprintf("%X", value))
	}
}
