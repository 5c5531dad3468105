// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

// DataType is a SciDB attribute type name as it appears in schema text.
type DataType string

// SciDB types supported on the binary wire.
const (
	TypeBool       DataType = "bool"
	TypeChar       DataType = "char"
	TypeInt8       DataType = "int8"
	TypeInt16      DataType = "int16"
	TypeInt32      DataType = "int32"
	TypeInt64      DataType = "int64"
	TypeUint8      DataType = "uint8"
	TypeUint16     DataType = "uint16"
	TypeUint32     DataType = "uint32"
	TypeUint64     DataType = "uint64"
	TypeFloat      DataType = "float"
	TypeDouble     DataType = "double"
	TypeDatetime   DataType = "datetime"
	TypeDatetimeTZ DataType = "datetimetz"
	TypeString     DataType = "string"
)

// fixedWidths maps each fixed width type to its encoded size in bytes.
// string is absent, its width comes from a length prefix on the wire.
var fixedWidths = map[DataType]int{
	TypeBool:       1,
	TypeChar:       1,
	TypeInt8:       1,
	TypeUint8:      1,
	TypeInt16:      2,
	TypeUint16:     2,
	TypeInt32:      4,
	TypeUint32:     4,
	TypeFloat:      4,
	TypeInt64:      8,
	TypeUint64:     8,
	TypeDouble:     8,
	TypeDatetime:   8,
	TypeDatetimeTZ: 16,
}

// fixedWidth returns the encoded byte width of t. Variable width types
// (string) return false.
func (t DataType) fixedWidth() (int, bool) {
	w, ok := fixedWidths[t]
	return w, ok
}

// isSupported reports whether t can be decoded from the binary wire format.
func (t DataType) isSupported() bool {
	if t == TypeString {
		return true
	}
	_, ok := fixedWidths[t]
	return ok
}
