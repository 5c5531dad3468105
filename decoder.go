// Copyright (c) 2020-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Value is one decoded cell. For nullable attributes Null holds the wire
// indicator byte, zero meaning the value is present. Non nullable attributes
// always carry Null == 0. Data is nil when the value is absent.
type Value struct {
	Null uint8
	Data interface{}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Null != 0
}

// Record is one decoded row, one value per attribute in schema order.
type Record []Value

// fieldSpan locates one encoded field inside the buffer.
type fieldSpan struct {
	offset int
	width  int
}

// Nullable values carry a one byte indicator before the payload, strings a
// four byte little endian length that counts the terminating NUL.
const (
	nullIndicatorSize      = 1
	stringLengthPrefixSize = 4
)

// decodeBuffer turns a binary-saved result into records. The buffer has no
// record markers, so a first pass measures every field to establish
// alignment and a second pass extracts the values. The measured widths
// partition the buffer exactly; any field running past the end fails the
// whole decode and no partial records are returned.
func decodeBuffer(buf []byte, atts []Attribute) ([]Record, error) {
	spans, err := measureBuffer(buf, atts)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(spans))
	for ri, recordSpans := range spans {
		record := make(Record, len(atts))
		for ai := range atts {
			value, err := decodeField(buf, recordSpans[ai], atts[ai], ri)
			if err != nil {
				return nil, err
			}
			record[ai] = value
		}
		records[ri] = record
	}
	return records, nil
}

// measureBuffer walks the buffer once, computing every field's (offset,
// width) pair. The loop exits exactly at the buffer end: a record that does
// not fit fails inside measureField before the offset can overrun.
func measureBuffer(buf []byte, atts []Attribute) ([][]fieldSpan, error) {
	if len(atts) == 0 {
		if len(buf) != 0 {
			return nil, &DecodeError{
				Kind:    SchemaMismatch,
				Message: "buffer is not empty but the schema has no attributes",
			}
		}
		return nil, nil
	}
	var spans [][]fieldSpan
	offset := 0
	for offset < len(buf) {
		recordSpans := make([]fieldSpan, len(atts))
		for i, att := range atts {
			width, err := measureField(buf, offset, att, len(spans))
			if err != nil {
				return nil, err
			}
			recordSpans[i] = fieldSpan{offset: offset, width: width}
			offset += width
		}
		spans = append(spans, recordSpans)
	}
	return spans, nil
}

// measureField returns the encoded width of one field at offset, indicator
// byte included for nullable attributes.
func measureField(buf []byte, offset int, att Attribute, record int) (int, error) {
	indicator := 0
	if !att.NotNull {
		indicator = nullIndicatorSize
	}

	if att.Type == TypeString {
		prefix := indicator + stringLengthPrefixSize
		if offset+prefix > len(buf) {
			return 0, &DecodeError{
				Kind:    MalformedField,
				Record:  record,
				Field:   att.Name,
				Offset:  offset,
				Message: "string length prefix extends past the end of the buffer",
			}
		}
		n := int(binary.LittleEndian.Uint32(buf[offset+indicator:]))
		if n == 0 && (indicator == 0 || buf[offset] == 0) {
			// a present string always counts its terminating NUL
			return 0, &DecodeError{
				Kind:    SchemaMismatch,
				Record:  record,
				Field:   att.Name,
				Offset:  offset,
				Message: "present string has zero length",
			}
		}
		width := prefix + n
		if offset+width > len(buf) {
			return 0, &DecodeError{
				Kind:    TruncatedBuffer,
				Record:  record,
				Field:   att.Name,
				Offset:  offset,
				Message: fmt.Sprintf("string payload of %v bytes extends past the end of the buffer", n),
			}
		}
		return width, nil
	}

	w, ok := att.Type.fixedWidth()
	if !ok {
		return 0, &DecodeError{
			Kind:    SchemaMismatch,
			Record:  record,
			Field:   att.Name,
			Offset:  offset,
			Message: fmt.Sprintf("no known width for type %v", att.Type),
		}
	}
	width := indicator + w
	if offset+width > len(buf) {
		return 0, &DecodeError{
			Kind:    TruncatedBuffer,
			Record:  record,
			Field:   att.Name,
			Offset:  offset,
			Message: fmt.Sprintf("%v byte %v value extends past the end of the buffer", width, att.Type),
		}
	}
	return width, nil
}

// decodeField extracts one typed value at its measured span. For nullable
// attributes the indicator byte is split off first; when it marks the value
// absent the payload bytes are a placeholder and are not interpreted.
func decodeField(buf []byte, span fieldSpan, att Attribute, record int) (Value, error) {
	start := span.offset
	var value Value
	if !att.NotNull {
		value.Null = buf[start]
		start += nullIndicatorSize
	}
	if value.Null != 0 {
		return value, nil
	}
	data, err := decodeScalar(att.Type, buf[start:span.offset+span.width])
	if err != nil {
		return Value{}, &DecodeError{
			Kind:    SchemaMismatch,
			Record:  record,
			Field:   att.Name,
			Offset:  span.offset,
			Message: err.Error(),
		}
	}
	value.Data = data
	return value, nil
}

// decodeScalar interprets the payload bytes of one present value. b starts
// at the payload, after any indicator byte, and spans the rest of the field.
func decodeScalar(t DataType, b []byte) (interface{}, error) {
	switch t {
	case TypeBool:
		return b[0] != 0, nil
	case TypeChar:
		return b[0], nil
	case TypeInt8:
		return int8(b[0]), nil
	case TypeUint8:
		return b[0], nil
	case TypeInt16:
		return int16(binary.LittleEndian.Uint16(b)), nil
	case TypeUint16:
		return binary.LittleEndian.Uint16(b), nil
	case TypeInt32:
		return int32(binary.LittleEndian.Uint32(b)), nil
	case TypeUint32:
		return binary.LittleEndian.Uint32(b), nil
	case TypeInt64:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case TypeUint64:
		return binary.LittleEndian.Uint64(b), nil
	case TypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case TypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case TypeDatetime:
		return time.Unix(int64(binary.LittleEndian.Uint64(b)), 0).UTC(), nil
	case TypeDatetimeTZ:
		// two int64s: seconds since epoch on the local clock, then the
		// zone offset in seconds
		local := int64(binary.LittleEndian.Uint64(b))
		offset := int64(binary.LittleEndian.Uint64(b[8:]))
		return time.Unix(local-offset, 0).In(time.FixedZone("", int(offset))), nil
	case TypeString:
		// the length counts the terminating NUL, the value excludes it
		n := int(binary.LittleEndian.Uint32(b))
		return string(b[stringLengthPrefixSize : stringLengthPrefixSize+n-1]), nil
	}
	return nil, fmt.Errorf(errMsgUnknownDataType, t)
}
