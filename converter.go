// Copyright (c) 2020-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"math"
	"time"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
)

// datetimeTZType is the Arrow shape of a SciDB datetimetz value: the local
// clock reading and the zone offset it was taken in.
var datetimeTZType = arrow.StructOf(
	arrow.Field{Name: "t", Type: arrow.FixedWidthTypes.Timestamp_s},
	arrow.Field{Name: "offset", Type: arrow.PrimitiveTypes.Int64},
)

// rawPairType is the Arrow shape of one nullable cell when null promotion is
// off: the wire indicator byte next to the undecoded-null placeholder value.
func rawPairType(valueType arrow.DataType) arrow.DataType {
	return arrow.StructOf(
		arrow.Field{Name: "null", Type: arrow.PrimitiveTypes.Uint8},
		arrow.Field{Name: "val", Type: valueType},
	)
}

func unknownDataTypeError(t DataType) error {
	return &SciDBError{
		Number:      ErrCodeUnknownDataType,
		Message:     errMsgUnknownDataType,
		MessageArgs: []interface{}{t},
	}
}

// nativeArrowType maps a SciDB type to its Arrow equivalent with no null
// handling applied.
func nativeArrowType(t DataType) (arrow.DataType, error) {
	switch t {
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case TypeChar, TypeString:
		return arrow.BinaryTypes.String, nil
	case TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case TypeUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case TypeUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case TypeUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case TypeUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case TypeFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case TypeDatetime:
		return arrow.FixedWidthTypes.Timestamp_s, nil
	case TypeDatetimeTZ:
		return datetimeTZType, nil
	}
	return nil, unknownDataTypeError(t)
}

func isIntegerType(t DataType) bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return true
	}
	return false
}

// arrowField maps one attribute to an Arrow field. With promotion on,
// nullable integers widen to float64 so an absent value can be written as a
// NaN sentinel, float and double keep their width and also use NaN, and the
// remaining types use Arrow's own null representation. With promotion off,
// every nullable attribute becomes a (null, val) struct carrying the wire
// indicator byte unchanged.
func arrowField(att Attribute, promoteNulls bool) (arrow.Field, error) {
	native, err := nativeArrowType(att.Type)
	if err != nil {
		return arrow.Field{}, err
	}
	if att.NotNull {
		return arrow.Field{Name: att.Name, Type: native}, nil
	}
	if !promoteNulls {
		return arrow.Field{Name: att.Name, Type: rawPairType(native)}, nil
	}
	switch {
	case isIntegerType(att.Type):
		return arrow.Field{Name: att.Name, Type: arrow.PrimitiveTypes.Float64}, nil
	case att.Type == TypeFloat || att.Type == TypeDouble:
		return arrow.Field{Name: att.Name, Type: native}, nil
	}
	return arrow.Field{Name: att.Name, Type: native, Nullable: true}, nil
}

// toFloat64 widens any decoded integer value. The decoder only ever
// produces the exact Go type for each SciDB integer type.
func toFloat64(data interface{}) float64 {
	switch v := data.(type) {
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return math.NaN()
}

// appendPromoted writes one cell under the promoted mapping. Decoder output
// is well formed by contract, so the builder and value types always line up.
func appendPromoted(b array.Builder, att Attribute, v Value) {
	if !att.NotNull && isIntegerType(att.Type) {
		fb := b.(*array.Float64Builder)
		if v.IsNull() {
			fb.Append(math.NaN())
		} else {
			fb.Append(toFloat64(v.Data))
		}
		return
	}
	switch att.Type {
	case TypeFloat:
		fb := b.(*array.Float32Builder)
		if v.IsNull() {
			fb.Append(float32(math.NaN()))
		} else {
			fb.Append(v.Data.(float32))
		}
	case TypeDouble:
		fb := b.(*array.Float64Builder)
		if v.IsNull() {
			fb.Append(math.NaN())
		} else {
			fb.Append(v.Data.(float64))
		}
	default:
		if v.IsNull() {
			b.AppendNull()
			return
		}
		appendNative(b, att.Type, v.Data)
	}
}

// appendRaw writes one cell with promotion off. Nullable cells become a
// (null, val) struct; val holds the type's zero value when the indicator
// marks the cell absent, matching the placeholder semantics of the wire.
func appendRaw(b array.Builder, att Attribute, v Value) {
	if att.NotNull {
		appendNative(b, att.Type, v.Data)
		return
	}
	sb := b.(*array.StructBuilder)
	sb.Append(true)
	sb.FieldBuilder(0).(*array.Uint8Builder).Append(v.Null)
	appendNative(sb.FieldBuilder(1), att.Type, v.Data)
}

// appendNative writes data into the builder for its native Arrow type. nil
// stands for an absent value's placeholder and writes the zero value.
func appendNative(b array.Builder, t DataType, data interface{}) {
	switch t {
	case TypeBool:
		var x bool
		if data != nil {
			x = data.(bool)
		}
		b.(*array.BooleanBuilder).Append(x)
	case TypeChar:
		var x byte
		if data != nil {
			x = data.(byte)
		}
		b.(*array.StringBuilder).Append(string([]byte{x}))
	case TypeString:
		var x string
		if data != nil {
			x = data.(string)
		}
		b.(*array.StringBuilder).Append(x)
	case TypeInt8:
		var x int8
		if data != nil {
			x = data.(int8)
		}
		b.(*array.Int8Builder).Append(x)
	case TypeInt16:
		var x int16
		if data != nil {
			x = data.(int16)
		}
		b.(*array.Int16Builder).Append(x)
	case TypeInt32:
		var x int32
		if data != nil {
			x = data.(int32)
		}
		b.(*array.Int32Builder).Append(x)
	case TypeInt64:
		var x int64
		if data != nil {
			x = data.(int64)
		}
		b.(*array.Int64Builder).Append(x)
	case TypeUint8:
		var x uint8
		if data != nil {
			x = data.(uint8)
		}
		b.(*array.Uint8Builder).Append(x)
	case TypeUint16:
		var x uint16
		if data != nil {
			x = data.(uint16)
		}
		b.(*array.Uint16Builder).Append(x)
	case TypeUint32:
		var x uint32
		if data != nil {
			x = data.(uint32)
		}
		b.(*array.Uint32Builder).Append(x)
	case TypeUint64:
		var x uint64
		if data != nil {
			x = data.(uint64)
		}
		b.(*array.Uint64Builder).Append(x)
	case TypeFloat:
		var x float32
		if data != nil {
			x = data.(float32)
		}
		b.(*array.Float32Builder).Append(x)
	case TypeDouble:
		var x float64
		if data != nil {
			x = data.(float64)
		}
		b.(*array.Float64Builder).Append(x)
	case TypeDatetime:
		var secs int64
		if data != nil {
			secs = data.(time.Time).Unix()
		}
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(secs))
	case TypeDatetimeTZ:
		sb := b.(*array.StructBuilder)
		sb.Append(true)
		var local, offset int64
		if data != nil {
			ts := data.(time.Time)
			_, zoneOffset := ts.Zone()
			offset = int64(zoneOffset)
			local = ts.Unix() + offset
		}
		sb.FieldBuilder(0).(*array.TimestampBuilder).Append(arrow.Timestamp(local))
		sb.FieldBuilder(1).(*array.Int64Builder).Append(offset)
	}
}
