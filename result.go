// Copyright (c) 2020-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/apache/arrow/go/v16/arrow/memory"
)

// Result holds one fetched query result: the resolved schema, with
// dimensions already applied as leading attributes unless the query was run
// attributes-only, and the decoded records in buffer order.
type Result struct {
	Schema  *Schema
	QueryID string
	Records []Record
}

// NumRows returns the number of decoded records.
func (res *Result) NumRows() int {
	return len(res.Records)
}

type materializeConfig struct {
	promoteNulls bool
}

// MaterializeOption adjusts how records become an Arrow record batch.
type MaterializeOption func(*materializeConfig)

// WithoutNullPromotion keeps nullable cells as (null, val) structs carrying
// the wire indicator byte instead of promoting absent values to sentinels.
func WithoutNullPromotion() MaterializeOption {
	return func(cfg *materializeConfig) {
		cfg.promoteNulls = false
	}
}

// Materialize builds a columnar Arrow record batch from the decoded
// records, one column per attribute in schema order. By default nulls are
// promoted: nullable integer columns widen to float64 and absent values
// become NaN, float and double columns keep their width with a NaN
// sentinel, and bool, char, string, datetime and datetimetz columns use
// Arrow validity. Release the returned record when done with it.
func (res *Result) Materialize(opts ...MaterializeOption) (arrow.Record, error) {
	cfg := materializeConfig{promoteNulls: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	atts := res.Schema.Attributes
	fields := make([]arrow.Field, len(atts))
	for i, att := range atts {
		field, err := arrowField(att, cfg.promoteNulls)
		if err != nil {
			return nil, err
		}
		fields[i] = field
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()
	for _, record := range res.Records {
		for i, att := range atts {
			if cfg.promoteNulls {
				appendPromoted(builder.Field(i), att, record[i])
			} else {
				appendRaw(builder.Field(i), att, record[i])
			}
		}
	}
	return builder.NewRecord(), nil
}
