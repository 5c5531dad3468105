// Copyright (c) 2020-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"fmt"
	"regexp"
	"strings"
)

// Attribute is one payload field of an array. SciDB attributes are nullable
// unless the schema marks them NOT NULL.
type Attribute struct {
	Name        string
	Type        DataType
	NotNull     bool
	Default     string
	Compression string
}

func (a Attribute) String() string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteString(":")
	b.WriteString(string(a.Type))
	if a.NotNull {
		b.WriteString(" NOT NULL")
	}
	if a.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(a.Default)
	}
	if a.Compression != "" {
		b.WriteString(" COMPRESSION '")
		b.WriteString(a.Compression)
		b.WriteString("'")
	}
	return b.String()
}

// Dimension is one coordinate of an array. Bounds are kept verbatim as they
// appear in the schema text since SciDB allows * and ? markers next to
// integers.
type Dimension struct {
	Name         string
	LowValue     string
	HighValue    string
	ChunkOverlap string
	ChunkLength  string
}

func (d Dimension) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.LowValue != "" {
		b.WriteString("=")
		b.WriteString(d.LowValue)
		b.WriteString(":")
		b.WriteString(d.HighValue)
		if d.ChunkOverlap != "" {
			b.WriteString(":")
			b.WriteString(d.ChunkOverlap)
			if d.ChunkLength != "" {
				b.WriteString(":")
				b.WriteString(d.ChunkLength)
			}
		}
	}
	return b.String()
}

// Schema describes the shape of an array or of a query result: dimension
// fields first, then attribute fields, each attribute typed and either
// nullable or NOT NULL.
type Schema struct {
	Name       string
	Attributes []Attribute
	Dimensions []Dimension
}

// Capture groups: 1 name, 2 attributes body, 3 dimensions body. Surrounding
// single quotes appear when the text comes out of a TSV-saved show query.
var schemaRegexp = regexp.MustCompile(
	`^\s*'?\s*([\w@.\-]*)\s*<([^>]*)>\s*(?:\[([^\]]*)\])?\s*'?\s*$`)

// Capture groups: 1 name, 2 type, 3 NOT NULL marker, 4 default, 5 compression.
var attributeRegexp = regexp.MustCompile(
	`(?i)^\s*(\w+)\s*:\s*(\w+)\s*(not\s+null)?\s*(?:default\s+(\S+))?\s*(?:compression\s+'(\w+)')?\s*$`)

// Capture groups: 1 name, 2 low, 3 high, 4 overlap, 5 chunk.
var dimensionRegexp = regexp.MustCompile(
	`^\s*(\w+)\s*(?:=\s*([^:\s;,]+)\s*:\s*([^:\s;,]+)\s*(?::\s*([^:\s;,]+)\s*(?::\s*([^:\s;,]+)\s*)?)?)?$`)

func schemaParseError(text string) error {
	return &SciDBError{
		Number:      ErrCodeSchemaParseFailed,
		Message:     errMsgSchemaParseFailed,
		MessageArgs: []interface{}{text},
	}
}

// ParseSchema parses SciDB schema text, e.g. the output of a show query:
//
//	foo<x:int64,s:string NOT NULL> [i=0:9:0:1000; j=0:*:0:100]
//
// The name is optional, dimension bounds may be integers, * or ?, and
// dimensions may be separated by either ; or ,.
func ParseSchema(text string) (*Schema, error) {
	m := schemaRegexp.FindStringSubmatch(text)
	if m == nil {
		return nil, schemaParseError(text)
	}
	schema := &Schema{Name: m[1]}

	attsBody := strings.TrimSpace(m[2])
	if attsBody == "" {
		return nil, schemaParseError(text)
	}
	for _, chunk := range strings.Split(attsBody, ",") {
		am := attributeRegexp.FindStringSubmatch(chunk)
		if am == nil {
			return nil, schemaParseError(text)
		}
		schema.Attributes = append(schema.Attributes, Attribute{
			Name:        am[1],
			Type:        DataType(strings.ToLower(am[2])),
			NotNull:     am[3] != "",
			Default:     am[4],
			Compression: am[5],
		})
	}

	dimsBody := strings.TrimSpace(m[3])
	if dimsBody != "" {
		chunks := strings.FieldsFunc(dimsBody, func(r rune) bool {
			return r == ';' || r == ','
		})
		for _, chunk := range chunks {
			dm := dimensionRegexp.FindStringSubmatch(chunk)
			if dm == nil {
				return nil, schemaParseError(text)
			}
			schema.Dimensions = append(schema.Dimensions, Dimension{
				Name:         dm[1],
				LowValue:     dm[2],
				HighValue:    dm[3],
				ChunkOverlap: dm[4],
				ChunkLength:  dm[5],
			})
		}
	}
	return schema, nil
}

func (s *Schema) String() string {
	return s.render(true)
}

// stringWithoutName renders the schema for embedding in a cast call, which
// rejects a leading array name.
func (s *Schema) stringWithoutName() string {
	return s.render(false)
}

func (s *Schema) render(withName bool) string {
	var b strings.Builder
	if withName {
		b.WriteString(s.Name)
	}
	b.WriteString("<")
	for i, att := range s.Attributes {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(att.String())
	}
	b.WriteString(">")
	if len(s.Dimensions) > 0 {
		b.WriteString(" [")
		for i, dim := range s.Dimensions {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(dim.String())
		}
		b.WriteString("]")
	}
	return b.String()
}

// clone returns a deep copy so pipeline rewrites never touch a caller
// provided schema.
func (s *Schema) clone() *Schema {
	out := &Schema{Name: s.Name}
	out.Attributes = append(out.Attributes, s.Attributes...)
	out.Dimensions = append(out.Dimensions, s.Dimensions...)
	return out
}

// MakeDimsUnique renames any dimension whose name collides with an
// attribute, appending _1, _2, ... until the name is free. It reports
// whether anything was renamed, in which case the rewritten query must cast
// to the updated schema before dimensions are applied as attributes.
func (s *Schema) MakeDimsUnique() bool {
	used := make(map[string]bool, len(s.Attributes)+len(s.Dimensions))
	for _, att := range s.Attributes {
		used[att.Name] = true
	}
	renamed := false
	for i := range s.Dimensions {
		name := s.Dimensions[i].Name
		if !used[name] {
			used[name] = true
			continue
		}
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s_%d", name, n)
			if !used[candidate] {
				s.Dimensions[i].Name = candidate
				used[candidate] = true
				renamed = true
				break
			}
		}
	}
	return renamed
}

// MakeDimsAtts converts dimensions to leading int64 NOT NULL attributes,
// mirroring what apply and project do to the result on the server.
func (s *Schema) MakeDimsAtts() {
	atts := make([]Attribute, 0, len(s.Dimensions)+len(s.Attributes))
	for _, dim := range s.Dimensions {
		atts = append(atts, Attribute{Name: dim.Name, Type: TypeInt64, NotNull: true})
	}
	s.Attributes = append(atts, s.Attributes...)
	s.Dimensions = nil
}

// AttsFormat returns the binary save format for the attributes, e.g.
// (int64, int64 null). Shim hands this to SciDB so the saved bytes line up
// with the schema the decoder walks.
func (s *Schema) AttsFormat() string {
	parts := make([]string, len(s.Attributes))
	for i, att := range s.Attributes {
		if att.NotNull {
			parts[i] = string(att.Type)
		} else {
			parts[i] = string(att.Type) + " null"
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
