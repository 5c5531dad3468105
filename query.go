// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"fmt"
	"strings"
)

// escapeSingleQuotes prepares text for embedding in an AFL string literal.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// showQuery wraps query so the server describes its output schema instead
// of running it.
func showQuery(query string) string {
	return fmt.Sprintf("show('%s', 'afl')", escapeSingleQuotes(query))
}

// castQuery rewrites query so its dimensions carry the names in schema.
// cast rejects a leading array name, the schema renders without one.
func castQuery(query string, schema *Schema) string {
	return fmt.Sprintf("cast(%s, %s)", query, schema.stringWithoutName())
}

// applyDimsQuery appends each dimension as a like-named attribute and
// projects dimensions first, attributes after, so the saved buffer starts
// with the coordinates. Dimension names must already be unique against the
// attributes, see Schema.MakeDimsUnique.
func applyDimsQuery(query string, schema *Schema) string {
	if len(schema.Dimensions) == 0 {
		return query
	}
	applyArgs := make([]string, 0, 2*len(schema.Dimensions))
	names := make([]string, 0, len(schema.Dimensions)+len(schema.Attributes))
	for _, dim := range schema.Dimensions {
		applyArgs = append(applyArgs, dim.Name, dim.Name)
		names = append(names, dim.Name)
	}
	for _, att := range schema.Attributes {
		names = append(names, att.Name)
	}
	return fmt.Sprintf("project(apply(%s, %s), %s)",
		query, strings.Join(applyArgs, ", "), strings.Join(names, ", "))
}

func setRoleQuery(role string) string {
	return fmt.Sprintf("set_role('%s')", escapeSingleQuotes(role))
}

func setNamespaceQuery(namespace string) string {
	return fmt.Sprintf("set_namespace('%s')", escapeSingleQuotes(namespace))
}
