// Copyright (c) 2021-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// trimName strips the quotes SciDB puts around names in saved list output.
func trimName(s string) string {
	return strings.Trim(s, "'")
}

// Arrays returns the names of the arrays in the catalog.
func (db *DB) Arrays(ctx context.Context) ([]string, error) {
	lines, err := db.QueryLines(ctx, "project(list(), name)")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(lines))
	for i, line := range lines {
		names[i] = trimName(line)
	}
	return names, nil
}

// HasArray reports whether an array with the given name exists. The catalog
// changes with every store, so this always asks the server.
func (db *DB) HasArray(ctx context.Context, name string) (bool, error) {
	names, err := db.Arrays(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// operatorSet fetches the installed operators once and caches them.
// Operators only change when plugins are loaded, which does not happen
// within a client's lifetime.
func (db *DB) operatorSet(ctx context.Context) ([]string, map[string]bool, error) {
	db.opMu.Lock()
	defer db.opMu.Unlock()
	if db.opSet == nil {
		lines, err := db.QueryLines(ctx, "project(list('operators'), name)")
		if err != nil {
			return nil, nil, err
		}
		names := make([]string, len(lines))
		set := make(map[string]bool, len(lines))
		for i, line := range lines {
			name := trimName(line)
			names[i] = name
			set[name] = true
		}
		db.operators = names
		db.opSet = set
	}
	return db.operators, db.opSet, nil
}

// Operators returns the names of the installed operators, including any
// loaded plugins.
func (db *DB) Operators(ctx context.Context) ([]string, error) {
	names, _, err := db.operatorSet(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), names...), nil
}

// HasOperator reports whether the server knows the named operator.
func (db *DB) HasOperator(ctx context.Context, name string) (bool, error) {
	_, set, err := db.operatorSet(ctx)
	if err != nil {
		return false, err
	}
	return set[name], nil
}

// CreateArray creates a named array with the given schema text. Temporary
// arrays do not survive a server restart.
func (db *DB) CreateArray(ctx context.Context, name, schema string, temporary bool) error {
	return db.Exec(ctx, fmt.Sprintf("create_array(%s, %s, %s)",
		name, schema, strconv.FormatBool(temporary)))
}

// RemoveArray drops an array and its data.
func (db *DB) RemoveArray(ctx context.Context, name string) error {
	return db.Exec(ctx, fmt.Sprintf("remove(%s)", name))
}
