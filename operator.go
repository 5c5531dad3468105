// Copyright (c) 2021-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Op is an unevaluated AFL operator call: an operator name and its argument
// list, rendered to query text only when the expression runs. Nothing
// reaches the server until Evaluate or Fetch.
type Op struct {
	db   *DB
	name string
	args []interface{}
}

// Op starts an operator expression, e.g.
//
//	db.Op("project", db.Op("list"), "name").Fetch(ctx)
//
// Arguments render raw: a string argument is pasted into the query text as
// written, so it can name an array, an attribute or carry an expression.
// Quote string literals yourself. Nested *Op arguments render recursively,
// bool renders lowercase and numbers in their decimal form.
func (db *DB) Op(name string, args ...interface{}) *Op {
	return &Op{db: db, name: name, args: args}
}

func formatOperand(arg interface{}) string {
	switch v := arg.(type) {
	case *Op:
		return v.String()
	case *Schema:
		return v.String()
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// String renders the AFL text of the expression.
func (op *Op) String() string {
	args := make([]string, len(op.args))
	for i, arg := range op.args {
		args[i] = formatOperand(arg)
	}
	return fmt.Sprintf("%s(%s)", op.name, strings.Join(args, ", "))
}

// Evaluate runs the expression, discarding any output.
func (op *Op) Evaluate(ctx context.Context) error {
	return op.db.Exec(ctx, op.String())
}

// Fetch runs the expression and decodes its output.
func (op *Op) Fetch(ctx context.Context, opts ...QueryOption) (*Result, error) {
	return op.db.Query(ctx, op.String(), opts...)
}
