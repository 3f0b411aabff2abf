/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package expr implements the expression trees used to filter record scans.
//
// An expression is built from four node kinds:
//
//   - Const: a literal value
//   - AttrRef: a reference to a record attribute by position or name
//   - Compare: a comparison between two sub-expressions (=, !=, <, <=, >, >=)
//   - Logic: a boolean combination of sub-expressions (AND, OR, NOT)
//
// Expressions are evaluated against a record and its schema. Comparisons
// require both operands to have the same type; there is no implicit
// coercion between INT, STRING, FLOAT, and BOOL.
//
// Example:
//
//	// id > 1 AND name != "bob"
//	pred := expr.NewPredicate(expr.And(
//	    expr.Gt(expr.Attr(0), expr.Int(1)),
//	    expr.Ne(expr.Attr(1), expr.Str("bob")),
//	))
//	scan, err := table.OpenScan(pred)
//
// String comparisons use the collator configured on the Predicate, so a
// case-insensitive or locale-aware scan is a matter of swapping the
// collator, not rewriting the expression.
package expr

import (
	"fmt"
	"strings"

	"flyrec/internal/errors"
	"flyrec/internal/storage"
)

// Expr is the interface implemented by all expression nodes.
// The set of implementations is closed: Const, AttrRef, Compare, Logic.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// Const is a literal value in an expression tree.
type Const struct {
	Val storage.Value
}

func (*Const) exprNode() {}

func (c *Const) String() string {
	if c.Val.Type == storage.TypeString {
		return fmt.Sprintf("%q", c.Val.Str)
	}
	return c.Val.String()
}

// AttrRef references a record attribute, either by schema position or,
// when Name is non-empty, by attribute name looked up against the
// schema at evaluation time.
type AttrRef struct {
	Index int
	Name  string
}

func (*AttrRef) exprNode() {}

func (a *AttrRef) String() string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("#%d", a.Index)
}

// CompareOp identifies a comparison operator.
type CompareOp int

const (
	OpEQ CompareOp = iota // =
	OpNE                  // !=
	OpLT                  // <
	OpLE                  // <=
	OpGT                  // >
	OpGE                  // >=
)

func (op CompareOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return fmt.Sprintf("CompareOp(%d)", int(op))
	}
}

// Compare evaluates two sub-expressions and compares the results.
// Both sides must produce values of the same type.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (*Compare) exprNode() {}

func (c *Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

// LogicOp identifies a boolean combinator.
type LogicOp int

const (
	OpAnd LogicOp = iota
	OpOr
	OpNot
)

func (op LogicOp) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	default:
		return fmt.Sprintf("LogicOp(%d)", int(op))
	}
}

// Logic combines boolean sub-expressions. NOT takes exactly one operand;
// AND and OR take one or more and short-circuit left to right.
type Logic struct {
	Op       LogicOp
	Operands []Expr
}

func (*Logic) exprNode() {}

func (l *Logic) String() string {
	if l.Op == OpNot {
		if len(l.Operands) == 1 {
			return fmt.Sprintf("(NOT %s)", l.Operands[0])
		}
		return "(NOT ?)"
	}
	parts := make([]string, len(l.Operands))
	for i, op := range l.Operands {
		parts[i] = op.String()
	}
	return "(" + strings.Join(parts, " "+l.Op.String()+" ") + ")"
}

// ============================================================================
// Constructors
// ============================================================================

// Int builds a literal INT node.
func Int(v int32) Expr { return &Const{Val: storage.IntValue(v)} }

// Str builds a literal STRING node.
func Str(v string) Expr { return &Const{Val: storage.StringValue(v)} }

// Float builds a literal FLOAT node.
func Float(v float32) Expr { return &Const{Val: storage.FloatValue(v)} }

// Bool builds a literal BOOL node.
func Bool(v bool) Expr { return &Const{Val: storage.BoolValue(v)} }

// Attr builds a reference to the attribute at position i.
func Attr(i int) Expr { return &AttrRef{Index: i} }

// AttrNamed builds a reference to the attribute with the given name.
// The name is resolved against the schema when the expression runs.
func AttrNamed(name string) Expr { return &AttrRef{Index: -1, Name: name} }

// Eq builds left = right.
func Eq(left, right Expr) Expr { return &Compare{Op: OpEQ, Left: left, Right: right} }

// Ne builds left != right.
func Ne(left, right Expr) Expr { return &Compare{Op: OpNE, Left: left, Right: right} }

// Lt builds left < right.
func Lt(left, right Expr) Expr { return &Compare{Op: OpLT, Left: left, Right: right} }

// Le builds left <= right.
func Le(left, right Expr) Expr { return &Compare{Op: OpLE, Left: left, Right: right} }

// Gt builds left > right.
func Gt(left, right Expr) Expr { return &Compare{Op: OpGT, Left: left, Right: right} }

// Ge builds left >= right.
func Ge(left, right Expr) Expr { return &Compare{Op: OpGE, Left: left, Right: right} }

// And combines operands with AND.
func And(operands ...Expr) Expr { return &Logic{Op: OpAnd, Operands: operands} }

// Or combines operands with OR.
func Or(operands ...Expr) Expr { return &Logic{Op: OpOr, Operands: operands} }

// Not negates a boolean expression.
func Not(operand Expr) Expr { return &Logic{Op: OpNot, Operands: []Expr{operand}} }

// ============================================================================
// Evaluation
// ============================================================================

// Evaluator evaluates expression trees against records. The zero value is
// ready to use and compares strings bytewise; set Collator for
// case-insensitive or locale-aware string comparison.
type Evaluator struct {
	Collator storage.Collator
}

// Eval evaluates e against the record and returns the resulting value.
// Comparison nodes produce BOOL values.
func (ev *Evaluator) Eval(rec *storage.Record, schema *storage.Schema, e Expr) (storage.Value, error) {
	if rec == nil {
		return storage.Value{}, errors.NilArgument("record")
	}
	if schema == nil {
		return storage.Value{}, errors.NilArgument("schema")
	}
	if e == nil {
		return storage.Value{}, errors.NilArgument("expression")
	}

	switch node := e.(type) {
	case *Const:
		return node.Val, nil

	case *AttrRef:
		idx := node.Index
		if node.Name != "" {
			var err error
			idx, err = schema.AttrIndex(node.Name)
			if err != nil {
				return storage.Value{}, err
			}
		}
		return rec.Value(schema, idx)

	case *Compare:
		left, err := ev.Eval(rec, schema, node.Left)
		if err != nil {
			return storage.Value{}, err
		}
		right, err := ev.Eval(rec, schema, node.Right)
		if err != nil {
			return storage.Value{}, err
		}
		cmp, err := left.Compare(right, ev.Collator)
		if err != nil {
			return storage.Value{}, err
		}
		var result bool
		switch node.Op {
		case OpEQ:
			result = cmp == 0
		case OpNE:
			result = cmp != 0
		case OpLT:
			result = cmp < 0
		case OpLE:
			result = cmp <= 0
		case OpGT:
			result = cmp > 0
		case OpGE:
			result = cmp >= 0
		default:
			return storage.Value{}, errors.NewInvalidInputError(
				fmt.Sprintf("unknown comparison operator %d", int(node.Op)))
		}
		return storage.BoolValue(result), nil

	case *Logic:
		return ev.evalLogic(rec, schema, node)

	default:
		return storage.Value{}, errors.NewInvalidInputError(
			fmt.Sprintf("unknown expression node %T", e))
	}
}

func (ev *Evaluator) evalLogic(rec *storage.Record, schema *storage.Schema, node *Logic) (storage.Value, error) {
	if node.Op == OpNot {
		if len(node.Operands) != 1 {
			return storage.Value{}, errors.NewInvalidInputError(
				fmt.Sprintf("NOT takes exactly one operand, got %d", len(node.Operands)))
		}
		v, err := ev.evalBool(rec, schema, node.Operands[0])
		if err != nil {
			return storage.Value{}, err
		}
		return storage.BoolValue(!v), nil
	}

	if len(node.Operands) == 0 {
		return storage.Value{}, errors.NewInvalidInputError(
			fmt.Sprintf("%s requires at least one operand", node.Op))
	}

	// Short-circuit: AND stops at the first false, OR at the first true.
	for _, operand := range node.Operands {
		v, err := ev.evalBool(rec, schema, operand)
		if err != nil {
			return storage.Value{}, err
		}
		if node.Op == OpAnd && !v {
			return storage.BoolValue(false), nil
		}
		if node.Op == OpOr && v {
			return storage.BoolValue(true), nil
		}
	}
	return storage.BoolValue(node.Op == OpAnd), nil
}

func (ev *Evaluator) evalBool(rec *storage.Record, schema *storage.Schema, e Expr) (bool, error) {
	v, err := ev.Eval(rec, schema, e)
	if err != nil {
		return false, err
	}
	if v.Type != storage.TypeBool {
		return false, errors.TypeMismatch("BOOL", v.Type.String())
	}
	return v.Bool, nil
}

// Evaluate evaluates e against the record using bytewise string comparison.
func Evaluate(rec *storage.Record, schema *storage.Schema, e Expr) (storage.Value, error) {
	ev := Evaluator{}
	return ev.Eval(rec, schema, e)
}

// ============================================================================
// Predicate
// ============================================================================

// Predicate wraps a boolean expression for use as a scan filter. A nil
// Predicate, or one with a nil Expr, matches every record.
type Predicate struct {
	Expr     Expr
	Collator storage.Collator
}

// NewPredicate wraps e in a Predicate with bytewise string comparison.
func NewPredicate(e Expr) *Predicate {
	return &Predicate{Expr: e}
}

// Matches reports whether the record satisfies the predicate. The wrapped
// expression must produce a BOOL; any other result type is a type error.
func (p *Predicate) Matches(rec *storage.Record, schema *storage.Schema) (bool, error) {
	if p == nil || p.Expr == nil {
		return true, nil
	}
	ev := Evaluator{Collator: p.Collator}
	v, err := ev.Eval(rec, schema, p.Expr)
	if err != nil {
		return false, err
	}
	if v.Type != storage.TypeBool {
		return false, errors.TypeMismatch("BOOL", v.Type.String())
	}
	return v.Bool, nil
}

// String renders the predicate expression, or "true" for a match-all.
func (p *Predicate) String() string {
	if p == nil || p.Expr == nil {
		return "true"
	}
	return p.Expr.String()
}
