// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package expr

import (
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util"
)

// Context provides the environment in which an expression is evaluated.
type Context interface {
	// Resolve returns the address of a symbol, if it is currently known.
	// Symbols which are not known become references, to be resolved later.
	Resolve(name string) (object.Address, bool)
	// Location returns the location of the word currently being assembled,
	// which is where any resulting reference applies.
	Location() object.Address
}

// Result is the outcome of evaluating an expression.  When the expression
// mentions a symbol whose address is not yet known, the value holds only the
// constant part and the reference identifies the symbol.  The kind of the
// reference is determined by how the result is used.
type Result struct {
	Value     object.Address
	Reference util.Option[object.Reference]
}

// Constant constructs a non-relocatable result.
func Constant(value int64) Result {
	return Result{object.Absolute(value), util.None[object.Reference]()}
}

// IsRelocatable determines whether the final value of this result depends on
// the address of some section or symbol.
func (r Result) IsRelocatable() bool {
	return r.Value.IsRelocatable() || r.Reference.HasValue()
}

// Target returns the symbol against which a relocatable result must be
// relocated, along with the constant offset from that symbol.  For a reference
// to an unknown symbol, this is the symbol itself.  Otherwise, it is the
// section containing the address.
func (r Result) Target() (string, int64) {
	if r.Reference.HasValue() {
		return r.Reference.Unwrap().Symbol, r.Value.Value
	}
	//
	return r.Value.Section, r.Value.Value
}

// Evaluate this expression in a given context.  All problems are reported to
// the given logger, and evaluation continues as far as possible so that every
// problem is reported.  On failure, a zero result is returned.
func (t *Tree) Evaluate(ctx Context, logger diag.Logger) (Result, bool) {
	return t.eval(t.root, ctx, logger)
}

func (t *Tree) eval(index int, ctx Context, logger diag.Logger) (Result, bool) {
	n := &t.nodes[index]
	//
	switch {
	case n.Kind == INTEGER:
		return Constant(n.Value), true
	case n.Kind == SYMBOL:
		if addr, ok := ctx.Resolve(n.Symbol); ok {
			return Result{addr, util.None[object.Reference]()}, true
		}
		// Deferred until link time
		ref := object.Reference{Location: ctx.Location(), Symbol: n.Symbol}
		//
		return Result{object.Absolute(0), util.Some(ref)}, true
	case n.Kind == GROUP:
		return t.eval(n.children[0], ctx, logger)
	case n.isBinary():
		// Evaluate both sides first, so both report their own problems.
		lhs, lok := t.eval(n.children[0], ctx, logger)
		rhs, rok := t.eval(n.children[1], ctx, logger)
		//
		if !lok || !rok {
			return Constant(0), false
		}
		//
		return evalBinary(n, lhs, rhs, logger)
	default:
		arg, ok := t.eval(n.children[0], ctx, logger)
		//
		if !ok {
			return Constant(0), false
		}
		//
		return evalUnary(n, arg, logger)
	}
}

func evalBinary(n *entry, lhs Result, rhs Result, logger diag.Logger) (Result, bool) {
	var (
		lrel = lhs.IsRelocatable()
		rrel = rhs.IsRelocatable()
	)
	//
	switch n.Operator {
	case ADD:
		if lrel && rrel {
			return fail(logger, n, diag.RelocatableAdd)
		} else if rrel {
			// k + r
			return Result{rhs.Value.Add(lhs.Value.Value), rhs.Reference}, true
		}
		//
		return Result{lhs.Value.Add(rhs.Value.Value), lhs.Reference}, true
	case SUB:
		if lrel && rrel {
			return fail(logger, n, diag.RelocatableSubtract)
		} else if rrel {
			return fail(logger, n, diag.RelocatableSubtrahend)
		}
		//
		return Result{lhs.Value.Add(-rhs.Value.Value), lhs.Reference}, true
	case MUL, DIV, MOD, AND, OR, XOR, SHL, SHR:
		if lrel || rrel {
			return fail(logger, n, diag.RelocatableOperand, n.Operator.verb())
		} else if (n.Operator == DIV || n.Operator == MOD) && rhs.Value.Value == 0 {
			return fail(logger, n, diag.DivisionByZero)
		}
		//
		return Constant(Native(n.Operator, lhs.Value.Value, rhs.Value.Value)), true
	}
	//
	panic("unreachable")
}

func evalUnary(n *entry, arg Result, logger diag.Logger) (Result, bool) {
	switch n.Operator {
	case PLUS:
		return arg, true
	case NEG, NOT:
		if arg.IsRelocatable() {
			return fail(logger, n, diag.RelocatableOperand, n.Operator.verb())
		} else if n.Operator == NEG {
			return Constant(-arg.Value.Value), true
		}
		//
		return Constant(^arg.Value.Value), true
	}
	//
	panic("unreachable")
}

func fail(logger diag.Logger, n *entry, kind diag.Kind, args ...any) (Result, bool) {
	diag.Report(logger, kind, n.Token.Location, []string{n.Token.Text}, args...)
	return Constant(0), false
}
