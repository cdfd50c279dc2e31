package tlb

import (
	"fmt"

	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb/ast"
)

// thunk is a type expression closed over the environment it was written in.
type thunk struct {
	expr ast.Expr
	env  *env
}

// env binds the naturals and type parameters of one constructor instance.
type env struct {
	nats  map[string]uint64
	types map[string]thunk
}

func newEnv() *env {
	return &env{nats: make(map[string]uint64), types: make(map[string]thunk)}
}

type argKind int

const (
	argNat argKind = iota
	argType
	argOut
)

// arg is an actual parameter of a type application.
type arg struct {
	kind argKind
	nat  uint64
	typ  thunk
	out  ast.Expr
}

func evalNat(e ast.Expr, en *env) (uint64, error) {
	switch x := e.(type) {
	case *ast.Number:
		return x.Value, nil
	case *ast.Ident:
		if v, ok := en.nats[x.Name]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("natural %q is not bound", x.Name)
	case *ast.Tilde:
		return evalNat(x.X, en)
	case *ast.Binary:
		a, err := evalNat(x.X, en)
		if err != nil {
			return 0, err
		}
		b, err := evalNat(x.Y, en)
		if err != nil {
			return 0, err
		}
		switch x.Op {
		case "+":
			return a + b, nil
		case "*":
			return a * b, nil
		}
	}
	return 0, fmt.Errorf("%s is not a natural expression", e)
}

// match unifies a natural pattern with a known value, binding free
// variables of the pattern. It reports false when the value cannot match.
func match(pat ast.Expr, v uint64, en *env) bool {
	switch x := pat.(type) {
	case *ast.Number:
		return x.Value == v
	case *ast.Ident:
		if cur, ok := en.nats[x.Name]; ok {
			return cur == v
		}
		en.nats[x.Name] = v
		return true
	case *ast.Tilde:
		return match(x.X, v, en)
	case *ast.Binary:
		known, free := x.Y, x.X
		c, err := evalNat(known, en)
		if err != nil {
			known, free = x.X, x.Y
			if c, err = evalNat(known, en); err != nil {
				return false
			}
		}
		switch x.Op {
		case "+":
			if v < c {
				return false
			}
			return match(free, v-c, en)
		case "*":
			if c == 0 {
				return v == 0
			}
			if v%c != 0 {
				return false
			}
			return match(free, v/c, en)
		}
	}
	return false
}

func hasTilde(e ast.Expr) bool {
	found := false
	ast.Walk(e, func(x ast.Expr) {
		if _, ok := x.(*ast.Tilde); ok {
			found = true
		}
	})
	return found
}

// constrain applies a {a op b} field: an equation with a ~variable binds
// it, anything else is checked.
func constrain(rel *ast.Binary, en *env, phase errors.Phase) error {
	if rel.Op == "=" && (hasTilde(rel.X) || hasTilde(rel.Y)) {
		solved, known := rel.X, rel.Y
		if hasTilde(rel.Y) {
			solved, known = rel.Y, rel.X
		}
		v, err := evalNat(known, en)
		if err != nil {
			return constraintErr(phase, rel, err.Error())
		}
		if !match(solved, v, en) {
			return constraintErr(phase, rel, fmt.Sprintf("no solution for %d", v))
		}
		return nil
	}

	a, err := evalNat(rel.X, en)
	if err != nil {
		return constraintErr(phase, rel, err.Error())
	}
	b, err := evalNat(rel.Y, en)
	if err != nil {
		return constraintErr(phase, rel, err.Error())
	}
	var ok bool
	switch rel.Op {
	case "=":
		ok = a == b
	case "<=":
		ok = a <= b
	case "<":
		ok = a < b
	case ">=":
		ok = a >= b
	case ">":
		ok = a > b
	}
	if !ok {
		return constraintErr(phase, rel, fmt.Sprintf("%d %s %d does not hold", a, rel.Op, b))
	}
	return nil
}

func constraintErr(phase errors.Phase, rel *ast.Binary, detail string) error {
	return errors.New(phase, errors.KindConstraint).
		Detail("{%s %s %s}: %s", rel.X, rel.Op, rel.Y, detail).
		Build()
}

// bindArgs unifies a constructor's result pattern with the actual
// parameters. Output parameters are resolved after the fields.
func bindArgs(c *Constructor, args []arg, en *env) bool {
	for i, a := range args {
		pat := c.Args[i]
		switch a.kind {
		case argType:
			if id, ok := pat.(*ast.Ident); ok {
				en.types[id.Name] = a.typ
			}
		case argNat:
			if _, isOut := pat.(*ast.Tilde); isOut {
				continue
			}
			if !match(pat, a.nat, en) {
				return false
			}
		}
	}
	return true
}

// outputs evaluates the constructor's ~patterns for every output parameter.
func outputs(c *Constructor, args []arg, en *env, phase errors.Phase) ([]uint64, error) {
	outs := make([]uint64, len(args))
	for i, a := range args {
		if a.kind != argOut {
			continue
		}
		v, err := evalNat(c.Args[i], en)
		if err != nil {
			return nil, errors.New(phase, errors.KindInvalidData).
				TLBType(c.Type.Name).
				Detail("output parameter %d: %v", i, err).
				Build()
		}
		outs[i] = v
	}
	return outs, nil
}

// resolveArgs evaluates the actual parameters of an application of t.
func resolveArgs(t *Type, exprs []ast.Expr, en *env, phase errors.Phase) ([]arg, error) {
	if len(exprs) != len(t.Params) {
		return nil, errors.New(phase, errors.KindInvalidData).
			TLBType(t.Name).
			Detail("expects %d parameters, got %d", len(t.Params), len(exprs)).
			Build()
	}
	args := make([]arg, len(exprs))
	for i, x := range exprs {
		if t.Params[i] == ParamType {
			args[i] = arg{kind: argType, typ: thunk{expr: x, env: en}}
			continue
		}
		if tl, ok := x.(*ast.Tilde); ok {
			args[i] = arg{kind: argOut, out: tl.X}
			continue
		}
		v, err := evalNat(x, en)
		if err != nil {
			return nil, errors.New(phase, errors.KindInvalidData).
				TLBType(t.Name).
				Detail("parameter %d: %v", i, err).
				Build()
		}
		args[i] = arg{kind: argNat, nat: v}
	}
	return args, nil
}

// bindOutputs stores the values produced for ~parameters in the caller's
// environment.
func bindOutputs(args []arg, outs []uint64, en *env, phase errors.Phase) error {
	for i, a := range args {
		if a.kind != argOut {
			continue
		}
		if !match(a.out, outs[i], en) {
			return errors.New(phase, errors.KindConstraint).
				Detail("output %s = %d conflicts with an earlier binding", a.out, outs[i]).
				Build()
		}
	}
	return nil
}
