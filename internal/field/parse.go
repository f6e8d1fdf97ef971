package field

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/san-kum/flatsim/internal/symbolic"
)

var namedConstants = map[string]float64{
	"pi": math.Pi,
	"Pi": math.Pi,
	"e":  math.E,
}

// Parse builds a vector field from up to four textual expressions, one per
// component in axis order (x, y, z, w). Blank lines and lines starting with
// '#' are ignored.
func Parse(lines []string) (*Field, error) {
	exprs := make([]symbolic.Expr, 0, symbolic.NumAxes)
	source := make([]string, 0, symbolic.NumAxes)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(exprs) == symbolic.NumAxes {
			return nil, &ParseError{Line: i + 1, Text: line, Err: fmt.Errorf("more than %d field components", symbolic.NumAxes)}
		}
		e, err := ParseExpr(line)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Err: err}
		}
		exprs = append(exprs, e)
		source = append(source, line)
	}

	if len(exprs) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("field has no components")}
	}

	return newField(exprs, source), nil
}

// ParseExpr converts a single expression over x, y, z, w into a symbolic tree.
func ParseExpr(input string) (symbolic.Expr, error) {
	tree, err := parser.Parse(input)
	if err != nil {
		return nil, err
	}
	return convert(tree.Node)
}

func convert(node ast.Node) (symbolic.Expr, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return symbolic.Const(float64(n.Value)), nil

	case *ast.FloatNode:
		return symbolic.Const(n.Value), nil

	case *ast.IdentifierNode:
		if v, ok := symbolic.LookupVar(n.Value); ok {
			return v, nil
		}
		if c, ok := namedConstants[n.Value]; ok {
			return symbolic.Const(c), nil
		}
		return nil, fmt.Errorf("undefined variable %q (use x, y, z or w)", n.Value)

	case *ast.UnaryNode:
		operand, err := convert(n.Node)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "-":
			return symbolic.Neg(operand), nil
		case "+":
			return operand, nil
		}
		return nil, fmt.Errorf("unsupported unary operator %q", n.Operator)

	case *ast.BinaryNode:
		left, err := convert(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := convert(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "+":
			return symbolic.Sum(left, right), nil
		case "-":
			return symbolic.Minus(left, right), nil
		case "*":
			return symbolic.Product(left, right), nil
		case "/":
			return symbolic.Quo(left, right), nil
		case "^", "**":
			return symbolic.Power(left, right), nil
		}
		return nil, fmt.Errorf("unsupported operator %q", n.Operator)

	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("unsupported call target")
		}
		return convertCall(callee.Value, n.Arguments)

	case *ast.BuiltinNode:
		return convertCall(n.Name, n.Arguments)
	}

	return nil, fmt.Errorf("unsupported syntax %T", node)
}

func convertCall(name string, args []ast.Node) (symbolic.Expr, error) {
	converted := make([]symbolic.Expr, len(args))
	for i, a := range args {
		e, err := convert(a)
		if err != nil {
			return nil, err
		}
		converted[i] = e
	}

	switch name {
	case "atan2":
		if len(converted) != 2 {
			return nil, fmt.Errorf("atan2 takes 2 arguments, got %d", len(converted))
		}
		return symbolic.NewAtan2(converted[0], converted[1]), nil
	case "pow":
		if len(converted) != 2 {
			return nil, fmt.Errorf("pow takes 2 arguments, got %d", len(converted))
		}
		return symbolic.Power(converted[0], converted[1]), nil
	}

	fn, ok := symbolic.LookupFunc(name)
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	if len(converted) != 1 {
		return nil, fmt.Errorf("%s takes 1 argument, got %d", name, len(converted))
	}
	return symbolic.Apply(fn, converted[0]), nil
}
