package model

import (
	"fmt"
	"strings"
)

// FormatExpr renders an expression in a stable surface syntax, used in
// reports and traces. Equal expressions always render identically.
func FormatExpr(e Expr) string {
	switch node := e.(type) {
	case Literal:
		return node.Value.String()
	case ParamRef:
		return "?" + node.Name
	case FluentRef:
		if len(node.Args) == 0 {
			return node.Name
		}
		parts := make([]string, len(node.Args))
		for i, a := range node.Args {
			parts[i] = FormatExpr(a)
		}
		return node.Name + "(" + strings.Join(parts, ", ") + ")"
	case Not:
		return "(not " + FormatExpr(node.X) + ")"
	case Binary:
		return fmt.Sprintf("(%s %s %s)", FormatExpr(node.Left), node.Op, FormatExpr(node.Right))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}
