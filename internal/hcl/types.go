package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// TypeExpr converts an HCL type expression such as `string` or
// `list(number)` into its cty.Type. A nil expression means `any`.
func TypeExpr(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		return cty.DynamicPseudoType, nil
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if len(v.Args) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("type constructor %q takes exactly one argument, got %d", v.Name, len(v.Args))
		}
		elem, err := TypeExpr(ctx, v.Args[0])
		if err != nil {
			return cty.DynamicPseudoType, err
		}
		if elem == cty.DynamicPseudoType {
			return cty.DynamicPseudoType, fmt.Errorf("collection types cannot contain type 'any'")
		}
		logger.Debug("Parsed collection type.", "constructor", v.Name, "element", elem.FriendlyName())

		switch v.Name {
		case "list":
			return cty.List(elem), nil
		case "map":
			return cty.Map(elem), nil
		case "set":
			return cty.Set(elem), nil
		}
		return cty.DynamicPseudoType, fmt.Errorf("unknown type constructor %q", v.Name)

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("invalid type keyword: expected a single identifier")
		}
		switch name := v.Traversal.RootName(); name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown primitive type %q", name)
		}
	}
	return cty.DynamicPseudoType, fmt.Errorf("unsupported type expression %T", expr)
}
