package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		logger.Debug("Expression is nil, considering it undefined.", "attribute", attrName)
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)

	return isDefined
}

// decodeAttr evaluates a constant attribute, converts it to ty and stores it
// in target. It reports false when the attribute was omitted.
func decodeAttr(ctx context.Context, expr hcl.Expression, attrName string, ty cty.Type, target any) (bool, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return false, fmt.Errorf("attribute '%s': %w", attrName, diags)
	}
	val, err := convert.Convert(val, ty)
	if err != nil {
		return false, fmt.Errorf("%s: attribute '%s' must be %s: %w", expr.Range(), attrName, ty.FriendlyName(), err)
	}
	if err := gocty.FromCtyValue(val, target); err != nil {
		return false, fmt.Errorf("%s: attribute '%s': %w", expr.Range(), attrName, err)
	}
	return true, nil
}
