package check

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/errors"
	"github.com/sunholo/bloodc/internal/types"
)

func spanAt(p ast.Pos) ast.Span { return ast.Span{Start: p, End: p} }

func (tc *TypeContext) reportNotFound(name string, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.TYP003, "typecheck", fmt.Sprintf("unbound name %q", name), spanAt(pos)))
}

func (tc *TypeContext) reportMismatch(expected, found types.Type, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.TYP001, "typecheck",
		fmt.Sprintf("type mismatch: expected %s, found %s", expected, found), spanAt(pos)))
}

func (tc *TypeContext) reportInfinite(msg string, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.TYP002, "typecheck", fmt.Sprintf("infinite type: %s", msg), spanAt(pos)))
}

func (tc *TypeContext) reportUnsupported(feature string, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.TYP012, "typecheck", fmt.Sprintf("unsupported feature: %s", feature), spanAt(pos)))
}

func (tc *TypeContext) reportWrongArity(name string, expected, found int, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.TYP010, "typecheck",
		fmt.Sprintf("%s expects %d argument(s), found %d", name, expected, found), spanAt(pos)))
}

func (tc *TypeContext) reportNoField(ty types.Type, field string, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.TYP008, "typecheck", fmt.Sprintf("%s has no field %q", ty, field), spanAt(pos)))
}

func (tc *TypeContext) reportEffectNotHandled(effect string, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.EFF001, "effects", fmt.Sprintf("effect %q is not handled here", effect), spanAt(pos)))
}

func (tc *TypeContext) reportResumeOutsideHandler(pos ast.Pos) {
	tc.errs.Add(errors.New(errors.EFF002, "effects", "resume used outside a handler operation body", spanAt(pos)))
}

func (tc *TypeContext) reportResumeTypeMismatch(expected, found types.Type, pos ast.Pos) {
	tc.errs.Add(errors.New(errors.EFF003, "effects",
		fmt.Sprintf("resume value type mismatch: expected %s, found %s", expected, found), spanAt(pos)))
}

// unify wraps the unifier call with report emission, returning whether
// it succeeded (checking continues regardless, using types.TError).
func (tc *TypeContext) unify(expected, found types.Type, pos ast.Pos) bool {
	if err := tc.unifier.Unify(expected, found); err != nil {
		if err.Kind == types.InfiniteType {
			tc.reportInfinite(err.Message, pos)
		} else {
			tc.reportMismatch(expected, found, pos)
		}
		return false
	}
	return true
}
