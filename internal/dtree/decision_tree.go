// Package dtree compiles match arms into a decision tree: a pattern
// matrix is repeatedly split on one column at a time so that runtime
// discrimination avoids retesting the same scrutinee position twice.
// Its output feeds MIR lowering of Match (internal/mir), which turns a
// SwitchNode into a SwitchInt terminator keyed by the same Path;
// internal/check does not use it.
package dtree

import (
	"fmt"

	"github.com/sunholo/bloodc/internal/hir"
)

// DecisionTree is a compiled match: a leaf (arm body to run), a fail
// (non-exhaustive — every reachable case must be ruled out earlier by
// the checker), or a switch on one scrutinee position.
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode is a match with a body to execute.
type LeafNode struct {
	ArmIndex int
	Body     hir.Expr
	Guard    hir.Expr // nil when the arm is unguarded
}

func (l *LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string  { return fmt.Sprintf("Leaf(arm=%d)", l.ArmIndex) }

// FailNode is a case no arm covers; MIR lowering turns it into an
// Unreachable terminator.
type FailNode struct{}

func (f *FailNode) isDecisionTree() {}
func (f *FailNode) String() string  { return "Fail" }

// SwitchNode discriminates on one scrutinee position (Path indexes
// successively-nested constructor fields, e.g. [0,1] = first field of
// the value reached by field 0).
type SwitchNode struct {
	Path    []int
	Cases   map[interface{}]DecisionTree
	Default DecisionTree
}

func (s *SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d, default=%v)", s.Path, len(s.Cases), s.Default != nil)
}

// DecisionTreeCompiler compiles one match expression's arms into a
// DecisionTree.
type DecisionTreeCompiler struct {
	arms []hir.MatchArm
}

func NewDecisionTreeCompiler(arms []hir.MatchArm) *DecisionTreeCompiler {
	return &DecisionTreeCompiler{arms: arms}
}

// Compile builds the decision tree from the arm set, column-splitting
// starting at the scrutinee itself (empty path).
func (c *DecisionTreeCompiler) Compile() DecisionTree {
	var matrix []matchRow
	for i, arm := range c.arms {
		matrix = append(matrix, matchRow{
			patterns: []hir.Pattern{arm.Pattern},
			armIndex: i,
			guard:    arm.Guard,
			body:     arm.Body,
		})
	}
	return c.compileMatrix(matrix, []int{})
}

// matchRow is one row of the pattern matrix: the per-column patterns
// still to be tested, plus the arm they originated from.
type matchRow struct {
	patterns []hir.Pattern
	armIndex int
	guard    hir.Expr
	body     hir.Expr
}

// compileMatrix recursively splits matrix on one column until every row
// is either consumed (a leaf) or the matrix is empty (fail).
func (c *DecisionTreeCompiler) compileMatrix(matrix []matchRow, path []int) DecisionTree {
	if len(matrix) == 0 {
		return &FailNode{}
	}

	if c.isDefaultRow(matrix[0]) {
		return &LeafNode{
			ArmIndex: matrix[0].armIndex,
			Body:     matrix[0].body,
			Guard:    matrix[0].guard,
		}
	}

	colIndex := 0
	if colIndex >= len(matrix[0].patterns) {
		return &LeafNode{
			ArmIndex: matrix[0].armIndex,
			Body:     matrix[0].body,
			Guard:    matrix[0].guard,
		}
	}

	return c.buildSwitch(matrix, path, colIndex)
}

// isDefaultRow reports whether every remaining column of row is a
// wildcard or binding pattern, meaning this row matches unconditionally.
func (c *DecisionTreeCompiler) isDefaultRow(row matchRow) bool {
	for _, pat := range row.patterns {
		switch pat.(type) {
		case *hir.WildcardPattern, *hir.IdentPattern:
			continue
		default:
			return false
		}
	}
	return true
}

// buildSwitch groups matrix's rows by their pattern in colIndex and
// recursively compiles each group.
func (c *DecisionTreeCompiler) buildSwitch(matrix []matchRow, path []int, colIndex int) DecisionTree {
	cases := make(map[interface{}][]matchRow)
	var defaultRows []matchRow

	for _, row := range matrix {
		if colIndex >= len(row.patterns) {
			defaultRows = append(defaultRows, row)
			continue
		}

		pat := row.patterns[colIndex]
		switch p := pat.(type) {
		case *hir.LitPattern:
			cases[p.Value] = append(cases[p.Value], row)

		case *hir.VariantPattern:
			key := variantKey{enum: p.EnumDef, idx: p.VariantIdx}
			cases[key] = append(cases[key], row)

		case *hir.WildcardPattern, *hir.IdentPattern:
			defaultRows = append(defaultRows, row)

		default:
			defaultRows = append(defaultRows, row)
		}
	}

	if len(cases) == 0 && len(defaultRows) > 0 {
		return &LeafNode{
			ArmIndex: defaultRows[0].armIndex,
			Body:     defaultRows[0].body,
			Guard:    defaultRows[0].guard,
		}
	}

	switchNode := &SwitchNode{
		Path:  append(path, colIndex),
		Cases: make(map[interface{}]DecisionTree),
	}

	for key, rows := range cases {
		specialized := c.specializeRows(rows, colIndex)
		switchNode.Cases[key] = c.compileMatrix(specialized, append(path, colIndex))
	}

	if len(defaultRows) > 0 {
		specialized := c.specializeRows(defaultRows, colIndex)
		switchNode.Default = c.compileMatrix(specialized, append(path, colIndex))
	} else {
		switchNode.Default = &FailNode{}
	}

	return switchNode
}

// variantKey is the map key for an enum-variant case: the enum and
// variant index together, so two different enums never collide.
type variantKey struct {
	enum interface{}
	idx  uint32
}

// specializeRows drops the matched column from each row, expanding a
// VariantPattern's sub-patterns in its place.
func (c *DecisionTreeCompiler) specializeRows(rows []matchRow, colIndex int) []matchRow {
	var result []matchRow
	for _, row := range rows {
		newPatterns := make([]hir.Pattern, 0, len(row.patterns)-1)
		for i, pat := range row.patterns {
			if i == colIndex {
				if variantPat, ok := pat.(*hir.VariantPattern); ok {
					newPatterns = append(newPatterns, variantPat.Elems...)
				}
				continue
			}
			newPatterns = append(newPatterns, pat)
		}

		result = append(result, matchRow{
			patterns: newPatterns,
			armIndex: row.armIndex,
			guard:    row.guard,
			body:     row.body,
		})
	}
	return result
}

// CaseDiscriminant reduces one SwitchNode.Cases key to the int64 value
// a SwitchInt terminator branches on: a variant's index for an enum
// case, or the literal's own integer/bool value.
func CaseDiscriminant(key interface{}) int64 {
	switch v := key.(type) {
	case variantKey:
		return int64(v.idx)
	case int64:
		return v
	case int:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// CanCompileToTree is a heuristic for whether building a tree is
// worthwhile at all: worth it once there are at least
// two discriminable (literal or variant) patterns to split on.
func CanCompileToTree(arms []hir.MatchArm) bool {
	count := 0
	for _, arm := range arms {
		switch arm.Pattern.(type) {
		case *hir.LitPattern, *hir.VariantPattern:
			count++
		}
	}
	return count >= 2
}
