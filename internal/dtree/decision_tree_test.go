package dtree

import (
	"testing"

	"github.com/sunholo/bloodc/internal/ast"
	"github.com/sunholo/bloodc/internal/hir"
	"github.com/sunholo/bloodc/internal/ids"
)

func lit(v interface{}) *hir.Lit {
	return &hir.Lit{Kind: ast.IntLit, Value: v}
}

func variant(enum ids.DefId, idx uint32) *hir.VariantPattern {
	return &hir.VariantPattern{EnumDef: enum, VariantIdx: idx}
}

func TestDecisionTreeSimpleBoolMatch(t *testing.T) {
	arms := []hir.MatchArm{
		{Pattern: &hir.LitPattern{Value: true}, Body: lit(1)},
		{Pattern: &hir.LitPattern{Value: false}, Body: lit(0)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	switchNode, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if len(switchNode.Cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(switchNode.Cases))
	}
	if _, ok := switchNode.Cases[true]; !ok {
		t.Error("missing case for true")
	}
	if _, ok := switchNode.Cases[false]; !ok {
		t.Error("missing case for false")
	}
}

func TestDecisionTreeWithWildcard(t *testing.T) {
	arms := []hir.MatchArm{
		{Pattern: &hir.LitPattern{Value: true}, Body: lit(1)},
		{Pattern: &hir.WildcardPattern{}, Body: lit(0)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	switchNode, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if switchNode.Default == nil {
		t.Error("expected default branch for wildcard")
	}
}

func TestDecisionTreeAllWildcards(t *testing.T) {
	arms := []hir.MatchArm{
		{Pattern: &hir.WildcardPattern{}, Body: lit(42)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	leaf, ok := tree.(*LeafNode)
	if !ok {
		t.Fatalf("expected LeafNode for wildcard-only match, got %T", tree)
	}
	if leaf.ArmIndex != 0 {
		t.Errorf("expected arm index 0, got %d", leaf.ArmIndex)
	}
}

func TestCanCompileToTree(t *testing.T) {
	optionDef := ids.DefId(1)

	tests := []struct {
		name     string
		arms     []hir.MatchArm
		expected bool
	}{
		{
			name:     "single arm - not worth it",
			arms:     []hir.MatchArm{{Pattern: &hir.LitPattern{Value: true}}},
			expected: false,
		},
		{
			name: "two wildcards - not worth it",
			arms: []hir.MatchArm{
				{Pattern: &hir.WildcardPattern{}},
				{Pattern: &hir.WildcardPattern{}},
			},
			expected: false,
		},
		{
			name: "multiple literals - worth it",
			arms: []hir.MatchArm{
				{Pattern: &hir.LitPattern{Value: true}},
				{Pattern: &hir.LitPattern{Value: false}},
				{Pattern: &hir.WildcardPattern{}},
			},
			expected: true,
		},
		{
			name: "multiple constructors - worth it",
			arms: []hir.MatchArm{
				{Pattern: variant(optionDef, 0)},
				{Pattern: variant(optionDef, 1)},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCompileToTree(tt.arms); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
