package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sunholo/bloodc/internal/ids"
)

func TestUnifyReflexivity(t *testing.T) {
	u := NewUnifier()
	if err := u.Unify(TI32, TI32); err != nil {
		t.Fatalf("unify(i32, i32) failed: %v", err)
	}
}

func TestUnifySymmetricOutcome(t *testing.T) {
	u1 := NewUnifier()
	a1 := u1.FreshVar()
	err1 := u1.Unify(a1, TI32)

	u2 := NewUnifier()
	a2 := u2.FreshVar()
	err2 := u2.Unify(TI32, a2)

	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("unify(a,b) and unify(b,a) disagree on success: %v vs %v", err1, err2)
	}
	if diff := cmp.Diff(u1.Resolve(a1), u2.Resolve(a2), cmpOpts()...); diff != "" {
		t.Fatalf("resolved types differ (-first +second):\n%s", diff)
	}
}

func TestFreshVariablesIndependent(t *testing.T) {
	u := NewUnifier()
	a := u.FreshVar()
	if err := u.Unify(a, TI32); err != nil {
		t.Fatalf("unify failed: %v", err)
	}
	if got := u.Resolve(a); !cmp.Equal(got, Type(TI32), cmpOpts()...) {
		t.Fatalf("resolve(a) = %s, want i32", got)
	}
}

func TestOccursCheck(t *testing.T) {
	u := NewUnifier()
	a := u.FreshVar()
	tup := TupleT{Elems: []Type{a, TI32}}
	err := u.Unify(a, tup)
	if err == nil || err.Kind != InfiniteType {
		t.Fatalf("expected InfiniteType, got %v", err)
	}
}

func TestUnitEquivalence(t *testing.T) {
	u := NewUnifier()
	if err := u.Unify(TUnit, TupleT{Elems: nil}); err != nil {
		t.Fatalf("unify(unit, ()) failed: %v", err)
	}
}

func TestRowPolymorphism(t *testing.T) {
	u := NewUnifier()
	rho := u.FreshRowVar()
	xSym := ids.Symbol(1)
	ySym := ids.Symbol(2)

	open := RecordT{Fields: []RecordField{{Name: xSym, Type: TI32}}, RowVar: &rho}
	closed := RecordT{Fields: []RecordField{
		{Name: xSym, Type: TI32},
		{Name: ySym, Type: TBool},
	}}

	if err := u.Unify(open, closed); err != nil {
		t.Fatalf("unify(open row, closed row) failed: %v", err)
	}
	got := u.Resolve(open).(RecordT)
	want := []RecordField{{Name: xSym, Type: TI32}, {Name: ySym, Type: TBool}}
	if diff := cmp.Diff(want, got.Fields, cmpOpts()...); diff != "" {
		t.Fatalf("resolved row mismatch (-want +got):\n%s", diff)
	}
}

func TestForallAlphaEquivalence(t *testing.T) {
	u := NewUnifier()
	alpha := ids.TyVarId(100)
	beta := ids.TyVarId(200)
	f := ForallT{Params: []ids.TyVarId{alpha}, Body: FnT{Params: []Type{ParamT{ID: alpha}}, Ret: ParamT{ID: alpha}}}
	g := ForallT{Params: []ids.TyVarId{beta}, Body: FnT{Params: []Type{ParamT{ID: beta}}, Ret: ParamT{ID: beta}}}
	if err := u.Unify(f, g); err != nil {
		t.Fatalf("unify(forall a. a->a, forall b. b->b) failed: %v", err)
	}
}

func TestNeverUnifiesWithAnything(t *testing.T) {
	u := NewUnifier()
	for _, ty := range []Type{TI32, TBool, TupleT{Elems: []Type{TI32, TBool}}} {
		if err := u.Unify(TNever, ty); err != nil {
			t.Fatalf("unify(Never, %s) failed: %v", ty, err)
		}
	}
}

func cmpOpts() []cmp.Option {
	return []cmp.Option{cmpopts.EquateEmpty()}
}
