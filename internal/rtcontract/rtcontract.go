// Package rtcontract declares the fixed set of externally linked
// runtime functions the codegen emits calls to (spec.md §6): names and
// signatures never vary by target, so they are declared once per
// module and memoized the way the teacher's genPrintf/genAtoi helpers
// check-before-declare module-external symbols.
package rtcontract

import (
	"fmt"
	"sync"

	"tinygo.org/x/go-llvm"
)

var (
	i64    = llvm.Int64Type()
	i32    = llvm.Int32Type()
	voidTy = llvm.VoidType()
	i8ptr  = llvm.PointerType(llvm.Int8Type(), 0)
	i64ptr = llvm.PointerType(llvm.Int64Type(), 0)
)

// Sig is one runtime contract function's fixed LLVM signature.
type Sig struct {
	Name     string
	Params   []llvm.Type
	Ret      llvm.Type
	NoReturn bool // codegen follows a call to this symbol with Unreachable
}

// Contracts is the full runtime function contract table.
var Contracts = []Sig{
	{Name: "blood_perform", Params: []llvm.Type{i64, i32, i64ptr, i64, i64}, Ret: i64},
	{Name: "blood_snapshot_create", Ret: i64},
	{Name: "blood_snapshot_add_entry", Params: []llvm.Type{i64, i64, i32}, Ret: voidTy},
	{Name: "blood_snapshot_validate", Params: []llvm.Type{i64}, Ret: i64},
	{Name: "blood_snapshot_destroy", Params: []llvm.Type{i64}, Ret: voidTy},
	{Name: "blood_snapshot_stale_panic", Params: []llvm.Type{i64, i64}, Ret: voidTy, NoReturn: true},
	{Name: "blood_stale_reference_panic", Params: []llvm.Type{i32, i32}, Ret: voidTy, NoReturn: true},
	{Name: "blood_get_generation", Params: []llvm.Type{i64}, Ret: i32},
	{Name: "blood_validate_generation", Params: []llvm.Type{i64, i32}, Ret: i32},
	{Name: "blood_effect_context_get_snapshot", Ret: i64},
	{Name: "blood_panic", Params: []llvm.Type{i8ptr}, Ret: voidTy, NoReturn: true},
	{Name: "blood_alloc_or_abort", Params: []llvm.Type{i64, i64, i64}, Ret: i8ptr},
}

var sigByName = func() map[string]Sig {
	m := make(map[string]Sig, len(Contracts))
	for _, c := range Contracts {
		m[c.Name] = c
	}
	return m
}()

// Lookup returns a contract function's signature by name.
func Lookup(name string) (Sig, bool) {
	s, ok := sigByName[name]
	return s, ok
}

// Registry declares contract functions into one llvm.Module on first
// use and caches the resulting llvm.Value, so repeated Perform/Resume/
// stale-reference lowering sites across many functions share a single
// declaration per module.
type Registry struct {
	mu       sync.Mutex
	mod      llvm.Module
	declared map[string]llvm.Value
}

func NewRegistry(mod llvm.Module) *Registry {
	return &Registry{mod: mod, declared: make(map[string]llvm.Value, len(Contracts))}
}

// Declare returns the llvm.Value for the named contract function,
// declaring it in the registry's module if this is the first request.
func (r *Registry) Declare(name string) (llvm.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.declared[name]; ok {
		return v, nil
	}

	sig, ok := sigByName[name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("rtcontract: %q is not a runtime contract function", name)
	}

	if existing := r.mod.NamedFunction(name); !existing.IsNil() {
		r.declared[name] = existing
		return existing, nil
	}

	ftyp := llvm.FunctionType(sig.Ret, sig.Params, false)
	fn := llvm.AddFunction(r.mod, name, ftyp)
	r.declared[name] = fn
	return fn, nil
}
