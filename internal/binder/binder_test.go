package binder

import (
	"testing"

	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/pkg/dyn"
)

// shadow carries both a reflected field and a meta-object answering the
// same member name with a different value, so precedence is observable.
type shadow struct {
	Name string
}

func (s *shadow) MetaObject() dyn.MetaObject { return shadowMeta{} }

type shadowMeta struct{}

func (shadowMeta) DynamicShape() dyn.Shape { return dyn.Custom("Shadow") }

func (shadowMeta) BindGetMember(name string) dyn.Result {
	if name != "Name" {
		return dyn.Pass()
	}
	return dyn.Resolve(func(values []interface{}) (interface{}, error) {
		return "from-meta", nil
	})
}

func (shadowMeta) BindSetMember(name string) dyn.Result { return dyn.Pass() }
func (shadowMeta) BindInvokeMember(name string, argc int) dyn.Result {
	return dyn.Fail(dyn.Failf(dyn.MetaObjectError, "invocation is disabled on shadows"))
}
func (shadowMeta) BindInvoke(argc int) dyn.Result                      { return dyn.Pass() }
func (shadowMeta) BindConvert(target dyn.Shape) dyn.Result             { return dyn.Pass() }
func (shadowMeta) BindBinaryOp(op string, right dyn.Shape) dyn.Result  { return dyn.Pass() }

func TestMetaObjectTakesPrecedenceOverReflection(t *testing.T) {
	b := New(nil)
	op, _ := dyn.GetMember("Name")
	host := &shadow{Name: "from-field"}
	bnd, f := b.Bind(op, envelope.WrapAll([]interface{}{host}))
	if f != nil {
		t.Fatal(f)
	}
	v, err := bnd.Invoke([]interface{}{host})
	if err != nil {
		t.Fatal(err)
	}
	if v != "from-meta" {
		t.Errorf("got %v; the meta-object must win over the reflected field", v)
	}
}

func TestMetaObjectDeclineFallsThroughToReflection(t *testing.T) {
	b := New(nil)
	// The meta-object passes on this name and reflection lacks it too,
	// so the failure must come from the fallback tier.
	op, _ := dyn.GetMember("Missing")
	host := &shadow{}
	_, f := b.Bind(op, envelope.WrapAll([]interface{}{host}))
	if f == nil {
		t.Fatal("expected failure")
	}
	if f.Kind != dyn.MemberNotFound {
		t.Errorf("kind = %s", f.Kind)
	}
}

func TestMetaObjectFailureIsAuthoritativeAndNotPermanent(t *testing.T) {
	b := New(nil)
	op, _ := dyn.InvokeMember("Anything", 0)
	host := &shadow{}
	_, f := b.Bind(op, envelope.WrapAll([]interface{}{host}))
	if f == nil {
		t.Fatal("expected the meta-object's failure")
	}
	if f.Kind != dyn.MetaObjectError {
		t.Errorf("kind = %s", f.Kind)
	}
	if f.Permanent {
		t.Error("meta-object failures must never be marked permanent")
	}
	if f.Op != dyn.OpInvokeMember || f.Member != "Anything" {
		t.Errorf("failure not decorated: %v", f)
	}
}

// policyHost answers every get through one long-lived failure value, the
// way a host with a static refusal would.
var policyFailure = &dyn.BindFailure{
	Kind:      dyn.MetaObjectError,
	Reason:    "member access disabled by policy",
	Permanent: true,
}

type policyHost struct{}

func (policyHost) MetaObject() dyn.MetaObject { return policyMeta{} }

type policyMeta struct{}

func (policyMeta) DynamicShape() dyn.Shape                           { return dyn.Custom("Policy") }
func (policyMeta) BindGetMember(name string) dyn.Result              { return dyn.Fail(policyFailure) }
func (policyMeta) BindSetMember(name string) dyn.Result              { return dyn.Pass() }
func (policyMeta) BindInvokeMember(name string, argc int) dyn.Result { return dyn.Pass() }
func (policyMeta) BindInvoke(argc int) dyn.Result                    { return dyn.Pass() }
func (policyMeta) BindConvert(target dyn.Shape) dyn.Result           { return dyn.Pass() }
func (policyMeta) BindBinaryOp(op string, right dyn.Shape) dyn.Result {
	return dyn.Pass()
}

func TestMetaFailureValueIsNotMutated(t *testing.T) {
	b := New(nil)
	op, _ := dyn.GetMember("Count")
	_, f := b.Bind(op, envelope.WrapAll([]interface{}{policyHost{}}))
	if f == nil {
		t.Fatal("expected the meta-object's failure")
	}
	if f == policyFailure {
		t.Fatal("the binder must return its own failure value, not the host's")
	}
	if f.Permanent || f.Member != "Count" || len(f.Shapes) != 1 {
		t.Errorf("returned failure = %+v", f)
	}
	if !policyFailure.Permanent || policyFailure.Member != "" || len(policyFailure.Shapes) != 0 {
		t.Errorf("the host's failure value was written through: %+v", policyFailure)
	}
}

func TestArityMismatch(t *testing.T) {
	b := New(nil)
	op, _ := dyn.BinaryOp("+")
	_, f := b.Bind(op, envelope.WrapAll([]interface{}{int64(1)}))
	if f == nil || f.Kind != dyn.ArgumentMismatch {
		t.Fatalf("failure = %v, want argument mismatch", f)
	}
}

func TestReflectionFallbackForPlainValues(t *testing.T) {
	b := New(nil)
	op, _ := dyn.BinaryOp("+")
	bnd, f := b.Bind(op, envelope.WrapAll([]interface{}{int64(2), int64(3)}))
	if f != nil {
		t.Fatal(f)
	}
	v, err := bnd.Invoke([]interface{}{int64(2), int64(3)})
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(5) {
		t.Errorf("2 + 3 = %v", v)
	}
}
