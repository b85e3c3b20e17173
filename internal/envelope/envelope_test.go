package envelope

import (
	"testing"

	"github.com/funvibe/latebind/pkg/dyn"
)

func TestWrapPlainValue(t *testing.T) {
	e := Wrap(int64(5))
	if e.Value() != int64(5) {
		t.Errorf("value = %v", e.Value())
	}
	if e.Shape() != dyn.Primitive(dyn.IntShapeName) {
		t.Errorf("shape = %s", e.Shape())
	}
	if e.Meta() != nil {
		t.Error("plain values carry no meta-object")
	}
}

func TestWrapNull(t *testing.T) {
	if e := Wrap(nil); !e.IsNull() || e.Meta() != nil {
		t.Errorf("Wrap(nil) = %+v", e)
	}
	var p *struct{ X int }
	if !Wrap(p).IsNull() {
		t.Error("typed nil pointer must wrap as null")
	}
}

func TestWrapDiscoversMetaObject(t *testing.T) {
	bag := dyn.NewPropertyBag()
	e := Wrap(bag)
	if e.Meta() == nil {
		t.Fatal("provider value must carry its meta-object")
	}
	if e.Shape() != dyn.Custom("PropertyBag") {
		t.Errorf("shape = %s, want the meta-supplied shape", e.Shape())
	}
}

func TestWrapAllPreservesOrder(t *testing.T) {
	envs := WrapAll([]interface{}{int64(1), "x", nil})
	shapes := Shapes(envs)
	want := []dyn.Shape{dyn.Primitive(dyn.IntShapeName), dyn.Primitive(dyn.StringShapeName), dyn.Null}
	if !dyn.TupleEqual(shapes, want) {
		t.Errorf("shapes = %v", shapes)
	}
}
