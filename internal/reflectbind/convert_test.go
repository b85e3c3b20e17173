package reflectbind

import (
	"fmt"
	"testing"

	"github.com/funvibe/latebind/pkg/dyn"
)

func TestConvertIdentity(t *testing.T) {
	b := New(nil)
	op := dyn.Convert(dyn.Primitive(dyn.IntShapeName))
	v, err := resolve(t, b, op, int64(5))
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(5) {
		t.Errorf("identity convert = %v", v)
	}
}

func TestConvertWidening(t *testing.T) {
	b := New(nil)
	v, err := resolve(t, b, dyn.Convert(dyn.Primitive(dyn.FloatShapeName)), int64(5))
	if err != nil {
		t.Fatal(err)
	}
	if v != 5.0 {
		t.Errorf("int to Float = %v", v)
	}
	v, err = resolve(t, b, dyn.Convert(dyn.Primitive(dyn.IntShapeName)), int8(7))
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(7) {
		t.Errorf("int8 to Int = %v", v)
	}
}

func TestConvertRegistered(t *testing.T) {
	type celsius struct{ deg float64 }
	type fahrenheit struct{ deg float64 }
	b := New(nil)
	if err := b.Registry().RegisterConversion(func(c celsius) fahrenheit {
		return fahrenheit{deg: c.deg*9/5 + 32}
	}); err != nil {
		t.Fatal(err)
	}
	target := dyn.ShapeOf(fahrenheit{})
	v, err := resolve(t, b, dyn.Convert(target), celsius{deg: 100})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(fahrenheit); got.deg != 212 {
		t.Errorf("100C = %vF, want 212", got.deg)
	}
}

func TestConvertRegisteredWithError(t *testing.T) {
	type positive struct{ v int64 }
	b := New(nil)
	if err := b.Registry().RegisterConversion(func(v int64) (positive, error) {
		if v < 0 {
			return positive{}, fmt.Errorf("negative input %d", v)
		}
		return positive{v: v}, nil
	}); err != nil {
		t.Fatal(err)
	}
	target := dyn.ShapeOf(positive{})
	v, err := resolve(t, b, dyn.Convert(target), int64(3))
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(positive); got.v != 3 {
		t.Errorf("converted = %v", got)
	}
	if _, err := resolve(t, b, dyn.Convert(target), int64(-1)); err == nil {
		t.Error("converting -1 must surface the conversion error")
	}
}

func TestConvertFailures(t *testing.T) {
	b := New(nil)
	f := resolveFail(t, b, dyn.Convert(dyn.Primitive(dyn.IntShapeName)), "nope")
	if f.Kind != dyn.MemberNotFound || !f.Permanent {
		t.Errorf("string to Int failure = %v", f)
	}
	f = resolveFail(t, b, dyn.Convert(dyn.Primitive(dyn.IntShapeName)), nil)
	if f.Kind != dyn.NullReceiver {
		t.Errorf("null convert failure = %v", f)
	}
}
