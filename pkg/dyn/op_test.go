package dyn

import "testing"

func TestOpConstructorsValidate(t *testing.T) {
	if _, err := GetMember(""); err == nil {
		t.Error("GetMember must reject an empty name")
	}
	if _, err := SetMember(""); err == nil {
		t.Error("SetMember must reject an empty name")
	}
	if _, err := InvokeMember("Add", -1); err == nil {
		t.Error("InvokeMember must reject a negative argc")
	}
	if _, err := Invoke(-2); err == nil {
		t.Error("Invoke must reject a negative argc")
	}
	if _, err := BinaryOp(""); err == nil {
		t.Error("BinaryOp must reject an empty operator")
	}
}

func TestOpArity(t *testing.T) {
	get, _ := GetMember("X")
	set, _ := SetMember("X")
	inv, _ := InvokeMember("Add", 3)
	call, _ := Invoke(2)
	bin, _ := BinaryOp("+")
	conv := Convert(Primitive(FloatShapeName))

	cases := []struct {
		op   Op
		want int
	}{
		{get, 1},
		{set, 2},
		{inv, 4},
		{call, 3},
		{bin, 2},
		{conv, 1},
	}
	for _, c := range cases {
		if got := c.op.Arity(); got != c.want {
			t.Errorf("%s: arity = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestOpAccessors(t *testing.T) {
	op, err := InvokeMember("Scale", 1)
	if err != nil {
		t.Fatal(err)
	}
	if op.Kind() != OpInvokeMember || op.Member() != "Scale" || op.ArgCount() != 1 {
		t.Errorf("unexpected op fields: %s", op)
	}
	bin, _ := BinaryOp("??")
	if bin.Operator() != "??" {
		t.Errorf("operator = %q", bin.Operator())
	}
	conv := Convert(Custom("Money"))
	if conv.Target() != Custom("Money") {
		t.Errorf("target = %s", conv.Target())
	}
}
