package latebind

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/funvibe/latebind/pkg/dyn"
)

type user struct {
	Name string
	Age  int64
}

func (u *user) Greet(prefix string) string {
	return prefix + " " + u.Name
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestOneShotHelpers(t *testing.T) {
	eng := newEngine(t)
	u := &user{Name: "ada", Age: 36}

	if v, err := eng.GetMember(u, "Name"); err != nil || v != "ada" {
		t.Errorf("GetMember = %v, %v", v, err)
	}
	if err := eng.SetMember(u, "Age", int64(37)); err != nil {
		t.Fatal(err)
	}
	if u.Age != 37 {
		t.Errorf("Age = %d after set", u.Age)
	}
	if v, err := eng.InvokeMember(u, "Greet", "hello"); err != nil || v != "hello ada" {
		t.Errorf("InvokeMember = %v, %v", v, err)
	}
	if v, err := eng.Invoke(func(a, b int64) int64 { return a * b }, int64(6), int64(7)); err != nil || v != int64(42) {
		t.Errorf("Invoke = %v, %v", v, err)
	}
	if v, err := eng.BinaryOp(int64(2), "+", int64(3)); err != nil || v != int64(5) {
		t.Errorf("BinaryOp = %v, %v", v, err)
	}
	if v, err := eng.Convert(int64(2), dyn.Primitive(dyn.FloatShapeName)); err != nil || v != 2.0 {
		t.Errorf("Convert = %v, %v", v, err)
	}
}

func TestSiteLifecycle(t *testing.T) {
	eng := newEngine(t)
	op, err := dyn.GetMember("Name")
	if err != nil {
		t.Fatal(err)
	}
	site := eng.NewSite(op)
	if site.Op().Kind() != dyn.OpGetMember {
		t.Errorf("op = %s", site.Op())
	}
	u := &user{Name: "grace"}
	for i := 0; i < 5; i++ {
		if v, err := site.Execute(u); err != nil || v != "grace" {
			t.Fatalf("execute %d: %v, %v", i, v, err)
		}
	}
	st := site.Stats()
	if st.Misses != 1 || st.Hits != 4 {
		t.Errorf("stats = %+v", st)
	}
	if site.ID() == eng.NewSite(op).ID() {
		t.Error("each site must carry a distinct identity")
	}
	site.Clear()
	if _, err := site.Execute(u); err != nil {
		t.Fatal(err)
	}
	if st := site.Stats(); st.Misses != 2 {
		t.Errorf("misses after Clear = %d", st.Misses)
	}
}

func TestRegisteredMembersReachSites(t *testing.T) {
	type vec struct{ X, Y float64 }
	eng := newEngine(t)
	if err := eng.RegisterMember(vec{}, "Dot", func(a, b vec) float64 {
		return a.X*b.X + a.Y*b.Y
	}); err != nil {
		t.Fatal(err)
	}
	v, err := eng.InvokeMember(vec{X: 1, Y: 2}, "Dot", vec{X: 3, Y: 4})
	if err != nil {
		t.Fatal(err)
	}
	if v != 11.0 {
		t.Errorf("Dot = %v, want 11", v)
	}
}

func TestRegisteredOperatorAndConversion(t *testing.T) {
	type money struct{ cents int64 }
	eng := newEngine(t)
	if err := eng.RegisterOperator("+", func(l, r money) money {
		return money{cents: l.cents + r.cents}
	}); err != nil {
		t.Fatal(err)
	}
	if err := eng.RegisterConversion(func(v int64) money {
		return money{cents: v * 100}
	}); err != nil {
		t.Fatal(err)
	}
	v, err := eng.BinaryOp(money{cents: 100}, "+", money{cents: 50})
	if err != nil {
		t.Fatal(err)
	}
	if v.(money).cents != 150 {
		t.Errorf("money sum = %v", v)
	}
	// The conversion also lets a plain integer reach the money overload.
	v, err = eng.BinaryOp(money{cents: 100}, "+", int64(2))
	if err != nil {
		t.Fatal(err)
	}
	if v.(money).cents != 300 {
		t.Errorf("money + 2 = %v", v)
	}
}

func TestBindChecksWithoutCaching(t *testing.T) {
	eng := newEngine(t)
	op, _ := dyn.GetMember("Name")
	if err := eng.Bind(op, &user{}); err != nil {
		t.Fatal(err)
	}
	missing, _ := dyn.GetMember("Nope")
	err := eng.Bind(missing, &user{})
	var de *dyn.DispatchError
	if !errors.As(err, &de) || de.Failure.Kind != dyn.MemberNotFound {
		t.Errorf("err = %v", err)
	}
}

func TestOptionValidation(t *testing.T) {
	if _, err := New(WithInlineCapacity(0)); err == nil {
		t.Error("zero capacity must be rejected")
	}
	if _, err := New(WithPromotionThreshold(0)); err == nil {
		t.Error("zero threshold must be rejected")
	}
	if _, err := New(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))); err == nil {
		t.Error("a missing config file must be reported")
	}
}

func TestConfigFileTunesSites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latebind.yaml")
	content := "cache:\n  inline_capacity: 1\n  promotion_threshold: 2\n  polymorphic: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	eng := newEngine(t, WithConfigFile(path))
	op, _ := dyn.BinaryOp("+")
	site := eng.NewSite(op)
	// Capacity one with promotion disabled: alternating shapes evict on
	// every miss and the site never promotes.
	for i := 0; i < 4; i++ {
		site.Execute(int64(1), int64(2))
		site.Execute("a", "b")
	}
	st := site.Stats()
	if st.Polymorphic {
		t.Error("promotion must stay disabled")
	}
	if st.Evictions == 0 {
		t.Error("capacity one must evict under alternating shapes")
	}
}

func TestConfigSearchFindsNestedFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "x", "y")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "cache:\n  inline_capacity: 2\n"
	if err := os.WriteFile(filepath.Join(root, "latebind.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(WithConfigSearch(nested)); err != nil {
		t.Fatal(err)
	}
}

func TestPropertyBagThroughEngine(t *testing.T) {
	eng := newEngine(t)
	bag := dyn.NewPropertyBag()
	if err := eng.SetMember(bag, "greeting", "hi"); err != nil {
		t.Fatal(err)
	}
	if v, err := eng.GetMember(bag, "greeting"); err != nil || v != "hi" {
		t.Errorf("bag member = %v, %v", v, err)
	}
	bag.Set("twice", func(v int64) int64 { return v * 2 })
	if v, err := eng.InvokeMember(bag, "twice", int64(4)); err != nil || v != int64(8) {
		t.Errorf("bag invoke = %v, %v", v, err)
	}
}

func TestNullCoalesceEndToEnd(t *testing.T) {
	eng := newEngine(t)
	if v, err := eng.BinaryOp(nil, "??", "fallback"); err != nil || v != "fallback" {
		t.Errorf("null ?? fallback = %v, %v", v, err)
	}
	if v, err := eng.BinaryOp("value", "??", "fallback"); err != nil || v != "value" {
		t.Errorf("value ?? fallback = %v, %v", v, err)
	}
}
