package dyn

import (
	"errors"
	"testing"
)

func TestPropertyBagStorage(t *testing.T) {
	bag := NewPropertyBag()
	if _, ok := bag.Get("x"); ok {
		t.Error("empty bag must not report members")
	}
	bag.Set("x", int64(1))
	bag.Set("name", "late")
	if v, ok := bag.Get("x"); !ok || v != int64(1) {
		t.Errorf("Get(x) = %v, %v", v, ok)
	}
	if got := bag.Names(); len(got) != 2 || got[0] != "name" || got[1] != "x" {
		t.Errorf("Names() = %v", got)
	}
	if !bag.Delete("x") || bag.Delete("x") {
		t.Error("Delete must report prior existence exactly once")
	}
	if bag.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bag.Len())
	}
}

func TestBagMetaGetAndSet(t *testing.T) {
	bag := NewPropertyBag()
	meta := bag.MetaObject()

	res := meta.BindSetMember("greeting")
	if res.Outcome != Resolved {
		t.Fatalf("set-member outcome = %v", res.Outcome)
	}
	if _, err := res.Thunk([]interface{}{bag, "hello"}); err != nil {
		t.Fatal(err)
	}

	res = meta.BindGetMember("greeting")
	if res.Outcome != Resolved {
		t.Fatalf("get-member outcome = %v", res.Outcome)
	}
	v, err := res.Thunk([]interface{}{bag})
	if err != nil {
		t.Fatal(err)
	}
	if v != "hello" {
		t.Errorf("got %v, want hello", v)
	}
}

func TestBagMetaMissingMember(t *testing.T) {
	bag := NewPropertyBag()
	res := bag.MetaObject().BindGetMember("nope")
	_, err := res.Thunk([]interface{}{bag})
	var de *DispatchError
	if !errors.As(err, &de) || de.Failure.Kind != MemberNotFound {
		t.Fatalf("err = %v, want member-not-found dispatch error", err)
	}
}

func TestBagMetaThunkTracksMutation(t *testing.T) {
	// One cached thunk must observe the bag's current contents, not the
	// contents at bind time.
	bag := NewPropertyBag()
	bag.Set("n", int64(1))
	res := bag.MetaObject().BindGetMember("n")
	if v, _ := res.Thunk([]interface{}{bag}); v != int64(1) {
		t.Fatalf("got %v", v)
	}
	bag.Set("n", int64(2))
	if v, _ := res.Thunk([]interface{}{bag}); v != int64(2) {
		t.Errorf("stale read after mutation: got %v", v)
	}
}

func TestBagMetaInvoke(t *testing.T) {
	bag := NewPropertyBag()
	bag.Set("add", func(a, b int64) int64 { return a + b })
	bag.Set("fail", func() (int64, error) { return 0, errors.New("boom") })
	bag.Set("answer", int64(42))

	res := bag.MetaObject().BindInvokeMember("add", 2)
	v, err := res.Thunk([]interface{}{bag, int64(2), int64(3)})
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(5) {
		t.Errorf("add = %v, want 5", v)
	}

	res = bag.MetaObject().BindInvokeMember("fail", 0)
	if _, err := res.Thunk([]interface{}{bag}); err == nil || err.Error() != "boom" {
		t.Errorf("declared error must surface as-is, got %v", err)
	}

	res = bag.MetaObject().BindInvokeMember("answer", 0)
	_, err = res.Thunk([]interface{}{bag})
	var de *DispatchError
	if !errors.As(err, &de) || de.Failure.Kind != ArgumentMismatch {
		t.Errorf("invoking a non-function member: err = %v", err)
	}

	res = bag.MetaObject().BindInvokeMember("add", 1)
	if _, err := res.Thunk([]interface{}{bag, int64(1)}); err == nil {
		t.Error("wrong argument count must fail")
	}
}
