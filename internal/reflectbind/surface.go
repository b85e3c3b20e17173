package reflectbind

import (
	"reflect"
	"sync"
)

// surface is the introspected member surface of one concrete type:
// exported methods by name and exported struct fields by index path.
// Surfaces are immutable once built and cached per type, so binds for
// the same shape never re-walk the type.
type surface struct {
	rt      reflect.Type
	methods map[string]int
	fields  map[string][]int
}

var surfaces sync.Map // reflect.Type -> *surface

func surfaceOf(rt reflect.Type) *surface {
	if cached, ok := surfaces.Load(rt); ok {
		return cached.(*surface)
	}
	s := buildSurface(rt)
	actual, _ := surfaces.LoadOrStore(rt, s)
	return actual.(*surface)
}

func buildSurface(rt reflect.Type) *surface {
	s := &surface{
		rt:      rt,
		methods: make(map[string]int),
		fields:  make(map[string][]int),
	}
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if m.PkgPath != "" {
			continue
		}
		s.methods[m.Name] = i
	}
	base := rt
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct {
		for i := 0; i < base.NumField(); i++ {
			f := base.Field(i)
			if f.PkgPath != "" {
				continue
			}
			s.fields[f.Name] = f.Index
		}
	}
	return s
}

// fieldValue walks to a field through an optional pointer receiver.
func fieldValue(rv reflect.Value, index []int) reflect.Value {
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv.FieldByIndex(index)
}
