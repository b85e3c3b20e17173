package latebind

import (
	"github.com/funvibe/latebind/internal/callsite"
	"github.com/funvibe/latebind/pkg/dyn"
)

// Site is a call site: a per-expression-location cache of shape-keyed
// bindings for one operation. Sites are safe for concurrent use.
type Site struct {
	inner *callsite.Site
}

// Execute performs the site's operation: receiver first, then
// arguments left-to-right. The result type is determined at bind time.
// A failure to dispatch surfaces as *dyn.DispatchError; an error raised
// by the bound operation itself surfaces as *dyn.TargetError.
func (s *Site) Execute(values ...interface{}) (interface{}, error) {
	return s.inner.Execute(values...)
}

// ID identifies the site in stats output.
func (s *Site) ID() string { return s.inner.ID().String() }

// Op returns the operation this site performs.
func (s *Site) Op() dyn.Op { return s.inner.Op() }

// Clear drops all cached bindings, including permanently failing
// entries.
func (s *Site) Clear() { s.inner.Clear() }

// SiteStats is a point-in-time snapshot of one site's cache behavior.
type SiteStats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Promotions  uint64
	Failures    uint64
	Entries     int
	Polymorphic bool
}

func (s *Site) Stats() SiteStats {
	st := s.inner.Stats()
	return SiteStats{
		Hits:        st.Hits,
		Misses:      st.Misses,
		Evictions:   st.Evictions,
		Promotions:  st.Promotions,
		Failures:    st.Failures,
		Entries:     st.Entries,
		Polymorphic: st.Polymorphic,
	}
}
