package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.InlineCapacity != DefaultInlineCapacity {
		t.Errorf("inline capacity = %d", cfg.Cache.InlineCapacity)
	}
	if cfg.Cache.PromotionThreshold != DefaultPromotionThreshold {
		t.Errorf("promotion threshold = %d", cfg.Cache.PromotionThreshold)
	}
	if !cfg.Cache.PolymorphicEnabled() {
		t.Error("polymorphic tables must default to enabled")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
cache:
  inline_capacity: 8
  promotion_threshold: 16
  polymorphic: false
`)
	cfg, err := Parse(data, "latebind.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.InlineCapacity != 8 || cfg.Cache.PromotionThreshold != 16 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.PolymorphicEnabled() {
		t.Error("polymorphic: false must disable promotion")
	}
}

func TestParseAppliesDefaultsToOmittedKnobs(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  inline_capacity: 2\n"), "latebind.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.InlineCapacity != 2 {
		t.Errorf("inline capacity = %d", cfg.Cache.InlineCapacity)
	}
	if cfg.Cache.PromotionThreshold != DefaultPromotionThreshold {
		t.Errorf("promotion threshold = %d", cfg.Cache.PromotionThreshold)
	}
	if !cfg.Cache.PolymorphicEnabled() {
		t.Error("omitted polymorphic knob must default to enabled")
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	if _, err := Parse([]byte("cache:\n  inline_capacity: 1000\n"), "x.yaml"); err == nil {
		t.Error("capacity above the maximum must be rejected")
	}
	if _, err := Parse([]byte("cache:\n  inline_capacity: -1\n"), "x.yaml"); err == nil {
		t.Error("negative capacity must be rejected")
	}
	if _, err := Parse([]byte("cache:\n  promotion_threshold: -3\n"), "x.yaml"); err == nil {
		t.Error("negative threshold must be rejected")
	}
	if _, err := Parse([]byte("cache: ["), "x.yaml"); err == nil {
		t.Error("malformed yaml must be rejected")
	}
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "latebind.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  inline_capacity: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	found, err := FindConfig(nested)
	if err != nil {
		t.Fatal(err)
	}
	if found != path {
		t.Errorf("found %q, want %q", found, path)
	}
	cfg, err := Load(found)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.InlineCapacity != 3 {
		t.Errorf("inline capacity = %d", cfg.Cache.InlineCapacity)
	}
}

func TestFindConfigMissing(t *testing.T) {
	found, err := FindConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if found != "" {
		t.Errorf("found %q in an empty tree", found)
	}
}
