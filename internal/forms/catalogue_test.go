package forms

import (
	"os"
	"path/filepath"
	"testing"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

func TestLoadCatalogue_Embedded(t *testing.T) {
	cat, err := LoadCatalogue(nil, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"disa-checklist", "lpa-checklist", "dmm-settings", "unpoured-mould", "four-m-change", "error-proof", "setting-adjustment"}
	all := cat.All()
	if len(all) != len(want) {
		t.Fatalf("forms: want=%d got=%d", len(want), len(all))
	}
	for i, s := range all {
		if s.Type != want[i] {
			t.Fatalf("form %d: want=%s got=%s", i, want[i], s.Type)
		}
	}

	um, err := cat.Get("unpoured-mould")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(um.NumericFields()) != 24 {
		t.Fatalf("unpoured numeric fields: want=24 got=%d", len(um.NumericFields()))
	}
	if um.Strategy != StrategyReplace || um.EAV != EAVSparse || um.EAVKey != EAVKeyIdentity {
		t.Fatalf("unpoured policies: got strategy=%s eav=%s key=%s", um.Strategy, um.EAV, um.EAVKey)
	}

	cl, _ := cat.Get("disa-checklist")
	if cl.StrictOrder || cl.Broadcast != ScopeDay || cl.EAV != EAVExplicit {
		t.Fatalf("checklist flags: strict=%v broadcast=%s eav=%s", cl.StrictOrder, cl.Broadcast, cl.EAV)
	}
	fm, _ := cat.Get("four-m-change")
	if !fm.StrictOrder {
		t.Fatalf("four-m-change should enforce order")
	}
}

func TestCatalogue_UnknownFormIsNotFound(t *testing.T) {
	cat, err := LoadCatalogue(nil, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = cat.Get("nope")
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown form: want not_found got %v", err)
	}
}

func TestLoadCatalogue_BrokenOverrideFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.yaml")
	if err := os.WriteFile(path, []byte("forms: [ {type: x} ]"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalogue(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cat.Get("disa-checklist"); err != nil {
		t.Fatalf("fallback catalogue missing checklist: %v", err)
	}
}

func TestParseCatalogue_RejectsBadSchemas(t *testing.T) {
	cases := map[string]string{
		"empty chain":            `forms: [{type: a, identity: day, strategy: merge, eav: sparse, eavKey: record, chain: []}]`,
		"bad eav":                `forms: [{type: a, identity: day, strategy: merge, eav: maybe, eavKey: record, chain: [{role: X}]}]`,
		"dup role":               `forms: [{type: a, identity: day, strategy: merge, eav: sparse, eavKey: record, chain: [{role: X}, {role: x}]}]`,
		"identity eav with rows": `forms: [{type: a, identity: shift, rowKey: index, strategy: replace, eav: sparse, eavKey: identity, chain: [{role: X}]}]`,
		"standalone replace":     `forms: [{type: a, identity: standalone, strategy: replace, eav: sparse, eavKey: record, chain: [{role: X}]}]`,
	}
	for name, doc := range cases {
		if _, err := ParseCatalogue([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
