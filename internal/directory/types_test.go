package directory

import (
	"encoding/json"
	"testing"
)

func TestMenuMeta_RoundTripWithExtras(t *testing.T) {
	input := `{"title":"Accounts","icon":"users","order":3,"hidden":true,"badge":"new","theme":"dark","pin":7}`

	var meta MenuMeta
	if err := json.Unmarshal([]byte(input), &meta); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if meta.Title != "Accounts" || meta.Icon != "users" || meta.Order != 3 || !meta.Hidden || meta.Badge != "new" {
		t.Errorf("typed fields wrong: %+v", meta)
	}
	if meta.Extra["theme"] != "dark" {
		t.Errorf("Extra[theme] = %v, want dark", meta.Extra["theme"])
	}
	if v, ok := meta.Extra["pin"].(float64); !ok || v != 7 {
		t.Errorf("Extra[pin] = %v, want 7", meta.Extra["pin"])
	}
	// Typed keys must not leak into Extra.
	if _, ok := meta.Extra["title"]; ok {
		t.Error("title should not appear in Extra")
	}

	// Round trip preserves both typed and extra fields.
	out, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var again MenuMeta
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if again.Title != "Accounts" || again.Extra["theme"] != "dark" {
		t.Errorf("round trip lost fields: %+v", again)
	}
}

func TestMenuMeta_EmptyObject(t *testing.T) {
	var meta MenuMeta
	if err := json.Unmarshal([]byte(`{}`), &meta); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if meta.Extra != nil {
		t.Errorf("Extra = %v, want nil", meta.Extra)
	}

	out, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != "{}" {
		t.Errorf("Marshal = %s, want {}", out)
	}
}
