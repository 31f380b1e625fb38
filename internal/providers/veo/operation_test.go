package veo

import (
	"fmt"
	"testing"
)

func TestParseOperationRefNumeric(t *testing.T) {
	name := "projects/p1/locations/us-central1/operations/4857203948572039"
	ref, err := ParseOperationRef(name, "veo-2.0-generate-001")
	if err != nil {
		t.Fatalf("ParseOperationRef returned error: %v", err)
	}
	if ref.Kind != IDNumeric {
		t.Fatalf("Kind = %v, want IDNumeric", ref.Kind)
	}
	if ref.ID != "4857203948572039" {
		t.Fatalf("ID = %q", ref.ID)
	}
	if ref.Model != "veo-2.0-generate-001" {
		t.Fatalf("Model = %q, want default", ref.Model)
	}
}

func TestParseOperationRefUUID(t *testing.T) {
	name := "projects/p1/locations/us-central1/publishers/google/models/veo-3.0-generate-001/operations/3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	ref, err := ParseOperationRef(name, "veo-2.0-generate-001")
	if err != nil {
		t.Fatalf("ParseOperationRef returned error: %v", err)
	}
	if ref.Kind != IDUUID {
		t.Fatalf("Kind = %v, want IDUUID", ref.Kind)
	}
	if ref.Model != "veo-3.0-generate-001" {
		t.Fatalf("Model = %q, want model from path", ref.Model)
	}
}

func TestParseOperationRefClassification(t *testing.T) {
	uuids := []string{
		"3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		"3F2504E0-4F89-11D3-9A0C-0305E82C3301",
		"00000000-0000-0000-0000-000000000000",
		"deadbeef-dead-beef-dead-beefdeadbeef",
	}
	for _, id := range uuids {
		ref, err := ParseOperationRef("ops/"+id, "m")
		if err != nil {
			t.Fatalf("ParseOperationRef(%q) returned error: %v", id, err)
		}
		if ref.Kind != IDUUID {
			t.Fatalf("ParseOperationRef(%q).Kind = %v, want IDUUID", id, ref.Kind)
		}
	}

	nonUUIDs := []string{
		"12345",
		"3f2504e04f8911d39a0c0305e82c3301",
		"3f2504e0-4f89-11d3-9a0c-0305e82c330",
		"3f2504e0-4f89-11d3-9a0c-0305e82c33011",
		"zf2504e0-4f89-11d3-9a0c-0305e82c3301",
		"3f2504e0_4f89_11d3_9a0c_0305e82c3301",
	}
	for _, id := range nonUUIDs {
		ref, err := ParseOperationRef("ops/"+id, "m")
		if err != nil {
			t.Fatalf("ParseOperationRef(%q) returned error: %v", id, err)
		}
		if ref.Kind != IDNumeric {
			t.Fatalf("ParseOperationRef(%q).Kind = %v, want IDNumeric", id, ref.Kind)
		}
	}
}

func TestParseOperationRefRejectsEmpty(t *testing.T) {
	for _, name := range []string{"", "   ", "///"} {
		if _, err := ParseOperationRef(name, "m"); err == nil {
			t.Fatalf("ParseOperationRef(%q) should error", name)
		}
	}
}

func TestParseOperationRefBareID(t *testing.T) {
	ref, err := ParseOperationRef("98765", "veo-2.0-generate-001")
	if err != nil {
		t.Fatalf("ParseOperationRef returned error: %v", err)
	}
	if ref.ID != "98765" || ref.Kind != IDNumeric {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestStatusURLRouting(t *testing.T) {
	c := &Client{project: "p1", region: "us-central1", model: "veo-2.0-generate-001"}

	numeric := OperationRef{ID: "12345", Kind: IDNumeric}
	wantFlat := "https://us-central1-aiplatform.googleapis.com/v1/projects/p1/locations/us-central1/operations/12345"
	if got := c.statusURL(numeric); got != wantFlat {
		t.Fatalf("statusURL(numeric) = %q, want %q", got, wantFlat)
	}

	uuid := OperationRef{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", Kind: IDUUID, Model: "veo-3.0-generate-001"}
	wantScoped := "https://us-central1-aiplatform.googleapis.com/v1/projects/p1/locations/us-central1/publishers/google/models/veo-3.0-generate-001/operations/3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	if got := c.statusURL(uuid); got != wantScoped {
		t.Fatalf("statusURL(uuid) = %q, want %q", got, wantScoped)
	}

	// No model recovered from the path: fall back to the configured one.
	uuidNoModel := OperationRef{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", Kind: IDUUID}
	if got := c.statusURL(uuidNoModel); got != fmt.Sprintf("https://us-central1-aiplatform.googleapis.com/v1/projects/p1/locations/us-central1/publishers/google/models/%s/operations/3f2504e0-4f89-11d3-9a0c-0305e82c3301", c.model) {
		t.Fatalf("statusURL(uuid without model) = %q", got)
	}
}
