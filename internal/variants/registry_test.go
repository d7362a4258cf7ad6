package variants

import (
	"errors"
	"testing"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

func TestGet_AllServiceTypesRegistered(t *testing.T) {
	for _, st := range domain.AllServiceTypes {
		s, err := Get(st)
		if err != nil {
			t.Fatalf("Get(%s): %v", st, err)
		}
		if s.ServiceType != string(st) {
			t.Errorf("schema for %s labelled %q", st, s.ServiceType)
		}
		if len(s.Fields) == 0 {
			t.Errorf("schema for %s has no fields", st)
		}
		if len(s.RequiredDocuments) == 0 {
			t.Errorf("schema for %s has no required documents", st)
		}
		if s.Fee <= 0 {
			t.Errorf("schema for %s has no fee", st)
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get(domain.ServiceType("TEA_CEREMONY"))
	if !errors.Is(err, ErrUnknownServiceType) {
		t.Fatalf("expected ErrUnknownServiceType, got %v", err)
	}
}

func TestAll_StableOrderAndCopy(t *testing.T) {
	all := All()
	if len(all) != len(domain.AllServiceTypes) {
		t.Fatalf("All() returned %d schemas, want %d", len(all), len(domain.AllServiceTypes))
	}
	for i, st := range domain.AllServiceTypes {
		if all[i].ServiceType != string(st) {
			t.Fatalf("All()[%d] = %s, want %s", i, all[i].ServiceType, st)
		}
	}
}

func TestSchema_FieldLookup(t *testing.T) {
	s, err := Get(domain.ServiceVisa)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	f, ok := s.Field("visaType")
	if !ok || f.Type != FieldSelect || !f.Required {
		t.Fatalf("visaType lookup: %+v ok=%v", f, ok)
	}
	if len(f.Options) != 3 {
		t.Fatalf("visaType options: %v", f.Options)
	}

	f, ok = s.Field("durationDays")
	if !ok || f.Type != FieldNumber || f.Min == nil || f.Max == nil || *f.Min != 1 || *f.Max != 365 {
		t.Fatalf("durationDays bounds: %+v", f)
	}

	if _, ok := s.Field("somethingElse"); ok {
		t.Fatalf("unexpected field hit")
	}
}

func TestVisaSchema_DocumentChecklist(t *testing.T) {
	s, _ := Get(domain.ServiceVisa)
	want := []string{"passport", "identity_photo", "travel_itinerary", "proof_of_accommodation", "bank_statement"}
	if len(s.RequiredDocuments) != len(want) {
		t.Fatalf("documents: %v", s.RequiredDocuments)
	}
	for i, d := range want {
		if s.RequiredDocuments[i] != d {
			t.Fatalf("documents[%d] = %s, want %s", i, s.RequiredDocuments[i], d)
		}
	}
}

func TestNameFields_AreTitleCased(t *testing.T) {
	// Every schema marks at least one person/place name for normalization.
	for _, s := range All() {
		found := false
		for _, f := range s.Fields {
			if f.NameCase {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("schema %s declares no NameCase field", s.ServiceType)
		}
	}
}
