package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/bazaar/id"
)

func TestConstructorPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		newID  func() id.ID
		prefix string
	}{
		{"store", id.NewStoreID, "store"},
		{"grant", id.NewGrantID, "grant"},
		{"purchase", id.NewPurchaseID, "pur"},
		{"withdrawal", id.NewWithdrawalID, "wd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newID()
			if got.IsNil() {
				t.Fatal("constructor returned nil ID")
			}
			if string(got.Prefix()) != tt.prefix {
				t.Errorf("Prefix: got %q, want %q", got.Prefix(), tt.prefix)
			}
			if !strings.HasPrefix(got.String(), tt.prefix+"_") {
				t.Errorf("String %q does not start with %q", got.String(), tt.prefix+"_")
			}
		})
	}
}

func TestNewWithPrefix(t *testing.T) {
	a := id.New(id.PrefixStore)
	b := id.New(id.PrefixStore)
	if a.String() == b.String() {
		t.Error("two generated IDs should not collide")
	}
	if a.Prefix() != id.PrefixStore {
		t.Errorf("Prefix: got %q, want %q", a.Prefix(), id.PrefixStore)
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		newID func() id.ID
		parse func(string) (id.ID, error)
	}{
		{"store", id.NewStoreID, id.ParseStoreID},
		{"grant", id.NewGrantID, id.ParseGrantID},
		{"purchase", id.NewPurchaseID, id.ParsePurchaseID},
		{"withdrawal", id.NewWithdrawalID, id.ParseWithdrawalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newID()
			parsed, err := tt.parse(original.String())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip: got %q, want %q", parsed.String(), original.String())
			}
		})
	}
}

func TestParseRejectsWrongPrefix(t *testing.T) {
	storeID := id.NewStoreID().String()
	purchaseID := id.NewPurchaseID().String()

	tests := []struct {
		name  string
		input string
		parse func(string) (id.ID, error)
	}{
		{"store into purchase", storeID, id.ParsePurchaseID},
		{"purchase into store", purchaseID, id.ParseStoreID},
		{"store into grant", storeID, id.ParseGrantID},
		{"purchase into withdrawal", purchaseID, id.ParseWithdrawalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parse(tt.input); err == nil {
				t.Errorf("expected error parsing %q", tt.input)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	inputs := []string{"", "not-a-typeid", "store_", "store_!!!!"}
	for _, in := range inputs {
		if _, err := id.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestTextMarshalling(t *testing.T) {
	original := id.NewStoreID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("got %q, want %q", decoded.String(), original.String())
	}
}
