package typeid

import (
	"errors"
	"testing"
)

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"object", NewObjectID(), PrefixObject},
		{"component", NewComponentID(), PrefixComponent},
		{"project", NewProjectID(), PrefixProject},
		{"asset", NewAssetID(), PrefixAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.id, tt.prefix); err != nil {
				t.Errorf("Validate(%q) = %v", tt.id, err)
			}
		})
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	if err := Validate(NewObjectID(), PrefixComponent); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate() accepted an object id as a component id")
	}
	if err := Validate("not an id", PrefixObject); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate() accepted garbage")
	}
}

func TestUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewObjectID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
