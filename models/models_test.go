package models

import (
	"reflect"
	"testing"
)

func TestDetailed(t *testing.T) {
	tests := []struct {
		name  string
		prefs *UserPreferences
		want  bool
	}{
		{"nil preferences", nil, false},
		{"empty expertise", &UserPreferences{}, false},
		{"beginner", &UserPreferences{Expertise: "beginner"}, false},
		{"intermediate", &UserPreferences{Expertise: "intermediate"}, false},
		{"advanced", &UserPreferences{Expertise: "advanced"}, true},
		{"expert", &UserPreferences{Expertise: "expert"}, true},
		{"case sensitive", &UserPreferences{Expertise: "Expert"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.prefs.Detailed(); got != tt.want {
				t.Errorf("Detailed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetSpecification(t *testing.T) {
	info := &ProductInfo{}

	info.SetSpecification("RAM", "8GB")
	info.SetSpecification("Color", "Black")
	info.SetSpecification("RAM", "16GB")

	want := []Specification{
		{Key: "RAM", Value: "16GB"},
		{Key: "Color", Value: "Black"},
	}
	if !reflect.DeepEqual(info.Specifications, want) {
		t.Errorf("Specifications = %v, want %v", info.Specifications, want)
	}
}

func TestNormalizeCriteria(t *testing.T) {
	got := NormalizeCriteria([]string{" battery ", "", "  ", "display", "price "})

	want := []string{"battery", "display", "price"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeCriteria = %v, want %v", got, want)
	}
}
