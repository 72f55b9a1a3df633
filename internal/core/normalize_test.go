package core

import (
	"reflect"
	"testing"
)

func TestNormalizeColumns(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "spaces and case",
			input: []string{"First Name", "Age"},
			want:  []string{"first_name", "age"},
		},
		{
			name:  "every space replaced",
			input: []string{" Two  Spaces "},
			want:  []string{"_two__spaces_"},
		},
		{
			name:  "other characters kept",
			input: []string{"Price ($)", "e-mail", "Unnamed: 2"},
			want:  []string{"price_($)", "e-mail", "unnamed:_2"},
		},
		{
			name:  "collisions permitted",
			input: []string{"First Name", "first_name"},
			want:  []string{"first_name", "first_name"},
		},
		{
			name:  "tabs are not spaces",
			input: []string{"a\tb"},
			want:  []string{"a\tb"},
		},
		{
			name:  "empty",
			input: []string{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeColumns(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeColumnsIdempotent(t *testing.T) {
	inputs := [][]string{
		{"First Name", "Age"},
		{"ÀB C", "x y z", ""},
		{"already_normal"},
	}
	for _, in := range inputs {
		once := NormalizeColumns(in)
		twice := NormalizeColumns(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeColumnsDoesNotMutateInput(t *testing.T) {
	in := []string{"A B"}
	_ = NormalizeColumns(in)
	if in[0] != "A B" {
		t.Errorf("input mutated: %q", in)
	}
}
