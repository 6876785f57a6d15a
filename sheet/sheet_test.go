package sheet

import "testing"

func TestColumnName(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"},
		{2, "B"},
		{3, "C"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}

	for _, tt := range tests {
		if got := columnName(tt.n); got != tt.want {
			t.Errorf("columnName(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
