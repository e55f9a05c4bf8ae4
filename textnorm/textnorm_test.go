package textnorm

import (
	"io"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Élodie", "elodie"},
		{"  Métabolique ", "metabolique"},
		{"IATROGÈNE", "iatrogene"},
		{"Diabète de type 2", "diabete de type 2"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsAndEqual(t *testing.T) {
	if !Contains("Hélène Dupré", "dupre") {
		t.Error("expected accent-insensitive match")
	}
	if Contains("Hélène", "marc") {
		t.Error("unexpected match")
	}
	if !Equal("Syndrome métabolique", "syndrome METABOLIQUE") {
		t.Error("expected folded equality")
	}
}

func TestToUTF8(t *testing.T) {
	latin1 := []byte{'r', 0xE9, 'g', 'i', 'm', 'e'} // "régime" in ISO-8859-1
	if got := string(ToUTF8(latin1)); got != "régime" {
		t.Errorf("ToUTF8(latin1) = %q", got)
	}

	utf := []byte("déjà utf-8")
	if got := string(ToUTF8(utf)); got != "déjà utf-8" {
		t.Errorf("ToUTF8(utf8) = %q", got)
	}

	b, err := io.ReadAll(UTF8Reader(latin1))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "régime" {
		t.Errorf("UTF8Reader(latin1) = %q", b)
	}
}
