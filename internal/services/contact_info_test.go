package services

import "testing"

func TestContainsContactInfo(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"plain text", "Szia, mikor érne rá a jövő héten?", false},
		{"email", "Írjon a kovacs.bela@gmail.com címre", true},
		{"hungarian mobile", "Hívjon a +36 30 123 4567 számon", true},
		{"mobile with 06 prefix", "06-30-123-4567", true},
		{"url", "Nézze meg: https://példa.hu/munkáim", true},
		{"www url", "www.mester-munkak.hu", true},
		{"short number is not a phone", "A lakás 120 nm, 3 szoba", false},
		{"price is not a phone", "Az ár 45000 Ft lenne", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsContactInfo(tt.content); got != tt.want {
				t.Fatalf("containsContactInfo(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}
