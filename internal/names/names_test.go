package names

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sinner", "Jannik Sinner"},
		{"sinner", "Jannik Sinner"},
		{"  De Minaur ", "Alex de Minaur"},
		{"Jannik Sinner", "Jannik Sinner"},
		{"Somebody Unknown", "Somebody Unknown"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Đoković", "dokovic"},
		{"Muñoz", "munoz"},
		{"Świątek", "swiatek"},
		{"Rublev", "rublev"},
		{"  Alcaraz  ", "alcaraz"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		participant string
		want        bool
	}{
		{"surname substring", "De Minaur", "Alex de Minaur", true},
		{"diacritics ignored", "Dokovic", "Novak Đoković", true},
		{"case ignored", "MUSETTI", "Lorenzo Musetti", true},
		{"full name against surname label", "Lorenzo Musetti", "Musetti", true},
		{"different player", "Sinner", "Carlos Alcaraz", false},
		{"empty label never matches", "", "Carlos Alcaraz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.label, tt.participant); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.label, tt.participant, got, tt.want)
			}
		})
	}
}
