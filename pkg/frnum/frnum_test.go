package frnum

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		word      string
		wantKind  Kind
		wantValue int64
	}{
		{"zéro", KindUnit, 0},
		{"un", KindUnit, 1},
		{"une", KindUnit, 1},
		{"seize", KindUnit, 16},
		{"dix-sept", KindUnit, 17},
		{"soixante", KindUnit, 60},
		{"cent", KindMultiplier, 100},
		{"cents", KindMultiplier, 100},
		{"mille", KindMultiplier, 1000},
		{"millions", KindMultiplier, 1_000_000},
		{"milliard", KindMultiplier, 1_000_000_000},
		{"et", KindConnector, 0},
		{"vingts", KindVingts, 20},
		{"soixante-dix", KindNone, 0},
		{"chat", KindNone, 0},
		{"", KindNone, 0},
		{"Vingt", KindNone, 0},
		{"ze\u0301ro", KindUnit, 0}, // decomposed accent
	}

	for _, tt := range cases {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()
			kind, value := Classify(tt.word)
			if kind != tt.wantKind || value != tt.wantValue {
				t.Errorf("Classify(%q) = (%v, %d), want (%v, %d)", tt.word, kind, value, tt.wantKind, tt.wantValue)
			}
			if got := IsNumberWord(tt.word); got != (tt.wantKind != KindNone) {
				t.Errorf("IsNumberWord(%q) = %v", tt.word, got)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	if KindMultiplier.String() != "multiplier" {
		t.Errorf("KindMultiplier.String() = %q", KindMultiplier.String())
	}
	if Kind(42).String() != "unknown" {
		t.Errorf("Kind(42).String() = %q", Kind(42).String())
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		words string
		want  int64
	}{
		{"zero", "zéro", 0},
		{"sixty", "soixante", 60},
		{"eighty plural", "quatre vingts", 80},
		{"eighty singular", "quatre vingt", 80},
		{"ninety", "quatre vingt dix", 90},
		{"ninety-one", "quatre vingt onze", 91},
		{"seventy", "soixante dix", 70},
		{"seventy-one", "soixante et onze", 71},
		{"seventy-seven", "soixante dix sept", 77},
		{"twenty-one", "vingt et un", 21},
		{"hundred", "cent", 100},
		{"two hundred", "deux cent", 200},
		{"two hundred plural", "deux cents", 200},
		{"two hundred fifty", "deux cent cinquante", 250},
		{"nine ninety-nine", "neuf cent quatre vingt dix neuf", 999},
		{"thousand", "mille", 1000},
		{"two thousand", "deux mille", 2000},
		{"two thousand five hundred", "deux mille cinq cent", 2500},
		{"thousand and one", "mille un", 1001},
		{"one million", "un million", 1_000_000},
		{"bare million", "million", 1_000_000},
		{"two billion", "deux milliards", 2_000_000_000},
		{"mixed blocks", "trois millions deux cent mille quatre vingt quinze", 3_200_095},
		{"hundred thousand", "cent mille", 100_000},
		{"stray vingts", "vingts", 20},
		{"quatre alone", "quatre", 4},
		{"quatre at end", "vingt quatre", 24},
		{"unknown ignored", "deux chat trois", 5},
		{"connector only", "et", 0},
		{"empty", "", 0},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(strings.Fields(tt.words))
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}

func TestParse_Saturates(t *testing.T) {
	t.Parallel()

	words := strings.Fields(strings.Repeat("deux cent ", 20))
	if got := Parse(words); got != math.MaxInt64 {
		t.Errorf("Parse(repeated cent) = %d, want MaxInt64", got)
	}

	many := make([]string, 0, 64)
	for range 30 {
		many = append(many, "neuf", "cent", "milliards")
	}
	if got := Parse(many); got < 0 {
		t.Errorf("Parse(repeated milliards) = %d, want non-negative", got)
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"connector", "vingt et un", "21"},
		{"prose et", "chat et chien", "chat et chien"},
		{"hyphenated compound", "quatre-vingt-dix-neuf", "99"},
		{"soixante et onze", "soixante et onze", "71"},
		{"et une", "trente et une pages", "31 pages"},
		{"et before non-number", "vingt et deux", "20 et 2"},
		{"et at start", "et un", "et 1"},
		{"et at end", "vingt et", "20 et"},
		{"sentence", "il y a vingt et un chats", "il y a 21 chats"},
		{"two runs", "deux chats et trois chiens", "2 chats et 3 chiens"},
		{"year", "deux mille vingt-quatre", "2024"},
		{"plural vingts", "quatre-vingts euros", "80 euros"},
		{"millions", "un million deux cent mille", "1200000"},
		{"no numbers", "bonjour tout le monde", "bonjour tout le monde"},
		{"empty", "", ""},
		{"double space kept", "bonjour  monde", "bonjour  monde"},
		{"double space between numbers", "deux  trois", "2  3"},
		{"double space splits run", "vingt  deux", "20  2"},
		{"bare dash", "a - b", "a - b"},
		{"trailing dash joins", "cinq- trois", "8"},
		{"mixed hyphen word", "vingt-chat", "vingt-chat"},
		{"punctuation attached", "deux, trois", "deux, 3"},
		{"newline kept", "un\ndeux", "un\ndeux"},
		{"case sensitive", "Vingt et un", "Vingt et 1"},
		{"nfd accent", "ze\u0301ro", "0"},
		{"hyphenated et", "vingt-et-un", "21"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Convert(tt.input)
			if got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConvert_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"il y a vingt et un chats",
		"neuf cent quatre-vingt-dix-neuf mille",
		"chat et chien",
	}
	for _, in := range inputs {
		first := Convert(in)
		second := Convert(in)
		if first != second {
			t.Errorf("Convert(%q) not deterministic: %q vs %q", in, first, second)
		}
	}
}

func TestConvertDetailed(t *testing.T) {
	t.Parallel()

	got, conversions := ConvertDetailed("page quatre-vingt-dix et ligne vingt et une")
	if want := "page 90 et ligne 21"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}

	want := []Conversion{
		{Words: []string{"quatre", "vingt", "dix"}, Value: 90},
		{Words: []string{"vingt", "et", "une"}, Value: 21},
	}
	if diff := cmp.Diff(want, conversions); diff != "" {
		t.Errorf("conversions mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertDetailed_NoNumbers(t *testing.T) {
	t.Parallel()

	got, conversions := ConvertDetailed("rien à signaler")
	if got != "rien à signaler" {
		t.Errorf("text = %q", got)
	}
	if len(conversions) != 0 {
		t.Errorf("conversions = %v, want none", conversions)
	}
}
