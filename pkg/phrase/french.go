package phrase

// DefaultPre lists the French punctuation and symbol phrases replaced before
// number conversion. Longer phrases come first so they win over their
// prefixes (" point d'interrogation" before " interrogation").
var DefaultPre = Rules{
	// Phrases that contain number words or "point".
	{" point d'interrogation", " ?"},
	{" point interrogation", " ?"},
	{" interrogation", " ?"},
	{" question", " ?"},
	{" point d'exclamation", " !"},
	{" point exclamation", " !"},
	{" exclamation", " !"},
	{" deux points", " :"},
	{" point virgule", " ;"},

	// Brackets and quotes.
	{" parenthèse ouverte", " ("},
	{" parenthèse fermée", ")"},
	{" guillemet ouvrant", ` "`},
	{" guillemet fermant", `"`},
	{" apostrophe", "'"},

	// Layout.
	{" nouvelle ligne", "\n"},
	{" retour à la ligne", "\n"},
	{" tabulation", "\t"},
	{" espace", " "},

	// Symbols.
	{" arobase", "@"},
	{" diese", "#"},
	{" pourcentage", "%"},
	{" étoile", "*"},
	{" plus", "+"},
	{" égal", "="},
	{" moins", "-"},
	{" divisé par", "/"},
	{" barre oblique", "/"},
}

// DefaultPost lists the phrases replaced after number conversion. Each one
// attaches its sign to the previous word.
var DefaultPost = Rules{
	{" et commercial", "&"},
	{" point", "."},
	{" virgule", ","},
	{" tiret", "-"},
}

// DefaultCleanup tightens the spacing around inserted signs.
var DefaultCleanup = Rules{
	{" ,", ","},
	{" .", "."},
	{"( ", "("},
	{` "`, `"`},
}
