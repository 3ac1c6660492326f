package phonemize

// Separator holds the token separators inserted at the word, syllable and
// phone levels. Any string is valid, including the empty string.
type Separator struct {
	Word     string `json:"word"`
	Syllable string `json:"syllable"`
	Phone    string `json:"phone"`
}

// DefaultSeparator separates words with a space, syllables with '|' and
// phones with '-'.
var DefaultSeparator = Separator{Word: " ", Syllable: "|", Phone: "-"}
