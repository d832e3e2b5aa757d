package domain

// Token is one annotated token inside a sentence.
type Token struct {
	// Text is the surface form.
	Text string `json:"t"`
	// Pos is the coarse part-of-speech tag.
	Pos string `json:"p"`
	// Offset is the character offset within the original text.
	Offset int `json:"o"`
	// Lemma is set only when it differs from the surface form.
	Lemma string `json:"l,omitempty"`
	// Entity is an IOB-encoded entity tag ("B-PER", "I-LOC", ...), set only
	// when an entity annotation fired on this token.
	Entity string `json:"e,omitempty"`
}

// Sentence is an ordered token list with the language it was annotated in.
type Sentence struct {
	Language string  `json:"lg"`
	Tokens   []Token `json:"tok"`
}

// AnnotatedDocument is one output record, serialized as a single JSON line.
// Field order follows the linguistic annotation schema.
type AnnotatedDocument struct {
	ID             string         `json:"ci_id"`
	Timestamp      string         `json:"ts"`
	// TitleSentences is always serialized, as an empty list for records
	// without a title; downstream consumers index it unconditionally.
	TitleSentences []Sentence `json:"tsents"`
	Sentences      []Sentence     `json:"sents"`
	ModelID        string         `json:"model_id"`
	LIDPath        string         `json:"lid_path,omitempty"`
	Version        string         `json:"lingproc_git"`
	CharCount      int            `json:"char_count"`
	MinChars       int            `json:"min_chars"`
	MaxChars       int            `json:"max_chars"`
	TitleStatus    *TitleRelation `json:"title_status,omitempty"`
}
