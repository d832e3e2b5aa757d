package domain

// TitleRelation describes how an article title relates to its full text.
// Every flag except ExactPrefix is tri-state: true or absent (nil), never
// false. ExactPrefix is always serialized, even when false. At most one of
// the terminal flags (Unknown, Advertisement, ExactPrefix=true, TitleLonger,
// AlnumPrefix, AlnumInfix) is set; Ellipsis may co-occur with a later check.
type TitleRelation struct {
	ExactPrefix   bool  `json:"exact_prefix"`
	Ellipsis      *bool `json:"ellipsis,omitempty"`
	AlnumPrefix   *bool `json:"alnum_prefix,omitempty"`
	AlnumInfix    *bool `json:"alnum_infix,omitempty"`
	Unknown       *bool `json:"unknown,omitempty"`
	TitleLonger   *bool `json:"title_longer,omitempty"`
	Advertisement *bool `json:"advertisement,omitempty"`
}

// TitleStatusProps lists every classification property a title relation can
// carry, in the order the corpus aggregate reports them.
var TitleStatusProps = []string{
	"exact_prefix",
	"title_longer",
	"ellipsis",
	"alnum_infix",
	"alnum_prefix",
	"unknown",
	"advertisement",
}

// Flags returns the names of all flags that are set, including exact_prefix
// only when true. Used for stats counting and corpus aggregation.
func (t *TitleRelation) Flags() []string {
	var flags []string
	if t.ExactPrefix {
		flags = append(flags, "exact_prefix")
	}
	for _, f := range []struct {
		name string
		val  *bool
	}{
		{"title_longer", t.TitleLonger},
		{"ellipsis", t.Ellipsis},
		{"alnum_infix", t.AlnumInfix},
		{"alnum_prefix", t.AlnumPrefix},
		{"unknown", t.Unknown},
		{"advertisement", t.Advertisement},
	} {
		if f.val != nil && *f.val {
			flags = append(flags, f.name)
		}
	}
	return flags
}
