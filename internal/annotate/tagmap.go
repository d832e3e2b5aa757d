package annotate

// lbTagMap maps the Luxembourgish model's fine-grained tag set onto the
// coarse universal tags every other language model emits directly.
var lbTagMap = map[string]string{
	"$":       "PUNCT",
	"ADJ":     "ADJ",
	"AV":      "ADV",
	"APPR":    "ADP",
	"APPRART": "ADP",
	"D":       "DET",
	"KO":      "CONJ",
	"N":       "NOUN",
	"P":       "ADV",
	"TRUNC":   "X",
	"AUX":     "AUX",
	"V":       "VERB",
	"MV":      "VERB",
	"PTK":     "PART",
	"INTER":   "PART",
	"NUM":     "NUM",
	"_SP":     "SPACE",
}

// coarseTag returns the coarse tag for a fine-grained one; unmapped tags
// collapse to "X".
func coarseTag(fine string) string {
	if coarse, ok := lbTagMap[fine]; ok {
		return coarse
	}
	return "X"
}
