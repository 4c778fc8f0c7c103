// Package colors resolves approximate Rebrickable color ids from free-text descriptions.
package colors

import (
	"strings"
	"unicode"
)

// Rebrickable color ids used by the keyword table.
const (
	Black           = 0
	Blue            = 1
	Green           = 2
	DarkTurquoise   = 3
	Red             = 4
	DarkPink        = 5
	LightBlue       = 9
	BrightGreen     = 10
	Pink            = 13
	Yellow          = 14
	White           = 15
	Tan             = 19
	Purple          = 22
	Orange          = 25
	Magenta         = 26
	Lime            = 27
	DarkTan         = 28
	TransDarkBlue   = 33
	TransGreen      = 34
	TransRed        = 36
	TransYellow     = 46
	TransClear      = 47
	ReddishBrown    = 70
	LightBluishGray = 71
	DarkBluishGray  = 72
	MediumBlue      = 73
	DarkPurple      = 85
	BrightLtOrange  = 191
	BrightLtYellow  = 226
	DarkBlue        = 272
	DarkGreen       = 288
	DarkBrown       = 308
	DarkRed         = 320
	DarkAzure       = 321
	MediumAzure     = 322
	SandGreen       = 378
	DarkOrange      = 484
)

type keyword struct {
	text string
	id   int
}

// table is scanned in order and the first hit wins, so every multi-word or qualified
// keyword must come before any keyword it contains.
var table = []keyword{
	{"trans dark blue", TransDarkBlue},
	{"trans clear", TransClear},
	{"transparent clear", TransClear},
	{"trans red", TransRed},
	{"transparent red", TransRed},
	{"trans yellow", TransYellow},
	{"transparent yellow", TransYellow},
	{"trans green", TransGreen},
	{"transparent green", TransGreen},
	{"trans blue", TransDarkBlue},
	{"transparent blue", TransDarkBlue},
	{"transparent", TransClear},
	{"clear", TransClear},

	{"dark bluish gray", DarkBluishGray},
	{"dark bluish grey", DarkBluishGray},
	{"light bluish gray", LightBluishGray},
	{"light bluish grey", LightBluishGray},
	{"dark gray", DarkBluishGray},
	{"dark grey", DarkBluishGray},
	{"light gray", LightBluishGray},
	{"light grey", LightBluishGray},

	{"dark turquoise", DarkTurquoise},
	{"dark red", DarkRed},
	{"dark blue", DarkBlue},
	{"dark green", DarkGreen},
	{"dark tan", DarkTan},
	{"dark orange", DarkOrange},
	{"dark brown", DarkBrown},
	{"dark pink", DarkPink},
	{"dark purple", DarkPurple},
	{"dark azure", DarkAzure},
	{"medium azure", MediumAzure},
	{"medium blue", MediumBlue},
	{"light blue", LightBlue},
	{"sand green", SandGreen},
	{"bright green", BrightGreen},
	{"bright light orange", BrightLtOrange},
	{"bright light yellow", BrightLtYellow},
	{"reddish brown", ReddishBrown},

	{"gray", LightBluishGray},
	{"grey", LightBluishGray},
	{"azure", MediumAzure},
	{"lime", Lime},
	{"magenta", Magenta},
	{"purple", Purple},
	{"pink", Pink},
	{"brown", ReddishBrown},
	{"tan", Tan},
	{"beige", Tan},
	{"orange", Orange},
	{"yellow", Yellow},
	{"green", Green},
	{"blue", Blue},
	{"red", Red},
	{"white", White},
	{"black", Black},
}

var names = map[int]string{
	Black:           "Black",
	Blue:            "Blue",
	Green:           "Green",
	DarkTurquoise:   "Dark Turquoise",
	Red:             "Red",
	DarkPink:        "Dark Pink",
	LightBlue:       "Light Blue",
	BrightGreen:     "Bright Green",
	Pink:            "Pink",
	Yellow:          "Yellow",
	White:           "White",
	Tan:             "Tan",
	Purple:          "Purple",
	Orange:          "Orange",
	Magenta:         "Magenta",
	Lime:            "Lime",
	DarkTan:         "Dark Tan",
	TransDarkBlue:   "Trans-Dark Blue",
	TransGreen:      "Trans-Green",
	TransRed:        "Trans-Red",
	TransYellow:     "Trans-Yellow",
	TransClear:      "Trans-Clear",
	ReddishBrown:    "Reddish Brown",
	LightBluishGray: "Light Bluish Gray",
	DarkBluishGray:  "Dark Bluish Gray",
	MediumBlue:      "Medium Blue",
	DarkPurple:      "Dark Purple",
	BrightLtOrange:  "Bright Light Orange",
	BrightLtYellow:  "Bright Light Yellow",
	DarkBlue:        "Dark Blue",
	DarkGreen:       "Dark Green",
	DarkBrown:       "Dark Brown",
	DarkRed:         "Dark Red",
	DarkAzure:       "Dark Azure",
	MediumAzure:     "Medium Azure",
	SandGreen:       "Sand Green",
	DarkOrange:      "Dark Orange",
}

// Resolve returns the color id for the most specific keyword found in label,
// or nil if no keyword matches. A nil result means "unknown color".
// Keywords match whole words, so "tapered" does not resolve to red.
func Resolve(label string) *int {
	normalized := " " + normalize(label) + " "
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	for _, kw := range table {
		if strings.Contains(normalized, " "+kw.text+" ") {
			id := kw.id
			return &id
		}
	}
	return nil
}

// Name returns the display name for a color id, or "" if it is not in the table.
func Name(id int) string {
	return names[id]
}

// normalize lower-cases s and collapses every run of non-alphanumerics into one space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
