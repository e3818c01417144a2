package entities

import "fmt"

// SEXPType is the type code of a native object. Values match the
// interpreter's own numbering so they can be compared with values read from
// the native side.
type SEXPType uint8

const (
	NILSXP  SEXPType = 0
	SYMSXP  SEXPType = 1
	LISTSXP SEXPType = 2
	CHARSXP SEXPType = 9
	LGLSXP  SEXPType = 10
	INTSXP  SEXPType = 13
	REALSXP SEXPType = 14
	CPLXSXP SEXPType = 15
	STRSXP  SEXPType = 16
	VECSXP  SEXPType = 19
	RAWSXP  SEXPType = 24
)

var sexpTypeNames = map[SEXPType]string{
	NILSXP:  "NILSXP",
	SYMSXP:  "SYMSXP",
	LISTSXP: "LISTSXP",
	CHARSXP: "CHARSXP",
	LGLSXP:  "LGLSXP",
	INTSXP:  "INTSXP",
	REALSXP: "REALSXP",
	CPLXSXP: "CPLXSXP",
	STRSXP:  "STRSXP",
	VECSXP:  "VECSXP",
	RAWSXP:  "RAWSXP",
}

func (t SEXPType) String() string {
	if name, ok := sexpTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SEXPTYPE(%d)", uint8(t))
}

// IsVector reports whether values of the type carry a length and elements.
func (t SEXPType) IsVector() bool {
	switch t {
	case CHARSXP, LGLSXP, INTSXP, REALSXP, CPLXSXP, STRSXP, VECSXP, RAWSXP:
		return true
	}
	return false
}

// Info summarises a native object for display.
type Info struct {
	Type       SEXPType `json:"type"`
	Length     int      `json:"length"`
	Attributes int      `json:"attributes"`
	Protected  bool     `json:"protected,omitempty"`
}

func (i Info) String() string {
	s := fmt.Sprintf("%s len=%d", i.Type, i.Length)
	if i.Attributes > 0 {
		s += fmt.Sprintf(" attrs=%d", i.Attributes)
	}
	if i.Protected {
		s += " protected"
	}
	return s
}
