package display

import (
	"fmt"
	"io"

	"github.com/backmassage/beatcut/internal/term"
)

const banner = ` _                _            _
| |__   ___  __ _| |_ ___ _   _| |_
| '_ \ / _ \/ _` + "`" + ` | __/ __| | | | __|
| |_) |  __/ (_| | || (__| |_| | |_
|_.__/ \___|\__,_|\__\___|\__,_|\__|
`

// PrintBanner writes the ASCII art banner; magenta if colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Paint(term.Magenta, banner))
	if term.Enabled() {
		fmt.Fprintln(w)
	}
}
