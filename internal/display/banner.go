package display

import (
	"fmt"
	"io"

	"github.com/backmassage/hevcsweep/internal/term"
)

// PrintBanner writes the ASCII art banner to w, in magenta when colors are
// enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, ` _                                              
| |__   _____   _____ _____      _____  ___ _ __  
| '_ \ / _ \ \ / / __/ __\ \ /\ / / _ \/ _ \ '_ \ 
| | | |  __/\ V / (__\__ \\ V  V /  __/  __/ |_) |
|_| |_|\___| \_/ \___|___/ \_/\_/ \___|\___| .__/ 
                                           |_|    
`)
	if term.Enabled() {
		fmt.Fprintln(w, term.NC)
	}
}
