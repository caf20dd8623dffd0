package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm guards a destructive command such as history clear or config reset.
// assumeYes is the command's --yes flag. Otherwise question is asked on out and
// only "y" or "yes" read from in counts as consent; an empty answer, EOF or
// anything else declines.
func Confirm(out io.Writer, in io.Reader, question string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(out, "%s [y/N]: ", question)

	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// PrintWarnings writes each non-blank warning on its own line.
func PrintWarnings(out io.Writer, warnings []string) {
	for _, warning := range warnings {
		if warning = strings.TrimSpace(warning); warning != "" {
			fmt.Fprintf(out, "Warning: %s\n", warning)
		}
	}
}
