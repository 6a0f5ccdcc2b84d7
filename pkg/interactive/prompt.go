package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks for confirmation before destructive operations.
type Prompter struct {
	reader *bufio.Reader
}

func NewPrompter(r io.Reader) *Prompter {
	if r == nil {
		r = os.Stdin
	}
	return &Prompter{reader: bufio.NewReader(r)}
}

// Confirm asks the operator to confirm an action against a target. Anything
// other than an explicit yes declines.
func (p *Prompter) Confirm(action, target string) bool {
	fmt.Printf("Confirm %s for %s (y/N): ", action, target)

	input, err := p.reader.ReadString('\n')
	if err != nil {
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
