package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OpenCHAMI/powerctl/pkg/power"
)

// Prompter asks an operator to act and returns once they confirmed.
type Prompter interface {
	Prompt(message string) error
}

// ConsolePrompter writes the message and waits for a line of input.
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter() uses stdin and stdout when in or out is nil.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &ConsolePrompter{in: bufio.NewReader(in), out: out}
}

func (p *ConsolePrompter) Prompt(message string) error {
	if _, err := fmt.Fprintln(p.out, message); err != nil {
		return err
	}
	if _, err := p.in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	return nil
}

// Manual asks an operator to switch the target.
type Manual struct {
	port     power.Port
	prompter Prompter
}

func NewManual(port power.Port, prompter Prompter) *Manual {
	return &Manual{port: port, prompter: prompter}
}

func (d *Manual) On() error {
	return d.prompter.Prompt(fmt.Sprintf("Turn the target %s ON and press enter", d.port.Name))
}

func (d *Manual) Off() error {
	return d.prompter.Prompt(fmt.Sprintf("Turn the target %s OFF and press enter", d.port.Name))
}

func (d *Manual) Cycle() error {
	return d.prompter.Prompt(fmt.Sprintf("CYCLE the target %s and press enter", d.port.Name))
}

func (d *Manual) Get() (bool, error) {
	return false, errors.ErrUnsupported
}
