package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/timzifer/crowdmon/internal/storage"
)

// ErrNoAddress is returned when the user does not provide a device address.
var ErrNoAddress = errors.New("no device address entered")

// Placeholder is the example address shown next to the prompt.
const Placeholder = "192.168.1.100"

// AddressQuestion is the text shown before reading the address.
const AddressQuestion = `Enter the crowd detector IP address

(Check the device serial monitor for an address like 192.168.43.105)

Example: 192.168.1.100`

// NoAddressNotice is shown when the prompt was left empty.
const NoAddressNotice = `No IP address entered!

Restart crowdmon and enter the crowd detector IP address.`

// Prompter reads answers from a line oriented input.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// New creates a prompter. Alerts wait for confirmation only when in is a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// Ask prints the question and returns the trimmed answer. End of input
// yields an empty answer.
func (p *Prompter) Ask(question, placeholder string) (string, error) {
	fmt.Fprintln(p.out, question)
	if placeholder != "" {
		fmt.Fprintf(p.out, "[%s] > ", placeholder)
	} else {
		fmt.Fprint(p.out, "> ")
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Alert prints a notice and, on a terminal, blocks until Enter is pressed.
func (p *Prompter) Alert(message string) error {
	fmt.Fprintf(p.out, "\n!! %s\n", strings.ReplaceAll(message, "\n", "\n!! "))
	if !p.interactive {
		return nil
	}
	fmt.Fprint(p.out, "Press Enter to continue")
	if _, err := p.in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	return nil
}

// BuildURL returns the status endpoint of the device at address.
func BuildURL(address string) string {
	return "http://" + address + "/api/status"
}

// KeyValue persists settings between runs.
type KeyValue interface {
	Set(key, value string) error
}

// Connection is the configured polling target.
type Connection struct {
	Address string
	URL     string
}

// Configurator asks for the device address once per session.
type Configurator struct {
	prompter *Prompter
	store    KeyValue
	logger   zerolog.Logger
}

// NewConfigurator wires a configurator. store may be nil.
func NewConfigurator(prompter *Prompter, store KeyValue, logger zerolog.Logger) *Configurator {
	return &Configurator{prompter: prompter, store: store, logger: logger.With().Str("component", "configurator").Logger()}
}

// Configure resolves the device address. A non-empty preset answers the
// prompt without reading input. A previously stored address is never used.
func (c *Configurator) Configure(preset string) (Connection, error) {
	address := strings.TrimSpace(preset)
	if address == "" {
		c.logger.Info().Msg("asking for device address")
		answer, err := c.prompter.Ask(AddressQuestion, Placeholder)
		if err != nil {
			return Connection{}, err
		}
		address = answer
	}
	if address == "" {
		c.logger.Warn().Msg("no device address entered")
		return Connection{}, ErrNoAddress
	}

	if c.store != nil {
		if err := c.store.Set(storage.KeyDeviceAddress, address); err != nil {
			c.logger.Warn().Err(err).Msg("persist device address")
		}
	}
	conn := Connection{Address: address, URL: BuildURL(address)}
	c.logger.Info().Str("address", conn.Address).Str("url", conn.URL).Msg("device address set")
	return conn, nil
}

// Reject shows the blocking notice for a missing address.
func (c *Configurator) Reject() error {
	return c.prompter.Alert(NoAddressNotice)
}
