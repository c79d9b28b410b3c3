// Package interactive provides the interactive command-line interface
// for the OT setup device.
package interactive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
	"github.com/otsetup/otsetup-go/pkg/setupot"
)

// localConn is the connection ID used for GATT accesses issued from the shell.
const localConn = "shell"

// Shell handles interactive mode for otsetup-device.
type Shell struct {
	reg *otsettings.Registry
	svc *setupot.Service
	rl  *readline.Instance
	out io.Writer
}

// New creates a new interactive shell over svc.
func New(svc *setupot.Service) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "otsetup> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(svc, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(svc *setupot.Service, out io.Writer) *Shell {
	s := &Shell{
		reg: svc.Registry(),
		svc: svc,
		out: out,
	}
	svc.OnCommit(func(f otsettings.Field) {
		fmt.Fprintf(s.out, "[GATT] %s committed: %s\n", f, Format(s.reg, f))
	})
	return s
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.Exec(line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line. It returns false when the shell should exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "show", "s":
		s.cmdShow(args)
	case "set":
		s.cmdSet(args)
	case "read", "r":
		s.cmdRead(args)
	case "write", "w":
		s.cmdWrite(args, 0)
	case "prepare", "p":
		s.cmdWrite(args, setupot.FlagPrepare)
	case "reset":
		s.svc.Reset()
		fmt.Fprintln(s.out, "In-memory settings cleared")
	case "erase":
		if err := s.svc.Erase(); err != nil {
			fmt.Fprintf(s.out, "Erase failed: %v\n", err)
			return true
		}
		fmt.Fprintln(s.out, "Settings erased")
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
OT Setup Commands:
  Settings:
    show [field]                 - Show one or all settings
    set <field> <value>          - Store a setting (panid/channel take decimal or 0x hex)
    reset                        - Clear in-memory settings (store untouched)
    erase                        - Delete persisted settings

  GATT (as a connected client would):
    read <field> [offset]        - Read the characteristic value (hex)
    write <field> <hex> [offset] - Write and commit at offset
    prepare <field> <hex> [off]  - Queue a write fragment without committing

  General:
    help                         - Show this help
    quit                         - Exit device

  Fields: panid, channel, net_name, xpanid, masterkey`)
}

// cmdShow handles the show command.
func (s *Shell) cmdShow(args []string) {
	if len(args) == 0 {
		for _, f := range otsettings.Fields() {
			fmt.Fprintf(s.out, "  %-10s %s\n", f.Key()+":", Format(s.reg, f))
		}
		return
	}

	f, err := otsettings.ParseField(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s = %s\n", f.Key(), Format(s.reg, f))
}

// cmdSet handles the set command.
func (s *Shell) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: set <field> <value>")
		fmt.Fprintln(s.out, "  Example: set panid 0xabcd")
		return
	}

	f, err := otsettings.ParseField(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	value := strings.Join(args[1:], " ")
	switch f {
	case otsettings.PANID:
		var id uint64
		if id, err = strconv.ParseUint(value, 0, 16); err == nil {
			err = s.reg.SetPANID(uint16(id))
		}
	case otsettings.Channel:
		var ch uint64
		if ch, err = strconv.ParseUint(value, 0, 8); err == nil {
			err = s.reg.SetChannel(uint8(ch))
		}
	case otsettings.NetName:
		err = s.reg.SetNetName(strings.Trim(value, "\"'"))
	case otsettings.XPANID:
		err = s.reg.SetXPANID(value)
	case otsettings.MasterKey:
		err = s.reg.SetMasterKey(value)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Set failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "OK")
}

// cmdRead handles the read command.
func (s *Shell) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: read <field> [offset]")
		return
	}
	f, err := otsettings.ParseField(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	offset, ok := s.offsetArg(args, 1)
	if !ok {
		return
	}

	data, err := s.svc.Read(localConn, f, offset, 0)
	if err != nil {
		fmt.Fprintf(s.out, "Read failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s = %s (%d bytes)\n", f.Key(), hex.EncodeToString(data), len(data))
}

// cmdWrite handles the write and prepare commands.
func (s *Shell) cmdWrite(args []string, flags setupot.WriteFlag) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: write <field> <hex> [offset]")
		fmt.Fprintln(s.out, "  Example: write panid cdab")
		return
	}
	f, err := otsettings.ParseField(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	data, err := hex.DecodeString(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid hex value: %v\n", err)
		return
	}
	offset, ok := s.offsetArg(args, 2)
	if !ok {
		return
	}

	n, err := s.svc.Write(localConn, f, data, offset, flags)
	if err != nil {
		fmt.Fprintf(s.out, "Write failed: %v\n", err)
		return
	}
	if flags&setupot.FlagPrepare != 0 {
		fmt.Fprintln(s.out, "Queued")
		return
	}
	fmt.Fprintf(s.out, "OK (%d bytes)\n", n)
}

func (s *Shell) offsetArg(args []string, i int) (int, bool) {
	if len(args) <= i {
		return 0, true
	}
	offset, err := strconv.Atoi(args[i])
	if err != nil || offset < 0 {
		fmt.Fprintf(s.out, "Invalid offset: %s\n", args[i])
		return 0, false
	}
	return offset, true
}

// Format renders the current value of f for display. The master key is
// reported by length only.
func Format(reg *otsettings.Registry, f otsettings.Field) string {
	v, err := reg.Value(f)
	if err != nil {
		return "<unset>"
	}
	switch f {
	case otsettings.PANID:
		id, _ := reg.PANID()
		return fmt.Sprintf("0x%04x", id)
	case otsettings.Channel:
		return strconv.Itoa(int(v[0]))
	case otsettings.MasterKey:
		return fmt.Sprintf("<set, %d bytes>", len(otsettings.TrimNUL(v)))
	default:
		return strconv.Quote(string(otsettings.TrimNUL(v)))
	}
}
