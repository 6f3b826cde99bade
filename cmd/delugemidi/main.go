package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"delugedisplay/deluge"
	"delugedisplay/kernel"
	"delugedisplay/midi"
	"delugedisplay/params"
	"delugedisplay/preset"
	"delugedisplay/theme"
	"delugedisplay/widgets"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	// plain output when piped
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "detect":
		err = detectDeluge(args)
	case "dump":
		err = dumpDisplay(args)
	case "flip":
		err = flipDisplay(args)
	case "note":
		err = sendNote(args)
	case "params":
		printParams()
	case "presets":
		err = listPresets()
	case "decode":
		err = decodeFile(args)
	case "poll":
		err = pollDevices(args)
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		if errors.Is(err, midi.ErrMIDIHung) {
			fmt.Println("Fix: sudo killall coreaudiod midiserver")
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Deluge MIDI tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List all MIDI ports")
	fmt.Println("  detect [-port P]     - Find the Deluge")
	fmt.Println("  dump [-port P] [-7seg] - Print the Deluge's display once")
	fmt.Println("  flip [-port P]       - Toggle the Deluge between OLED and 7-segment")
	fmt.Println("  note [-port P] <n>   - Play note n (number or name, e.g. C4)")
	fmt.Println("  params               - Print the note sender's parameter table")
	fmt.Println("  presets              - List saved note sender presets")
	fmt.Println("  decode <file.syx>    - Render display SysEx captured to a file")
	fmt.Println("  poll [-port P]       - Watch the Deluge connect and disconnect")
}

func portFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	port := fs.String("port", midi.DefaultPortFilter, "MIDI port name to match")
	return fs, port
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ps, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		return err
	}
	for i, name := range ps.InNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ps.OutNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func detectDeluge(args []string) error {
	fs, port := portFlags("detect")
	fs.Parse(args)

	fmt.Printf("Looking for a port matching %q...\n", *port)
	ps, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		return err
	}
	in, out, err := midi.FindDeluge(ps, *port)
	if err != nil {
		fmt.Println("\nDeluge not found")
		return nil
	}
	fmt.Printf("Found input: %s\n", in.String())
	fmt.Printf("Found output: %s\n", out.String())
	fmt.Println("\nDeluge detected!")
	return nil
}

// connect opens the Deluge and starts polling it
func connect(ctx context.Context, filter string, mode deluge.DisplayMode) (*midi.Connection, *deluge.Display, error) {
	ps, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		return nil, nil, err
	}
	in, out, err := midi.FindDeluge(ps, filter)
	if err != nil {
		return nil, nil, err
	}
	display := deluge.NewDisplay()
	conn, err := midi.Open(in.String(), in, out, display, midi.Options{Mode: mode})
	if err != nil {
		return nil, nil, err
	}
	go conn.Run(ctx)
	return conn, display, nil
}

func dumpDisplay(args []string) error {
	fs, port := portFlags("dump")
	seg := fs.Bool("7seg", false, "dump the 7-segment display instead of the OLED")
	grid := fs.Bool("grid", false, "one cell per pixel")
	fs.Parse(args)

	mode := deluge.ModeOLED
	want := midi.UpdateOLED
	if *seg {
		mode, want = deluge.ModeSevenSegment, midi.UpdateSevenSegment
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, display, err := connect(ctx, *port, mode)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no display data from %s", conn.ID())
		case u := <-conn.Updates():
			if u.Kind == midi.UpdateError {
				fmt.Printf("skipped: %v\n", u.Err)
				continue
			}
			if u.Kind != want {
				continue
			}
			colors := theme.New(nil).For(deluge.ColorNormal)
			if *seg {
				digits, dots := display.SevenSegment()
				fmt.Println(widgets.RenderSevenSegment(digits, dots, widgets.SevenSegmentOptions{Colors: colors, Ghost: true}))
			} else {
				frame := display.Frame()
				fmt.Println(widgets.RenderOLED(&frame, widgets.OLEDOptions{Colors: colors, PixelGrid: *grid}))
			}
			return nil
		}
	}
}

func flipDisplay(args []string) error {
	fs, port := portFlags("flip")
	fs.Parse(args)

	ps, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		return err
	}
	_, out, err := midi.FindDeluge(ps, *port)
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	fmt.Printf("Sending flip to %s\n", out.String())
	return send(gomidi.SysEx(deluge.RequestFlip))
}

func sendNote(args []string) error {
	fs, port := portFlags("note")
	hold := fs.Duration("hold", 300*time.Millisecond, "how long to hold the note")
	channel := fs.Int("channel", 1, "MIDI channel 1-16")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: note [-port P] [-hold D] [-channel C] <note>")
	}

	note, err := params.ParseNote(fs.Arg(0))
	if err != nil {
		return err
	}
	if *channel < 1 || *channel > 16 {
		return fmt.Errorf("channel %d not in 1-16", *channel)
	}

	ps, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		return err
	}
	_, out, err := midi.FindDeluge(ps, *port)
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	k, err := kernel.New(params.NewPluginTree(), send, kernel.WithChannel(uint8(*channel-1)))
	if err != nil {
		return err
	}
	if err := k.SetNote(int(note)); err != nil {
		return err
	}

	fmt.Printf("Playing %s (%d) on %s\n", params.NoteName(k.Note()), k.Note(), out.String())
	if err := k.Trigger(true); err != nil {
		return err
	}
	time.Sleep(*hold)
	return k.Trigger(false)
}

func printParams() {
	tree := params.NewPluginTree()
	fmt.Printf("%-8s %-16s %-18s %-10s %s\n", "ADDRESS", "IDENTIFIER", "NAME", "RANGE", "DEFAULT")
	for _, p := range tree.All() {
		rng := fmt.Sprintf("%g-%g", p.Min, p.Max)
		fmt.Printf("%-8d %-16s %-18s %-10s %s\n", uint64(p.Address), p.Identifier, p.Name, rng, p.Format(p.Default))
	}
}

func listPresets() error {
	dir, err := preset.Dir()
	if err != nil {
		return err
	}
	infos, err := preset.List(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Printf("No presets in %s\n", dir)
		return nil
	}
	fmt.Printf("=== Presets in %s ===\n", dir)
	for _, info := range infos {
		tree := params.NewPluginTree()
		if _, err := preset.Load(dir, info.Filename, tree); err != nil {
			fmt.Printf("  %s  (%v)\n", info.Filename, err)
			continue
		}
		note := tree.Get(params.MIDINoteNumber)
		fmt.Printf("  %s  %-16s note=%s\n", info.Timestamp.Format("2006-01-02 15:04:05"), info.Name, note.Format(note.Value()))
	}
	return nil
}

func decodeFile(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	grid := fs.Bool("grid", false, "one cell per pixel")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: decode [-grid] <file.syx>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	var asm deluge.Assembler
	display := deluge.NewDisplay()
	applied := 0
	for i, msg := range asm.Feed(data) {
		m, err := deluge.Parse(msg)
		if err == nil {
			err = display.Apply(m)
		}
		if err != nil {
			fmt.Printf("message %d: %v\n", i, err)
			continue
		}
		applied++
	}
	fmt.Printf("%d messages applied, %d overflowed\n", applied, asm.Overflows())

	colors := theme.New(nil).For(deluge.ColorNormal)
	if display.HasFrame() {
		frame := display.Frame()
		fmt.Println(widgets.RenderOLED(&frame, widgets.OLEDOptions{Colors: colors, PixelGrid: *grid}))
	}
	if display.HasSevenSegment() {
		digits, dots := display.SevenSegment()
		fmt.Println(widgets.RenderSevenSegment(digits, dots, widgets.SevenSegmentOptions{Colors: colors, Ghost: true}))
	}
	return nil
}

func pollDevices(args []string) error {
	fs, port := portFlags("poll")
	fs.Parse(args)

	fmt.Println("Polling for the Deluge every second...")
	fmt.Println("Connect/disconnect it to test. Ctrl+C to exit.")

	dm := midi.NewDeviceManager(deluge.NewDisplay(), *port, midi.Options{})
	go dm.Run(context.Background())

	for ev := range dm.Events() {
		stamp := time.Now().Format("15:04:05")
		switch ev.Type {
		case midi.DeviceConnected:
			fmt.Printf("[%s] connected: %s\n", stamp, ev.ID)
		case midi.DeviceDisconnected:
			fmt.Printf("[%s] disconnected: %s\n", stamp, ev.ID)
		case midi.DeviceFailed:
			fmt.Printf("[%s] failed: %s: %v\n", stamp, ev.ID, ev.Err)
		}
		ins, outs := dm.Ports()
		fmt.Printf("  Inputs: %v\n", ins)
		fmt.Printf("  Outputs: %v\n", outs)
	}
	return nil
}
