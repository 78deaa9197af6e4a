// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pcf8574 reads, writes and watches a PCF8574 I/O expander.
//
// Usage:
//
//	pcf8574 [flags] read
//	pcf8574 [flags] write <value>
//	pcf8574 [flags] set <pin> on|off
//	pcf8574 [flags] toggle <pin>
//	pcf8574 [flags] -int GPIO17 watch
//
// set and toggle write the -m mask first, since the chip can't be read back
// without disturbing its outputs. set on sinks current through the pin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/GermanBionicSystems/expander/pcf8574"
	"github.com/golang/glog"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var errUsage = errors.New("usage: pcf8574 [flags] read|write <value>|set <pin> on|off|toggle <pin>|watch")

type options struct {
	mask  byte
	count int
	color bool
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return byte(v), nil
}

func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint16(v), nil
}

func parseBit(s string) (pcf8574.Bit, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v >= pcf8574.NumPins {
		return 0, fmt.Errorf("%w: %q", pcf8574.ErrInvalidPin, s)
	}
	return pcf8574.Bit(v), nil
}

func parseLevel(s string) (gpio.Level, error) {
	switch s {
	case "on", "1", "high":
		return gpio.High, nil
	case "off", "0", "low":
		return gpio.Low, nil
	}
	return gpio.Low, fmt.Errorf("invalid level %q, expected on or off", s)
}

// run executes one of the non blocking commands.
func run(dev *pcf8574.Dev, opts options, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	d := newDisplay(w, opts.color)
	switch cmd, args := args[0], args[1:]; cmd {
	case "read":
		if len(args) != 0 {
			return errUsage
		}
		v, err := dev.Read()
		if err != nil {
			return err
		}
		return d.show(v)
	case "write":
		if len(args) != 1 {
			return errUsage
		}
		v, err := parseByte(args[0])
		if err != nil {
			return err
		}
		if err := dev.WriteRegister(v); err != nil {
			return err
		}
		return d.show(dev.Register())
	case "set":
		if len(args) != 2 {
			return errUsage
		}
		b, err := parseBit(args[0])
		if err != nil {
			return err
		}
		l, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		if err := dev.Init(opts.mask); err != nil {
			return err
		}
		if err := dev.DigitalWrite(b, l); err != nil {
			return err
		}
		return d.show(dev.Register())
	case "toggle":
		if len(args) != 1 {
			return errUsage
		}
		b, err := parseBit(args[0])
		if err != nil {
			return err
		}
		if err := dev.Init(opts.mask); err != nil {
			return err
		}
		if err := dev.DigitalToggle(b); err != nil {
			return err
		}
		return d.show(dev.Register())
	}
	return errUsage
}

// watch prints the pins each time the interrupt pin falls, until stop is
// closed or opts.count changes were printed.
func watch(dev *pcf8574.Dev, intPin gpio.PinIn, opts options, w io.Writer, stop <-chan struct{}) error {
	changes := make(chan byte, 1)
	err := dev.InitWithInterrupt(opts.mask, intPin, func() {
		v := dev.ReadRegister()
		select {
		case changes <- v:
		default:
			glog.V(1).Infof("dropped change %#02x", v)
		}
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.DetachInterrupt(); err != nil {
			glog.Errorf("%s: %v", dev, err)
		}
	}()

	d := newDisplay(w, opts.color)
	// Reading also releases INT if it was already asserted.
	if err := d.show(dev.ReadRegister()); err != nil {
		return err
	}
	for n := 0; opts.count == 0 || n < opts.count; n++ {
		select {
		case v := <-changes:
			if err := d.show(v); err != nil {
				return err
			}
		case <-stop:
			return nil
		}
	}
	return nil
}

func mainImpl() error {
	busName := flag.String("b", "", "I²C bus to use")
	addr := flag.String("a", "0x20", "I²C address of the expander, 0x20-0x27 or 0x38-0x3f")
	mask := flag.String("m", "0xff", "I/O mask written before set, toggle and watch")
	intName := flag.String("int", "", "host GPIO wired to INT, required by watch")
	count := flag.Int("n", 0, "exit watch after n changes, 0 to run until interrupted")
	noColor := flag.Bool("no-color", false, "print the pins without ANSI colors")
	flag.Parse()
	defer glog.Flush()

	m, err := parseByte(*mask)
	if err != nil {
		return err
	}
	a, err := parseAddr(*addr)
	if err != nil {
		return err
	}
	opts := options{mask: m, count: *count, color: !*noColor}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev, err := pcf8574.New(bus, a)
	if err != nil {
		return err
	}
	defer dev.Halt()

	w := colorable.NewColorableStdout()
	if flag.Arg(0) != "watch" {
		return run(dev, opts, flag.Args(), w)
	}
	if flag.NArg() != 1 {
		return errUsage
	}
	if *intName == "" {
		return errors.New("watch requires -int")
	}
	p := gpioreg.ByName(*intName)
	if p == nil {
		return fmt.Errorf("invalid interrupt pin %q", *intName)
	}

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		close(stop)
	}()
	err = watch(dev, p, opts, w, stop)
	_, _ = io.WriteString(w, "\n")
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "pcf8574: %s.\n", err)
		os.Exit(1)
	}
}
