// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/expander/pcf8574"
	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const addr = pcf8574.DefaultAddress

func getDev(t *testing.T, ops ...i2ctest.IO) *pcf8574.Dev {
	t.Helper()
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev, err := pcf8574.New(bus, addr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := dev.Halt(); err != nil {
			t.Error(err)
		}
		if err := bus.Close(); err != nil {
			t.Error(err)
		}
	})
	return dev
}

func TestRun(t *testing.T) {
	for _, test := range []struct {
		name string
		args []string
		ops  []i2ctest.IO
		want string
	}{
		{
			name: "read",
			args: []string{"read"},
			ops:  []i2ctest.IO{{Addr: addr, R: []byte{0xa5}}},
			want: "10100101",
		},
		{
			name: "write",
			args: []string{"write", "0x3c"},
			ops:  []i2ctest.IO{{Addr: addr, W: []byte{0x3c}}},
			want: "00111100",
		},
		{
			name: "set on",
			args: []string{"set", "3", "on"},
			ops:  []i2ctest.IO{{Addr: addr, W: []byte{0xff}}, {Addr: addr, W: []byte{0xf7}}},
			want: "11110111",
		},
		{
			name: "set off",
			args: []string{"set", "0", "off"},
			ops:  []i2ctest.IO{{Addr: addr, W: []byte{0xff}}, {Addr: addr, W: []byte{0xff}}},
			want: "11111111",
		},
		{
			name: "toggle",
			args: []string{"toggle", "7"},
			ops:  []i2ctest.IO{{Addr: addr, W: []byte{0xff}}, {Addr: addr, W: []byte{0x7f}}},
			want: "01111111",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			dev := getDev(t, test.ops...)
			var out bytes.Buffer
			if err := run(dev, options{mask: 0xff}, test.args, &out); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), test.want) {
				t.Errorf("output %q doesn't contain %q", out.String(), test.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"bogus"},
		{"read", "extra"},
		{"write"},
		{"set", "1"},
		{"toggle"},
	} {
		if err := run(getDev(t), options{}, args, &bytes.Buffer{}); !errors.Is(err, errUsage) {
			t.Errorf("run(%q) expected usage error, got %v", args, err)
		}
	}
	if err := run(getDev(t), options{}, []string{"toggle", "8"}, &bytes.Buffer{}); !errors.Is(err, pcf8574.ErrInvalidPin) {
		t.Errorf("expected ErrInvalidPin, got %v", err)
	}
	if err := run(getDev(t), options{}, []string{"set", "1", "maybe"}, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an invalid level")
	}
	if err := run(getDev(t), options{}, []string{"write", "0x100"}, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for a value larger than a byte")
	}
}

func TestParse(t *testing.T) {
	if b, err := parseBit("0x7"); err != nil || b != pcf8574.GPIO7 {
		t.Errorf("parseBit(0x7)=%d, %v", b, err)
	}
	if _, err := parseBit("-1"); !errors.Is(err, pcf8574.ErrInvalidPin) {
		t.Errorf("parseBit(-1) expected ErrInvalidPin, got %v", err)
	}
	if v, err := parseByte("0b1010"); err != nil || v != 0x0a {
		t.Errorf("parseByte(0b1010)=%#x, %v", v, err)
	}
	if a, err := parseAddr("0x3f"); err != nil || a != 0x3f {
		t.Errorf("parseAddr(0x3f)=%#x, %v", a, err)
	}
	if a, err := parseAddr("0x10020"); err == nil {
		t.Errorf("parseAddr(0x10020)=%#x, expected an error", a)
	}
	if l, err := parseLevel("high"); err != nil || l != gpio.High {
		t.Errorf("parseLevel(high)=%s, %v", l, err)
	}
}

func TestDisplay(t *testing.T) {
	var out bytes.Buffer
	d := newDisplay(&out, true)
	if err := d.show(0xf0); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if n := strings.Count(s, ansi256.Default.Block(colorHigh)); n != 4 {
		t.Errorf("expected 4 high blocks, found %d in %q", n, s)
	}
	if n := strings.Count(s, ansi256.Default.Block(colorLow)); n != 4 {
		t.Errorf("expected 4 low blocks, found %d in %q", n, s)
	}
	if !strings.HasSuffix(s, "11110000 0xf0\n") {
		t.Errorf("unexpected output %q", s)
	}

	out.Reset()
	d = newDisplay(&out, false)
	if err := d.show(0x01); err != nil {
		t.Fatal(err)
	}
	if s := out.String(); s != "00000001 0x01\n" {
		t.Errorf("unexpected output %q", s)
	}
}

// lineWriter hands each write to the test.
type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

func nextLine(t *testing.T, lines lineWriter) string {
	t.Helper()
	select {
	case s := <-lines:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no output")
	}
	return ""
}

func TestWatch(t *testing.T) {
	dev := getDev(t,
		i2ctest.IO{Addr: addr, W: []byte{0x0f}},
		i2ctest.IO{Addr: addr, R: []byte{0x0f}},
		i2ctest.IO{Addr: addr, R: []byte{0x0e}},
	)
	p := &gpiotest.Pin{N: "INT", Num: 17, EdgesChan: make(chan gpio.Level)}
	lines := make(lineWriter, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(dev, p, options{mask: 0x0f, count: 1}, lines, nil)
	}()
	if s := nextLine(t, lines); s != "00001111 0x0f\n" {
		t.Errorf("unexpected initial output %q", s)
	}
	p.EdgesChan <- gpio.Low
	if s := nextLine(t, lines); s != "00001110 0x0e\n" {
		t.Errorf("unexpected output %q", s)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch didn't return")
	}
	if dev.InterruptEnabled() {
		t.Error("interrupt still attached after watch returned")
	}
}

func TestWatchStop(t *testing.T) {
	dev := getDev(t,
		i2ctest.IO{Addr: addr, W: []byte{0xff}},
		i2ctest.IO{Addr: addr, R: []byte{0xff}},
	)
	p := &gpiotest.Pin{N: "INT", Num: 17, EdgesChan: make(chan gpio.Level)}
	stop := make(chan struct{})
	close(stop)
	if err := watch(dev, p, options{mask: 0xff}, &bytes.Buffer{}, stop); err != nil {
		t.Fatal(err)
	}
}
