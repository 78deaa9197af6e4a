// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// pcfPin exposes one bit of the expander as a gpio.PinIO. Unlike
// Dev.DigitalWrite, levels are electrical: Out(gpio.High) sets the bit.
type pcfPin struct {
	dev  *Dev
	bit  Bit
	name string
}

func (p *pcfPin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Function reports the mode from the cached register, without touching the
// bus. A high bit is an input held high by the chip.
func (p *pcfPin) Function() string {
	if p.dev.Register()&p.bit.mask() != 0 {
		return "In/High"
	}
	return "Out/Low"
}

func (p *pcfPin) Halt() error {
	return nil
}

// In sets the bit high. The pin is then weakly pulled up by the chip, which is
// the only input mode it has.
func (p *pcfPin) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull == gpio.PullDown {
		return ErrNotImplemented
	}
	if edge != gpio.NoEdge {
		// Edges are only reported for the whole chip through the INT line.
		return ErrNotImplemented
	}
	return p.dev.update(func(r byte) byte {
		return r | p.bit.mask()
	})
}

func (p *pcfPin) Name() string {
	return p.name
}

func (p *pcfPin) Number() int {
	return int(p.bit)
}

func (p *pcfPin) Out(l gpio.Level) error {
	return p.dev.update(func(r byte) byte {
		if l {
			return r | p.bit.mask()
		}
		return r &^ p.bit.mask()
	})
}

func (p *pcfPin) Pull() gpio.Pull {
	return gpio.PullUp
}

func (p *pcfPin) Read() gpio.Level {
	return p.dev.DigitalRead(p.bit)
}

func (p *pcfPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *pcfPin) String() string {
	return p.name
}

// WaitForEdge always returns false. Use Dev.AttachInterrupt to be notified of
// changes.
func (p *pcfPin) WaitForEdge(timeout time.Duration) bool {
	return false
}

var _ gpio.PinIO = &pcfPin{}
