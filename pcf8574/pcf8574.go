// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcf8574 provides a driver for the NXP/TI PCF8574 and PCF8574A 8-bit
// I²C I/O expanders.
//
// The chip has no register map. Writing a byte sets the eight quasi
// bidirectional pins and reading a byte returns their current state. A pin
// written as 1 is weakly pulled high and can be used as an input. A pin written
// as 0 sinks current to ground.
//
// The driver keeps a copy of the last byte the chip acknowledged and builds
// every single pin operation from that copy, so pin writes never read the chip
// first.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/pcf8574.pdf
//
// # Variants
//
//   - PCF8574 - addresses: 0x20 through 0x27
//   - PCF8574A - addresses: 0x38 through 0x3f
//
// # Interrupt
//
// The INT output is open drain and active low. It falls whenever an input pin
// changes state and is released when the chip is read. See AttachInterrupt.
package pcf8574

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
)

// Variant represents the actual chip model.
type Variant string

const (
	PCF8574  Variant = "PCF8574"
	PCF8574A Variant = "PCF8574A"

	// DefaultAddress is the base address of the PCF8574.
	DefaultAddress uint16 = 0x20
	// DefaultAddressA is the base address of the PCF8574A.
	DefaultAddressA uint16 = 0x38

	// DefaultIOMask sets every pin high, which makes them all usable as
	// inputs. It is the power-on state of the chip.
	DefaultIOMask byte = 0xff
	// AllHigh is a register value with every pin high.
	AllHigh byte = 0xff
)

// Bit identifies one of the eight pins of the expander.
type Bit uint8

const (
	GPIO0 Bit = iota
	GPIO1
	GPIO2
	GPIO3
	GPIO4
	GPIO5
	GPIO6
	GPIO7
)

// NumPins is the number of pins on the device.
const NumPins = 8

func (b Bit) mask() byte {
	return 1 << b
}

func (b Bit) valid() bool {
	return b < NumPins
}

// Dev is a handle to one PCF8574 chip.
type Dev struct {
	// Pins exposes the eight pins of the device as gpio.PinIO. They are also
	// registered in gpioreg.
	Pins []gpio.PinIO

	variant Variant

	mu       sync.Mutex
	d        *i2c.Dev
	register byte

	// Interrupt state, guarded by mu.
	intPin  gpio.PinIn
	intStop chan struct{}
	intDone chan struct{}
}

// New returns a handle to the expander at address on bus. The chip itself is
// not accessed, call Init to set the pins.
//
// The variant is derived from the address.
func New(bus i2c.Bus, address uint16) (*Dev, error) {
	v, err := variantOf(address)
	if err != nil {
		return nil, err
	}
	dev := &Dev{
		d:        &i2c.Dev{Bus: bus, Addr: address},
		variant:  v,
		register: DefaultIOMask,
	}
	dev.Pins = make([]gpio.PinIO, NumPins)
	sDev := dev.String()
	for ix := 0; ix < NumPins; ix++ {
		name := fmt.Sprintf("%s_GPIO%d", sDev, ix)
		dev.Pins[ix] = &pcfPin{dev: dev, bit: Bit(ix), name: name}
		// Ignore registration failure.
		_ = gpioreg.Register(dev.Pins[ix])
	}
	return dev, nil
}

func variantOf(address uint16) (Variant, error) {
	switch {
	case address >= DefaultAddress && address < DefaultAddress+8:
		return PCF8574, nil
	case address >= DefaultAddressA && address < DefaultAddressA+8:
		return PCF8574A, nil
	}
	return "", fmt.Errorf("%w: %#02x", ErrInvalidAddress, address)
}

// Init writes ioMask to the chip. A 1 bit sets the pin high so it can be read
// as an input, a 0 bit drives it low.
//
// It must be called once before using the pins. The returned error is nil
// only if the chip acknowledged the write.
func (dev *Dev) Init(ioMask byte) error {
	return dev.WriteRegister(ioMask)
}

// InitWithInterrupt is Init followed by AttachInterrupt. The interrupt is only
// attached when the write succeeded.
func (dev *Dev) InitWithInterrupt(ioMask byte, p gpio.PinIn, h Handler) error {
	if err := dev.Init(ioMask); err != nil {
		return err
	}
	return dev.AttachInterrupt(p, h)
}

// Read reads the state of the eight pins.
func (dev *Dev) Read() (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	var r [1]byte
	if err := dev.d.Tx(nil, r[:]); err != nil {
		return AllHigh, fmt.Errorf("pcf8574: %w", err)
	}
	return r[0], nil
}

// ReadRegister reads the state of the eight pins. If the chip doesn't answer,
// AllHigh is returned since the pins of an unpowered or missing chip float
// high.
//
// Use Read to get the bus error instead.
func (dev *Dev) ReadRegister() byte {
	v, err := dev.Read()
	if err != nil {
		glog.Warningf("%s: read failed, assuming all high: %v", dev, err)
		return AllHigh
	}
	return v
}

// WriteRegister writes value to the chip. The cached register is only updated
// when the chip acknowledged the write. On failure the returned error is a
// *TxError; StatusOf tells an address error from a transmission error.
func (dev *Dev) WriteRegister(value byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.write(value)
}

// write must be called with mu held.
func (dev *Dev) write(value byte) error {
	glog.V(2).Infof("%s: write %#02x", dev, value)
	if err := dev.d.Tx([]byte{value}, nil); err != nil {
		return &TxError{Status: classify(err), Value: value, Err: err}
	}
	dev.register = value
	return nil
}

// update writes the value computed by fn from the cached register.
func (dev *Dev) update(fn func(r byte) byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.write(fn(dev.register))
}

// Register returns the last value acknowledged by the chip. It may differ from
// the chip state after a failed write.
func (dev *Dev) Register() byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.register
}

// DigitalRead returns the level of pin b. It reads the chip, and a bus failure
// reports every pin as gpio.High.
func (dev *Dev) DigitalRead(b Bit) gpio.Level {
	if !b.valid() {
		glog.Errorf("%s: %v: %d", dev, ErrInvalidPin, b)
		return gpio.Low
	}
	return dev.ReadRegister()&b.mask() != 0
}

// DigitalWrite drives pin b. The output stage of the chip sinks current when
// the bit is 0, so active (gpio.High) clears the bit and inactive (gpio.Low)
// sets it.
//
// The value is built from Register, not from the chip.
func (dev *Dev) DigitalWrite(b Bit, active gpio.Level) error {
	if !b.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPin, b)
	}
	return dev.update(func(r byte) byte {
		if active {
			return r &^ b.mask()
		}
		return r | b.mask()
	})
}

// DigitalToggle flips bit b of Register and writes the result.
func (dev *Dev) DigitalToggle(b Bit) error {
	if !b.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPin, b)
	}
	return dev.update(func(r byte) byte {
		return r ^ b.mask()
	})
}

// Addr returns the I²C address of the device.
func (dev *Dev) Addr() uint16 {
	return dev.d.Addr
}

// Variant returns the chip model, as derived from the address.
func (dev *Dev) Variant() Variant {
	return dev.variant
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s_%x", dev.variant, dev.d.Addr)
}

// Halt detaches the interrupt and removes the pins from gpioreg. The chip
// keeps its current state.
func (dev *Dev) Halt() error {
	err := dev.DetachInterrupt()
	for _, p := range dev.Pins {
		if uerr := gpioreg.Unregister(p.Name()); uerr != nil {
			glog.V(1).Infof("%s: %v", dev, uerr)
		}
	}
	dev.Pins = nil
	return err
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}

var (
	// ErrInvalidAddress is returned by New for an address outside of both
	// variants' ranges.
	ErrInvalidAddress = errors.New("pcf8574: address not supported")
	// ErrInvalidPin is returned for a Bit outside GPIO0..GPIO7.
	ErrInvalidPin = errors.New("pcf8574: invalid pin")
	// ErrInvalidArgument is returned by AttachInterrupt for a nil pin or
	// handler.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotImplemented is returned by pin functions the chip lacks.
	ErrNotImplemented = errors.New("pcf8574: not implemented")
)
