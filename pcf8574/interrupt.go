// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// Handler is called once per falling edge of the INT line.
//
// It runs on a goroutine owned by the Dev, concurrently with the caller's own
// use of the device. It may call the Dev's read and write methods, which are
// serialized, but it must not call DetachInterrupt or Halt.
type Handler func()

// edgePoll bounds how long the watcher blocks in WaitForEdge before checking
// whether it was detached.
const edgePoll = 100 * time.Millisecond

// AttachInterrupt configures p, the host pin wired to the INT output of the
// chip, as an input with pull up and calls h on each falling edge.
//
// Only one interrupt can be attached at a time. Calling AttachInterrupt again
// before DetachInterrupt does nothing.
func (dev *Dev) AttachInterrupt(p gpio.PinIn, h Handler) error {
	if p == nil || h == nil {
		return fmt.Errorf("pcf8574: %w: nil interrupt pin or handler", ErrInvalidArgument)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.intPin != nil {
		glog.V(1).Infof("%s: interrupt already attached to %s", dev, dev.intPin)
		return nil
	}
	// INT is open drain and active low.
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("pcf8574: interrupt pin %s: %w", p, err)
	}
	dev.intPin = p
	dev.intStop = make(chan struct{})
	dev.intDone = make(chan struct{})
	go watch(p, h, dev.intStop, dev.intDone)
	glog.V(1).Infof("%s: interrupt attached to %s", dev, p)
	return nil
}

// DetachInterrupt stops calling the handler and disables edge detection on the
// interrupt pin. It does nothing if no interrupt is attached.
func (dev *Dev) DetachInterrupt() error {
	dev.mu.Lock()
	p, stop, done := dev.intPin, dev.intStop, dev.intDone
	dev.intPin, dev.intStop, dev.intDone = nil, nil, nil
	dev.mu.Unlock()
	if p == nil {
		return nil
	}
	close(stop)
	<-done
	glog.V(1).Infof("%s: interrupt detached from %s", dev, p)
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("pcf8574: interrupt pin %s: %w", p, err)
	}
	return nil
}

// InterruptPin returns the pin passed to AttachInterrupt, or nil when no
// interrupt is attached.
func (dev *Dev) InterruptPin() gpio.PinIn {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.intPin
}

// InterruptEnabled reports whether an interrupt is attached.
func (dev *Dev) InterruptEnabled() bool {
	return dev.InterruptPin() != nil
}

func watch(p gpio.PinIn, h Handler, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if !p.WaitForEdge(edgePoll) {
			continue
		}
		select {
		case <-stop:
			return
		default:
		}
		h()
	}
}
