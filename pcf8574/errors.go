// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Status is the outcome of a write to the chip.
type Status uint8

const (
	// StatusOK means the chip acknowledged the write.
	StatusOK Status = iota
	// StatusTransmission means the transfer failed after the address, for
	// example the data byte was not acknowledged.
	StatusTransmission
	// StatusAddress means no device acknowledged the address.
	StatusAddress
)

var (
	// ErrTransmission matches a write that failed after the address was
	// acknowledged.
	ErrTransmission = errors.New("pcf8574: transmission error")
	// ErrAddress matches a write that no device acknowledged.
	ErrAddress = errors.New("pcf8574: address not acknowledged")
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTransmission:
		return "transmission error"
	case StatusAddress:
		return "address error"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) err() error {
	if s == StatusAddress {
		return ErrAddress
	}
	return ErrTransmission
}

// TxError is returned by a failed write. The cached register is unchanged.
type TxError struct {
	Status Status
	Value  byte
	Err    error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("pcf8574: writing %#02x: %s: %v", e.Value, e.Status, e.Err)
}

// Unwrap makes both the Status sentinel and the bus error visible to
// errors.Is.
func (e *TxError) Unwrap() []error {
	return []error{e.Status.err(), e.Err}
}

// StatusOf returns the Status carried by err. nil is StatusOK and any other
// error that is not a *TxError is StatusTransmission.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr.Status
	}
	return classify(err)
}

// classify maps a bus error to a Status. The Linux i2c-dev driver reports a
// missing address acknowledge as ENXIO, and some buses only keep its text.
func classify(err error) Status {
	if errors.Is(err, syscall.ENXIO) || errors.Is(err, ErrAddress) {
		return StatusAddress
	}
	if strings.Contains(err.Error(), syscall.ENXIO.Error()) {
		return StatusAddress
	}
	return StatusTransmission
}
