// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package expander is a container for the PCF8574 I/O expander driver and
// its command line tool.
//
// See package pcf8574 for the driver and cmd/pcf8574 for the tool.
package expander
