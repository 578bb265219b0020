// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased is returned by every operation after Release().
	ErrReleased = errors.New("ens160: device released")
	// ErrClosed is returned by an AsyncDev after Close().
	ErrClosed = errors.New("ens160: device closed")
	// ErrNoNewData is returned by Sense() when the status register does not
	// report new data.
	ErrNoNewData = errors.New("ens160: no new data ready")
	// ErrNoInterruptPin is returned by WaitForNewData() when Opts.InterruptPin
	// was not set.
	ErrNoInterruptPin = errors.New("ens160: no interrupt pin configured")

	errEmptyCommand = errors.New("ens160: empty command")
)

// BusError wraps an error returned by the I²C transport. The transport
// error is not interpreted.
type BusError struct {
	// Register addressed by the failed transaction.
	Reg byte
	// True if the transaction was a write-then-read.
	Read bool
	Err  error
}

func (e *BusError) Error() string {
	op := "write"
	if e.Read {
		op = "read"
	}
	return fmt.Sprintf("ens160: %s register 0x%02x: %v", op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// UnexpectedChipIDError is returned by Initialize() when the PART_ID register
// does not hold ExpectedPartID. This means a wrong device or miswiring, it is
// not a transient condition.
type UnexpectedChipIDError struct {
	PartID uint16
}

func (e *UnexpectedChipIDError) Error() string {
	return fmt.Sprintf("ens160: unexpected part id 0x%04x, expected 0x%04x", e.PartID, ExpectedPartID)
}

// OpModeError is returned by Initialize() when the sensor did not accept the
// standard operation mode.
type OpModeError struct {
	// Mode read back from the OPMODE register.
	Mode OperationMode
}

func (e *OpModeError) Error() string {
	return fmt.Sprintf("ens160: operation mode not correct, read back %s", e.Mode)
}
