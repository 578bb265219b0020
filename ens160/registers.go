// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	// PrimaryAddress is used when the ADDR pin is pulled low.
	PrimaryAddress i2c.Addr = 0x52
	// SecondaryAddress is used when the ADDR pin is pulled high.
	SecondaryAddress i2c.Addr = 0x53

	// ExpectedPartID is the value of the PART_ID register on every ENS160.
	ExpectedPartID uint16 = 0x0160
)

// Register map.
const (
	regPartID       byte = 0x00
	regOpMode       byte = 0x10
	regConfig       byte = 0x11
	regCommand      byte = 0x12
	regTempIn       byte = 0x13
	regRHIn         byte = 0x15
	regDeviceStatus byte = 0x20
	regDataAQI      byte = 0x21
	regDataTVOC     byte = 0x22
	regDataECO2     byte = 0x24
	// Shares the TVOC register. Kept until verified against the datasheet.
	regDataETOH byte = 0x22
	regDataT    byte = 0x30
	regDataRH   byte = 0x32
	regDataMISR byte = 0x38
	regGPRWrite byte = 0x40
	regGPRRead  byte = 0x48
	// GPR_READ6, the hot plate resistance of the raw group data.
	regGPRRead6 byte = 0x4e
)

type command byte

const (
	cmdNop           command = 0x00
	cmdGetAppVersion command = 0x0e
	cmdClearGPR      command = 0xcc
)

// Delays between protocol steps. The sensor's internal state transitions
// are not instantaneous.
const (
	opModeSettle   = 50 * time.Millisecond
	clearSettle    = 50 * time.Millisecond
	versionSettle  = 10 * time.Millisecond
	standardSettle = 150 * time.Millisecond
)

// Size of the general purpose read registers.
const gprSize = 8

// OperationMode is the run state of the sensor.
type OperationMode uint8

const (
	// ModeSleep is the low power standby.
	ModeSleep OperationMode = 0x00
	// ModeIdle is the low power mode where registers are accessible.
	ModeIdle OperationMode = 0x01
	// ModeStandard is the normal gas sensing mode.
	ModeStandard OperationMode = 0x02
	// ModeReset resets the sensor to factory parameters. This restarts the
	// initial start-up phase, which then lasts until 24 hours of continuous
	// operation. Not required for normal use.
	ModeReset OperationMode = 0xf0
)

func (m OperationMode) String() string {
	switch m {
	case ModeSleep:
		return "Sleep"
	case ModeIdle:
		return "Idle"
	case ModeStandard:
		return "Standard"
	case ModeReset:
		return "Reset"
	default:
		return fmt.Sprintf("OperationMode(0x%02x)", uint8(m))
	}
}
