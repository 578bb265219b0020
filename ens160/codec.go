// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// PPM is parts per million. Units of the equivalent CO2 concentration.
type PPM uint16

func (p PPM) String() string {
	return strconv.Itoa(int(p)) + " PPM"
}

// PPB is parts per billion. Units of TVOC and ethanol concentrations.
type PPB uint16

func (p PPB) String() string {
	return strconv.Itoa(int(p)) + " PPB"
}

// ValidityFlag reports how far the sensor is through its warm up.
type ValidityFlag uint8

const (
	NormalOperation ValidityFlag = iota
	// WarmupPhase lasts about 3 minutes after entering standard mode.
	WarmupPhase
	// InitialStartupPhase lasts about an hour after the first power on, and
	// is repeated until the sensor accumulates 24 hours of operation.
	InitialStartupPhase
	InvalidOutput
)

func (v ValidityFlag) String() string {
	switch v {
	case NormalOperation:
		return "NormalOperation"
	case WarmupPhase:
		return "WarmupPhase"
	case InitialStartupPhase:
		return "InitialStartupPhase"
	default:
		return "InvalidOutput"
	}
}

// Status is the DEVICE_STATUS register.
type Status uint8

const (
	statusNewGPR   Status = 1 << 0
	statusNewData  Status = 1 << 1
	statusValidity Status = 3 << 2
	statusError    Status = 1 << 6
	statusRunning  Status = 1 << 7
)

// NewGroupDataReady is set when new raw group data is available in GPR_READ.
func (s Status) NewGroupDataReady() bool {
	return s&statusNewGPR != 0
}

// NewDataReady is set when new measurement data is available.
func (s Status) NewDataReady() bool {
	return s&statusNewData != 0
}

// Validity returns the validity of the current output.
func (s Status) Validity() ValidityFlag {
	return ValidityFlag((s & statusValidity) >> 2)
}

// HasError is set when the sensor detected an error, most often an invalid
// operation mode.
func (s Status) HasError() bool {
	return s&statusError != 0
}

// RunningMode is set while the sensor is in an operating mode.
func (s Status) RunningMode() bool {
	return s&statusRunning != 0
}

func (s Status) String() string {
	return fmt.Sprintf("Status{NewGroupDataReady:%t NewDataReady:%t Validity:%s Error:%t RunningMode:%t}",
		s.NewGroupDataReady(), s.NewDataReady(), s.Validity(), s.HasError(), s.RunningMode())
}

func decodeStatus(b byte) Status {
	return Status(b)
}

// AirQualityIndex is the UBA air quality index computed by the sensor.
type AirQualityIndex uint8

const (
	AQIUnavailable AirQualityIndex = iota
	AQIExcellent
	AQIGood
	AQIModerate
	AQIPoor
	AQIUnhealthy
	// AQIInvalidRange is returned for any register value above 5.
	AQIInvalidRange
)

func (a AirQualityIndex) String() string {
	switch a {
	case AQIUnavailable:
		return "Unavailable"
	case AQIExcellent:
		return "Excellent"
	case AQIGood:
		return "Good"
	case AQIModerate:
		return "Moderate"
	case AQIPoor:
		return "Poor"
	case AQIUnhealthy:
		return "Unhealthy"
	default:
		return "InvalidRange"
	}
}

func decodeAirQualityIndex(b byte) AirQualityIndex {
	if b > byte(AQIUnhealthy) {
		return AQIInvalidRange
	}
	return AirQualityIndex(b)
}

// The sensor is little endian.
func decodeU16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func encodeU16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

// EncodeTempCompensation converts a temperature in °C to the TEMP_IN register
// format: Kelvin scaled by 64, truncated toward zero. Values outside the
// register range saturate.
func EncodeTempCompensation(celsius float32) uint16 {
	k := (celsius + 273.15) * 64.0
	switch {
	case math.IsNaN(float64(k)) || k <= 0:
		return 0
	case k >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(k)
}

// DecodeTempCompensation converts the DATA_T register to °C.
func DecodeTempCompensation(raw uint16) float32 {
	return float32(raw)/64.0 - 273.15
}

// DecodeRawResistance converts the GPR_READ6 register to the hot plate
// resistance in ohms: 2^(raw/2048).
func DecodeRawResistance(raw uint16) float32 {
	return float32(math.Exp2(float64(float32(raw) / 2048.0)))
}

// Measurements is a snapshot of the sensor outputs. The fields are read one
// after the other, there is no hardware latch.
type Measurements struct {
	// Equivalent CO2 concentration.
	CO2 PPM
	// Total volatile organic compounds.
	TVOC PPB
	AQI  AirQualityIndex
	// Ethanol concentration.
	Ethanol PPB
	// Raw hot plate resistance in ohms.
	RawResistance float32
}

func (m *Measurements) String() string {
	return fmt.Sprintf("eCO2: %s TVOC: %s AQI: %s Ethanol: %s Resistance: %.1fΩ",
		m.CO2, m.TVOC, m.AQI, m.Ethanol, m.RawResistance)
}

// FirmwareVersion is the application firmware version of the sensor.
type FirmwareVersion struct {
	Major uint8
	Minor uint8
	Build uint8
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// InterruptPinConfig is the CONFIG register value. Start from
// NewInterruptPinConfig and chain the settings:
//
//	cfg := ens160.NewInterruptPinConfig().ActiveLow().PushPull().OnNewData().EnableInterrupt()
type InterruptPinConfig uint8

const (
	intEnable   InterruptPinConfig = 1 << 0
	intNewData  InterruptPinConfig = 1 << 1
	intNewGPR   InterruptPinConfig = 1 << 2
	intPushPull InterruptPinConfig = 1 << 5
	intPolarity InterruptPinConfig = 1 << 6
)

// NewInterruptPinConfig returns a configuration with every bit cleared:
// active low, open drain, no interrupt source, disabled.
func NewInterruptPinConfig() InterruptPinConfig {
	return 0
}

// ActiveHigh drives the pin high when the interrupt is asserted.
func (c InterruptPinConfig) ActiveHigh() InterruptPinConfig { return c | intPolarity }

// ActiveLow drives the pin low when the interrupt is asserted.
func (c InterruptPinConfig) ActiveLow() InterruptPinConfig { return c &^ intPolarity }

// PushPull selects a push-pull pin driver.
func (c InterruptPinConfig) PushPull() InterruptPinConfig { return c | intPushPull }

// OpenDrain selects an open drain pin driver.
func (c InterruptPinConfig) OpenDrain() InterruptPinConfig { return c &^ intPushPull }

// OnNewGroupData asserts the interrupt when new group data is ready.
func (c InterruptPinConfig) OnNewGroupData() InterruptPinConfig { return c | intNewGPR }

// NotNewGroupData does not assert the interrupt on new group data.
func (c InterruptPinConfig) NotNewGroupData() InterruptPinConfig { return c &^ intNewGPR }

// OnNewData asserts the interrupt when new measurement data is ready.
func (c InterruptPinConfig) OnNewData() InterruptPinConfig { return c | intNewData }

// NotNewData does not assert the interrupt on new measurement data.
func (c InterruptPinConfig) NotNewData() InterruptPinConfig { return c &^ intNewData }

// EnableInterrupt enables the interrupt pin.
func (c InterruptPinConfig) EnableInterrupt() InterruptPinConfig { return c | intEnable }

// DisableInterrupt disables the interrupt pin.
func (c InterruptPinConfig) DisableInterrupt() InterruptPinConfig { return c &^ intEnable }

// Value returns the register byte.
func (c InterruptPinConfig) Value() byte { return byte(c) }

// Build is an alias of Value that terminates a chain of settings.
func (c InterruptPinConfig) Build() byte { return byte(c) }

func (c InterruptPinConfig) String() string {
	return fmt.Sprintf("0x%02x", byte(c))
}
