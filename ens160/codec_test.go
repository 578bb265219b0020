// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"math"
	"testing"
)

func TestStatusBits(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		s := decodeStatus(b)
		if s.NewGroupDataReady() != (b&0x01 != 0) {
			t.Errorf("0x%02x: NewGroupDataReady() = %t", b, s.NewGroupDataReady())
		}
		if s.NewDataReady() != (b&0x02 != 0) {
			t.Errorf("0x%02x: NewDataReady() = %t", b, s.NewDataReady())
		}
		if s.Validity() != ValidityFlag((b>>2)&0x03) {
			t.Errorf("0x%02x: Validity() = %s", b, s.Validity())
		}
		if s.HasError() != (b&0x40 != 0) {
			t.Errorf("0x%02x: HasError() = %t", b, s.HasError())
		}
		if s.RunningMode() != (b&0x80 != 0) {
			t.Errorf("0x%02x: RunningMode() = %t", b, s.RunningMode())
		}
	}
}

func TestStatusString(t *testing.T) {
	s := decodeStatus(0x86)
	want := "Status{NewGroupDataReady:false NewDataReady:true Validity:WarmupPhase Error:false RunningMode:true}"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDecodeAirQualityIndex(t *testing.T) {
	want := []AirQualityIndex{AQIUnavailable, AQIExcellent, AQIGood, AQIModerate, AQIPoor, AQIUnhealthy}
	for i, w := range want {
		if got := decodeAirQualityIndex(byte(i)); got != w {
			t.Errorf("decodeAirQualityIndex(%d) = %s, want %s", i, got, w)
		}
	}
	for _, b := range []byte{6, 7, 0x80, 0xff} {
		if got := decodeAirQualityIndex(b); got != AQIInvalidRange {
			t.Errorf("decodeAirQualityIndex(%d) = %s, want InvalidRange", b, got)
		}
	}
}

func TestTempCompensationRoundTrip(t *testing.T) {
	for c := float32(-20); c <= 60; c += 0.25 {
		got := DecodeTempCompensation(EncodeTempCompensation(c))
		if d := math.Abs(float64(got - c)); d > 1.0/64+1e-4 {
			t.Errorf("round trip of %.2f°C = %.4f°C", c, got)
		}
	}
}

func TestEncodeTempCompensation(t *testing.T) {
	data := []struct {
		c    float32
		want uint16
	}{
		{21.5, 0x49a9},
		{25, 0x4a89},
		{-273.15, 0},
		{-300, 0},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), math.MaxUint16},
		{1000, math.MaxUint16},
	}
	for _, line := range data {
		if got := EncodeTempCompensation(line.c); got != line.want {
			t.Errorf("EncodeTempCompensation(%g) = 0x%04x, want 0x%04x", line.c, got, line.want)
		}
	}
}

func TestDecodeRawResistance(t *testing.T) {
	data := []struct {
		raw  uint16
		want float32
	}{
		{0, 1},
		{2048, 2},
		{4096, 4},
		{20480, 1024},
	}
	for _, line := range data {
		if got := DecodeRawResistance(line.raw); got != line.want {
			t.Errorf("DecodeRawResistance(%d) = %g, want %g", line.raw, got, line.want)
		}
	}
}

func TestDecodeU16(t *testing.T) {
	if got := decodeU16([]byte{0x60, 0x01}); got != 0x0160 {
		t.Errorf("decodeU16() = 0x%04x", got)
	}
	b := encodeU16(0x49a9)
	if len(b) != 2 || b[0] != 0xa9 || b[1] != 0x49 {
		t.Errorf("encodeU16() = %#v", b)
	}
}

func TestInterruptPinConfig(t *testing.T) {
	data := []struct {
		name string
		cfg  InterruptPinConfig
		want byte
	}{
		{"default", NewInterruptPinConfig(), 0x00},
		{"active high", NewInterruptPinConfig().ActiveHigh(), 0x40},
		{"push pull new data enabled", NewInterruptPinConfig().ActiveLow().PushPull().OnNewData().EnableInterrupt(), 0x23},
		{"group data", NewInterruptPinConfig().OnNewGroupData(), 0x04},
		{"everything", NewInterruptPinConfig().ActiveHigh().PushPull().OnNewGroupData().OnNewData().EnableInterrupt(), 0x67},
		{"cleared", NewInterruptPinConfig().ActiveHigh().PushPull().OnNewGroupData().OnNewData().EnableInterrupt().
			ActiveLow().OpenDrain().NotNewGroupData().NotNewData().DisableInterrupt(), 0x00},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			if got := line.cfg.Build(); got != line.want {
				t.Errorf("Build() = 0x%02x, want 0x%02x", got, line.want)
			}
			if line.cfg.Value() != line.cfg.Build() {
				t.Errorf("Value() = 0x%02x", line.cfg.Value())
			}
		})
	}
}

func TestMeasurementsString(t *testing.T) {
	m := Measurements{CO2: 400, TVOC: 12, AQI: AQIExcellent, Ethanol: 12, RawResistance: 2}
	want := "eCO2: 400 PPM TVOC: 12 PPB AQI: Excellent Ethanol: 12 PPB Resistance: 2.0Ω"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestOperationModeString(t *testing.T) {
	if s := ModeStandard.String(); s != "Standard" {
		t.Errorf("ModeStandard = %q", s)
	}
	if s := OperationMode(0x07).String(); s != "OperationMode(0x07)" {
		t.Errorf("unknown mode = %q", s)
	}
}

func TestEthanolSharesTVOCRegister(t *testing.T) {
	if regDataETOH != regDataTVOC {
		t.Fatalf("DATA_ETOH 0x%02x, DATA_TVOC 0x%02x", regDataETOH, regDataTVOC)
	}
}
