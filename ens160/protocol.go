// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// protocol implements the register level protocol once, for both the
// blocking Dev and the context aware AsyncDev.
type protocol struct {
	t   transport
	log logrus.FieldLogger
}

// writeCommand writes buf in a single bus write. buf[0] is the register
// address, the rest is the payload.
func (p *protocol) writeCommand(ctx context.Context, buf ...byte) error {
	if len(buf) == 0 {
		return errEmptyCommand
	}
	if err := p.t.tx(ctx, buf, nil); err != nil {
		return wrapBusError(buf[0], false, err)
	}
	return nil
}

// readRegister reads len(b) bytes starting at reg in a single write-then-read
// transaction.
func (p *protocol) readRegister(ctx context.Context, reg byte, b []byte) error {
	if err := p.t.tx(ctx, []byte{reg}, b); err != nil {
		return wrapBusError(reg, true, err)
	}
	return nil
}

func (p *protocol) sendCommand(ctx context.Context, cmd command) error {
	return p.writeCommand(ctx, regCommand, byte(cmd))
}

func (p *protocol) readU16(ctx context.Context, reg byte) (uint16, error) {
	var b [2]byte
	if err := p.readRegister(ctx, reg, b[:]); err != nil {
		return 0, err
	}
	return decodeU16(b[:]), nil
}

func (p *protocol) readByte(ctx context.Context, reg byte) (byte, error) {
	var b [1]byte
	if err := p.readRegister(ctx, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// setOperationMode writes mode, waits for the sensor to settle and returns
// the mode read back. Checking it against mode is up to the caller.
func (p *protocol) setOperationMode(ctx context.Context, mode OperationMode) (OperationMode, error) {
	p.log.Debugf("ens160: setting operation mode to %s", mode)
	if err := p.writeCommand(ctx, regOpMode, byte(mode)); err != nil {
		return 0, err
	}
	if err := p.t.sleep(ctx, opModeSettle); err != nil {
		return 0, err
	}
	b, err := p.readByte(ctx, regOpMode)
	return OperationMode(b), err
}

func (p *protocol) partID(ctx context.Context) (uint16, error) {
	return p.readU16(ctx, regPartID)
}

func (p *protocol) firmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	if err := p.sendCommand(ctx, cmdGetAppVersion); err != nil {
		return FirmwareVersion{}, err
	}
	var b [gprSize]byte
	if err := p.readRegister(ctx, regGPRRead, b[:]); err != nil {
		return FirmwareVersion{}, err
	}
	return FirmwareVersion{Major: b[4], Minor: b[5], Build: b[6]}, nil
}

// clearCommand clears the GPR read registers. The NOP must come first.
func (p *protocol) clearCommand(ctx context.Context) error {
	if err := p.sendCommand(ctx, cmdNop); err != nil {
		return err
	}
	return p.sendCommand(ctx, cmdClearGPR)
}

func (p *protocol) eco2(ctx context.Context) (PPM, error) {
	v, err := p.readU16(ctx, regDataECO2)
	return PPM(v), err
}

func (p *protocol) tvoc(ctx context.Context) (PPB, error) {
	v, err := p.readU16(ctx, regDataTVOC)
	return PPB(v), err
}

func (p *protocol) airQualityIndex(ctx context.Context) (AirQualityIndex, error) {
	b, err := p.readByte(ctx, regDataAQI)
	if err != nil {
		return 0, err
	}
	p.log.Debugf("ens160: DATA_AQI is %d", b)
	return decodeAirQualityIndex(b), nil
}

func (p *protocol) ethanol(ctx context.Context) (PPB, error) {
	v, err := p.readU16(ctx, regDataETOH)
	return PPB(v), err
}

func (p *protocol) rawResistance(ctx context.Context) (float32, error) {
	v, err := p.readU16(ctx, regGPRRead6)
	if err != nil {
		return 0, err
	}
	return DecodeRawResistance(v), nil
}

func (p *protocol) status(ctx context.Context) (Status, error) {
	b, err := p.readByte(ctx, regDeviceStatus)
	return decodeStatus(b), err
}

func (p *protocol) groupData(ctx context.Context) ([gprSize]byte, error) {
	var b [gprSize]byte
	err := p.readRegister(ctx, regGPRRead, b[:])
	return b, err
}

// setTempRHComp writes the compensation inputs. rhPercent is written as is.
func (p *protocol) setTempRHComp(ctx context.Context, celsius float32, rhPercent uint16) error {
	t := encodeU16(EncodeTempCompensation(celsius))
	if err := p.writeCommand(ctx, regTempIn, t[0], t[1]); err != nil {
		return err
	}
	rh := encodeU16(rhPercent)
	return p.writeCommand(ctx, regRHIn, rh[0], rh[1])
}

func (p *protocol) tempRHComp(ctx context.Context) (float32, uint16, error) {
	t, err := p.readU16(ctx, regDataT)
	if err != nil {
		return 0, 0, err
	}
	rh, err := p.readU16(ctx, regDataRH)
	if err != nil {
		return 0, 0, err
	}
	return DecodeTempCompensation(t), rh, nil
}

// configInterruptPin writes cfg to CONFIG and returns the register read back.
func (p *protocol) configInterruptPin(ctx context.Context, cfg byte) (byte, error) {
	if err := p.writeCommand(ctx, regConfig, cfg); err != nil {
		return 0, err
	}
	return p.readByte(ctx, regConfig)
}

func (p *protocol) logStatus(ctx context.Context, step string) error {
	s, err := p.status(ctx)
	if err != nil {
		return err
	}
	p.log.Debugf("ens160: %s, status is %s", step, s)
	return nil
}

// initialize brings the sensor from power on to standard mode:
//
//	Start -> IdleSet -> IdVerified -> Cleared -> FirmwareRead -> StandardSet -> Ready
//
// There are no retries, the delays are fixed. A bus error while reading the
// part ID returns false with no error, to tell an absent sensor from a
// misbehaving one.
func (p *protocol) initialize(ctx context.Context) (bool, error) {
	if _, err := p.setOperationMode(ctx, ModeIdle); err != nil {
		return false, err
	}
	if err := p.logStatus(ctx, "idle mode"); err != nil {
		return false, err
	}

	id, err := p.partID(ctx)
	if err != nil {
		var be *BusError
		if errors.As(err, &be) {
			p.log.Debugf("ens160: part id not readable: %v", err)
			return false, nil
		}
		return false, err
	}
	if id != ExpectedPartID {
		return false, &UnexpectedChipIDError{PartID: id}
	}
	p.log.Infof("ens160: part id is good 0x%04x", id)

	if err := p.t.sleep(ctx, clearSettle); err != nil {
		return false, err
	}
	if err := p.clearCommand(ctx); err != nil {
		return false, err
	}
	if err := p.t.sleep(ctx, clearSettle); err != nil {
		return false, err
	}
	if err := p.logStatus(ctx, "cleared group data"); err != nil {
		return false, err
	}

	v, err := p.firmwareVersion(ctx)
	if err != nil {
		return false, err
	}
	p.log.Infof("ens160: firmware version %s", v)

	if err := p.t.sleep(ctx, versionSettle); err != nil {
		return false, err
	}
	mode, err := p.setOperationMode(ctx, ModeStandard)
	if err != nil {
		return false, err
	}
	if mode != ModeStandard {
		return false, &OpModeError{Mode: mode}
	}

	if err := p.t.sleep(ctx, standardSettle); err != nil {
		return false, err
	}
	if err := p.logStatus(ctx, "standard mode"); err != nil {
		return false, err
	}
	b, err := p.readByte(ctx, regOpMode)
	if err != nil {
		return false, err
	}
	p.log.Debugf("ens160: opmode read is 0x%02x", b)
	return true, nil
}

// measurements reads the five outputs in order and stops at the first error.
func (p *protocol) measurements(ctx context.Context) (Measurements, error) {
	var m Measurements
	var err error
	if m.CO2, err = p.eco2(ctx); err != nil {
		return Measurements{}, err
	}
	if m.TVOC, err = p.tvoc(ctx); err != nil {
		return Measurements{}, err
	}
	if m.AQI, err = p.airQualityIndex(ctx); err != nil {
		return Measurements{}, err
	}
	if m.Ethanol, err = p.ethanol(ctx); err != nil {
		return Measurements{}, err
	}
	if m.RawResistance, err = p.rawResistance(ctx); err != nil {
		return Measurements{}, err
	}
	return m, nil
}

// sense returns fresh measurements if the status register reports new data.
func (p *protocol) sense(ctx context.Context) (Measurements, error) {
	s, err := p.status(ctx)
	if err != nil {
		return Measurements{}, err
	}
	if !s.NewDataReady() {
		return Measurements{}, ErrNoNewData
	}
	return p.measurements(ctx)
}

// wrapBusError keeps context and lifecycle errors unwrapped so that callers
// can tell a cancellation from a transport failure.
func wrapBusError(reg byte, read bool, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrClosed) || errors.Is(err, ErrReleased) {
		return err
	}
	return &BusError{Reg: reg, Read: read, Err: err}
}
