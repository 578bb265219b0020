// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"context"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// AsyncDev is a handle to an ENS160 where every bus transaction and delay is
// a point at which the calling goroutine parks until the bus worker or the
// timer completes, or until ctx is done. The sequencing and the delays are
// the ones of Dev.
//
// Cancelling ctx during Initialize leaves the sensor in an unknown mode. Call
// Initialize again from the top.
type AsyncDev struct {
	d   *i2c.Dev
	t   *asyncTransport
	p   protocol
	pin gpio.PinIn
}

// NewAsyncI2C returns a context aware driver for an ENS160 on the bus b. It
// starts a goroutine that owns the bus connection until Close or Release.
// opts can be nil.
func NewAsyncI2C(b i2c.Bus, opts *Opts) (*AsyncDev, error) {
	o, err := resolveOpts(opts)
	if err != nil {
		return nil, err
	}
	if err := configurePin(o); err != nil {
		return nil, err
	}
	d := &AsyncDev{
		d:   &i2c.Dev{Bus: b, Addr: uint16(o.Address)},
		pin: o.InterruptPin,
	}
	d.t = newAsyncTransport(d.d, o.Clock)
	d.p = protocol{t: d.t, log: o.Logger}
	return d, nil
}

// Initialize is Dev.Initialize.
func (d *AsyncDev) Initialize(ctx context.Context) (bool, error) {
	return d.p.initialize(ctx)
}

// WriteCommand is Dev.WriteCommand.
func (d *AsyncDev) WriteCommand(ctx context.Context, buf ...byte) error {
	return d.p.writeCommand(ctx, buf...)
}

// ReadRegister is Dev.ReadRegister.
func (d *AsyncDev) ReadRegister(ctx context.Context, reg byte, b []byte) error {
	return d.p.readRegister(ctx, reg, b)
}

// SetOperationMode is Dev.SetOperationMode.
func (d *AsyncDev) SetOperationMode(ctx context.Context, mode OperationMode) (OperationMode, error) {
	return d.p.setOperationMode(ctx, mode)
}

func (d *AsyncDev) PartID(ctx context.Context) (uint16, error) {
	return d.p.partID(ctx)
}

func (d *AsyncDev) FirmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	return d.p.firmwareVersion(ctx)
}

func (d *AsyncDev) ClearCommand(ctx context.Context) error {
	return d.p.clearCommand(ctx)
}

func (d *AsyncDev) ECO2(ctx context.Context) (PPM, error) {
	return d.p.eco2(ctx)
}

func (d *AsyncDev) TVOC(ctx context.Context) (PPB, error) {
	return d.p.tvoc(ctx)
}

func (d *AsyncDev) AirQualityIndex(ctx context.Context) (AirQualityIndex, error) {
	return d.p.airQualityIndex(ctx)
}

func (d *AsyncDev) Ethanol(ctx context.Context) (PPB, error) {
	return d.p.ethanol(ctx)
}

func (d *AsyncDev) RawResistance(ctx context.Context) (float32, error) {
	return d.p.rawResistance(ctx)
}

func (d *AsyncDev) Status(ctx context.Context) (Status, error) {
	return d.p.status(ctx)
}

func (d *AsyncDev) GroupData(ctx context.Context) ([8]byte, error) {
	return d.p.groupData(ctx)
}

// SetTempRHComp is Dev.SetTempRHComp.
func (d *AsyncDev) SetTempRHComp(ctx context.Context, celsius float32, rhPercent uint16) error {
	return d.p.setTempRHComp(ctx, celsius, rhPercent)
}

// SetCompensation is Dev.SetCompensation.
func (d *AsyncDev) SetCompensation(ctx context.Context, e physic.Env) error {
	return d.p.setTempRHComp(ctx, float32(e.Temperature.Celsius()), envRH(e))
}

func (d *AsyncDev) TempRHComp(ctx context.Context) (float32, uint16, error) {
	return d.p.tempRHComp(ctx)
}

// ConfigInterruptPin is Dev.ConfigInterruptPin.
func (d *AsyncDev) ConfigInterruptPin(ctx context.Context, cfg byte) (byte, error) {
	return d.p.configInterruptPin(ctx, cfg)
}

// Measurements is Dev.Measurements.
func (d *AsyncDev) Measurements(ctx context.Context) (Measurements, error) {
	return d.p.measurements(ctx)
}

// Sense is Dev.Sense.
func (d *AsyncDev) Sense(ctx context.Context, m *Measurements) error {
	r, err := d.p.sense(ctx)
	if err != nil {
		return err
	}
	*m = r
	return nil
}

// WaitForNewData waits for the interrupt pin to signal new data, or for ctx
// to be done. gpio.PinIn has no cancellable wait, so the pin is polled in
// slices of at most 100ms.
func (d *AsyncDev) WaitForNewData(ctx context.Context) (bool, error) {
	if d.pin == nil {
		return false, ErrNoInterruptPin
	}
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		slice := 100 * time.Millisecond
		if dl, ok := ctx.Deadline(); ok {
			if left := time.Until(dl); left < slice {
				slice = left
			}
		}
		if slice <= 0 {
			<-ctx.Done()
			return false, ctx.Err()
		}
		if d.pin.WaitForEdge(slice) {
			return true, nil
		}
	}
}

// Close stops the bus worker. Operations return ErrClosed afterward.
func (d *AsyncDev) Close() error {
	d.t.close()
	return nil
}

// Halt implements conn.Resource. It is Close.
func (d *AsyncDev) Halt() error {
	return d.Close()
}

// Release closes the device and returns the bus.
func (d *AsyncDev) Release() i2c.Bus {
	d.t.close()
	return d.d.Bus
}

func (d *AsyncDev) String() string {
	return "ens160: " + d.d.String()
}

var _ conn.Resource = &AsyncDev{}
