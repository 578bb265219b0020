// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Address is PrimaryAddress or SecondaryAddress. 0 means PrimaryAddress.
	Address i2c.Addr
	// Logger receives the diagnostics of Initialize. nil discards them.
	Logger logrus.FieldLogger
	// Clock is used for the protocol delays. nil means the wall clock.
	Clock clock.Clock
	// InterruptPin is the GPIO connected to the INT pin of the sensor, used
	// by WaitForNewData. Optional.
	InterruptPin gpio.PinIn
	// InterruptEdge is the edge WaitForNewData waits for. It must match the
	// polarity written with ConfigInterruptPin. Default is gpio.FallingEdge,
	// for an active low pin.
	InterruptEdge gpio.Edge
}

// DefaultOpts is the configuration used when nil is passed to NewI2C.
var DefaultOpts = Opts{
	Address: PrimaryAddress,
}

// Dev is a handle to an ENS160 on an I²C bus. Every operation blocks until
// the bus transactions and delays complete.
//
// A Dev assumes exclusive use of the sensor. Sharing the bus with other
// devices is serialized by the bus implementation, not by the driver.
type Dev struct {
	d   *i2c.Dev
	t   *syncTransport
	p   protocol
	pin gpio.PinIn
	clk clock.Clock

	mu       sync.Mutex
	released bool

	// Protects stop, used by SenseContinuous.
	smu  sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewI2C returns a driver for an ENS160 on the bus b. It does not touch the
// sensor, call Initialize before reading measurements. opts can be nil.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o, err := resolveOpts(opts)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		d:   &i2c.Dev{Bus: b, Addr: uint16(o.Address)},
		pin: o.InterruptPin,
		clk: o.Clock,
	}
	d.t = &syncTransport{c: d.d, clk: o.Clock}
	d.p = protocol{t: d.t, log: o.Logger}
	if err := configurePin(o); err != nil {
		return nil, err
	}
	return d, nil
}

func resolveOpts(opts *Opts) (Opts, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	switch o.Address {
	case 0:
		o.Address = PrimaryAddress
	case PrimaryAddress, SecondaryAddress:
	default:
		return o, fmt.Errorf("ens160: invalid address %s, must be %s or %s", o.Address, PrimaryAddress, SecondaryAddress)
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.InterruptEdge == gpio.NoEdge {
		o.InterruptEdge = gpio.FallingEdge
	}
	return o, nil
}

func configurePin(o Opts) error {
	if o.InterruptPin == nil {
		return nil
	}
	if err := o.InterruptPin.In(gpio.PullNoChange, o.InterruptEdge); err != nil {
		return fmt.Errorf("ens160: interrupt pin %s: %w", o.InterruptPin, err)
	}
	return nil
}

// Initialize brings the sensor to the standard gas sensing mode. It returns
// false with no error when the part ID cannot be read at all, which usually
// means no sensor answers at the address. An *UnexpectedChipIDError or an
// *OpModeError is a hard failure and is not retried.
//
// Initialize takes about 310ms.
func (d *Dev) Initialize() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.initialize(context.Background())
}

// WriteCommand writes buf to the sensor in a single transaction. buf[0] is the
// register address and the rest is the payload.
func (d *Dev) WriteCommand(buf ...byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.writeCommand(context.Background(), buf...)
}

// ReadRegister fills b from the registers starting at reg.
func (d *Dev) ReadRegister(reg byte, b []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.readRegister(context.Background(), reg, b)
}

// SetOperationMode writes mode and returns the mode read back after 50ms.
func (d *Dev) SetOperationMode(mode OperationMode) (OperationMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.setOperationMode(context.Background(), mode)
}

// PartID returns the PART_ID register, ExpectedPartID on an ENS160.
func (d *Dev) PartID() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.partID(context.Background())
}

// FirmwareVersion returns the application firmware version.
func (d *Dev) FirmwareVersion() (FirmwareVersion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.firmwareVersion(context.Background())
}

// ClearCommand clears the group data registers.
func (d *Dev) ClearCommand() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.clearCommand(context.Background())
}

// ECO2 returns the equivalent CO2 concentration.
func (d *Dev) ECO2() (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.eco2(context.Background())
}

// TVOC returns the total volatile organic compounds concentration.
func (d *Dev) TVOC() (PPB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.tvoc(context.Background())
}

// AirQualityIndex returns the UBA air quality index.
func (d *Dev) AirQualityIndex() (AirQualityIndex, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.airQualityIndex(context.Background())
}

// Ethanol returns the ethanol concentration.
func (d *Dev) Ethanol() (PPB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.ethanol(context.Background())
}

// RawResistance returns the hot plate resistance in ohms.
func (d *Dev) RawResistance() (float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.rawResistance(context.Background())
}

// Status returns the DEVICE_STATUS register. It is never cached.
func (d *Dev) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.status(context.Background())
}

// GroupData returns the 8 general purpose read registers.
func (d *Dev) GroupData() ([8]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.groupData(context.Background())
}

// SetTempRHComp sets the ambient temperature and relative humidity used by
// the sensor for compensation. rhPercent is written to RH_IN unscaled.
func (d *Dev) SetTempRHComp(celsius float32, rhPercent uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.setTempRHComp(context.Background(), celsius, rhPercent)
}

// SetCompensation is SetTempRHComp for a reading of another environmental
// sensor. Humidity is truncated to whole percents.
func (d *Dev) SetCompensation(e physic.Env) error {
	return d.SetTempRHComp(float32(e.Temperature.Celsius()), envRH(e))
}

// TempRHComp returns the compensation values in use by the sensor.
func (d *Dev) TempRHComp() (float32, uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.tempRHComp(context.Background())
}

// ConfigInterruptPin writes the CONFIG register and returns the value read
// back. A value different from cfg means the write did not take.
func (d *Dev) ConfigInterruptPin(cfg byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.configInterruptPin(context.Background(), cfg)
}

// Measurements reads eCO2, TVOC, AQI, ethanol and raw resistance. It fails
// on the first bus error, no partial result is returned.
func (d *Dev) Measurements() (Measurements, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.p.measurements(context.Background())
}

// Sense reads the measurements if the status register reports new data. It
// returns ErrNoNewData otherwise, in which case m is unchanged.
func (d *Dev) Sense(m *Measurements) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.p.sense(context.Background())
	if err != nil {
		return err
	}
	*m = r
	return nil
}

// SenseContinuous polls the sensor every interval and writes new measurements
// to the returned channel. The sensor updates its outputs every second in
// standard mode. Call Halt() to stop. It returns ErrReleased after Release().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Measurements, error) {
	d.smu.Lock()
	defer d.smu.Unlock()
	if d.stop != nil {
		return nil, errors.New("ens160: SenseContinuous() running already")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("ens160: invalid interval %s", interval)
	}
	d.mu.Lock()
	released := d.released
	d.mu.Unlock()
	if released {
		return nil, ErrReleased
	}
	ch := make(chan Measurements, 16)
	stop := make(chan struct{})
	d.stop = stop
	ticker := d.clk.Ticker(interval)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(ch)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var m Measurements
				if err := d.Sense(&m); err != nil {
					if !errors.Is(err, ErrNoNewData) {
						d.p.log.Debugf("ens160: %v", err)
					}
					continue
				}
				select {
				case ch <- m:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

// WaitForNewData waits up to timeout for the interrupt pin to signal new
// data. Use -1 to wait forever. The interrupt must first be enabled with
// ConfigInterruptPin.
func (d *Dev) WaitForNewData(timeout time.Duration) (bool, error) {
	if d.pin == nil {
		return false, ErrNoInterruptPin
	}
	return d.pin.WaitForEdge(timeout), nil
}

// Halt stops SenseContinuous if it is running. It does not change the
// operation mode of the sensor.
func (d *Dev) Halt() error {
	d.smu.Lock()
	defer d.smu.Unlock()
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.wg.Wait()
	d.stop = nil
	return nil
}

// Release halts the device and returns the bus. The Dev must not be used
// afterward, every operation returns ErrReleased.
func (d *Dev) Release() i2c.Bus {
	_ = d.Halt()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t.c = releasedConn{}
	d.released = true
	return d.d.Bus
}

func (d *Dev) String() string {
	return "ens160: " + d.d.String()
}

var _ conn.Resource = &Dev{}

func envRH(e physic.Env) uint16 {
	rh := e.Humidity / physic.PercentRH
	switch {
	case rh < 0:
		return 0
	case rh > 100:
		return 100
	}
	return uint16(rh)
}
