// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"time"

	"github.com/GermanBionicSystems/airquality/aqview"
	"github.com/GermanBionicSystems/airquality/ens160"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// monitor polls a sensor and publishes the new readings.
type monitor struct {
	s        sensor
	addr     string
	interval time.Duration
	// Wait on the interrupt pin instead of polling the status.
	useInterrupt bool
	metrics      *metrics
	gauge        *aqview.Gauge
	panel        *aqview.Panel
	png          string
	log          log.FieldLogger
}

// setup configures the interrupt pin, initializes the sensor and then writes
// the compensation.
func (m *monitor) setup(ctx context.Context, intCfg byte, celsius float32, rh uint16) error {
	if m.useInterrupt {
		got, err := m.s.configInterruptPin(ctx, intCfg)
		if err != nil {
			return errors.Wrap(err, "configuring interrupt pin")
		}
		if got != intCfg {
			return errors.Errorf("interrupt config read back 0x%02x, wrote 0x%02x", got, intCfg)
		}
	}
	ok, err := m.s.initialize(ctx)
	if err != nil {
		return errors.Wrapf(err, "initializing %s", m.s)
	}
	if !ok {
		return errors.Errorf("%s: no sensor answering", m.s)
	}
	if err := m.s.setTempRHComp(ctx, celsius, rh); err != nil {
		return errors.Wrap(err, "writing compensation")
	}
	m.log.Infof("%s: initialized, compensation %.2f°C %d%%RH", m.s, celsius, rh)
	return nil
}

// run polls until ctx is done.
func (m *monitor) run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		if m.useInterrupt {
			if _, err := m.s.waitForNewData(ctx, m.interval); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "waiting for interrupt")
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := m.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if m.metrics != nil {
				m.metrics.failed(m.addr)
			}
			m.log.Errorf("%s: %s", m.s, err)
		}
	}
}

// poll reads the sensor once. Nothing is published when there is no new data.
func (m *monitor) poll(ctx context.Context) error {
	s, err := m.s.status(ctx)
	if err != nil {
		return errors.Wrap(err, "reading status")
	}
	if s.HasError() {
		m.log.Warnf("%s: sensor reports an error, %s", m.s, s)
	}
	if s.NewGroupDataReady() {
		g, err := m.s.groupData(ctx)
		if err != nil {
			return errors.Wrap(err, "reading group data")
		}
		m.log.Debugf("%s: group data % x", m.s, g)
	}
	if !s.NewDataReady() {
		return nil
	}
	r, err := m.s.measurements(ctx)
	if err != nil {
		return errors.Wrap(err, "reading measurements")
	}
	m.publish(&r, s)
	return nil
}

func (m *monitor) publish(r *ens160.Measurements, s ens160.Status) {
	m.log.WithFields(log.Fields{
		"eco2":       uint16(r.CO2),
		"tvoc":       uint16(r.TVOC),
		"aqi":        r.AQI.String(),
		"ethanol":    uint16(r.Ethanol),
		"resistance": r.RawResistance,
		"validity":   s.Validity().String(),
	}).Info("reading")
	if m.metrics != nil {
		m.metrics.observe(m.addr, r, s)
	}
	if m.gauge != nil {
		if err := m.gauge.Show(r, s); err != nil {
			m.log.Warnf("gauge: %s", err)
		}
	}
	if m.panel != nil && m.png != "" {
		if err := m.panel.SavePNG(m.png, r, s); err != nil {
			m.log.Warn(err)
		}
	}
}
