// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"time"

	"github.com/GermanBionicSystems/airquality/ens160"
)

// sensor is the part of the driver the monitor uses, served by either the
// blocking or the context aware device.
type sensor interface {
	initialize(ctx context.Context) (bool, error)
	configInterruptPin(ctx context.Context, cfg byte) (byte, error)
	setTempRHComp(ctx context.Context, celsius float32, rh uint16) error
	status(ctx context.Context) (ens160.Status, error)
	measurements(ctx context.Context) (ens160.Measurements, error)
	groupData(ctx context.Context) ([8]byte, error)
	// waitForNewData returns false when nothing happened within about
	// timeout.
	waitForNewData(ctx context.Context, timeout time.Duration) (bool, error)
	String() string
	Halt() error
}

// blocking ignores ctx except for the interrupt wait, where the timeout is
// bounded by the poll interval.
type blocking struct {
	*ens160.Dev
}

func (b blocking) initialize(context.Context) (bool, error) {
	return b.Initialize()
}

func (b blocking) configInterruptPin(_ context.Context, cfg byte) (byte, error) {
	return b.ConfigInterruptPin(cfg)
}

func (b blocking) setTempRHComp(_ context.Context, celsius float32, rh uint16) error {
	return b.SetTempRHComp(celsius, rh)
}

func (b blocking) status(context.Context) (ens160.Status, error) {
	return b.Status()
}

func (b blocking) measurements(context.Context) (ens160.Measurements, error) {
	return b.Measurements()
}

func (b blocking) groupData(context.Context) ([8]byte, error) {
	return b.GroupData()
}

func (b blocking) waitForNewData(_ context.Context, timeout time.Duration) (bool, error) {
	return b.WaitForNewData(timeout)
}

type async struct {
	*ens160.AsyncDev
}

func (a async) initialize(ctx context.Context) (bool, error) {
	return a.Initialize(ctx)
}

func (a async) configInterruptPin(ctx context.Context, cfg byte) (byte, error) {
	return a.ConfigInterruptPin(ctx, cfg)
}

func (a async) setTempRHComp(ctx context.Context, celsius float32, rh uint16) error {
	return a.SetTempRHComp(ctx, celsius, rh)
}

func (a async) status(ctx context.Context) (ens160.Status, error) {
	return a.Status(ctx)
}

func (a async) measurements(ctx context.Context) (ens160.Measurements, error) {
	return a.Measurements(ctx)
}

func (a async) groupData(ctx context.Context) ([8]byte, error) {
	return a.GroupData(ctx)
}

func (a async) waitForNewData(ctx context.Context, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ok, err := a.WaitForNewData(ctx)
	if err == context.DeadlineExceeded {
		return false, nil
	}
	return ok, err
}
