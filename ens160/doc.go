// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ens160 provides a driver for the ScioSense ENS160 digital metal
// oxide multi-gas sensor on I²C.
//
// The sensor outputs an equivalent CO2 concentration, a TVOC concentration,
// an air quality index (UBA, 1 to 5), an ethanol concentration and the raw
// resistance of its hot plates. Accuracy improves when the ambient temperature
// and humidity are written with SetTempRHComp, for example from an sht4x or an
// aht20.
//
// Two handles share one protocol implementation. Dev blocks on every bus
// transaction and delay. AsyncDev takes a context.Context on every operation,
// the bus transactions run on a goroutine owning the bus and the calling
// goroutine parks until they complete or the context is done.
//
// After power on, call Initialize. The output validity, see Status, goes
// through a warm up phase of about 3 minutes, and through an initial start-up
// phase of about an hour during the first 24 hours of operation of a new
// sensor.
//
// # Datasheet
//
// https://www.sciosense.com/wp-content/uploads/2023/12/ENS160-Datasheet.pdf
package ens160
