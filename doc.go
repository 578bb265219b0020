// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airquality is a container for the ENS160 air quality sensor driver
// and its tooling.
//
// The driver is in package ens160, the terminal and image presentation of the
// readings in aqview, and a Prometheus exporter in cmd/ens160.
package airquality
