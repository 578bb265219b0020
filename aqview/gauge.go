// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package aqview presents ENS160 readings: a one line gauge on an ANSI
// terminal, and a panel rendered to an image.
package aqview

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/airquality/ens160"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// levelColors are the colors of the UBA index 1 to 5.
var levelColors = [5]color.NRGBA{
	{0x00, 0xb0, 0x50, 0xff},
	{0x92, 0xd0, 0x50, 0xff},
	{0xff, 0xd0, 0x00, 0xff},
	{0xff, 0x80, 0x00, 0xff},
	{0xe0, 0x10, 0x10, 0xff},
}

var offColor = color.NRGBA{0x40, 0x40, 0x40, 0xff}

// levelColor returns the color of block i, 0 based, for the index a.
func levelColor(a ens160.AirQualityIndex, i int) color.NRGBA {
	if a == ens160.AQIInvalidRange || int(a) <= i {
		return offColor
	}
	return levelColors[i]
}

// GaugeOpts represents the options of a Gauge.
type GaugeOpts struct {
	// W defaults to stdout, with ANSI codes translated on Windows.
	W       io.Writer
	Palette *ansi256.Palette
}

// Gauge shows the air quality index as five colored blocks followed by the
// readings, rewriting the same terminal line on every update.
type Gauge struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// NewGauge returns a Gauge. opts can be nil.
func NewGauge(opts *GaugeOpts) *Gauge {
	var o GaugeOpts
	if opts != nil {
		o = *opts
	}
	if o.W == nil {
		o.W = colorable.NewColorableStdout()
	}
	if o.Palette == nil {
		o.Palette = ansi256.Default
	}
	return &Gauge{w: o.W, palette: *o.Palette}
}

func (g *Gauge) String() string {
	return "Gauge"
}

// Show rewrites the line with m. s is used for the validity of the readings.
func (g *Gauge) Show(m *ens160.Measurements, s ens160.Status) error {
	// The buffer is reused to not allocate on every update.
	g.buf.Reset()
	_, _ = g.buf.WriteString("\r\033[0m")
	for i := range levelColors {
		_, _ = io.WriteString(&g.buf, g.palette.Block(levelColor(m.AQI, i)))
	}
	_, _ = fmt.Fprintf(&g.buf, "\033[0m %-12s eCO2 %-9s TVOC %-9s EtOH %-9s %8.0fΩ %s\033[K",
		m.AQI, m.CO2, m.TVOC, m.Ethanol, m.RawResistance, s.Validity())
	_, err := g.buf.WriteTo(g.w)
	return err
}

// Halt ends the line and resets the terminal colors.
func (g *Gauge) Halt() error {
	_, err := g.w.Write([]byte("\n\033[0m"))
	return err
}
