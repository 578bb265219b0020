// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aqview

import (
	"fmt"
	"image"

	"github.com/GermanBionicSystems/airquality/ens160"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Panel renders the readings to an image, for a web page or an e-paper
// display.
type Panel struct {
	w, h   int
	title  font.Face
	text   font.Face
	titleH float64
}

// NewPanel returns a Panel rendering images of w×h pixels.
func NewPanel(w, h int) (*Panel, error) {
	if w < 64 || h < 64 {
		return nil, errors.Errorf("aqview: panel %dx%d too small", w, h)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "aqview: parsing title font")
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "aqview: parsing text font")
	}
	// Title, bar and five lines of text.
	size := float64(h) / 12
	p := &Panel{
		w:     w,
		h:     h,
		title: truetype.NewFace(bold, &truetype.Options{Size: size * 1.4}),
		text:  truetype.NewFace(regular, &truetype.Options{Size: size}),
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(p.title)
	_, p.titleH = dc.MeasureString("AQI")
	return p, nil
}

func (p *Panel) pad() float64 {
	return float64(p.h) / 24
}

// barTop is the y coordinate of the top of the bar.
func (p *Panel) barTop() float64 {
	return 2*p.pad() + p.titleH
}

// Bounds returns the size of the rendered images.
func (p *Panel) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.w, p.h)
}

// Render draws m and the validity of s.
func (p *Panel) Render(m *ens160.Measurements, s ens160.Status) image.Image {
	w, h := float64(p.w), float64(p.h)
	pad := p.pad()
	dc := gg.NewContext(p.w, p.h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(p.title)
	dc.DrawString("AQI "+m.AQI.String(), pad, pad+p.titleH)

	// The bar: one segment per index level, lit up to the current one.
	y := p.barTop()
	segW := (w - 2*pad) / float64(len(levelColors))
	segH := h / 10
	for i := range levelColors {
		dc.SetColor(levelColor(m.AQI, i))
		dc.DrawRoundedRectangle(pad+float64(i)*segW+1, y, segW-2, segH, segH/4)
		dc.Fill()
	}
	y += segH + pad

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(p.text)
	_, lh := dc.MeasureString("0")
	lines := []string{
		"eCO2  " + m.CO2.String(),
		"TVOC  " + m.TVOC.String(),
		"EtOH  " + m.Ethanol.String(),
		fmt.Sprintf("R     %.0f Ω", m.RawResistance),
		s.Validity().String(),
	}
	for _, l := range lines {
		y += lh * 1.4
		dc.DrawString(l, pad, y)
	}
	return dc.Image()
}

// SavePNG renders m and writes it to path.
func (p *Panel) SavePNG(path string, m *ens160.Measurements, s ens160.Status) error {
	if err := gg.SavePNG(path, p.Render(m, s)); err != nil {
		return errors.Wrapf(err, "aqview: saving %s", path)
	}
	return nil
}
