// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/airquality/aqview"
	"github.com/GermanBionicSystems/airquality/ens160"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const addr = uint16(ens160.PrimaryAddress)

var pollPlayback = []i2ctest.IO{
	{Addr: addr, W: []byte{0x20}, R: []byte{0x80}},
	{Addr: addr, W: []byte{0x20}, R: []byte{0x82}},
	{Addr: addr, W: []byte{0x24}, R: []byte{0x90, 0x01}},
	{Addr: addr, W: []byte{0x22}, R: []byte{0x0c, 0x00}},
	{Addr: addr, W: []byte{0x21}, R: []byte{0x02}},
	{Addr: addr, W: []byte{0x22}, R: []byte{0x0c, 0x00}},
	{Addr: addr, W: []byte{0x4e}, R: []byte{0x00, 0x08}},
}

func TestAddrFlag(t *testing.T) {
	data := []struct {
		in   string
		want string
	}{
		{"primary", "0x52"},
		{"Secondary", "0x53"},
		{"0x52", "0x52"},
		{"83", "0x53"},
	}
	for _, line := range data {
		var a addrFlag
		if err := a.Set(line.in); err != nil {
			t.Fatalf("Set(%q) = %v", line.in, err)
		}
		if s := a.String(); s != line.want {
			t.Errorf("Set(%q) = %s, want %s", line.in, s, line.want)
		}
	}
	var a addrFlag
	if err := a.Set("tertiary"); err == nil {
		t.Error("expected error")
	}
}

func newTestMonitor(s sensor) (*monitor, *test.Hook, *bytes.Buffer) {
	logger, hook := test.NewNullLogger()
	var buf bytes.Buffer
	return &monitor{
		s:       s,
		addr:    "0x52",
		metrics: newMetrics(),
		gauge:   aqview.NewGauge(&aqview.GaugeOpts{W: &buf}),
		log:     logger,
	}, hook, &buf
}

func scrape(t *testing.T, m *metrics) string {
	srv := httptest.NewServer(m.handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func checkPoll(t *testing.T, s sensor, b *i2ctest.Playback) {
	m, hook, buf := newTestMonitor(s)
	m.png = filepath.Join(t.TempDir(), "panel.png")
	var err error
	if m.panel, err = aqview.NewPanel(128, 64); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	// No new data, nothing is published.
	if err := m.poll(ctx); err != nil {
		t.Fatal(err)
	}
	if len(hook.AllEntries()) != 0 || buf.Len() != 0 {
		t.Fatal("published without new data")
	}
	if err := m.poll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	e := hook.LastEntry()
	if e == nil || e.Message != "reading" || e.Data["eco2"] != uint16(400) || e.Data["aqi"] != "Good" {
		t.Errorf("unexpected log entry %#v", e)
	}
	if !strings.Contains(buf.String(), "400 PPM") {
		t.Errorf("gauge shows %q", buf.String())
	}
	body := scrape(t, m.metrics)
	for _, want := range []string{
		`ens160_eco2_ppm{address="0x52"} 400`,
		`ens160_tvoc_ppb{address="0x52"} 12`,
		`ens160_aqi{address="0x52"} 2`,
		`ens160_resistance_ohms{address="0x52"} 2`,
		`ens160_reads_total{address="0x52",result="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in\n%s", want, body)
		}
	}
}

func TestPoll(t *testing.T) {
	b := &i2ctest.Playback{Ops: pollPlayback}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkPoll(t, blocking{d}, b)
}

func TestPollAsync(t *testing.T) {
	b := &i2ctest.Playback{Ops: pollPlayback}
	d, err := ens160.NewAsyncI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	checkPoll(t, async{d}, b)
}

func TestPollError(t *testing.T) {
	b := &i2ctest.Playback{Ops: pollPlayback[1:3], DontPanic: true}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, _, _ := newTestMonitor(blocking{d})
	err = m.poll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "reading measurements") {
		t.Fatalf("poll() = %v", err)
	}
}

func TestInvalidIndexNotExported(t *testing.T) {
	m := newMetrics()
	r := ens160.Measurements{CO2: 400, AQI: ens160.AQIGood}
	m.observe("0x52", &r, 0)
	r.AQI = ens160.AQIInvalidRange
	m.observe("0x52", &r, 0)
	if body := scrape(t, m); strings.Contains(body, "ens160_aqi{") {
		t.Errorf("invalid index exported\n%s", body)
	}
}

func TestSetup(t *testing.T) {
	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: addr, W: []byte{0x11, 0x23}},
		{Addr: addr, W: []byte{0x11}, R: []byte{0x00}},
	}}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, _, _ := newTestMonitor(blocking{d})
	m.useInterrupt = true
	err = m.setup(context.Background(), 0x23, 25, 50)
	if err == nil || !strings.Contains(err.Error(), "read back 0x00") {
		t.Fatalf("setup() = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetup_NoSensor(t *testing.T) {
	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: addr, W: []byte{0x10, 0x01}},
		{Addr: addr, W: []byte{0x10}, R: []byte{0x01}},
		{Addr: addr, W: []byte{0x20}, R: []byte{0x00}},
	}, DontPanic: true}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, _, _ := newTestMonitor(blocking{d})
	err = m.setup(context.Background(), 0, 25, 50)
	if err == nil || !strings.Contains(err.Error(), "no sensor answering") {
		t.Fatalf("setup() = %v", err)
	}
	// Nothing is written to an absent sensor.
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetup_CompensationAfterInitialize(t *testing.T) {
	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: addr, W: []byte{0x10, 0x01}},
		{Addr: addr, W: []byte{0x10}, R: []byte{0x01}},
		{Addr: addr, W: []byte{0x20}, R: []byte{0x00}},
		{Addr: addr, W: []byte{0x00}, R: []byte{0x60, 0x01}},
		{Addr: addr, W: []byte{0x12, 0x00}},
		{Addr: addr, W: []byte{0x12, 0xcc}},
		{Addr: addr, W: []byte{0x20}, R: []byte{0x00}},
		{Addr: addr, W: []byte{0x12, 0x0e}},
		{Addr: addr, W: []byte{0x48}, R: []byte{0x00, 0x00, 0x00, 0x00, 0x05, 0x04, 0x02, 0x00}},
		{Addr: addr, W: []byte{0x10, 0x02}},
		{Addr: addr, W: []byte{0x10}, R: []byte{0x02}},
		{Addr: addr, W: []byte{0x20}, R: []byte{0x84}},
		{Addr: addr, W: []byte{0x10}, R: []byte{0x02}},
		// Compensation, 25°C and 50%RH.
		{Addr: addr, W: []byte{0x13, 0x89, 0x4a}},
		{Addr: addr, W: []byte{0x15, 0x32, 0x00}},
	}}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, hook, _ := newTestMonitor(blocking{d})
	if err := m.setup(context.Background(), 0, 25, 50); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if e := hook.LastEntry(); e == nil || !strings.Contains(e.Message, "initialized") {
		t.Errorf("unexpected log entry %#v", e)
	}
}

func TestPoll_GroupData(t *testing.T) {
	b := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: addr, W: []byte{0x20}, R: []byte{0x81}},
		{Addr: addr, W: []byte{0x48}, R: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}},
	}}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, hook, buf := newTestMonitor(blocking{d})
	m.log.(*logrus.Logger).SetLevel(logrus.DebugLevel)
	if err := m.poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.DebugLevel || !strings.Contains(e.Message, "01 02 03 04 05 06 07 08") {
		t.Errorf("unexpected log entry %#v", e)
	}
	if buf.Len() != 0 {
		t.Error("published without new data")
	}
	if body := scrape(t, m.metrics); strings.Contains(body, "ens160_reads_total") {
		t.Errorf("read counted without new data\n%s", body)
	}
}

func TestRunStops(t *testing.T) {
	b := &i2ctest.Playback{DontPanic: true}
	d, err := ens160.NewI2C(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, _, _ := newTestMonitor(blocking{d})
	m.interval = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.run(ctx); err != nil {
		t.Fatal(err)
	}
}
