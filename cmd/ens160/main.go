// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ens160 monitors an ENS160 air quality sensor and exports its readings to
// Prometheus.
//
// Usage:
//
//	ens160 -addr secondary -temp 21.5 -rh 45 -read-int 5s -gauge
//
// The metrics are served on /metrics of -listen-address.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/airquality/aqview"
	"github.com/GermanBionicSystems/airquality/ens160"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// addrFlag accepts primary, secondary or a numeric address.
type addrFlag i2c.Addr

func (a *addrFlag) Set(s string) error {
	switch strings.ToLower(s) {
	case "primary":
		*a = addrFlag(ens160.PrimaryAddress)
		return nil
	case "secondary":
		*a = addrFlag(ens160.SecondaryAddress)
		return nil
	}
	return (*i2c.Addr)(a).Set(s)
}

func (a *addrFlag) String() string {
	return i2c.Addr(*a).String()
}

// CLI args
var (
	address      = addrFlag(ens160.PrimaryAddress)
	busName      = flag.String("bus", "", "I²C bus to use, the first one when empty")
	intPin       = flag.String("int-pin", "", "GPIO connected to the INT pin of the sensor, the status register is polled when empty")
	listenAddr   = flag.String("listen-address", ":8080", "The address to listen on for HTTP requests, none when empty.")
	readInterval = flag.Duration("read-int", time.Second, "time interval between sensor reads")
	temperature  = flag.Float64("temp", 25, "ambient temperature in °C for compensation")
	humidity     = flag.Uint("rh", 50, "ambient relative humidity in % for compensation")
	useAsync     = flag.Bool("async", false, "use the context aware driver")
	showGauge    = flag.Bool("gauge", false, "show the readings on the terminal")
	pngPath      = flag.String("png", "", "render the readings to this PNG file on every update")
	logLevel     = flag.String("log-level", "info", "log level: debug, info, warn or error")
)

// Size of a 2.13" e-paper display.
const panelW, panelH = 250, 122

func init() {
	flag.Var(&address, "addr", "I²C address of the sensor: primary (0x52), secondary (0x53) or a number")

	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
}

func main() {
	flag.Parse()
	if err := mainImpl(); err != nil {
		log.Fatal(err)
	}
}

func mainImpl() error {
	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	if *humidity > 100 {
		return errors.Errorf("-rh %d is above 100%%", *humidity)
	}
	if *readInterval <= 0 {
		return errors.Errorf("-read-int %s must be positive", *readInterval)
	}

	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "initializing host drivers")
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return errors.Wrapf(err, "opening I²C bus %q", *busName)
	}
	defer bus.Close()

	opts := ens160.Opts{
		Address: i2c.Addr(address),
		Logger:  log.StandardLogger(),
	}
	if *intPin != "" {
		p := gpioreg.ByName(*intPin)
		if p == nil {
			return errors.Errorf("no GPIO named %q", *intPin)
		}
		opts.InterruptPin = p
		opts.InterruptEdge = gpio.FallingEdge
	}

	var s sensor
	if *useAsync {
		d, err := ens160.NewAsyncI2C(bus, &opts)
		if err != nil {
			return err
		}
		s = async{d}
	} else {
		d, err := ens160.NewI2C(bus, &opts)
		if err != nil {
			return err
		}
		s = blocking{d}
	}
	defer s.Halt()

	m := &monitor{
		s:            s,
		addr:         opts.Address.String(),
		interval:     *readInterval,
		useInterrupt: opts.InterruptPin != nil,
		metrics:      newMetrics(),
		png:          *pngPath,
		log:          log.StandardLogger(),
	}
	if *showGauge {
		m.gauge = aqview.NewGauge(nil)
		defer m.gauge.Halt()
	}
	if *pngPath != "" {
		if m.panel, err = aqview.NewPanel(panelW, panelH); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Active low push-pull, on new data.
	intCfg := ens160.NewInterruptPinConfig().ActiveLow().PushPull().OnNewData().EnableInterrupt().Build()
	if err := m.setup(ctx, intCfg, float32(*temperature), uint16(*humidity)); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if *listenAddr != "" {
		mux := http.NewServeMux()
		// Expose the registered metrics via HTTP.
		mux.Handle("/metrics", m.metrics.handler())
		srv := &http.Server{Addr: *listenAddr, Handler: mux}
		g.Go(func() error {
			log.Infof("serving metrics on %s", *listenAddr)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	g.Go(func() error {
		return m.run(ctx)
	})
	return g.Wait()
}
