// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/GermanBionicSystems/airquality/ens160"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics exported to Prometheus, labelled with the I²C address of the
// sensor.
type metrics struct {
	eco2       *prometheus.GaugeVec
	tvoc       *prometheus.GaugeVec
	aqi        *prometheus.GaugeVec
	ethanol    *prometheus.GaugeVec
	resistance *prometheus.GaugeVec
	validity   *prometheus.GaugeVec
	reads      *prometheus.CounterVec
	reg        *prometheus.Registry
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ens160",
			Name:      name,
			Help:      help,
		},
		[]string{"address"},
	)
}

func newMetrics() *metrics {
	m := &metrics{
		eco2:       newGauge("eco2_ppm", "Equivalent CO2 concentration (units: ppm)"),
		tvoc:       newGauge("tvoc_ppb", "Total volatile organic compounds (units: ppb)"),
		aqi:        newGauge("aqi", "UBA air quality index, 1 (excellent) to 5 (unhealthy), 0 when unavailable"),
		ethanol:    newGauge("ethanol_ppb", "Ethanol concentration (units: ppb)"),
		resistance: newGauge("resistance_ohms", "Raw hot plate resistance (units: ohms)"),
		validity:   newGauge("validity", "Output validity: 0 normal, 1 warm up, 2 initial start-up, 3 invalid"),
		reads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ens160",
				Name:      "reads_total",
				Help:      "Sensor reads by result",
			},
			[]string{"address", "result"},
		),
		reg: prometheus.NewRegistry(),
	}
	m.reg.MustRegister(m.eco2, m.tvoc, m.aqi, m.ethanol, m.resistance, m.validity, m.reads)
	// Add Go module build info.
	m.reg.MustRegister(collectors.NewBuildInfoCollector())
	return m
}

func (m *metrics) observe(addr string, r *ens160.Measurements, s ens160.Status) {
	m.eco2.WithLabelValues(addr).Set(float64(r.CO2))
	m.tvoc.WithLabelValues(addr).Set(float64(r.TVOC))
	m.ethanol.WithLabelValues(addr).Set(float64(r.Ethanol))
	m.resistance.WithLabelValues(addr).Set(float64(r.RawResistance))
	m.validity.WithLabelValues(addr).Set(float64(s.Validity()))
	if r.AQI == ens160.AQIInvalidRange {
		// The series disappears until the index is valid again.
		m.aqi.DeleteLabelValues(addr)
	} else {
		m.aqi.WithLabelValues(addr).Set(float64(r.AQI))
	}
	m.reads.WithLabelValues(addr, "ok").Inc()
}

func (m *metrics) failed(addr string) {
	m.reads.WithLabelValues(addr, "error").Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(
		m.reg,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
}
