// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package metrics counts qosd operations for prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SwitchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_switches_total",
			Help: "Number of completed memory bank switches",
		},
	)

	SwitchTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_switch_timeouts_total",
			Help: "Number of bank switches the hardware never acknowledged",
		},
	)

	SetAllTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_set_all_total",
			Help: "Number of full table writes into the inactive bank",
		},
	)

	SetMasterTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_set_master_total",
			Help: "Number of single master writes into the inactive bank",
		},
	)

	SuspendsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_suspends_total",
			Help: "Number of register file backups",
		},
	)

	ResumesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_resumes_total",
			Help: "Number of register file restores",
		},
	)

	ResumeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qos_resume_errors_total",
			Help: "Number of restores with an unacknowledged bank selection",
		},
	)

	ExecutingBank = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "qos_executing_bank",
			Help: "Memory bank in use by the memory controller",
		},
	)

	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(SwitchesTotal)
	Registry.MustRegister(SwitchTimeoutsTotal)
	Registry.MustRegister(SetAllTotal)
	Registry.MustRegister(SetMasterTotal)
	Registry.MustRegister(SuspendsTotal)
	Registry.MustRegister(ResumesTotal)
	Registry.MustRegister(ResumeErrorsTotal)
	Registry.MustRegister(ExecutingBank)
}

// Handler serves Registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
