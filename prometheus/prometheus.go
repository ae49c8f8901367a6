// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

// Package prometheus provides functions that are useful to control and manage
// the built-in prometheus instance.
package prometheus

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus is the struct that contains information about the prometheus
// instance. Every instance has its own registry, so that more than one can
// exist in the same process. Run Init() on it.
type Prometheus struct {
	registry *prometheus.Registry

	assignmentsTotal        *prometheus.CounterVec // total of assignments that have been run
	inspectionsTotal        *prometheus.CounterVec // total of inspections that have been run
	experiments             prometheus.Gauge       // number of experiments currently loaded
	processStartTimeSeconds prometheus.Gauge       // process start time in seconds since unix epoch
}

// Init creates and registers all of the metrics.
func (obj *Prometheus) Init() error {
	obj.registry = prometheus.NewRegistry()

	obj.assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planout_assignments_total",
			Help: "Number of assignments that have run.",
		},
		// Labels for this metric.
		// experiment: name of the experiment
		// enabled: was the run still enabled at the end
		// errorful: did the run generate an error
		[]string{"experiment", "enabled", "errorful"},
	)
	if err := obj.registry.Register(obj.assignmentsTotal); err != nil {
		return err
	}

	obj.inspectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planout_inspections_total",
			Help: "Number of parameter inspections that have run.",
		},
		[]string{"experiment", "errorful"},
	)
	if err := obj.registry.Register(obj.inspectionsTotal); err != nil {
		return err
	}

	obj.experiments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "planout_experiments",
			Help: "Number of experiments that are loaded.",
		},
	)
	if err := obj.registry.Register(obj.experiments); err != nil {
		return err
	}

	obj.processStartTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "planout_process_start_time_seconds",
			Help: "Start time of the process since unix epoch in seconds.",
		},
	)
	if err := obj.registry.Register(obj.processStartTimeSeconds); err != nil {
		return err
	}
	// directly set the processStartTimeSeconds
	obj.processStartTimeSeconds.SetToCurrentTime()

	return nil
}

// Gatherer returns the registry, for reading the metrics back.
func (obj *Prometheus) Gatherer() prometheus.Gatherer {
	return obj.registry
}

// Handler returns the http handler that responds as prometheus would expect.
func (obj *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(obj.registry, promhttp.HandlerOpts{})
}

// UpdateAssignmentsTotal counts one assignment run.
func (obj *Prometheus) UpdateAssignmentsTotal(experiment string, enabled, errorful bool) error {
	labels := prometheus.Labels{"experiment": experiment, "enabled": strconv.FormatBool(enabled), "errorful": strconv.FormatBool(errorful)}
	metric := obj.assignmentsTotal.With(labels)
	metric.Inc()
	return nil
}

// UpdateInspectionsTotal counts one inspection.
func (obj *Prometheus) UpdateInspectionsTotal(experiment string, errorful bool) error {
	labels := prometheus.Labels{"experiment": experiment, "errorful": strconv.FormatBool(errorful)}
	metric := obj.inspectionsTotal.With(labels)
	metric.Inc()
	return nil
}

// SetExperiments sets the number of loaded experiments.
func (obj *Prometheus) SetExperiments(n int) error {
	obj.experiments.Set(float64(n))
	return nil
}
