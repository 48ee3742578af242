// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/counter"
	"github.com/bisq-network/datastore/dataservice"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/persistence"
	"github.com/bisq-network/datastore/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// last chance logging of fatal errors
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// start a profiling http server
	// this uses the default builtin HTTP handler
	if "" != theConfiguration.ProfileHTTP {
		go func() {
			log.Warnf("profile listener on: %s", theConfiguration.ProfileHTTP)
			err := http.ListenAndServe(theConfiguration.ProfileHTTP, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	// snapshot persistence
	log.Infof("persistence: %s  %q", theConfiguration.Persistence.Backend, theConfiguration.Persistence.Directory)
	var backend persistence.Backend
	switch theConfiguration.Persistence.Backend {
	case backendLevelDB:
		database, err := storage.Open(theConfiguration.Persistence.Directory, storage.ReadWrite)
		if nil != err {
			log.Criticalf("storage open error: %s", err)
			exitwithstatus.Message("storage open error: %s", err)
		}
		defer database.Close()
		backend = database.Backend()
	case backendFile:
		backend, err = persistence.NewFileBackend(theConfiguration.Persistence.Directory)
		if nil != err {
			log.Criticalf("persistence initialise error: %s", err)
			exitwithstatus.Message("persistence initialise error: %s", err)
		}
	default:
		log.Warn("memory only: records are lost on restart")
	}

	// metrics
	registry := prometheus.NewRegistry()
	metrics := counter.NewMetrics(theConfiguration.Metrics.Namespace)
	err = metrics.Register(registry)
	if nil != err {
		log.Criticalf("metrics register error: %s", err)
		exitwithstatus.Message("metrics register error: %s", err)
	}
	if "" != theConfiguration.Metrics.Listen {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			log.Infof("metrics listener on: %s", theConfiguration.Metrics.Listen)
			err := http.ListenAndServe(theConfiguration.Metrics.Listen, mux)
			exitwithstatus.Message("metrics error: %s", err)
		}()
	}

	// the data service and its stores
	serviceConfig, err := theConfiguration.serviceConfig(backend)
	if nil != err {
		log.Criticalf("service configuration error: %s", err)
		exitwithstatus.Message("service configuration error: %s", err)
	}
	serviceConfig.Metrics = metrics

	log.Info("initialise data service")
	service, err := dataservice.New(serviceConfig, nil)
	if nil != err {
		log.Criticalf("data service initialise error: %s", err)
		exitwithstatus.Message("data service initialise error: %s", err)
	}
	defer func() {
		log.Info("flushing stores")
		if err := service.Shutdown(); nil != err {
			log.Errorf("data service shutdown error: %s", err)
		}
	}()

	err = apply(log, theConfiguration, service)
	if nil != err {
		log.Criticalf("store setup error: %s", err)
		exitwithstatus.Message("store setup error: %s", err)
	}

	// background: configuration reload and periodic statistics
	channels := newWatcherChannel()
	watcher, err := newFileWatcher(configurationFile, logger.New("file-watcher"), channels)
	if nil != err {
		log.Criticalf("file watcher error: %s", err)
		exitwithstatus.Message("file watcher error: %s", err)
	}
	delay := time.Duration(theConfiguration.ReloadDelay) * time.Second
	processes := background.Processes{
		watcher,
		newReloader(configurationFile, delay, channels, service),
	}
	if theConfiguration.Metrics.LogPeriod > 0 {
		processes = append(processes, &storeStats{
			period:   time.Duration(theConfiguration.Metrics.LogPeriod) * time.Second,
			service:  service,
			gatherer: registry,
			log:      logger.New("stats"),
		})
	}
	bg := background.Start(processes, nil)
	defer bg.Stop()

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		go memstats()
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
