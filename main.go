// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gofakk/commandline"
	"gofakk/conlog"
	"gofakk/engine"
	"gofakk/gametime"
)

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	conlog.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	opts, err := commandline.Parse(os.Args[1:])
	if err != nil {
		writeError(err)
	}
	if opts.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		conlog.Logger().Warn().Msg("debug logging enabled")
	}
	cfg, err := opts.EngineConfig()
	if err != nil {
		writeError(err)
	}

	e, err := engine.New(cfg, engine.Collaborators{})
	if err != nil {
		writeError(err)
	}

	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(e.Gatherer(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(opts.MetricsAddr, mux); err != nil {
				conlog.Errorf(err, "metrics server")
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	clock := gametime.NewFrameClock(nil)
	for {
		select {
		case <-sigs:
			e.Cbuf.AddText("quit\n")
		default:
		}
		msec, ok := clock.Next(e.Cvars)
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		if err := e.Frame(msec); err != nil {
			if errors.Is(err, engine.ErrQuit) {
				return
			}
			writeError(err)
		}
	}
}
