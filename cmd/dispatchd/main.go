// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command dispatchd runs a dispatch server configured from a YAML, JSON or
// TOML file and DISPATCH_ environment variables.
//
//	dispatchd -config /etc/dispatch/dispatch.yaml
//	DISPATCH_SERVER__ADDR=:9090 dispatchd
//	dispatchd -print-config
//
// SIGHUP reloads the configuration file and applies the new log level.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rivaas.dev/dispatch/app"
	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/config/codec"
	"rivaas.dev/dispatch/config/dumper"
)

const envPrefix = "DISPATCH_"

func main() {
	var (
		configFile  = flag.String("config", "dispatch.yaml", "configuration file; a missing file is ignored")
		printConfig = flag.Bool("print-config", false, "print the merged configuration sources as YAML and exit")
		printRoutes = flag.Bool("routes", false, "print the route table and exit")
	)
	flag.Parse()

	if err := run(*configFile, *printConfig, *printRoutes); err != nil {
		log.Fatalf("dispatchd: %v", err)
	}
}

func sources(file string) []config.Option {
	return []config.Option{
		config.WithOptionalFile(file),
		config.WithEnv(envPrefix),
	}
}

func run(file string, printConfig, printRoutes bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, cfg, err := config.LoadSettings(ctx, sources(file)...)
	if err != nil {
		return err
	}
	if printConfig {
		enc, err := codec.GetEncoder(codec.TypeYAML)
		if err != nil {
			return err
		}
		return dumper.NewWriter(os.Stdout, enc).Dump(ctx, cfg.Values())
	}

	a, err := app.New(s)
	if err != nil {
		return err
	}
	if printRoutes {
		a.PrintRoutes(os.Stdout)
		return nil
	}

	a.OnReload(func(ctx context.Context) error {
		next, _, err := config.LoadSettings(ctx, sources(file)...)
		if err != nil {
			return fmt.Errorf("reload %s: %w", file, err)
		}
		return a.SetLogLevel(next.Logging.Level)
	})

	return a.Run(ctx)
}
