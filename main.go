// Copyright 2025 the EVUA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/log"
	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
	"github.com/Shreyas20004/EVUA/internal/session"
	"github.com/Shreyas20004/EVUA/lang/migrate/preprocess"
	"github.com/Shreyas20004/EVUA/lang/migrate/repair"
	"github.com/Shreyas20004/EVUA/lang/migrate/review"
	"github.com/Shreyas20004/EVUA/lang/migrate/semantic"
	"github.com/Shreyas20004/EVUA/lang/migrate/structural"
	"github.com/Shreyas20004/EVUA/lang/migrate/verify"
	"github.com/Shreyas20004/EVUA/version"
)

const Usage = `evua <Action> <Path> [Flags]
Action:
   run          migrate the legacy source tree at Path through the full pipeline
   status       print the metadata of the session directory at Path
   version      print the version of evua
`

// StringArray collects repeated flag values.
type StringArray []string

func (s *StringArray) String() string { return strings.Join(*s, ",") }

func (s *StringArray) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	flags := flag.NewFlagSet("evua", flag.ExitOnError)

	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")
	flagConfig := flags.String("config", "", "Config file path (YAML).")
	flagSessions := flags.String("sessions", "", "Override the sessions directory.")
	flagLocal := flags.Bool("local", false, "Force local execution instead of containers.")
	flagWorkers := flags.Int("workers", 0, "Verification worker count override.")
	flagAttempts := flags.Int("max-repair-attempts", 0, "Repair attempt budget override.")
	var excludes StringArray
	flags.Var(&excludes, "exclude", "exclude directories by name, support multiple values")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(1)
	}
	action := strings.ToLower(os.Args[1])

	switch action {
	case "version":
		fmt.Fprintf(os.Stdout, "%s\n", version.Version)

	case "run":
		path := parseArgsAndFlags(flags, flagHelp, flagVerbose)
		if path == "" {
			log.Error("Argument Path is required\n")
			os.Exit(1)
		}

		cfg, err := loadConfig(*flagConfig)
		if err != nil {
			log.Error("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		applyOverrides(cfg, *flagSessions, *flagWorkers, *flagAttempts, excludes)

		executor := selectExecutor(*flagLocal)
		log.Info("using %s executor", executor.Kind())

		store, err := session.NewStore(cfg.SessionsDir)
		if err != nil {
			log.Error("Failed to open session store: %v\n", err)
			os.Exit(1)
		}
		orch := pipeline.NewOrchestrator(store,
			preprocess.New(),
			structural.New(),
			semantic.New(),
			verify.New(),
			repair.New(),
			review.New(),
		)
		sess, err := orch.Run(context.Background(), path, cfg, executor)
		if err != nil {
			log.Error("Migration failed: %v\n", err)
			if sess != nil {
				fmt.Fprintf(os.Stderr, "session: %s\n", sess.ID)
			}
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "session %s completed, output at %s\n", sess.ID, sess.FinalOutputDir())

	case "status":
		path := parseArgsAndFlags(flags, flagHelp, flagVerbose)
		if path == "" {
			log.Error("Argument Path is required\n")
			os.Exit(1)
		}

		var meta json.RawMessage
		if err := session.ReadJSON(filepath.Join(path, "metadata.json"), &meta); err != nil {
			log.Error("Failed to read session metadata: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "%s\n", meta)

	default:
		fmt.Fprintf(os.Stderr, "Unknown action: %s\n", action)
		flags.Usage()
		os.Exit(1)
	}
}

func parseArgsAndFlags(flags *flag.FlagSet, flagHelp, flagVerbose *bool) string {
	path := ""
	rest := os.Args[2:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		path = rest[0]
		rest = rest[1:]
	}
	_ = flags.Parse(rest)
	if flagHelp != nil && *flagHelp {
		flags.Usage()
		os.Exit(0)
	}
	if flagVerbose != nil && *flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}
	return path
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func applyOverrides(cfg *config.Config, sessions string, workers, attempts int, excludes []string) {
	if sessions != "" {
		cfg.SessionsDir = sessions
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if attempts > 0 {
		cfg.MaxRepairAttempts = attempts
	}
	if len(excludes) > 0 {
		cfg.Excludes = append(cfg.Excludes, excludes...)
	}
}

func selectExecutor(forceLocal bool) sandbox.Executor {
	if forceLocal {
		return sandbox.NewLocalExecutor()
	}
	return sandbox.Select()
}
