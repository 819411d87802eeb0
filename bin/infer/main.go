package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	tsinfer "github.com/jkellehe/tsinfer-go"
)

func main() {
	numThreadsPtr := flag.Int("threads", runtime.NumCPU(), "number of worker goroutines for ancestor generation and matching")
	loggerTypePtr := flag.String("ancestors-logger", "sqlite", "ancestor sink type (memory|sqlite)")
	ancestorsPathPtr := flag.String("ancestors", "ancestors.db", "path to the ancestor sink (ignored for logger=memory)")
	telemetryPathPtr := flag.String("telemetry", "", "path to a CSV telemetry file (disabled if empty)")
	noCompressPtr := flag.Bool("no-path-compression", false, "disable path compression in add_path")
	flag.Parse()

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: infer <config.toml>")
	}

	runToken, err := tsinfer.NewRunToken()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("run %s: loading config from %s", runToken, configPath)

	conf, err := tsinfer.LoadRunConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *numThreadsPtr > 0 {
		conf.NumThreads = *numThreadsPtr
	}
	conf.PathCompression = !*noCompressPtr
	runtime.GOMAXPROCS(conf.NumThreads)

	source, err := tsinfer.LoadGenotypeSourceCSV(conf.InputPath)
	if err != nil {
		log.Fatal(err)
	}

	var sink tsinfer.AncestorSink
	switch *loggerTypePtr {
	case "memory":
		sink = tsinfer.NewInMemoryAncestorSink()
	case "sqlite":
		path := *ancestorsPathPtr
		if conf.AncestorsPath != "" {
			path = conf.AncestorsPath
		}
		s, err := tsinfer.OpenSQLiteAncestorSink(path)
		if err != nil {
			log.Fatal(err)
		}
		defer s.Close()
		sink = s
	default:
		log.Fatalf("%s is not a valid ancestor sink type (memory|sqlite)", *loggerTypePtr)
	}

	var telemetry *tsinfer.CSVTelemetryLogger
	telemetryPath := *telemetryPathPtr
	if telemetryPath == "" {
		telemetryPath = conf.TelemetryPath
	}
	if telemetryPath != "" {
		telemetry, err = tsinfer.NewCSVTelemetryLogger(telemetryPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	orchestrator := tsinfer.NewInferenceOrchestrator(*conf, telemetry)

	start := time.Now()
	tsb, err := orchestrator.Infer(source, sink)
	if err != nil {
		log.Fatalf("inference failed: %s", err)
	}
	log.Printf("run %s: inferred tree sequence over %d nodes in %s", runToken, tsb.NumNodes(), time.Since(start))
}
