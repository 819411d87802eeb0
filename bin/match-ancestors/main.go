package main

import (
	"flag"
	"log"
	"runtime"

	tsinfer "github.com/jkellehe/tsinfer-go"
)

func main() {
	numThreadsPtr := flag.Int("threads", runtime.NumCPU(), "number of worker goroutines for ancestor matching")
	ancestorsPathPtr := flag.String("ancestors", "ancestors.db", "path to the ancestor sink produced by build-ancestors")
	outputPathPtr := flag.String("output", "ancestors.tsb", "path to write the ancestor tree-sequence checkpoint")
	telemetryPathPtr := flag.String("telemetry", "", "path to a CSV telemetry file (disabled if empty)")
	noCompressPtr := flag.Bool("no-path-compression", false, "disable path compression in add_path")
	flag.Parse()

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: match-ancestors <config.toml>")
	}
	conf, err := tsinfer.LoadRunConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *numThreadsPtr > 0 {
		conf.NumThreads = *numThreadsPtr
	}
	conf.PathCompression = !*noCompressPtr
	runtime.GOMAXPROCS(conf.NumThreads)

	path := *ancestorsPathPtr
	if conf.AncestorsPath != "" {
		path = conf.AncestorsPath
	}
	sink, err := tsinfer.OpenSQLiteAncestorSink(path)
	if err != nil {
		log.Fatal(err)
	}
	defer sink.Close()

	ultimate, err := sink.Get(0)
	if err != nil {
		log.Fatalf("reading ultimate ancestor from %s: %s", path, err)
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
	tsb := tsinfer.NewTreeSequenceBuilder(ultimate.End)
	if err := orchestrator.MatchAncestors(tsb, sink); err != nil {
		log.Fatalf("match_ancestors failed: %s", err)
	}

	outputPath := *outputPathPtr
	if conf.OutputPath != "" {
		outputPath = conf.OutputPath
	}
	if err := tsinfer.SaveTreeSequence(tsb, outputPath); err != nil {
		log.Fatal(err)
	}
	log.Printf("matched %d ancestors into %d nodes", sink.Len()-2, tsb.NumNodes())
}
