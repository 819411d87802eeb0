package main

import (
	"flag"
	"log"
	"runtime"

	tsinfer "github.com/jkellehe/tsinfer-go"
)

func main() {
	numThreadsPtr := flag.Int("threads", runtime.NumCPU(), "number of worker goroutines for ancestor generation")
	ancestorsPathPtr := flag.String("ancestors", "ancestors.db", "path to the ancestor sink")
	flag.Parse()

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: build-ancestors <config.toml>")
	}
	conf, err := tsinfer.LoadRunConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *numThreadsPtr > 0 {
		conf.NumThreads = *numThreadsPtr
	}

	source, err := tsinfer.LoadGenotypeSourceCSV(conf.InputPath)
	if err != nil {
		log.Fatal(err)
	}

	path := *ancestorsPathPtr
	if conf.AncestorsPath != "" {
		path = conf.AncestorsPath
	}
	sink, err := tsinfer.OpenSQLiteAncestorSink(path)
	if err != nil {
		log.Fatal(err)
	}
	defer sink.Close()

	orchestrator := tsinfer.NewInferenceOrchestrator(*conf, nil)
	sites, err := orchestrator.GenerateAncestors(source, sink)
	if err != nil {
		log.Fatalf("generate_ancestors failed: %s", err)
	}
	log.Printf("generated %d ancestors over %d inference sites", sink.Len(), len(sites))
}
