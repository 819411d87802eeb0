package main

import (
	"flag"
	"log"
	"runtime"

	tsinfer "github.com/jkellehe/tsinfer-go"
)

func main() {
	numThreadsPtr := flag.Int("threads", runtime.NumCPU(), "number of worker goroutines for sample matching")
	ancestorTreePathPtr := flag.String("ancestor-tree", "ancestors.tsb", "path to the ancestor tree-sequence checkpoint from match-ancestors")
	outputPathPtr := flag.String("output", "final.tsb", "path to write the final tree-sequence checkpoint")
	flag.Parse()

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: match-samples <config.toml>")
	}
	conf, err := tsinfer.LoadRunConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *numThreadsPtr > 0 {
		conf.NumThreads = *numThreadsPtr
	}
	runtime.GOMAXPROCS(conf.NumThreads)

	source, err := tsinfer.LoadGenotypeSourceCSV(conf.InputPath)
	if err != nil {
		log.Fatal(err)
	}

	tsb, err := tsinfer.LoadTreeSequence(*ancestorTreePathPtr)
	if err != nil {
		log.Fatal(err)
	}

	orchestrator := tsinfer.NewInferenceOrchestrator(*conf, nil)
	if err := orchestrator.MatchSamples(tsb, source); err != nil {
		log.Fatalf("match_samples failed: %s", err)
	}

	outputPath := *outputPathPtr
	if conf.OutputPath != "" {
		outputPath = conf.OutputPath
	}
	if err := tsinfer.SaveTreeSequence(tsb, outputPath); err != nil {
		log.Fatal(err)
	}
	log.Printf("matched %d samples, final tree sequence has %d nodes", source.NumSamples(), tsb.NumNodes())
}
