// Package main provides the grain CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grain-ml/grain/fixpoint"
	"github.com/grain-ml/grain/internal/config"
	"github.com/grain-ml/grain/net"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("grain %s\n", version)
			return
		case "train":
			if err := runTrain(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "grain: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("grain - deterministic fixed-point neural networks")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version                  Show version")
	fmt.Println("  train -config run.yaml   Train a network from a run file")
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	path := fs.String("config", "", "path to the YAML run file")
	verbose := fs.Bool("verbose", false, "print per-layer and per-sample events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("train needs -config")
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	nw, err := cfg.BuildNetwork(net.WithObserver(&net.ConsoleObserver{Verbose: *verbose}))
	if err != nil {
		return err
	}
	features, labels, err := cfg.BuildDataset()
	if err != nil {
		return err
	}
	lr, err := cfg.LearningRate()
	if err != nil {
		return err
	}

	result, err := nw.Train(features, labels, cfg.Epochs(), lr)
	if err != nil {
		return err
	}

	accuracy, meanLoss, err := nw.Evaluate(features, labels)
	if err != nil {
		return err
	}
	fmt.Printf("epochs=%d earlyStopped=%v loss=%s accuracy=%s\n",
		result.EpochsRun, result.EarlyStopped,
		fixpoint.Format(meanLoss), fixpoint.Format(accuracy))
	return nil
}
