package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"stock-analyser/app"
	"stock-analyser/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [flags]

Commands:
  serve    run the API server and scheduler
  ingest   run one full ingestion pass and exit
  rank     run one scoring pass and exit
  all      ingest, rank, then serve

Flags for rank:
  -force   re-evaluate already settled rating verdicts
`, os.Args[0])
}

func main() {
	// Load config from .env file
	cfg := config.LoadFromEnv()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	rankFlags := flag.NewFlagSet("rank", flag.ExitOnError)
	force := rankFlags.Bool("force", false, "re-evaluate already settled rating verdicts")

	application := app.New(cfg)
	if err := application.Init(); err != nil {
		log.Fatal(err)
	}

	var err error
	switch command {
	case "serve":
		err = application.Serve()
	case "ingest":
		err = application.Ingest()
	case "rank":
		_ = rankFlags.Parse(os.Args[2:])
		err = application.Rank(*force)
	case "all":
		err = application.RunAll()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}
