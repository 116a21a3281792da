package main

import (
	"flag"
	"log"

	"github.com/hublens/hublens-backend/cmd"
)

func main() {
	shouldRunMigrations := flag.Bool("migrations", false, "Run database migrations")
	shouldRunScheduler := flag.Bool("scheduler", false, "Run the cron scheduler (feed polling and enrichment enqueue)")
	shouldRunWorker := flag.Bool("worker", false, "Run the job queue worker")
	flag.Parse()

	if *shouldRunMigrations {
		if err := cmd.RunMigrations(); err != nil {
			log.Fatal(err)
		}
	}
	if *shouldRunScheduler {
		if err := cmd.RunScheduler(); err != nil {
			log.Fatal(err)
		}
	}
	if *shouldRunWorker {
		if err := cmd.RunWorker(); err != nil {
			log.Fatal(err)
		}
	}
}
