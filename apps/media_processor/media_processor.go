package main

import (
	"fmt"
	"os"

	"github.com/citypulse/media-services/util/cli"
	"github.com/citypulse/media-services/workers"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	// If anything goes wrong, this panics.
	// Otherwise, it starts handling NSQ messages immediately.
	settings := workers.DefaultSettings()
	settings.RequeueTimeout = opts.RequeueTimeout
	processor := workers.NewMediaProcessor(
		opts.ChannelBufferSize,
		opts.NumWorkers,
		settings,
	)

	// This channel blocks until we get an interrupt,
	// so our program does not exit without Control-C
	// or other kill signal.
	<-processor.NSQConsumer.StopChan
}

func printHelp() {
	message := `
media_processor consumes upload notifications from NSQ and runs the
media ingest pipeline for each one: it transcodes eligible video
uploads with a fixed compression profile, promotes the matching
pending event record to a live event, and reclaims the original
upload once the transition is durable.`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
