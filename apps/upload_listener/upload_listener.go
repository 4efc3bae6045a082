package main

import (
	ctx "context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/citypulse/media-services/util/cli"
	"github.com/citypulse/media-services/workers"
)

var scanOnly = flag.Bool("scan", false, "Scan the ingest bucket once and exit instead of listening for notifications")

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	listener := workers.NewUploadListener()
	if *scanOnly {
		listener.ScanBucket()
		return
	}

	runCtx, cancel := ctx.WithCancel(ctx.Background())
	go func() {
		kill := make(chan os.Signal, 1)
		signal.Notify(kill, syscall.SIGTERM, syscall.SIGINT)
		<-kill
		cancel()
	}()
	listener.Run(runCtx)
}

func printHelp() {
	message := `
upload_listener subscribes to object-created notifications on the
ingest bucket and publishes one NSQ message per finished upload under
the events/ prefix. Run with -scan to list the bucket once and queue
anything already sitting there (catch-up after downtime).`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
