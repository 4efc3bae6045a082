package cli

import (
	"flag"
	"time"
)

type Options struct {
	ChannelBufferSize int
	NumWorkers        int
	PrintHelp         bool
	RequeueTimeout    time.Duration
}

var opts = Options{}
var defaultBufSize = 4
var defaultWorkers = 2
var defaultTimeout = 1 * time.Minute

var EnvMessage = `This requires the following environment vars:

MEDIA_CONFIG_DIR - Path to the directory containing the .env settings file.

MEDIA_SERVICES_CONFIG - Name of the configuration to load. For example:
    test - Loads .env.test from MEDIA_CONFIG_DIR
    demo - Loads .env.demo from MEDIA_CONFIG_DIR
`

func Init() {
	flag.IntVar(&opts.ChannelBufferSize, "bufsize", defaultBufSize, "Channel buffer size for go workers")
	flag.IntVar(&opts.NumWorkers, "workers", defaultWorkers, "Number of go routines to handle main processing work")
	flag.BoolVar(&opts.PrintHelp, "help", false, "Print help message")
	flag.DurationVar(&opts.RequeueTimeout, "requeue-timeout", defaultTimeout, "Requeue timeout for reprocessing items with non-fatal errors. Format examples: 500ms, 12s, 10m, 3m30s, 3h")
}

func ParseOpts() Options {
	flag.Parse()
	return opts
}

func PrintDefaults() {
	flag.PrintDefaults()
}
