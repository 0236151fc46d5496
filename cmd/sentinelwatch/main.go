// Command sentinelwatch is the SentinelWatch SIEM's entrypoint: serve
// the HTTP API or ingest a log file from the command line.
package main

import (
	"github.com/arjunmehta/sentinelwatch/internal/cli"
)

func main() {
	cli.Execute()
}
