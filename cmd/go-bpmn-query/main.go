/*
go-bpmn-query is a CLI for sending events to and querying a go-bpmn-query HTTP server.

Usage:

	go-bpmn-query [flags]
	go-bpmn-query [command]

Available Commands:

	completion  Generate the autocompletion script for the specified shell
	delete-all  Delete all entities of a kind
	event       Send and query events
	get         Get an entity by ID
	help        Help about any command
	kinds       List entity kinds
	query       Query entities of a kind
	version     Show version

Flags:

	    --debug              Log HTTP requests and responses
	-h, --help               help for go-bpmn-query
	    --timeout duration   Time limit for requests made by the HTTP client (default 40s)
	    --url string         HTTP server URL

Use "go-bpmn-query [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/gclaussn/go-bpmn-query/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
