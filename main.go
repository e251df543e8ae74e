package main

import "github.com/railwayapp/envtrace/cmd/envtrace"

func main() {
	envtrace.Execute()
}
