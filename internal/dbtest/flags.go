package dbtest

import (
	"flag"
	"os"
	"os/signal"
)

// Inspect keeps the containers of failed tests running until interrupted, so
// the database can be examined after the failure.
//
// The testcontainers reaper still removes such containers eventually.
var Inspect = flag.Bool("dbtest.inspect", false, "keep the container of a failed test running for inspection")

// waitForInspection blocks until the process is interrupted (Ctrl+C).
func waitForInspection() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)
	<-c
}
