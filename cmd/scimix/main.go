// Command scimix ranks, mixes and clusters source/target profiles read from
// CSV files.
//
//	scimix distance --source pops.csv --target samples.csv --top 10
//	scimix mixture  --source pops.csv --target samples.csv --all --preset fast
//	scimix gmm      --source pops.csv --target samples.csv --criterion bic --plot bic.png
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "scimix:", err)
		os.Exit(1)
	}
}
