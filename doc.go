/*
Package quire is an embeddable notebook runtime: documents of code and
markdown cells, kernel sessions over external interpreter processes, and
lossless .ipynb round trips.

It follows a Hexagonal Architecture. The document and kernel core is
decoupled from adapters (process transport, snapshot stores, HTTP and MCP
control surfaces), so the same runtime can back a CLI, a service, or an
agent host.

# Concept

A Document owns an ordered sequence of cells with a focus cursor and a
kernel Session. Running a cell submits its source to the kernel process and
records the outputs and a monotonically increasing execution count;
restarting the kernel discards interpreter state and resets the counter.
Documents load from and save to nbformat JSON, carrying unknown metadata
through untouched.

# Usage

Open a notebook with a kernel from the registry and run it:

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/quire"
	)

	func main() {
		doc, err := quire.Open("analysis.ipynb", quire.WithKernel("python3"))
		if err != nil {
			log.Fatal(err)
		}
		defer doc.Close()

		runner := quire.NewRunner()
		runner.Output = os.Stdout
		if err := runner.Run(context.Background(), doc); err != nil {
			log.Printf("some cells failed: %v", err)
		}

		if err := doc.SaveAs("analysis.ipynb"); err != nil {
			log.Fatal(err)
		}
	}
*/
package quire
