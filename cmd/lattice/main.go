// Package main provides the Lattice CLI.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/lattice-ml/lattice/kernel"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Lattice %s\n", version)
			return
		case "info":
			printInfo()
			return
		}
	}

	fmt.Println("Lattice - Parallel Tensor Kernels for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  info       Show kernel configuration")
}

func printInfo() {
	cfg := kernel.DefaultConfig()
	fmt.Printf("Lattice %s\n", version)
	fmt.Printf("  CPUs:              %d\n", runtime.NumCPU())
	fmt.Printf("  Threads per block: %d\n", cfg.ThreadsPerBlock)
	fmt.Printf("  Reduce block dim:  %d\n", cfg.ReduceBlockDim)
	fmt.Printf("  Matmul tile:       %d\n", cfg.MatmulTile)
	fmt.Printf("  Workers:           %d\n", cfg.Workers.NumWorkers)
}
