// Package main provides the MerchSync Go Core library entry point.
// This is a platform-agnostic library that can be compiled as:
// - Shared library for mobile embedding
// - Standalone binary for desktop
package main

import (
	"fmt"
	"log"
)

// Version is set at build time
var Version = "0.1.0"

func main() {
	fmt.Printf("MerchSync Core v%s\n", Version)
	log.Println("MerchSync Go Core - Platform-Agnostic Offline Library")
}
