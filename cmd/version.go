package cmd

import "fmt"

// runVersion prints the build information.
func runVersion() {
	fmt.Printf("brewchat %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
