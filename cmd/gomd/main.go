// gomd is a command-line front end for the gomd trajectory analysis
// library.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
