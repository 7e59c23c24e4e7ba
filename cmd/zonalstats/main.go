// Command zonalstats computes area-weighted zonal statistics for a set
// of polygon zones against one or more gridded rasters.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
