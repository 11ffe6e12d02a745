package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootCmd is the geoeditor command
var rootCmd = &cobra.Command{
	Use:   "geoeditor",
	Short: "Headless GeoJSON editing engine",
	Long: `geoeditor runs GeoJSON editing sessions behind an HTTP API.

Available subcommands:
  serve      - Run the API server and persistence workers
  import-osm - Import an OSM PBF extract into a session document
  export     - Export a session document as GeoJSON or TopoJSON`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, importCmd, exportCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
