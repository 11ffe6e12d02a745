package main

import (
	"errors"
	"os"

	"geoeditor/internal/featurestore"

	"github.com/spf13/cobra"
)

var (
	exportSession string
	exportFormat  string
	exportPretty  bool
	exportClean   bool
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session document as GeoJSON or TopoJSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "session id to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", "geojson", "geojson or topojson")
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", false, "indent the document")
	exportCmd.Flags().BoolVar(&exportClean, "clean", false, "drop duplicate consecutive coordinates")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file, stdout when empty")
	_ = exportCmd.MarkFlagRequired("session")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := featurestore.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.documents == nil && a.snapshots == nil {
		return errors.New("no persistence backend enabled, set PERSIST_REDIS or PERSIST_POSTGRES")
	}
	s, err := a.sessions.Open(cmd.Context(), exportSession)
	if err != nil {
		return err
	}
	blob, err := s.Store().ExportBlob(format, exportPretty, exportClean)
	if err != nil {
		return err
	}
	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(blob.Data)
		return err
	}
	return os.WriteFile(exportOut, blob.Data, 0o644)
}
