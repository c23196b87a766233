package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gestor",
		Short:         "Gestor de processos de imigração",
		Long:          `gestor serves the case-management API used by staff to prepare and send SEF/CC appointment requests.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/config.yaml)")

	root.AddCommand(newServeCmd(), newRenderCmd(), newExportCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
