package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apoio-migrante/gestor-processos/internal/config"
	"github.com/apoio-migrante/gestor-processos/internal/processo/export"
	"github.com/apoio-migrante/gestor-processos/internal/processo/handler"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
)

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored record to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := initRegistry(cfg.Server)
			if err != nil {
				return err
			}
			store, closeStore, err := initStore(cfg, map[string]handler.ReadyCheck{}, zap.NewNop())
			if err != nil {
				return err
			}
			defer closeStore()

			svc := service.NewProcessoService(store, reg, nil, nil, "", nil)
			f, err := svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			defer f.Close()

			if out == "" {
				out = export.Filename(time.Now())
			}
			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: processos_YYYYMMDD_HHMM.xlsx)")
	return cmd
}
