package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apoio-migrante/gestor-processos/internal/config"
	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
	"github.com/apoio-migrante/gestor-processos/internal/processo/service"
	"github.com/apoio-migrante/gestor-processos/internal/processo/templating"
)

func newRenderCmd() *cobra.Command {
	var subjectOnly bool
	cmd := &cobra.Command{
		Use:   "render <record.json>",
		Short: "Print the appointment request generated for a record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := initRegistry(cfg.Server)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var p entity.Processo
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			svc := service.NewProcessoService(nil, reg, nil, nil, "", nil)
			doc := svc.Render(&p)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject: %s\n", doc.Subject)
			if subjectOnly {
				return nil
			}
			t := templating.Display(reg, &p)
			fmt.Fprintf(out, "Cartão: %s\nResumo: %s\nDetalhes: %s\n\n", t.Cartao, t.Resumo, t.Detalhes)
			fmt.Fprintln(out, doc.HTML)
			return nil
		},
	}
	cmd.Flags().BoolVar(&subjectOnly, "subject", false, "print only the subject line")
	return cmd
}
