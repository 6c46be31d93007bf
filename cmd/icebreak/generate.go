package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/internal/agent/core"
	"github.com/mohammad-safakhou/icebreak/internal/agent/telemetry"
)

func generateCMD() *cobra.Command {
	var cfgPath string
	var gen = &cobra.Command{
		Use:   "generate [name]",
		Short: "Generate ice breakers for a person and print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			orch, err := core.NewOrchestrator(cfg, nil, telemetry.New(cfg.Telemetry))
			if err != nil {
				return err
			}
			result, err := orch.GenerateIceBreakers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		},
	}
	gen.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return gen
}
