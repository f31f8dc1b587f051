package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"slotbook/config"
	"slotbook/models"
	"slotbook/services/civiltime"
	"slotbook/services/slots"
	"slotbook/utils"

	"github.com/spf13/cobra"
)

// cliActor is the administrator identity used for command line publishing.
var cliActor = models.Actor{ID: "cli", Role: models.RoleAdmin}

func readGenerateRequest(r io.Reader) (models.GenerateRequest, error) {
	var req models.GenerateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode generate request: %w", err)
	}
	return req, nil
}

func newGenerateCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Publish slots from a weekly pattern",
		Long:  "Reads a generation request as JSON from --file (or stdin with -) and stores the resulting slots.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			logger := utils.GetLogger()

			in := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			req, err := readGenerateRequest(in)
			if err != nil {
				return err
			}

			gen := slots.NewGenerator(civiltime.NewConverter(civilZone(cfg), nil))
			gen.DefaultCapacity = cfg.DefaultCapacity

			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")

			if dryRun {
				rows, err := gen.Generate(req)
				if err != nil {
					return err
				}
				return out.Encode(models.GenerateResult{BatchID: rows[0].BatchID, Slots: rows})
			}

			if cfg.StorageBackend == "memory" {
				return fmt.Errorf("publishing needs the mongo backend; use --dry-run to preview")
			}
			ctx := context.Background()
			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			publisher := &slots.Publisher{Generator: gen, Availability: store.Availability, Locations: store.Locations, Logger: logger}
			res, err := publisher.Publish(ctx, cliActor, req)
			if err != nil {
				return err
			}
			return out.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON generation request, - for stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the slots without storing them")
	return cmd
}
