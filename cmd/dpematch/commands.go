package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/dpe-match/internal/app"
	"github.com/honeycarbs/dpe-match/internal/config"
	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/matching"
	"github.com/honeycarbs/dpe-match/pkg/logging"
)

// cli carries state shared by every subcommand
type cli struct {
	out        io.Writer
	configPath string
	logLevel   string
	timeout    time.Duration

	res     *app.Resources
	cleanup func()
}

// execute runs cmd and releases wired resources whether or not it failed
func (c *cli) execute(cmd *cobra.Command) error {
	defer c.close()
	return cmd.Execute()
}

func (c *cli) close() {
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dpematch",
		Short:         "Match cadastral parcels to DPE energy certificates",
		Long:          `Query the ADEME DPE dataset, classify candidates against a parcel and rank certificates by distance`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file (overrides DPE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "overall deadline for the command")

	rootCmd.AddCommand(createClassifyCmd(c))
	rootCmd.AddCommand(createNearbyCmd(c))
	rootCmd.AddCommand(createCandidatesCmd(c))

	return rootCmd
}

// init loads config and wires resources unless a test injected them
func (c *cli) init(ctx context.Context) error {
	if c.res != nil {
		return nil
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	// CLI output goes to stdout; logs stay quiet unless asked for
	level := "warn"
	if c.logLevel != "" {
		level = c.logLevel
	}

	res, cleanup, err := app.InitializeResources(ctx, cfg, logging.New(level))
	if err != nil {
		return fmt.Errorf("initialize resources: %w", err)
	}
	c.res, c.cleanup = res, cleanup
	return nil
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func createClassifyCmd(c *cli) *cobra.Command {
	var (
		desc     domain.PropertyDescriptor
		lat, lon float64
		persist  bool
		exportTo string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Find the certificate of a parcel and report whether one is an exact match",
		Example: `  dpematch classify --department 75 --commune Paris --section AB --numero 0012
  dpematch classify --department 2A --commune Ajaccio --explain`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("lat") != cmd.Flags().Changed("lon") {
				return errors.New("--lat and --lon must be given together")
			}
			if cmd.Flags().Changed("lat") {
				desc.Target = &domain.Coordinate{Lat: lat, Lon: lon}
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			result, err := c.res.Classifier.ClassifyExactMatch(ctx, desc)
			if err != nil {
				if errors.Is(err, matching.ErrMissingDepartment) {
					return errors.New("--department is required")
				}
				return err
			}

			if persist {
				if err := c.res.Decisions.SaveClassification(ctx, desc, result); err != nil {
					return fmt.Errorf("persist classification: %w", err)
				}
			}
			if cmd.Flags().Changed("export") {
				if _, err := c.res.Exporter.ExportClassification(ctx, result, exportTo); err != nil {
					return err
				}
			}

			if explain {
				fmt.Fprintf(c.out, "%s (%d record(s))\n", result.Status(), result.CandidateCount)
				for _, sc := range result.Candidates {
					fmt.Fprintln(c.out, matching.Explain(sc))
				}
				return nil
			}
			return c.printJSON(result)
		},
	}

	cmd.Flags().StringVar(&desc.Department, "department", "", "department code, e.g. 75 or 2A")
	cmd.Flags().StringVar(&desc.Commune, "commune", "", "commune name")
	cmd.Flags().StringVar(&desc.Section, "section", "", "cadastral section")
	cmd.Flags().StringVar(&desc.Numero, "numero", "", "cadastral parcel number")
	cmd.Flags().Float64Var(&lat, "lat", 0, "parcel latitude, for display distances")
	cmd.Flags().Float64Var(&lon, "lon", 0, "parcel longitude, for display distances")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the outcome in Neo4j")
	cmd.Flags().StringVar(&exportTo, "export", "", "write candidates to this Google Sheets tab (empty uses the configured tab)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print one line per candidate instead of JSON")

	return cmd
}

func createNearbyCmd(c *cli) *cobra.Command {
	var (
		postalCode string
		lat, lon   float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "nearby",
		Short:   "Rank the certificates of a postal code by distance from a point",
		Example: `  dpematch nearby --postal-code 75011 --lat 48.8589 --lon 2.3801 --limit 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if postalCode == "" {
				return errors.New("--postal-code is required")
			}
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				return errors.New("--lat and --lon are required")
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			result, err := c.res.Proximity.Nearby(ctx, domain.Coordinate{Lat: lat, Lon: lon}, postalCode, limit)
			if err != nil {
				return err
			}
			return c.printJSON(result)
		},
	}

	cmd.Flags().StringVar(&postalCode, "postal-code", "", "five digit postal code")
	cmd.Flags().Float64Var(&lat, "lat", 0, "target latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "target longitude")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of certificates (0 for all)")

	return cmd
}

func createCandidatesCmd(c *cli) *cobra.Command {
	var (
		desc  domain.PropertyDescriptor
		limit int
	)

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List the candidates stored in Neo4j for a parcel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			stored, err := c.res.Decisions.ListCandidates(ctx, desc.ParcelKey(), limit)
			if err != nil {
				return err
			}
			return c.printJSON(stored)
		},
	}

	cmd.Flags().StringVar(&desc.Department, "department", "", "department code")
	cmd.Flags().StringVar(&desc.Commune, "commune", "", "commune name")
	cmd.Flags().StringVar(&desc.Section, "section", "", "cadastral section")
	cmd.Flags().StringVar(&desc.Numero, "numero", "", "cadastral parcel number")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of candidates")
	_ = cmd.MarkFlagRequired("department")

	return cmd
}
