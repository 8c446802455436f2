package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TechGC/hasura-permission-checker/internal/builder"
	"github.com/TechGC/hasura-permission-checker/internal/generator"
	"github.com/TechGC/hasura-permission-checker/internal/loader"
	"github.com/TechGC/hasura-permission-checker/internal/pruner"
	"github.com/TechGC/hasura-permission-checker/internal/utils"
	"github.com/TechGC/hasura-permission-checker/internal/view"
)

func main() {
	var (
		metadataFile   string
		roles          []string
		label          string
		exactLabel     bool
		includePruned  bool
		dropPruned     bool
		output         string
		envFile        string
		logLevel       string
		generateTables int
		generateRoles  []string
		seed           int64
	)

	rootCmd := &cobra.Command{
		Use:   "hasura-permission-checker",
		Short: "Analyze Hasura permission metadata as a directed graph",
		Long: `Hasura Permission Checker

Builds a directed graph from an exported Hasura metadata file: one node per
table, one edge per relationship, annotated with role and permission
information. Edges whose join column is filtered out of every role's
allowed-column set are pruned, and the result can be filtered by role or
table label before being exported for visualization.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Setup logging
			logger := utils.SetupLogging(logLevel)

			// Load environment variables
			utils.LoadEnvironmentVariables(envFile, logger)

			// Fixture generation mode: write a synthetic metadata file and exit
			if generateTables > 0 {
				if output == "" {
					logger.Error("An output file (--output) is required when generating metadata")
					os.Exit(1)
				}
				gen := generator.NewMetadataGenerator(seed, logger)
				descriptors := gen.Generate(generateTables, generateRoles)
				if err := gen.WriteMetadataFile(output, descriptors); err != nil {
					logger.Errorf("Failed to write metadata file: %v", err)
					os.Exit(1)
				}
				return
			}

			if metadataFile == "" {
				metadataFile = os.Getenv("HASURA_METADATA_FILE")
			}
			if metadataFile == "" {
				logger.Error("A metadata file is required (--metadata or HASURA_METADATA_FILE)")
				os.Exit(1)
			}
			if len(roles) == 0 {
				if role := utils.GetEnvString("HASURA_ROLE", ""); role != "" {
					roles = []string{role}
				}
			}

			// Load metadata
			metadataLoader := loader.NewMetadataLoader(logger)
			descriptors, err := metadataLoader.Load(metadataFile)
			if err != nil {
				logger.Errorf("Failed to load metadata: %v", err)
				os.Exit(1)
			}

			// Build the permission graph
			graphBuilder := builder.NewGraphBuilder(logger)
			built, diagnostics, err := graphBuilder.Build(descriptors)
			if err != nil {
				logger.Errorf("Failed to build graph: %v", err)
				os.Exit(1)
			}

			// Prune untraversable edges
			graphPruner := pruner.NewPruner(logger)
			pruned := graphPruner.Prune(built)
			if dropPruned {
				pruned = graphPruner.DropPruned(pruned)
			}

			// Print the analysis report
			utils.PrintGraphAnalysis(built, pruned, diagnostics)

			// Apply the role/label projection for the renderer
			graphView := view.NewGraphView(logger)
			projected := graphView.Project(pruned, view.Options{
				Roles:         roles,
				Label:         label,
				ExactLabel:    exactLabel,
				IncludePruned: includePruned,
			})

			// Export for the external renderer
			if output != "" {
				data, err := json.MarshalIndent(projected.Export(), "", "  ")
				if err != nil {
					logger.Errorf("Failed to encode graph export: %v", err)
					os.Exit(1)
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					logger.Errorf("Failed to write graph export: %v", err)
					os.Exit(1)
				}
				logger.Infof("Wrote graph export to %s", output)
			}
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&metadataFile, "metadata", "f", "", "Path to the exported metadata JSON file")
	rootCmd.Flags().StringSliceVarP(&roles, "role", "r", nil, "Restrict the output to these roles (repeatable)")
	rootCmd.Flags().StringVarP(&label, "label", "l", "", "Restrict the output to tables whose label matches")
	rootCmd.Flags().BoolVar(&exactLabel, "exact-label", false, "Match the label exactly instead of by substring")
	rootCmd.Flags().BoolVar(&includePruned, "include-pruned", false, "Keep pruned edges in the exported graph")
	rootCmd.Flags().BoolVar(&dropPruned, "drop-pruned", false, "Physically remove pruned edges and orphaned non-root nodes")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Write the graph export (or generated metadata) to this file")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&generateTables, "generate-tables", 0, "Generate a synthetic metadata file with this many tables")
	rootCmd.Flags().StringSliceVar(&generateRoles, "generate-roles", []string{"public", "user"}, "Roles used when generating synthetic metadata")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "Seed for synthetic metadata generation")

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
