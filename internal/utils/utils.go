package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/TechGC/hasura-permission-checker/internal/builder"
	"github.com/TechGC/hasura-permission-checker/pkg/graph"
	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	// Create a new logger
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("HASURA_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	// Parse log level
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	// Configure logger
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) bool {
	// Check if a sample .env file exists but not the actual .env file
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	// Load environment variables from .env file if it exists
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Infof("Loaded environment variables from %s", envFile)
		}
	} else {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
	}

	if os.Getenv("HASURA_METADATA_FILE") == "" {
		logger.Debug("HASURA_METADATA_FILE is not set; the metadata file must be passed as a flag")
		return false
	}

	return true
}

// GetEnvString gets a string value from an environment variable with a fallback
func GetEnvString(varName, defaultValue string) string {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}
	return value
}

// PrintGraphAnalysis prints a detailed report of the built and pruned graph
func PrintGraphAnalysis(built, pruned *graph.Graph, diagnostics []models.Diagnostic) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("PERMISSION GRAPH ANALYSIS REPORT")
	fmt.Println(strings.Repeat("=", 80))

	// Basic statistics
	rootCount := 0
	roles := make(map[string]bool)
	for _, n := range built.NodeList() {
		if n.IsRoot {
			rootCount++
		}
		for r := range n.Roles {
			roles[r] = true
		}
	}

	prunedEdges := 0
	for _, e := range pruned.EdgeList() {
		if e.Pruned {
			prunedEdges++
		}
	}

	fmt.Println("\n1. BASIC STATISTICS")
	fmt.Printf("   Total tables: %d\n", len(built.Nodes))
	fmt.Printf("   Total relationships: %d\n", len(built.Edges))
	fmt.Printf("   Root tables (directly queryable): %d\n", rootCount)
	fmt.Printf("   Roles with select permissions: %d\n", len(roles))
	fmt.Printf("   Pruned relationships: %d\n", prunedEdges)

	// Root tables
	fmt.Println("\n2. ROOT TABLES")
	for _, n := range built.NodeList() {
		if n.IsRoot {
			fmt.Printf("   - %s (roles: %s)\n", n.Key(), strings.Join(n.RoleList(), ", "))
		}
	}

	// Pruned relationships
	if prunedEdges > 0 {
		fmt.Println("\n3. PRUNED RELATIONSHIPS")
		for _, e := range pruned.EdgeList() {
			if e.Pruned {
				fmt.Printf("   - %s -> %s via %s (no role may select the join column)\n",
					e.Source, e.Target, e.JoinColumn)
			}
		}
	}

	// Tables unreachable from any root once pruning is applied
	reachable := builder.RootReachable(pruned)
	var unreachable []string
	for _, n := range pruned.NodeList() {
		if !reachable[n.Key()] {
			unreachable = append(unreachable, n.Key())
		}
	}
	if len(unreachable) > 0 {
		fmt.Println("\n4. UNREACHABLE TABLES")
		for _, key := range unreachable {
			fmt.Printf("   - %s\n", key)
		}
	}

	// Diagnostics
	if len(diagnostics) > 0 {
		fmt.Println("\n5. METADATA WARNINGS")
		for _, d := range diagnostics {
			fmt.Printf("   - %s\n", d)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}
