package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/retentia/churnsight/internal/engine"
	"github.com/retentia/churnsight/internal/factories"
	"github.com/retentia/churnsight/internal/models"
	"github.com/retentia/churnsight/internal/repositories"
	"github.com/retentia/churnsight/internal/repositories/memory"
	"github.com/retentia/churnsight/internal/repositories/postgres"
	"github.com/retentia/churnsight/internal/scoring"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "churnsight",
	Short: "Scores customer churn risk and recommends retention interventions",
	Long:  `churnsight is a CLI tool that trains an in-process churn model over a customer dataset (imported, seeded, or synthetic), scores every customer, and emits prediction and intervention-recommendation events to console, files, Kafka, or Postgres.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		if err := run(cmd.Context(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func run(ctx context.Context, cfg *models.Config) error {
	customers, sessions, predictions, err := buildStorage(ctx, cfg)
	if err != nil {
		return err
	}

	if err := loadDataset(ctx, cfg, customers, sessions); err != nil {
		return err
	}

	eng := engine.New(cfg, customers, sessions)
	runner := scoring.NewRunner(cfg, eng, customers)
	runner.Predictions = predictions

	return runner.Run(ctx)
}

// buildStorage picks Postgres repositories when the database is enabled,
// transient in-memory stores otherwise.
func buildStorage(ctx context.Context, cfg *models.Config) (repositories.CustomerRepository, repositories.SessionRepository, repositories.PredictionRepository, error) {
	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return postgres.NewCustomerRepository(pool),
			postgres.NewSessionRepository(pool),
			postgres.NewPredictionRepository(pool),
			nil
	}
	return memory.NewStore(), memory.NewSessionStore(), nil, nil
}

// loadDataset fills the repositories from CSV files when configured, or from
// the demo factory. With both disabled the engine runs in pure synthetic
// mode.
func loadDataset(ctx context.Context, cfg *models.Config, customers repositories.CustomerRepository, sessions repositories.SessionRepository) error {
	if cfg.CustomerDataFile != "" {
		loaded, err := models.LoadCustomersCSV(cfg.CustomerDataFile)
		if err != nil {
			return fmt.Errorf("loading customer data: %w", err)
		}
		if err := customers.BulkCreate(ctx, loaded); err != nil {
			return err
		}
		log.Printf("Loaded %d customers from %s", len(loaded), cfg.CustomerDataFile)

		if cfg.SessionDataFile != "" {
			history, err := models.LoadSessionsCSV(cfg.SessionDataFile)
			if err != nil {
				return fmt.Errorf("loading session data: %w", err)
			}
			if err := sessions.BulkCreate(ctx, history); err != nil {
				return err
			}
			log.Printf("Loaded %d sessions from %s", len(history), cfg.SessionDataFile)
		}
		return nil
	}

	if !cfg.SeedDemoData || cfg.InitialCustomers <= 0 {
		return nil
	}

	factory := factories.NewCustomerFactory(int64(cfg.Seed), cfg.ReferenceTime)
	generated := make([]*models.Customer, 0, cfg.InitialCustomers)
	var history []*models.Session
	for id := 1; id <= cfg.InitialCustomers; id++ {
		customer := factory.CreateCustomer(id)
		generated = append(generated, customer)
		history = append(history, factory.CreateSessions(customer)...)
	}

	if err := customers.BulkCreate(ctx, generated); err != nil {
		return err
	}
	if err := sessions.BulkCreate(ctx, history); err != nil {
		return err
	}
	log.Printf("Seeded %d demo customers with %d sessions", len(generated), len(history))
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is examples/config.json)")

	rootCmd.Flags().Int("seed", 42, "Random seed for training and demo data")
	rootCmd.Flags().Int("initial-customers", 100, "Number of customers to seed or score synthetically")
	rootCmd.Flags().Bool("seed-demo-data", true, "Seed generated demo customers when no dataset file is configured")
	rootCmd.Flags().Int("num-trees", 10, "Number of trees in the churn ensemble")
	rootCmd.Flags().Int("max-tree-depth", 5, "Maximum depth per tree")
	rootCmd.Flags().Int("min-samples-split", 5, "Minimum subset size to split a node")
	rootCmd.Flags().Float64("exploration-rate", 0.1, "Epsilon for the intervention policy")
	rootCmd.Flags().Float64("learning-rate", 0.1, "Q-learning step size")
	rootCmd.Flags().Float64("discount-factor", 0.9, "Q-learning discount factor")
	rootCmd.Flags().String("customer-data-file", "", "CSV customer dataset path")
	rootCmd.Flags().String("session-data-file", "", "CSV session history path")
	rootCmd.Flags().Bool("simulate-outcomes", false, "Simulate intervention outcomes to exercise policy updates")
	rootCmd.Flags().Bool("kafka-enabled", false, "Enable Kafka output")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	rootCmd.Flags().String("output-format", "json", "Output format: json, csv or parquet")
	rootCmd.Flags().String("output-path", "", "Output base path (console when empty and Kafka is off)")

	viper.BindPFlags(rootCmd.Flags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
