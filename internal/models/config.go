package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type Config struct {
	Seed             int  `mapstructure:"seed"`
	InitialCustomers int  `mapstructure:"initial_customers"`
	SeedDemoData     bool `mapstructure:"seed_demo_data"`

	// Engine hyperparameters
	NumTrees        int     `mapstructure:"num_trees"`
	MaxTreeDepth    int     `mapstructure:"max_tree_depth"`
	MinSamplesSplit int     `mapstructure:"min_samples_split"`
	TrainingSamples int     `mapstructure:"training_samples"`
	ExplorationRate float64 `mapstructure:"exploration_rate"`
	LearningRate    float64 `mapstructure:"learning_rate"`
	DiscountFactor  float64 `mapstructure:"discount_factor"`

	// Dataset files; when set they define the configured real dataset
	CustomerDataFile string `mapstructure:"customer_data_file"`
	SessionDataFile  string `mapstructure:"session_data_file"`

	SimulateOutcomes bool `mapstructure:"simulate_outcomes"`

	KafkaEnabled     bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList  string `mapstructure:"kafka_broker_list"`
	SessionTimeoutMs int    `mapstructure:"session_timeout_ms"`

	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputDestination string             `mapstructure:"output_destination"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`

	Database DatabaseConfig `mapstructure:"database"`

	ReferenceTime time.Time `mapstructure:"reference_time"` // "now" for day-difference features; zero means wall clock
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Default config location
		viper.AddConfigPath("examples")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("seed", 42)
	viper.SetDefault("initial_customers", 100)
	viper.SetDefault("seed_demo_data", true)
	viper.SetDefault("num_trees", 10)
	viper.SetDefault("max_tree_depth", 5)
	viper.SetDefault("min_samples_split", 5)
	viper.SetDefault("training_samples", 100)
	viper.SetDefault("exploration_rate", 0.1)
	viper.SetDefault("learning_rate", 0.1)
	viper.SetDefault("discount_factor", 0.9)
	viper.SetDefault("output_destination", "local")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
