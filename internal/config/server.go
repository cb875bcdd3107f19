package config

// ServerConfig holds configuration for the results server
type ServerConfig struct {
	Port       string
	ResultsDir string
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "8090"
	}
	resultsDir := getenv("RESULTS_DIR")
	if resultsDir == "" {
		resultsDir = DefaultResultsDir
	}

	return ServerConfig{
		Port:       port,
		ResultsDir: resultsDir,
	}
}
