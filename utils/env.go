package utils

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// GetDataverseURL returns the target environment URL. Deploy commands
// cannot work without it.
func GetDataverseURL() string {
	url := os.Getenv("DATAVERSE_URL")
	if url == "" {
		log.Fatalln("❌ DATAVERSE_URL not set (in .env or environment)")
	}
	return url
}

// GetDataverseToken returns the pre-acquired Web API access token.
// Token acquisition (OAuth, service principals) happens outside this
// tool; it only consumes the result.
func GetDataverseToken() string {
	token := os.Getenv("DATAVERSE_TOKEN")
	if token == "" {
		log.Fatalln("❌ DATAVERSE_TOKEN not set (in .env or environment)")
	}
	return token
}

// GetHistoryDatabaseURL returns the Postgres URL for deployment
// history, or empty when history tracking is disabled.
func GetHistoryDatabaseURL() string {
	return os.Getenv("HISTORY_DATABASE_URL")
}
