package config

const (
	// DefaultDatabasePath is the sqlite file used when DATABASE_URL is not set
	DefaultDatabasePath = "./houseprice.db"

	// DefaultModelPath is where the serialized regression model is read from
	DefaultModelPath = "model.json"

	// DefaultAPIPrefix is mounted in front of every API route
	DefaultAPIPrefix = "/api-deutsche"
)
