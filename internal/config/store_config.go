package config

// Store backends selectable via STORE_BACKEND.
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendDynamoDB = "dynamodb"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetDynamoTable() string
	GetDynamoRegion() string
	GetDynamoEndpoint() string
	GetRedisAddr() string
	GetRedisPassword() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() string {
	return GetEnv("STORE_BACKEND", StoreBackendMemory)
}

func (Store) GetDynamoTable() string {
	return GetEnv("DYNAMO_TABLE", "users")
}

func (Store) GetDynamoRegion() string {
	return GetEnv("DYNAMO_REGION", "us-east-1")
}

// GetDynamoEndpoint returns a non-empty endpoint URL when targeting a local
// DynamoDB (e.g. LocalStack) instead of AWS.
func (Store) GetDynamoEndpoint() string {
	return GetEnv("DYNAMO_ENDPOINT", "")
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}
