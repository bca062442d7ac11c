package config

// NewAppConfigForTest creates a policy config for testing purposes
func NewAppConfigForTest(path string, owners, components []string) *AppConfig {
	return &AppConfig{
		path:       path,
		owners:     owners,
		components: components,
	}
}

// NewPostgresRepositoryForTest creates a postgres repository config for testing purposes
func NewPostgresRepositoryForTest(host, name, user, password string) *Repository {
	return &Repository{
		backend:    BackendPostgres,
		dbHost:     host,
		dbPort:     5432,
		dbName:     name,
		dbUser:     user,
		dbPassword: password,
	}
}

// NewRepositoryForTest creates a repository config with only a backend set
func NewRepositoryForTest(backend string) *Repository {
	return &Repository{backend: backend}
}

// NewStorageForTest creates a storage config for testing purposes
func NewStorageForTest(backend, bucket string) *Storage {
	return &Storage{backend: backend, bucket: bucket, prefix: "evidence"}
}

// NewLoggerForTest creates a logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID}
}
