package config

import "time"

// NewPolicyForTest creates a Policy config for testing purposes
func NewPolicyForTest(path, seedAdminEmail string) *Policy {
	return &Policy{path: path, seedAdminEmail: seedAdminEmail}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(jwtSecret, noAuthUID string) *Auth {
	return &Auth{jwtSecret: jwtSecret, noAuthUID: noAuthUID, skew: time.Second}
}

// NewScoringForTest creates a Scoring config for testing purposes
func NewScoringForTest(url string, calculationTimeout, healthTimeout time.Duration) *Scoring {
	return &Scoring{url: url, calculationTimeout: calculationTimeout, healthTimeout: healthTimeout}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}
