package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

// EnvPrefix namespaces every environment variable read by LoadCredentials
const EnvPrefix = "PAIR"

// Credentials holds secrets that never live in the YAML file
type Credentials struct {
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3SessionToken    string `envconfig:"S3_SESSION_TOKEN"`
}

// HasStaticS3Keys reports whether explicit S3 keys were provided.
// Without them the AWS default credential chain is used.
func (c Credentials) HasStaticS3Keys() bool {
	return c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// LoadCredentials reads PAIR_* variables, after loading envFiles into the environment.
// Missing env files are ignored; variables may come from the shell.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	var creds Credentials
	if err := envconfig.Process(EnvPrefix, &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: reading environment: %w", utils.ErrConfigValidation, err)
	}
	if (creds.S3AccessKeyID == "") != (creds.S3SecretAccessKey == "") {
		return Credentials{}, fmt.Errorf("%w: %s_S3_ACCESS_KEY_ID and %s_S3_SECRET_ACCESS_KEY must be set together",
			utils.ErrConfigValidation, EnvPrefix, EnvPrefix)
	}
	return creds, nil
}
