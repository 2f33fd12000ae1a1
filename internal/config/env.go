package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment keys read from the process or a .env file.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
	EnvRegion          = "AWS_REGION"
	EnvProfile         = "AWS_PROFILE"
	EnvBucketName      = "S3_BUCKET_NAME"
)

// Env is the credential and target set read from the environment.
type Env struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	Profile         string
	BucketName      string

	// FileFound reports whether the .env file existed.
	FileFound bool
}

// HasCredentials reports whether both keys of a static key pair are set.
func (e Env) HasCredentials() bool {
	return e.AccessKeyID != "" && e.SecretAccessKey != ""
}

// LoadEnv reads path as a dotenv file, if it exists, then overlays the
// process environment. A missing file is not an error.
func LoadEnv(path string) (Env, error) {
	values := map[string]string{}
	found := false

	if path != "" {
		fileValues, err := godotenv.Read(path)
		switch {
		case err == nil:
			values = fileValues
			found = true
		case errors.Is(err, os.ErrNotExist):
		default:
			return Env{}, fmt.Errorf("read env file %s: %w", path, err)
		}
	}

	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return values[key]
	}

	return Env{
		AccessKeyID:     get(EnvAccessKeyID),
		SecretAccessKey: get(EnvSecretAccessKey),
		SessionToken:    get(EnvSessionToken),
		Region:          get(EnvRegion),
		Profile:         get(EnvProfile),
		BucketName:      get(EnvBucketName),
		FileFound:       found,
	}, nil
}

// ConfigurationError is a required setting that is missing. It is raised
// before any network call.
type ConfigurationError struct {
	Key  string
	Hint string
}

func (e *ConfigurationError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s is not set", e.Key)
	}
	return fmt.Sprintf("%s is not set\n%s", e.Key, e.Hint)
}

// RequireBucket returns the bucket to size: the explicit name, else
// S3_BUCKET_NAME.
func (e Env) RequireBucket(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if e.BucketName != "" {
		return e.BucketName, nil
	}
	return "", &ConfigurationError{
		Key:  EnvBucketName,
		Hint: "Pass --bucket or add S3_BUCKET_NAME=your-bucket-name to your .env file",
	}
}

// First returns the first non-empty value.
func First(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
