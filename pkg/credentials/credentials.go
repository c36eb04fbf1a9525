// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package credentials

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/remote"
)

// 🌍 Environment selects the SSM parameter prefix
type Environment string

const (
	Dev     Environment = "dev"
	Staging Environment = "stag"
	Prod    Environment = "prod"
)

// ParseEnvironment accepts dev, stag or prod
func ParseEnvironment(s string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case Dev, Staging, Prod:
		return env, nil
	default:
		return "", errors.Errorf("unknown environment %q, options: dev, stag, prod", s)
	}
}

// Prefix returns the SSM parameter name prefix, e.g. "prod_"
func (e Environment) Prefix() string {
	return string(e) + "_"
}

// Variable names, shared by the environment, .env files and SSM
const (
	VarAccessKeyID     = "AWS_ACCESS_KEY_ID"
	VarAppClientID     = "AWS_APP_CLIENT_ID"
	VarRegion          = "AWS_S3_REGION_NAME"
	VarSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	VarBucket          = "S3_BUCKET"
	VarSQLDatabase     = "SQL_DATABASE"
	VarSQLPassword     = "SQL_PASSWORD"
	VarSQLUsername     = "SQL_USERNAME"
)

// Vars lists every variable fetched per environment
var Vars = []string{
	VarAccessKeyID,
	VarAppClientID,
	VarRegion,
	VarSecretAccessKey,
	VarBucket,
	VarSQLDatabase,
	VarSQLPassword,
	VarSQLUsername,
}

// 🔐 Credentials holds the values assembled at startup
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	AppClientID     string
	SQLDatabase     string
	SQLUsername     string
	SQLPassword     string
}

// Remote returns the subset the upload gateway needs
func (c Credentials) Remote() remote.Config {
	return remote.Config{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Region:          c.Region,
		Bucket:          c.Bucket,
	}
}

// Validate checks the values an upload cannot do without
func (c Credentials) Validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, VarBucket)
	}
	if c.Region == "" {
		missing = append(missing, VarRegion)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		missing = append(missing, VarAccessKeyID+"/"+VarSecretAccessKey+" pair")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Credentials) set(name, value string) bool {
	switch name {
	case VarAccessKeyID:
		c.AccessKeyID = value
	case VarAppClientID:
		c.AppClientID = value
	case VarRegion:
		c.Region = value
	case VarSecretAccessKey:
		c.SecretAccessKey = value
	case VarBucket:
		c.Bucket = value
	case VarSQLDatabase:
		c.SQLDatabase = value
	case VarSQLPassword:
		c.SQLPassword = value
	case VarSQLUsername:
		c.SQLUsername = value
	default:
		return false
	}
	return true
}

// Options controls where Load looks
type Options struct {
	Environment Environment
	// EnvFile is read with godotenv when it exists. Empty disables it.
	EnvFile string
	// SSM, when set, is consulted last and wins over the other sources
	SSM GetParametersAPI
	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

// 🔑 Load assembles credentials from, in increasing precedence, the process
// environment, the .env file and SSM. The process environment is never modified.
func Load(ctx context.Context, opts Options) (Credentials, error) {
	logger := zerolog.Ctx(ctx)

	var creds Credentials

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range Vars {
		if value, ok := lookup(name); ok {
			creds.set(name, value)
		}
	}

	if opts.EnvFile != "" {
		values, err := readEnvFile(opts.EnvFile)
		if err != nil {
			return Credentials{}, err
		}
		for name, value := range values {
			if creds.set(name, value) {
				logger.Debug().Str("var", name).Str("file", opts.EnvFile).Msg("credential from env file")
			}
		}
	}

	if opts.SSM != nil {
		if opts.Environment == "" {
			return Credentials{}, errors.New("an environment is required to read SSM parameters")
		}
		values, err := FetchSSM(ctx, opts.SSM, opts.Environment)
		if err != nil {
			return Credentials{}, err
		}
		for name, value := range values {
			creds.set(name, value)
		}
	}

	return creds, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("checking env file: %w", err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Errorf("reading env file %s: %w", path, err)
	}
	return values, nil
}
