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
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultSSMRegion is where the parameters live
const DefaultSSMRegion = "ca-central-1"

// ssmBatchSize is the GetParameters limit
const ssmBatchSize = 10

// GetParametersAPI is the slice of the SSM client Load uses
type GetParametersAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// NewSSMClient creates an SSM client using the default AWS credential chain
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	if region == "" {
		region = DefaultSSMRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Errorf("loading aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// 📡 FetchSSM reads {env}_{VAR} for every known variable, ten names per request.
// The result is keyed by the bare variable name. Parameters SSM reports as
// invalid are logged and left out.
func FetchSSM(ctx context.Context, client GetParametersAPI, env Environment) (map[string]string, error) {
	logger := zerolog.Ctx(ctx)
	prefix := env.Prefix()

	names := make([]string, 0, len(Vars))
	for _, v := range Vars {
		names = append(names, prefix+v)
	}

	values := make(map[string]string, len(names))
	var invalid []string

	for start := 0; start < len(names); start += ssmBatchSize {
		end := min(start+ssmBatchSize, len(names))

		out, err := client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          names[start:end],
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, errors.Errorf("getting ssm parameters: %w", err)
		}

		for _, p := range out.Parameters {
			name := aws.ToString(p.Name)
			key := strings.TrimPrefix(name, prefix)
			values[key] = aws.ToString(p.Value)
			logger.Debug().Str("parameter", name).Msg("ssm parameter set")
		}
		invalid = append(invalid, out.InvalidParameters...)
	}

	if len(invalid) > 0 {
		logger.Warn().Strs("parameters", invalid).Msg("could not read ssm parameters")
	} else {
		logger.Info().Str("environment", string(env)).Int("count", len(values)).Msg("all ssm parameters set")
	}

	return values, nil
}
