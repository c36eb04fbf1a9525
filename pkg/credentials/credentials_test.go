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
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockSSM is a mock implementation of GetParametersAPI
type MockSSM struct {
	mock.Mock
}

func (m *MockSSM) GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	result := m.Called(ctx, params)
	out, _ := result.Get(0).(*ssm.GetParametersOutput)
	return out, result.Error(1)
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func param(name, value string) types.Parameter {
	return types.Parameter{Name: aws.String(name), Value: aws.String(value)}
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Environment
		wantErr bool
	}{
		{name: "dev", input: "dev", want: Dev},
		{name: "stag_mixed_case", input: " STAG ", want: Staging},
		{name: "prod", input: "prod", want: Prod},
		{name: "unknown", input: "qa", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnvironment(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "options: dev, stag, prod")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchSSM(t *testing.T) {
	ctx := testContext(t)
	client := new(MockSSM)

	client.On("GetParameters", mock.Anything, mock.MatchedBy(func(in *ssm.GetParametersInput) bool {
		return len(in.Names) == len(Vars) && in.Names[0] == "prod_AWS_ACCESS_KEY_ID" && aws.ToBool(in.WithDecryption)
	})).Return(&ssm.GetParametersOutput{
		Parameters: []types.Parameter{
			param("prod_AWS_ACCESS_KEY_ID", "AKIA"),
			param("prod_SQL_PASSWORD", "pw"),
			param("prod_S3_BUCKET", "onboarding-prod"),
		},
		InvalidParameters: []string{"prod_AWS_APP_CLIENT_ID"},
	}, nil).Once()

	values, err := FetchSSM(ctx, client, Prod)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"AWS_ACCESS_KEY_ID": "AKIA",
		"SQL_PASSWORD":      "pw",
		"S3_BUCKET":         "onboarding-prod",
	}, values)
	client.AssertExpectations(t)
}

func TestFetchSSMBatchesOfTen(t *testing.T) {
	ctx := testContext(t)
	client := new(MockSSM)

	saved := Vars
	t.Cleanup(func() { Vars = saved })
	Vars = nil
	for i := 0; i < 23; i++ {
		Vars = append(Vars, "V"+string(rune('A'+i)))
	}

	var sizes []int
	client.On("GetParameters", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sizes = append(sizes, len(args.Get(1).(*ssm.GetParametersInput).Names))
	}).Return(&ssm.GetParametersOutput{}, nil)

	_, err := FetchSSM(ctx, client, Dev)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestFetchSSMError(t *testing.T) {
	client := new(MockSSM)
	client.On("GetParameters", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := FetchSSM(testContext(t), client, Dev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting ssm parameters: throttled")
}

func TestLoadPrecedence(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("S3_BUCKET=from-file\nAWS_S3_REGION_NAME=ca-central-1\nUNRELATED=x\n"), 0644))

	client := new(MockSSM)
	client.On("GetParameters", mock.Anything, mock.Anything).Return(&ssm.GetParametersOutput{
		Parameters: []types.Parameter{param("stag_AWS_SECRET_ACCESS_KEY", "from-ssm")},
	}, nil)

	creds, err := Load(ctx, Options{
		Environment: Staging,
		EnvFile:     envFile,
		SSM:         client,
		LookupEnv: envMap(map[string]string{
			"S3_BUCKET":             "from-env",
			"AWS_ACCESS_KEY_ID":     "AKIA",
			"AWS_SECRET_ACCESS_KEY": "from-env",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "from-file", creds.Bucket, ".env wins over the environment")
	assert.Equal(t, "from-ssm", creds.SecretAccessKey, "ssm wins over everything")
	assert.Equal(t, "AKIA", creds.AccessKeyID)
	assert.Equal(t, "ca-central-1", creds.Region)
	require.NoError(t, creds.Validate())

	assert.Equal(t, "from-file", creds.Remote().Bucket)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	creds, err := Load(testContext(t), Options{
		EnvFile:   filepath.Join(t.TempDir(), ".env"),
		LookupEnv: envMap(map[string]string{"S3_BUCKET": "b"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "b", creds.Bucket)
}

func TestLoadSSMNeedsEnvironment(t *testing.T) {
	_, err := Load(testContext(t), Options{SSM: new(MockSSM), LookupEnv: envMap(nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		missing []string
	}{
		{
			name:  "complete",
			creds: Credentials{Bucket: "b", Region: "r", AccessKeyID: "a", SecretAccessKey: "s"},
		},
		{
			name:  "default_chain_allowed",
			creds: Credentials{Bucket: "b", Region: "r"},
		},
		{
			name:    "missing_bucket_and_region",
			creds:   Credentials{},
			missing: []string{VarBucket, VarRegion},
		},
		{
			name:    "half_a_key_pair",
			creds:   Credentials{Bucket: "b", Region: "r", AccessKeyID: "a"},
			missing: []string{"pair"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if len(tt.missing) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, m := range tt.missing {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}
