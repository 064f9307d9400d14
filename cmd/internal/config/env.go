package config

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
)

const defaultSSMPrefix = "/hseqaudit/prod/"

// LoadEnv exports the process configuration into the environment: AWS SSM
// Parameter Store in production, the local .env file otherwise.
func LoadEnv(ctx context.Context) error {
	if os.Getenv("GO_ENV") == "production" {
		prefix := getEnv("SSM_PREFIX", defaultSSMPrefix)
		return loadParameterStore(ctx, prefix)
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func loadParameterStore(ctx context.Context, prefix string) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(getEnv("AWS_REGION", "us-east-2")))
	if err != nil {
		return err
	}

	client := ssm.NewFromConfig(cfg)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}

		for _, param := range out.Parameters {
			key := (*param.Name)[len(prefix):]
			if err := os.Setenv(key, aws.ToString(param.Value)); err != nil {
				return err
			}
			loaded++
		}
	}

	logg.Debugf("loaded %d prod environment variables", loaded)
	return nil
}
