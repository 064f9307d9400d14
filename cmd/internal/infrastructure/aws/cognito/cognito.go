package cognitoclient

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

var ErrSubjectMissing = errors.New("cognito did not return a sub attribute")

// Inviter provisions users on the identity provider. Cognito mails the
// temporary password itself.
type Inviter interface {
	InviteUser(ctx context.Context, email, name string) (string, error)
}

type adminCreateUserAPI interface {
	AdminCreateUser(ctx context.Context, params *cognito.AdminCreateUserInput, optFns ...func(*cognito.Options)) (*cognito.AdminCreateUserOutput, error)
}

type cognitoClient struct {
	client adminCreateUserAPI
	poolID string
}

func NewCognitoClient(ctx context.Context, region, poolID string) (Inviter, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &cognitoClient{
		client: cognito.NewFromConfig(cfg),
		poolID: poolID,
	}, nil
}

// InviteUser creates the user on the pool and returns its "sub" (the UUID).
func (c *cognitoClient) InviteUser(ctx context.Context, email, name string) (string, error) {
	out, err := c.client.AdminCreateUser(ctx, &cognito.AdminCreateUserInput{
		UserPoolId: aws.String(c.poolID),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
		DesiredDeliveryMediums: []types.DeliveryMediumType{types.DeliveryMediumTypeEmail},
	})
	if err != nil {
		return "", err
	}

	if out.User != nil {
		for _, attr := range out.User.Attributes {
			if aws.ToString(attr.Name) == "sub" {
				return aws.ToString(attr.Value), nil
			}
		}
	}
	return "", ErrSubjectMissing
}
