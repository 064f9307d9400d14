package cognitoclient

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type fakeAdmin struct {
	input *cognito.AdminCreateUserInput
	out   *cognito.AdminCreateUserOutput
	err   error
}

func (f *fakeAdmin) AdminCreateUser(_ context.Context, in *cognito.AdminCreateUserInput, _ ...func(*cognito.Options)) (*cognito.AdminCreateUserOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestInviteUser_ReturnsSubject(t *testing.T) {
	fake := &fakeAdmin{out: &cognito.AdminCreateUserOutput{User: &types.UserType{
		Attributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String("ana@empresa.cl")},
			{Name: aws.String("sub"), Value: aws.String("8c1f-uuid")},
		},
	}}}
	c := &cognitoClient{client: fake, poolID: "sa-east-1_pool"}

	sub, err := c.InviteUser(context.Background(), "ana@empresa.cl", "Ana Rojas")
	if err != nil {
		t.Fatalf("InviteUser: %v", err)
	}
	if sub != "8c1f-uuid" {
		t.Errorf("sub = %q", sub)
	}
	if aws.ToString(fake.input.UserPoolId) != "sa-east-1_pool" || aws.ToString(fake.input.Username) != "ana@empresa.cl" {
		t.Errorf("unexpected input %+v", fake.input)
	}
}

func TestInviteUser_MissingSubject(t *testing.T) {
	c := &cognitoClient{client: &fakeAdmin{out: &cognito.AdminCreateUserOutput{}}, poolID: "p"}
	if _, err := c.InviteUser(context.Background(), "a@b.cl", "A"); !errors.Is(err, ErrSubjectMissing) {
		t.Errorf("expected ErrSubjectMissing, got %v", err)
	}
}

func TestInviteUser_PropagatesError(t *testing.T) {
	boom := errors.New("UsernameExistsException")
	c := &cognitoClient{client: &fakeAdmin{err: boom}, poolID: "p"}
	if _, err := c.InviteUser(context.Background(), "a@b.cl", "A"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
