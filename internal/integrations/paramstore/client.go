package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is what secret consumers depend on.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}

// Secrets are the tokens the bot may keep in Parameter Store.
type Secrets struct {
	BotToken      string
	AirtableToken string
}

// LoadSecrets reads <prefix>/TG_BOT_TOK and, when wantAirtable is set,
// <prefix>/AIRTABLE_TOK.
func LoadSecrets(ctx context.Context, g Getter, prefix string, wantAirtable bool) (Secrets, error) {
	prefix = strings.TrimRight(prefix, "/")

	var s Secrets
	var err error
	if s.BotToken, err = g.GetParameter(ctx, prefix+"/TG_BOT_TOK"); err != nil {
		return Secrets{}, err
	}
	if wantAirtable {
		if s.AirtableToken, err = g.GetParameter(ctx, prefix+"/AIRTABLE_TOK"); err != nil {
			return Secrets{}, err
		}
	}
	return s, nil
}
