package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	values map[string]string
	err    error
	names  []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.names = append(f.names, *in.Name)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[*in.Name]
	if !ok {
		return &ssm.GetParameterOutput{}, nil
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: &v}}, nil
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestGetParameter(t *testing.T) {
	api := &fakeSSM{values: map[string]string{"/aligner/TG_BOT_TOK": "123:abc"}}
	c, err := New(api)
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), " /aligner/TG_BOT_TOK ")
	require.NoError(t, err)
	require.Equal(t, "123:abc", v)

	_, err = c.GetParameter(context.Background(), "")
	require.Error(t, err)

	_, err = c.GetParameter(context.Background(), "/aligner/missing")
	require.ErrorContains(t, err, "missing value")
}

func TestGetParameter_APIError(t *testing.T) {
	c, err := New(&fakeSSM{err: errors.New("denied")})
	require.NoError(t, err)
	_, err = c.GetParameter(context.Background(), "/x")
	require.ErrorContains(t, err, "denied")
}

func TestLoadSecrets(t *testing.T) {
	api := &fakeSSM{values: map[string]string{
		"/aligner/TG_BOT_TOK":   "bot",
		"/aligner/AIRTABLE_TOK": "pat",
	}}
	c, err := New(api)
	require.NoError(t, err)

	s, err := LoadSecrets(context.Background(), c, "/aligner/", true)
	require.NoError(t, err)
	require.Equal(t, Secrets{BotToken: "bot", AirtableToken: "pat"}, s)

	api.names = nil
	s, err = LoadSecrets(context.Background(), c, "/aligner", false)
	require.NoError(t, err)
	require.Empty(t, s.AirtableToken)
	require.Equal(t, []string{"/aligner/TG_BOT_TOK"}, api.names)
}
