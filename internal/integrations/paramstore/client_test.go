package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
}

func (f *fakeAPI) GetParameter(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"k":"v"}`),
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
}

func TestGetParameter_HappyPath_SecureString(t *testing.T) {
	typeStr := "SecureString"
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"k":"v"}`), Type: types.ParameterType(typeStr),
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: nil}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestGetParameter_ApiError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("boom")}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

// fakeGetter is a minimal Getter stub.
type fakeGetter struct {
	val    string
	err    error
	onCall func()
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func TestGetToken_JSONToken(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-from-json"}`}
	key, err := GetToken(context.Background(), g, "/scenario-bot/open-ai-token")
	require.NoError(t, err)
	require.Equal(t, "sk-from-json", key)
}

func TestGetToken_PlainValue(t *testing.T) {
	g := &fakeGetter{val: "  xoxb-plain \n"}
	key, err := GetToken(context.Background(), g, "/scenario-bot/slack-bot-token")
	require.NoError(t, err)
	require.Equal(t, "xoxb-plain", key)
}

func TestGetToken_JSONMissingTokenField(t *testing.T) {
	g := &fakeGetter{val: `{"other":"value"}`}
	_, err := GetToken(context.Background(), g, "/scenario-bot/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "is empty")
}

func TestGetToken_MalformedJSON(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	_, err := GetToken(context.Background(), g, "/scenario-bot/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}

func TestGetToken_GetterError(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	_, err := GetToken(context.Background(), g, "/scenario-bot/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}

func TestGetToken_InvalidArguments(t *testing.T) {
	_, err := GetToken(context.Background(), nil, "/scenario-bot/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")

	_, err = GetToken(context.Background(), &fakeGetter{val: "x"}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestCachedToken_FetchedOnce(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: `{"token":"sk-from-ssm"}`, onCall: func() { calls++ }}
	tok, err := NewCachedToken(g, "/scenario-bot/open-ai-token")
	require.NoError(t, err)

	v, err := tok.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", v)

	_, _ = tok.Token(context.Background())
	_, _ = tok.Token(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called until a lookup succeeds")
}

func TestCachedToken_RetriesAfterError(t *testing.T) {
	calls := 0
	g := &fakeGetter{err: errors.New("ssm throttled")}
	g.onCall = func() {
		calls++
		if calls > 1 {
			g.err = nil
			g.val = `{"token":"sk-from-ssm"}`
		}
	}
	tok, err := NewCachedToken(g, "/scenario-bot/open-ai-token")
	require.NoError(t, err)

	_, err = tok.Token(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm throttled")

	v, err := tok.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", v)

	_, _ = tok.Token(context.Background())
	require.Equal(t, 2, calls)
}

func TestNewCachedToken_Validates(t *testing.T) {
	_, err := NewCachedToken(nil, "/x")
	require.Error(t, err)

	_, err = NewCachedToken(&fakeGetter{}, "")
	require.Error(t, err)
}

func TestParamName(t *testing.T) {
	require.Equal(t, "/scenario-bot/open-ai-token", ParamName("/scenario-bot", OpenAITokenParam))
	require.Equal(t, "/scenario-bot/slack-bot-token", ParamName(" /scenario-bot/ ", SlackBotTokenParam))
}
