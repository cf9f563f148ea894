package artifact

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestPlaceholder(t *testing.T) {
	url, err := Placeholder{}.Put(context.Background(), "v1", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/laudo-v1.pdf", url)

	url, err = Placeholder{BaseURL: "http://files.local/"}.Put(context.Background(), "v2", "")
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/laudo-v2.pdf", url)
}

func TestS3Store_Put(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "laudos", "", nil)

	url, err := store.Put(context.Background(), "v1", "Laudo final.")
	require.NoError(t, err)
	assert.Equal(t, "https://laudos.s3.amazonaws.com/reports/laudo-v1.txt", url)
	assert.Equal(t, "laudos", aws.ToString(client.input.Bucket))
	assert.Equal(t, "reports/laudo-v1.txt", aws.ToString(client.input.Key))
	assert.Equal(t, "Laudo final.", client.body)

	store.BaseURL = "http://localhost:9000/laudos/"
	url, err = store.Put(context.Background(), "v1", "x")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/laudos/reports/laudo-v1.txt", url)
}

func TestS3Store_PutError(t *testing.T) {
	boom := errors.New("access denied")
	_, err := NewS3Store(&fakeS3{err: boom}, "laudos", "", nil).Put(context.Background(), "v1", "x")
	assert.ErrorIs(t, err, boom)
}
