package spaces

import (
	"bytes"
	"context"
	"io"

	"github.com/DMarby/blobcrop/internal/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Provider implements an S3 compatible (e.g. DigitalOcean Spaces) image storage
type Provider struct {
	client s3iface.S3API
	space  string
	prefix string
}

// New returns a new Provider instance, looking up objects named <prefix><id><extension> in the given space
func New(space, endpoint, accessKey, secretKey, prefix string, forcePathStyle bool) (*Provider, error) {
	spacesSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})
	if err != nil {
		return nil, err
	}

	provider := NewWithClient(s3.New(spacesSession), space, prefix)

	// Make sure the space exists and the credentials are valid
	if _, err := provider.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(space)}); err != nil {
		return nil, err
	}

	return provider, nil
}

// NewWithClient returns a Provider using an existing client
func NewWithClient(client s3iface.S3API, space, prefix string) *Provider {
	return &Provider{
		client: client,
		space:  space,
		prefix: prefix,
	}
}

// Get returns the image data for an image id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}

	for _, extension := range storage.Extensions {
		data, err := p.get(ctx, p.prefix+id+extension)
		if err == nil {
			return data, nil
		}

		if err != storage.ErrNotFound {
			return nil, err
		}
	}

	return nil, storage.ErrNotFound
}

func (p *Provider) get(ctx context.Context, key string) ([]byte, error) {
	output, err := p.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.space),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}
	defer output.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, output.Body); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
