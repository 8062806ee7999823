package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-graphstats/pkg/graph"
)

// s3PutAPI is the subset of *s3.Client the sink uses.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes results locally through a FileSink and uploads every
// produced file to s3://bucket/prefix/run-id/ on Close.
type S3Sink struct {
	local  *FileSink
	client s3PutAPI
	bucket string
	prefix string
}

// S3Options locates the bucket results are uploaded to.
type S3Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the AWS endpoint for S3-compatible stores such as
	// MinIO; it also switches to path-style addressing.
	Endpoint string

	// Static credentials. When empty the default AWS credential chain is
	// used.
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Sink builds an S3 client for opts.
func NewS3Sink(ctx context.Context, local *FileSink, opts S3Options, runID string) (*S3Sink, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Sink(local, client, opts.Bucket, opts.Prefix, runID), nil
}

func newS3Sink(local *FileSink, client s3PutAPI, bucket, prefix, runID string) *S3Sink {
	return &S3Sink{
		local:  local,
		client: client,
		bucket: bucket,
		prefix: path.Join(prefix, runID),
	}
}

// Name implements Sink.
func (s *S3Sink) Name() string { return "s3" }

// WriteCentrality implements Sink.
func (s *S3Sink) WriteCentrality(ctx context.Context, kind string, scores map[graph.NodeID]float64) error {
	return s.local.WriteCentrality(ctx, kind, scores)
}

// WriteDegreeDistribution implements Sink.
func (s *S3Sink) WriteDegreeDistribution(ctx context.Context, dist map[int]int) error {
	return s.local.WriteDegreeDistribution(ctx, dist)
}

// WriteCommunities implements Sink.
func (s *S3Sink) WriteCommunities(ctx context.Context, labels map[graph.NodeID]graph.NodeID) error {
	return s.local.WriteCommunities(ctx, labels)
}

// WriteManifest implements ManifestWriter.
func (s *S3Sink) WriteManifest(ctx context.Context, m *Manifest) error {
	return s.local.WriteManifest(ctx, m)
}

// Key returns the object key a local file is uploaded to.
func (s *S3Sink) Key(localPath string) string {
	return path.Join(s.prefix, filepath.Base(localPath))
}

// Close uploads every file the local sink has produced.
func (s *S3Sink) Close(ctx context.Context) error {
	for _, p := range s.local.Files() {
		if err := s.upload(ctx, p); err != nil {
			return err
		}
	}
	return s.local.Close(ctx)
}

func (s *S3Sink) upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := s.Key(localPath)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func contentType(p string) string {
	switch filepath.Ext(p) {
	case ".csv":
		return "text/csv"
	case ".yaml":
		return "application/yaml"
	case ".png":
		return "image/png"
	default:
		return "text/plain"
	}
}
