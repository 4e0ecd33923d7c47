// Package weights implements the "Nexus" weight-blob store client: a
// blocking S3-backed fetch/store keyed by run_id, with a read-through
// local disk cache so repeated boots don't pay network latency for
// weights that never change.
package weights

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrWeightsNotFound is returned by Load when no artifact exists for the
// given run_id, neither on disk nor at the remote.
var ErrWeightsNotFound = errors.New("weights: not found")

// ErrWeightsTransport wraps any other failure talking to the remote
// store.
var ErrWeightsTransport = errors.New("weights: transport error")

// Store is the contract consumed by the detector registry.
type Store interface {
	Load(ctx context.Context, runID uuid.UUID) ([]byte, error)
	Store(ctx context.Context, runID uuid.UUID, data []byte) error
}

// Config configures a NexusClient.
type Config struct {
	Endpoint     string // non-empty for S3-compatible stores other than AWS
	Bucket       string
	Token        string // WEIGHTS_STORE.TOKEN, used as the access key id
	Project      string // WEIGHTS_STORE.PROJECT, used as the secret key
	Region       string
	UsePathStyle bool
	CacheDir     string // defaults to "./cache" when empty
}

// NexusClient is the S3-backed Store implementation.
type NexusClient struct {
	client   *s3.Client
	bucket   string
	cacheDir string
}

// NewNexusClient builds a NexusClient and ensures its cache directory
// exists.
func NewNexusClient(ctx context.Context, cfg Config) (*NexusClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("weights: empty bucket name")
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "./cache"
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, fmt.Errorf("weights: create cache dir: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Token, cfg.Project, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("weights: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &NexusClient{client: client, bucket: cfg.Bucket, cacheDir: cacheDir}, nil
}

func (n *NexusClient) cachePath(runID uuid.UUID) string {
	return filepath.Join(n.cacheDir, fmt.Sprintf("weights-run-%s.bin", runID))
}

// Load blocks until it returns the weight blob for runID, reading from
// the local disk cache first. A cache hit never touches the network.
func (n *NexusClient) Load(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	if data, err := os.ReadFile(n.cachePath(runID)); err == nil {
		return data, nil
	}

	key := runID.String()
	result, err := n.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: run_id %s", ErrWeightsNotFound, runID)
		}
		return nil, fmt.Errorf("%w: get object %q: %v", ErrWeightsTransport, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body %q: %v", ErrWeightsTransport, key, err)
	}

	if err := n.writeCache(runID, data); err != nil {
		log.Warnf("weights: failed to cache run_id %s: %v", runID, err)
	}

	return data, nil
}

// Store blocks until data has been uploaded and overwritten at the
// remote, then updates the local cache to match.
func (n *NexusClient) Store(ctx context.Context, runID uuid.UUID, data []byte) error {
	_, err := n.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(runID.String()),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: put object %q: %v", ErrWeightsTransport, runID, err)
	}
	return n.writeCache(runID, data)
}

func (n *NexusClient) writeCache(runID uuid.UUID, data []byte) error {
	return os.WriteFile(n.cachePath(runID), data, 0o640)
}
