package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	sc "github.com/dmitrijs2005/chanakya/internal/server/config"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Export is a stored copy of an itinerary and a time-limited link to it.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService writes itineraries to S3-compatible storage.
type ExportService struct {
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewExportService(m repomanager.RepositoryManager, cfg *sc.Config, l logging.Logger) *ExportService {
	return &ExportService{repomanager: m, config: cfg, logger: l.With("module", "export")}
}

// ExportStorageKey returns exports/YYYY/MM/DD/<id>-<uuid>.json for the UTC
// date of at.
func ExportStorageKey(id string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%s-%v.json", at.UTC().Format("2006/01/02"), id, uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Export uploads the caller's itinerary as JSON and presigns a GET for it.
// It fails with common.ErrExportDisabled when no bucket is configured.
func (s *ExportService) Export(ctx context.Context, email, id string) (*Export, error) {
	if !s.config.ExportEnabled() {
		return nil, common.ErrExportDisabled
	}

	it, err := s.repomanager.Itineraries().Get(ctx, email, id)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(NewItineraryView(it), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := ExportStorageKey(it.ID, time.Now())

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	validity := s.config.ExportURLValidityDuration
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.logger.Info(ctx, "itinerary exported", "email", email, "itinerary_id", it.ID, "key", key)
	return &Export{Key: key, URL: req.URL, ExpiresAt: time.Now().UTC().Add(validity)}, nil
}
