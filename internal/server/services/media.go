package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	sc "github.com/localbizsite/localbiz/internal/server/config"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/timex"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// imageTypes maps accepted upload content types to key extensions.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadURL is a presigned PUT target for one listing image.
type UploadURL struct {
	Key         string
	URL         string
	ContentType string
	ExpiresAt   time.Time
}

// MediaService signs direct-to-bucket uploads for listing images.
type MediaService struct {
	config     *sc.Config
	businesses *BusinessService
	clock      timex.Clock
	logger     logging.Logger
}

func NewMediaService(cfg *sc.Config, businesses *BusinessService, clock timex.Clock, logger logging.Logger) *MediaService {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &MediaService{config: cfg, businesses: businesses, clock: clock, logger: logger.With("module", "media")}
}

// StorageKey builds a collision-free object key for a business image.
func StorageKey(businessID string, now time.Time, ext string) string {
	return fmt.Sprintf("businesses/%s/%d/%02d/%s%s", businessID, now.Year(), now.Month(), uuid.New(), ext)
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// ImageUploadURL returns a presigned PUT URL for a new image of the given
// business. Only the owner or an admin may request one.
func (s *MediaService) ImageUploadURL(ctx context.Context, actor *models.Account, businessID, contentType string) (*UploadURL, error) {
	if !s.config.S3Enabled() {
		return nil, common.ErrStorageDisabled
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := imageTypes[contentType]
	if !ok {
		verr := &auth.ValidationError{}
		verr.Add("contentType", auth.CodeInvalidValue, "contentType must be image/jpeg, image/png, image/webp or image/gif")
		return nil, verr
	}

	b, err := s.businesses.managed(ctx, actor, businessID)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, s.internal(ctx, "s3 client init failed", err)
	}

	now := s.clock.Now()
	bucket := s.config.S3Bucket
	key := StorageKey(b.ID, now, ext)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(s.config.UploadURLTTL))
	if err != nil {
		return nil, s.internal(ctx, "presign failed", err)
	}

	return &UploadURL{Key: key, URL: req.URL, ContentType: contentType, ExpiresAt: now.Add(s.config.UploadURLTTL)}, nil
}

func (s *MediaService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
