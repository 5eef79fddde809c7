package aws

import (
	"bytes"
	"context"
	"fmt"
	"path"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const reportPrefix = "reports"

// PutObjectAPI is the subset of the S3 client used by the archiver
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchiver stores raw match reports in S3
type ReportArchiver struct {
	client PutObjectAPI
	bucket string
}

func NewReportArchiver(client PutObjectAPI, bucket string) *ReportArchiver {
	return &ReportArchiver{client: client, bucket: bucket}
}

// ReportKey returns the object key for a match report
func ReportKey(scope, matchID string) string {
	return path.Join(reportPrefix, scope, matchID+".json")
}

// Archive writes the report body. It does nothing when no bucket is configured.
func (a *ReportArchiver) Archive(ctx context.Context, scope, matchID string, body []byte) error {
	if a.bucket == "" || a.client == nil {
		return nil
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(a.bucket),
		Key:         awssdk.String(ReportKey(scope, matchID)),
		Body:        bytes.NewReader(body),
		ContentType: awssdk.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive report %s: %w", matchID, err)
	}
	return nil
}
