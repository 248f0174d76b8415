package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// SessionSnapshot is the immutable record written to object storage when a
// session reaches a terminal phase. It keeps the full map and objective
// JSON so disputes can be replayed after the database rows are trimmed.
type SessionSnapshot struct {
	Session      *model.MissionSession     `json:"session"`
	Participants []model.MissionParticipant `json:"participants"`
	ArchivedAt   time.Time                 `json:"archived_at"`
}

// ArchiveService stores terminal session snapshots in object storage.
type ArchiveService struct {
	appContext.DefaultService
	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
}

const ARCHIVE_SVC = "archive_svc"

func (svc ArchiveService) Id() string {
	return ARCHIVE_SVC
}

func (svc *ArchiveService) Configure(ctx *appContext.Context) error {
	svc.endpoint = os.Getenv("MINIO_ENDPOINT")
	if svc.endpoint == "" {
		svc.endpoint = "localhost:9000"
	}

	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	if svc.accessKey == "" {
		svc.accessKey = "admin"
	}

	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	if svc.secretKey == "" {
		svc.secretKey = "password123"
	}

	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucketName = os.Getenv("MINIO_BUCKET_NAME")
	if svc.bucketName == "" {
		svc.bucketName = "sortie-archive"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *ArchiveService) Start() error {
	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}

	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	log.Printf("Archive service started successfully with endpoint: %s", svc.endpoint)
	return nil
}

func (svc *ArchiveService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("Created MinIO bucket: %s", svc.bucketName)
	}

	return nil
}

// ArchiveSession writes the snapshot asynchronously. Archival is
// best-effort and never blocks or fails the terminal transition itself.
func (svc *ArchiveService) ArchiveSession(session *model.MissionSession, participants []model.MissionParticipant) {
	if svc.client == nil {
		return
	}
	go func() {
		if err := svc.archiveSession(session, participants); err != nil {
			log.WithError(err).WithField("session_id", session.ID).Error("Failed to archive session")
		}
	}()
}

func (svc *ArchiveService) archiveSession(session *model.MissionSession, participants []model.MissionParticipant) error {
	snapshot := SessionSnapshot{
		Session:      session,
		Participants: participants,
		ArchivedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}

	objectName := svc.objectName(session)
	ctx := context.Background()

	_, err = svc.client.PutObject(ctx, svc.bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot to MinIO: %v", err)
	}

	log.WithField("session_id", session.ID).WithField("object", objectName).Info("Session archived")
	return nil
}

func (svc *ArchiveService) objectName(session *model.MissionSession) string {
	endedAt := time.Unix(session.EndedTick, 0).UTC()
	return fmt.Sprintf("sessions/%s/%s.json", endedAt.Format("2006/01"), session.ID)
}

// GetSnapshot loads an archived session back from object storage.
func (svc *ArchiveService) GetSnapshot(session *model.MissionSession) (*SessionSnapshot, error) {
	ctx := context.Background()

	obj, err := svc.client.GetObject(ctx, svc.bucketName, svc.objectName(session), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %v", err)
	}
	defer obj.Close()

	var snapshot SessionSnapshot
	if err := json.NewDecoder(obj).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %v", err)
	}

	return &snapshot, nil
}

// SnapshotURL returns a presigned download link for an archived session.
func (svc *ArchiveService) SnapshotURL(session *model.MissionSession, expiry time.Duration) (string, error) {
	ctx := context.Background()

	presignedURL, err := svc.client.PresignedGetObject(ctx, svc.bucketName, svc.objectName(session), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %v", err)
	}

	return presignedURL.String(), nil
}
