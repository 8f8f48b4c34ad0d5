package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const signedURLTTL = 15 * time.Minute

// Minio stocke les blobs (preuves de paiement, images produit) dans un
// bucket MinIO.
type Minio struct {
	client *minio.Client
	bucket string
}

func ConnectMinio(ctx context.Context) (*Minio, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connexion MinIO : %w", err)
	}

	bucket := os.Getenv("MINIO_BUCKET")
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket MinIO : %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket MinIO : %w", err)
		}
		log.Println("🪣 Bucket créé :", bucket)
	}

	log.Println("✅ Connecté à MinIO :", endpoint)
	return &Minio{client: client, bucket: bucket}, nil
}

func (m *Minio) Put(ctx context.Context, ref string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, ref, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s : %w", ref, err)
	}
	return nil
}

func (m *Minio) Get(ctx context.Context, ref string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("lecture %s : %w", ref, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("lecture %s : %w", ref, err)
	}
	return data, nil
}

// URL génère un lien signé à durée limitée pour consultation.
func (m *Minio) URL(ctx context.Context, ref string) (string, error) {
	presigned, err := m.client.PresignedGetObject(ctx, m.bucket, ref, signedURLTTL, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("URL signée %s : %w", ref, err)
	}
	return presigned.String(), nil
}
