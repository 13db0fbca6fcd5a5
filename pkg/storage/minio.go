// Package storage 封装了与 MinIO 对象存储交互的客户端。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"yedam-go/internal/config"
	"yedam-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client 封装 MinIO 客户端和存储桶信息。
type Client struct {
	mc            *minio.Client
	bucketName    string
	publicBaseURL string
}

// NewClient 根据全局配置初始化 MinIO 客户端，并确保存储桶存在。
func NewClient() (*Client, error) {
	cfg := config.Conf.MinIO

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	ctx := context.Background()
	exists, err := mc.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		log.Infof("created bucket %s", cfg.BucketName)
	}

	return &Client{
		mc:            mc,
		bucketName:    cfg.BucketName,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload 将字节数据上传到对象存储，返回可公开访问的 URL。
func (c *Client) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := c.mc.PutObject(ctx, c.bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
	}
	return c.URLFor(objectName), nil
}

// Remove 删除指定对象。对象不存在时 MinIO 视为成功。
func (c *Client) Remove(ctx context.Context, objectName string) error {
	return c.mc.RemoveObject(ctx, c.bucketName, objectName, minio.RemoveObjectOptions{})
}

// URLFor 拼接对象的公开访问 URL。
func (c *Client) URLFor(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucketName, objectName)
}
