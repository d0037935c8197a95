package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smart_travel/config"
	"smart_travel/internal/logger"
)

// Tham số kết nối MongoDB. Mongo chỉ giữ dữ liệu phụ trợ (tin nhắn chat-bot,
// log webhook thô) nên pool không cần lớn.
const (
	mongoMaxPoolSize    = 50
	mongoMinPoolSize    = 10
	mongoConnectTimeout = 5 * time.Second
	mongoSocketTimeout  = 10 * time.Second
)

// GetInstance mở kết nối MongoDB từ connection URI trong cấu hình và ping
// thử trước khi trả về client. URI trống là lỗi cấu hình, trả về ngay.
func GetInstance(c *config.Configuration) (*mongo.Client, error) {
	if c.MongoDB_ConnectionURI == "" {
		return nil, fmt.Errorf("thiếu MONGODB_CONNECTION_URI trong cấu hình")
	}

	opts := options.Client().ApplyURI(c.MongoDB_ConnectionURI).
		SetMaxPoolSize(mongoMaxPoolSize).
		SetMinPoolSize(mongoMinPoolSize).
		SetConnectTimeout(mongoConnectTimeout).
		SetSocketTimeout(mongoSocketTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("kết nối MongoDB thất bại: %w", err)
	}

	// Connect không chạm network với driver này, phải ping mới biết URI sống
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelPing()
	if err := client.Ping(ctxPing, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB thất bại: %w", err)
	}

	logger.GetAppLogger().Info("Đã kết nối MongoDB")
	return client, nil
}

// CloseInstance đóng kết nối MongoDB lúc shutdown
func CloseInstance(client *mongo.Client) error {
	if err := client.Disconnect(context.TODO()); err != nil {
		logger.GetAppLogger().WithError(err).Error("Ngắt kết nối MongoDB thất bại")
		return err
	}
	logger.GetAppLogger().Info("Đã ngắt kết nối MongoDB")
	return nil
}
