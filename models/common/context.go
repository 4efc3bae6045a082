package common

import (
	ctx "context"

	"github.com/citypulse/media-services/network"
	"github.com/citypulse/media-services/util/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/op/go-logging"
)

// Context is the explicitly constructed client bundle passed into the
// pipeline entry points. Building it once and injecting it everywhere
// lets tests substitute fakes for the stores.
type Context struct {
	Config      *Config
	Logger      *logging.Logger
	NSQClient   *network.NSQClient
	RedisClient *network.RedisClient
	S3Client    *minio.Client
	S3Store     *network.S3Store
}

func NewContext() *Context {
	config := NewConfig()
	_logger := getLogger(config)
	s3Client := getS3Client(config)
	return &Context{
		Config:      config,
		Logger:      _logger,
		NSQClient:   getNsqClient(config),
		RedisClient: getRedisClient(config),
		S3Client:    s3Client,
		S3Store:     network.NewS3Store(s3Client),
	}
}

func getLogger(config *Config) *logging.Logger {
	_logger, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return _logger
}

func getNsqClient(config *Config) *network.NSQClient {
	return network.NewNSQClient(config.NsqURL)
}

func getRedisClient(config *Config) *network.RedisClient {
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}

func getS3Client(config *Config) *minio.Client {
	client, err := minio.New(
		config.S3Credentials.Host,
		&minio.Options{
			Creds:  credentials.NewStaticV4(config.S3Credentials.KeyID, config.S3Credentials.SecretKey, ""),
			Secure: config.UseSSL,
		})
	if err != nil {
		panic(err)
	}
	return client
}

func (context *Context) S3StatObject(bucket, key string) (minio.ObjectInfo, error) {
	return context.S3Client.StatObject(ctx.Background(), bucket, key, minio.StatObjectOptions{})
}

func (context *Context) S3GetObject(bucket, key string) (*minio.Object, error) {
	return context.S3Client.GetObject(ctx.Background(), bucket, key, minio.GetObjectOptions{})
}
