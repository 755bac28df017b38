package service

import "github.com/lk2023060901/hestia-go/pkg/logger"

func field(key string, value any) logger.Field {
	return logger.Field{Key: key, Value: value}
}
