package main

import (
	"fmt"

	"fantasy-backend/internal/common"
)

// LoadConfig 读取配置并初始化日志
func LoadConfig() (*common.Config, error) {
	config, err := common.LoadConfig(common.DefaultConfigPath())
	if err != nil {
		return nil, err
	}
	if err := common.InitLogger(config.Log.Level, config.Log.File); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return config, nil
}
