// Package autoload initializes the global logger from LOG_* environment
// variables on blank import.
package autoload

import (
	configx "github.com/shopchat-ai/shopchat/pkg/config"
	logx "github.com/shopchat-ai/shopchat/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init(logx.Config{})
		return
	}
	logx.Init(*conf)
}
