// Command captchad serves captcha challenges over HTTP.
//
// Configuration is read from $CONFIG_PATH (default ./config) using the
// layered config.yaml / config.<mode>.yaml files, with GO_ENV_MODE picking
// the mode and CAPTCHAD_* environment variables overriding file values.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leeforge/captchakit/config"
	"github.com/leeforge/captchakit/logging"
	"go.uber.org/zap"
)

const envPrefix = "CAPTCHAD"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 分组配置只在启动时解析，文件变更时只热更新限流参数
	reload := &hotReload{}
	opts := config.DefaultOptions()
	opts.EnvPrefix = envPrefix
	opts.OnChange = reload.onChange

	cfg, raw, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := logging.Init(cfg.Log)
	defer func() { _ = logging.Sync() }()
	logging.Info("captchad starting",
		zap.String("mode", string(config.Mode())),
		zap.Strings("config_files", raw.Files()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logging.Error("startup failed", zap.Error(err))
		return err
	}
	reload.attach(raw, app.limiter, logger)
	return app.Run(ctx)
}
