package main

import (
	"os"

	"github.com/GrainArc/GeoObjectServer/config"
	"github.com/GrainArc/GeoObjectServer/logger"
	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/GrainArc/GeoObjectServer/routers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "geoserver",
		Short: "地理对象管理服务",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.xml", "配置文件路径(.xml/.yaml)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				logger.Init("info", nil)
				log.Warn().Err(err).Msg("配置文件读取失败，使用默认配置")
				config.Apply(cfg)
			} else {
				logger.Init(cfg.LogLevel, nil)
			}

			if err := models.InitDB(config.Driver, config.DSN, config.MainConfig.DBDebug); err != nil {
				return err
			}

			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			r := routers.NewEngine(models.GetDB(), logger.GinLogger())
			log.Info().Str("addr", config.MainRouter).Msg("服务启动")
			return r.Run(config.MainRouter)
		},
	}

	root.AddCommand(serve)
	return root
}
