package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// 127.0.0.1:8426
var MainRouter string
var DSN string
var Driver string
var MainConfig Config

type Config struct {
	XMLName    xml.Name `xml:"config" yaml:"-"`
	MainRouter string   `xml:"MainRouter" yaml:"main_router"`
	Driver     string   `xml:"driver" yaml:"driver"` // postgres / sqlite
	Dbname     string   `xml:"dbname" yaml:"dbname"`
	Host       string   `xml:"host" yaml:"host"`
	Port       string   `xml:"port" yaml:"port"`
	Username   string   `xml:"user" yaml:"user"`
	Password   string   `xml:"password" yaml:"password"`
	SQLitePath string   `xml:"sqlite" yaml:"sqlite"`
	LogLevel   string   `xml:"loglevel" yaml:"log_level"`
	DBDebug    bool     `xml:"dbdebug" yaml:"db_debug"`
}

// Default 默认配置，本地sqlite
func Default() Config {
	return Config{
		MainRouter: "127.0.0.1:8426",
		Driver:     "sqlite",
		SQLitePath: "geoobject.db",
		LogLevel:   "info",
	}
}

// LoadConfig 读取配置文件，.xml 或 .yaml/.yml
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".xml":
		err = xml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("不支持的配置文件格式: %s", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("解析配置文件失败: %w", err)
	}

	switch cfg.Driver {
	case "":
		cfg.Driver = "sqlite"
	case "postgres", "sqlite":
	default:
		return cfg, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
	Apply(cfg)
	return cfg, nil
}

// Apply 写入全局配置
func Apply(cfg Config) {
	MainConfig = cfg
	MainRouter = cfg.MainRouter
	Driver = cfg.Driver
	DSN = cfg.DSN()
}

// DSN 按驱动生成连接串
func (c Config) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", c.Host, c.Username, c.Password, c.Dbname, c.Port)
	default:
		return c.SQLitePath
	}
}
