package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server" comment:"HTTP服务配置"`
	Poller    PollerConfig    `yaml:"poller" mapstructure:"poller" comment:"站点轮询配置"`
	Inventory InventoryConfig `yaml:"inventory" mapstructure:"inventory" comment:"站点/设备清单"`
	Schemas   SchemaConfig    `yaml:"schemas" mapstructure:"schemas" comment:"指标名映射模式"`
	Log       ZapLogConfig    `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// ServerConfig HTTP服务配置（超时统一为time.Duration，支持"30s"解析）
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"HTTP_ADDR" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" env:"HTTP_READ_TIMEOUT" validate:"required,gt=0" comment:"读取超时时间（如30s）"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" env:"HTTP_WRITE_TIMEOUT" validate:"required,gt=0" comment:"写入超时时间（如30s）"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" validate:"required,gt=0" comment:"空闲连接超时时间（如60s）"`
}

// PollerConfig 轮询全局配置
// Interval 是固定的周期后间隔：上一轮结束后暂停 Interval 再开始下一轮，
// 慢站点会拉长实际采集周期（远端链路延迟大时属预期行为，不做固定周期补偿）
type PollerConfig struct {
	Interval  time.Duration `yaml:"interval" mapstructure:"interval" env:"POLL_INTERVAL" validate:"required,gt=0" comment:"周期间隔（cycle-end 到 cycle-start）" default:"60s"`
	HostStats bool          `yaml:"host_stats" mapstructure:"host_stats" env:"POLL_HOST_STATS" comment:"是否暴露采集端主机自身指标" default:"true"`
	Scrape    ScrapeConfig  `yaml:"scrape" mapstructure:"scrape" comment:"页面渲染采集配置"`
	SNMP      SNMPConfig    `yaml:"snmp" mapstructure:"snmp" comment:"SNMP采集配置"`
}

// ScrapeConfig 页面渲染采集器配置
type ScrapeConfig struct {
	WaitCeiling time.Duration `yaml:"wait_ceiling" mapstructure:"wait_ceiling" env:"SCRAPE_WAIT_CEILING" validate:"required,gt=0" comment:"渲染等待上限（远端链路慢，默认45s）" default:"45s"`
	TileClass   string        `yaml:"tile_class" mapstructure:"tile_class" env:"SCRAPE_TILE_CLASS" validate:"required" comment:"页面内容块CSS类名" default:"tile"`
}

// SNMPConfig SNMP采集器配置
type SNMPConfig struct {
	Community string        `yaml:"community" mapstructure:"community" env:"SNMP_COMMUNITY" validate:"required" comment:"SNMP community" default:"public"`
	Port      uint16        `yaml:"port" mapstructure:"port" env:"SNMP_PORT" validate:"required,gt=0" comment:"SNMP端口" default:"161"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout" env:"SNMP_TIMEOUT" validate:"required,gt=0" comment:"单次请求超时" default:"10s"`
	Retries   int           `yaml:"retries" mapstructure:"retries" env:"SNMP_RETRIES" validate:"gte=0,lte=10" comment:"重试次数" default:"2"`
}

// InventoryConfig 站点清单（启动时加载一次，运行期不变）
type InventoryConfig struct {
	Sites []SiteConfig `yaml:"sites" mapstructure:"sites" validate:"required,min=1,dive" comment:"站点列表（按序轮询）"`
}

// SiteConfig 单个站点
type SiteConfig struct {
	Name    string         `yaml:"name" mapstructure:"name" validate:"required" comment:"站点标识（指标名前缀）"`
	Devices []DeviceConfig `yaml:"devices" mapstructure:"devices" validate:"required,min=1,dive" comment:"设备列表（按序轮询）"`
}

// DeviceConfig 单个设备（kind 显式声明，不从命名推断）
type DeviceConfig struct {
	Name    string `yaml:"name" mapstructure:"name" validate:"required" comment:"设备标识"`
	Kind    string `yaml:"kind" mapstructure:"kind" validate:"required,oneof=scrape snmp" comment:"协议类型 [scrape,snmp]"`
	Address string `yaml:"address" mapstructure:"address" validate:"required" comment:"网络地址"`
}

// SchemaConfig 原始读数到规范指标名的映射模式
type SchemaConfig struct {
	Scrape ScrapeSchemaConfig `yaml:"scrape" mapstructure:"scrape" comment:"scrape 设备的有序后缀表"`
	SNMP   []OIDConfig        `yaml:"snmp" mapstructure:"snmp" validate:"dive" comment:"snmp 设备的有序OID表"`
}

// ScrapeSchemaConfig scrape 设备的位置映射：第 i 个值行对应第 i 个后缀
type ScrapeSchemaConfig struct {
	Suffixes []string `yaml:"suffixes" mapstructure:"suffixes" validate:"required,min=1" comment:"有序指标后缀"`
	Exclude  []string `yaml:"exclude" mapstructure:"exclude" comment:"排除的离散状态字段（如充电状态码）"`
}

// OIDConfig 一个可查询对象：声明名 + 点分数字OID
type OIDConfig struct {
	Name string `yaml:"name" mapstructure:"name" validate:"required" comment:"指标后缀"`
	OID  string `yaml:"oid" mapstructure:"oid" validate:"required" comment:"点分数字OID（如 .1.3.6.1.4.1...）"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal" comment:"日志级别" default:"info"`
	Format    string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" comment:"日志格式（json/console）" default:"json"`
	Path      string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" comment:"日志存储路径" default:"./logs"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" env:"LOG_MAX_SIZE" validate:"required,gt=0" comment:"单个日志文件最大大小（MB）" default:"100"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" env:"LOG_MAX_BACKUP" validate:"required,gte=0" comment:"日志文件最大备份数" default:"30"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" env:"LOG_MAX_AGE" validate:"required,gte=0" comment:"日志文件最大保存天数" default:"7"`
	Compress  bool   `yaml:"compress" mapstructure:"compress" env:"LOG_COMPRESS" comment:"是否压缩过期日志" default:"true"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "0.0.0.0:9205",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Poller: PollerConfig{
			Interval:  60 * time.Second,
			HostStats: true,
			Scrape: ScrapeConfig{
				WaitCeiling: 45 * time.Second,
				TileClass:   "tile",
			},
			SNMP: SNMPConfig{
				Community: "public",
				Port:      161,
				Timeout:   10 * time.Second,
				Retries:   2,
			},
		},
		Inventory: InventoryConfig{},
		Schemas:   SchemaConfig{},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "json",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 30,
			MaxAge:    7,
			Compress:  true,
		},
	}
}

// LoadConfigWithCli 支持 time.Duration，(Flags + YAML + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	// 2. 解析配置文件 (--config)
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 绑定环境变量 ENV -> Viper （HTTP_ADDR -> http.addr）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("_", "."))

	// 4. 解码反序列化到结构体（支持 time.Duration）
	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 5. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	// 	1,校验Server服务配置
	if err := c.Server.Validate(); err != nil {
		return err
	}
	// 	2，校验轮询配置
	if err := c.Poller.Validate(); err != nil {
		return err
	}
	// 	3，校验清单与映射模式（二者互相约束，一起校验）
	if err := c.Inventory.Validate(&c.Schemas); err != nil {
		return err
	}
	// 	4，校验日志配置
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
