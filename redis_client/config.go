package redis_client

import (
	"net"
	"time"
)

type Config struct {
	Host        string        `mapstructure:"host" json:"host" yaml:"host" default:"127.0.0.1"`
	Port        string        `mapstructure:"port" json:"port" yaml:"port" default:"6379"`
	Password    string        `mapstructure:"password" json:"password" yaml:"password"`
	DB          int           `mapstructure:"db" json:"db" yaml:"db"`
	PoolSize    int           `mapstructure:"pool-size" json:"poolSize" yaml:"pool-size"`
	DialTimeout time.Duration `mapstructure:"dial-timeout" json:"dialTimeout" yaml:"dial-timeout" default:"3s"`
}

// Addr joins host and port, bracketing IPv6 hosts.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
