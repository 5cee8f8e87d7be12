package config

import (
	"os"
	"strings"
	"time"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
)

type Config struct {
	AppConfig   AppConfig   `env:"APPCONFIG"`
	IRCConfig   IRCConfig   `env:"IRCCONFIG"`
	DBConfig    DBConfig    `env:"DBCONFIG"`
	RedisConfig RedisConfig `env:"REDISCONFIG"`
	BotConfig   BotConfig   `env:"BOTCONFIG"`
}

type AppConfig struct {
	APPName string `default:"beezlebot"`
	Version string `default:"x.x.x" env:"VERSION"`
	Port    int    `default:"8080" env:"APP_PORT"`
}

type IRCConfig struct {
	Host             string `env:"HOST"`
	Port             int    `env:"PORT"`
	SSL              bool   `env:"SSL"`
	Nick             string `env:"NICK"`
	ChannelsString   string `env:"CHANNELS"`
	Channels         []string
	Network          string `env:"NETWORK"`
	NickservCommand  string `env:"NICKSERV_COMMAND" default:"PRIVMSG NickServ IDENTIFY %s"`
	NickservPassword string `env:"NICKSERV_PASSWORD" default:""`
}

type DBConfig struct {
	Host     string `default:"localhost" env:"DBHOST"`
	DataBase string `default:"beezlebot" env:"DBNAME"`
	User     string `default:"postgres" env:"DBUSERNAME"`
	Password string `required:"true" env:"DBPASSWORD" default:"mysecretpassword"`
	Port     uint   `default:"5432" env:"DBPORT"`
	SSLMode  string `default:"disable" env:"DBSSL"`
}

type RedisConfig struct {
	URI string `default:"redis://localhost:6379/0" env:"REDIS_URI"`
}

// BotConfig holds the relationship policy knobs.
type BotConfig struct {
	DerelictDays          int    `default:"10" env:"DERELICT_DAYS"`
	DeleteDays            int    `default:"93" env:"DELETE_DAYS"`
	RequestTimeoutSeconds int    `default:"60" env:"REQUEST_TIMEOUT_SECONDS"`
	SweepHour             int    `default:"2" env:"SWEEP_HOUR"`
	DateFormat            string `default:"02 Jan 2006" env:"DATE_FORMAT"`
}

func (b BotConfig) DerelictTime() time.Duration {
	return time.Duration(b.DerelictDays) * 24 * time.Hour
}

func (b BotConfig) DeleteTime() time.Duration {
	return time.Duration(b.DeleteDays) * 24 * time.Hour
}

func (b BotConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutSeconds) * time.Second
}

func LoadConfigOrPanic() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	var config = Config{}
	configor.Load(&config, "config/config.dev.json")

	config.IRCConfig.Channels = strings.Split(config.IRCConfig.ChannelsString, ",")

	return config
}
