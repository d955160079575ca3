package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local"`
	Commands struct {
		Path string `yaml:"path" env-default:"commands"`
	} `yaml:"commands"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"OrbitCSBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	OpenAI struct {
		ApiKey         string `yaml:"api_key" env-default:""`
		EmbeddingModel string `yaml:"embedding_model" env-default:"text-embedding-3-small"`
		Enabled        bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"openai"`
	Matcher struct {
		Strategy string `yaml:"strategy" env-default:"blended"`
	} `yaml:"matcher"`
	Backend struct {
		BaseURL   string `yaml:"base_url" env-default:""`
		LoginPath string `yaml:"login_path" env-default:"/authentificate"`
	} `yaml:"backend"`
	Mongo struct {
		Enabled        bool   `yaml:"enabled" env-default:"false"`
		PersistDialogs bool   `yaml:"persist_dialogs" env-default:"false"`
		Host           string `yaml:"host" env-default:"127.0.0.1"`
		Port           string `yaml:"port" env-default:"27017"`
		User           string `yaml:"user" env-default:"admin"`
		Password       string `yaml:"password" env-default:"pass"`
		Database       string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9100"`
		ApiKey string `yaml:"key" env-default:""`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
