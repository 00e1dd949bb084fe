package configuration

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	UsersCollection         string `json:"usersCollection"`
	ConversationsCollection string `json:"conversationsCollection"`
	MessagesCollection      string `json:"messagesCollection"`
	ChatsCollection         string `json:"chatsCollection"`
	ReportsCollection       string `json:"reportsCollection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	JwtSecret string `json:"jwt_secret"`
}

type CloudinaryConfig struct {
	CloudName string `json:"cloud_name"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	Folder    string `json:"folder"`
}

type GeminiConfig struct {
	APIKeys []string `json:"api_keys"`
	Model   string   `json:"model"`
}

type Config struct {
	Mongo      MongoConfig      `json:"mongo"`
	Server     ServerConfig     `json:"server"`
	Auth       AuthConfig       `json:"auth"`
	Cloudinary CloudinaryConfig `json:"cloudinary"`
	Gemini     GeminiConfig     `json:"gemini"`
}

// LoadConfig reads the JSON config file, then overlays secrets from the
// environment (a .env file is loaded first when present). File values act as
// defaults; the environment wins.
func LoadConfig(configPath string) (*Config, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyEnv() {
	overlay(&c.Mongo.Uri, "MONGO_URI")
	overlay(&c.Auth.JwtSecret, "JWT_SECRET")
	overlay(&c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	overlay(&c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	overlay(&c.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")
	overlay(&c.Gemini.Model, "GEMINI_MODEL")

	if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
		c.Gemini.APIKeys = c.Gemini.APIKeys[:0]
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.Gemini.APIKeys = append(c.Gemini.APIKeys, k)
			}
		}
	}
}

func overlay(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
