package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type PipedriveConfig struct {
	APIToken     string
	Domain       string
	OwnerID      int
	RateProfile  string
	FieldMapPath string
}

type PipelinesConfig struct {
	SDR           int
	Negotiation   int
	Formalization int
	Judicial      int

	StageNewCollections  int
	StageStartCollection int

	// StageStartCollectionAlt is a reserved second entry stage for deal
	// reopening; nothing routes to it automatically yet.
	StageStartCollectionAlt int

	// Stages that keep a deal alive during removal even when the debtor
	// left the bank file (boleto sent, payment pending, agreement running).
	ExceptionStages []int

	LostReason string
}

type FoldersConfig struct {
	Input     string
	Guarantee string
	Backup    string
	Export    string
	Logs      string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled     bool
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

type AppConfig struct {
	Port   string
	APIKey string

	// ExternalURL prefixes download links when the API sits behind a
	// reverse proxy. Empty keeps the links relative.
	ExternalURL string

	Pipedrive PipedriveConfig
	Pipelines PipelinesConfig
	Folders   FoldersConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	S3        S3Config

	WatchDebounce       int
	BackupRetentionDays int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustAtoiList(s string) []int {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, mustAtoi(p))
	}
	return out
}

func Load() AppConfig {
	return AppConfig{
		Port:        getenv("APP_PORT", "8010"),
		APIKey:      getenv("APP_API_KEY", ""),
		ExternalURL: getenv("APP_EXTERNAL_URL", ""),
		Pipedrive: PipedriveConfig{
			APIToken:     getenv("PIPEDRIVE_API_TOKEN", ""),
			Domain:       getenv("PIPEDRIVE_DOMAIN", "grupoouroverde"),
			OwnerID:      mustAtoi(getenv("PIPEDRIVE_OWNER_ID", "23104380")),
			RateProfile:  getenv("PIPEDRIVE_RATE_PROFILE", "auto"),
			FieldMapPath: getenv("PIPEDRIVE_FIELD_MAP", "fields.yaml"),
		},
		Pipelines: PipelinesConfig{
			SDR:                     mustAtoi(getenv("PIPELINE_SDR", "14")),
			Negotiation:             mustAtoi(getenv("PIPELINE_NEGOTIATION", "15")),
			Formalization:           mustAtoi(getenv("PIPELINE_FORMALIZATION", "17")),
			Judicial:                mustAtoi(getenv("PIPELINE_JUDICIAL", "3")),
			StageNewCollections:     mustAtoi(getenv("STAGE_NEW_COLLECTIONS", "110")),
			StageStartCollection:    mustAtoi(getenv("STAGE_START_COLLECTION", "115")),
			StageStartCollectionAlt: mustAtoi(getenv("STAGE_START_COLLECTION_ALT", "208")),
			ExceptionStages:         mustAtoiList(getenv("STAGES_EXCEPTION", "124,173,176,174")),
			LostReason:              getenv("LOST_REASON", "Não consta mais no TXT do banco"),
		},
		Folders: FoldersConfig{
			Input:     getenv("FOLDER_INPUT", "arquivos"),
			Guarantee: getenv("FOLDER_GUARANTEE", "garantinorte"),
			Backup:    getenv("FOLDER_BACKUP", "backup"),
			Export:    getenv("FOLDER_EXPORT", "exports"),
			Logs:      getenv("FOLDER_LOGS", "logs"),
		},
		SQLite: SQLiteConfig{
			Path: getenv("SQLITE_PATH", "dados/devedores.db"),
		},
		Redis: RedisConfig{
			Enabled:     mustBool(getenv("REDIS_ENABLED", "false")),
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "pipedrive_sync_"),
		},
		S3: S3Config{
			Enabled:         mustBool(getenv("S3_ENABLED", "false")),
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "backups"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
		},
		WatchDebounce:       mustAtoi(getenv("WATCH_DEBOUNCE_SECONDS", "5")),
		BackupRetentionDays: mustAtoi(getenv("BACKUP_RETENTION_DAYS", "30")),
	}
}
