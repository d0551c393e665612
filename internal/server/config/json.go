package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/dmitrijs2005/shopauth/internal/timex"
)

// JsonConfig is the JSON file representation of Config. Duration fields use
// timex.Duration so they accept both "10m" strings and integer nanoseconds.
type JsonConfig struct {
	HTTPAddr     string `json:"http_addr"`
	GRPCAddr     string `json:"grpc_addr"`
	CookieSecure bool   `json:"cookie_secure"`

	StorageBackend string `json:"storage_backend"`
	DatabaseDSN    string `json:"database_dsn"`
	MongoURI       string `json:"mongo_uri"`
	MongoDatabase  string `json:"mongo_database"`

	SecretKey                    string         `json:"secret_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`

	RegistryBackend       string         `json:"registry_backend"`
	VerificationCodeTTL   timex.Duration `json:"verification_code_ttl"`
	RegistrySweepInterval timex.Duration `json:"registry_sweep_interval"`
	RedisAddr             string         `json:"redis_addr"`
	RedisPassword         string         `json:"redis_password"`
	RedisDB               int            `json:"redis_db"`

	MailBackend        string         `json:"mail_backend"`
	MailFrom           string         `json:"mail_from"`
	MailFromName       string         `json:"mail_from_name"`
	SiteName           string         `json:"site_name"`
	SMTPHost           string         `json:"smtp_host"`
	SMTPPort           int            `json:"smtp_port"`
	SMTPUsername       string         `json:"smtp_username"`
	SMTPPassword       string         `json:"smtp_password"`
	SMTPUseSSL         bool           `json:"smtp_use_ssl"`
	SMTPTimeout        timex.Duration `json:"smtp_timeout"`
	SESRegion          string         `json:"ses_region"`
	SESAccessKeyID     string         `json:"ses_access_key_id"`
	SESSecretAccessKey string         `json:"ses_secret_access_key"`
	SESBaseEndpoint    string         `json:"ses_base_endpoint"`

	GoogleClientID string `json:"google_client_id"`

	AMQPURL      string `json:"amqp_url"`
	AMQPExchange string `json:"amqp_exchange"`
	OTLPEndpoint string `json:"otlp_endpoint"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                     c.HTTPAddr,
		GRPCAddr:                     c.GRPCAddr,
		CookieSecure:                 c.CookieSecure,
		StorageBackend:               c.StorageBackend,
		DatabaseDSN:                  c.DatabaseDSN,
		MongoURI:                     c.MongoURI,
		MongoDatabase:                c.MongoDatabase,
		SecretKey:                    c.SecretKey,
		SessionTokenValidityDuration: timex.Duration{Duration: c.SessionTokenValidityDuration},
		RegistryBackend:              c.RegistryBackend,
		VerificationCodeTTL:          timex.Duration{Duration: c.VerificationCodeTTL},
		RegistrySweepInterval:        timex.Duration{Duration: c.RegistrySweepInterval},
		RedisAddr:                    c.RedisAddr,
		RedisPassword:                c.RedisPassword,
		RedisDB:                      c.RedisDB,
		MailBackend:                  c.MailBackend,
		MailFrom:                     c.MailFrom,
		MailFromName:                 c.MailFromName,
		SiteName:                     c.SiteName,
		SMTPHost:                     c.SMTPHost,
		SMTPPort:                     c.SMTPPort,
		SMTPUsername:                 c.SMTPUsername,
		SMTPPassword:                 c.SMTPPassword,
		SMTPUseSSL:                   c.SMTPUseSSL,
		SMTPTimeout:                  timex.Duration{Duration: c.SMTPTimeout},
		SESRegion:                    c.SESRegion,
		SESAccessKeyID:               c.SESAccessKeyID,
		SESSecretAccessKey:           c.SESSecretAccessKey,
		SESBaseEndpoint:              c.SESBaseEndpoint,
		GoogleClientID:               c.GoogleClientID,
		AMQPURL:                      c.AMQPURL,
		AMQPExchange:                 c.AMQPExchange,
		OTLPEndpoint:                 c.OTLPEndpoint,
		LogLevel:                     c.LogLevel,
		LogFormat:                    c.LogFormat,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.GRPCAddr = j.GRPCAddr
	c.CookieSecure = j.CookieSecure
	c.StorageBackend = j.StorageBackend
	c.DatabaseDSN = j.DatabaseDSN
	c.MongoURI = j.MongoURI
	c.MongoDatabase = j.MongoDatabase
	c.SecretKey = j.SecretKey
	c.SessionTokenValidityDuration = j.SessionTokenValidityDuration.Duration
	c.RegistryBackend = j.RegistryBackend
	c.VerificationCodeTTL = j.VerificationCodeTTL.Duration
	c.RegistrySweepInterval = j.RegistrySweepInterval.Duration
	c.RedisAddr = j.RedisAddr
	c.RedisPassword = j.RedisPassword
	c.RedisDB = j.RedisDB
	c.MailBackend = j.MailBackend
	c.MailFrom = j.MailFrom
	c.MailFromName = j.MailFromName
	c.SiteName = j.SiteName
	c.SMTPHost = j.SMTPHost
	c.SMTPPort = j.SMTPPort
	c.SMTPUsername = j.SMTPUsername
	c.SMTPPassword = j.SMTPPassword
	c.SMTPUseSSL = j.SMTPUseSSL
	c.SMTPTimeout = j.SMTPTimeout.Duration
	c.SESRegion = j.SESRegion
	c.SESAccessKeyID = j.SESAccessKeyID
	c.SESSecretAccessKey = j.SESSecretAccessKey
	c.SESBaseEndpoint = j.SESBaseEndpoint
	c.GoogleClientID = j.GoogleClientID
	c.AMQPURL = j.AMQPURL
	c.AMQPExchange = j.AMQPExchange
	c.OTLPEndpoint = j.OTLPEndpoint
	c.LogLevel = j.LogLevel
	c.LogFormat = j.LogFormat
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flag into config. Keys missing from the file keep the values
// config already holds. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}
