package config

import "time"

// Default configuration values.
const (
	defaultMinDocLength   = 200
	defaultMaxDocLength   = 100000
	defaultTextProperty   = "ft"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultEndpointURL    = "https://os.zhdk.cloud.switch.ch/"
	defaultSchemaURI      = "https://impresso.github.io/impresso-schemas/json/linguistic_annotation/ling_spacy.schema.json"
	defaultAnnotateTout   = 120 * time.Second
	defaultAnnotateRate   = 8.0
	defaultAnnotateBurst  = 4
	defaultAnnotationAddr = "http://localhost:8065"
)

// Config holds all configuration for the pipeline.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Processing ProcessingConfig `yaml:"processing"`
	Annotation AnnotationConfig `yaml:"annotation"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
	File   string `env:"LOG_FILE"   yaml:"file"`
}

// StorageConfig holds the S3-compatible object-store settings. The SE_*
// variables match the credentials layout used across the corpus tooling.
type StorageConfig struct {
	EndpointURL string `env:"SE_HOST_URL"   yaml:"endpoint_url"`
	AccessKey   string `env:"SE_ACCESS_KEY" yaml:"access_key"`
	SecretKey   string `env:"SE_SECRET_KEY" yaml:"secret_key"`
	Region      string `yaml:"region"`
	UseSSL      bool   `yaml:"use_ssl"`
}

// ProcessingConfig holds admission and output settings.
type ProcessingConfig struct {
	// MinDocLength and MaxDocLength bound the combined title+body length;
	// both bounds are inclusive.
	MinDocLength int `yaml:"min_doc_length"`
	MaxDocLength int `yaml:"max_doc_length"`
	// TextProperty is the input JSON property holding the body text.
	TextProperty string `yaml:"text_property"`
	// SchemaURI locates the linguistic annotation schema for --validate.
	// A local file path is accepted for offline runs.
	SchemaURI string `env:"LINGPROC_SCHEMA_URI" yaml:"schema_uri"`
}

// AnnotationConfig holds the external annotation service settings.
type AnnotationConfig struct {
	// Endpoint is the base URL of the annotation service.
	Endpoint string `env:"LINGPROC_ANNOTATION_URL" yaml:"endpoint"`
	// Timeout bounds one annotation request.
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit caps annotation requests per second; Burst is the bucket size.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
	// Models maps a language code to the model identifier the service
	// should load for it. Languages absent from this map are unsupported.
	Models map[string]string `yaml:"models"`
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLogFormat
	}
	if cfg.Storage.EndpointURL == "" {
		cfg.Storage.EndpointURL = defaultEndpointURL
	}
	if cfg.Processing.MinDocLength == 0 {
		cfg.Processing.MinDocLength = defaultMinDocLength
	}
	if cfg.Processing.MaxDocLength == 0 {
		cfg.Processing.MaxDocLength = defaultMaxDocLength
	}
	if cfg.Processing.TextProperty == "" {
		cfg.Processing.TextProperty = defaultTextProperty
	}
	if cfg.Processing.SchemaURI == "" {
		cfg.Processing.SchemaURI = defaultSchemaURI
	}
	if cfg.Annotation.Endpoint == "" {
		cfg.Annotation.Endpoint = defaultAnnotationAddr
	}
	if cfg.Annotation.Timeout == 0 {
		cfg.Annotation.Timeout = defaultAnnotateTout
	}
	if cfg.Annotation.RateLimit == 0 {
		cfg.Annotation.RateLimit = defaultAnnotateRate
	}
	if cfg.Annotation.Burst == 0 {
		cfg.Annotation.Burst = defaultAnnotateBurst
	}
	if cfg.Annotation.Models == nil {
		cfg.Annotation.Models = map[string]string{
			"de": "de_core_news_md",
			"fr": "fr_core_news_md",
			"en": "en_core_web_md",
			"lb": "lb_model",
		}
	}
}
