package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/zotexmedia/verification/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	Redis RedisConfig `json:"redis"`

	SentryDSN  string `json:"-"`
	AdminToken string `json:"-"`

	// Classifier knobs
	DefaultPolicy string        `json:"default_policy"` // strict or lenient
	VerifyWorkers int           `json:"verify_workers"`
	HELODomain    string        `json:"helo_domain"`
	SMTPProbePort int           `json:"smtp_probe_port"`
	SMTPTimeout   time.Duration `json:"smtp_timeout"`
	DNSTimeout    time.Duration `json:"dns_timeout"`
	BlocklistZone string        `json:"blocklist_zone"`
	WHOISEnabled  bool          `json:"whois_enabled"`

	// Reference-list feeds
	DisposableListURL string        `json:"disposable_list_url"`
	RoleListURL       string        `json:"role_list_url"`
	TypoListURL       string        `json:"typo_list_url"`
	ListRefreshTTL    time.Duration `json:"list_refresh_ttl"`
	ListFetchTimeout  time.Duration `json:"list_fetch_timeout"`

	RateLimitVerify int `json:"rate_limit_verify"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "verification"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		SentryDSN:  getEnv("SENTRY_DSN", ""),
		AdminToken: getEnv("ADMIN_TOKEN", ""),

		DefaultPolicy: getEnv("VERIFY_DEFAULT_POLICY", "strict"),
		VerifyWorkers: getEnvAsInt("VERIFY_WORKERS", 10),
		HELODomain:    getEnv("VERIFY_HELO_DOMAIN", "verify.zotexmedia.com"),
		SMTPProbePort: getEnvAsInt("VERIFY_SMTP_PORT", 25),
		SMTPTimeout:   time.Duration(getEnvAsInt("VERIFY_SMTP_TIMEOUT_SECONDS", 8)) * time.Second,
		DNSTimeout:    time.Duration(getEnvAsInt("VERIFY_DNS_TIMEOUT_SECONDS", 4)) * time.Second,
		BlocklistZone: getEnv("VERIFY_BLOCKLIST_ZONE", "dbl.spamhaus.org"),
		WHOISEnabled:  getEnv("VERIFY_WHOIS_ENABLED", "true") == "true",

		DisposableListURL: getEnv("LIST_DISPOSABLE_URL",
			"https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/master/disposable_email_blocklist.conf"),
		RoleListURL: getEnv("LIST_ROLE_URL",
			"https://raw.githubusercontent.com/mixmaxhq/role-based-email-addresses/master/role-addresses.json"),
		TypoListURL: getEnv("LIST_TYPO_URL",
			"https://raw.githubusercontent.com/m-a-x-s-e-e-l-i-g/common-email-domain-typos/main/typos.txt"),
		ListRefreshTTL:   time.Duration(getEnvAsInt("LIST_REFRESH_TTL_HOURS", 24)) * time.Hour,
		ListFetchTimeout: time.Duration(getEnvAsInt("LIST_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,

		RateLimitVerify: getEnvAsInt("RATE_LIMIT_VERIFY", 60),
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is required for API key management")
	}
	if AppConfig.DefaultPolicy != "strict" && AppConfig.DefaultPolicy != "lenient" {
		return fmt.Errorf("VERIFY_DEFAULT_POLICY must be strict or lenient, got %q", AppConfig.DefaultPolicy)
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Verifier: policy=%s workers=%d probe=%s:%d blocklist=%s",
		AppConfig.DefaultPolicy,
		AppConfig.VerifyWorkers,
		AppConfig.HELODomain,
		AppConfig.SMTPProbePort,
		AppConfig.BlocklistZone)
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.APIKey{},
		&models.VerificationJob{},
		&models.VerificationRow{},
	)
}
