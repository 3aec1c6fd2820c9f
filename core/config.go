package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

// Conf is the app-wide configuration, populated by LoadConfig at startup.
var Conf *Config

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default) | TEST | QA | PROD
		AppName  string
		Build    string
		WorkDir  string

		SecretKey                 []byte
		PasswordResetTimeoutDelta time.Duration

		DefaultFromEmailName    string
		DefaultFromEmailAddress string
		AdminEmailAddress       string
		FrontendBaseURL         string

		SendgridApiKey string
		RollbarToken   string

		Server     ServerConfig
		Database   DatabaseConfig
		Redis      RedisConfig
		Reporting  ReportingConfig
		Navigation NavigationConfig

		flags map[Flag]bool
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PermissionFetchTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	RedisConfig struct {
		Enabled bool
		Addr    string
		DB      int
	}

	ReportingConfig struct {
		CacheTTL  time.Duration
		CacheSize int
	}

	NavigationConfig struct {
		MinSpacing time.Duration
		QueueSize  int
	}
)

// Flag is a compile-time known feature flag. Unknown flags always resolve to false.
type Flag string

const (
	FlagSuperadminRBAC     Flag = "superadmin_rbac"
	FlagEnhancedReports    Flag = "enhanced_reports"
	FlagNotificationCenter Flag = "notification_center"
	FlagCommunityWorkspace Flag = "community_workspace"
)

func (c *Config) FlagEnabled(f Flag) bool { return c.flags[f] }

func (dbc DatabaseConfig) Address() string { return dbc.Host + ":" + dbc.Port }

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromEmailName, Address: c.DefaultFromEmailAddress}
}

func (c *Config) AdminEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.AdminEmailAddress}
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Genera")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("defaultFromEmailName", "Genera")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminEmail", "soporte@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("permissionFetchTimeout", 5*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "genera")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("redisEnabled", false)
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisDB", 0)
	v.SetDefault("reportingCacheTTL", 5*time.Minute)
	v.SetDefault("reportingCacheSize", 256)
	v.SetDefault("navMinSpacing", 300*time.Millisecond)
	v.SetDefault("navQueueSize", 16)
	v.SetDefault("featureSuperadminRBAC", false)
	v.SetDefault("featureEnhancedReports", false)
	v.SetDefault("featureNotificationCenter", true)
	v.SetDefault("featureCommunityWorkspace", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	wd := getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:                     v.GetBool("debug"),
		TestMode:                  env == "TEST",
		Env:                       env,
		AppName:                   v.GetString("appName"),
		Build:                     v.GetString("build"),
		WorkDir:                   wd,
		SecretKey:                 []byte(v.GetString("secretKey")),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		DefaultFromEmailName:      v.GetString("defaultFromEmailName"),
		DefaultFromEmailAddress:   v.GetString("defaultFromEmail"),
		AdminEmailAddress:         v.GetString("adminEmail"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetString("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			PermissionFetchTimeout:    v.GetDuration("permissionFetchTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Enabled: v.GetBool("redisEnabled"),
			Addr:    v.GetString("redisAddr"),
			DB:      v.GetInt("redisDB"),
		},
		Reporting: ReportingConfig{
			CacheTTL:  v.GetDuration("reportingCacheTTL"),
			CacheSize: v.GetInt("reportingCacheSize"),
		},
		Navigation: NavigationConfig{
			MinSpacing: v.GetDuration("navMinSpacing"),
			QueueSize:  v.GetInt("navQueueSize"),
		},
		flags: map[Flag]bool{
			FlagSuperadminRBAC:     v.GetBool("featureSuperadminRBAC"),
			FlagEnhancedReports:    v.GetBool("featureEnhancedReports"),
			FlagNotificationCenter: v.GetBool("featureNotificationCenter"),
			FlagCommunityWorkspace: v.GetBool("featureCommunityWorkspace"),
		},
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	checks := []vala.Checker{
		vala.StringNotEmpty(string(c.SecretKey), "secretKey"),
		vala.StringNotEmpty(c.Database.Name, "dbName"),
		vala.StringNotEmpty(c.Server.Port, "serverPort"),
	}
	if c.Env == "PROD" {
		checks = append(checks,
			vala.StringNotEmpty(c.SendgridApiKey, "sendgridApiKey"),
			vala.StringNotEmpty(c.RollbarToken, "rollbarToken"),
		)
	}
	return vala.BeginValidation().Validate(checks...).Check()
}

// NewTestConfig returns a Config suitable for unit tests: no .env lookups,
// in-process defaults only.
func NewTestConfig() *Config {
	return &Config{
		Debug:                     true,
		TestMode:                  true,
		Env:                       "TEST",
		AppName:                   "Genera",
		SecretKey:                 []byte("secret"),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		DefaultFromEmailName:      "Genera",
		DefaultFromEmailAddress:   "noreply@test.test",
		AdminEmailAddress:         "soporte@test.test",
		FrontendBaseURL:           "http://localhost:3000",
		Server: ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PermissionFetchTimeout:    time.Second,
		},
		Reporting:  ReportingConfig{CacheTTL: time.Minute, CacheSize: 16},
		Navigation: NavigationConfig{MinSpacing: time.Millisecond, QueueSize: 16},
		flags: map[Flag]bool{
			FlagSuperadminRBAC:     true,
			FlagNotificationCenter: true,
			FlagCommunityWorkspace: true,
		},
	}
}

// SetTestFlag overrides a feature flag; tests only.
func (c *Config) SetTestFlag(f Flag, enabled bool) {
	if c.flags == nil {
		c.flags = make(map[Flag]bool)
	}
	c.flags[f] = enabled
}

// getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
