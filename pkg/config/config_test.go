package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("botToken", "test-token")
	os.Setenv("PORT", "3001")
	os.Setenv("enviroment", "test")
	os.Setenv("STORAGE_DRIVER", "sqlite")
	defer func() {
		os.Unsetenv("botToken")
		os.Unsetenv("PORT")
		os.Unsetenv("enviroment")
		os.Unsetenv("STORAGE_DRIVER")
	}()

	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}

	if !config.UsesSQLite() {
		t.Error("UsesSQLite() should return true when STORAGE_DRIVER is 'sqlite'")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %v, want %v", got, "test-value")
	}

	if got := getEnv("NON_EXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}
}

func TestGetEnvNumbers(t *testing.T) {
	os.Setenv("TEST_INT", "12")
	os.Setenv("TEST_BAD_INT", "doce")
	os.Setenv("TEST_FLOAT", "0.5")
	defer func() {
		os.Unsetenv("TEST_INT")
		os.Unsetenv("TEST_BAD_INT")
		os.Unsetenv("TEST_FLOAT")
	}()

	if got := getEnvInt("TEST_INT", 1); got != 12 {
		t.Errorf("getEnvInt() = %v, want %v", got, 12)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt() = %v, want %v", got, 7)
	}
	if got := getEnvFloat("TEST_FLOAT", 2); got != 0.5 {
		t.Errorf("getEnvFloat() = %v, want %v", got, 0.5)
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	os.Setenv("enviroment", "prod")
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	os.Setenv("enviroment", "dev")
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}

	os.Unsetenv("enviroment")
}

func TestGet(t *testing.T) {
	resetForTesting()

	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	config2 := Get()
	if config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{"botToken", "devGuildId", "mongodbUrl", "dbName", "MQTT_Host", "MQTT_Port",
		"PORT", "enviroment", "STORAGE_DRIVER", "GUILD_CONFIG_PATH", "COOLDOWN_CACHE_SIZE"} {
		os.Unsetenv(key)
	}

	resetForTesting()
	config, _ := Load()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"MongoDBURL", config.MongoDBURL, "mongodb://localhost:27017"},
		{"DBName", config.DBName, "PancyMod"},
		{"MQTTHost", config.MQTTHost, "localhost"},
		{"MQTTPort", config.MQTTPort, "1883"},
		{"Port", config.Port, "3000"},
		{"Environment", config.Environment, "dev"},
		{"StorageDriver", config.StorageDriver, StorageMongo},
		{"GuildConfigPath", config.GuildConfigPath, "config/guilds.json"},
		{"CooldownCacheSize", config.CooldownCacheSize, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s default = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadGuilds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	data := `[
		{
			"guildId": "G1",
			"moderationEmojis": {"mute": "🔇"},
			"loggingChannels": {"default": "C-LOG", "purge": "C-PURGE"},
			"publicChannels": ["C-BOTS"]
		}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := LoadGuilds(path)
	if err != nil {
		t.Fatalf("LoadGuilds() returned error: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %v, want 1", store.Len())
	}

	g := store.Guild("G1")
	if got := g.Emoji("mute", "x"); got != "🔇" {
		t.Errorf("Emoji(mute) = %v, want 🔇", got)
	}
	if got := g.Emoji("ban", "🔨"); got != "🔨" {
		t.Errorf("Emoji(ban) = %v, want fallback", got)
	}
	if ch, _ := g.LogChannel("purge"); ch != "C-PURGE" {
		t.Errorf("LogChannel(purge) = %v, want C-PURGE", ch)
	}
	if ch, _ := g.LogChannel("ban"); ch != "C-LOG" {
		t.Errorf("LogChannel(ban) = %v, want default C-LOG", ch)
	}
	if !g.IsPublicChannel("C-BOTS") || g.IsPublicChannel("C-GENERAL") {
		t.Error("IsPublicChannel() returned the wrong visibility")
	}

	unknown := store.Guild("G2")
	if unknown == nil {
		t.Fatal("Guild() should never return nil")
	}
	if _, ok := unknown.LogChannel("ban"); ok {
		t.Error("unconfigured guild should have no log channel")
	}
}

func TestLoadGuildsMissingFile(t *testing.T) {
	store, err := LoadGuilds(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadGuilds() returned error for missing file: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %v, want 0", store.Len())
	}
}
