package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "leadscraper"
)

// APIKey resolves the credential for one provider. Lookup order: OS
// keychain, LEADS_<SOURCE>_API_KEY environment variable, then the
// config file value. Empty is a valid result for keyless providers.
func APIKey(src domain.Source, cfgValue string) string {
	if pw, err := keyring.Get(KeyringService, account(src)); err == nil && strings.TrimSpace(pw) != "" {
		return pw
	}
	if v := strings.TrimSpace(os.Getenv(envVar(src))); v != "" {
		return v
	}
	return strings.TrimSpace(cfgValue)
}

func SetAPIKey(src domain.Source, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, account(src), key)
}

func DeleteAPIKey(src domain.Source) error {
	return keyring.Delete(KeyringService, account(src))
}

func account(src domain.Source) string {
	return fmt.Sprintf("leadscraper:source:%s", src)
}

func envVar(src domain.Source) string {
	name := strings.ToUpper(string(src))
	name = strings.ReplaceAll(name, "-", "_")
	return "LEADS_" + name + "_API_KEY"
}
