package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	log "github.com/armadaproject/jointester/internal/common/logging"
)

// LoadConfig reads the base config file from defaultPath, merges every file in overrideConfigs on top of it in
// order, applies environment overrides carrying envPrefix and unmarshals the result into config.
// Environment variables use "_" in place of ".", e.g. JOINTESTER_INDEXCLIENT_SOLR_URL.
func LoadConfig(v *viper.Viper, config any, defaultPath string, overrideConfigs []string, envPrefix string) error {
	v.SetConfigFile(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "reading base config %s", defaultPath)
	}
	log.Infof("Read base config from %s", v.ConfigFileUsed())

	for _, overrideConfig := range overrideConfigs {
		v.SetConfigFile(overrideConfig)
		if err := v.MergeInConfig(); err != nil {
			return errors.Wrapf(err, "merging config %s", overrideConfig)
		}
		log.Infof("Merged config from %s", overrideConfig)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.Unmarshal(config, CustomHooks...); err != nil {
		return errors.Wrap(err, "unmarshalling config")
	}
	return nil
}
