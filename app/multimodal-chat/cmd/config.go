package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cchalm/multimodal-chat/internal/config"
)

var (
	v          = viper.New()
	configFile string
	appConfig  config.Config
	logger     = zerolog.Nop()
)

// bindFlag makes a flag, when set, override the config key
func bindFlag(flags *pflag.FlagSet, key string, name string) {
	if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
	}
}
