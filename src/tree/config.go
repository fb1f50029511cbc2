package tree

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Default rounding precisions for combined orders.
const (
	DefaultSizePrecision  int32 = 7
	DefaultPricePrecision int32 = 2
)

type Config struct {
	Directory      string `envconfig:"ORDER_TREE_DIR" default:"./orders"`
	UseCache       bool   `envconfig:"ORDER_TREE_CACHE" default:"true"`
	SizePrecision  int32  `envconfig:"ORDER_SIZE_PRECISION" default:"7"`
	PricePrecision int32  `envconfig:"ORDER_PRICE_PRECISION" default:"2"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
