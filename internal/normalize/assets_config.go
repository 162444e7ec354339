package normalize

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// InstrumentsConfig is the YAML override for the instrument list.
type InstrumentsConfig struct {
	Instruments []Instrument `yaml:"instruments"`
}

type YAMLInstrumentsLoader struct {
	reader io.Reader
}

func NewYAMLInstrumentsLoader(reader io.Reader) *YAMLInstrumentsLoader {
	return &YAMLInstrumentsLoader{
		reader: reader,
	}
}

func (cl *YAMLInstrumentsLoader) Load() (*InstrumentsConfig, error) {
	decoder := yaml.NewDecoder(cl.reader)
	var cfg InstrumentsConfig
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	for i, inst := range cfg.Instruments {
		if inst.Symbol == "" {
			return nil, fmt.Errorf("instrument %d: symbol is required", i)
		}
		if len(inst.Keywords) == 0 {
			return nil, fmt.Errorf("instrument %q: at least one keyword is required", inst.Symbol)
		}
	}
	return &cfg, nil
}

// LoadInstrumentsFile reads an instrument list from a YAML file. An empty
// path means the built-in defaults.
func LoadInstrumentsFile(path string) ([]Instrument, error) {
	if path == "" {
		return DefaultInstruments(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instruments config: %w", err)
	}
	defer f.Close()

	cfg, err := NewYAMLInstrumentsLoader(f).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load instruments config: %w", err)
	}
	return cfg.Instruments, nil
}
