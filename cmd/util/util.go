package util

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/leegeunhyeok/box-db/lib/box"
	"github.com/leegeunhyeok/box-db/lib/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("boxdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Store Definition Files
// --------------------------------------------------------------------------

// StoreDefinition is one store declaration read from a definition file.
type StoreDefinition struct {
	Name          string                  `yaml:"name"`
	AutoIncrement bool                    `yaml:"autoIncrement"`
	Force         bool                    `yaml:"force"`
	Fields        map[string]schema.Field `yaml:"fields"`
}

// DefinitionsFile is the YAML layout of a --defs file:
//
//	stores:
//	  - name: user
//	    autoIncrement: true
//	    fields:
//	      name: { type: string, index: true }
//	      age:  { type: number }
type DefinitionsFile struct {
	Stores []StoreDefinition `yaml:"stores"`
}

// LoadDefinitions reads and parses a store definition file.
func LoadDefinitions(path string) (*DefinitionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs DefinitionsFile
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, err
	}
	return &defs, nil
}

// Declare registers every definition on the database and returns the model
// handles keyed by store name.
func (d *DefinitionsFile) Declare(db *box.DB) (map[string]*box.Model, error) {
	models := make(map[string]*box.Model, len(d.Stores))
	for _, def := range d.Stores {
		model, err := db.Create(def.Name, def.Fields, &schema.ModelOptions{
			AutoIncrement: def.AutoIncrement,
			Force:         def.Force,
		})
		if err != nil {
			return nil, err
		}
		models[def.Name] = model
	}
	return models, nil
}
