// Package config loads the settings of the sensortwin command from an optional
// sensortwin.yaml file and SENSORTWIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding settings, e.g.
// SENSORTWIN_DATA_DIR overrides data_dir.
const EnvPrefix = "SENSORTWIN"

// Settings configure where sensortwin finds its ontology and keeps its data.
type Settings struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
	// ClassHierarchyPath defaults to class_hierarchy.json in DataDir.
	ClassHierarchyPath string `mapstructure:"class_hierarchy_path"`
	// HierarchyURL, if set, locates the hierarchy in a blob bucket instead,
	// e.g. s3://bucket/class_hierarchy.yaml.
	HierarchyURL string `mapstructure:"hierarchy_url" validate:"omitempty,url"`

	// Document collections, as gocloud docstore URLs.
	DevicesURL   string `mapstructure:"devices_url" validate:"required,url"`
	TwinsURL     string `mapstructure:"twins_url" validate:"required,url"`
	TemplatesURL string `mapstructure:"templates_url" validate:"required,url"`

	// ReportedURL is the subscription of ReadingReported messages, and
	// ReadingsURL the topic of ReadingAccepted messages, as gocloud pubsub URLs.
	ReportedURL string `mapstructure:"reported_url" validate:"omitempty,url"`
	ReadingsURL string `mapstructure:"readings_url" validate:"omitempty,url"`

	Neo4jURL      string `mapstructure:"neo4j_url" validate:"required,url"`
	Neo4jDatabase string `mapstructure:"neo4j_database" validate:"required"`

	// RandomSeed seeds synthetic readings; zero picks a random seed.
	RandomSeed     uint64 `mapstructure:"random_seed"`
	StrictOntology bool   `mapstructure:"strict_ontology"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the settings. If file is empty, Load looks for sensortwin.yaml in
// the working directory and carries on with defaults if there is none;
// otherwise the given file must exist.
func Load(file string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("data_dir", "data")
	v.SetDefault("class_hierarchy_path", "")
	v.SetDefault("hierarchy_url", "")
	v.SetDefault("devices_url", "mem://devices/id")
	v.SetDefault("twins_url", "mem://digital_twins/id")
	v.SetDefault("templates_url", "mem://device_templates/id")
	v.SetDefault("reported_url", "")
	v.SetDefault("readings_url", "")
	v.SetDefault("neo4j_url", "bolt://localhost:7687")
	v.SetDefault("neo4j_database", "ontology")
	v.SetDefault("random_seed", 0)
	v.SetDefault("strict_ontology", false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("sensortwin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if s.ClassHierarchyPath == "" {
		s.ClassHierarchyPath = filepath.Join(s.DataDir, "class_hierarchy.json")
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// HierarchySource returns where the class hierarchy is loaded from: the
// hierarchy URL if set, or else the local path.
func (s *Settings) HierarchySource() string {
	if s.HierarchyURL != "" {
		return s.HierarchyURL
	}
	return s.ClassHierarchyPath
}

// OntologyOptions returns the options the ontology is loaded with.
func (s *Settings) OntologyOptions() []ontology.Option {
	var opts []ontology.Option
	if s.RandomSeed != 0 {
		opts = append(opts, ontology.WithSeed(s.RandomSeed))
	}
	if s.StrictOntology {
		opts = append(opts, ontology.WithStrictReferences())
	}
	return opts
}
