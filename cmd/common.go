package cmd

import (
	"fmt"
	"os"

	"mermdv/config"
	"mermdv/loader"
	"mermdv/schema"
	"mermdv/validator"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "Project file")
}

// loadProject reads the project file, falling back to defaults when the
// default file does not exist. An explicit --config that is missing is
// an error.
func loadProject() (*config.Config, error) {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if configFile == config.DefaultFile {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("project file %s not found", configFile)
	}
	return config.Load(configFile)
}

// loadDiagram parses the diagram file, preferring an explicit flag over
// the project file, and marks configured CDM entities.
func loadDiagram(cfg *config.Config, override string) (*schema.Diagram, string, string, error) {
	file := cfg.Diagram
	if override != "" {
		file = override
	}
	d, text, err := loader.LoadDiagramFromFile(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("loading diagram: %v", err)
	}
	loader.MarkCDMEntities(d, cfg.CDMEntities)
	return d, text, file, nil
}

// revalidate re-parses corrected text and returns fresh warnings.
func revalidate(cfg *config.Config, text string) []validator.Warning {
	d := loader.ParseDiagram(text)
	loader.MarkCDMEntities(d, cfg.CDMEntities)
	return validator.Validate(d)
}

func countBySeverity(warnings []validator.Warning) (errors, warns, infos int) {
	for _, w := range warnings {
		switch w.Severity {
		case validator.SeverityError:
			errors++
		case validator.SeverityWarning:
			warns++
		default:
			infos++
		}
	}
	return
}
