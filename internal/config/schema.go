package config

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

const schemaSource = `
#Duration:    string & =~"^[0-9]"
#Probability: number & >=0 & <=1

#Config: {
	hot_reload?: bool
	logging?: {
		level?:  =~"^(?i)(|trace|debug|info|warn|error|fatal|panic|disabled)$"
		format?: "" | "json" | "text"
		loki?: {
			enabled?: bool
			url?:     string
			labels?: [string]: string
		}
	}
	telemetry?: {
		enabled?:  bool
		provider?: =~"^(?i)(|prometheus)$"
	}
	device?: {
		poll_interval?:     #Duration
		request_timeout?:   #Duration
		status_expression?: string
	}
	simulation?: {
		interval?: #Duration
		source?:   =~"^(?i)(|pseudo|mersenne|math|secure|crypto)$"
		seed?:     int
		weights?: {
			green:  #Probability
			yellow: #Probability
			red:    #Probability
		}
		activation?: [=~"^(green|yellow|red)$"]: [string]: #Probability
	}
	dashboard?: {
		time_refresh?: #Duration
		listen?:       string
	}
	storage?: {
		path?: string
	}
}
`

// Validate checks the configuration against the CUE schema and the rules
// that cannot be expressed there.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}
	doc, err := cfg.document()
	if err != nil {
		return err
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("crowdmon.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.Logging.Loki.Enabled && strings.TrimSpace(cfg.Logging.Loki.URL) == "" {
		return errors.New("validate config: logging.loki.url is required when loki is enabled")
	}
	return nil
}

// document converts the configuration into the generic shape the schema is
// evaluated against.
func (c *Config) document() (map[string]interface{}, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	doc := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal config document: %w", err)
	}
	return doc, nil
}
