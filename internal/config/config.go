package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Placeholder is the phrase the input form leaves in unfilled fields.
// A value containing it is treated as "not provided".
const Placeholder = "を入力してください"

type Config struct {
	Company         Company         `yaml:"company"`
	Industry        Industry        `yaml:"industry"`
	Competitors     Competitors     `yaml:"competitors"`
	SEO             SEO             `yaml:"seo"`
	TargetCustomers TargetCustomers `yaml:"target_customers"`
	MarketingGoals  MarketingGoals  `yaml:"marketing_goals"`
	LandingPage     LandingPage     `yaml:"landing_page"`
	QualityControl  QualityControl  `yaml:"quality_control"`
	Output          Output          `yaml:"output"`
}

type Company struct {
	Name         string   `yaml:"name"`
	BusinessName string   `yaml:"business_name"`
	Industry     string   `yaml:"industry"`
	Location     string   `yaml:"location"`
	Prefecture   string   `yaml:"prefecture"`
	City         string   `yaml:"city"`
	KeyFeatures  []string `yaml:"key_features"`
	Services     Services `yaml:"services"`
	Contact      Contact  `yaml:"contact"`
}

type Services struct {
	PrimaryService string `yaml:"primary_service"`
	PriceRange     string `yaml:"price_range"`
	SpecialOffers  string `yaml:"special_offers"`
}

type Contact struct {
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
	Website string `yaml:"website"`
	Hours   string `yaml:"hours"`
}

type Industry struct {
	Name             string   `yaml:"name"`
	MarketSize       string   `yaml:"market_size"`
	GrowthRate       string   `yaml:"growth_rate"`
	Characteristics  []string `yaml:"characteristics"`
	CustomerBehavior []string `yaml:"customer_behavior"`
	Challenges       []string `yaml:"challenges"`
}

type Competitors struct {
	TargetCompanies []TargetCompany `yaml:"target_companies"`
}

type TargetCompany struct {
	Name     string `yaml:"name"`
	Website  string `yaml:"website"`
	Category string `yaml:"category"`
}

type SEO struct {
	PrimaryKeywords    []string           `yaml:"primary_keywords"`
	SecondaryKeywords  []string           `yaml:"secondary_keywords"`
	LocalKeywords      []string           `yaml:"local_keywords"`
	CompanyDomain      string             `yaml:"company_domain"`
	TargetLocation     string             `yaml:"target_location"`
	RequestDelaySec    int                `yaml:"request_delay_sec"`
	DomainTerms        []string           `yaml:"domain_terms"`
	CompetitorPatterns CompetitorPatterns `yaml:"competitor_patterns"`
}

// CompetitorPatterns maps each fixed competitor category to the domain
// substrings that identify it. Matching priority is major chain, comparison
// portal, regional, informational; the first hit wins.
type CompetitorPatterns struct {
	MajorChain       []string `yaml:"major_chain"`
	ComparisonPortal []string `yaml:"comparison_portal"`
	Regional         []string `yaml:"regional"`
	Informational    []string `yaml:"informational"`
}

type TargetCustomers struct {
	Segments []string `yaml:"segments"`
	Notes    string   `yaml:"notes"`
}

type MarketingGoals struct {
	PrimaryGoal   string   `yaml:"primary_goal"`
	Timeline      string   `yaml:"timeline"`
	Budget        string   `yaml:"budget"`
	TargetMetrics []string `yaml:"target_metrics"`
}

type LandingPage struct {
	Purpose          string `yaml:"purpose"`
	TargetAction     string `yaml:"target_action"`
	DesignPreference string `yaml:"design_preference"`
}

type QualityControl struct {
	MandatoryReviews []string `yaml:"mandatory_reviews"`
}

type Output struct {
	Dir         string `yaml:"dir"`
	DataDir     string `yaml:"data_dir"`
	TemplateDir string `yaml:"template_dir"`
}

// ResolveConfigPath finds the config file following priority:
// explicit path > input/project-config.yaml > config/project-config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, candidate := range []string{"input/project-config.yaml", "config/project-config.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  input/project-config.yaml\n  config/project-config.yaml\n\nRun 'marketing-agent init' to create a default config",
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		SEO: SEO{
			RequestDelaySec: 3,
			DomainTerms:     []string{"葬儀", "家族葬", "直葬", "火葬"},
			CompetitorPatterns: CompetitorPatterns{
				MajorChain:       []string{"aeon-life.jp", "koekisha.co.jp", "e-sogi.com", "sougi-sos.com"},
				ComparisonPortal: []string{"iisogi.com", "chiisanaososhiki.jp", "osohshiki.jp", "sogi.jp"},
				Regional:         []string{"yokohama", "kanagawa", "sougi"},
				Informational:    []string{"syukatsulabo.jp", "osohshiki-plaza.com", "sougi-guide"},
			},
		},
		Output: Output{
			Dir:     "output",
			DataDir: "data",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Provided reports whether a field holds a real value rather than nothing or
// leftover form placeholder text.
func Provided(value string) bool {
	return value != "" && !strings.Contains(value, Placeholder)
}

// Validate checks the configuration. Errors block a run; warnings do not.
func (c *Config) Validate() (errors []string, warnings []string) {
	if !Provided(c.Company.Name) {
		errors = append(errors, "company name is not set")
	}
	if !Provided(c.Company.Industry) {
		errors = append(errors, "company industry is not set")
	}
	if !Provided(c.Company.Location) {
		errors = append(errors, "company location is not set")
	}

	if len(c.Competitors.TargetCompanies) < 3 {
		warnings = append(warnings, "at least 3 competitor companies are recommended")
	}
	if len(c.SEO.PrimaryKeywords) < 3 {
		warnings = append(warnings, "at least 3 primary keywords are recommended")
	}

	return errors, warnings
}

// AllKeywords returns the prioritized keyword set for SERP analysis:
// primary, then local, then secondary.
func (c *Config) AllKeywords() []string {
	var keywords []string
	keywords = append(keywords, c.SEO.PrimaryKeywords...)
	keywords = append(keywords, c.SEO.LocalKeywords...)
	keywords = append(keywords, c.SEO.SecondaryKeywords...)
	return keywords
}

// LocationTerms returns the terms that identify the operator's service area,
// used by the SERP competition-strength heuristic.
func (c *Config) LocationTerms() []string {
	var terms []string
	for _, t := range []string{c.Company.Location, c.Company.Prefecture, c.Company.City} {
		if Provided(t) {
			terms = append(terms, t)
		}
	}
	return terms
}

// OutDir returns the effective project output directory.
func (c *Config) OutDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return "output"
}

// GetDataDir returns the directory for the rank-history database.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return "data"
}
