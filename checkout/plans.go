package checkout

import (
	_ "embed"
	"fmt"

	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

// Plan is a purchasable subscription as shown on the pricing page
type Plan struct {
	ID       string         `yaml:"id"`
	Tier     users.PlanTier `yaml:"tier"`
	Name     string         `yaml:"name"`
	Price    int64          `yaml:"price"` // Minor units
	Currency string         `yaml:"currency"`
	Interval string         `yaml:"interval"`
	Features []string       `yaml:"features"`
}

// DisplayPrice formats the price for humans, e.g. "INR 499.00"
func (p Plan) DisplayPrice() string {
	return fmt.Sprintf("%s %d.%02d", p.Currency, p.Price/100, p.Price%100)
}

// ParsePlans reads plans from YAML
func ParsePlans(data []byte) ([]Plan, error) {
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "[ParsePlans] unmarshal plans")
	}
	seen := make(map[string]bool, len(doc.Plans))
	for _, p := range doc.Plans {
		if p.ID == "" {
			return nil, errors.New("[ParsePlans] plan without id")
		}
		if seen[p.ID] {
			return nil, errors.Errorf("[ParsePlans] duplicate plan %q", p.ID)
		}
		seen[p.ID] = true
	}
	return doc.Plans, nil
}

// DefaultPlans returns the plans compiled into the binary
func DefaultPlans() []Plan {
	plans, err := ParsePlans(defaultPlansYAML)
	if err != nil {
		panic(err)
	}
	return plans
}
