package inventory

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// Wildcard as a rule product matches every product of the category. As a
// target item it stands for the sold product's own name.
const Wildcard = "*"

// ErrInvalidRule is returned for rules without targets or with a
// non-positive multiplier.
var ErrInvalidRule = errors.New("invalid deduction rule")

// Target names an inventory item and how many units of it one sold unit
// consumes.
type Target struct {
	Item       string `json:"item"`
	Multiplier int    `json:"multiplier"`
}

// Rule maps a sold product to the raw stock it consumes.
type Rule struct {
	Category string   `json:"category"`
	Product  string   `json:"product"`
	Targets  []Target `json:"deduct"`
}

// RuleRepository loads the deduction rule table.
type RuleRepository interface {
	ListRules(ctx context.Context) ([]Rule, error)
}

// DuplicateRuleError indicates two rules share a (category, product) key.
type DuplicateRuleError struct {
	Category string
	Product  string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("duplicate deduction rule for %q / %q", e.Category, e.Product)
}

type ruleKey struct {
	category string
	product  string
}

// RuleTable resolves sold products to deduction targets.
type RuleTable struct {
	rules map[ruleKey][]Target
}

// NewRuleTable validates rules and indexes them by normalized
// (category, product).
func NewRuleTable(rules []Rule) (*RuleTable, error) {
	t := &RuleTable{rules: make(map[ruleKey][]Target, len(rules))}
	for _, r := range rules {
		if len(r.Targets) == 0 {
			return nil, errors.Wrapf(ErrInvalidRule, "%s / %s: no targets", r.Category, r.Product)
		}
		for _, tg := range r.Targets {
			if tg.Multiplier <= 0 {
				return nil, errors.Wrapf(ErrInvalidRule, "%s / %s: multiplier %d for %q", r.Category, r.Product, tg.Multiplier, tg.Item)
			}
			if Key(tg.Item) == "" {
				return nil, errors.Wrapf(ErrInvalidRule, "%s / %s: empty target item", r.Category, r.Product)
			}
		}

		k := ruleKey{category: Key(r.Category), product: Key(r.Product)}
		if k.category == "" || k.product == "" {
			return nil, errors.Wrapf(ErrInvalidRule, "%q / %q: category and product required", r.Category, r.Product)
		}
		if _, ok := t.rules[k]; ok {
			return nil, &DuplicateRuleError{Category: r.Category, Product: r.Product}
		}
		targets := make([]Target, len(r.Targets))
		copy(targets, r.Targets)
		t.rules[k] = targets
	}
	return t, nil
}

// LoadRuleTable reads rules from repo and builds a RuleTable.
func LoadRuleTable(ctx context.Context, repo RuleRepository) (*RuleTable, error) {
	rules, err := repo.ListRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list deduction rules")
	}
	return NewRuleTable(rules)
}

// Lookup returns the targets for a sold product with wildcard target items
// resolved to the product name. An exact product rule takes precedence over
// the category wildcard. Unmapped products yield nil.
func (t *RuleTable) Lookup(category, product string) []Target {
	c := Key(category)
	targets, ok := t.rules[ruleKey{category: c, product: Key(product)}]
	if !ok {
		targets, ok = t.rules[ruleKey{category: c, product: Wildcard}]
	}
	if !ok {
		return nil
	}

	out := make([]Target, len(targets))
	for i, tg := range targets {
		if tg.Item == Wildcard {
			tg.Item = product
		}
		out[i] = tg
	}
	return out
}

// Len returns the number of rules.
func (t *RuleTable) Len() int {
	return len(t.rules)
}
