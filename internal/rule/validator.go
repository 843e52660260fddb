package rule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/model"
)

// ValidatePattern checks that a rule pattern is well-formed for its type.
// It is called at rule create/update time; the matcher itself tolerates
// malformed patterns by treating them as non-matches.
func ValidatePattern(ruleType model.RuleType, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("%w: pattern cannot be empty", common.ErrInvalidPattern)
	}

	switch ruleType {
	case model.RuleRegex:
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: invalid regex: %v", common.ErrInvalidPattern, err)
		}

	case model.RuleAmountRange:
		var bounds struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		}
		if err := json.Unmarshal([]byte(pattern), &bounds); err != nil {
			return fmt.Errorf("%w: amount range must be valid JSON with min and max: %v", common.ErrInvalidPattern, err)
		}
		if bounds.Min == nil || bounds.Max == nil {
			return fmt.Errorf("%w: amount range must have min and max values", common.ErrInvalidPattern)
		}
		if *bounds.Min > *bounds.Max {
			return fmt.Errorf("%w: minimum amount cannot be greater than maximum amount", common.ErrInvalidPattern)
		}

	case model.RuleAmountExact, model.RuleAmountGreater, model.RuleAmountLess:
		amount, err := strconv.ParseFloat(strings.TrimSpace(pattern), 64)
		if err != nil {
			return fmt.Errorf("%w: amount must be a valid number", common.ErrInvalidPattern)
		}
		if amount < 0 {
			return fmt.Errorf("%w: amount cannot be negative", common.ErrInvalidPattern)
		}

	case model.RuleKeyword:
		hasTerm := false
		for _, term := range strings.Split(pattern, ",") {
			if strings.TrimSpace(term) != "" {
				hasTerm = true
				break
			}
		}
		if !hasTerm {
			return fmt.Errorf("%w: at least one keyword must be provided", common.ErrInvalidPattern)
		}
	}

	return nil
}
